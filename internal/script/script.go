// Package script runs user-supplied Lua hooks over candidate items. A
// hook file may define any of three global functions:
//
//	filter(text) -> bool      drop candidates the hook rejects
//	target(text) -> string    rewrite candidate text before matching
//	boost(text, score) -> score   adjust ranked scores afterwards
//
// Hooks run in a sandboxed state: only the base, table, string, and math
// libraries are open, and the code-loading base functions are removed, so
// a hook file cannot touch the filesystem, spawn processes, or load
// further chunks.
package script

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quickmatch"
)

// Hook function names looked up in the script's globals.
const (
	FilterFunc = "filter"
	TargetFunc = "target"
	BoostFunc  = "boost"
)

// ErrClosed indicates use of a Hooks after Close.
var ErrClosed = errors.New("script state closed")

// Hooks is a loaded hook script. The underlying Lua state is not
// goroutine-safe; the mutex serializes all calls.
type Hooks struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool

	hasFilter bool
	hasTarget bool
	hasBoost  bool
}

// Load reads and executes a hook file.
func Load(path string) (*Hooks, error) {
	h := newHooks()
	if err := h.run(func() error { return h.L.DoFile(path) }); err != nil {
		h.Close()
		return nil, fmt.Errorf("loading script %s: %w", path, err)
	}
	h.bind()
	return h, nil
}

// LoadString executes hook code from a string.
func LoadString(code string) (*Hooks, error) {
	h := newHooks()
	if err := h.run(func() error { return h.L.DoString(code) }); err != nil {
		h.Close()
		return nil, fmt.Errorf("loading script: %w", err)
	}
	h.bind()
	return h, nil
}

func newHooks() *Hooks {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base brings in the chunk loaders; hooks must not load further code.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	return &Hooks{L: L}
}

// bind records which hook functions the script defined.
func (h *Hooks) bind() {
	h.hasFilter = h.L.GetGlobal(FilterFunc).Type() == lua.LTFunction
	h.hasTarget = h.L.GetGlobal(TargetFunc).Type() == lua.LTFunction
	h.hasBoost = h.L.GetGlobal(BoostFunc).Type() == lua.LTFunction
}

// HasFilter reports whether the script defines filter().
func (h *Hooks) HasFilter() bool { return h.hasFilter }

// HasTarget reports whether the script defines target().
func (h *Hooks) HasTarget() bool { return h.hasTarget }

// HasBoost reports whether the script defines boost().
func (h *Hooks) HasBoost() bool { return h.hasBoost }

// Filter reports whether the script keeps the candidate. Scripts without
// a filter hook keep everything.
func (h *Hooks) Filter(text string) (bool, error) {
	if !h.hasFilter {
		return true, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ret, err := h.call(FilterFunc, lua.LString(text))
	if err != nil {
		return false, err
	}
	return !lua.LVIsFalse(ret), nil
}

// Target returns the text the candidate should be matched as. Scripts
// without a target hook, and hooks returning nil, leave it unchanged.
func (h *Hooks) Target(text string) (string, error) {
	if !h.hasTarget {
		return text, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ret, err := h.call(TargetFunc, lua.LString(text))
	if err != nil {
		return "", err
	}
	switch ret.Type() {
	case lua.LTString:
		return ret.String(), nil
	case lua.LTNil:
		return text, nil
	default:
		return "", fmt.Errorf("%s must return a string, got %s", TargetFunc, ret.Type())
	}
}

// Boost returns the adjusted score for a ranked candidate, clamped to
// [0, 1]. Scripts without a boost hook leave scores unchanged.
func (h *Hooks) Boost(text string, score float64) (float64, error) {
	if !h.hasBoost {
		return score, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ret, err := h.call(BoostFunc, lua.LString(text), lua.LNumber(score))
	if err != nil {
		return 0, err
	}
	num, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%s must return a number, got %s", BoostFunc, ret.Type())
	}

	boosted := float64(num)
	if boosted < 0 {
		boosted = 0
	}
	if boosted > 1 {
		boosted = 1
	}
	return boosted, nil
}

// Apply runs the filter and target hooks over items, returning the
// surviving candidates. Candidates whose rewritten text is empty are
// dropped. The input slice is not modified.
func (h *Hooks) Apply(items []quickmatch.Item) ([]quickmatch.Item, error) {
	if !h.hasFilter && !h.hasTarget {
		return items, nil
	}

	out := make([]quickmatch.Item, 0, len(items))
	for _, item := range items {
		keep, err := h.Filter(item.Text)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		text, err := h.Target(item.Text)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}

		item.Text = text
		out = append(out, item)
	}
	return out, nil
}

// Rescore runs the boost hook over ranked results, drops results boosted
// to zero, and restores score-descending order (ties by text). The input
// slice is not modified.
func (h *Hooks) Rescore(ranked []quickmatch.Ranked) ([]quickmatch.Ranked, error) {
	if !h.hasBoost {
		return ranked, nil
	}

	out := make([]quickmatch.Ranked, 0, len(ranked))
	for _, res := range ranked {
		score, err := h.Boost(res.Item.Text, res.Score)
		if err != nil {
			return nil, err
		}
		if score == 0 {
			continue
		}
		res.Score = score
		out = append(out, res)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Item.Text < out[j].Item.Text
	})
	return out, nil
}

// Close releases the Lua state. Further calls return ErrClosed.
func (h *Hooks) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.L.Close()
	h.closed = true
	return nil
}

// call invokes a global hook function with panic recovery. Callers hold
// the mutex.
func (h *Hooks) call(fn string, args ...lua.LValue) (lua.LValue, error) {
	if h.closed {
		return nil, ErrClosed
	}

	h.L.Push(h.L.GetGlobal(fn))
	for _, arg := range args {
		h.L.Push(arg)
	}

	var callErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("lua panic: %v", r)
			}
		}()
		callErr = h.L.PCall(len(args), 1, nil)
	}()
	if callErr != nil {
		return nil, fmt.Errorf("%s: %w", fn, callErr)
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)
	return ret, nil
}

// run executes a chunk loader with panic recovery.
func (h *Hooks) run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
