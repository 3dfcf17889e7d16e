package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/quickmatch"
)

func mustLoad(t *testing.T, code string) *Hooks {
	t.Helper()
	h, err := LoadString(code)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestLoadString(t *testing.T) {
	h := mustLoad(t, `
		function filter(text) return true end
		function boost(text, score) return score end
	`)

	if !h.HasFilter() {
		t.Error("HasFilter() = false, want true")
	}
	if h.HasTarget() {
		t.Error("HasTarget() = true, want false")
	}
	if !h.HasBoost() {
		t.Error("HasBoost() = false, want true")
	}
}

func TestLoadStringSyntaxError(t *testing.T) {
	_, err := LoadString(`function filter( broken`)
	if err == nil {
		t.Fatal("LoadString() with broken code succeeded, want error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hooks.lua")
	code := `function filter(text) return text ~= "skip" end`
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer h.Close()

	keep, err := h.Filter("skip")
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if keep {
		t.Error(`Filter("skip") = true, want false`)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.lua"))
	if err == nil {
		t.Fatal("Load() of missing file succeeded, want error")
	}
}

func TestFilter(t *testing.T) {
	h := mustLoad(t, `
		function filter(text)
			return string.find(text, "%.go$") ~= nil
		end
	`)

	tests := []struct {
		text string
		want bool
	}{
		{"main.go", true},
		{"util.go", true},
		{"README.md", false},
		{"go", false},
	}

	for _, tt := range tests {
		keep, err := h.Filter(tt.text)
		if err != nil {
			t.Fatalf("Filter(%q) error: %v", tt.text, err)
		}
		if keep != tt.want {
			t.Errorf("Filter(%q) = %v, want %v", tt.text, keep, tt.want)
		}
	}
}

func TestFilterWithoutHook(t *testing.T) {
	h := mustLoad(t, `-- no hooks`)

	keep, err := h.Filter("anything")
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if !keep {
		t.Error("Filter() without hook = false, want true")
	}
}

func TestFilterRuntimeError(t *testing.T) {
	h := mustLoad(t, `function filter(text) error("nope") end`)

	_, err := h.Filter("x")
	if err == nil {
		t.Fatal("Filter() with erroring hook succeeded, want error")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Errorf("Filter() error = %v, want script message included", err)
	}
}

func TestTarget(t *testing.T) {
	h := mustLoad(t, `
		function target(text)
			return string.gsub(text, "^.*/", "")
		end
	`)

	got, err := h.Target("cmd/tool/main.go")
	if err != nil {
		t.Fatalf("Target() error: %v", err)
	}
	if got != "main.go" {
		t.Errorf("Target() = %q, want %q", got, "main.go")
	}
}

func TestTargetNilKeepsOriginal(t *testing.T) {
	h := mustLoad(t, `function target(text) return nil end`)

	got, err := h.Target("original")
	if err != nil {
		t.Fatalf("Target() error: %v", err)
	}
	if got != "original" {
		t.Errorf("Target() = %q, want %q", got, "original")
	}
}

func TestTargetWrongType(t *testing.T) {
	h := mustLoad(t, `function target(text) return 42 end`)

	_, err := h.Target("x")
	if err == nil {
		t.Fatal("Target() returning a number succeeded, want error")
	}
}

func TestBoost(t *testing.T) {
	h := mustLoad(t, `
		function boost(text, score)
			if text == "pinned" then return 1.0 end
			return score * 0.5
		end
	`)

	got, err := h.Boost("pinned", 0.4)
	if err != nil {
		t.Fatalf("Boost() error: %v", err)
	}
	if got != 1.0 {
		t.Errorf("Boost(pinned) = %v, want 1.0", got)
	}

	got, err = h.Boost("other", 0.8)
	if err != nil {
		t.Fatalf("Boost() error: %v", err)
	}
	if got != 0.4 {
		t.Errorf("Boost(other) = %v, want 0.4", got)
	}
}

func TestBoostClamped(t *testing.T) {
	h := mustLoad(t, `
		function boost(text, score)
			if text == "high" then return 2.5 end
			return -1
		end
	`)

	got, err := h.Boost("high", 0.5)
	if err != nil {
		t.Fatalf("Boost() error: %v", err)
	}
	if got != 1.0 {
		t.Errorf("Boost(high) = %v, want clamp to 1.0", got)
	}

	got, err = h.Boost("low", 0.5)
	if err != nil {
		t.Fatalf("Boost() error: %v", err)
	}
	if got != 0 {
		t.Errorf("Boost(low) = %v, want clamp to 0", got)
	}
}

func TestBoostWrongType(t *testing.T) {
	h := mustLoad(t, `function boost(text, score) return "lots" end`)

	_, err := h.Boost("x", 0.5)
	if err == nil {
		t.Fatal("Boost() returning a string succeeded, want error")
	}
}

func TestApply(t *testing.T) {
	h := mustLoad(t, `
		function filter(text)
			return text ~= "README.md"
		end
		function target(text)
			return string.upper(text)
		end
	`)

	items := []quickmatch.Item{
		{Text: "main.go", Data: 1},
		{Text: "README.md", Data: 2},
		{Text: "util.go", Data: 3},
	}

	out, err := h.Apply(items)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Apply() kept %d items, want 2", len(out))
	}
	if out[0].Text != "MAIN.GO" || out[1].Text != "UTIL.GO" {
		t.Errorf("Apply() texts = %q, %q, want rewritten uppercase", out[0].Text, out[1].Text)
	}
	if out[0].Data != 1 || out[1].Data != 3 {
		t.Error("Apply() should preserve item Data")
	}

	// Input untouched.
	if items[0].Text != "main.go" {
		t.Error("Apply() modified the input slice")
	}
}

func TestApplyDropsEmptiedText(t *testing.T) {
	h := mustLoad(t, `function target(text) return "" end`)

	out, err := h.Apply([]quickmatch.Item{{Text: "a"}, {Text: "b"}})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Apply() kept %d items, want 0", len(out))
	}
}

func TestApplyWithoutHooks(t *testing.T) {
	h := mustLoad(t, `function boost(text, score) return score end`)

	items := []quickmatch.Item{{Text: "a"}}
	out, err := h.Apply(items)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(out) != 1 || out[0].Text != "a" {
		t.Errorf("Apply() without filter/target changed items: %v", out)
	}
}

func TestRescore(t *testing.T) {
	h := mustLoad(t, `
		function boost(text, score)
			if text == "b" then return 0.95 end
			if text == "c" then return 0 end
			return score
		end
	`)

	ranked := []quickmatch.Ranked{
		{Item: quickmatch.Item{Text: "a"}, Score: 0.9},
		{Item: quickmatch.Item{Text: "b"}, Score: 0.5},
		{Item: quickmatch.Item{Text: "c"}, Score: 0.4},
	}

	out, err := h.Rescore(ranked)
	if err != nil {
		t.Fatalf("Rescore() error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Rescore() kept %d results, want 2", len(out))
	}
	// b boosted above a; c dropped at zero.
	if out[0].Item.Text != "b" || out[1].Item.Text != "a" {
		t.Errorf("Rescore() order = %q, %q, want b, a", out[0].Item.Text, out[1].Item.Text)
	}
	if out[0].Score != 0.95 {
		t.Errorf("Rescore() top score = %v, want 0.95", out[0].Score)
	}

	// Input untouched.
	if ranked[1].Score != 0.5 {
		t.Error("Rescore() modified the input slice")
	}
}

func TestSandboxBlocksSystemAccess(t *testing.T) {
	h := mustLoad(t, `
		function filter(text)
			return os == nil and io == nil and dofile == nil
				and loadfile == nil and load == nil
		end
	`)

	clean, err := h.Filter("probe")
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if !clean {
		t.Error("sandbox exposes system globals to hook code")
	}
}

func TestSafeLibrariesAvailable(t *testing.T) {
	h := mustLoad(t, `
		function filter(text)
			local t = {3, 1, 2}
			table.sort(t)
			return t[1] == 1 and math.floor(2.7) == 2
				and string.rep("a", 2) == "aa"
		end
	`)

	ok, err := h.Filter("probe")
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if !ok {
		t.Error("table/math/string libraries should be available")
	}
}

func TestClosed(t *testing.T) {
	h := mustLoad(t, `function filter(text) return true end`)
	if err := h.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	// Close again should be safe.
	if err := h.Close(); err != nil {
		t.Errorf("Close() again error: %v", err)
	}

	if _, err := h.Filter("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Filter() after close error = %v, want ErrClosed", err)
	}
}
