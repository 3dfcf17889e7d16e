// Package app wires configuration, candidate loading, script hooks,
// ranking, and output together behind the quickmatch command. It owns
// the three run modes: one-shot filtering, the interactive picker, and
// watch mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/dshills/quickmatch"
	"github.com/dshills/quickmatch/internal/config"
	"github.com/dshills/quickmatch/internal/picker"
	"github.com/dshills/quickmatch/internal/script"
	"github.com/dshills/quickmatch/internal/source"
)

// Application holds the pieces a single quickmatch run needs. It is not
// safe for concurrent use; the command drives it from one goroutine.
type Application struct {
	cfg     *config.Config
	logger  *Logger
	ranker  *quickmatch.Ranker
	emitter *Emitter
	metrics *Metrics
	hooks   *script.Hooks

	items   []quickmatch.Item
	loaded  bool
	srcPath string
	srcOpts source.Options

	// newSearcher builds the interactive searcher. Tests swap in a
	// synchronous one so scripted keystrokes see finished results.
	newSearcher func() picker.Searcher
}

// New creates an application from a validated config. A nil config uses
// the defaults; a nil logger discards diagnostics.
func New(cfg *config.Config, logger *Logger) *Application {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = NullLogger
	}

	a := &Application{
		cfg:     cfg,
		logger:  logger,
		ranker:  quickmatch.NewRanker(cfg.Options()),
		emitter: NewEmitter(cfg.Output.Format),
		metrics: NewMetrics(),
	}
	a.emitter.Scores = cfg.Output.Scores
	a.newSearcher = a.defaultSearcher
	return a
}

// Emitter returns the output emitter so the command can resolve color
// and compactness before running.
func (a *Application) Emitter() *Emitter {
	return a.emitter
}

// Metrics returns the application's metrics tracker.
func (a *Application) Metrics() *Metrics {
	return a.metrics
}

// LoadScript loads Lua hooks from path. Load the script before the
// candidates so the filter and target hooks see them.
func (a *Application) LoadScript(path string) error {
	hooks, err := script.Load(path)
	if err != nil {
		return NewOperationError("loading script", path, err)
	}
	a.hooks = hooks
	a.logger.Debug("script hooks loaded from %s", path)
	return nil
}

// LoadFile reads candidates from path, remembering it for watch mode.
func (a *Application) LoadFile(path string, opts source.Options) error {
	tm := StartTimer()
	items, err := source.LoadFile(path, opts)
	if err != nil {
		return err
	}
	return a.setItems(items, path, opts, tm.Elapsed())
}

// LoadReader reads candidates from r, usually stdin.
func (a *Application) LoadReader(r io.Reader, opts source.Options) error {
	tm := StartTimer()
	items, err := source.Load(r, opts)
	if err != nil {
		return WrapError(err, "reading candidates")
	}
	return a.setItems(items, "", opts, tm.Elapsed())
}

func (a *Application) setItems(items []quickmatch.Item, path string, opts source.Options, took time.Duration) error {
	if a.hooks != nil {
		transformed, err := a.hooks.Apply(items)
		if err != nil {
			return NewComponentError("script", "apply", err)
		}
		items = transformed
	}

	a.items = items
	a.loaded = true
	a.srcPath = path
	a.srcOpts = opts
	a.metrics.RecordLoad(len(items), took)
	a.logger.Debug("loaded %d candidates in %.1fms", len(items), float64(took.Nanoseconds())/1e6)
	return nil
}

// Items returns the loaded candidates after script hooks.
func (a *Application) Items() []quickmatch.Item {
	return a.items
}

// Filter ranks the loaded candidates against abbr, applying the boost
// hook and the configured limit.
func (a *Application) Filter(abbr string) ([]quickmatch.Ranked, error) {
	if !a.loaded {
		return nil, ErrNoSource
	}

	tm := StartTimer()
	defer func() { a.metrics.RecordSearch(tm.Elapsed()) }()

	limit := a.cfg.Ranking.Limit
	if a.hooks != nil && a.hooks.HasBoost() {
		// Boost can reorder, so the limit applies after rescoring.
		ranked, err := a.hooks.Rescore(a.ranker.Rank(abbr, a.items, 0))
		if err != nil {
			return nil, NewComponentError("script", "boost", err)
		}
		return limitRanked(ranked, limit), nil
	}
	return a.ranker.Rank(abbr, a.items, limit), nil
}

// RunFilter is the one-shot mode: rank, print, report ErrNoMatch when
// nothing scored.
func (a *Application) RunFilter(w io.Writer, abbr string) error {
	results, err := a.Filter(abbr)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return ErrNoMatch
	}
	return a.emitter.Emit(w, results)
}

// RunInteractive runs the full-screen picker on screen and emits the
// selection to w. ErrAborted and ErrNoMatch report how the user left.
func (a *Application) RunInteractive(w io.Writer, screen picker.Screen) (err error) {
	if screen == nil {
		return fmt.Errorf("%w: interactive mode needs a terminal", ErrInitialization)
	}
	if !a.loaded {
		return ErrNoSource
	}

	// The picker owns the terminal; a panic must not leave it raw.
	defer func() {
		if r := recover(); r != nil {
			err = NewRecoveredPanicError(r, string(debug.Stack()))
		}
	}()

	searcher := a.newSearcher()
	if a.hooks != nil && a.hooks.HasBoost() {
		searcher = &hookedSearcher{
			inner:  searcher,
			hooks:  a.hooks,
			logger: a.logger,
		}
	}

	pick := picker.New(screen, searcher, a.items, picker.Options{
		Prompt:     a.cfg.Picker.Prompt,
		Height:     a.cfg.Picker.Height,
		ShowScores: a.cfg.Output.Scores,
	})

	res, err := pick.Run()
	switch {
	case errors.Is(err, picker.ErrAborted):
		return ErrAborted
	case errors.Is(err, picker.ErrNoMatch):
		return ErrNoMatch
	case err != nil:
		return WrapError(err, "interactive picker")
	}
	return a.emitter.EmitOne(w, res)
}

// Watch re-ranks and re-emits whenever the candidate file changes. Each
// change prints a fresh result block. Watch returns when ctx is
// canceled.
func (a *Application) Watch(ctx context.Context, w io.Writer, abbr string) error {
	if !a.loaded {
		return ErrNoSource
	}
	if a.srcPath == "" {
		return ErrWatchNeedsFile
	}

	watcher, err := source.NewWatcher(a.cfg.Watch.Debounce)
	if err != nil {
		return WrapError(err, "starting watcher")
	}
	defer watcher.Close()

	if err := watcher.Watch(a.srcPath); err != nil {
		return WrapError(err, "watching %s", a.srcPath)
	}

	log := a.logger.WithComponent("watch")
	log.Info("watching %s", a.srcPath)

	if err := a.emitCurrent(w, abbr); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			log.Debug("change to %s at %s", ev.Path, ev.Timestamp.Format("15:04:05.000"))
			if err := a.reload(); err != nil {
				// A half-written file should not kill the watch;
				// keep the previous candidates.
				a.metrics.RecordReloadFailure()
				log.Error("%v", NewComponentError("watcher", "reload", err))
				continue
			}
			a.metrics.RecordReload()
			if err := a.emitCurrent(w, abbr); err != nil {
				return err
			}
		case werr, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			log.Warn("watch error: %v", werr)
		}
	}
}

func (a *Application) reload() error {
	if err := a.LoadFile(a.srcPath, a.srcOpts); err != nil {
		return err
	}
	a.ranker.ClearCache()
	return nil
}

// emitCurrent prints the current ranking; no matches prints an empty
// block rather than failing, since watch mode keeps running.
func (a *Application) emitCurrent(w io.Writer, abbr string) error {
	results, err := a.Filter(abbr)
	if err != nil {
		return err
	}
	return a.emitter.Emit(w, results)
}

// Close releases the script state.
func (a *Application) Close() error {
	errs := NewErrorList()
	if a.hooks != nil {
		errs.Add(a.hooks.Close())
		a.hooks = nil
	}
	return errs.AsError()
}

func (a *Application) defaultSearcher() picker.Searcher {
	return quickmatch.NewStreamingRanker(
		quickmatch.NewAsyncRanker(a.ranker, a.cfg.Ranking.Workers),
	)
}

// hookedSearcher runs the boost hook over every result batch before it
// reaches the picker. The limit moves after the rescore so boosted
// candidates cannot be cut off early.
type hookedSearcher struct {
	inner  picker.Searcher
	hooks  *script.Hooks
	logger *Logger
}

func (s *hookedSearcher) Search(abbr string, items []quickmatch.Item, limit int, callback func([]quickmatch.Ranked)) {
	s.inner.Search(abbr, items, 0, func(ranked []quickmatch.Ranked) {
		rescored, err := s.hooks.Rescore(ranked)
		if err != nil {
			s.logger.Error("boost hook: %v", err)
			callback(limitRanked(ranked, limit))
			return
		}
		callback(limitRanked(rescored, limit))
	})
}

func (s *hookedSearcher) Cancel() {
	s.inner.Cancel()
}

func limitRanked(results []quickmatch.Ranked, limit int) []quickmatch.Ranked {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
