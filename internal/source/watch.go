package source

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher errors.
var (
	// ErrWatcherClosed indicates use after Close.
	ErrWatcherClosed = errors.New("watcher closed")
)

// Event reports that a watched candidates file changed.
type Event struct {
	// Path is the watched file.
	Path string
	// Timestamp is when the change settled.
	Timestamp time.Time
}

// Watcher reports settled changes to candidate files. It watches each
// file's parent directory, so it survives the write-temp-then-rename
// pattern editors and generators use, and it debounces bursts of writes
// into a single event per file.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	targets map[string]bool // absolute file paths
	dirs    map[string]bool // watched parent directories

	debounce *debouncer
	events   chan Event
	errors   chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher creates a watcher that delays each event until delay has
// passed without further changes to the same file.
func NewWatcher(delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		targets: make(map[string]bool),
		dirs:    make(map[string]bool),
		events:  make(chan Event, 16),
		errors:  make(chan error, 16),
		closeCh: make(chan struct{}),
	}
	w.debounce = newDebouncer(delay, w.emit)

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching the file at path.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.targets[abs] {
		return nil
	}

	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.targets[abs] = true
	return nil
}

// Events returns the settled-change channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the watcher error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debounce.stop()
	err := w.fsw.Close()
	w.closedWg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

// processLoop converts raw fsnotify events into debounced file changes.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	if !fsEvent.Op.Has(fsnotify.Write) &&
		!fsEvent.Op.Has(fsnotify.Create) &&
		!fsEvent.Op.Has(fsnotify.Rename) &&
		!fsEvent.Op.Has(fsnotify.Remove) {
		return
	}

	abs, err := filepath.Abs(fsEvent.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	watched := w.targets[abs]
	w.mu.Unlock()

	if watched {
		w.debounce.trigger(abs)
	}
}

// emit delivers a settled change, dropping it if the consumer is behind.
func (w *Watcher) emit(path string) {
	select {
	case w.events <- Event{Path: path, Timestamp: time.Now()}:
	case <-w.closeCh:
	default:
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	case <-w.closeCh:
	default:
	}
}

// debouncer coalesces triggers per key: the callback fires once delay has
// passed without another trigger for the same key.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*time.Timer
	fire    func(string)
	inQueue sync.WaitGroup
	stopped bool
}

func newDebouncer(delay time.Duration, fire func(string)) *debouncer {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*time.Timer),
		fire:    fire,
	}
}

// trigger schedules key to fire after the quiet period, restarting the
// clock if key is already pending.
func (d *debouncer) trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if timer, ok := d.pending[key]; ok {
		timer.Reset(d.delay)
		return
	}
	d.inQueue.Add(1)
	d.pending[key] = time.AfterFunc(d.delay, func() {
		defer d.inQueue.Done()
		d.mu.Lock()
		delete(d.pending, key)
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fire(key)
		}
	})
}

// stop cancels pending timers and waits for in-flight callbacks, so no
// fire can land after stop returns.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for key, timer := range d.pending {
		if timer.Stop() {
			d.inQueue.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()
	d.inQueue.Wait()
}
