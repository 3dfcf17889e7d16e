package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	fired := make(chan string, 8)
	d := newDebouncer(60*time.Millisecond, func(key string) { fired <- key })
	defer d.stop()

	// Rapid triggers for the same key collapse into one fire.
	d.trigger("/list.txt")
	time.Sleep(10 * time.Millisecond)
	d.trigger("/list.txt")
	time.Sleep(10 * time.Millisecond)
	d.trigger("/list.txt")

	select {
	case key := <-fired:
		if key != "/list.txt" {
			t.Errorf("fired key = %q, want %q", key, "/list.txt")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced fire")
	}

	select {
	case key := <-fired:
		t.Errorf("unexpected extra fire for %q", key)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerSeparateKeys(t *testing.T) {
	fired := make(chan string, 8)
	d := newDebouncer(30*time.Millisecond, func(key string) { fired <- key })
	defer d.stop()

	d.trigger("/a.txt")
	d.trigger("/b.txt")

	got := make(map[string]bool)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case key := <-fired:
			got[key] = true
		case <-timeout:
			t.Fatalf("timeout waiting for fire %d", i+1)
		}
	}

	if !got["/a.txt"] || !got["/b.txt"] {
		t.Errorf("fired keys = %v, want both /a.txt and /b.txt", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	fired := make(chan string, 8)
	d := newDebouncer(50*time.Millisecond, func(key string) { fired <- key })

	d.trigger("/list.txt")
	d.stop()

	select {
	case key := <-fired:
		t.Errorf("fire after stop for %q", key)
	case <-time.After(120 * time.Millisecond):
	}

	// Triggers after stop are ignored.
	d.trigger("/list.txt")
	select {
	case key := <-fired:
		t.Errorf("fire after stop for %q", key)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}

	if w.Events() == nil {
		t.Error("events channel should not be nil")
	}
	if w.Errors() == nil {
		t.Error("errors channel should not be nil")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close error = %v", err)
	}
	// Close again should be safe.
	if err := w.Close(); err != nil {
		t.Errorf("Close again error = %v", err)
	}
}

func TestWatcherDetectsWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "candidates.txt")
	if err := os.WriteFile(path, []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error = %v", err)
	}

	if err := os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		if event.Path != path {
			t.Errorf("event.Path = %q, want %q", event.Path, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for write event")
	}
}

func TestWatcherDetectsAtomicReplace(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "candidates.txt")
	if err := os.WriteFile(path, []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error = %v", err)
	}

	// Editors write a temp file and rename it over the target.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte("beta\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		if event.Path != path {
			t.Errorf("event.Path = %q, want %q", event.Path, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for rename event")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	tmpDir := t.TempDir()
	watched := filepath.Join(tmpDir, "candidates.txt")
	sibling := filepath.Join(tmpDir, "other.txt")
	if err := os.WriteFile(watched, []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(30 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(watched); err != nil {
		t.Fatalf("Watch error = %v", err)
	}

	if err := os.WriteFile(sibling, []byte("noise\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for %q", event.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherWatchTwice(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "candidates.txt")
	if err := os.WriteFile(path, []byte("alpha\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch error = %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Errorf("Watch again error = %v, want nil", err)
	}
}

func TestWatcherWatchAfterClose(t *testing.T) {
	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	if err := w.Watch("/tmp/whatever.txt"); err != ErrWatcherClosed {
		t.Errorf("Watch after close error = %v, want ErrWatcherClosed", err)
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(50 * time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
	if _, ok := <-w.Errors(); ok {
		t.Error("errors channel should be closed")
	}
}
