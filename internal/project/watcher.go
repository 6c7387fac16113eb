package project

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"steward/pkg/logging"
)

// DebounceInterval is the time to wait after the last descriptor change
// before firing. An editor save or a batch copy touches a file several
// times in quick succession; one reconciliation pass covers all of it.
const DebounceInterval = 500 * time.Millisecond

// Watcher monitors the projects directory and invokes a callback, debounced,
// whenever a descriptor file is created, modified, renamed or removed.
type Watcher struct {
	mu sync.Mutex

	dir      string
	onChange func()

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher over the projects directory. onChange runs on
// the watcher's goroutine; callers hand off long work themselves.
func NewWatcher(dir string, onChange func()) *Watcher {
	return &Watcher{dir: dir, onChange: onChange}
}

// Start begins watching for descriptor changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	// Capture channels before releasing the lock to avoid racing Stop().
	eventsCh := watcher.Events
	errorsCh := watcher.Errors
	go w.processEvents(eventsCh, errorsCh)

	logging.Info("DescriptorWatcher", "Watching %s for descriptor changes", w.dir)
	return nil
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("DescriptorWatcher", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Editors write via temp files and renames, and removal of a descriptor
	// is as relevant as creation, so all ops except chmod count.
	if event.Op == fsnotify.Chmod {
		return
	}
	if !strings.HasSuffix(filepath.Base(event.Name), ".conf") {
		return
	}

	logging.Debug("DescriptorWatcher", "Descriptor changed: %s", event.Name)
	w.fireDebounced()
}

// fireDebounced schedules the callback after the debounce interval,
// restarting the timer on every new event.
func (w *Watcher) fireDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(DebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		callback := w.onChange
		w.mu.Unlock()

		if running && callback != nil {
			callback()
		}
	})
}

// Stop gracefully stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("DescriptorWatcher", "Closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}
	logging.Info("DescriptorWatcher", "Stopped descriptor watcher")
}
