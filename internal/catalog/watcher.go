package catalog

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"resumatch/internal/errors"
)

// Watcher serves the catalog loaded from a file and swaps in a new snapshot
// whenever the file changes. A failed reload keeps the previous snapshot.
type Watcher struct {
	mu sync.Mutex

	path          string
	current       atomic.Pointer[Catalog]
	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan chan struct{}
	done     chan struct{}
	running  bool

	onReload func(success bool, err error)
	logger   *errors.Logger
}

// NewWatcher loads path once and returns a watcher serving that snapshot.
// Call Start to begin watching for changes.
func NewWatcher(path string, debounceDelay time.Duration, logger *errors.Logger) (*Watcher, error) {
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}

	initial, err := LoadFile(absPath)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          absPath,
		debounceDelay: debounceDelay,
		logger:        logger,
	}
	w.current.Store(initial)
	return w, nil
}

// Catalog returns the current snapshot.
func (w *Watcher) Catalog() *Catalog {
	return w.current.Load()
}

// OnReload registers a callback invoked after every reload attempt.
func (w *Watcher) OnReload(fn func(success bool, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = fn
}

// Start begins watching the catalog file's directory. Editors and config
// management tools often replace files by rename, so the directory is
// watched rather than the file itself.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("catalog watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		if closeErr := fsWatcher.Close(); closeErr != nil {
			w.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.fsWatcher = fsWatcher
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	go w.watchLoop()

	w.logger.Info("Catalog watcher started",
		"file", w.path,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops watching. The last loaded snapshot stays available.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false
	fsWatcher := w.fsWatcher
	done := w.done
	w.mu.Unlock()

	err := fsWatcher.Close()
	<-done

	if err != nil {
		w.logger.LogError(err, "Failed to close catalog file watcher")
		return err
	}
	w.logger.Info("Catalog watcher stopped")
	return nil
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isRelevant(event) {
				w.scheduleReload()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Catalog file watcher error")
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.Reload)
}

// Reload loads the catalog file now and swaps it in on success.
func (w *Watcher) Reload() {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.LogError(err, "Catalog reload failed, keeping previous catalog", "file", w.path)
	} else {
		w.current.Store(next)
		w.logger.Info("Catalog reloaded", "file", w.path, "roles", next.Len())
	}

	w.mu.Lock()
	cb := w.onReload
	w.mu.Unlock()
	if cb != nil {
		cb(err == nil, err)
	}
}
