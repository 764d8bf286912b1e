package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/sitesearch/internal/debounce"
)

// FileWatcher watches one file.
type FileWatcher struct {
	path      string
	opts      Options
	logger    *slog.Logger
	fsWatcher *fsnotify.Watcher
	debouncer *debounce.Debouncer[Event]
	events    chan Event
	errors    chan error
	stopCh    chan struct{}
	mu        sync.RWMutex
	stopped   bool
}

// New creates a watcher for path. The file does not need to exist yet, but
// its directory does unless polling is used.
func New(path string, opts Options) (*FileWatcher, error) {
	opts = opts.WithDefaults()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	w := &FileWatcher{
		path:      absPath,
		opts:      opts,
		logger:    opts.Logger,
		debouncer: debounce.New[Event](opts.DebounceWindow),
		events:    make(chan Event, 8),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err = fsw.Add(filepath.Dir(absPath)); err == nil {
				w.fsWatcher = fsw
			} else {
				_ = fsw.Close()
			}
		}
		if err != nil {
			w.logger.Warn("watcher_fallback_polling",
				slog.String("path", absPath),
				slog.String("error", err.Error()))
		}
	}

	go w.forward()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Polling reports whether the watcher fell back to polling.
func (w *FileWatcher) Polling() bool {
	return w.fsWatcher == nil
}

// Start watches until ctx is cancelled or Stop is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	if w.fsWatcher != nil {
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

// Stop stops the watcher and closes its channels. Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	close(w.errors)
	w.debouncer.Stop()

	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// Events returns debounced changes. Closed after Stop.
func (w *FileWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns non-fatal watcher errors. Closed after Stop.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

func (w *FileWatcher) runFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op Change
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		op = Written
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = Removed
	default:
		// Chmod
		return
	}

	w.debouncer.Add(Event{Path: w.path, Change: op, At: time.Now()})
}

func (w *FileWatcher) runPolling(ctx context.Context) error {
	prev, err := snapshot(w.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", w.path, err)
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			cur, err := snapshot(w.path)
			if err != nil {
				w.emitError(err)
				continue
			}
			if op, changed := diff(prev, cur); changed {
				w.debouncer.Add(Event{Path: w.path, Change: op, At: time.Now()})
			}
			prev = cur
		}
	}
}

// forward moves debounced events to the output channel until the debouncer
// is stopped.
func (w *FileWatcher) forward() {
	defer close(w.events)

	for item := range w.debouncer.Output() {
		select {
		case w.events <- item.Value:
		default:
			w.logger.Warn("watcher_event_dropped",
				slog.String("path", item.Value.Path),
				slog.String("change", item.Value.Change.String()))
		}
	}
}

func (w *FileWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("watcher_error_dropped", slog.String("error", err.Error()))
	}
}
