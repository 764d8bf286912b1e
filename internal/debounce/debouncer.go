// Package debounce delays an action until input has been quiet for a window.
package debounce

import (
	"log/slog"
	"sync"
	"time"
)

// Item is a value released by the debouncer together with the generation it
// was scheduled under.
type Item[T any] struct {
	Value T
	Gen   uint64
}

// Debouncer keeps at most one pending value. Every Add replaces the pending
// value and restarts the window; only the last value of a burst is emitted.
//
// Each Add and Cancel starts a new generation. A receiver can compare an
// emitted item's Gen with Generation to detect items made stale by input that
// arrived after they were released.
type Debouncer[T any] struct {
	window  time.Duration
	mu      sync.Mutex
	pending *T
	gen     uint64
	timer   *time.Timer
	output  chan Item[T]
	stopped bool
}

// New creates a debouncer with the given quiet window.
func New[T any](window time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		window: window,
		output: make(chan Item[T], 1),
	}
}

// Add schedules v, cancelling any value still waiting.
func (d *Debouncer[T]) Add(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.gen++
	d.pending = &v
	d.scheduleFlush(d.gen)
}

// Cancel drops the pending value, if any. Returns true if one was dropped.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	had := d.pending != nil
	d.pending = nil
	return had
}

// Flush releases the pending value now instead of waiting for the window.
// Returns true if a value was released.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return d.emit(d.gen)
}

// Pending reports whether a value is waiting for its window to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Generation returns the current generation.
func (d *Debouncer[T]) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Output returns the channel of released values.
func (d *Debouncer[T]) Output() <-chan Item[T] {
	return d.output
}

// Stop cancels any pending value and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	close(d.output)
}

// scheduleFlush must be called with mu held.
func (d *Debouncer[T]) scheduleFlush(gen uint64) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		// A stopped timer may still fire; the generation tells.
		if gen != d.gen {
			return
		}
		d.timer = nil
		d.emit(gen)
	})
}

// emit must be called with mu held.
func (d *Debouncer[T]) emit(gen uint64) bool {
	if d.stopped || d.pending == nil {
		return false
	}

	item := Item[T]{Value: *d.pending, Gen: gen}
	d.pending = nil

	// Non-blocking send; a newer item supersedes one nobody has read yet.
	select {
	case d.output <- item:
	default:
		select {
		case <-d.output:
			slog.Warn("debouncer output full, dropping stale item")
		default:
		}
		select {
		case d.output <- item:
		default:
			slog.Warn("debouncer output full, dropping item")
		}
	}
	return true
}
