package watcher

import (
	"log/slog"
	"time"
)

// Change is what happened to the watched file.
type Change int

const (
	// Written covers creation, in-place writes and replacement by rename.
	Written Change = iota
	// Removed means the file is gone.
	Removed
)

func (c Change) String() string {
	switch c {
	case Written:
		return "written"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Event is one debounced burst of changes. Change is the last one seen.
type Event struct {
	Path   string
	Change Change
	At     time.Time
}

const (
	defaultDebounce     = 200 * time.Millisecond
	defaultPollInterval = 2 * time.Second
)

// Options tunes a FileWatcher. Zero values take defaults.
type Options struct {
	// DebounceWindow is how long the file must stay quiet before an event
	// is reported (200ms).
	DebounceWindow time.Duration
	// PollInterval applies when fsnotify cannot be used (2s).
	PollInterval time.Duration
	ForcePolling bool
	Logger       *slog.Logger
}

// WithDefaults fills in zero fields.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaultDebounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}
