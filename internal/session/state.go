// Package session wires user input to index loading, searching and rendering.
//
// A Controller owns one SessionState. The index is loaded once in the
// background; keystrokes are debounced and only the last one of a burst runs
// a search. Searches that fire before the index is ready are dropped with a
// loading status, and once loading has failed every search shows the
// unavailable status. Nothing is retried.
package session

import (
	"github.com/Aman-CERP/sitesearch/internal/artifact"
	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/render"
	"github.com/Aman-CERP/sitesearch/internal/store"
)

// Status is the lifecycle state of a session.
type Status int

const (
	// Idle: not started.
	Idle Status = iota
	// Loading: the artifact fetch is in flight.
	Loading
	// Ready: the index is loaded and queries run.
	Ready
	// Unavailable: loading failed. Terminal.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// SessionState is everything a session knows. Index and Artifact are set
// exactly once, on the transition to Ready, and never change afterwards.
type SessionState struct {
	Index    store.Index
	Artifact *artifact.Artifact
	Status   Status

	// Variant is the construction used for Index.
	Variant loader.Variant
	// Err is the load failure for Unavailable sessions.
	Err error
}

// View is the display the controller drives. Implementations must be safe
// for use from multiple goroutines.
type View interface {
	// SetStatus replaces the status line and leaves results alone.
	SetStatus(render.Status)
	// SetResults shows a rendering, replacing status and results.
	SetResults(render.Rendering)
	// Clear empties the status line and the results.
	Clear()
	// ClearInput empties the search input.
	ClearInput()
}
