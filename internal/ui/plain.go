package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Aman-CERP/sitesearch/internal/render"
)

// resultTimeout bounds how long plain mode waits for a flushed search.
const resultTimeout = 10 * time.Second

// PlainView reads one query per line and prints statuses and results as
// plain text (for pipes and CI).
type PlainView struct {
	mu      sync.Mutex
	in      io.Reader
	out     io.Writer
	prompt  string
	updates chan struct{}
}

// NewPlainView creates a plain text view.
func NewPlainView(cfg Config) *PlainView {
	return &PlainView{
		in:      cfg.Input,
		out:     cfg.Output,
		prompt:  cfg.Prompt,
		updates: make(chan struct{}, 1),
	}
}

// SetStatus implements session.View.
func (v *PlainView) SetStatus(s render.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.writeStatus(s)
	v.notify()
}

// SetResults implements session.View.
func (v *PlainView) SetResults(r render.Rendering) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.writeStatus(r.Status)
	for i, rec := range r.Records {
		_, _ = fmt.Fprintf(v.out, "%2d. %s\n", i+1, rec.Title)
		_, _ = fmt.Fprintf(v.out, "    %s\n", rec.Ref)
		if rec.Snippet != "" {
			_, _ = fmt.Fprintf(v.out, "    %s\n", rec.Snippet)
		}
	}
	v.notify()
}

// Clear implements session.View. Plain output is append-only, so there is
// nothing to erase.
func (v *PlainView) Clear() {}

// ClearInput implements session.View.
func (v *PlainView) ClearInput() {}

// Run implements SearchView. It waits for the index before reading the first
// line, then runs one search per non-blank line and waits for its output.
func (v *PlainView) Run(ctx context.Context, c Controls) error {
	select {
	case <-c.Loaded():
	case <-ctx.Done():
		return ctx.Err()
	}
	v.drain()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		var err error
		defer func() {
			errc <- err
			close(lines)
		}()
		scanner := bufio.NewScanner(v.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				err = ctx.Err()
				return
			}
		}
		err = scanner.Err()
	}()

	for {
		v.writePrompt()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			c.Input(line)
			if c.Flush() {
				v.wait(ctx)
			}
		}
	}
}

func (v *PlainView) writeStatus(s render.Status) {
	if s.Text == "" {
		return
	}
	if s.Error {
		_, _ = fmt.Fprintf(v.out, "error: %s\n", s.Text)
		return
	}
	_, _ = fmt.Fprintln(v.out, s.Text)
}

func (v *PlainView) writePrompt() {
	if v.prompt == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = fmt.Fprint(v.out, v.prompt)
}

// notify must be called with mu held.
func (v *PlainView) notify() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

func (v *PlainView) drain() {
	select {
	case <-v.updates:
	default:
	}
}

func (v *PlainView) wait(ctx context.Context) {
	select {
	case <-v.updates:
	case <-ctx.Done():
	case <-time.After(resultTimeout):
	}
}

var _ SearchView = (*PlainView)(nil)
