package cmd

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Aman-CERP/sitesearch/internal/session"
	"github.com/Aman-CERP/sitesearch/internal/watcher"
)

// liveSession drives a session.Controller and replaces it with a fresh one
// whenever the artifact on disk changes. The view keeps talking to the
// liveSession and never sees the swap.
type liveSession struct {
	ctx    context.Context
	spawn  func() *session.Controller
	logger *slog.Logger

	mu      sync.Mutex
	current *session.Controller
	input   string
	closed  bool
	wg      sync.WaitGroup
}

func newLiveSession(ctx context.Context, spawn func() *session.Controller, logger *slog.Logger) *liveSession {
	if logger == nil {
		logger = slog.Default()
	}
	s := &liveSession{ctx: ctx, spawn: spawn, logger: logger}
	s.current = spawn()
	s.current.Start(ctx)
	return s
}

func (s *liveSession) controller() *session.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Input implements ui.Controls.
func (s *liveSession) Input(text string) {
	s.mu.Lock()
	s.input = text
	c := s.current
	s.mu.Unlock()
	c.Input(text)
}

// Escape implements ui.Controls.
func (s *liveSession) Escape() {
	s.mu.Lock()
	s.input = ""
	c := s.current
	s.mu.Unlock()
	c.Escape()
}

// Flush implements ui.Controls.
func (s *liveSession) Flush() bool {
	return s.controller().Flush()
}

// Loaded implements ui.Controls. It reports the controller that is current
// at the time of the call.
func (s *liveSession) Loaded() <-chan struct{} {
	return s.controller().Loaded()
}

// Reload starts a new controller, retires the old one and repeats the last
// query once the new index is ready.
func (s *liveSession) Reload() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next := s.spawn()
	prev := s.current
	s.current = next
	s.wg.Add(1)
	s.mu.Unlock()

	next.Start(s.ctx)
	if err := prev.Close(); err != nil {
		s.logger.Warn("session_close_failed", slog.String("error", err.Error()))
	}

	go func() {
		defer s.wg.Done()
		select {
		case <-next.Loaded():
		case <-s.ctx.Done():
			return
		}

		s.mu.Lock()
		q, cur, closed := s.input, s.current, s.closed
		s.mu.Unlock()

		st := next.State()
		s.logger.Info("index_reloaded",
			slog.String("status", st.Status.String()),
			slog.String("variant", string(st.Variant)))

		if closed || cur != next || strings.TrimSpace(q) == "" {
			return
		}
		next.Input(q)
		next.Flush()
	}()
}

// Follow reloads on every modification w reports until its channels close
// or ctx is cancelled.
func (s *liveSession) Follow(ctx context.Context, w *watcher.FileWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			switch ev.Change {
			case watcher.Written:
				s.logger.Info("index_changed", slog.String("path", ev.Path))
				s.Reload()
			case watcher.Removed:
				// Keep serving the index already in memory until it comes back.
				s.logger.Warn("index_removed", slog.String("path", ev.Path))
			}
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			s.logger.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}

// Close closes the current controller. Reload does nothing afterwards.
func (s *liveSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	c := s.current
	s.mu.Unlock()

	err := c.Close()
	s.wg.Wait()
	return err
}
