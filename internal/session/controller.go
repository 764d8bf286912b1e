package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Aman-CERP/sitesearch/internal/debounce"
	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/render"
	"github.com/Aman-CERP/sitesearch/internal/search"
	"github.com/Aman-CERP/sitesearch/internal/telemetry"
)

// DefaultDebounce is the quiet period after the last keystroke.
const DefaultDebounce = 300 * time.Millisecond

// Recorder receives one event per executed search.
// *telemetry.QueryMetrics implements it.
type Recorder interface {
	Record(event telemetry.QueryEvent)
}

// LoadFunc loads the index for a session. It is called once.
type LoadFunc func(ctx context.Context) (*loader.Loaded, error)

// Controller is the search session state machine.
type Controller struct {
	load          LoadFunc
	view          View
	renderer      *render.Renderer
	engineOptions []search.EngineOption
	logger        *slog.Logger
	window        time.Duration
	recorder      Recorder
	language      string

	debouncer *debounce.Debouncer[string]

	mu      sync.Mutex
	state   SessionState
	engine  *search.Engine
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	closed  bool

	loaded chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.window = d
		}
	}
}

// WithRenderer sets the renderer. Defaults to render.NewRenderer().
func WithRenderer(r *render.Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithEngineOptions passes options to the search engine built on load.
func WithEngineOptions(opts ...search.EngineOption) Option {
	return func(c *Controller) {
		c.engineOptions = append(c.engineOptions, opts...)
	}
}

// WithRecorder reports every executed search to r, tagged with the index
// language.
func WithRecorder(r Recorder, language string) Option {
	return func(c *Controller) {
		c.recorder = r
		c.language = language
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an idle controller. Call Start to begin loading.
func New(load LoadFunc, view View, opts ...Option) *Controller {
	c := &Controller{
		load:     load,
		view:     view,
		renderer: render.NewRenderer(),
		logger:   slog.Default(),
		window:   DefaultDebounce,
		loaded:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = debounce.New[string](c.window)
	return c
}

// Start begins loading the index in the background and starts accepting
// searches. Input is accepted before and after Start. Calling Start more than
// once has no effect.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.state.Status = Loading
	c.mu.Unlock()

	c.wg.Add(2)
	go c.runLoad()
	go c.loop()
}

// Input handles a change of the search input.
// Blank input clears the display at once and cancels any pending search.
func (c *Controller) Input(text string) {
	q := strings.TrimSpace(text)
	if q == "" {
		c.debouncer.Cancel()
		c.view.Clear()
		return
	}
	c.debouncer.Add(q)
}

// Escape clears the input and the display and cancels any pending search.
func (c *Controller) Escape() {
	c.debouncer.Cancel()
	c.view.ClearInput()
	c.view.Clear()
}

// Flush runs the pending search without waiting for the quiet period.
// Returns false when nothing was pending.
func (c *Controller) Flush() bool {
	return c.debouncer.Flush()
}

// Loaded is closed once loading has finished, successfully or not.
func (c *Controller) Loaded() <-chan struct{} {
	return c.loaded
}

// State returns a snapshot of the session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the controller, waits for background work and releases the index.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.debouncer.Stop()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Index != nil {
		return c.state.Index.Close()
	}
	return nil
}

func (c *Controller) runLoad() {
	defer c.wg.Done()
	defer close(c.loaded)

	loaded, err := c.safeLoad()
	if err != nil {
		c.mu.Lock()
		c.state.Status = Unavailable
		c.state.Err = err
		c.mu.Unlock()

		c.logger.Error("search_unavailable", sserrors.LogAttrs(err)...)
		c.view.SetStatus(c.renderer.Unavailable())
		return
	}

	engine, err := search.NewEngine(loaded.Index, append([]search.EngineOption{search.WithLogger(c.logger)}, c.engineOptions...)...)
	if err != nil {
		c.mu.Lock()
		c.state.Status = Unavailable
		c.state.Err = err
		c.mu.Unlock()
		_ = loaded.Index.Close()
		c.view.SetStatus(c.renderer.Unavailable())
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = loaded.Index.Close()
		return
	}
	c.engine = engine
	c.state = SessionState{
		Index:    loaded.Index,
		Artifact: loaded.Artifact,
		Status:   Ready,
		Variant:  loaded.Variant,
	}
	c.mu.Unlock()

	c.logger.Info("search_ready", slog.String("variant", string(loaded.Variant)))
}

// safeLoad turns a panicking or empty load into an error.
func (c *Controller) safeLoad() (loaded *loader.Loaded, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = sserrors.InternalError(fmt.Sprintf("index load panicked: %v", r), nil)
		}
	}()

	loaded, err = c.load(c.ctx)
	if err == nil && (loaded == nil || loaded.Index == nil) {
		err = sserrors.InternalError("index load returned no index", nil)
	}
	return loaded, err
}

func (c *Controller) loop() {
	defer c.wg.Done()

	for item := range c.debouncer.Output() {
		if item.Gen != c.debouncer.Generation() {
			c.logger.Debug("search_superseded", slog.String("query", item.Value))
			continue
		}
		c.fire(item)
	}
}

// fire runs one scheduled search. It never panics.
func (c *Controller) fire(item debounce.Item[string]) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("search_panicked",
				slog.String("query", item.Value),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()

	c.mu.Lock()
	status := c.state.Status
	engine := c.engine
	art := c.state.Artifact
	ctx := c.ctx
	c.mu.Unlock()

	switch status {
	case Ready:
		start := time.Now()
		result := engine.Search(ctx, item.Value)
		c.record(result, time.Since(start))
		rendering := c.renderer.Render(result.Hits, result.Query, art)
		if item.Gen != c.debouncer.Generation() {
			// Input changed while searching; the newer input owns the display.
			return
		}
		c.view.SetResults(rendering)
	case Unavailable:
		c.view.SetStatus(c.renderer.Unavailable())
	default:
		c.logger.Info("search_dropped",
			slog.String("query", item.Value),
			slog.String("status", status.String()))
		c.view.SetStatus(c.renderer.Loading())
	}
}

func (c *Controller) record(result search.Result, latency time.Duration) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(telemetry.QueryEvent{
		Query:       result.Query,
		Language:    c.language,
		ResultCount: result.Total,
		Latency:     latency,
		Cached:      result.Cached,
		Timestamp:   time.Now(),
	})
}
