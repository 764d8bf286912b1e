// Package search runs user queries against a loaded index.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/sitesearch/internal/artifact"
	"github.com/Aman-CERP/sitesearch/internal/store"
)

// Default field weights. Title matches count twice.
const (
	DefaultTitleBoost       = 2.0
	DefaultDescriptionBoost = 1.0
	DefaultBodyBoost        = 1.0

	// DefaultCacheSize is the number of queries whose results are kept.
	DefaultCacheSize = 256
)

// DefaultBoosts returns the default per-field weights.
func DefaultBoosts() []store.FieldBoost {
	return []store.FieldBoost{
		{Field: artifact.FieldTitle, Boost: DefaultTitleBoost},
		{Field: artifact.FieldDescription, Boost: DefaultDescriptionBoost},
		{Field: artifact.FieldBody, Boost: DefaultBodyBoost},
	}
}

// Result is the outcome of one query.
type Result struct {
	Query string
	// Hits are ordered by descending score, as produced by the index.
	Hits []store.Hit
	// Total counts every matching document.
	Total int
	// Cached reports whether the result came from the cache.
	Cached bool
}

// Engine evaluates queries against one immutable index.
// It is safe for concurrent use.
type Engine struct {
	index  store.Index
	boosts []store.FieldBoost
	expand bool
	cache  *lru.Cache[string, Result]
	logger *slog.Logger
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithBoosts replaces the field weights.
func WithBoosts(boosts []store.FieldBoost) EngineOption {
	return func(e *Engine) {
		if len(boosts) > 0 {
			e.boosts = append([]store.FieldBoost(nil), boosts...)
		}
	}
}

// WithExpand toggles prefix expansion of query terms. On by default.
func WithExpand(expand bool) EngineOption {
	return func(e *Engine) {
		e.expand = expand
	}
}

// WithCacheSize sets the result cache size. Zero disables caching.
func WithCacheSize(n int) EngineOption {
	return func(e *Engine) {
		if n <= 0 {
			e.cache = nil
			return
		}
		e.cache, _ = lru.New[string, Result](n)
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine over index.
func NewEngine(index store.Index, opts ...EngineOption) (*Engine, error) {
	if index == nil {
		return nil, fmt.Errorf("search engine requires an index")
	}
	cache, _ := lru.New[string, Result](DefaultCacheSize)
	e := &Engine{
		index:  index,
		boosts: DefaultBoosts(),
		expand: true,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search returns every hit for query, best first. A blank query yields an
// empty result. Search never fails: index errors are logged and reported as
// no hits, and such results are not cached.
func (e *Engine) Search(ctx context.Context, query string) Result {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Query: q}
	}

	if e.cache != nil {
		if r, ok := e.cache.Get(q); ok {
			r.Cached = true
			r.Hits = append([]store.Hit(nil), r.Hits...)
			return r
		}
	}

	hits, total, err := e.index.Search(ctx, store.Query{
		Text:   q,
		Fields: e.boosts,
		Expand: e.expand,
	})
	if err != nil {
		e.logger.Warn("search_failed", slog.String("query", q), slog.String("error", err.Error()))
		return Result{Query: q}
	}

	r := Result{Query: q, Hits: hits, Total: total}
	if e.cache != nil {
		e.cache.Add(q, r)
	}
	e.logger.Debug("search_executed",
		slog.String("query", q),
		slog.Int("total", total))
	return r
}
