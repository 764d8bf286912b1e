package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/sitesearch/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recipeIndex(t *testing.T) *store.BleveIndex {
	t.Helper()
	idx, err := store.NewBleveIndex(store.IndexSpec{Fields: []string{"title", "description", "body"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.AddBatch(context.Background(), []store.Document{
		{Ref: "/r1", Fields: map[string]string{"title": "Grilled Salmon", "description": "A simple salmon recipe"}},
		{Ref: "/r2", Fields: map[string]string{"title": "Pasta", "body": "no salmon here, salmon"}},
		{Ref: "/r3", Fields: map[string]string{"title": "Tomato soup", "body": "Warm and red"}},
	}))
	return idx
}

// countingIndex records how often the index is queried.
type countingIndex struct {
	store.Index
	calls int
	err   error
}

func (c *countingIndex) Search(ctx context.Context, q store.Query) ([]store.Hit, int, error) {
	c.calls++
	if c.err != nil {
		return nil, 0, c.err
	}
	return c.Index.Search(ctx, q)
}

func TestEngine_Search_TitleBoostOrdersSalmon(t *testing.T) {
	// Given: two documents mentioning salmon, one in its title
	e, err := NewEngine(recipeIndex(t), WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching for salmon
	r := e.Search(context.Background(), "salmon")

	// Then: both match and the titled one ranks first
	require.Len(t, r.Hits, 2)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, "/r1", r.Hits[0].Ref)
	assert.Equal(t, "/r2", r.Hits[1].Ref)
	assert.GreaterOrEqual(t, r.Hits[0].Score, r.Hits[1].Score)
}

func TestEngine_Search_OrAcrossTerms(t *testing.T) {
	// Given: terms that appear in different documents
	e, err := NewEngine(recipeIndex(t), WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching for both
	r := e.Search(context.Background(), "pasta tomato")

	// Then: either term is enough
	var refs []string
	for _, h := range r.Hits {
		refs = append(refs, h.Ref)
	}
	assert.ElementsMatch(t, []string{"/r2", "/r3"}, refs)
}

func TestEngine_Search_ExpandsPrefixes(t *testing.T) {
	idx := recipeIndex(t)

	// Given: expansion on (the default)
	on, err := NewEngine(idx, WithLogger(quietLogger()))
	require.NoError(t, err)
	// And: expansion off
	off, err := NewEngine(idx, WithExpand(false), WithLogger(quietLogger()))
	require.NoError(t, err)

	// Then: a partial word matches only when expanding
	assert.Equal(t, 2, on.Search(context.Background(), "salm").Total)
	assert.Zero(t, off.Search(context.Background(), "salm").Total)
}

func TestEngine_Search_BlankQuery(t *testing.T) {
	// Given: an engine over a counting index
	counting := &countingIndex{Index: recipeIndex(t)}
	e, err := NewEngine(counting, WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching whitespace
	r := e.Search(context.Background(), "   ")

	// Then: nothing is returned and the index is not consulted
	assert.Empty(t, r.Hits)
	assert.Zero(t, r.Total)
	assert.Zero(t, counting.calls)
}

func TestEngine_Search_IsIdempotentAndCached(t *testing.T) {
	// Given: an engine with caching
	counting := &countingIndex{Index: recipeIndex(t)}
	e, err := NewEngine(counting, WithCacheSize(8), WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching the same query twice, with different padding
	first := e.Search(context.Background(), "salmon")
	second := e.Search(context.Background(), "  salmon ")

	// Then: results are identical and the index was queried once
	assert.Equal(t, first.Hits, second.Hits)
	assert.Equal(t, first.Total, second.Total)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, counting.calls)
}

func TestEngine_Search_UncachedIsStillIdempotent(t *testing.T) {
	// Given: caching disabled
	counting := &countingIndex{Index: recipeIndex(t)}
	e, err := NewEngine(counting, WithCacheSize(0), WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching twice
	first := e.Search(context.Background(), "salmon")
	second := e.Search(context.Background(), "salmon")

	// Then: each search hits the index and agrees
	assert.Equal(t, first.Hits, second.Hits)
	assert.Equal(t, 2, counting.calls)
}

func TestEngine_Search_IndexFailureYieldsNoHits(t *testing.T) {
	// Given: an index that fails
	counting := &countingIndex{Index: recipeIndex(t), err: errors.New("index is closed")}
	e, err := NewEngine(counting, WithLogger(quietLogger()))
	require.NoError(t, err)

	// When: searching twice
	r := e.Search(context.Background(), "salmon")
	_ = e.Search(context.Background(), "salmon")

	// Then: no hits, and failures are not cached
	assert.Empty(t, r.Hits)
	assert.Equal(t, 2, counting.calls)
}

func TestEngine_WithBoosts_ChangesRanking(t *testing.T) {
	// Given: body weighted far above title
	e, err := NewEngine(recipeIndex(t), WithLogger(quietLogger()), WithBoosts([]store.FieldBoost{
		{Field: "title", Boost: 0.1},
		{Field: "description", Boost: 0.1},
		{Field: "body", Boost: 10},
	}))
	require.NoError(t, err)

	// When: searching salmon
	r := e.Search(context.Background(), "salmon")

	// Then: the body match wins
	require.NotEmpty(t, r.Hits)
	assert.Equal(t, "/r2", r.Hits[0].Ref)
}

func TestNewEngine_RequiresIndex(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}
