package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/sitesearch/internal/search"
	"github.com/Aman-CERP/sitesearch/internal/store"
)

// fakeSearcher answers from a fixed table of refs per query.
type fakeSearcher map[string][]string

func (f fakeSearcher) Search(_ context.Context, q string) search.Result {
	refs := f[q]
	hits := make([]store.Hit, len(refs))
	for i, ref := range refs {
		hits[i] = store.Hit{Ref: ref, Score: float64(len(refs) - i)}
	}
	return search.Result{Query: q, Hits: hits, Total: len(hits)}
}

const suiteYAML = `
queries:
  - id: R1
    name: salmon finds the salmon recipe
    query: salmon
    expected: [/food-recipes/r1/]
  - id: R2
    query: pasta
    expected: [/food-recipes/r2/]
    within: 1
negative:
  - id: N1
    query: xyzzy
`

func TestParseSuite(t *testing.T) {
	s, err := ParseSuite([]byte(suiteYAML))

	require.NoError(t, err)
	require.Len(t, s.Queries, 2)
	require.Len(t, s.Negative, 1)
	assert.Equal(t, "salmon finds the salmon recipe", s.Queries[0].Name)
	assert.Equal(t, 1, s.Queries[1].Within)
}

func TestParseSuite_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "queries: []\n"},
		{"no text", "queries:\n  - id: A\n    expected: [/a/]\n"},
		{"no expectations", "queries:\n  - id: A\n    query: salmon\n"},
		{"negative without text", "negative:\n  - id: N\n"},
		{"not yaml", "queries: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadSuite_MissingFile(t *testing.T) {
	_, err := LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidator_RunAll(t *testing.T) {
	// Given: a suite and an index where pasta ranks second
	path := filepath.Join(t.TempDir(), "queries.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suiteYAML), 0o644))
	suite, err := LoadSuite(path)
	require.NoError(t, err)
	searcher := fakeSearcher{
		"salmon": {"/food-recipes/r1/", "/food-recipes/r2/"},
		"pasta":  {"/food-recipes/r3/", "/food-recipes/r2/"},
	}

	// When: running the suite
	result := NewValidator(searcher).RunAll(context.Background(), suite)

	// Then: salmon and the negative query pass, pasta misses its top-1 window
	assert.Equal(t, 1, result.QueryPass)
	assert.Equal(t, 2, result.QueryTotal)
	assert.Equal(t, 1, result.NegativePass)
	assert.Equal(t, 1, result.Failed())
	assert.True(t, result.Queries[0].Passed)
	assert.Equal(t, 0, result.Queries[0].MatchedAt)
	assert.False(t, result.Queries[1].Passed)
	assert.Equal(t, []string{"/food-recipes/r3/"}, result.Queries[1].TopRefs)
}

func TestValidator_NegativeFailsOnHits(t *testing.T) {
	v := NewValidator(fakeSearcher{"salmon": {"/r1"}})

	tr := v.RunNegative(context.Background(), QuerySpec{Query: "salmon"})

	assert.False(t, tr.Passed)
	assert.Equal(t, 1, tr.Total)
}

func TestCheckExpected_MatchesPrefixes(t *testing.T) {
	ok, at := checkExpected([]string{"/blog/a/", "/food-recipes/r1/"}, []string{"/food-recipes/"})
	assert.True(t, ok)
	assert.Equal(t, 1, at)

	ok, at = checkExpected([]string{"/blog/a/"}, []string{"/food-recipes/"})
	assert.False(t, ok)
	assert.Equal(t, -1, at)
}
