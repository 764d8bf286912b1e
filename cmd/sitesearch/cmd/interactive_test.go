package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
)

func TestInteractive_PlainLines(t *testing.T) {
	// Given: two queries on stdin
	_, _, index := writeSite(t)
	stdin := strings.NewReader("salmon\n\npasta\n")

	// When: running interactively without a terminal
	stdout, _, err := runCLI(t, stdin, "interactive", "--index", index)

	// Then: each query prints its results in order
	require.NoError(t, err)
	first := strings.Index(stdout, "2 results for «salmon»")
	second := strings.Index(stdout, "1 result for «pasta»")
	require.GreaterOrEqual(t, first, 0, stdout)
	require.Greater(t, second, first, stdout)
	assert.Contains(t, stdout, " 1. Grilled Salmon\n    /food-recipes/r1/\n")
}

func TestInteractive_UnavailableIndex(t *testing.T) {
	srv := serveSite(t, nil)

	stdout, _, err := runCLI(t, strings.NewReader("salmon\n"), "interactive", "--index", srv.URL+"/search_index.en.json")

	require.NoError(t, err)
	assert.Contains(t, stdout, "error: Search is unavailable")
	assert.NotContains(t, stdout, "results for")
}

func TestInteractive_PageWithoutSearchBox(t *testing.T) {
	srv := serveSite(t, map[string]string{"/about/": `<html lang="en"><body>About</body></html>`})

	stdout, stderr, err := runCLI(t, strings.NewReader("salmon\n"), "interactive", "--page", srv.URL+"/about/")

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "search is disabled")
}

func TestInteractive_WatchNeedsLocalIndex(t *testing.T) {
	_, _, err := runCLI(t, nil, "interactive", "--index", "https://example.com/search_index.en.json", "--watch")

	require.Error(t, err)
	assert.Equal(t, sserrors.ErrCodeInvalidInput, sserrors.GetCode(err))
}
