package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs_TailsFile(t *testing.T) {
	// Given: a log with two records
	path := filepath.Join(t.TempDir(), "sitesearch.log")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"time":"2026-10-15T10:00:00Z","level":"INFO","msg":"index_loaded","documents":2}`+"\n"+
			`{"time":"2026-10-15T10:00:01Z","level":"WARN","msg":"search_unavailable"}`+"\n"), 0o644))

	// When: showing warnings only
	stdout, stderr, err := runCLI(t, nil, "--no-color", "logs", "--file", path, "--level", "warn")

	// Then: only the warning is printed
	require.NoError(t, err)
	assert.Equal(t, "10:00:01.000 WARN  search_unavailable\n", stdout)
	assert.Contains(t, stderr, path)
}

func TestLogs_BadPattern(t *testing.T) {
	_, _, err := runCLI(t, nil, "logs", "--file", "x.log", "--filter", "(")
	assert.Error(t, err)
}
