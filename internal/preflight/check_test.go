package preflight

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/sitesearch/internal/config"
)

// isolate keeps the developer's configuration out of the checks.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SITESEARCH_STATS", "")
	t.Setenv("SITESEARCH_LOG_LEVEL", "")
}

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{"required pass is not critical", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail is critical", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail is not critical", CheckResult{Status: StatusFail}, false},
		{"required warn is not critical", CheckResult{Status: StatusWarn, Required: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_RunAll_Ready(t *testing.T) {
	// Given: a clean environment
	isolate(t)
	buf := &bytes.Buffer{}
	checker := New(
		WithConfigDir(t.TempDir()),
		WithLogDir(filepath.Join(t.TempDir(), "logs")),
		WithVerbose(true),
		WithOutput(buf),
	)

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: every check passes
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, StatusPass, r.Status, r.Name+": "+r.Message)
	}
	assert.False(t, checker.HasCriticalFailures(results))
	assert.Equal(t, "ready", checker.SummaryStatus(results))

	checker.PrintResults(results)
	assert.Contains(t, buf.String(), "[PASS] config: OK")
	assert.Contains(t, buf.String(), "Loaded from defaults")
	assert.Contains(t, buf.String(), "Status: READY")
}

func TestChecker_BrokenConfigIsCritical(t *testing.T) {
	// Given: a project config that does not validate
	isolate(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sitesearch.yaml"), []byte("search:\n  max_results: -1\n"), 0o644))
	buf := &bytes.Buffer{}
	checker := New(WithConfigDir(dir), WithLogDir(t.TempDir()), WithOutput(buf))

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: the run fails on the config check
	assert.Equal(t, StatusFail, results[0].Status)
	assert.True(t, checker.HasCriticalFailures(results))
	assert.Equal(t, "failed", checker.SummaryStatus(results))
	checker.PrintResults(results)
	assert.Contains(t, buf.String(), "1 error(s):")
}

func TestChecker_CheckWritable_Unwritable(t *testing.T) {
	// Given: a "directory" that is actually a file
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	// When: checking it
	r := New().CheckWritable("log_dir", filepath.Join(file, "logs"))

	// Then: it only warns
	assert.Equal(t, StatusWarn, r.Status)
	assert.False(t, r.IsCritical())
	assert.Equal(t, "ready_with_warnings", New().SummaryStatus([]CheckResult{r}))
}

func TestChecker_CheckStats(t *testing.T) {
	cfg := config.NewConfig()
	assert.Equal(t, "disabled", New().CheckStats(cfg).Message)

	cfg.Stats.Enabled = true
	cfg.Stats.Path = filepath.Join(t.TempDir(), "stats.db")
	r := New().CheckStats(cfg)
	assert.Equal(t, StatusPass, r.Status)
	assert.FileExists(t, cfg.Stats.Path)
}

func TestChecker_CheckDiskSpace_MissingPathUsesParent(t *testing.T) {
	r := New().CheckDiskSpace(filepath.Join(t.TempDir(), "not", "yet"))

	assert.NotEqual(t, StatusFail, r.Status, r.Message)
	assert.Contains(t, r.Message, "free")
}

func TestChecker_CheckAnalyzers(t *testing.T) {
	r := New().CheckAnalyzers()

	assert.Equal(t, StatusPass, r.Status)
	assert.Contains(t, r.Message, "en")
}
