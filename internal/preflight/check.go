package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/sitesearch/internal/config"
	"github.com/Aman-CERP/sitesearch/internal/logging"
	"github.com/Aman-CERP/sitesearch/internal/store"
	"github.com/Aman-CERP/sitesearch/internal/telemetry"
)

// CheckStatus is the outcome of one check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

var statusNames = [...]string{StatusPass: "PASS", StatusWarn: "WARN", StatusFail: "FAIL"}

func (s CheckStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// MarshalJSON encodes the status as its name.
func (s CheckStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CheckResult is one line of the doctor report.
type CheckResult struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Details string      `json:"details,omitempty"`
	// Required checks fail the whole run.
	Required bool `json:"required"`
}

// IsCritical reports a failed required check.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker inspects the local environment sitesearch runs in.
type Checker struct {
	configDir string
	logDir    string
	verbose   bool
	output    io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithConfigDir sets where the project .sitesearch.yaml is looked up.
func WithConfigDir(dir string) Option { return func(c *Checker) { c.configDir = dir } }

// WithLogDir overrides the log directory.
func WithLogDir(dir string) Option { return func(c *Checker) { c.logDir = dir } }

// WithVerbose prints check details under each result.
func WithVerbose(verbose bool) Option { return func(c *Checker) { c.verbose = verbose } }

// WithOutput sets where PrintResults writes.
func WithOutput(w io.Writer) Option { return func(c *Checker) { c.output = w } }

// New creates a Checker for the current directory.
func New(opts ...Option) *Checker {
	c := &Checker{configDir: ".", logDir: logging.DefaultLogDir(), output: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check in report order. Checks after the config check use
// the defaults when the config does not load.
func (c *Checker) RunAll(_ context.Context) []CheckResult {
	cfgResult, cfg := c.CheckConfig()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	return []CheckResult{
		cfgResult,
		c.CheckWritable("log_dir", c.logDir),
		c.CheckDiskSpace(c.logDir),
		c.CheckStats(cfg),
		c.CheckAnalyzers(),
	}
}

// HasCriticalFailures reports whether any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	return len(critical(results)) > 0
}

// SummaryStatus is "failed", "ready_with_warnings" or "ready".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	if c.HasCriticalFailures(results) {
		return "failed"
	}
	for _, r := range results {
		if r.Status != StatusPass {
			return "ready_with_warnings"
		}
	}
	return "ready"
}

func critical(results []CheckResult) []CheckResult {
	var out []CheckResult
	for _, r := range results {
		if r.IsCritical() {
			out = append(out, r)
		}
	}
	return out
}

// PrintResults writes the text report.
func (c *Checker) PrintResults(results []CheckResult) {
	w := c.output
	_, _ = fmt.Fprintf(w, "sitesearch System Check\n%s\n\n", strings.Repeat("=", 23))

	for _, r := range results {
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(w, "      %s\n", r.Details)
		}
	}
	_, _ = fmt.Fprintf(w, "\nStatus: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	if failed := critical(results); len(failed) > 0 {
		_, _ = fmt.Fprintf(w, "\n%d error(s):\n", len(failed))
		for _, r := range failed {
			_, _ = fmt.Fprintf(w, "  - %s: %s\n", r.Name, r.Message)
		}
	}
}

// CheckConfig loads and validates configuration. The config is nil when the
// check fails.
func (c *Checker) CheckConfig() (CheckResult, *config.Config) {
	result := CheckResult{
		Name:     "config",
		Required: true,
	}

	cfg, err := config.Load(c.configDir)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Details = "Run 'sitesearch config show --source defaults' to compare with a working config"
		return result, nil
	}

	sources := []string{"defaults"}
	if config.UserConfigExists() {
		sources = append(sources, config.GetUserConfigPath())
	}
	if p := config.ProjectConfigPath(c.configDir); p != "" {
		sources = append(sources, p)
	}
	result.Status = StatusPass
	result.Message = "OK"
	result.Details = "Loaded from " + strings.Join(sources, ", ")
	return result, cfg
}

// CheckWritable checks that files can be created in dir. Log and stats
// locations are optional, so failures only warn.
func (c *Checker) CheckWritable(name, dir string) CheckResult {
	result := CheckResult{Name: name}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return result
	}

	f, err := os.CreateTemp(dir, ".sitesearch-preflight-*")
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = dir
	return result
}

// CheckStats opens the stats database when statistics are enabled.
func (c *Checker) CheckStats(cfg *config.Config) CheckResult {
	result := CheckResult{Name: "stats"}

	if !cfg.Stats.Enabled {
		result.Status = StatusPass
		result.Message = "disabled"
		return result
	}

	path := cfg.Stats.Path
	if path == "" {
		path = telemetry.DefaultStatsPath()
	}
	s, err := telemetry.OpenSQLiteStore(path)
	if err != nil {
		result.Status = StatusWarn
		result.Message = err.Error()
		result.Details = "Searches still work; statistics are not recorded"
		return result
	}
	_ = s.Close()

	result.Status = StatusPass
	result.Message = filepath.Clean(path)
	return result
}

// CheckAnalyzers lists the languages with a registered text analyzer.
func (c *Checker) CheckAnalyzers() CheckResult {
	result := CheckResult{Name: "analyzers", Required: true}

	langs := store.Languages()
	if len(langs) == 0 {
		result.Status = StatusFail
		result.Message = "no text analyzers registered"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d languages: %s", len(langs), strings.Join(langs, ", "))
	return result
}
