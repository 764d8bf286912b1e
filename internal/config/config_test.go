package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty directory so the developer's own
// configuration never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	t.Setenv("NO_COLOR", "")
	return configDir
}

func writeUserConfig(t *testing.T, configDir, content string) {
	t.Helper()
	dir := filepath.Join(configDir, "sitesearch")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: defaults match the site behaviour
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "no", cfg.Site.DefaultLanguage)
	assert.Empty(t, cfg.Site.BasePathMarkers)
	assert.Equal(t, 300*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 150, cfg.Search.SnippetLength)
	assert.Equal(t, BoostsConfig{Title: 2, Description: 1, Body: 1}, cfg.Search.Boosts)
	assert.True(t, cfg.ExpandEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Given: a directory with no .sitesearch.yaml
	isolate(t)
	tmpDir := t.TempDir()

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: defaults are returned without error
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

// =============================================================================
// Project config
// =============================================================================

func TestLoad_YamlFile_OverridesDefaults(t *testing.T) {
	// Given: a directory with .sitesearch.yaml
	isolate(t)
	tmpDir := t.TempDir()
	content := `
version: 1
site:
  default_language: en
  base_path_markers: ["/food-recipes/"]
search:
  debounce: 150ms
  max_results: 5
  boosts:
    title: 3
  expand: false
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yaml"), []byte(content), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: overrides are applied and untouched values keep their defaults
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Site.DefaultLanguage)
	assert.Equal(t, []string{"/food-recipes/"}, cfg.Site.BasePathMarkers)
	assert.Equal(t, 150*time.Millisecond, cfg.DebounceDuration())
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3.0, cfg.Search.Boosts.Title)
	assert.Equal(t, 1.0, cfg.Search.Boosts.Body)
	assert.False(t, cfg.ExpandEnabled())
	assert.Equal(t, 150, cfg.Search.SnippetLength)
}

func TestLoad_YmlExtension_IsRecognized(t *testing.T) {
	// Given: a directory with .sitesearch.yml
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yml"), []byte("log_level: debug\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yml file is recognized
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_YamlPreferredOverYml(t *testing.T) {
	// Given: both .yaml and .yml exist
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yaml"), []byte("log_level: warn\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yml"), []byte("log_level: debug\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: .yaml takes precedence
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidYaml_ReturnsError(t *testing.T) {
	// Given: invalid YAML syntax
	isolate(t)
	tmpDir := t.TempDir()
	content := `
search:
  max_results: [invalid yaml syntax
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yaml"), []byte(content), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: error is returned with clear message
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_InvalidFieldType_ReturnsError(t *testing.T) {
	// Given: wrong type for a numeric field
	isolate(t)
	tmpDir := t.TempDir()
	content := `
search:
  max_results: "ten"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yaml"), []byte(content), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: error is returned
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidValue_FailsValidation(t *testing.T) {
	// Given: a negative result limit
	isolate(t)
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".sitesearch.yaml"), []byte("search:\n  max_results: -1\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(tmpDir)

	// Then: validation rejects it
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "max_results")
}

// =============================================================================
// Precedence
// =============================================================================

func TestGetUserConfigPath_RespectsXDGConfigHome(t *testing.T) {
	// Given: XDG_CONFIG_HOME is set
	configDir := isolate(t)

	// When: resolving the user config path
	path := GetUserConfigPath()

	// Then: it lives under XDG_CONFIG_HOME
	assert.Equal(t, filepath.Join(configDir, "sitesearch", "config.yaml"), path)
	assert.Equal(t, filepath.Join(configDir, "sitesearch"), GetUserConfigDir())
	assert.False(t, UserConfigExists())
}

func TestLoad_ProjectConfigOverridesUserConfig(t *testing.T) {
	// Given: both user and project configs exist
	configDir := isolate(t)
	projectDir := t.TempDir()
	writeUserConfig(t, configDir, `
site:
  default_language: sv
fetch:
  user_agent: user-agent
`)
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".sitesearch.yaml"), []byte("site:\n  default_language: da\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: project config takes precedence
	require.NoError(t, err)
	assert.Equal(t, "da", cfg.Site.DefaultLanguage)
	// And: user values the project does not set survive
	assert.Equal(t, "user-agent", cfg.Fetch.UserAgent)
}

func TestLoad_EnvVarOverridesUserAndProjectConfig(t *testing.T) {
	// Given: all three config sources exist
	configDir := isolate(t)
	projectDir := t.TempDir()
	t.Setenv("SITESEARCH_DEFAULT_LANGUAGE", "fi")
	t.Setenv("SITESEARCH_BASE_PATH_MARKERS", "/a/, /b/")
	t.Setenv("SITESEARCH_EXPAND", "false")
	writeUserConfig(t, configDir, "site:\n  default_language: sv\n")
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".sitesearch.yaml"), []byte("site:\n  default_language: da\n"), 0o644))

	// When: loading configuration
	cfg, err := Load(projectDir)

	// Then: env vars have highest precedence
	require.NoError(t, err)
	assert.Equal(t, "fi", cfg.Site.DefaultLanguage)
	assert.Equal(t, []string{"/a/", "/b/"}, cfg.Site.BasePathMarkers)
	assert.False(t, cfg.ExpandEnabled())
}

func TestLoad_StatsEnabledByAnyLayer(t *testing.T) {
	// Given: stats enabled in the user config and a path from the environment
	configDir := isolate(t)
	writeUserConfig(t, configDir, "stats:\n  enabled: true\n")
	t.Setenv("SITESEARCH_STATS_PATH", "/tmp/stats.db")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: both apply
	require.NoError(t, err)
	assert.True(t, cfg.Stats.Enabled)
	assert.Equal(t, "/tmp/stats.db", cfg.Stats.Path)
	assert.False(t, NewConfig().Stats.Enabled)
}

func TestLoad_EnvVarUnparseableNumber_IsIgnored(t *testing.T) {
	// Given: a non-numeric max results override
	isolate(t)
	t.Setenv("SITESEARCH_MAX_RESULTS", "many")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: the default survives
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Search.MaxResults)
}

func TestLoad_NoColorEnv_DisablesColor(t *testing.T) {
	// Given: NO_COLOR is set
	isolate(t)
	t.Setenv("NO_COLOR", "1")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: color is off
	require.NoError(t, err)
	assert.True(t, cfg.UI.NoColor)
}

func TestLoad_InvalidUserConfig_ReturnsError(t *testing.T) {
	// Given: invalid user config
	configDir := isolate(t)
	writeUserConfig(t, configDir, "site:\n  default_language: [invalid yaml\n")

	// When: loading configuration
	cfg, err := Load(t.TempDir())

	// Then: error is returned
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "user config")
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty language", func(c *Config) { c.Site.DefaultLanguage = " " }, "default_language"},
		{"marker without slashes", func(c *Config) { c.Site.BasePathMarkers = []string{"recipes"} }, "base_path_markers"},
		{"bad debounce", func(c *Config) { c.Search.Debounce = "soon" }, "debounce"},
		{"zero snippet", func(c *Config) { c.Search.SnippetLength = 0 }, "snippet_length"},
		{"zero boost", func(c *Config) { c.Search.Boosts.Body = 0 }, "boosts"},
		{"negative cache", func(c *Config) { c.Search.CacheSize = -1 }, "cache_size"},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = "0s" }, "timeout"},
		{"zero max bytes", func(c *Config) { c.Fetch.MaxBytes = 0 }, "max_bytes"},
		{"unknown level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a default config with one bad value
			cfg := NewConfig()
			tt.mutate(cfg)

			// When: validating
			err := cfg.Validate()

			// Then: the offending key is named
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// =============================================================================
// Writing and backups
// =============================================================================

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	// Given: a customised config written as the project config
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Site.DefaultLanguage = "de"
	cfg.Search.MaxResults = 7
	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".sitesearch.yaml")))

	// When: loading it back
	loaded, err := Load(dir)

	// Then: values survive
	require.NoError(t, err)
	assert.Equal(t, "de", loaded.Site.DefaultLanguage)
	assert.Equal(t, 7, loaded.Search.MaxResults)
}

func TestBackupFile_KeepsNewestBackups(t *testing.T) {
	// Given: an existing config file
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	// When: backing it up more often than MaxBackups
	var last string
	for i := 0; i < MaxBackups+2; i++ {
		backup, err := BackupFile(path)
		require.NoError(t, err)
		last = backup
		time.Sleep(2 * time.Millisecond)
	}

	// Then: only MaxBackups remain and the newest is first
	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
	data, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "log_level: warn\n", string(data))
}

func TestBackupFile_MissingFile_IsNoop(t *testing.T) {
	// Given: no config file
	path := filepath.Join(t.TempDir(), "config.yaml")

	// When: backing it up
	backup, err := BackupFile(path)

	// Then: nothing happens
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestLoadFile_OverlaysDefaultsOnly(t *testing.T) {
	// Given: a partial file and an environment override
	isolate(t)
	t.Setenv("SITESEARCH_MAX_RESULTS", "3")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  default_language: en\n"), 0o644))

	// When: loading just that file
	cfg, err := LoadFile(path)

	// Then: the file wins over defaults and the environment is not consulted
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Site.DefaultLanguage)
	assert.Equal(t, 10, cfg.Search.MaxResults)
}

func TestLoadFile_Missing_ReturnsError(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}
