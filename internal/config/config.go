package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigNames lists the project config files in lookup order.
var ProjectConfigNames = []string{".sitesearch.yaml", ".sitesearch.yml"}

// Config represents the complete sitesearch configuration.
type Config struct {
	Version  int          `yaml:"version" json:"version"`
	Site     SiteConfig   `yaml:"site" json:"site"`
	Search   SearchConfig `yaml:"search" json:"search"`
	Fetch    FetchConfig  `yaml:"fetch" json:"fetch"`
	UI       UIConfig     `yaml:"ui" json:"ui"`
	Stats    StatsConfig  `yaml:"stats" json:"stats"`
	LogLevel string       `yaml:"log_level" json:"log_level"`
}

// SiteConfig describes how pages of the searched site are interpreted.
type SiteConfig struct {
	// DefaultLanguage is used when a page carries no lang attribute.
	DefaultLanguage string `yaml:"default_language" json:"default_language"`

	// BasePathMarkers are path segments (e.g. "/food-recipes/") that mark the
	// site root when a page carries neither a base path override nor <base href>.
	BasePathMarkers []string `yaml:"base_path_markers" json:"base_path_markers"`
}

// SearchConfig configures query evaluation and result presentation.
type SearchConfig struct {
	// Debounce is the quiet period after the last keystroke before searching.
	Debounce string `yaml:"debounce" json:"debounce"`

	// MaxResults caps the number of displayed results. The status line still
	// reports the full count.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// SnippetLength is the number of body characters kept in a snippet.
	SnippetLength int `yaml:"snippet_length" json:"snippet_length"`

	Boosts BoostsConfig `yaml:"boosts" json:"boosts"`

	// Expand enables prefix expansion of query terms. Nil means enabled.
	Expand *bool `yaml:"expand,omitempty" json:"expand,omitempty"`

	// CacheSize is the number of query results kept in memory. 0 disables caching.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// BoostsConfig holds per-field score multipliers.
type BoostsConfig struct {
	Title       float64 `yaml:"title" json:"title"`
	Description float64 `yaml:"description" json:"description"`
	Body        float64 `yaml:"body" json:"body"`
}

// FetchConfig configures artifact and page retrieval.
type FetchConfig struct {
	Timeout   string `yaml:"timeout" json:"timeout"`
	MaxBytes  int64  `yaml:"max_bytes" json:"max_bytes"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// UIConfig configures the interactive and plain views.
type UIConfig struct {
	// Locale selects the message catalog. Empty means the page language.
	Locale  string `yaml:"locale" json:"locale"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// StatsConfig configures local search statistics. Off unless enabled.
type StatsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Path is the SQLite file. Empty means ~/.sitesearch/stats.db.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	expand := true
	return &Config{
		Version: 1,
		Site: SiteConfig{
			DefaultLanguage: "no",
		},
		Search: SearchConfig{
			Debounce:      "300ms",
			MaxResults:    10,
			SnippetLength: 150,
			Boosts: BoostsConfig{
				Title:       2,
				Description: 1,
				Body:        1,
			},
			Expand:    &expand,
			CacheSize: 256,
		},
		Fetch: FetchConfig{
			Timeout:   "30s",
			MaxBytes:  64 << 20,
			UserAgent: "sitesearch",
		},
		LogLevel: "info",
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/sitesearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/sitesearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitesearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "sitesearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "sitesearch", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig returns nil config and nil error when no user config exists.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAML(configPath, &parsed); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &parsed, nil
}

// Load loads configuration for the given working directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/sitesearch/config.yaml)
//  3. Project config (.sitesearch.yaml in dir)
//  4. Environment variables (SITESEARCH_*)
//
// CLI flags are applied by the caller on top of the result.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none exists.
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}
	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func parseYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Site.DefaultLanguage != "" {
		c.Site.DefaultLanguage = other.Site.DefaultLanguage
	}
	if len(other.Site.BasePathMarkers) > 0 {
		c.Site.BasePathMarkers = other.Site.BasePathMarkers
	}

	if other.Search.Debounce != "" {
		c.Search.Debounce = other.Search.Debounce
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.SnippetLength != 0 {
		c.Search.SnippetLength = other.Search.SnippetLength
	}
	if other.Search.Boosts.Title != 0 {
		c.Search.Boosts.Title = other.Search.Boosts.Title
	}
	if other.Search.Boosts.Description != 0 {
		c.Search.Boosts.Description = other.Search.Boosts.Description
	}
	if other.Search.Boosts.Body != 0 {
		c.Search.Boosts.Body = other.Search.Boosts.Body
	}
	if other.Search.Expand != nil {
		expand := *other.Search.Expand
		c.Search.Expand = &expand
	}
	if other.Search.CacheSize != 0 {
		c.Search.CacheSize = other.Search.CacheSize
	}

	if other.Fetch.Timeout != "" {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.MaxBytes != 0 {
		c.Fetch.MaxBytes = other.Fetch.MaxBytes
	}
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}

	if other.UI.Locale != "" {
		c.UI.Locale = other.UI.Locale
	}
	// no_color is sticky: any layer may turn it on.
	if other.UI.NoColor {
		c.UI.NoColor = true
	}

	if other.Stats.Enabled {
		c.Stats.Enabled = true
	}
	if other.Stats.Path != "" {
		c.Stats.Path = other.Stats.Path
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies SITESEARCH_* environment variable overrides.
// Unparseable numeric values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SITESEARCH_DEFAULT_LANGUAGE"); v != "" {
		c.Site.DefaultLanguage = v
	}
	if v := os.Getenv("SITESEARCH_BASE_PATH_MARKERS"); v != "" {
		var markers []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				markers = append(markers, m)
			}
		}
		c.Site.BasePathMarkers = markers
	}
	if v := os.Getenv("SITESEARCH_DEBOUNCE"); v != "" {
		c.Search.Debounce = v
	}
	if v := os.Getenv("SITESEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxResults = n
		}
	}
	if v := os.Getenv("SITESEARCH_SNIPPET_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.SnippetLength = n
		}
	}
	if v := os.Getenv("SITESEARCH_EXPAND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Search.Expand = &b
		}
	}
	if v := os.Getenv("SITESEARCH_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.CacheSize = n
		}
	}
	if v := os.Getenv("SITESEARCH_FETCH_TIMEOUT"); v != "" {
		c.Fetch.Timeout = v
	}
	if v := os.Getenv("SITESEARCH_USER_AGENT"); v != "" {
		c.Fetch.UserAgent = v
	}
	if v := os.Getenv("SITESEARCH_LOCALE"); v != "" {
		c.UI.Locale = v
	}
	if v := os.Getenv("SITESEARCH_STATS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Stats.Enabled = b
		}
	}
	if v := os.Getenv("SITESEARCH_STATS_PATH"); v != "" {
		c.Stats.Path = v
	}
	if v := os.Getenv("SITESEARCH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	// NO_COLOR is honoured the same way the terminal ecosystem does.
	if os.Getenv("NO_COLOR") != "" || os.Getenv("SITESEARCH_NO_COLOR") != "" {
		c.UI.NoColor = true
	}
}

// DebounceDuration returns the parsed debounce window.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

// FetchTimeout returns the parsed fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ExpandEnabled reports whether prefix expansion is on.
func (c *Config) ExpandEnabled() bool {
	return c.Search.Expand == nil || *c.Search.Expand
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.DefaultLanguage) == "" {
		return fmt.Errorf("site.default_language must not be empty")
	}
	for _, m := range c.Site.BasePathMarkers {
		if !strings.HasPrefix(m, "/") || !strings.HasSuffix(m, "/") {
			return fmt.Errorf("site.base_path_markers entries must start and end with '/', got %q", m)
		}
	}

	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return fmt.Errorf("search.debounce must be a duration, got %q", c.Search.Debounce)
	}
	if d < 0 {
		return fmt.Errorf("search.debounce must be non-negative, got %s", d)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.SnippetLength <= 0 {
		return fmt.Errorf("search.snippet_length must be positive, got %d", c.Search.SnippetLength)
	}
	if c.Search.Boosts.Title <= 0 || c.Search.Boosts.Description <= 0 || c.Search.Boosts.Body <= 0 {
		return fmt.Errorf("search.boosts must be positive, got %+v", c.Search.Boosts)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must be non-negative, got %d", c.Search.CacheSize)
	}

	t, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil {
		return fmt.Errorf("fetch.timeout must be a duration, got %q", c.Fetch.Timeout)
	}
	if t <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", t)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch.max_bytes must be positive, got %d", c.Fetch.MaxBytes)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadFile returns the defaults overlaid with the settings in path. Unlike
// Load it neither reads other sources nor applies environment overrides.
func LoadFile(path string) (*Config, error) {
	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return nil, err
	}
	cfg := NewConfig()
	cfg.mergeWith(&parsed)
	return cfg, nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
