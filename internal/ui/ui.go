// Package ui provides the terminal front ends for an interactive search
// session: a bubbletea search-as-you-type view and a plain line view for pipes.
package ui

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/sitesearch/internal/session"
)

// Controls is the part of a session the views drive.
// *session.Controller implements it.
type Controls interface {
	// Input reports the current contents of the search input.
	Input(text string)
	// Escape clears the input and display.
	Escape()
	// Flush runs the pending search now.
	Flush() bool
	// Loaded is closed once the index has loaded or failed.
	Loaded() <-chan struct{}
}

// SearchView is a session.View that also owns the user's input loop.
type SearchView interface {
	session.View

	// Run reads input and drives c until the user quits, input ends or ctx
	// is cancelled.
	Run(ctx context.Context, c Controls) error
}

// Config configures the search views.
type Config struct {
	Input      io.Reader
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Title is shown above the search input, typically the artifact location.
	Title string
	// Prompt is printed before each line in plain mode. Empty disables it.
	Prompt string
}

// ConfigOption adjusts a Config.
type ConfigOption func(*Config)

// WithForcePlain selects the plain view even on a terminal.
func WithForcePlain(force bool) ConfigOption { return func(c *Config) { c.ForcePlain = force } }

// WithNoColor drops TUI colors.
func WithNoColor(noColor bool) ConfigOption { return func(c *Config) { c.NoColor = noColor } }

// WithTitle sets the TUI header.
func WithTitle(title string) ConfigOption { return func(c *Config) { c.Title = title } }

// WithPrompt sets the plain mode prompt.
func WithPrompt(prompt string) ConfigOption { return func(c *Config) { c.Prompt = prompt } }

// NewConfig builds a Config for the given streams.
func NewConfig(input io.Reader, output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Input: input, Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewSearchView returns the TUI when both streams are terminals outside CI,
// and the plain view otherwise.
func NewSearchView(cfg Config) SearchView {
	if cfg.ForcePlain || DetectCI() || !IsTTY(cfg.Output) || !isTerminal(cfg.Input) {
		return NewPlainView(cfg)
	}
	return newTUIView(cfg)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	return isTerminal(w)
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// DetectNoColor honours the NO_COLOR convention.
func DetectNoColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}

// DetectCI reports whether a known CI environment variable is set.
func DetectCI() bool {
	for _, name := range ciEnv {
		if _, set := os.LookupEnv(name); set {
			return true
		}
	}
	return false
}
