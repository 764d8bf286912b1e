// Package logging configures structured slog output for sitesearch.
//
// By default only warnings reach stderr. With --debug, JSON logs are also
// written to a rotating file under ~/.sitesearch/logs/. The interactive UI
// owns the terminal, so in that mode nothing is written to stderr at all.
package logging
