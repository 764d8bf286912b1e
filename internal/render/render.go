// Package render turns search hits into status text, plain result records and
// safe HTML markup.
//
// Every piece of document text reaching the markup goes through html/template
// contextual escaping and a bluemonday policy that only admits the result
// elements.
package render

import (
	"bytes"
	"html/template"
	"log/slog"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Aman-CERP/sitesearch/internal/artifact"
	"github.com/Aman-CERP/sitesearch/internal/store"
)

const (
	// DefaultMaxResults bounds the number of displayed results.
	DefaultMaxResults = 10
	// DefaultSnippetLength is the number of body characters kept in a snippet.
	DefaultSnippetLength = 150
	// Ellipsis marks a truncated body snippet.
	Ellipsis = "..."
)

// StatusKind classifies a status line.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusResults
	StatusNoResults
	StatusLoading
	StatusUnavailable
)

// Status is the status line shown above the results.
type Status struct {
	Kind StatusKind
	Text string
	// Error marks statuses styled as errors.
	Error bool
}

// Record is one displayable result.
type Record struct {
	Ref     string `json:"ref"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Rendering is the full output for one query.
type Rendering struct {
	Query   string
	Status  Status
	Records []Record
	// Markup is the sanitized HTML for Records.
	Markup string
	// Total counts every hit, including those beyond the display limit.
	Total int
}

// Renderer renders hits. It is immutable and safe for concurrent use.
type Renderer struct {
	messages      Messages
	maxResults    int
	snippetLength int
	policy        *bluemonday.Policy
	logger        *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMessages selects the message catalog.
func WithMessages(m Messages) Option {
	return func(r *Renderer) { r.messages = m }
}

// WithMaxResults sets the display limit.
func WithMaxResults(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithSnippetLength sets the body snippet length.
func WithSnippetLength(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.snippetLength = n
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer creates a renderer with English messages and default limits.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		messages:      English,
		maxResults:    DefaultMaxResults,
		snippetLength: DefaultSnippetLength,
		policy:        resultPolicy(),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Messages returns the active catalog.
func (r *Renderer) Messages() Messages {
	return r.messages
}

// Render renders hits for query, resolving documents through st. Hits whose
// document cannot be found are left out of the records; the status still
// counts them.
func (r *Renderer) Render(hits []store.Hit, query string, st artifact.Store) Rendering {
	out := Rendering{Query: query, Total: len(hits)}
	if len(hits) == 0 {
		out.Status = Status{Kind: StatusNoResults, Text: r.messages.Count(0, query)}
		return out
	}

	out.Status = Status{Kind: StatusResults, Text: r.messages.Count(len(hits), query)}

	shown := hits
	if len(shown) > r.maxResults {
		shown = shown[:r.maxResults]
	}
	out.Records = make([]Record, 0, len(shown))
	for _, h := range shown {
		rec, ok := st.Record(h.Ref)
		if !ok {
			r.logger.Warn("result_document_missing", slog.String("ref", h.Ref))
			continue
		}
		out.Records = append(out.Records, r.record(h.Ref, rec))
	}
	out.Markup = r.Markup(out.Records)
	return out
}

// Loading is the status shown when a search fires before the index is ready.
func (r *Renderer) Loading() Status {
	return Status{Kind: StatusLoading, Text: r.messages.Loading}
}

// Unavailable is the status shown once the index failed to load.
func (r *Renderer) Unavailable() Status {
	return Status{Kind: StatusUnavailable, Text: r.messages.Unavailable, Error: true}
}

func (r *Renderer) record(ref string, rec artifact.Record) Record {
	title := rec.Title
	if title == "" {
		title = r.messages.Untitled
	}
	return Record{Ref: ref, Title: title, Snippet: Snippet(rec.Description, rec.Body, r.snippetLength)}
}

// Snippet returns description verbatim when present. Otherwise it returns the
// first n characters of body, followed by Ellipsis only if body is longer.
func Snippet(description, body string, n int) string {
	if description != "" {
		return description
	}
	if utf8.RuneCountInString(body) <= n {
		return body
	}
	runes := []rune(body)
	return string(runes[:n]) + Ellipsis
}

var resultsTemplate = template.Must(template.New("results").Parse(
	`{{range .}}<div class="search-result">` +
		`<h3 class="search-result-title"><a href="{{.Ref}}">{{.Title}}</a></h3>` +
		`{{if .Snippet}}<p class="search-result-snippet">{{.Snippet}}</p>{{end}}` +
		`</div>{{end}}`))

// Markup renders records as HTML. The result is escaped by html/template and
// then passed through the sanitizer policy.
func (r *Renderer) Markup(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := resultsTemplate.Execute(&buf, records); err != nil {
		r.logger.Error("render_failed", slog.String("error", err.Error()))
		return ""
	}
	return r.policy.Sanitize(buf.String())
}

func resultPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "h3", "p")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("div", "h3", "p")
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https")
	return p
}
