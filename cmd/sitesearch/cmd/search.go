package cmd

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/render"
	"github.com/Aman-CERP/sitesearch/internal/resolve"
	"github.com/Aman-CERP/sitesearch/internal/search"
	"github.com/Aman-CERP/sitesearch/internal/telemetry"
)

type searchOptions struct {
	target targetFlags
	limit  int
	format string
}

func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one query against a site's search index",
		Long: `Resolve the site's search index, load it and run a single query.

Results are ranked the same way the site's search box ranks them: every query
term is matched in the title, description and body (titles count double) and
each term also matches words it is a prefix of.`,
		Example: `  sitesearch search salmon --page https://example.com/food-recipes/
  sitesearch search "grilled salmon" --index public/search_index.en.json -n 5
  sitesearch search pasta --page public/index.html --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results to show (default: search.max_results)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json or html")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts *searchOptions) error {
	if strings.TrimSpace(query) == "" {
		return sserrors.New(sserrors.ErrCodeQueryEmpty, "search query cannot be empty", nil)
	}
	switch opts.format {
	case "text", "json", "html":
	default:
		return sserrors.ValidationError(fmt.Sprintf("invalid format %q", opts.format), nil).
			WithSuggestion("use --format text, json or html")
	}

	cfg := currentConfig()
	t, err := resolveTarget(ctx, cfg, opts.target)
	if err != nil {
		return err
	}

	renderer := newRenderer(cfg, t.Language, opts.limit)
	out := output.New(cmd.OutOrStdout())

	loaded, err := newLoader(cfg).Load(ctx, t.Location)
	if err != nil {
		slog.Warn("search_unavailable", sserrors.LogAttrs(err)...)
		printStatus(cmd.OutOrStdout(), opts.format, renderer.Unavailable())
		return err
	}
	defer func() { _ = loaded.Index.Close() }()

	if loaded.Variant == loader.VariantDegraded {
		output.New(cmd.ErrOrStderr()).Warningf("Using a simplified index for %s: %v", t.Location, loaded.Reason)
	}

	engine, err := search.NewEngine(loaded.Index, engineOptions(cfg)...)
	if err != nil {
		return err
	}

	stats := openStats(cfg)
	defer stats.Close()

	start := time.Now()
	result := engine.Search(ctx, query)
	if stats != nil {
		stats.metrics.Record(telemetry.QueryEvent{
			Query:       result.Query,
			Language:    t.Language,
			ResultCount: result.Total,
			Latency:     time.Since(start),
			Timestamp:   start,
		})
	}
	rendering := renderer.Render(result.Hits, result.Query, loaded.Artifact)

	switch opts.format {
	case "json":
		return out.JSON(searchJSON(t, loaded, rendering))
	case "html":
		printStatus(cmd.OutOrStdout(), opts.format, rendering.Status)
		out.Line(rendering.Markup)
		return nil
	default:
		printText(out, rendering)
		return nil
	}
}

// searchResultJSON is the --format json document.
type searchResultJSON struct {
	Query    string          `json:"query"`
	Language string          `json:"language"`
	Artifact string          `json:"artifact"`
	Variant  string          `json:"variant"`
	Total    int             `json:"total"`
	Status   string          `json:"status"`
	Results  []render.Record `json:"results"`
}

func searchJSON(t target, loaded *loader.Loaded, r render.Rendering) searchResultJSON {
	records := r.Records
	if records == nil {
		records = []render.Record{}
	}
	return searchResultJSON{
		Query:    r.Query,
		Language: t.Language,
		Artifact: t.Location,
		Variant:  string(loaded.Variant),
		Total:    r.Total,
		Status:   r.Status.Text,
		Results:  records,
	}
}

func printText(out *output.Writer, r render.Rendering) {
	out.Line(r.Status.Text)
	for i, rec := range r.Records {
		out.Newline()
		out.Linef("%d. %s", i+1, rec.Title)
		out.Linef("   %s", rec.Ref)
		if rec.Snippet != "" {
			out.Linef("   %s", rec.Snippet)
		}
	}
}

// printStatus writes a status line in the requested format. JSON output only
// carries statuses for successful searches.
func printStatus(w io.Writer, format string, s render.Status) {
	switch format {
	case "json":
		return
	case "html":
		class := "search-status"
		if s.Error {
			class += " search-error"
		}
		_, _ = fmt.Fprintf(w, "<p id=\"%s\" class=\"%s\">%s</p>\n", resolve.SearchStatusID, class, html.EscapeString(s.Text))
	default:
		_, _ = fmt.Fprintln(w, s.Text)
	}
}
