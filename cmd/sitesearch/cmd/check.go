package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/profiling"
	"github.com/Aman-CERP/sitesearch/internal/resolve"
)

type checkOptions struct {
	site        string
	langs       []string
	basePath    string
	concurrency int
	jsonOut     bool
}

// checkRow is the load outcome for one language.
type checkRow struct {
	Language  string `json:"language"`
	Artifact  string `json:"artifact"`
	Variant   string `json:"variant,omitempty"`
	Documents int    `json:"documents"`
	Skipped   int    `json:"skipped"`
	Millis    int64  `json:"load_ms"`
	Error     string `json:"error,omitempty"`
}

func newCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load every language's search index and report on it",
		Long: `Load the search index of each language of a site concurrently and print
which construction was used, how many documents were indexed and how many
were skipped as malformed.

Exits with an error if any index could not be loaded.`,
		Example: `  sitesearch check --site https://example.com --lang no --lang en
  sitesearch check --site ./public --base-path / --lang en --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "site", "", "Site root URL or directory (required)")
	cmd.Flags().StringSliceVar(&opts.langs, "lang", nil, "Language codes to check (default: site.default_language)")
	cmd.Flags().StringVar(&opts.basePath, "base-path", "/", "Base path of the site under --site")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Indexes loaded at the same time")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("site")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, opts *checkOptions) error {
	cfg := currentConfig()
	langs := opts.langs
	if len(langs) == 0 {
		langs = []string{cfg.Site.DefaultLanguage}
	}
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}

	ld := newLoader(cfg)
	rows := make([]checkRow, len(langs))

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, lang := range langs {
		g.Go(func() error {
			loc := resolve.Location{
				Language: resolve.LanguageCode(lang, cfg.Site.DefaultLanguage),
				BasePath: opts.basePath,
			}
			row := checkRow{Language: loc.Language, Artifact: siteArtifact(opts.site, loc)}

			start := time.Now()
			loaded, err := ld.Load(gctx, row.Artifact)
			row.Millis = time.Since(start).Milliseconds()
			if err != nil {
				row.Error = err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
				slog.Warn("check_failed", append([]any{slog.String("language", loc.Language)}, sserrors.LogAttrs(err)...)...)
			} else {
				row.Variant = string(loaded.Variant)
				row.Documents = loaded.Index.DocCount()
				row.Skipped = len(loaded.Diagnostics)
				_ = loaded.Index.Close()
			}
			rows[i] = row
			// One language failing never stops the others.
			return nil
		})
	}
	_ = g.Wait()
	slog.Info("check_finished",
		slog.Int("indexes", len(rows)),
		slog.String("heap_in_use", profiling.FormatBytes(profiling.HeapInUse())))

	out := output.New(cmd.OutOrStdout())
	if opts.jsonOut {
		if err := out.JSON(rows); err != nil {
			return err
		}
	} else if err := renderCheck(out, rows); err != nil {
		return err
	}

	if failed > 0 {
		return sserrors.UnavailableError(fmt.Sprintf("%d of %d search indexes could not be loaded", failed, len(rows)), nil)
	}
	return nil
}

func renderCheck(out *output.Writer, rows []checkRow) error {
	table := out.Table("LANG", "VARIANT", "DOCUMENTS", "SKIPPED", "TIME", "STATUS")
	for _, r := range rows {
		status := "ok"
		variant := r.Variant
		docs, skipped := strconv.Itoa(r.Documents), strconv.Itoa(r.Skipped)
		if r.Error != "" {
			status = firstLine(r.Error)
			variant, docs, skipped = "-", "-", "-"
		}
		table.AddRow(r.Language, variant, docs, skipped, fmt.Sprintf("%dms", r.Millis), status)
	}
	return table.Render()
}

// siteArtifact joins a site root with an artifact path.
func siteArtifact(site string, loc resolve.Location) string {
	return strings.TrimRight(site, "/") + "/" + strings.TrimLeft(loc.ArtifactPath(), "/")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
