package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/sitesearch/internal/config"
	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/telemetry"
)

// statsSink collects search statistics for one command run.
type statsSink struct {
	metrics *telemetry.QueryMetrics
	store   *telemetry.SQLiteStore
}

func statsPath(cfg *config.Config) string {
	if cfg.Stats.Path != "" {
		return cfg.Stats.Path
	}
	return telemetry.DefaultStatsPath()
}

// openStats returns nil when statistics are disabled or the database cannot
// be opened. Statistics never make a search fail.
func openStats(cfg *config.Config) *statsSink {
	if !cfg.Stats.Enabled {
		return nil
	}
	path := statsPath(cfg)
	store, err := telemetry.OpenSQLiteStore(path)
	if err != nil {
		slog.Warn("stats_unavailable", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return &statsSink{
		metrics: telemetry.NewQueryMetrics(store),
		store:   store,
	}
}

// Close flushes pending statistics. Safe on a nil sink.
func (s *statsSink) Close() {
	if s == nil {
		return
	}
	if err := s.metrics.Close(); err != nil {
		slog.Warn("stats_flush_failed", slog.String("error", err.Error()))
	}
	_ = s.store.Close()
}

type statsOptions struct {
	days   int
	top    int
	asJSON bool
}

func newStatsCmd() *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show what has been searched for",
		Long: `Show local search statistics: how many searches ran, the most popular
terms, recent queries that found nothing and how long searches took.

Statistics are only collected when stats.enabled is true in the configuration
(or SITESEARCH_STATS=1). They never leave this machine.`,
		Example: `  sitesearch stats
  sitesearch stats --days 7 --top 20
  sitesearch stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 30, "Number of days to include")
	cmd.Flags().IntVar(&opts.top, "top", 10, "Number of terms and zero-result queries to list")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, opts *statsOptions) error {
	if opts.days <= 0 || opts.top <= 0 {
		return sserrors.ValidationError("--days and --top must be positive", nil)
	}

	cfg := currentConfig()
	out := output.New(cmd.OutOrStdout())
	path := statsPath(cfg)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if opts.asJSON {
			return out.JSON(&telemetry.Snapshot{})
		}
		out.Status(output.IconHint, "No search statistics yet")
		if !cfg.Stats.Enabled {
			out.Line("   Enable them with 'stats: {enabled: true}' in your config or SITESEARCH_STATS=1")
		}
		return nil
	}

	store, err := telemetry.OpenSQLiteStore(path)
	if err != nil {
		return sserrors.Wrap(sserrors.ErrCodeInternal, err)
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	from := now.AddDate(0, 0, -(opts.days - 1)).Format(time.DateOnly)
	snap, err := store.Report(from, now.Format(time.DateOnly), opts.top)
	if err != nil {
		return sserrors.Wrap(sserrors.ErrCodeInternal, err)
	}

	if opts.asJSON {
		return out.JSON(snap)
	}
	return printStats(out, snap, opts.days)
}

func printStats(out *output.Writer, snap *telemetry.Snapshot, days int) error {
	out.Linef("Searches (last %d days): %d", days, snap.TotalQueries)
	if snap.TotalQueries == 0 {
		return nil
	}
	out.Linef("  without results: %d (%.1f%%)", snap.ZeroResultCount, snap.ZeroResultPercentage())
	out.Linef("  served from cache: %d", snap.CachedCount)
	out.Linef("  single term: %d, several terms: %d",
		snap.QueryTypeCounts[telemetry.QueryTypeSingle], snap.QueryTypeCounts[telemetry.QueryTypeMulti])

	if len(snap.TopTerms) > 0 {
		out.Newline()
		terms := out.Table("TERM", "SEARCHES")
		for _, tc := range snap.TopTerms {
			terms.AddRow(tc.Term, fmt.Sprint(tc.Count))
		}
		if err := terms.Render(); err != nil {
			return err
		}
	}

	out.Newline()
	latency := out.Table("LATENCY", "SEARCHES")
	labels := map[telemetry.LatencyBucket]string{
		telemetry.BucketP10:   "<10ms",
		telemetry.BucketP50:   "10-50ms",
		telemetry.BucketP100:  "50-100ms",
		telemetry.BucketP500:  "100-500ms",
		telemetry.BucketP1000: ">=500ms",
	}
	for _, b := range telemetry.Buckets {
		latency.AddRow(labels[b], fmt.Sprint(snap.LatencyDistribution[b]))
	}
	if err := latency.Render(); err != nil {
		return err
	}

	if len(snap.ZeroResultQueries) > 0 {
		out.Newline()
		out.Line("Recent searches without results:")
		for _, q := range snap.ZeroResultQueries {
			out.Linef("  %s", q)
		}
	}
	return nil
}
