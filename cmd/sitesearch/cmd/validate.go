package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/search"
	"github.com/Aman-CERP/sitesearch/internal/validation"
)

type validateOptions struct {
	target  targetFlags
	queries string
	jsonOut bool
}

func newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that known queries still find the expected pages",
		Long: `Run a suite of queries against a search index and check each finds the
pages it should. Negative queries must find nothing.

The suite is a YAML file:

  queries:
    - id: R1
      query: salmon
      expected: [/food-recipes/grilled-salmon/]
      within: 3
  negative:
    - id: N1
      query: xyzzy

Exits with an error when any query fails.`,
		Example: `  sitesearch validate --index public/search_index.en.json --queries search-queries.yaml
  sitesearch validate --page https://example.com/food-recipes/ --queries search-queries.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().StringVar(&opts.queries, "queries", "", "YAML file of queries and expected refs")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("queries")

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts *validateOptions) error {
	suite, err := validation.LoadSuite(opts.queries)
	if err != nil {
		return sserrors.ValidationError("could not read the query suite", err)
	}

	cfg := currentConfig()
	t, err := resolveTarget(ctx, cfg, opts.target)
	if err != nil {
		return err
	}

	loaded, err := newLoader(cfg).Load(ctx, t.Location)
	if err != nil {
		slog.Warn("search_unavailable", sserrors.LogAttrs(err)...)
		return err
	}
	defer func() { _ = loaded.Index.Close() }()

	engine, err := search.NewEngine(loaded.Index, engineOptions(cfg)...)
	if err != nil {
		return err
	}

	result := validation.NewValidator(engine).RunAll(ctx, suite)
	slog.Info("validation_finished",
		slog.String("artifact", t.Location),
		slog.Int("failed", result.Failed()))

	out := output.New(cmd.OutOrStdout())
	if opts.jsonOut {
		if err := out.JSON(result); err != nil {
			return err
		}
	} else if err := renderValidation(out, result); err != nil {
		return err
	}

	if failed := result.Failed(); failed > 0 {
		total := result.QueryTotal + result.NegativeTotal
		return sserrors.New(sserrors.ErrCodeSearchFailed,
			fmt.Sprintf("%d of %d validation queries failed", failed, total), nil)
	}
	return nil
}

func renderValidation(out *output.Writer, r *validation.Result) error {
	table := out.Table("ID", "QUERY", "KIND", "HITS", "RANK", "RESULT")
	add := func(kind string, results []validation.TestResult) {
		for i, tr := range results {
			id := tr.Spec.ID
			if id == "" {
				id = "#" + strconv.Itoa(i+1)
			}
			rank := "-"
			if tr.MatchedAt >= 0 {
				rank = strconv.Itoa(tr.MatchedAt + 1)
			}
			verdict := "PASS"
			if !tr.Passed {
				verdict = "FAIL"
			}
			table.AddRow(id, tr.Spec.Query, kind, strconv.Itoa(tr.Total), rank, verdict)
		}
	}
	add("expect", r.Queries)
	add("negative", r.Negative)
	if err := table.Render(); err != nil {
		return err
	}

	out.Newline()
	out.Linef("%d/%d queries passed, %d/%d negative queries passed",
		r.QueryPass, r.QueryTotal, r.NegativePass, r.NegativeTotal)
	return nil
}
