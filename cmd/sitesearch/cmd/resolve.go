package cmd

import (
	"context"

	"github.com/spf13/cobra"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/resolve"
)

type resolveOptions struct {
	target  targetFlags
	jsonOut bool
}

// resolveResult is the --json document.
type resolveResult struct {
	Language      string `json:"language"`
	BasePath      string `json:"base_path"`
	Artifact      string `json:"artifact"`
	SearchEnabled bool   `json:"search_enabled"`
}

func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show where a page's search index lives",
		Long: `Print the search index a page would load, without loading it.

With --page the page is read and its lang attribute, data-base-path
attribute and <base href> are used. Without --page, --lang and --base-path
describe the page directly.`,
		Example: `  sitesearch resolve --page https://example.com/food-recipes/salmon/
  sitesearch resolve --lang nb-NO --base-path /food-recipes/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Output as JSON")

	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts *resolveOptions) error {
	cfg := currentConfig()
	out := output.New(cmd.OutOrStdout())

	var res resolveResult
	switch {
	case opts.target.index != "":
		return sserrors.ValidationError("--index already names the artifact", nil).
			WithSuggestion("use --page, or --lang with --base-path")
	case opts.target.page != "":
		t, err := resolveTarget(ctx, cfg, opts.target)
		if err != nil {
			return err
		}
		res = resolveResult{
			Language:      t.Resolved.Language,
			BasePath:      t.Resolved.BasePath,
			Artifact:      t.Location,
			SearchEnabled: t.Page.HasSearchInput,
		}
	default:
		page := &resolve.Page{
			Lang:             opts.target.lang,
			BasePathOverride: opts.target.basePath,
			HasSearchInput:   true,
		}
		loc := resolve.NewResolver(cfg.Site.DefaultLanguage, strategyFor(cfg)).Resolve(page)
		res = resolveResult{
			Language:      loc.Language,
			BasePath:      loc.BasePath,
			Artifact:      loc.ArtifactPath(),
			SearchEnabled: true,
		}
	}

	if opts.jsonOut {
		return out.JSON(res)
	}

	out.Line(res.Artifact)
	out.Linef("  language:  %s", res.Language)
	out.Linef("  base path: %s", res.BasePath)
	if !res.SearchEnabled {
		out.Warning("The page has no search box (#search-input); search is disabled there.")
	}
	return nil
}
