package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/loader"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/session"
	"github.com/Aman-CERP/sitesearch/internal/ui"
	"github.com/Aman-CERP/sitesearch/internal/watcher"
)

type interactiveOptions struct {
	target targetFlags
	plain  bool
	watch  bool
}

func newInteractiveCmd() *cobra.Command {
	opts := &interactiveOptions{}

	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"i"},
		Short:   "Search as you type",
		Long: `Open a search box for the site. Results update shortly after you stop
typing; enter searches at once and esc clears the box.

When stdin or stdout is not a terminal, one query is read per line and the
results are printed as plain text.`,
		Example: `  sitesearch interactive --page https://example.com/
  sitesearch interactive --index public/search_index.en.json --watch
  printf 'salmon\npasta\n' | sitesearch interactive --page public/index.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), cmd, opts)
		},
	}

	opts.target.register(cmd)
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Use line-oriented output even on a terminal")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload when a local index file changes")

	return cmd
}

func runInteractive(ctx context.Context, cmd *cobra.Command, opts *interactiveOptions) error {
	cfg := currentConfig()
	t, err := resolveTarget(ctx, cfg, opts.target)
	if err != nil {
		return err
	}

	if t.Page != nil && !t.Page.HasSearchInput {
		output.New(cmd.ErrOrStderr()).Status(output.IconHint, "The page has no search box (#search-input); search is disabled there.")
		return nil
	}
	if opts.watch && !t.local() {
		return sserrors.ValidationError("--watch needs a local index file", nil).
			WithSuggestion("point --index or --page at files on disk")
	}

	var prompt string
	if opts.plain && ui.IsTTY(cmd.OutOrStdout()) {
		prompt = "> "
	}
	view := ui.NewSearchView(ui.NewConfig(cmd.InOrStdin(), cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(cfg.UI.NoColor),
		ui.WithTitle(t.Location),
		ui.WithPrompt(prompt),
	))

	ld := newLoader(cfg)
	load := func(ctx context.Context) (*loader.Loaded, error) {
		return ld.Load(ctx, t.Location)
	}
	stats := openStats(cfg)
	defer stats.Close()

	spawn := func() *session.Controller {
		opts := []session.Option{
			session.WithDebounce(cfg.DebounceDuration()),
			session.WithRenderer(newRenderer(cfg, t.Language, 0)),
			session.WithEngineOptions(engineOptions(cfg)...),
			session.WithLogger(slog.Default()),
		}
		if stats != nil {
			opts = append(opts, session.WithRecorder(stats.metrics, t.Language))
		}
		return session.New(load, view, opts...)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	live := newLiveSession(runCtx, spawn, slog.Default())
	defer func() { _ = live.Close() }()

	if opts.watch {
		w, err := watcher.New(t.Location, watcher.Options{Logger: slog.Default()})
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
		go func() { _ = w.Start(runCtx) }()
		go live.Follow(runCtx, w)
	}

	err = view.Run(runCtx, live)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
