// Package cmd provides the CLI commands for sitesearch.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/sitesearch/internal/config"
	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/logging"
	"github.com/Aman-CERP/sitesearch/internal/profiling"
	"github.com/Aman-CERP/sitesearch/pkg/version"
)

// annotationNoConfig marks commands that must work with a broken config.
const annotationNoConfig = "sitesearch/no-config"

// Global flags and per-run state.
var (
	debugMode      bool
	noColor        bool
	configDir      string
	appConfig      *config.Config
	loggingCleanup func()
	profileOpts    profiling.Options
	profiler       *profiling.Profiler
)

// NewRootCmd creates the root command for the sitesearch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitesearch",
		Short: "Search a static site's prebuilt search index",
		Long: `sitesearch loads the search index a static site generator wrote next to
its pages (search_index.{lang}.json) and runs full-text queries against it
entirely on the client side.

The index is located the same way the site's own search box finds it: from
the page's lang attribute, its data-base-path attribute or <base href>, and
finally the page URL itself.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("sitesearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.sitesearch/logs/")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&configDir, "dir", ".", "Directory to read .sitesearch.yaml from")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = setupRun
	cmd.PersistentPostRunE = teardownRun

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newInteractiveCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupRun loads configuration and installs the logger for the command.
func setupRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		if cmd.Annotations[annotationNoConfig] == "" {
			return sserrors.ConfigError("could not load configuration", err).
				WithSuggestion("run 'sitesearch config show --source defaults' to compare with a working config")
		}
		cfg = config.NewConfig()
	}
	if noColor {
		cfg.UI.NoColor = true
	}
	appConfig = cfg

	mode := logging.ModeCLI
	switch {
	case cmd.Name() == "interactive":
		mode = logging.ModeInteractive
	case debugMode:
		mode = logging.ModeDebug
	}

	logCfg := logging.ConfigFor(mode, cfg.LogLevel, debugMode)
	logCfg.Stderr = cmd.ErrOrStderr()
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	if logCfg.FilePath != "" {
		slog.Debug("logging_initialized",
			slog.String("log_file", logCfg.FilePath),
			slog.String("command", cmd.CommandPath()),
			slog.String("version", version.Short()))
	}

	if profileOpts.Enabled() {
		p, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = p
	}
	return nil
}

// teardownRun writes requested profiles, then flushes and closes the log file.
func teardownRun(_ *cobra.Command, _ []string) error {
	if err := profiler.Stop(); err != nil {
		slog.Warn("profile_write_failed", slog.String("error", err.Error()))
	}
	profiler = nil

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and prints any error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(os.Stderr, sserrors.FormatForCLI(err))
	}
	return err
}

// currentConfig returns the loaded configuration, or defaults when a command
// runs without the root pre-run (tests calling run functions directly).
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.NewConfig()
	}
	return appConfig
}
