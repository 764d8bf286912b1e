package cmd

import (
	"github.com/spf13/cobra"

	sserrors "github.com/Aman-CERP/sitesearch/internal/errors"
	"github.com/Aman-CERP/sitesearch/internal/output"
	"github.com/Aman-CERP/sitesearch/internal/preflight"
)

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check this machine can run sitesearch",
		Long: `Run local diagnostics.

Checks:
  - Configuration loads and validates
  - Log directory is writable
  - Disk space for logs and stats (10MB minimum)
  - Stats database opens (when stats are enabled)
  - Text analyzers are registered

Use --verbose for detailed diagnostic information.
Use --json for machine-readable output.`,
		Example: `  sitesearch doctor
  sitesearch doctor --verbose
  sitesearch doctor --json`,
		Annotations: map[string]string{annotationNoConfig: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// doctorJSON is the --json document.
type doctorJSON struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput bool) error {
	checker := preflight.New(
		preflight.WithConfigDir(configDir),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)

	results := checker.RunAll(cmd.Context())

	if jsonOutput {
		if err := output.New(cmd.OutOrStdout()).JSON(doctorJSON{
			Status: checker.SummaryStatus(results),
			Checks: results,
		}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return sserrors.InternalError("system check failed", nil).
			WithSuggestion("run 'sitesearch doctor --verbose' for details")
	}
	return nil
}
