package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/sitesearch/configs"
	"github.com/Aman-CERP/sitesearch/internal/config"
	"github.com/Aman-CERP/sitesearch/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage sitesearch configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/sitesearch/config.yaml)
  3. Project config (.sitesearch.yaml in --dir)
  4. Environment variables (SITESEARCH_*)
  5. Command line flags`,
		Example: `  # Create user config from template
  sitesearch config init

  # Create a site config in the current directory
  sitesearch config init --project

  # Show effective configuration
  sitesearch config show

  # Print config file paths
  sitesearch config path`,
		Annotations: map[string]string{annotationNoConfig: "true"},
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from a template",
		Long: `Create the user configuration file, or with --project the site
configuration file .sitesearch.yaml in --dir.

With --force an existing file is backed up and rewritten with any options
added since it was created. Existing values are kept.`,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			tmpl := configs.UserConfigTemplate
			if project {
				path = filepath.Join(configDir, config.ProjectConfigNames[0])
				tmpl = configs.ProjectConfigTemplate
			}
			return runConfigInit(cmd, path, tmpl, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Upgrade an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&project, "project", false, "Create .sitesearch.yaml instead of the user config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging all sources, or a single
source with --source.`,
		Example: `  sitesearch config show
  sitesearch config show --json
  sitesearch config show --source project --dir ./site`,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print config file paths",
		Long:        `Print the user configuration path and, when present, the project configuration path.`,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			if p := config.ProjectConfigPath(configDir); p != "" {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, path, tmpl string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Newline()
			out.Status(output.IconHint, "Use --force to upgrade with new defaults (preserves your settings)")
			return nil
		}
		return runConfigUpgrade(out, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(tmpl), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Edit the file to customize settings")
	out.Status("", "  2. Run 'sitesearch config show' to verify")

	return nil
}

// runConfigUpgrade backs up path and rewrites it as defaults overlaid with
// its current values.
func runConfigUpgrade(out *output.Writer, path string) error {
	backupPath, err := config.BackupFile(path)
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load existing config: %w", err)
	}
	if err := cfg.WriteYAML(path); err != nil {
		return fmt.Errorf("failed to write upgraded config: %w", err)
	}

	out.Success("Configuration upgraded")
	out.Statusf("📁", "Location: %s", path)
	out.Statusf("💾", "Backup: %s", backupPath)
	out.Newline()
	out.Status(output.IconHint, "Your existing settings have been preserved")

	return nil
}

// configSource is one layer `config show --source` can display.
type configSource struct {
	describe string
	// path returns the file behind the layer, "" when there is none.
	path func() string
	// hint is shown when the file is missing.
	hint string
}

var configSources = map[string]configSource{
	"user": {
		describe: "user",
		path: func() string {
			if !config.UserConfigExists() {
				return ""
			}
			return config.GetUserConfigPath()
		},
		hint: "Run 'sitesearch config init' to create one",
	},
	"project": {
		describe: "project",
		path:     func() string { return config.ProjectConfigPath(configDir) },
		hint:     "Run 'sitesearch config init --project' to create one",
	},
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg  *config.Config
		desc string
		err  error
	)
	switch source {
	case "merged":
		if cfg, err = config.Load(configDir); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		desc = "merged (defaults + user + project + env)"
	case "defaults":
		cfg, desc = config.NewConfig(), "defaults (hardcoded)"
	default:
		src, ok := configSources[source]
		if !ok {
			return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
		}
		path := src.path()
		if path == "" {
			out.Warningf("No %s configuration file found", src.describe)
			out.Status(output.IconHint, src.hint)
			return nil
		}
		if cfg, err = config.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load %s config: %w", src.describe, err)
		}
		desc = fmt.Sprintf("%s (%s)", src.describe, path)
	}

	if jsonOutput {
		return out.JSON(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out.Statusf("📋", "Configuration source: %s", desc)
	out.Newline()
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
