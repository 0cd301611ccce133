package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/formatter"
)

var configShow bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect orchestrator configuration",
	Long: `Show the effective configuration for the project.

Precedence (highest to lowest):
  1. Environment (PO_AUTO_ORCHESTRATE, PO_STATE_DIR)
  2. Project settings (<state dir>/config.json)
  3. Plugin template (<plugin root>/hooks.json)
  4. Defaults`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
	rootCmd.AddCommand(configCmd)
}

// configView adds a table rendering to the resolved configuration.
type configView config.ResolvedConfig

func (v configView) Headers() []string { return []string{"KEY", "VALUE", "SOURCE"} }

func (v configView) Rows() []formatter.Row {
	return []formatter.Row{
		{"plugin_root", v.PluginRoot, ""},
		{"session_file", v.SessionFile, ""},
		{"settings_file", v.SettingsFile, ""},
		{"auto_orchestrate", fmt.Sprint(v.AutoOrchestrate.Value), string(v.AutoOrchestrate.Source)},
		{"quality_threshold", fmt.Sprint(v.QualityThreshold.Value), string(v.QualityThreshold.Source)},
		{"state_directory", fmt.Sprint(v.StateDirectory.Value), string(v.StateDirectory.Source)},
		{"bypass_prefix", fmt.Sprintf("%q", v.BypassPrefix.Value), string(v.BypassPrefix.Source)},
		{"bypass_commands", fmt.Sprint(v.BypassCommands.Value), string(v.BypassCommands.Source)},
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		return cmd.Help()
	}

	root, err := config.PluginRoot(pluginRoot)
	if err != nil {
		return err
	}
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	rc, err := config.Resolve(root, dir)
	if err != nil {
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), output, configView(*rc))
}
