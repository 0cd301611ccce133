package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/logging"
	"github.com/boshu2/promptorch/cli/internal/state"
)

var (
	// Global flags
	verbose    bool
	output     string
	pluginRoot string
	projectDir string

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "po",
	Short: "Prompt orchestrator hooks for Claude Code",
	Long: `po gates user prompts into an orchestration workflow.

Hook Commands (invoked by the hook runtime):
  hook session-start   Prepare project state at session start
  hook prompt-submit   Classify a submitted prompt

Control Commands:
  on, off, reset   Same as /orchestrator on|off|reset
  status           Show the session record
  config --show    Show effective settings and their sources
  init             Write the default hooks.json into the plugin root
  version          Show version information`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.FromEnv(verbose, cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (json, table, yaml)")
	rootCmd.PersistentFlags().StringVar(&pluginRoot, "plugin-root", "", "Plugin root containing hooks.json (default: $"+config.EnvPluginRoot+")")
	rootCmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Project directory (default: current directory)")
}

// resolveProjectDir returns --dir or the working directory.
func resolveProjectDir() (string, error) {
	if dir := strings.TrimSpace(projectDir); dir != "" {
		return dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return dir, nil
}

// loadPluginConfig resolves the plugin root and loads hooks.json from it.
func loadPluginConfig() (*config.PluginConfig, error) {
	root, err := config.PluginRoot(pluginRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		if config.IsHooksConfigError(err) {
			return nil, fmt.Errorf("%w (run 'po init' to write the default)", err)
		}
		return nil, err
	}
	logger.Debug("loaded plugin config", zap.String("plugin_root", root))
	return cfg, nil
}

func newRepository(cfg *config.PluginConfig, dir string) *state.FileRepository {
	return state.NewFileRepository(cfg.SessionPath(dir), state.WithLogger(logger))
}

// writeHookJSON writes v as the indented JSON object the hook runtime reads.
func writeHookJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
