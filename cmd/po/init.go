package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/promptorch/cli/embedded"
	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/storage"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default hooks.json into the plugin root",
	Long: `Write the built-in hooks.json template into the plugin root.

An existing file is left untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing hooks.json")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := config.PluginRoot(pluginRoot)
	if err != nil {
		return err
	}
	path := config.HooksPath(root)

	if storage.Exists(path) && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := storage.WriteFile(path, embedded.HooksJSON); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
