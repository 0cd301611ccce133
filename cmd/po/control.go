package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/boshu2/promptorch/cli/internal/formatter"
	"github.com/boshu2/promptorch/cli/internal/gate"
	"github.com/boshu2/promptorch/cli/internal/state"
	"github.com/boshu2/promptorch/cli/internal/storage"
)

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Activate the orchestrator for this project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, gate.CommandOn)
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Deactivate the orchestrator for this project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, gate.CommandOff)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the session record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runControl(cmd, gate.CommandReset)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session record",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(onCmd, offCmd, resetCmd, statusCmd)
}

// runControl sends a control command through the same gate the hook uses.
func runControl(cmd *cobra.Command, command string) error {
	cfg, err := loadPluginConfig()
	if err != nil {
		return err
	}
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	g := gate.New(newRepository(cfg, dir), cfg, gate.WithLogger(logger))
	dec, err := g.Handle(cmd.Context(), command)
	if err != nil {
		return err
	}

	if output == formatter.FormatTable || output == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), dec.Response.Message)
		return err
	}
	return formatter.Render(cmd.OutOrStdout(), output, dec.Response)
}

// statusView is the session record plus its location and summary line.
type statusView struct {
	Status      string             `json:"status" yaml:"status"`
	SessionFile string             `json:"session_file" yaml:"session_file"`
	Exists      bool               `json:"exists" yaml:"exists"`
	State       state.SessionState `json:"state" yaml:"state"`
}

func (v statusView) Headers() []string { return []string{"FIELD", "VALUE"} }

func (v statusView) Rows() []formatter.Row {
	st := v.State
	return []formatter.Row{
		{"status", v.Status},
		{"session_file", v.SessionFile},
		{"exists", strconv.FormatBool(v.Exists)},
		{"active", strconv.FormatBool(st.Active)},
		{"discovery_round", strconv.Itoa(st.DiscoveryRound)},
		{"quality_score", strconv.FormatFloat(st.QualityScore, 'g', -1, 64)},
		{"last_prompt", st.LastPrompt},
		{"orchestration_in_progress", strconv.FormatBool(st.OrchestrationInProgress)},
		{"waiting_for_followup", strconv.FormatBool(st.WaitingForFollowup)},
		{"bypass_active", strconv.FormatBool(st.BypassActive)},
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadPluginConfig()
	if err != nil {
		return err
	}
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	repo := newRepository(cfg, dir)
	st, err := repo.Load()
	if err != nil {
		return err
	}

	return formatter.Render(cmd.OutOrStdout(), output, statusView{
		Status:      gate.StatusMessage(st),
		SessionFile: repo.Path,
		Exists:      storage.Exists(repo.Path),
		State:       st,
	})
}
