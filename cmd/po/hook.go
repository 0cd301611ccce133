package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/gate"
	"github.com/boshu2/promptorch/cli/internal/session"
)

var errInvalidHookInput = errors.New("invalid hook input")

// promptSubmitInput is the UserPromptSubmit payload. Only user_prompt is used.
type promptSubmitInput struct {
	UserPrompt    string `json:"user_prompt"`
	SessionID     string `json:"session_id"`
	Cwd           string `json:"cwd"`
	HookEventName string `json:"hook_event_name"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Entry points invoked by the hook runtime",
	Long: `Hook commands read one JSON object on stdin and write one JSON object
on stdout. Output is always JSON regardless of --output.`,
}

var hookSessionStartCmd = &cobra.Command{
	Use:   "session-start",
	Short: "Prepare project state at session start",
	Args:  cobra.NoArgs,
	RunE:  runHookSessionStart,
}

var hookPromptSubmitCmd = &cobra.Command{
	Use:   "prompt-submit",
	Short: "Classify a submitted prompt and update the session record",
	Args:  cobra.NoArgs,
	RunE:  runHookPromptSubmit,
}

func init() {
	hookCmd.AddCommand(hookSessionStartCmd, hookPromptSubmitCmd)
	rootCmd.AddCommand(hookCmd)
}

// readHookInput decodes exactly one JSON value from r into v.
func readHookInput(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidHookInput, err)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", errInvalidHookInput)
	}
	return nil
}

func runHookSessionStart(cmd *cobra.Command, args []string) error {
	var payload map[string]any
	if err := readHookInput(cmd.InOrStdin(), &payload); err != nil {
		return err
	}

	cfg, err := loadPluginConfig()
	if err != nil {
		return err
	}
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}

	initializer := session.NewInitializer(cfg, dir,
		session.WithRepository(newRepository(cfg, dir)),
		session.WithLogger(logger),
	)
	resp, err := initializer.Run(cmd.Context())
	if err != nil {
		return err
	}
	return writeHookJSON(cmd.OutOrStdout(), resp)
}

func runHookPromptSubmit(cmd *cobra.Command, args []string) error {
	var in promptSubmitInput
	if err := readHookInput(cmd.InOrStdin(), &in); err != nil {
		return err
	}

	cfg, err := loadPluginConfig()
	if err != nil {
		return err
	}
	dir, err := resolveProjectDir()
	if err != nil {
		return err
	}
	logger.Debug("prompt submitted",
		zap.String("session_id", in.SessionID),
		zap.String("project_dir", dir),
	)

	g := gate.New(newRepository(cfg, dir), cfg, gate.WithLogger(logger))
	dec, err := g.Handle(cmd.Context(), in.UserPrompt)
	if err != nil {
		return err
	}
	return writeHookJSON(cmd.OutOrStdout(), dec.Response)
}
