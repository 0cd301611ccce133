// Package session implements the session-start hook: it prepares the project
// state directory, self-heals the persisted settings and, in always-on mode,
// activates the orchestrator for the new session.
package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/state"
	"github.com/boshu2/promptorch/cli/internal/storage"
)

// MessageAlwaysOn is the notice returned when auto_orchestrate activates a session.
const MessageAlwaysOn = "🎯 Prompt orchestrator activated (always-on mode)"

// Response is the JSON object the session-start hook writes to stdout.
type Response struct {
	Continue bool    `json:"continue"`
	State    Summary `json:"state"`
	Message  string  `json:"message,omitempty"`
}

// Summary describes the effective activation state and file locations.
type Summary struct {
	OrchestratorActive bool    `json:"orchestrator_active"`
	AutoOrchestrate    bool    `json:"auto_orchestrate"`
	QualityThreshold   float64 `json:"quality_threshold"`
	SessionFile        string  `json:"session_file"`
	ConfigFile         string  `json:"config_file"`
	StateDir           string  `json:"state_dir"`
}

// Initializer runs the session-start sequence for one project directory.
type Initializer struct {
	cfg        *config.PluginConfig
	projectDir string
	repo       state.Repository
	logger     *zap.Logger
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithRepository replaces the session repository (defaults to a
// FileRepository at the configured session path).
func WithRepository(repo state.Repository) Option {
	return func(i *Initializer) {
		i.repo = repo
	}
}

// WithLogger sets the initializer logger.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Initializer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInitializer creates an initializer for projectDir.
func NewInitializer(cfg *config.PluginConfig, projectDir string, opts ...Option) *Initializer {
	i := &Initializer{
		cfg:        cfg,
		projectDir: projectDir,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.repo == nil {
		i.repo = state.NewFileRepository(cfg.SessionPath(projectDir), state.WithLogger(i.logger))
	}
	return i
}

// Run prepares the state directory, merges and rewrites the persisted
// settings, and activates the session when auto_orchestrate is on. The
// session file is written only when activation changes it.
func (i *Initializer) Run(ctx context.Context) (*Response, error) {
	stateDir := i.cfg.StateDir(i.projectDir)
	settingsPath := i.cfg.SettingsPath(i.projectDir)

	if err := storage.EnsureDir(stateDir); err != nil {
		return nil, fmt.Errorf("prepare state directory: %w", err)
	}

	var resp *Response
	err := state.WithLock(ctx, i.repo, func() error {
		st, err := i.repo.Load()
		if err != nil {
			return fmt.Errorf("load session state: %w", err)
		}

		settings, err := config.LoadSettings(settingsPath, i.cfg.Settings, i.logger)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		if err := config.SaveSettings(settingsPath, settings); err != nil {
			return err
		}
		effective := config.ApplySettingsEnv(settings)

		resp = &Response{
			Continue: true,
			State: Summary{
				OrchestratorActive: st.Active,
				AutoOrchestrate:    effective.AutoOrchestrate,
				QualityThreshold:   effective.QualityThreshold,
				SessionFile:        i.cfg.SessionPath(i.projectDir),
				ConfigFile:         settingsPath,
				StateDir:           stateDir,
			},
		}

		if effective.AutoOrchestrate && !st.Active {
			st.Active = true
			if err := i.repo.Save(st); err != nil {
				return fmt.Errorf("save session state: %w", err)
			}
			resp.Message = MessageAlwaysOn
			resp.State.OrchestratorActive = true
			i.logger.Debug("auto-activated orchestrator", zap.String("state_dir", stateDir))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
