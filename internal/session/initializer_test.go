package session

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/state"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAutoOrchestrate, "")
}

func TestRun_FreshProjectNoAutoOrchestrate(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	projectDir := t.TempDir()

	resp, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.Continue)
	assert.Empty(t, resp.Message)
	assert.False(t, resp.State.OrchestratorActive)
	assert.False(t, resp.State.AutoOrchestrate)
	assert.Equal(t, cfg.Settings.QualityThreshold, resp.State.QualityThreshold)
	assert.Equal(t, cfg.StateDir(projectDir), resp.State.StateDir)
	assert.Equal(t, cfg.SessionPath(projectDir), resp.State.SessionFile)
	assert.Equal(t, cfg.SettingsPath(projectDir), resp.State.ConfigFile)

	info, err := os.Stat(cfg.StateDir(projectDir))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(cfg.SettingsPath(projectDir))
	assert.NoError(t, err, "settings are always persisted")

	_, err = os.Stat(cfg.SessionPath(projectDir))
	assert.True(t, os.IsNotExist(err), "session file is only written on activation")
}

func TestRun_AutoOrchestrateActivates(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Settings.AutoOrchestrate = true
	projectDir := t.TempDir()

	resp, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, MessageAlwaysOn, resp.Message)
	assert.True(t, resp.State.OrchestratorActive)

	st, err := state.NewFileRepository(cfg.SessionPath(projectDir)).Load()
	require.NoError(t, err)
	assert.True(t, st.Active)

	// Already active: no second notice.
	resp, err = NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Message)
	assert.True(t, resp.State.OrchestratorActive)
}

func TestRun_PreservesExistingSessionFields(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	cfg.Settings.AutoOrchestrate = true
	projectDir := t.TempDir()

	repo := state.NewFileRepository(cfg.SessionPath(projectDir))
	require.NoError(t, repo.Save(state.SessionState{DiscoveryRound: 4, LastPrompt: "earlier", BypassActive: true}))

	_, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)

	st, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, state.SessionState{Active: true, DiscoveryRound: 4, LastPrompt: "earlier", BypassActive: true}, st)
}

func TestRun_PersistedSettingsWin(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	projectDir := t.TempDir()

	require.NoError(t, os.MkdirAll(cfg.StateDir(projectDir), 0o755))
	require.NoError(t, os.WriteFile(cfg.SettingsPath(projectDir), []byte(`{"auto_orchestrate": true}`), 0o600))

	resp, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.State.AutoOrchestrate)
	assert.True(t, resp.State.OrchestratorActive)

	data, err := os.ReadFile(cfg.SettingsPath(projectDir))
	require.NoError(t, err)
	var saved config.Settings
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, config.Settings{AutoOrchestrate: true, QualityThreshold: cfg.Settings.QualityThreshold}, saved,
		"missing default fields are written back")
}

func TestRun_EnvOverrideNotPersisted(t *testing.T) {
	cfg := config.Default()
	projectDir := t.TempDir()
	t.Setenv(config.EnvAutoOrchestrate, "true")

	resp, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.State.OrchestratorActive)

	saved, err := config.LoadSettings(cfg.SettingsPath(projectDir), config.Settings{}, nil)
	require.NoError(t, err)
	assert.False(t, saved.AutoOrchestrate)
}

func TestRun_Idempotent(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	projectDir := t.TempDir()
	repo := state.NewFileRepository(cfg.SessionPath(projectDir))
	require.NoError(t, repo.Save(state.SessionState{Active: true, DiscoveryRound: 2}))

	before, err := repo.Load()
	require.NoError(t, err)

	first, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)
	second, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)

	after, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, first, second)
}

func TestRun_ResponseJSON(t *testing.T) {
	clearEnv(t)
	cfg := config.Default()
	projectDir := t.TempDir()

	resp, err := NewInitializer(cfg, projectDir).Run(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, true, out["continue"])
	assert.NotContains(t, out, "message")
	summary, ok := out["state"].(map[string]any)
	require.True(t, ok)
	for _, k := range []string{"orchestrator_active", "auto_orchestrate", "quality_threshold", "session_file", "config_file", "state_dir"} {
		assert.Contains(t, summary, k)
	}
}
