package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvVerbose, "")
	t.Setenv(EnvFormat, "")

	cfg := FromEnv(false, nil)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.NotNil(t, cfg.Output)
}

func TestFromEnv_Verbose(t *testing.T) {
	t.Setenv(EnvFormat, "")

	t.Setenv(EnvVerbose, "")
	assert.Equal(t, zapcore.DebugLevel, FromEnv(true, nil).Level)

	t.Setenv(EnvVerbose, "TRUE")
	assert.Equal(t, zapcore.DebugLevel, FromEnv(false, nil).Level)
}

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: zapcore.DebugLevel, Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("classified prompt", zap.String("disposition", "trigger"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "classified prompt", entry["msg"])
	assert.Equal(t, "trigger", entry["disposition"])
	assert.Contains(t, entry, "ts")
	assert.Contains(t, entry, "pid")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: zapcore.WarnLevel, Format: "console", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(&Config{Level: zapcore.InfoLevel, Format: "xml", Output: &bytes.Buffer{}})
	assert.Error(t, err)
}
