package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/storage"
)

// LoadSettings reads the persisted settings at path and merges them over
// base. A missing file yields base. So does an unparsable one, with a warning:
// the next SaveSettings rewrites it.
func LoadSettings(path string, base Settings, logger *zap.Logger) (Settings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, found, err := storage.ReadFile(path)
	if err != nil {
		return base, err
	}
	if !found {
		return base, nil
	}

	var o settingsOverlay
	if err := json.Unmarshal(data, &o); err != nil {
		logger.Warn("ignoring unreadable settings file",
			zap.String("path", path),
			zap.Error(err),
		)
		return base, nil
	}
	return mergeSettings(base, &o), nil
}

// SaveSettings writes s to path.
func SaveSettings(path string, s Settings) error {
	if err := storage.WriteJSON(path, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault  Source = "default"
	SourceTemplate Source = "hooks.json"
	SourceProject  Source = "project settings"
	SourceEnv      Source = "environment"
)

type resolved struct {
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// ResolvedConfig shows effective values with their sources.
type ResolvedConfig struct {
	PluginRoot       string   `json:"plugin_root" yaml:"plugin_root"`
	SessionFile      string   `json:"session_file" yaml:"session_file"`
	SettingsFile     string   `json:"settings_file" yaml:"settings_file"`
	AutoOrchestrate  resolved `json:"auto_orchestrate" yaml:"auto_orchestrate"`
	QualityThreshold resolved `json:"quality_threshold" yaml:"quality_threshold"`
	StateDirectory   resolved `json:"state_directory" yaml:"state_directory"`
	BypassPrefix     resolved `json:"bypass_prefix" yaml:"bypass_prefix"`
	BypassCommands   resolved `json:"bypass_commands" yaml:"bypass_commands"`
}

// Resolve returns the effective configuration for projectDir with the layer
// each value came from. Precedence: env > project settings > hooks.json > defaults.
func Resolve(pluginRoot, projectDir string) (*ResolvedConfig, error) {
	data, err := os.ReadFile(HooksPath(pluginRoot))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHooksConfigUnreadable, err)
	}
	var tmpl pluginOverlay
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHooksConfigInvalid, err)
	}
	cfg := ApplyEnv(merge(Default(), &tmpl))
	def := Default()

	rc := &ResolvedConfig{
		PluginRoot:       pluginRoot,
		SessionFile:      cfg.SessionPath(projectDir),
		SettingsFile:     cfg.SettingsPath(projectDir),
		AutoOrchestrate:  resolved{Value: def.Settings.AutoOrchestrate, Source: SourceDefault},
		QualityThreshold: resolved{Value: def.Settings.QualityThreshold, Source: SourceDefault},
		StateDirectory:   resolved{Value: def.State.Directory, Source: SourceDefault},
		BypassPrefix:     resolved{Value: def.Bypass.Prefix, Source: SourceDefault},
		BypassCommands:   resolved{Value: def.Bypass.Commands, Source: SourceDefault},
	}

	// hooks.json overrides defaults
	if s := tmpl.Settings; s != nil {
		if s.AutoOrchestrate != nil {
			rc.AutoOrchestrate = resolved{Value: *s.AutoOrchestrate, Source: SourceTemplate}
		}
		if s.QualityThreshold != nil {
			rc.QualityThreshold = resolved{Value: *s.QualityThreshold, Source: SourceTemplate}
		}
	}
	if s := tmpl.State; s != nil && s.Directory != nil && *s.Directory != "" {
		rc.StateDirectory = resolved{Value: *s.Directory, Source: SourceTemplate}
	}
	if b := tmpl.Bypass; b != nil {
		if b.Prefix != nil {
			rc.BypassPrefix = resolved{Value: *b.Prefix, Source: SourceTemplate}
		}
		if b.Commands != nil {
			rc.BypassCommands = resolved{Value: *b.Commands, Source: SourceTemplate}
		}
	}

	// project settings override hooks.json
	if data, found, err := storage.ReadFile(rc.SettingsFile); err == nil && found {
		var o settingsOverlay
		if json.Unmarshal(data, &o) == nil {
			if o.AutoOrchestrate != nil {
				rc.AutoOrchestrate = resolved{Value: *o.AutoOrchestrate, Source: SourceProject}
			}
			if o.QualityThreshold != nil {
				rc.QualityThreshold = resolved{Value: *o.QualityThreshold, Source: SourceProject}
			}
		}
	}

	// environment overrides everything
	if v := os.Getenv(EnvAutoOrchestrate); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			rc.AutoOrchestrate = resolved{Value: b, Source: SourceEnv}
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvStateDir)); v != "" {
		rc.StateDirectory = resolved{Value: v, Source: SourceEnv}
	}

	return rc, nil
}

// IsHooksConfigError reports whether err came from loading hooks.json.
func IsHooksConfigError(err error) bool {
	return errors.Is(err, ErrHooksConfigUnreadable) || errors.Is(err, ErrHooksConfigInvalid)
}
