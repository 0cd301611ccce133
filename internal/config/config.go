// Package config provides configuration for the prompt orchestrator hooks.
//
// Configuration comes from (highest to lowest priority):
//  1. Environment variables (PO_*)
//  2. Persisted settings (<state.directory>/<state.config_file> in the project)
//  3. Plugin template (<CLAUDE_PLUGIN_ROOT>/hooks.json)
//  4. Defaults
//
// Every layer is merged field by field into typed structs. Keys that are not
// part of the schema are ignored rather than carried along.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// EnvPluginRoot names the variable the host sets to the plugin directory.
	EnvPluginRoot = "CLAUDE_PLUGIN_ROOT"

	// HooksFileName is the plugin template file under the plugin root.
	HooksFileName = "hooks.json"

	// EnvAutoOrchestrate overrides settings.auto_orchestrate (true/false/1/0).
	EnvAutoOrchestrate = "PO_AUTO_ORCHESTRATE"

	// EnvStateDir overrides state.directory.
	EnvStateDir = "PO_STATE_DIR"
)

// Default config values.
const (
	defaultStateDirectory   = ".orchestrator"
	defaultSessionFile      = "session.json"
	defaultConfigFile       = "config.json"
	defaultBypassPrefix     = "~"
	defaultQualityThreshold = 0.8
	defaultPromptTemplate   = "Review the user's prompt below. If it is ambiguous or missing key requirements, " +
		"ask focused clarifying questions; otherwise rewrite it as a precise, self-contained request.\n\nPrompt: {{prompt}}"
)

// PluginConfig is the plugin template loaded from hooks.json.
type PluginConfig struct {
	Settings Settings     `json:"settings" yaml:"settings"`
	Bypass   BypassConfig `json:"bypass" yaml:"bypass"`
	State    StateConfig  `json:"state" yaml:"state"`
	Hooks    HooksSection `json:"hooks" yaml:"hooks"`
}

// Settings is the part of the configuration persisted per project.
type Settings struct {
	// AutoOrchestrate activates orchestration at session start.
	AutoOrchestrate bool `json:"auto_orchestrate" yaml:"auto_orchestrate"`

	// QualityThreshold is read by the orchestration process, not by the gate.
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold"`
}

// BypassConfig lists prompts that skip orchestration.
type BypassConfig struct {
	// Prefix bypasses any raw prompt starting with it. Empty disables it.
	Prefix string `json:"prefix" yaml:"prefix"`

	// Commands bypass any trimmed prompt starting with one of them.
	Commands []string `json:"commands" yaml:"commands"`
}

// StateConfig locates the persisted records relative to the project directory.
type StateConfig struct {
	Directory   string `json:"directory" yaml:"directory"`
	SessionFile string `json:"session_file" yaml:"session_file"`
	ConfigFile  string `json:"config_file" yaml:"config_file"`
}

// HooksSection holds per-event hook settings.
type HooksSection struct {
	UserPromptSubmit PromptSubmitHook `json:"UserPromptSubmit" yaml:"UserPromptSubmit"`
}

// PromptSubmitHook configures the prompt gate.
type PromptSubmitHook struct {
	// PromptTemplate is handed to the orchestration process on trigger.
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template"`
}

// Default returns the built-in configuration.
func Default() *PluginConfig {
	return &PluginConfig{
		Settings: DefaultSettings(),
		Bypass: BypassConfig{
			Prefix: defaultBypassPrefix,
			Commands: []string{
				"/help", "/clear", "/compact", "/config", "/cost",
				"/init", "/memory", "/model", "/status", "/orchestrator",
			},
		},
		State: StateConfig{
			Directory:   defaultStateDirectory,
			SessionFile: defaultSessionFile,
			ConfigFile:  defaultConfigFile,
		},
		Hooks: HooksSection{
			UserPromptSubmit: PromptSubmitHook{PromptTemplate: defaultPromptTemplate},
		},
	}
}

// DefaultSettings returns the built-in settings block.
func DefaultSettings() Settings {
	return Settings{
		AutoOrchestrate:  false,
		QualityThreshold: defaultQualityThreshold,
	}
}

// PluginRoot resolves the plugin directory: flagValue when set, otherwise the
// CLAUDE_PLUGIN_ROOT environment variable.
func PluginRoot(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(EnvPluginRoot)); v != "" {
		return v, nil
	}
	return "", ErrPluginRootNotSet
}

// HooksPath returns the hooks.json path under pluginRoot.
func HooksPath(pluginRoot string) string {
	return filepath.Join(pluginRoot, HooksFileName)
}

// Load reads <pluginRoot>/hooks.json and merges it over Default. A missing or
// unparsable file is an error: the template is required.
func Load(pluginRoot string) (*PluginConfig, error) {
	path := HooksPath(pluginRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHooksConfigUnreadable, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ApplyEnv(cfg), nil
}

// Parse decodes a hooks.json document and merges it over Default.
func Parse(data []byte) (*PluginConfig, error) {
	var o pluginOverlay
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHooksConfigInvalid, err)
	}
	return merge(Default(), &o), nil
}

// ApplyEnv applies environment variable overrides to the plugin template.
func ApplyEnv(cfg *PluginConfig) *PluginConfig {
	if v := strings.TrimSpace(os.Getenv(EnvStateDir)); v != "" {
		cfg.State.Directory = v
	}
	return cfg
}

// ApplySettingsEnv applies environment variable overrides to effective
// settings. Invalid values are ignored.
func ApplySettingsEnv(s Settings) Settings {
	if v := os.Getenv(EnvAutoOrchestrate); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AutoOrchestrate = b
		}
	}
	return s
}

// StateDir returns the state directory for projectDir.
func (c *PluginConfig) StateDir(projectDir string) string {
	return filepath.Join(projectDir, c.State.Directory)
}

// SessionPath returns the session file path for projectDir.
func (c *PluginConfig) SessionPath(projectDir string) string {
	return filepath.Join(c.StateDir(projectDir), c.State.SessionFile)
}

// SettingsPath returns the persisted settings path for projectDir.
func (c *PluginConfig) SettingsPath(projectDir string) string {
	return filepath.Join(c.StateDir(projectDir), c.State.ConfigFile)
}

// PromptTemplate returns the template sent with orchestration triggers.
func (c *PluginConfig) PromptTemplate() string {
	return c.Hooks.UserPromptSubmit.PromptTemplate
}

// pluginOverlay mirrors PluginConfig with pointer fields so absent keys keep
// their defaults.
type pluginOverlay struct {
	Settings *settingsOverlay `json:"settings"`
	Bypass   *struct {
		Prefix   *string   `json:"prefix"`
		Commands *[]string `json:"commands"`
	} `json:"bypass"`
	State *struct {
		Directory   *string `json:"directory"`
		SessionFile *string `json:"session_file"`
		ConfigFile  *string `json:"config_file"`
	} `json:"state"`
	Hooks *struct {
		UserPromptSubmit *struct {
			PromptTemplate *string `json:"prompt_template"`
		} `json:"UserPromptSubmit"`
	} `json:"hooks"`
}

type settingsOverlay struct {
	AutoOrchestrate  *bool    `json:"auto_orchestrate"`
	QualityThreshold *float64 `json:"quality_threshold"`
}

// mergeStr overwrites dst with src when src is set and non-empty.
func mergeStr(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst *PluginConfig, src *pluginOverlay) *PluginConfig {
	if src.Settings != nil {
		dst.Settings = mergeSettings(dst.Settings, src.Settings)
	}
	if b := src.Bypass; b != nil {
		// An explicit empty prefix is honored: it disables prefix bypass.
		if b.Prefix != nil {
			dst.Bypass.Prefix = *b.Prefix
		}
		if b.Commands != nil {
			dst.Bypass.Commands = append([]string(nil), (*b.Commands)...)
		}
	}
	if s := src.State; s != nil {
		mergeStr(&dst.State.Directory, s.Directory)
		mergeStr(&dst.State.SessionFile, s.SessionFile)
		mergeStr(&dst.State.ConfigFile, s.ConfigFile)
	}
	if h := src.Hooks; h != nil && h.UserPromptSubmit != nil && h.UserPromptSubmit.PromptTemplate != nil {
		dst.Hooks.UserPromptSubmit.PromptTemplate = *h.UserPromptSubmit.PromptTemplate
	}
	return dst
}

// mergeSettings overlays the fields present in src onto dst.
func mergeSettings(dst Settings, src *settingsOverlay) Settings {
	if src.AutoOrchestrate != nil {
		dst.AutoOrchestrate = *src.AutoOrchestrate
	}
	if src.QualityThreshold != nil {
		dst.QualityThreshold = *src.QualityThreshold
	}
	return dst
}
