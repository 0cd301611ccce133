package config

import "errors"

// Sentinel errors for configuration loading. Using sentinels allows callers
// to match with errors.Is for reliable error handling.
var (
	// ErrPluginRootNotSet is returned when neither --plugin-root nor CLAUDE_PLUGIN_ROOT is set.
	ErrPluginRootNotSet = errors.New(EnvPluginRoot + " not set")

	// ErrHooksConfigUnreadable is returned when hooks.json cannot be read.
	ErrHooksConfigUnreadable = errors.New("read hooks config")

	// ErrHooksConfigInvalid is returned when hooks.json is not valid JSON.
	ErrHooksConfigInvalid = errors.New("parse hooks config")
)
