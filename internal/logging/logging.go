// Package logging builds the zap logger used by hook commands.
//
// Hooks speak JSON on stdout, so diagnostics always go to stderr. The default
// level is warn so a normal invocation prints nothing but its response.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// EnvVerbose enables debug logging (true/1).
	EnvVerbose = "PO_VERBOSE"

	// EnvFormat selects the encoder: json (default) or console.
	EnvFormat = "PO_LOG_FORMAT"
)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string
	Output io.Writer
}

// NewDefaultConfig returns warn-level JSON logging to stderr.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.WarnLevel,
		Format: "json",
		Output: os.Stderr,
	}
}

// FromEnv returns a config with PO_VERBOSE and PO_LOG_FORMAT applied. The
// verbose argument is OR'ed with the environment.
func FromEnv(verbose bool, w io.Writer) *Config {
	cfg := NewDefaultConfig()
	if w != nil {
		cfg.Output = w
	}
	if v := os.Getenv(EnvVerbose); v == "1" || strings.EqualFold(v, "true") {
		verbose = true
	}
	if verbose {
		cfg.Level = zapcore.DebugLevel
	}
	if f := strings.TrimSpace(os.Getenv(EnvFormat)); f != "" {
		cfg.Format = strings.ToLower(f)
	}
	return cfg
}

// Validate checks the config.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", c.Format)
	}
	if c.Output == nil {
		return fmt.Errorf("log output is required")
	}
	return nil
}

// New creates a logger from cfg.
func New(cfg *Config) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	core := zapcore.NewCore(
		newEncoder(cfg.Format),
		zapcore.Lock(zapcore.AddSync(cfg.Output)),
		zap.NewAtomicLevelAt(cfg.Level),
	)
	return zap.New(core).With(zap.Int("pid", os.Getpid())), nil
}

// newEncoder creates JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
