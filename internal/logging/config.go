// internal/logging/config.go
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/crewtrace/internal/config"
)

// TraceLevel is a custom level below Debug for attribute-level detail.
const TraceLevel = zapcore.Level(-2)

// Config holds logging configuration.
type Config struct {
	Level  zapcore.Level
	Format string // "json" or "console"
	Output string // "stderr" or "stdout"
	Fields map[string]string
}

// NewDefaultConfig returns config with defaults suited to a library embedded
// in someone else's process: quiet, structured, on stderr.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.WarnLevel,
		Format: "json",
		Output: "stderr",
		Fields: map[string]string{
			"service": "crewtrace",
		},
	}
}

// ConfigFrom converts the loaded logging section.
func ConfigFrom(c config.LoggingConfig) (*Config, error) {
	level, err := LevelFromString(c.Level)
	if err != nil {
		return nil, err
	}
	cfg := NewDefaultConfig()
	cfg.Level = level
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.Output != "" {
		cfg.Output = c.Output
	}
	return cfg, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Output != "stderr" && c.Output != "stdout" {
		return fmt.Errorf("output must be 'stderr' or 'stdout', got %q", c.Output)
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}

// LevelFromString parses a level name, case-insensitively, supporting
// "trace". An empty string means info.
func LevelFromString(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
