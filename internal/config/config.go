// Package config provides configuration loading for crewtrace.
//
// Every field has a hardcoded default; a YAML file and CREWTRACE_* environment
// variables may override them. Nothing here is required for telemetry to run.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete crewtrace configuration.
type Config struct {
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TelemetryConfig overrides the telemetry defaults.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"` // "http/protobuf" or "grpc"
	Insecure        bool     `koanf:"insecure"`
	Timeout         Duration `koanf:"timeout"`
	ServiceName     string   `koanf:"service_name"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig controls the diagnostic logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
	Output string `koanf:"output"` // "stderr" or "stdout"
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Telemetry: TelemetryConfig{
			Enabled:         true,
			Endpoint:        "https://telemetry.crewai.com:4319",
			Protocol:        "http/protobuf",
			Timeout:         Duration(30 * time.Second),
			ServiceName:     "crewAI-telemetry",
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "json",
			Output: "stderr",
		},
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	t := c.Telemetry
	if t.Enabled {
		if t.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
		}
		if t.ServiceName == "" {
			return fmt.Errorf("telemetry.service_name is required when telemetry is enabled")
		}
		if t.Protocol != "http/protobuf" && t.Protocol != "grpc" {
			return fmt.Errorf("telemetry.protocol must be 'http/protobuf' or 'grpc', got %q", t.Protocol)
		}
		if t.Timeout.Duration() <= 0 {
			return fmt.Errorf("telemetry.timeout must be positive")
		}
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Logging.Output != "stderr" && c.Logging.Output != "stdout" {
		return fmt.Errorf("logging.output must be 'stderr' or 'stdout', got %q", c.Logging.Output)
	}

	return nil
}
