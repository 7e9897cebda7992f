package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "https://telemetry.crewai.com:4319", cfg.Telemetry.Endpoint)
	assert.Equal(t, "http/protobuf", cfg.Telemetry.Protocol)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.Timeout.Duration())
	assert.Equal(t, "crewAI-telemetry", cfg.Telemetry.ServiceName)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "disabled telemetry skips telemetry checks",
			mutate: func(c *Config) { c.Telemetry = TelemetryConfig{Enabled: false} },
		},
		{
			name:   "missing endpoint",
			mutate: func(c *Config) { c.Telemetry.Endpoint = "" },
			errMsg: "telemetry.endpoint is required",
		},
		{
			name:   "missing service name",
			mutate: func(c *Config) { c.Telemetry.ServiceName = "" },
			errMsg: "telemetry.service_name is required",
		},
		{
			name:   "unknown protocol",
			mutate: func(c *Config) { c.Telemetry.Protocol = "udp" },
			errMsg: "telemetry.protocol",
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.Telemetry.Timeout = 0 },
			errMsg: "telemetry.timeout must be positive",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			errMsg: "logging.format",
		},
		{
			name:   "bad log output",
			mutate: func(c *Config) { c.Logging.Output = "file" },
			errMsg: "logging.output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	assert.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	text, err := Duration(2 * time.Second).MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}
