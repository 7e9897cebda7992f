package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/crewtrace/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "https://telemetry.crewai.com:4319", cfg.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "crewAI-telemetry", cfg.ServiceName)
	assert.False(t, cfg.Insecure)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default", func(*Config) {}, ""},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.Endpoint = "" }, ""},
		{"grpc", func(c *Config) { c.Protocol = ProtocolGRPC }, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"relative endpoint", func(c *Config) { c.Endpoint = "telemetry.local" }, "absolute URL"},
		{"bad protocol", func(c *Config) { c.Protocol = "udp" }, "protocol must be"},
		{"missing service name", func(c *Config) { c.ServiceName = "" }, "service_name is required"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigFrom(t *testing.T) {
	t.Run("empty values keep defaults", func(t *testing.T) {
		cfg := ConfigFrom(config.TelemetryConfig{Enabled: true})

		assert.Equal(t, NewDefaultConfig(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg := ConfigFrom(config.TelemetryConfig{
			Enabled:         false,
			Endpoint:        "http://localhost:4317",
			Protocol:        ProtocolGRPC,
			Insecure:        true,
			Timeout:         config.Duration(5 * time.Second),
			ServiceName:     "crew-dev",
			ShutdownTimeout: config.Duration(time.Second),
		})

		assert.False(t, cfg.Enabled)
		assert.Equal(t, "http://localhost:4317", cfg.Endpoint)
		assert.Equal(t, ProtocolGRPC, cfg.Protocol)
		assert.True(t, cfg.Insecure)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, "crew-dev", cfg.ServiceName)
		assert.Equal(t, time.Second, cfg.ShutdownTimeout)
	})

	t.Run("loaded defaults round trip", func(t *testing.T) {
		cfg := ConfigFrom(config.Default().Telemetry)

		assert.Equal(t, NewDefaultConfig(), cfg)
	})
}
