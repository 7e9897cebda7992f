package telemetry

import (
	"fmt"
	"net/url"
	"time"

	"github.com/fyrsmithlabs/crewtrace/internal/config"
)

// Hardcoded collector defaults.
const (
	DefaultEndpoint    = "https://telemetry.crewai.com:4319"
	DefaultServiceName = "crewAI-telemetry"
	DefaultTimeout     = 30 * time.Second

	ProtocolHTTP = "http/protobuf"
	ProtocolGRPC = "grpc"

	tracesPath = "/v1/traces"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled         bool
	Endpoint        string // collector base URL; "/v1/traces" is appended for HTTP
	Protocol        string
	Insecure        bool // plaintext transport
	Timeout         time.Duration
	ServiceName     string
	ServiceVersion  string
	ShutdownTimeout time.Duration
}

// NewDefaultConfig returns the built-in collector settings. Telemetry is on
// by default; the share flag on each crew decides how much is sent.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Endpoint:        DefaultEndpoint,
		Protocol:        ProtocolHTTP,
		Timeout:         DefaultTimeout,
		ServiceName:     DefaultServiceName,
		ServiceVersion:  LibraryVersion(),
		ShutdownTimeout: 5 * time.Second,
	}
}

// ConfigFrom overlays a loaded configuration section onto the defaults.
// Empty values keep their default.
func ConfigFrom(c config.TelemetryConfig) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = c.Enabled
	cfg.Insecure = c.Insecure
	if c.Endpoint != "" {
		cfg.Endpoint = c.Endpoint
	}
	if c.Protocol != "" {
		cfg.Protocol = c.Protocol
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout.Duration()
	}
	if c.ServiceName != "" {
		cfg.ServiceName = c.ServiceName
	}
	if c.ShutdownTimeout > 0 {
		cfg.ShutdownTimeout = c.ShutdownTimeout.Duration()
	}
	return cfg
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute URL, got %q", c.Endpoint)
	}

	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return fmt.Errorf("protocol must be %q or %q, got %q", ProtocolHTTP, ProtocolGRPC, c.Protocol)
	}

	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}
