// Package main implements the crewtrace CLI for inspecting and exercising
// crew telemetry.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crewtrace/internal/config"
	"github.com/fyrsmithlabs/crewtrace/internal/logging"
	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

// gateOptions are appended to every gate the CLI builds. Tests use it to
// replace the network exporter.
var gateOptions []telemetry.GateOption

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "crewtrace",
		Short: "Inspect and exercise crew telemetry",
		Long: `crewtrace inspects the resolved telemetry configuration and sends
telemetry spans by hand.

Configuration is read from ~/.config/crewtrace/config.yaml and CREWTRACE_*
environment variables, for example CREWTRACE_TELEMETRY_ENABLED=false.`,
		Version:      telemetry.LibraryVersion(),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/crewtrace/config.yaml)")

	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newEmitCmd(opts))
	cmd.AddCommand(newListenCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// environment is what every command needs: resolved config and a logger.
type environment struct {
	cfg    *config.Config
	logger *logging.Logger
}

func (o *rootOptions) load() (*environment, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg, err := logging.ConfigFrom(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &environment{cfg: cfg, logger: logger.Named("crewtrace")}, nil
}

func (e *environment) telemetryConfig() *telemetry.Config {
	return telemetry.ConfigFrom(e.cfg.Telemetry)
}

func (e *environment) telemetryOptions() []telemetry.Option {
	return []telemetry.Option{
		telemetry.WithLogger(e.logger.Underlying()),
		telemetry.WithGateOptions(gateOptions...),
	}
}
