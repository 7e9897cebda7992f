package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show resolved telemetry configuration and gate state",
		Long: `Resolve the telemetry configuration, initialize the export pipeline and
report whether spans would be sent. Nothing is emitted.

Examples:
  crewtrace status
  CREWTRACE_TELEMETRY_ENABLED=false crewtrace status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()

			cfg := env.telemetryConfig()
			opts := append([]telemetry.GateOption{telemetry.WithGateLogger(env.logger.Underlying())}, gateOptions...)
			gate := telemetry.NewGate(cfg, opts...)
			if err := gate.Initialize(cmd.Context()); err != nil {
				return err
			}
			defer shutdown(gate.Shutdown, cfg.ShutdownTimeout)

			return writeStatus(cmd.OutOrStdout(), cfg, gate.State())
		},
	}
}

func writeStatus(out io.Writer, cfg *telemetry.Config, state telemetry.State) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "enabled:\t%t\n", cfg.Enabled)
	fmt.Fprintf(w, "endpoint:\t%s\n", cfg.Endpoint)
	fmt.Fprintf(w, "protocol:\t%s\n", cfg.Protocol)
	fmt.Fprintf(w, "timeout:\t%s\n", cfg.Timeout)
	fmt.Fprintf(w, "service:\t%s\n", cfg.ServiceName)
	fmt.Fprintf(w, "version:\t%s\n", cfg.ServiceVersion)
	fmt.Fprintf(w, "ready:\t%t\n", state.Ready)
	return w.Flush()
}

// shutdown runs fn with a bounded context, ignoring the error.
func shutdown(fn func(context.Context) error, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = fn(ctx)
}
