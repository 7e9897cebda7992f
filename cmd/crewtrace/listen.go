package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/crewtrace/pkg/events"
	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

type listenOptions struct {
	natsURL string
	prefix  string
}

func newListenCmd(root *rootOptions) *cobra.Command {
	opts := &listenOptions{}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Trace crew-start and crew-end events arriving on NATS",
		Long: `Subscribe to crew-start and crew-end notifications published over NATS.
A Crew Execution span is opened for every crew that shares data and ended when
its crew-end arrives. Runs until interrupted; spans still open on exit are
ended before the final flush.

Examples:
  crewtrace listen
  crewtrace listen --nats nats://broker:4222 --subject-prefix prod.crewtrace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runListen(ctx, cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.natsURL, "nats", nats.DefaultURL, "NATS server URL")
	cmd.Flags().StringVar(&opts.prefix, "subject-prefix", events.DefaultSubjectPrefix, "NATS subject prefix")
	return cmd
}

func runListen(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts *listenOptions) error {
	env, err := root.load()
	if err != nil {
		return err
	}
	defer func() { _ = env.logger.Sync() }()

	nc, err := nats.Connect(opts.natsURL, nats.Name("crewtrace-listen"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	bus, err := events.NewNATSBus(nc,
		events.WithSubjectPrefix(opts.prefix),
		events.WithNATSLogger(env.logger.Underlying()),
	)
	if err != nil {
		return err
	}

	cfg := env.telemetryConfig()
	tel, err := telemetry.Start(ctx, cfg, append(env.telemetryOptions(), telemetry.WithBus(bus))...)
	if err != nil {
		return err
	}
	// Shutdown also ends every Crew Execution span whose crew-end never arrived.
	defer shutdown(tel.Shutdown, cfg.ShutdownTimeout)

	subject := bus.Subject(events.TopicCrewStart)
	if tel.Subscriber().Registered() == 0 {
		return fmt.Errorf("failed to subscribe to %s", subject)
	}

	env.logger.Info(ctx, "listening for crew events",
		zap.String("nats", opts.natsURL),
		zap.String("subject", subject),
		zap.Bool("telemetry_ready", tel.Ready()))
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s (telemetry ready: %t)\n", subject, tel.Ready())

	<-ctx.Done()
	env.logger.Info(ctx, "listen stopped", zap.Int("open_executions", tel.Executions()))
	return nil
}
