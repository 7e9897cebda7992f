package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crewtrace/pkg/crew"
	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

func newEmitCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Send a telemetry span by hand",
	}
	cmd.AddCommand(newEmitFlowExecutionCmd(root))
	return cmd
}

type flowExecutionOptions struct {
	flow  string
	nodes []string
	share bool
}

func newEmitFlowExecutionCmd(root *rootOptions) *cobra.Command {
	opts := &flowExecutionOptions{}

	cmd := &cobra.Command{
		Use:   "flow-execution",
		Short: "Send a Flow Execution span and flush it",
		Long: `Send one Flow Execution span to the configured collector and wait for
it to be exported. Node names are only sent with --share.

Examples:
  crewtrace emit flow-execution --flow research --node fetch --node summarize
  crewtrace emit flow-execution --flow research --node fetch --share`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = env.logger.Sync() }()

			cfg := env.telemetryConfig()
			tel, err := telemetry.Start(cmd.Context(), cfg, env.telemetryOptions()...)
			if err != nil {
				return err
			}
			defer shutdown(tel.Shutdown, cfg.ShutdownTimeout)

			if !tel.Ready() {
				fmt.Fprintln(cmd.OutOrStdout(), "telemetry not ready; nothing sent")
				return nil
			}

			tel.FlowExecution(cmd.Context(), crew.Flow{
				Name:      opts.flow,
				NodeNames: opts.nodes,
				Share:     opts.share,
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			if err := tel.ForceFlush(ctx); err != nil {
				return fmt.Errorf("span not exported: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sent %q for flow %q\n", telemetry.SpanFlowExecution, opts.flow)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.flow, "flow", "", "flow name")
	cmd.Flags().StringArrayVar(&opts.nodes, "node", nil, "flow node name (repeatable)")
	cmd.Flags().BoolVar(&opts.share, "share", false, "include node names")
	_ = cmd.MarkFlagRequired("flow")
	return cmd
}
