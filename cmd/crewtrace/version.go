package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/crewtrace/pkg/telemetry"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version reported as crewai_version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			p := telemetry.CurrentPlatform()
			fmt.Fprintf(cmd.OutOrStdout(), "crewtrace %s (%s, %s)\n", telemetry.LibraryVersion(), runtime.Version(), p.Name)
		},
	}
}
