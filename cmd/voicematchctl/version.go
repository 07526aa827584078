package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/voicematch/internal/version"
)

func newVersionCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "voicematchctl %s\n", version.String())
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", runtime.Version())
			}
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include toolchain details")
	return cmd
}
