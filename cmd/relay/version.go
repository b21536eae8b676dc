package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "relay %s (commit: %s)\n", version, commit)
		},
	}
}
