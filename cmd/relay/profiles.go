package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spetersoncode/relay/compat"
	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in endpoint profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPROTOCOL\tKEY VARIABLE\tDEFAULT MODEL\tDEFAULT BASE URL")
			for _, p := range compat.Profiles() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Protocol, p.APIKeyEnv(), p.DefaultModel, p.DefaultBaseURL)
			}
			return w.Flush()
		},
	}
}
