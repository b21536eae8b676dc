package main

import (
	"github.com/spetersoncode/relay/compat"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// resolvedConfig is the printed form of a profile's configuration.
type resolvedConfig struct {
	Profile       string `yaml:"profile"`
	Protocol      string `yaml:"protocol"`
	compat.Config `yaml:",inline"`
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration with the credential redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile()
			if err != nil {
				return err
			}
			cfg, err := compat.ResolveConfig(p, a.options()...)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(resolvedConfig{Profile: p.Name, Protocol: p.Protocol.String(), Config: cfg}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
