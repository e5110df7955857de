package cmd

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the --config file and
MULTISTREAM_* environment variables are applied, as YAML.

The output is a valid configuration file:
  dumpextract config > dumpextract.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}
