package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "toml":
				return a.cfg.WriteTOML(cmd.OutOrStdout())
			case "yaml", "yml":
				return a.cfg.WriteYAML(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format %q, want toml or yaml", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml or toml)")
	return cmd
}
