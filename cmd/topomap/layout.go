package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/topomap/pkg/visualization"
)

type layoutOptions struct {
	snapshot string
	out      string
	ticks    int
}

func newLayoutCmd(a *app) *cobra.Command {
	o := &layoutOptions{}
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Settle a layout and write node positions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.loadSnapshot(o.snapshot)
			if err != nil {
				return err
			}
			v, ticks, err := a.settle(cmd.Context(), s, o.ticks)
			if err != nil {
				return err
			}
			defer v.Unmount()

			settled := v.Snapshot()
			data, err := visualization.ExportJSON(&settled)
			if err != nil {
				return err
			}
			status, err := writeOutput(cmd, o.out, append(data, '\n'))
			if err != nil {
				return err
			}
			printOK(status, "laid out %d nodes in %d ticks", len(settled.Nodes), ticks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&o.snapshot, "snapshot", "s", "", "snapshot file (.json, .yaml); the demo topology when empty")
	cmd.Flags().StringVarP(&o.out, "out", "o", "-", `output file, "-" for stdout`)
	cmd.Flags().IntVar(&o.ticks, "ticks", 0, "maximum simulation ticks, 0 runs until the layout cools")
	return cmd
}
