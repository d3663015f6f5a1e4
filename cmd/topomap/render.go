package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/topomap/pkg/render"
	"github.com/dd0wney/topomap/pkg/visualization"
)

type renderOptions struct {
	snapshot string
	out      string
	width    float64
	height   float64
	ticks    int
	selected string
}

func newRenderCmd(a *app) *cobra.Command {
	o := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Settle a layout and write it as SVG",
		Example: `  topomap render --snapshot topology.json --out map.svg
  topomap render --width 1920 --height 1080 --out - > demo.svg
  topomap render --select vm-web-01 --out web.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.snapshot, "snapshot", "s", "", "snapshot file (.json, .yaml); the demo topology when empty")
	cmd.Flags().StringVarP(&o.out, "out", "o", "topology.svg", `output file, "-" for stdout`)
	cmd.Flags().Float64Var(&o.width, "width", 1200, "surface width in pixels")
	cmd.Flags().Float64Var(&o.height, "height", 800, "surface height in pixels")
	cmd.Flags().IntVar(&o.ticks, "ticks", 0, "maximum simulation ticks, 0 runs until the layout cools")
	cmd.Flags().StringVar(&o.selected, "select", "", "node id to highlight")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, o *renderOptions) error {
	if !(o.width > 0) || !(o.height > 0) {
		return fmt.Errorf("surface must be positive, got %gx%g", o.width, o.height)
	}
	s, err := a.loadSnapshot(o.snapshot)
	if err != nil {
		return err
	}
	v, ticks, err := a.settle(cmd.Context(), s, o.ticks)
	if err != nil {
		return err
	}
	defer v.Unmount()

	var state render.State
	if o.selected != "" {
		n, err := v.Model().Lookup(o.selected)
		if err != nil {
			return fmt.Errorf("--select: %w", err)
		}
		state.Selected = n.ID
	}

	settled := v.Snapshot()
	fit := visualization.FitTransform(&settled, o.width, o.height, a.cfg.Interaction.FitPadding)
	canvas := render.NewSVGCanvas(o.width, o.height)
	stats := v.Renderer().Draw(canvas, &settled, fit, state)

	status, err := writeOutput(cmd, o.out, canvas.Bytes())
	if err != nil {
		return err
	}
	printOK(status, "rendered %d nodes and %d edges after %d ticks to %s", stats.Nodes, stats.Edges, ticks, outputName(o.out))
	if stats.LabelsSuppressed > 0 {
		printWarn(status, "%d labels hidden to avoid overlap", stats.LabelsSuppressed)
	}
	return nil
}

// writeOutput writes data to path, or to stdout for "-", and returns the
// writer status lines should go to.
func writeOutput(cmd *cobra.Command, path string, data []byte) (io.Writer, error) {
	if path == "-" || path == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		return cmd.ErrOrStderr(), nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return cmd.OutOrStdout(), nil
}

func outputName(path string) string {
	if path == "-" || path == "" {
		return "stdout"
	}
	return path
}
