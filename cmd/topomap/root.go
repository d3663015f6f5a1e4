package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/topomap/pkg/config"
	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/visualization"
)

const version = "0.4.0"

// ownsTerminal marks commands that draw on the terminal, so logs must not
// go to stderr unless a log file is configured.
const ownsTerminal = "owns-terminal"

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger logging.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "topomap",
		Short: "Force-directed infrastructure topology maps",
		Long: brand.Sprint("topomap") + " lays out infrastructure graphs with a force simulation\n" +
			subtle.Sprint("Explore them in the terminal, or render them to SVG and JSON"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetVersionTemplate("topomap {{ .Version }}\n")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(
		newViewCmd(a),
		newRenderCmd(a),
		newLayoutCmd(a),
		newPublishCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	if cmd.Annotations[ownsTerminal] == "true" && cfg.Log.File == "" {
		a.logger = logging.NewNopLogger()
		return nil
	}
	logger, closer, err := cfg.Logger()
	if err != nil {
		return err
	}
	a.logger = logger.With(logging.Component("cli"), logging.Operation(cmd.Name()))
	a.closer = closer
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// loadSnapshot reads a snapshot document, or returns the demo topology when
// path is empty.
func (a *app) loadSnapshot(path string) (topology.Snapshot, error) {
	if path == "" {
		a.logger.Info("using built-in demo topology")
		return demoSnapshot(), nil
	}
	s, diags, err := topology.ReadSnapshotFile(path)
	if err != nil {
		return topology.Snapshot{}, err
	}
	for _, d := range diags {
		a.logger.Warn("snapshot diagnostic", logging.Path(path), logging.Error(d))
	}
	return s, nil
}

// settle lays a snapshot out headlessly. maxTicks of zero runs until the
// simulation cools.
func (a *app) settle(ctx context.Context, s topology.Snapshot, maxTicks int) (*visualization.View, int, error) {
	v := visualization.NewView(append(a.cfg.ViewOptions(), visualization.WithLogger(a.logger))...)
	v.Submit(s)
	timer := logging.StartTimer(a.logger, "layout settled", logging.Count(len(s.Nodes)))
	ticks, err := v.Settle(ctx, maxTicks)
	if err != nil {
		timer.EndError(err)
		return nil, ticks, fmt.Errorf("settle layout: %w", err)
	}
	timer.EndInfo(logging.Int("ticks", ticks))
	return v, ticks, nil
}
