package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dd0wney/topomap/pkg/feed"
	"github.com/dd0wney/topomap/pkg/health"
	"github.com/dd0wney/topomap/pkg/interaction"
	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/visualization"
)

type viewOptions struct {
	snapshot    string
	subscribe   string
	topic       string
	metricsAddr string
}

func newViewCmd(a *app) *cobra.Command {
	o := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore a topology interactively in the terminal",
		Long: "view runs the live layout in the terminal. Click selects, dragging a node\n" +
			"pins it, dragging empty space pans and the wheel zooms.",
		Example: `  topomap view
  topomap view --snapshot topology.yaml
  topomap view --subscribe tcp://127.0.0.1:40899 --metrics-addr :9464`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{ownsTerminal: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runView(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.snapshot, "snapshot", "s", "", "snapshot file to watch (.json, .yaml)")
	cmd.Flags().StringVar(&o.subscribe, "subscribe", "", "nng address publishing snapshots")
	cmd.Flags().StringVar(&o.topic, "topic", "", "topic prefix for --subscribe")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runView(cmd *cobra.Command, a *app, o *viewOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	reg := metrics.NewRegistry()
	sources, err := a.sources(o, reg)
	if err != nil {
		return err
	}

	sess := &session{}
	opts := append(a.cfg.ViewOptions(),
		visualization.WithLogger(a.logger),
		visualization.WithMetrics(reg),
		visualization.OnLoad(sess.loaded),
		visualization.WithControllerOptions(
			interaction.OnNodeSelected(sess.selected),
			interaction.OnSelectionCleared(sess.cleared),
		),
	)
	v := visualization.NewView(opts...)
	defer v.Unmount()

	if len(sources) == 0 {
		v.Submit(demoSnapshot())
	}

	feeds := &feedTracker{running: len(sources)}
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()
			err := src.Run(ctx, feeds.deliver(v))
			if err != nil && !errors.Is(err, context.Canceled) {
				feeds.stop()
				a.logger.Error("feed stopped", logging.Source(src.Name()), logging.Error(err))
				sess.note(fmt.Sprintf("feed %s stopped: %v", src.Name(), err))
			}
		}(src)
	}

	if stop := a.serveHTTP(o, reg, newChecker(v, feeds)); stop != nil {
		defer stop()
	}

	m := newTUIModel(v, sess, a.cfg.View.FrameInterval, a.cfg.Interaction)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx)).Run()
	cancel()
	v.Unmount()
	wg.Wait()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal view: %w", err)
	}
	return nil
}

// sources builds the feeds from flags, falling back to the configured ones.
func (a *app) sources(o *viewOptions, reg *metrics.Registry) ([]feed.Source, error) {
	fopts := []feed.Option{feed.WithLogger(a.logger), feed.WithMetrics(reg)}
	if o.snapshot == "" && o.subscribe == "" {
		return a.cfg.Feed.Sources(fopts...), nil
	}
	var out []feed.Source
	if o.snapshot != "" {
		if _, err := os.Stat(o.snapshot); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		out = append(out, feed.NewFileSource(o.snapshot, a.cfg.Feed.PollInterval, fopts...))
	}
	if o.subscribe != "" {
		topic := o.topic
		if topic == "" {
			topic = a.cfg.Feed.Topic
		}
		out = append(out, feed.NewNNGSource(o.subscribe, topic, a.cfg.Feed.RecvTimeout, fopts...))
	}
	return out, nil
}

// feedTracker counts running feeds and remembers the last delivery.
type feedTracker struct {
	mu      sync.Mutex
	running int
	stopped int
	last    time.Time
}

func (f *feedTracker) deliver(v *visualization.View) func(topology.Snapshot) {
	return func(s topology.Snapshot) {
		f.mu.Lock()
		f.last = time.Now()
		f.mu.Unlock()
		v.Submit(s)
	}
}

func (f *feedTracker) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running--
	f.stopped++
}

func (f *feedTracker) state() (int, int, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, f.stopped, f.last
}

func newChecker(v *visualization.View, feeds *feedTracker) *health.Checker {
	c := health.NewChecker()
	c.RegisterLiveness("engine", health.EngineCheck(func() (string, float64, bool) {
		sim := v.Simulation()
		return sim.State().String(), sim.Alpha(), sim.Stopped()
	}))
	c.RegisterReadiness("snapshot", health.SnapshotCheck(func() (string, int) {
		return v.Model().Revision(), v.Model().Len()
	}))
	c.RegisterReadiness("feeds", health.FeedCheck(feeds.state, 0))
	return c
}

// serveHTTP starts the metrics and health endpoints when an address is set
// and returns their shutdown function.
func (a *app) serveHTTP(o *viewOptions, reg *metrics.Registry, checker *health.Checker) func() {
	addr := o.metricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Address
	}
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(reg.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", logging.String("address", addr), logging.Error(err))
		}
	}()
	a.logger.Info("serving metrics and health", logging.String("address", addr), logging.Path(a.cfg.Metrics.Path))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
