package visualization

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/topomap/pkg/force"
	"github.com/dd0wney/topomap/pkg/interaction"
	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/render"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/viewport"
)

// FrameStats summarizes one Frame.
type FrameStats struct {
	render.Stats
	Loaded int
	Events int
	Ticked bool
	// Dirty is false when nothing changed since the previous frame, so a
	// host may keep presenting the previous picture.
	Dirty bool
	Alpha float64
	State force.State
}

// View owns one model with its simulation, controller and renderer, and runs
// them in a fixed per-frame order. Submit and Dispatch may be called from any
// goroutine; their work is applied at the start of the next Frame.
type View struct {
	frameMu sync.Mutex

	queueMu sync.Mutex
	pending *topology.Snapshot
	events  []interaction.Event

	unmounted atomic.Bool

	model      *topology.Model
	sim        *force.Simulation
	controller *interaction.Controller
	renderer   *render.Renderer

	started       bool
	width, height float64
	sized         bool
	drawnOnce     bool

	onLoad  func(topology.LoadReport)
	logger  logging.Logger
	metrics *metrics.Registry
}

type viewOptions struct {
	forceCfg       force.Config
	interactionCfg interaction.Config
	renderCfg      render.Config
	placer         topology.Placer
	seed           int64
	transform      *viewport.Transform
	controllerOpts []interaction.Option
	onLoad         func(topology.LoadReport)
	logger         logging.Logger
	metrics        *metrics.Registry
}

// Option configures a View.
type Option func(*viewOptions)

// WithForceConfig sets the simulation tuning.
func WithForceConfig(cfg force.Config) Option {
	return func(o *viewOptions) { o.forceCfg = cfg }
}

// WithInteractionConfig sets the pointer handling tuning.
func WithInteractionConfig(cfg interaction.Config) Option {
	return func(o *viewOptions) { o.interactionCfg = cfg }
}

// WithRenderConfig sets the drawing constants.
func WithRenderConfig(cfg render.Config) Option {
	return func(o *viewOptions) { o.renderCfg = cfg }
}

// WithPlacer replaces the default spiral seed placer.
func WithPlacer(p topology.Placer) Option {
	return func(o *viewOptions) { o.placer = p }
}

// WithSeed fixes the random seeds of the placer and the simulation.
func WithSeed(seed int64) Option {
	return func(o *viewOptions) { o.seed = seed }
}

// WithTransform sets the initial view transform instead of centering the
// origin on the first frame.
func WithTransform(t viewport.Transform) Option {
	return func(o *viewOptions) { o.transform = &t }
}

// WithControllerOptions passes callbacks and options to the controller.
func WithControllerOptions(opts ...interaction.Option) Option {
	return func(o *viewOptions) { o.controllerOpts = append(o.controllerOpts, opts...) }
}

// OnLoad registers a callback run inside Frame after each applied snapshot.
func OnLoad(fn func(topology.LoadReport)) Option {
	return func(o *viewOptions) { o.onLoad = fn }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l logging.Logger) Option {
	return func(o *viewOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the registry shared by every component.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *viewOptions) { o.metrics = r }
}

// NewView builds an empty view. The simulation starts with the first
// applied snapshot.
func NewView(opts ...Option) *View {
	o := viewOptions{
		forceCfg:       force.DefaultConfig(),
		interactionCfg: interaction.DefaultConfig(),
		renderCfg:      render.DefaultConfig(),
		seed:           1,
		logger:         logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	modelOpts := []topology.Option{
		topology.WithLogger(o.logger),
		topology.WithMetrics(o.metrics),
		topology.WithSeed(o.seed),
	}
	if o.placer != nil {
		modelOpts = append(modelOpts, topology.WithPlacer(o.placer))
	}
	model := topology.NewModel(modelOpts...)

	sim := force.New(model, o.forceCfg,
		force.WithLogger(o.logger),
		force.WithMetrics(o.metrics),
		force.WithSeed(o.seed),
	)

	ctrlOpts := []interaction.Option{
		interaction.WithLogger(o.logger),
		interaction.WithMetrics(o.metrics),
	}
	if o.transform != nil {
		ctrlOpts = append(ctrlOpts, interaction.WithTransform(*o.transform))
	}
	ctrlOpts = append(ctrlOpts, o.controllerOpts...)
	controller := interaction.New(model, sim, o.interactionCfg, ctrlOpts...)

	return &View{
		model:      model,
		sim:        sim,
		controller: controller,
		renderer:   render.New(o.renderCfg, render.WithLogger(o.logger)),
		sized:      o.transform != nil,
		onLoad:     o.onLoad,
		logger:     o.logger.With(logging.Component("view")),
		metrics:    o.metrics,
	}
}

// Submit queues a snapshot for the next frame. Only the latest queued
// snapshot is applied; loads are full replacements, so intermediate ones
// carry no information the latest lacks.
func (v *View) Submit(s topology.Snapshot) {
	if v.unmounted.Load() {
		return
	}
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	if v.pending != nil {
		v.logger.Debug("queued snapshot replaced", logging.Revision(v.pending.Revision))
	}
	v.pending = &s
}

// Dispatch queues an input event for the next frame.
func (v *View) Dispatch(e interaction.Event) {
	if v.unmounted.Load() {
		return
	}
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	v.events = append(v.events, e)
}

// Pending reports whether queued work is waiting for a frame.
func (v *View) Pending() bool {
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	return v.pending != nil || len(v.events) > 0
}

func (v *View) drain() (*topology.Snapshot, []interaction.Event) {
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	s, events := v.pending, v.events
	v.pending, v.events = nil, nil
	return s, events
}

// Frame applies queued loads, then queued input, then one simulation tick
// while the engine is hot, then draws onto c. After Unmount it does nothing.
func (v *View) Frame(c render.Canvas) FrameStats {
	v.frameMu.Lock()
	defer v.frameMu.Unlock()

	if v.unmounted.Load() {
		return FrameStats{Stats: render.Stats{Skipped: true}, State: force.Stopped}
	}
	start := time.Now()
	var fs FrameStats

	snap, events := v.drain()
	if snap != nil {
		v.apply(*snap)
		fs.Loaded = 1
	}

	w, h := c.Size()
	resized := v.resize(w, h)

	for _, e := range events {
		v.controller.Handle(e)
	}
	fs.Events = len(events)

	if v.sim.Hot() {
		v.sim.Tick(1)
		fs.Ticked = true
	}

	current := v.model.Get()
	fs.Stats = v.renderer.Draw(c, &current, v.controller.Transform(), v.renderState())
	fs.Dirty = !v.drawnOnce || resized || fs.Loaded > 0 || fs.Events > 0 || fs.Ticked
	if !fs.Skipped {
		v.drawnOnce = true
	}
	fs.Alpha = v.sim.Alpha()
	fs.State = v.sim.State()

	if v.metrics != nil {
		outcome := "drawn"
		switch {
		case fs.Skipped:
			outcome = "skipped"
		case !fs.Dirty:
			outcome = "idle"
		}
		v.metrics.RecordFrame(outcome, time.Since(start), fs.LabelsSuppressed)
	}
	return fs
}

// apply must be called with frameMu held.
func (v *View) apply(s topology.Snapshot) {
	report := v.model.LoadSnapshot(s)
	if !v.started {
		v.sim.Start()
		v.started = true
	} else {
		v.sim.Restart()
	}
	if v.onLoad != nil {
		v.onLoad(report)
	}
}

// resize keeps the controller in step with the surface and centers the origin
// on the first usable size. It must be called with frameMu held.
func (v *View) resize(w, h float64) bool {
	if !(w > 0) || !(h > 0) || (w == v.width && h == v.height) {
		return false
	}
	v.width, v.height = w, h
	v.controller.Resize(w, h)
	if !v.sized {
		v.sized = true
		v.controller.SetTransform(viewport.Transform{X: w / 2, Y: h / 2, K: 1})
	}
	return true
}

func (v *View) renderState() render.State {
	st := render.State{
		Hovered:  v.controller.Hovered(),
		Selected: v.controller.Selected(),
	}
	if tip, ok := v.controller.Tooltip(); ok {
		st.Tooltip = tip.Text()
		st.TooltipX, st.TooltipY = tip.X, tip.Y
	}
	return st
}

// Unmount stops the simulation and drops queued work. Later frames, loads
// and events are no-ops.
func (v *View) Unmount() {
	if v.unmounted.Swap(true) {
		return
	}
	v.sim.Stop()
	v.queueMu.Lock()
	dropped := len(v.events)
	if v.pending != nil {
		dropped++
	}
	v.pending, v.events = nil, nil
	v.queueMu.Unlock()
	v.logger.Info("view unmounted", logging.Count(dropped))
}

// Unmounted reports whether Unmount has been called.
func (v *View) Unmounted() bool {
	return v.unmounted.Load()
}

// RunLoop calls Frame every interval while the engine is hot or work is
// queued, until ctx is done or the view is unmounted. canvas is asked for the
// surface before every frame; present, when non-nil, receives each frame's
// stats.
func (v *View) RunLoop(ctx context.Context, interval time.Duration, canvas func() render.Canvas, present func(FrameStats)) error {
	if interval <= 0 {
		interval = time.Second / 60
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if v.unmounted.Load() {
			return nil
		}
		if !first && !v.sim.Hot() && !v.Pending() {
			continue
		}
		first = false
		fs := v.Frame(canvas())
		if present != nil {
			present(fs)
		}
	}
}

// Settle runs the simulation headlessly until it cools or maxTicks is
// reached, applying any queued snapshot first.
func (v *View) Settle(ctx context.Context, maxTicks int) (int, error) {
	v.frameMu.Lock()
	defer v.frameMu.Unlock()
	if v.unmounted.Load() {
		return 0, nil
	}
	if snap, _ := v.drainLoads(); snap != nil {
		v.apply(*snap)
	}
	return v.sim.Run(ctx, maxTicks)
}

// drainLoads takes the queued snapshot and leaves input events queued.
func (v *View) drainLoads() (*topology.Snapshot, bool) {
	v.queueMu.Lock()
	defer v.queueMu.Unlock()
	s := v.pending
	v.pending = nil
	return s, s != nil
}

// Snapshot returns a copy of the current model contents.
func (v *View) Snapshot() topology.Snapshot {
	return v.model.Get()
}

// Model returns the underlying graph model.
func (v *View) Model() *topology.Model { return v.model }

// Simulation returns the force engine.
func (v *View) Simulation() *force.Simulation { return v.sim }

// Controller returns the interaction controller. Calling it directly
// bypasses the frame queue, so hosts should prefer Dispatch.
func (v *View) Controller() *interaction.Controller { return v.controller }

// Renderer returns the renderer.
func (v *View) Renderer() *render.Renderer { return v.renderer }
