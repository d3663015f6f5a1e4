// Package force is the force-directed layout engine: Barnes-Hut repulsion,
// link springs, centering and collision over a topology.Model, driven by an
// alpha cooling schedule and an external scheduler.
package force

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/topology"
)

// Simulation advances a model's layout one tick at a time. It owns no timer;
// the host decides when to call Tick, usually while Hot reports true.
type Simulation struct {
	mu sync.Mutex

	model  *topology.Model
	cfg    Config
	forces []Force
	rng    *lcg

	alpha       float64
	alphaTarget float64
	state       State
	ticks       uint64

	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records ticks into the given registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Simulation) {
		s.metrics = r
	}
}

// WithSeed seeds the jiggle generator.
func WithSeed(seed int64) Option {
	return func(s *Simulation) {
		s.rng = newLCG(seed)
	}
}

// WithForces appends extra forces after the built-in ones.
func WithForces(forces ...Force) Option {
	return func(s *Simulation) {
		s.forces = append(s.forces, forces...)
	}
}

// New creates an idle simulation over model. An invalid cfg is replaced by
// DefaultConfig and the problem is logged.
func New(model *topology.Model, cfg Config, opts ...Option) *Simulation {
	s := &Simulation{
		model:  model,
		rng:    newLCG(1),
		alpha:  1,
		state:  Idle,
		logger: logging.NewNopLogger(),
	}
	cfgErr := cfg.Validate()
	if cfgErr != nil {
		cfg = DefaultConfig()
	}
	s.cfg = cfg
	s.forces = []Force{
		&ManyBody{Strength: cfg.ChargeStrength, Theta: cfg.Theta, DistanceMin: cfg.DistanceMin, DistanceMax: cfg.DistanceMax},
		&Link{ContainsDistance: cfg.ContainsDistance, ConnectsDistance: cfg.ConnectsDistance, Iterations: cfg.LinkIterations},
		&Center{Strength: cfg.CenterStrength},
		&Collide{Padding: cfg.CollidePadding, Strength: cfg.CollideStrength, Iterations: cfg.CollideIterations},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("force"))
	if cfgErr != nil {
		s.logger.Warn("invalid force config, using defaults", logging.Error(cfgErr))
	}
	if s.metrics != nil {
		s.metrics.SetEngineState(s.state.String())
	}
	return s
}

// Config returns the active configuration.
func (s *Simulation) Config() Config {
	return s.cfg
}

// setState must be called with mu held.
func (s *Simulation) setState(next State) {
	if s.state == next {
		return
	}
	s.logger.Debug("engine state change",
		logging.String("from", s.state.String()),
		logging.State(next.String()),
		logging.Alpha(s.alpha),
	)
	s.state = next
	if s.metrics != nil {
		s.metrics.SetEngineState(next.String())
	}
}

// Start moves an idle engine to Running.
func (s *Simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		s.setState(Running)
	}
}

// Stop makes the engine terminal. Later calls to Tick, Reheat and Restart
// do nothing.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setState(Stopped)
}

// Reheat raises alphaTarget and resumes ticking. Used when a drag starts.
func (s *Simulation) Reheat(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped || math.IsNaN(target) {
		return
	}
	s.alphaTarget = clamp01(target)
	s.setState(Running)
}

// Restart resets alpha to 1 and resumes ticking. Done after every load.
func (s *Simulation) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}
	s.alpha = 1
	s.setState(Running)
}

// SetAlphaTarget changes the value alpha decays toward without changing
// state. Pointer-up sets it back to zero.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped || math.IsNaN(target) {
		return
	}
	s.alphaTarget = clamp01(target)
}

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// AlphaTarget returns the value alpha decays toward.
func (s *Simulation) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

// State returns the lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stopped reports whether Stop has been called.
func (s *Simulation) Stopped() bool {
	return s.State() == Stopped
}

// Hot reports whether the host should keep scheduling ticks.
func (s *Simulation) Hot() bool {
	return s.State() == Running
}

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Tick advances the layout by one step of length dt; dt <= 0 counts as 1.
// Ticking works in any state except Stopped, so a resting engine can still
// be stepped explicitly.
func (s *Simulation) Tick(dt float64) {
	start := time.Now()
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped {
		return
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.cfg.AlphaDecay
	alpha := s.alpha
	cx, cy := s.model.Center()
	decay := 1 - s.cfg.VelocityDecay

	var resets []string
	s.model.Update(func(nodes []topology.Node, links []topology.Link) {
		f := &Frame{
			Nodes:   nodes,
			Links:   links,
			Alpha:   alpha,
			CenterX: cx,
			CenterY: cy,
			rng:     s.rng,
		}
		for _, force := range s.forces {
			force.Apply(f)
		}

		for i := range nodes {
			n := &nodes[i]
			if n.Fixed&topology.AxisX != 0 {
				n.X, n.VX = n.FX, 0
			} else {
				n.VX *= decay
				n.X += n.VX * dt
			}
			if n.Fixed&topology.AxisY != 0 {
				n.Y, n.VY = n.FY, 0
			} else {
				n.VY *= decay
				n.Y += n.VY * dt
			}

			if !n.Finite() {
				resets = append(resets, n.ID)
				n.X, n.Y, n.VX, n.VY = cx, cy, 0, 0
				if n.Fixed&topology.AxisX != 0 {
					n.X = n.FX
				}
				if n.Fixed&topology.AxisY != 0 {
					n.Y = n.FY
				}
			}
		}
	})
	s.ticks++

	for _, id := range resets {
		s.logger.Warn("non-finite coordinates reset to center", logging.NodeID(id), logging.Int64("tick", int64(s.ticks)))
	}
	if s.state == Running && s.alpha < s.cfg.AlphaMin {
		s.setState(Cooling)
	}
	if s.metrics != nil {
		s.metrics.RecordTick(time.Since(start), s.alpha, s.alphaTarget, len(resets))
	}
}

// Run ticks headlessly until the engine cools, maxTicks is reached
// (maxTicks <= 0 means no limit), or ctx is done. An idle engine is started
// first. It returns the number of ticks run.
func (s *Simulation) Run(ctx context.Context, maxTicks int) (int, error) {
	s.Start()
	timer := logging.StartTimer(s.logger, "headless settle")

	n := 0
	for s.Hot() && (maxTicks <= 0 || n < maxTicks) {
		if err := ctx.Err(); err != nil {
			timer.End(logging.Count(n))
			return n, err
		}
		s.Tick(1)
		n++
	}
	timer.End(logging.Count(n), logging.Alpha(s.Alpha()))
	return n, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
