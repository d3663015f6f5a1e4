package force

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/topology"
	dto "github.com/prometheus/client_model/go"
)

func newModel(t *testing.T, nodes []topology.Node, edges []topology.Edge) *topology.Model {
	t.Helper()
	m := topology.NewModel(topology.WithCenter(400, 300))
	report := m.Load(nodes, edges)
	if len(report.Diagnostics) != 0 {
		t.Fatalf("unexpected load diagnostics: %v", report.Diagnostics)
	}
	return m
}

func randomGraph(n int, seed int64) ([]topology.Node, []topology.Edge) {
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]topology.Node, n)
	for i := range nodes {
		nodes[i] = topology.Node{
			ID:     string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Kind:   topology.Kinds[rng.Intn(len(topology.Kinds))],
			Weight: float64(rng.Intn(10)),
			X:      rng.Float64()*800 + 1,
			Y:      rng.Float64()*600 + 1,
		}
	}
	var edges []topology.Edge
	for i := 1; i < n; i++ {
		kind := topology.EdgeConnects
		if rng.Intn(2) == 0 {
			kind = topology.EdgeContains
		}
		edges = append(edges, topology.Edge{SourceID: nodes[rng.Intn(i)].ID, TargetID: nodes[i].ID, Kind: kind})
	}
	return nodes, edges
}

func distance(t *testing.T, m *topology.Model, a, b string) float64 {
	t.Helper()
	na, ok := m.Node(a)
	if !ok {
		t.Fatalf("node %s missing", a)
	}
	nb, ok := m.Node(b)
	if !ok {
		t.Fatalf("node %s missing", b)
	}
	return math.Hypot(na.X-nb.X, na.Y-nb.Y)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if math.Abs(cfg.AlphaDecay-0.0228) > 0.0001 {
		t.Errorf("AlphaDecay = %v, want ~0.0228", cfg.AlphaDecay)
	}

	bad := cfg
	bad.Theta = -1
	bad.VelocityDecay = 2
	bad.DistanceMax = 0.5
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error")
	}

	// contains springs must stay shorter than connects springs
	inverted := cfg
	inverted.ContainsDistance = 200
	err := inverted.Validate()
	if err == nil || !strings.Contains(err.Error(), "contains_distance") {
		t.Errorf("expected inverted spring lengths to fail, got %v", err)
	}
}

func TestSimulation_InvalidConfigFallsBack(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.AlphaMin = -1

	sim := New(topology.NewModel(), cfg, WithLogger(logging.NewJSONLogger(&buf, logging.WarnLevel)))
	if sim.Config().AlphaMin != DefaultConfig().AlphaMin {
		t.Errorf("AlphaMin = %v, want default", sim.Config().AlphaMin)
	}
	if !strings.Contains(buf.String(), "invalid force config") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

func TestSimulation_StateMachine(t *testing.T) {
	m := newModel(t, []topology.Node{{ID: "a"}, {ID: "b"}}, nil)
	reg := metrics.NewRegistry()
	sim := New(m, DefaultConfig(), WithMetrics(reg))

	if sim.State() != Idle || sim.Hot() {
		t.Fatalf("new simulation state = %v, want idle", sim.State())
	}
	sim.Start()
	if sim.State() != Running || !sim.Hot() {
		t.Fatalf("after Start state = %v, want running", sim.State())
	}

	ticks := 0
	for sim.Hot() && ticks < 1000 {
		sim.Tick(1)
		ticks++
	}
	if sim.State() != Cooling {
		t.Fatalf("state = %v after %d ticks, want cooling", sim.State(), ticks)
	}
	if ticks < 280 || ticks > 320 {
		t.Errorf("cooled after %d ticks, want about 300", ticks)
	}
	if sim.Alpha() >= sim.Config().AlphaMin {
		t.Errorf("alpha = %v, want below AlphaMin", sim.Alpha())
	}

	// an explicit tick still works at rest
	before := sim.Ticks()
	sim.Tick(1)
	if sim.Ticks() != before+1 {
		t.Error("Tick did nothing while cooling")
	}

	sim.Reheat(sim.Config().DragAlphaTarget)
	if sim.State() != Running || sim.AlphaTarget() != 0.3 {
		t.Errorf("after Reheat state=%v target=%v", sim.State(), sim.AlphaTarget())
	}
	for range 50 {
		sim.Tick(1)
	}
	if sim.State() != Running {
		t.Errorf("reheated engine cooled while target is 0.3")
	}
	sim.SetAlphaTarget(0)
	if sim.AlphaTarget() != 0 || sim.State() != Running {
		t.Errorf("SetAlphaTarget changed state or failed: target=%v state=%v", sim.AlphaTarget(), sim.State())
	}

	sim.Restart()
	if sim.Alpha() != 1 {
		t.Errorf("Restart alpha = %v, want 1", sim.Alpha())
	}

	sim.Stop()
	if !sim.Stopped() || sim.Hot() {
		t.Fatalf("after Stop state = %v", sim.State())
	}
	before = sim.Ticks()
	sim.Tick(1)
	sim.Reheat(0.3)
	sim.Restart()
	sim.Start()
	if sim.Ticks() != before || sim.State() != Stopped {
		t.Error("Stopped engine reacted to Tick/Reheat/Restart/Start")
	}

	var metric dto.Metric
	if err := reg.EngineState.WithLabelValues("stopped").Write(&metric); err != nil {
		t.Fatal(err)
	}
	if metric.Gauge.GetValue() != 1 {
		t.Error("engine state gauge not updated to stopped")
	}
}

func TestSimulation_PinExclusivity(t *testing.T) {
	nodes, edges := randomGraph(20, 3)
	m := newModel(t, nodes, edges)
	sim := New(m, DefaultConfig())
	sim.Start()

	pinned := nodes[0].ID
	if !m.SetPin(pinned, 123.5, 456.25) {
		t.Fatal("SetPin failed")
	}

	for range 100 {
		sim.Tick(1)
		n, _ := m.Node(pinned)
		if n.X != 123.5 || n.Y != 456.25 || n.VX != 0 || n.VY != 0 {
			t.Fatalf("pinned node moved to (%v,%v) v=(%v,%v)", n.X, n.Y, n.VX, n.VY)
		}
	}
}

func TestSimulation_SingleAxisPin(t *testing.T) {
	m := newModel(t, []topology.Node{
		{ID: "a", X: 100, Y: 100},
		{ID: "b", X: 110, Y: 100},
	}, nil)
	m.Update(func(nodes []topology.Node, _ []topology.Link) {
		nodes[0].FX, nodes[0].Fixed = 100, topology.AxisX
	})
	sim := New(m, DefaultConfig())
	sim.Start()
	for range 20 {
		sim.Tick(1)
	}
	a, _ := m.Node("a")
	if a.X != 100 {
		t.Errorf("pinned X axis moved to %v", a.X)
	}
}

func TestSimulation_FreeNodeMovesAfterOneTick(t *testing.T) {
	m := newModel(t, []topology.Node{
		{ID: "a", X: 100, Y: 100},
		{ID: "b", X: 130, Y: 100},
	}, nil)
	sim := New(m, DefaultConfig())
	sim.Start()

	before, _ := m.Node("b")
	sim.Tick(1)
	after, _ := m.Node("b")
	if after.X == before.X && after.Y == before.Y {
		t.Error("unpinned node under repulsion did not move")
	}
	if after.X <= before.X {
		t.Errorf("b should be pushed away from a: x %v -> %v", before.X, after.X)
	}
}

func TestSimulation_PinnedObstacleRepels(t *testing.T) {
	m := newModel(t, []topology.Node{
		{ID: "anchor", X: 0, Y: 0, FX: 0.0001, FY: 0, Fixed: topology.AxisBoth},
		{ID: "free", X: 10, Y: 0},
	}, nil)
	cfg := DefaultConfig()
	cfg.CenterStrength = 0
	sim := New(m, cfg)
	sim.Start()
	for range 30 {
		sim.Tick(1)
	}
	if d := distance(t, m, "anchor", "free"); d < 32 {
		t.Errorf("free node still overlapping pinned node: d=%v", d)
	}
	anchor, _ := m.Node("anchor")
	if anchor.X != 0.0001 || anchor.Y != 0 {
		t.Errorf("anchor moved to (%v,%v)", anchor.X, anchor.Y)
	}
}

func TestSimulation_CollisionSeparatesOverlap(t *testing.T) {
	m := newModel(t, []topology.Node{
		{ID: "a", Kind: topology.KindSubscription, X: 100, Y: 100},
		{ID: "b", Kind: topology.KindSubscription, X: 101, Y: 100},
	}, nil)
	cfg := DefaultConfig()
	cfg.ChargeStrength = 0
	cfg.CenterStrength = 0
	sim := New(m, cfg)
	sim.Start()
	for range 30 {
		sim.Tick(1)
	}
	// two subscriptions: 35+4 each
	if d := distance(t, m, "a", "b"); d < 78*0.95 {
		t.Errorf("collision left overlap: d=%v, want >= ~78", d)
	}
}

func TestSimulation_HierarchyLayout(t *testing.T) {
	m := newModel(t,
		[]topology.Node{{ID: "sub"}, {ID: "rg", ParentGroup: "sub"}},
		[]topology.Edge{{SourceID: "sub", TargetID: "rg", Kind: topology.EdgeContains}},
	)
	cfg := DefaultConfig()
	sim := New(m, cfg)

	if _, err := sim.Run(context.Background(), 5000); err != nil {
		t.Fatal(err)
	}
	if sim.State() != Cooling {
		t.Fatalf("did not settle: state=%v", sim.State())
	}

	d := distance(t, m, "sub", "rg")
	target := cfg.ContainsDistance
	if d < target*0.75 || d > target*1.25 {
		t.Errorf("distance(sub, rg) = %.2f, want within 25%% of %v", d, target)
	}
}

func TestSimulation_ConnectsLongerThanContains(t *testing.T) {
	m := newModel(t,
		[]topology.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		[]topology.Edge{
			{SourceID: "a", TargetID: "b", Kind: topology.EdgeContains},
			{SourceID: "c", TargetID: "d", Kind: topology.EdgeConnects},
		},
	)
	sim := New(m, DefaultConfig())
	if _, err := sim.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if contains, connects := distance(t, m, "a", "b"), distance(t, m, "c", "d"); contains >= connects {
		t.Errorf("contains edge %.1f should rest shorter than connects edge %.1f", contains, connects)
	}
}

func TestSimulation_Convergence(t *testing.T) {
	nodes, edges := randomGraph(30, 42)
	m := newModel(t, nodes, edges)
	sim := New(m, DefaultConfig())

	if _, err := sim.Run(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if sim.Alpha() >= sim.Config().AlphaMin {
		t.Fatalf("alpha = %v, want below AlphaMin", sim.Alpha())
	}

	prev := m.Get()
	var moved float64
	for range 10 {
		sim.Tick(1)
		cur := m.Get()
		for i := range cur.Nodes {
			moved += math.Abs(cur.Nodes[i].X-prev.Nodes[i].X) + math.Abs(cur.Nodes[i].Y-prev.Nodes[i].Y)
		}
		prev = cur
	}
	// under a tenth of a pixel per node
	if eps := 0.1 * float64(len(nodes)); moved > eps {
		t.Errorf("sum of position deltas over 10 rested ticks = %v, want < %v", moved, eps)
	}
}

func TestSimulation_RunHonorsContextAndLimit(t *testing.T) {
	nodes, edges := randomGraph(10, 1)
	m := newModel(t, nodes, edges)

	sim := New(m, DefaultConfig())
	n, err := sim.Run(context.Background(), 25)
	if err != nil || n != 25 {
		t.Errorf("Run(25) = %d, %v", n, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err = sim.Run(ctx, 0)
	if err == nil || n != 0 {
		t.Errorf("Run(cancelled) = %d, %v; want 0, context error", n, err)
	}
}

func TestSimulation_NonPositiveDtCountsAsOne(t *testing.T) {
	load := func() *topology.Model {
		return newModel(t, []topology.Node{{ID: "a", X: 100, Y: 100}, {ID: "b", X: 120, Y: 100}}, nil)
	}
	m1, m2 := load(), load()
	s1, s2 := New(m1, DefaultConfig()), New(m2, DefaultConfig())
	s1.Tick(1)
	s2.Tick(-3)

	a1, _ := m1.Node("b")
	a2, _ := m2.Node("b")
	if a1.X != a2.X || a1.Y != a2.Y {
		t.Errorf("Tick(-3) = (%v,%v), Tick(1) = (%v,%v)", a2.X, a2.Y, a1.X, a1.Y)
	}
}

type nanForce struct{ id int }

func (f nanForce) Apply(fr *Frame) {
	fr.Nodes[f.id].VX = math.NaN()
	fr.Nodes[f.id].VY = math.Inf(1)
}

func TestSimulation_NonFiniteReset(t *testing.T) {
	var buf bytes.Buffer
	m := newModel(t, []topology.Node{{ID: "a", X: 10, Y: 10}, {ID: "b", X: 50, Y: 50}}, nil)
	reg := metrics.NewRegistry()
	sim := New(m, DefaultConfig(),
		WithForces(nanForce{id: 1}),
		WithLogger(logging.NewJSONLogger(&buf, logging.WarnLevel)),
		WithMetrics(reg),
	)
	sim.Tick(1)

	b, _ := m.Node("b")
	if !b.Finite() || b.X != 400 || b.Y != 300 || b.VX != 0 {
		t.Errorf("b = (%v,%v) v=(%v,%v), want reset to center", b.X, b.Y, b.VX, b.VY)
	}
	if !strings.Contains(buf.String(), `"node_id":"b"`) {
		t.Errorf("expected reset warning for b, got %s", buf.String())
	}

	var metric dto.Metric
	if err := reg.CoordinateResetsTotal.Write(&metric); err != nil {
		t.Fatal(err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("CoordinateResetsTotal = %v, want 1", metric.Counter.GetValue())
	}
}
