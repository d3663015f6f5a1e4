package visualization

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/dd0wney/topomap/pkg/topology"
)

func distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

func hierarchy() ([]topology.Node, []topology.Edge) {
	nodes := []topology.Node{
		{ID: "sub", Kind: topology.KindSubscription},
		{ID: "rg", Kind: topology.KindResourceGroup},
		{ID: "vnet", Kind: topology.KindVirtualNetwork},
		{ID: "kv", Kind: topology.KindKeyVault},
		{ID: "snet", Kind: topology.KindSubnet},
		{ID: "vm", Kind: topology.KindVirtualMachine},
	}
	edges := []topology.Edge{
		{SourceID: "sub", TargetID: "rg", Kind: topology.EdgeContains},
		{SourceID: "rg", TargetID: "vnet", Kind: topology.EdgeContains},
		{SourceID: "rg", TargetID: "kv", Kind: topology.EdgeContains},
		{SourceID: "vnet", TargetID: "snet", Kind: topology.EdgeContains},
		{SourceID: "snet", TargetID: "vm", Kind: topology.EdgeContains},
		{SourceID: "vm", TargetID: "kv", Kind: topology.EdgeConnects},
	}
	return nodes, edges
}

// TestCircularPlacer tests circular seeding of fresh nodes
func TestCircularPlacer(t *testing.T) {
	model := topology.NewModel(
		topology.WithPlacer(NewCircularPlacer(DefaultLayoutConfig())),
		topology.WithCenter(100, 50),
	)
	nodes := make([]topology.Node, 8)
	for i := range nodes {
		nodes[i] = topology.Node{ID: string(rune('a' + i))}
	}
	model.Load(nodes, nil)
	snap := model.Get()

	first := distance(snap.Nodes[0].X, snap.Nodes[0].Y, 100, 50)
	if first <= 0 {
		t.Fatalf("Node placed on the center")
	}
	for _, n := range snap.Nodes {
		d := distance(n.X, n.Y, 100, 50)
		if math.Abs(d-first) > 1e-9 {
			t.Errorf("Node %s at radius %f, want %f", n.ID, d, first)
		}
	}

	// Neighbours on the ring are evenly spaced
	gap := distance(snap.Nodes[0].X, snap.Nodes[0].Y, snap.Nodes[1].X, snap.Nodes[1].Y)
	for i := 1; i < len(snap.Nodes); i++ {
		a, b := snap.Nodes[i], snap.Nodes[(i+1)%len(snap.Nodes)]
		if ratio := distance(a.X, a.Y, b.X, b.Y) / gap; math.Abs(ratio-1) > 1e-6 {
			t.Errorf("Circular placement not uniform: distance ratio %f", ratio)
		}
	}
}

// TestCircularPlacerKeepsExistingNodes tests that only fresh nodes move
func TestCircularPlacerKeepsExistingNodes(t *testing.T) {
	model := topology.NewModel(topology.WithPlacer(NewCircularPlacer(DefaultLayoutConfig())))
	model.Load([]topology.Node{{ID: "a", X: 300, Y: -40}}, nil)
	model.Load([]topology.Node{{ID: "a"}, {ID: "b"}}, nil)

	a, _ := model.Node("a")
	if a.X != 300 || a.Y != -40 {
		t.Errorf("Existing node moved to (%f, %f)", a.X, a.Y)
	}
	b, _ := model.Node("b")
	if b.X == 0 && b.Y == 0 {
		t.Error("Fresh node was not placed")
	}
}

// TestHierarchicalPlacer tests level-by-level seeding along contains edges
func TestHierarchicalPlacer(t *testing.T) {
	model := topology.NewModel(topology.WithPlacer(NewHierarchicalPlacer(DefaultLayoutConfig())))
	nodes, edges := hierarchy()
	model.Load(nodes, edges)

	y := func(id string) float64 {
		n, ok := model.Node(id)
		if !ok {
			t.Fatalf("Node %s missing", id)
		}
		return n.Y
	}

	gap := DefaultLayoutConfig().LevelGap
	chain := []string{"sub", "rg", "vnet", "snet", "vm"}
	for i := 1; i < len(chain); i++ {
		if got := y(chain[i]) - y(chain[i-1]); math.Abs(got-gap) > 1e-9 {
			t.Errorf("%s is %f below %s, want %f", chain[i], got, chain[i-1], gap)
		}
	}

	// Siblings share a level
	if y("vnet") != y("kv") {
		t.Errorf("Children not at same level: Y1=%f, Y2=%f", y("vnet"), y("kv"))
	}
	vnet, _ := model.Node("vnet")
	kv, _ := model.Node("kv")
	if vnet.X == kv.X {
		t.Error("Siblings placed on top of each other")
	}
}

// TestLevels tests BFS leveling including cycles and isolated nodes
func TestLevels(t *testing.T) {
	nodes, edges := hierarchy()
	levels := Levels(nodes, edges)
	if len(levels) != 5 {
		t.Fatalf("Expected 5 levels, got %d", len(levels))
	}
	if len(levels[2]) != 2 {
		t.Errorf("Expected vnet and kv on level 2, got %v", levels[2])
	}

	cycle := []topology.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	cycleEdges := []topology.Edge{
		{SourceID: "a", TargetID: "b", Kind: topology.EdgeContains},
		{SourceID: "b", TargetID: "a", Kind: topology.EdgeContains},
	}
	levels = Levels(cycle, cycleEdges)
	seen := 0
	for _, l := range levels {
		seen += len(l)
	}
	if seen != 3 {
		t.Errorf("Expected every node in some level, got %d of 3", seen)
	}

	if Levels(nil, nil) != nil {
		t.Error("Expected no levels for an empty graph")
	}
}

// TestFitTransform tests that fitted snapshots land inside the surface
func TestFitTransform(t *testing.T) {
	snap := &topology.Snapshot{Nodes: []topology.Node{
		{ID: "a", X: -500, Y: -200},
		{ID: "b", X: 700, Y: 300},
		{ID: "c", X: 0, Y: 0},
	}}
	const w, h, pad = 800.0, 600.0, 40.0
	tr := FitTransform(snap, w, h, pad)
	if !tr.Valid() {
		t.Fatalf("Invalid transform %+v", tr)
	}
	for _, n := range snap.Nodes {
		sx, sy := tr.Apply(n.X, n.Y)
		r := tr.Scale(n.Radius())
		if sx-r < pad-1e-6 || sx+r > w-pad+1e-6 {
			t.Errorf("Node %s X=%f out of bounds", n.ID, sx)
		}
		if sy-r < pad-1e-6 || sy+r > h-pad+1e-6 {
			t.Errorf("Node %s Y=%f out of bounds", n.ID, sy)
		}
	}
}

// TestFitTransformDegenerate tests empty and single node snapshots
func TestFitTransformDegenerate(t *testing.T) {
	tr := FitTransform(&topology.Snapshot{}, 800, 600, 40)
	if tr.X != 400 || tr.Y != 300 || tr.K != 1 {
		t.Errorf("Empty snapshot not centered: %+v", tr)
	}

	single := &topology.Snapshot{Nodes: []topology.Node{{ID: "a", X: 10, Y: 10}}}
	tr = FitTransform(single, 800, 600, 40)
	if !tr.Valid() || tr.K > FitMaxScale {
		t.Errorf("Single node transform %+v", tr)
	}
	sx, sy := tr.Apply(10, 10)
	if math.Abs(sx-400) > 1e-6 || math.Abs(sy-300) > 1e-6 {
		t.Errorf("Single node not centered: (%f, %f)", sx, sy)
	}

	broken := &topology.Snapshot{Nodes: []topology.Node{{ID: "a", X: math.NaN()}}}
	if _, ok := SnapshotBounds(broken); ok {
		t.Error("Expected no bounds for non-finite nodes")
	}
}

// TestExportJSON tests the layout export
func TestExportJSON(t *testing.T) {
	nodes, edges := hierarchy()
	model := topology.NewModel()
	model.Load(nodes, edges)
	snap := model.Get()

	data, err := ExportJSON(&snap)
	if err != nil {
		t.Fatalf("JSON export failed: %v", err)
	}

	var out struct {
		Revision string `json:"revision"`
		Nodes    []struct {
			ID     string  `json:"id"`
			Kind   string  `json:"kind"`
			X      float64 `json:"x"`
			Radius float64 `json:"radius"`
		} `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
			Target string `json:"target"`
			Kind   string `json:"kind"`
		} `json:"edges"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if out.Revision != snap.Revision {
		t.Errorf("Revision %q, want %q", out.Revision, snap.Revision)
	}
	if len(out.Nodes) != len(nodes) || len(out.Edges) != len(edges) {
		t.Fatalf("Export has %d nodes and %d edges", len(out.Nodes), len(out.Edges))
	}
	if out.Nodes[0].Kind != "Subscription" || out.Nodes[0].Radius != 35 {
		t.Errorf("Unexpected first node %+v", out.Nodes[0])
	}
	if out.Edges[5].Kind != "connects" {
		t.Errorf("Unexpected edge kind %q", out.Edges[5].Kind)
	}
}
