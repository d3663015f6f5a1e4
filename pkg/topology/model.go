package topology

import (
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/google/uuid"
)

// Model owns the node arena, the id index and the edge list. It is the only
// writer of node identity; the force engine writes positions through Update.
type Model struct {
	mu       sync.RWMutex
	nodes    []Node
	index    map[string]int
	edges    []Edge
	links    []Link
	revision string

	centerX float64
	centerY float64

	placer  Placer
	logger  logging.Logger
	metrics *metrics.Registry
}

// LoadReport summarizes one Load. Diagnostics are non-fatal.
type LoadReport struct {
	Revision     string
	Nodes        int
	Edges        int
	Added        int
	Kept         int
	Removed      int
	Placed       int
	DroppedEdges int
	Duplicates   int
	Diagnostics  []error
	Duration     time.Duration
}

// Option configures a Model.
type Option func(*Model)

// WithPlacer replaces the default spiral placer.
func WithPlacer(p Placer) Option {
	return func(m *Model) {
		if p != nil {
			m.placer = p
		}
	}
}

// WithLogger sets the logger for load diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records loads into the given registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(m *Model) {
		m.metrics = r
	}
}

// WithCenter sets the point new nodes are seeded around and the engine
// centers on.
func WithCenter(x, y float64) Option {
	return func(m *Model) {
		m.centerX, m.centerY = x, y
	}
}

// WithSeed seeds the default placer.
func WithSeed(seed int64) Option {
	return func(m *Model) {
		m.placer = NewSpiralPlacer(seed)
	}
}

// NewModel creates an empty model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		index:  make(map[string]int),
		placer: NewSpiralPlacer(1),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logging.Component("topology"))
	return m
}

// LoadSnapshot loads s.Nodes and s.Edges.
func (m *Model) LoadSnapshot(s Snapshot) LoadReport {
	return m.Load(s.Nodes, s.Edges)
}

// Load replaces the working set. Nodes whose id was already present keep
// their position, velocity and pin; their other attributes are replaced.
// New nodes are seeded by the placer unless the inbound record already
// carries a position. Duplicate ids keep the first occurrence's slot and the
// last occurrence's attributes. Dangling edges and self-loops are dropped.
func (m *Model) Load(nodes []Node, edges []Edge) LoadReport {
	start := time.Now()
	var diags []error

	m.mu.Lock()

	next := make([]Node, 0, len(nodes))
	index := make(map[string]int, len(nodes))
	duplicates := 0
	for i := range nodes {
		in := nodes[i]
		if err := validRecordID(in.ID); err != nil {
			diags = append(diags, nodeError("load", in.ID, i, err))
			continue
		}
		normalize(&in)
		if at, dup := index[in.ID]; dup {
			duplicates++
			diags = append(diags, nodeError("load", in.ID, i, ErrDuplicateID))
			next[at] = in
			continue
		}
		index[in.ID] = len(next)
		next = append(next, in)
	}

	var fresh []int
	kept := 0
	for i := range next {
		n := &next[i]
		if oi, ok := m.index[n.ID]; ok {
			old := &m.nodes[oi]
			n.X, n.Y, n.VX, n.VY = old.X, old.Y, old.VX, old.VY
			n.FX, n.FY, n.Fixed = old.FX, old.FY, old.Fixed
			kept++
			continue
		}
		n.VX, n.VY = 0, 0
		if n.Fixed&AxisX != 0 {
			n.X = n.FX
		}
		if n.Fixed&AxisY != 0 {
			n.Y = n.FY
		}
		if !n.Finite() || (n.X == 0 && n.Y == 0 && !n.Pinned()) {
			fresh = append(fresh, i)
		}
	}

	nextEdges := make([]Edge, 0, len(edges))
	links := make([]Link, 0, len(edges))
	dropped := 0
	for i, e := range edges {
		si, sok := index[e.SourceID]
		ti, tok := index[e.TargetID]
		switch {
		case !sok || !tok:
			dropped++
			diags = append(diags, edgeError("load", e, i, ErrDanglingEdge))
			continue
		case si == ti:
			dropped++
			diags = append(diags, edgeError("load", e, i, ErrSelfLoop))
			continue
		}
		if e.Kind != EdgeContains {
			e.Kind = EdgeConnects
		}
		nextEdges = append(nextEdges, e)
		links = append(links, Link{Source: si, Target: ti, Kind: e.Kind})
	}

	if len(fresh) > 0 {
		m.placer.Place(&Placement{
			Nodes:   next,
			Edges:   nextEdges,
			Fresh:   fresh,
			CenterX: m.centerX,
			CenterY: m.centerY,
			index:   index,
		})
		for _, i := range fresh {
			if n := &next[i]; !n.Finite() {
				n.X, n.Y, n.VX, n.VY = m.centerX, m.centerY, 0, 0
			}
		}
	}

	report := LoadReport{
		Revision:     uuid.New().String(),
		Nodes:        len(next),
		Edges:        len(nextEdges),
		Added:        len(next) - kept,
		Kept:         kept,
		Removed:      len(m.nodes) - kept,
		Placed:       len(fresh),
		DroppedEdges: dropped,
		Duplicates:   duplicates,
		Diagnostics:  diags,
	}

	m.nodes = next
	m.index = index
	m.edges = nextEdges
	m.links = links
	m.revision = report.Revision
	m.mu.Unlock()

	report.Duration = time.Since(start)

	for _, d := range diags {
		m.logger.Warn("snapshot record dropped or merged", logging.Error(d))
	}
	m.logger.Info("snapshot loaded",
		logging.Revision(report.Revision),
		logging.Int("nodes", report.Nodes),
		logging.Int("edges", report.Edges),
		logging.Int("added", report.Added),
		logging.Int("removed", report.Removed),
		logging.Latency(report.Duration),
	)
	if m.metrics != nil {
		dangling, selfLoops := 0, 0
		for _, d := range diags {
			switch {
			case errors.Is(d, ErrDanglingEdge):
				dangling++
			case errors.Is(d, ErrSelfLoop):
				selfLoops++
			}
		}
		m.metrics.RecordLoad(report.Nodes, report.Edges, dangling, selfLoops, duplicates, report.Placed, report.Duration)
	}
	return report
}

func normalize(n *Node) {
	if n.Kind == "" {
		n.Kind = KindUnknown
	} else if _, ok := kindStyles[n.Kind]; !ok {
		n.Kind = ParseKind(string(n.Kind))
	}
	if _, ok := statusColors[n.Status]; !ok {
		n.Status = ParseStatus(string(n.Status))
	}
	if !finite(n.Weight) || n.Weight < 0 {
		n.Weight = 0
	}
	if n.Fixed&AxisX != 0 && !finite(n.FX) {
		n.Fixed &^= AxisX
	}
	if n.Fixed&AxisY != 0 && !finite(n.FY) {
		n.Fixed &^= AxisY
	}
}

// Get returns a deep copy of the current working set.
func (m *Model) Get() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		Revision: m.revision,
		Nodes:    make([]Node, len(m.nodes)),
		Edges:    make([]Edge, len(m.edges)),
	}
	copy(s.Edges, m.edges)
	for i := range m.nodes {
		s.Nodes[i] = cloneNode(&m.nodes[i])
	}
	return s
}

func cloneNode(n *Node) Node {
	c := *n
	if n.Properties != nil {
		c.Properties = maps.Clone(n.Properties)
	}
	return c
}

// Node returns a copy of the node with the given id.
func (m *Model) Node(id string) (Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Node{}, false
	}
	return cloneNode(&m.nodes[i]), true
}

// Lookup is Node with an error return for callers that propagate failures.
func (m *Model) Lookup(id string) (Node, error) {
	n, ok := m.Node(id)
	if !ok {
		return Node{}, nodeError("lookup", id, -1, ErrNodeNotFound)
	}
	return n, nil
}

// SetPin anchors both axes of a node at (x, y). It reports false, and does
// nothing, when id is unknown or the coordinates are not finite.
func (m *Model) SetPin(id string, x, y float64) bool {
	if !finite(x) || !finite(y) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return false
	}
	n := &m.nodes[i]
	n.FX, n.FY, n.Fixed = x, y, AxisBoth
	n.X, n.Y, n.VX, n.VY = x, y, 0, 0
	return true
}

// ClearPin releases a node's anchor. It reports false when id is unknown.
func (m *Model) ClearPin(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return false
	}
	n := &m.nodes[i]
	n.FX, n.FY, n.Fixed = 0, 0, AxisNone
	return true
}

// Len returns the number of nodes.
func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// Revision returns the id of the last load, empty before the first one.
func (m *Model) Revision() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Center returns the layout center.
func (m *Model) Center() (x, y float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.centerX, m.centerY
}

// SetCenter moves the layout center, e.g. after the surface is resized.
func (m *Model) SetCenter(x, y float64) {
	if !finite(x) || !finite(y) {
		return
	}
	m.mu.Lock()
	m.centerX, m.centerY = x, y
	m.mu.Unlock()
}

// Update runs fn with write access to the arena. fn may change positions and
// velocities but must not reorder or resize either slice.
func (m *Model) Update(fn func(nodes []Node, links []Link)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.nodes, m.links)
}

// Read runs fn with read access to the arena.
func (m *Model) Read(fn func(nodes []Node, links []Link)) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn(m.nodes, m.links)
}
