package force

import (
	"github.com/dd0wney/topomap/pkg/quadtree"
	"github.com/dd0wney/topomap/pkg/topology"
)

// Force contributes to node velocities (or, for centering, positions) once
// per tick. Forces run in registration order against the same Frame.
type Force interface {
	Apply(f *Frame)
}

// Frame is the per-tick view of the arena handed to each Force.
type Frame struct {
	Nodes   []topology.Node
	Links   []topology.Link
	Alpha   float64
	CenterX float64
	CenterY float64

	rng *lcg
	// tree over current positions, built lazily and shared by forces that
	// only need positions from the start of the tick
	tree *quadtree.Tree
}

// Jiggle returns a tiny deterministic offset used to separate coincident
// nodes.
func (f *Frame) Jiggle() float64 {
	return (f.rng.next() - 0.5) * 1e-6
}

// Tree returns a quadtree over the node positions at the start of the tick.
func (f *Frame) Tree() *quadtree.Tree {
	if f.tree == nil {
		pts := make([]quadtree.Point, len(f.Nodes))
		for i := range f.Nodes {
			pts[i] = quadtree.Point{X: f.Nodes[i].X, Y: f.Nodes[i].Y, Mass: 1}
		}
		f.tree = quadtree.Build(pts)
	}
	return f.tree
}

func frozen(n *topology.Node) bool {
	return n.Fixed == topology.AxisBoth
}

// lcg is the linear congruential generator behind Jiggle.
type lcg struct {
	s uint32
}

func newLCG(seed int64) *lcg {
	return &lcg{s: uint32(seed)}
}

func (l *lcg) next() float64 {
	l.s = 1664525*l.s + 1013904223
	return float64(l.s) / 4294967296
}
