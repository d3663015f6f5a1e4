package topology

import (
	"math"
	"math/rand"
)

// Placement describes the nodes a Placer must seed. Nodes is the full working
// set after a load; only the entries listed in Fresh may be written.
type Placement struct {
	Nodes   []Node
	Edges   []Edge
	Fresh   []int
	CenterX float64
	CenterY float64

	index map[string]int
}

// Index returns the arena position of id.
func (p *Placement) Index(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// Placer assigns initial coordinates to nodes that appear for the first time.
type Placer interface {
	Place(p *Placement)
}

// PlacerFunc adapts a function to the Placer interface.
type PlacerFunc func(p *Placement)

// Place calls f(p).
func (f PlacerFunc) Place(p *Placement) { f(p) }

const (
	initialRadius = 10.0
	// golden angle
	initialAngle = math.Pi * (3 - 2.2360679774997896964)
)

// Phyllotaxis returns the i-th point of the sunflower spiral used to seed
// node positions so no two nodes start coincident.
func Phyllotaxis(i int) (x, y float64) {
	r := initialRadius * math.Sqrt(0.5+float64(i))
	a := float64(i) * initialAngle
	return r * math.Cos(a), r * math.Sin(a)
}

// SpiralPlacer seeds a new node on a small spiral around its parent group
// when the parent is known, and on a spiral around the center otherwise.
type SpiralPlacer struct {
	rng *rand.Rand
}

// NewSpiralPlacer creates the default placer. The seed rotates each parent's
// local spiral so siblings of different parents do not line up.
func NewSpiralPlacer(seed int64) *SpiralPlacer {
	return &SpiralPlacer{rng: rand.New(rand.NewSource(seed))}
}

// Place implements Placer.
func (s *SpiralPlacer) Place(p *Placement) {
	pending := make(map[int]bool, len(p.Fresh))
	for _, i := range p.Fresh {
		pending[i] = true
	}
	children := make(map[int]int)
	rotation := make(map[int]float64)

	var place func(i int, depth int)
	place = func(i int, depth int) {
		if !pending[i] {
			return
		}
		delete(pending, i)

		n := &p.Nodes[i]
		parent, ok := p.Index(n.ParentGroup)
		if ok && parent != i && depth < len(p.Nodes) {
			// A fresh parent is seeded first so the child lands next to it.
			place(parent, depth+1)
		}
		if ok && parent != i {
			k := children[parent]
			children[parent] = k + 1
			rot, seen := rotation[parent]
			if !seen {
				rot = s.rng.Float64() * 2 * math.Pi
				rotation[parent] = rot
			}
			dx, dy := Phyllotaxis(k)
			cos, sin := math.Cos(rot), math.Sin(rot)
			pn := &p.Nodes[parent]
			n.X = pn.X + dx*cos - dy*sin
			n.Y = pn.Y + dx*sin + dy*cos
			return
		}
		dx, dy := Phyllotaxis(i)
		n.X = p.CenterX + dx
		n.Y = p.CenterY + dy
	}

	for _, i := range p.Fresh {
		place(i, 0)
	}
}
