package force

import (
	"math"

	"github.com/dd0wney/topomap/pkg/quadtree"
)

// ManyBody is Barnes-Hut approximated charge between every pair of nodes.
// Negative strength repels. Pinned nodes push on others but are not pushed.
type ManyBody struct {
	Strength    float64
	Theta       float64
	DistanceMin float64
	DistanceMax float64
}

// Apply implements Force.
func (m *ManyBody) Apply(f *Frame) {
	if m.Strength == 0 || len(f.Nodes) < 2 {
		return
	}
	tree := f.Tree()
	min2 := m.DistanceMin * m.DistanceMin
	max2 := math.Inf(1)
	if m.DistanceMax > 0 {
		max2 = m.DistanceMax * m.DistanceMax
	}

	for i := range f.Nodes {
		n := &f.Nodes[i]
		if frozen(n) {
			continue
		}
		x, y := n.X, n.Y
		tree.Accumulate(i, x, y, m.Theta, func(b quadtree.Body) {
			dx, dy := b.X-x, b.Y-y
			l := dx*dx + dy*dy
			if l >= max2 {
				return
			}
			if dx == 0 {
				dx = f.Jiggle()
				l += dx * dx
			}
			if dy == 0 {
				dy = f.Jiggle()
				l += dy * dy
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := m.Strength * b.Mass * f.Alpha / l
			n.VX += dx * w
			n.VY += dy * w
		})
	}
}
