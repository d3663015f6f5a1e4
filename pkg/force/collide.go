package force

import (
	"math"

	"github.com/dd0wney/topomap/pkg/quadtree"
	"github.com/dd0wney/topomap/pkg/topology"
)

// Collide resolves overlaps between node circles of radius
// Node.Radius()+Padding, using predicted positions (x+vx). It is not scaled
// by alpha. When one side is pinned the free node absorbs the whole push.
type Collide struct {
	Padding    float64
	Strength   float64
	Iterations int

	radii []float64
	pts   []quadtree.Point
}

// Apply implements Force.
func (c *Collide) Apply(f *Frame) {
	n := len(f.Nodes)
	if c.Iterations <= 0 || c.Strength == 0 || n < 2 {
		return
	}
	if cap(c.radii) < n {
		c.radii = make([]float64, n)
		c.pts = make([]quadtree.Point, n)
	}
	radii := c.radii[:n]
	pts := c.pts[:n]
	maxR := 0.0
	for i := range f.Nodes {
		radii[i] = f.Nodes[i].Radius() + c.Padding
		maxR = math.Max(maxR, radii[i])
	}

	for range c.Iterations {
		for i := range f.Nodes {
			nd := &f.Nodes[i]
			pts[i] = quadtree.Point{X: nd.X + nd.VX, Y: nd.Y + nd.VY, Mass: 1}
		}
		tree := quadtree.Build(pts)

		for i := range f.Nodes {
			a := &f.Nodes[i]
			ri := radii[i]
			xi, yi := a.X+a.VX, a.Y+a.VY
			tree.ForEachNear(xi, yi, ri+maxR, func(j int, _ quadtree.Point) bool {
				if j <= i {
					return true
				}
				b := &f.Nodes[j]
				if frozen(a) && frozen(b) {
					return true
				}
				rj := radii[j]
				r := ri + rj
				x := xi - b.X - b.VX
				y := yi - b.Y - b.VY
				l := x*x + y*y
				if l >= r*r {
					return true
				}
				if x == 0 {
					x = f.Jiggle()
					l += x * x
				}
				if y == 0 {
					y = f.Jiggle()
					l += y * y
				}
				l = math.Sqrt(l)
				k := (r - l) / l * c.Strength
				x *= k
				y *= k

				// share of the push taken by a, by relative area
				share := rj * rj / (ri*ri + rj*rj)
				sx := collideShare(share, a, b, topology.AxisX)
				sy := collideShare(share, a, b, topology.AxisY)
				a.VX += x * sx
				a.VY += y * sy
				b.VX -= x * (1 - sx)
				b.VY -= y * (1 - sy)
				return true
			})
		}
	}
}

func collideShare(share float64, a, b *topology.Node, axis topology.Axis) float64 {
	aFixed := a.Fixed&axis != 0
	bFixed := b.Fixed&axis != 0
	switch {
	case aFixed && !bFixed:
		return 0
	case bFixed && !aFixed:
		return 1
	default:
		return share
	}
}
