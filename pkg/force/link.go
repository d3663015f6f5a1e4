package force

import (
	"math"

	"github.com/dd0wney/topomap/pkg/topology"
)

// Link pulls the endpoints of every edge toward a rest length that depends
// on the edge kind. Per-link strength is 1/min(degree) and the correction is
// split by degree so hubs move less.
type Link struct {
	ContainsDistance float64
	ConnectsDistance float64
	Iterations       int

	count []int
}

func (l *Link) distance(k topology.EdgeKind) float64 {
	if k == topology.EdgeContains {
		return l.ContainsDistance
	}
	return l.ConnectsDistance
}

// Apply implements Force.
func (l *Link) Apply(f *Frame) {
	if len(f.Links) == 0 {
		return
	}
	if cap(l.count) < len(f.Nodes) {
		l.count = make([]int, len(f.Nodes))
	}
	count := l.count[:len(f.Nodes)]
	clear(count)
	for _, ln := range f.Links {
		count[ln.Source]++
		count[ln.Target]++
	}

	iterations := max(l.Iterations, 1)
	for range iterations {
		for _, ln := range f.Links {
			src, dst := &f.Nodes[ln.Source], &f.Nodes[ln.Target]
			if frozen(src) && frozen(dst) {
				continue
			}
			x := dst.X + dst.VX - src.X - src.VX
			y := dst.Y + dst.VY - src.Y - src.VY
			if x == 0 {
				x = f.Jiggle()
			}
			if y == 0 {
				y = f.Jiggle()
			}
			d := math.Sqrt(x*x + y*y)
			strength := 1 / float64(min(count[ln.Source], count[ln.Target]))
			k := (d - l.distance(ln.Kind)) / d * f.Alpha * strength
			x *= k
			y *= k

			bias := float64(count[ln.Source]) / float64(count[ln.Source]+count[ln.Target])
			bx := axisBias(bias, src, dst, topology.AxisX)
			by := axisBias(bias, src, dst, topology.AxisY)
			dst.VX -= x * bx
			dst.VY -= y * by
			src.VX += x * (1 - bx)
			src.VY += y * (1 - by)
		}
	}
}

// axisBias is the share of the correction taken by the target. A pinned
// endpoint is an infinite mass on its axis, so the free end takes it all.
func axisBias(bias float64, src, dst *topology.Node, axis topology.Axis) float64 {
	srcFixed := src.Fixed&axis != 0
	dstFixed := dst.Fixed&axis != 0
	switch {
	case srcFixed && !dstFixed:
		return 1
	case dstFixed && !srcFixed:
		return 0
	default:
		return bias
	}
}
