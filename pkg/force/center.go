package force

import "github.com/dd0wney/topomap/pkg/topology"

// Center translates the free nodes so their mean drifts toward the center.
// Pinned nodes neither count toward the mean nor move.
type Center struct {
	Strength float64
}

// Apply implements Force.
func (c *Center) Apply(f *Frame) {
	if c.Strength == 0 {
		return
	}
	var sx, sy float64
	var nx, ny int
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Fixed&topology.AxisX == 0 {
			sx += n.X
			nx++
		}
		if n.Fixed&topology.AxisY == 0 {
			sy += n.Y
			ny++
		}
	}
	var shiftX, shiftY float64
	if nx > 0 {
		shiftX = (sx/float64(nx) - f.CenterX) * c.Strength
	}
	if ny > 0 {
		shiftY = (sy/float64(ny) - f.CenterY) * c.Strength
	}
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.Fixed&topology.AxisX == 0 {
			n.X -= shiftX
		}
		if n.Fixed&topology.AxisY == 0 {
			n.Y -= shiftY
		}
	}
}
