package visualization

import (
	"math"

	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/viewport"
)

// Scale limits used by FitTransform.
const (
	FitMinScale = 0.1
	FitMaxScale = 4
)

// minExtent keeps a degenerate bounding box from producing an infinite scale.
const minExtent = 0.01

// Bounds is an axis-aligned box in simulation space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// SnapshotBounds returns the box enclosing every node circle. Nodes with
// non-finite coordinates are ignored; ok is false when nothing remains.
func SnapshotBounds(s *topology.Snapshot) (b Bounds, ok bool) {
	b = Bounds{MinX: math.MaxFloat64, MinY: math.MaxFloat64, MaxX: -math.MaxFloat64, MaxY: -math.MaxFloat64}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if !n.Finite() {
			continue
		}
		r := n.Radius()
		b.MinX = math.Min(b.MinX, n.X-r)
		b.MaxX = math.Max(b.MaxX, n.X+r)
		b.MinY = math.Min(b.MinY, n.Y-r)
		b.MaxY = math.Max(b.MaxY, n.Y+r)
		ok = true
	}
	if !ok {
		return Bounds{}, false
	}
	return b, true
}

// FitTransform returns the view transform that shows the whole snapshot in a
// width by height surface with padding on every side. An empty snapshot is
// centered at the origin.
func FitTransform(s *topology.Snapshot, width, height, padding float64) viewport.Transform {
	b, ok := SnapshotBounds(s)
	if !ok {
		return viewport.Transform{X: width / 2, Y: height / 2, K: 1}
	}
	if b.Width() < minExtent {
		b.MinX, b.MaxX = b.MinX-0.5, b.MaxX+0.5
	}
	if b.Height() < minExtent {
		b.MinY, b.MaxY = b.MinY-0.5, b.MaxY+0.5
	}
	return viewport.Fit(b.MinX, b.MinY, b.MaxX, b.MaxY, width, height, padding, FitMinScale, FitMaxScale)
}
