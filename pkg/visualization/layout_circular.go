package visualization

import (
	"math"

	"github.com/dd0wney/topomap/pkg/topology"
)

// CircularPlacer seeds fresh nodes evenly on a ring around the center. The
// ring grows with the number of fresh nodes so neighbours stay Spacing apart.
type CircularPlacer struct {
	config LayoutConfig
}

// NewCircularPlacer creates a circular placer. An invalid config is replaced
// by DefaultLayoutConfig.
func NewCircularPlacer(config LayoutConfig) *CircularPlacer {
	return &CircularPlacer{config: config.orDefault()}
}

// Place implements topology.Placer.
func (cp *CircularPlacer) Place(p *topology.Placement) {
	n := len(p.Fresh)
	if n == 0 {
		return
	}

	radius := math.Max(cp.config.Spacing*float64(n)/(2*math.Pi), cp.config.Spacing)
	angleStep := 2 * math.Pi / float64(n)

	for k, i := range p.Fresh {
		angle := float64(k) * angleStep
		p.Nodes[i].X = p.CenterX + radius*math.Cos(angle)
		p.Nodes[i].Y = p.CenterY + radius*math.Sin(angle)
	}
}
