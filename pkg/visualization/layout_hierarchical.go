package visualization

import (
	"github.com/dd0wney/topomap/pkg/topology"
)

// HierarchicalPlacer seeds fresh nodes in levels of the containment tree:
// roots on the top row, their contained children one LevelGap below, and so
// on. Nodes already placed keep their positions.
type HierarchicalPlacer struct {
	config LayoutConfig
}

// NewHierarchicalPlacer creates a hierarchical placer. An invalid config is
// replaced by DefaultLayoutConfig.
func NewHierarchicalPlacer(config LayoutConfig) *HierarchicalPlacer {
	return &HierarchicalPlacer{config: config.orDefault()}
}

// Levels groups node indexes by depth in the containment tree, in BFS order.
// Nodes unreachable from a root (containment cycles) join the last level.
func Levels(nodes []topology.Node, edges []topology.Edge) [][]int {
	if len(nodes) == 0 {
		return nil
	}

	index := make(map[string]int, len(nodes))
	for i := range nodes {
		index[nodes[i].ID] = i
	}
	children := make(map[int][]int)
	hasParent := make([]bool, len(nodes))
	for _, e := range edges {
		if e.Kind != topology.EdgeContains {
			continue
		}
		from, ok := index[e.SourceID]
		if !ok {
			continue
		}
		to, ok := index[e.TargetID]
		if !ok || from == to {
			continue
		}
		children[from] = append(children[from], to)
		hasParent[to] = true
	}

	// Find root nodes (nodes with no incoming contains edge)
	roots := make([]int, 0)
	for i := range nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		roots = []int{0}
	}

	levels := make([][]int, 0)
	visited := make([]bool, len(nodes))
	for _, r := range roots {
		visited[r] = true
	}
	current := roots
	for len(current) > 0 {
		levels = append(levels, current)
		next := make([]int, 0)
		for _, i := range current {
			for _, c := range children[i] {
				if !visited[c] {
					visited[c] = true
					next = append(next, c)
				}
			}
		}
		current = next
	}

	for i := range nodes {
		if !visited[i] {
			levels[len(levels)-1] = append(levels[len(levels)-1], i)
		}
	}
	return levels
}

// Place implements topology.Placer.
func (hp *HierarchicalPlacer) Place(p *topology.Placement) {
	if len(p.Fresh) == 0 {
		return
	}
	fresh := make(map[int]bool, len(p.Fresh))
	for _, i := range p.Fresh {
		fresh[i] = true
	}

	levels := Levels(p.Nodes, p.Edges)
	top := p.CenterY - float64(len(levels)-1)*hp.config.LevelGap/2
	for depth, level := range levels {
		y := top + float64(depth)*hp.config.LevelGap
		left := p.CenterX - float64(len(level)-1)*hp.config.Spacing/2
		for slot, i := range level {
			if !fresh[i] {
				continue
			}
			p.Nodes[i].X = left + float64(slot)*hp.config.Spacing
			p.Nodes[i].Y = y
		}
	}
}
