package visualization

import (
	"encoding/json"

	"github.com/dd0wney/topomap/pkg/topology"
)

type nodeViz struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Kind        topology.Kind   `json:"kind"`
	Status      topology.Status `json:"status"`
	ParentGroup string          `json:"parentGroup,omitempty"`
	X           float64         `json:"x"`
	Y           float64         `json:"y"`
	Radius      float64         `json:"radius"`
	Pinned      bool            `json:"pinned,omitempty"`
}

type edgeViz struct {
	Source string            `json:"source"`
	Target string            `json:"target"`
	Kind   topology.EdgeKind `json:"kind"`
}

type vizData struct {
	Revision string    `json:"revision,omitempty"`
	Nodes    []nodeViz `json:"nodes"`
	Edges    []edgeViz `json:"edges"`
}

// ExportJSON exports the laid-out snapshot: node positions and radii plus the
// edge list.
func ExportJSON(s *topology.Snapshot) ([]byte, error) {
	data := vizData{
		Revision: s.Revision,
		Nodes:    make([]nodeViz, 0, len(s.Nodes)),
		Edges:    make([]edgeViz, 0, len(s.Edges)),
	}

	for i := range s.Nodes {
		n := &s.Nodes[i]
		data.Nodes = append(data.Nodes, nodeViz{
			ID:          n.ID,
			Name:        n.Name,
			Kind:        n.Kind,
			Status:      n.Status,
			ParentGroup: n.ParentGroup,
			X:           n.X,
			Y:           n.Y,
			Radius:      n.Radius(),
			Pinned:      n.Pinned(),
		})
	}

	for _, e := range s.Edges {
		data.Edges = append(data.Edges, edgeViz{
			Source: e.SourceID,
			Target: e.TargetID,
			Kind:   e.Kind,
		})
	}

	return json.MarshalIndent(data, "", "  ")
}
