package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dd0wney/topomap/pkg/validation"
	"golang.org/x/exp/mmap"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension; JSON is the default.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// wireSnapshot accepts both the original field names (links, type, group,
// val, source, target) and the canonical ones.
type wireSnapshot struct {
	Revision string     `json:"revision" yaml:"revision"`
	Nodes    []wireNode `json:"nodes" yaml:"nodes"`
	Links    []wireEdge `json:"links" yaml:"links"`
	Edges    []wireEdge `json:"edges" yaml:"edges"`
}

type wireNode struct {
	ID          string   `json:"id" yaml:"id" validate:"required,printable,max=1024"`
	Name        string   `json:"name" yaml:"name" validate:"max=256"`
	Type        string   `json:"type" yaml:"type"`
	Kind        string   `json:"kind" yaml:"kind"`
	Group       string   `json:"group" yaml:"group"`
	ParentGroup string   `json:"parentGroup" yaml:"parentGroup"`
	Status      string   `json:"status" yaml:"status"`
	Val         *float64 `json:"val" yaml:"val" validate:"omitempty,gte=0,finite"`
	Weight      *float64 `json:"weight" yaml:"weight" validate:"omitempty,gte=0,finite"`
	Location    string   `json:"location" yaml:"location"`
	Cost        string   `json:"cost" yaml:"cost"`
	Properties  any      `json:"properties" yaml:"properties"`
	X           *float64 `json:"x" yaml:"x" validate:"omitempty,finite"`
	Y           *float64 `json:"y" yaml:"y" validate:"omitempty,finite"`
	FX          *float64 `json:"fx" yaml:"fx" validate:"omitempty,finite"`
	FY          *float64 `json:"fy" yaml:"fy" validate:"omitempty,finite"`
}

type wireEdge struct {
	Source   endpoint `json:"source" yaml:"source"`
	SourceID endpoint `json:"sourceId" yaml:"sourceId"`
	Target   endpoint `json:"target" yaml:"target"`
	TargetID endpoint `json:"targetId" yaml:"targetId"`
	Type     string   `json:"type" yaml:"type"`
	Kind     string   `json:"kind" yaml:"kind"`
}

// endpoint is a link end given as an id string, a number, or an embedded
// node object carrying an id.
type endpoint string

func (e *endpoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = endpoint(s)
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj.ID) == 0 {
			return nil
		}
		return e.UnmarshalJSON(obj.ID)
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("endpoint must be an id, number or node object: %w", err)
		}
		*e = endpoint(num.String())
	}
	return nil
}

func (e *endpoint) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*e = endpoint(value.Value)
	case yaml.MappingNode:
		var obj struct {
			ID string `yaml:"id"`
		}
		if err := value.Decode(&obj); err != nil {
			return err
		}
		*e = endpoint(obj.ID)
	default:
		return fmt.Errorf("line %d: endpoint must be an id or node object", value.Line)
	}
	return nil
}

// DecodeSnapshot reads a snapshot document. A document that cannot be parsed
// returns an error wrapping ErrDecodeFailed. Individual records that fail
// validation are skipped and returned as diagnostics.
func DecodeSnapshot(r io.Reader, format Format) (Snapshot, []error, error) {
	var w wireSnapshot
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&w); err != nil && err != io.EOF {
			return Snapshot{}, nil, &Error{Op: "decode", Entity: "snapshot", Index: -1, Cause: fmt.Errorf("%w: %v", ErrDecodeFailed, err)}
		}
	default:
		dec := json.NewDecoder(r)
		if err := dec.Decode(&w); err != nil {
			return Snapshot{}, nil, &Error{Op: "decode", Entity: "snapshot", Index: -1, Cause: fmt.Errorf("%w: %v", ErrDecodeFailed, err)}
		}
	}
	return w.snapshot()
}

// DecodeSnapshotBytes decodes an in-memory document.
func DecodeSnapshotBytes(data []byte, format Format) (Snapshot, []error, error) {
	return DecodeSnapshot(bytes.NewReader(data), format)
}

// ReadSnapshotFile decodes the file at path, choosing the format from its
// extension. The file is memory-mapped for the duration of the decode, so
// large inventories are not copied before parsing.
func ReadSnapshotFile(path string) (Snapshot, []error, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer r.Close()
	return DecodeSnapshot(io.NewSectionReader(r, 0, int64(r.Len())), FormatForPath(path))
}

func (w *wireSnapshot) snapshot() (Snapshot, []error, error) {
	edges := w.Edges
	if len(edges) == 0 {
		edges = w.Links
	} else if len(w.Links) > 0 {
		edges = append(append([]wireEdge(nil), w.Links...), w.Edges...)
	}
	if err := validation.ValidateSnapshotSize(len(w.Nodes), len(edges)); err != nil {
		return Snapshot{}, nil, &Error{Op: "decode", Entity: "snapshot", Index: -1, Cause: fmt.Errorf("%w: %v", ErrInvalidRecord, err)}
	}

	var diags []error
	s := Snapshot{
		Revision: w.Revision,
		Nodes:    make([]Node, 0, len(w.Nodes)),
		Edges:    make([]Edge, 0, len(edges)),
	}

	for i := range w.Nodes {
		wn := &w.Nodes[i]
		if err := validation.Struct(wn); err != nil {
			diags = append(diags, nodeError("decode", wn.ID, i, fmt.Errorf("%w: %v", ErrInvalidRecord, err)))
			continue
		}
		s.Nodes = append(s.Nodes, wn.node())
	}

	for i := range edges {
		we := &edges[i]
		e := Edge{
			SourceID: string(firstNonEmpty(we.SourceID, we.Source)),
			TargetID: string(firstNonEmpty(we.TargetID, we.Target)),
			Kind:     ParseEdgeKind(string(firstNonEmpty(endpoint(we.Kind), endpoint(we.Type)))),
		}
		if e.SourceID == "" || e.TargetID == "" {
			diags = append(diags, edgeError("decode", e, i, fmt.Errorf("%w: source and target are required", ErrInvalidRecord)))
			continue
		}
		s.Edges = append(s.Edges, e)
	}
	return s, diags, nil
}

func (wn *wireNode) node() Node {
	n := Node{
		ID:          wn.ID,
		Name:        wn.Name,
		Kind:        ParseKind(string(firstNonEmpty(endpoint(wn.Kind), endpoint(wn.Type)))),
		ParentGroup: string(firstNonEmpty(endpoint(wn.ParentGroup), endpoint(wn.Group))),
		Status:      ParseStatus(wn.Status),
		Location:    wn.Location,
		Cost:        wn.Cost,
		Properties:  properties(wn.Properties),
	}
	switch {
	case wn.Weight != nil:
		n.Weight = *wn.Weight
	case wn.Val != nil:
		n.Weight = *wn.Val
	}
	if wn.X != nil {
		n.X = *wn.X
	}
	if wn.Y != nil {
		n.Y = *wn.Y
	}
	if wn.FX != nil {
		n.FX, n.Fixed = *wn.FX, n.Fixed|AxisX
	}
	if wn.FY != nil {
		n.FY, n.Fixed = *wn.FY, n.Fixed|AxisY
	}
	return n
}

func properties(v any) map[string]any {
	switch p := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return p
	default:
		return map[string]any{"value": p}
	}
}

func firstNonEmpty(vals ...endpoint) endpoint {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func validRecordID(id string) error {
	if err := validation.ValidateNodeID(id); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}

// EncodeSnapshot writes s as an indented JSON document in the canonical
// field names.
func EncodeSnapshot(w io.Writer, s Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}
