package topology

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const originalShape = `{
  "nodes": [
    {"id": "sub-1", "name": "Production Subscription", "type": "Subscription", "group": "root", "status": "OK", "val": 20},
    {"id": "rg-1", "name": "rg-prod-eastus", "type": "ResourceGroup", "group": "sub-1", "status": "OK", "val": 15, "location": "eastus"},
    {"id": "vm-1", "name": "vm-web-01", "type": "VirtualMachine", "group": "rg-1", "status": "Running", "val": 8, "cost": "$140/mo",
     "properties": {"size": "Standard_B2s", "os": "Linux"}}
  ],
  "links": [
    {"source": "sub-1", "target": "rg-1", "type": "contains"},
    {"source": {"id": "rg-1", "x": 10}, "target": "vm-1", "type": "contains"},
    {"source": "vm-1", "target": "rg-1", "type": "connects"}
  ]
}`

func TestDecodeSnapshot_OriginalFieldNames(t *testing.T) {
	s, diags, err := DecodeSnapshotBytes([]byte(originalShape), FormatJSON)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	if len(s.Nodes) != 3 || len(s.Edges) != 3 {
		t.Fatalf("got %d nodes, %d edges", len(s.Nodes), len(s.Edges))
	}

	vm, ok := s.Lookup("vm-1")
	if !ok {
		t.Fatal("vm-1 missing")
	}
	if vm.Kind != KindVirtualMachine || vm.ParentGroup != "rg-1" || vm.Status != StatusRunning || vm.Weight != 8 {
		t.Errorf("vm-1 = %+v", vm)
	}
	if vm.Properties["size"] != "Standard_B2s" || vm.Cost != "$140/mo" {
		t.Errorf("opaque fields not passed through: %+v", vm)
	}
	if e := s.Edges[1]; e.SourceID != "rg-1" || e.TargetID != "vm-1" || e.Kind != EdgeContains {
		t.Errorf("embedded endpoint edge = %+v", e)
	}
	if e := s.Edges[2]; e.Kind != EdgeConnects {
		t.Errorf("edge kind = %q, want connects", e.Kind)
	}
}

func TestDecodeSnapshot_CanonicalFieldNames(t *testing.T) {
	doc := `{"nodes":[{"id":"a","kind":"KeyVault","parentGroup":"rg","weight":4},{"id":"b"}],
	         "edges":[{"sourceId":"a","targetId":"b","kind":"connects"}]}`
	s, _, err := DecodeSnapshotBytes([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	a, _ := s.Lookup("a")
	if a.Kind != KindKeyVault || a.ParentGroup != "rg" || a.Weight != 4 {
		t.Errorf("a = %+v", a)
	}
	if len(s.Edges) != 1 || s.Edges[0].SourceID != "a" {
		t.Errorf("edges = %+v", s.Edges)
	}
}

func TestDecodeSnapshot_YAML(t *testing.T) {
	doc := `
nodes:
  - id: vnet-1
    type: Microsoft.Network/virtualNetworks
    status: degraded
    fx: 12
    fy: -4
  - id: snet-1
    kind: Subnet
    group: vnet-1
edges:
  - source: vnet-1
    target: snet-1
    kind: contains
`
	s, diags, err := DecodeSnapshot(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	vnet, _ := s.Lookup("vnet-1")
	if vnet.Kind != KindVirtualNetwork || vnet.Status != StatusDegraded {
		t.Errorf("vnet-1 = %+v", vnet)
	}
	if vnet.Fixed != AxisBoth || vnet.FX != 12 || vnet.FY != -4 {
		t.Errorf("vnet-1 pin = %v (%v,%v)", vnet.Fixed, vnet.FX, vnet.FY)
	}
	if len(s.Edges) != 1 || s.Edges[0].Kind != EdgeContains {
		t.Errorf("edges = %+v", s.Edges)
	}
}

func TestDecodeSnapshot_InvalidRecordsBecomeDiagnostics(t *testing.T) {
	doc := `{"nodes":[{"name":"no id"},{"id":"neg","val":-2},{"id":"ok"}],
	         "links":[{"source":"ok"},{"source":"ok","target":"neg"}]}`
	s, diags, err := DecodeSnapshotBytes([]byte(doc), FormatJSON)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if len(s.Nodes) != 1 || s.Nodes[0].ID != "ok" {
		t.Errorf("nodes = %+v, want only ok", s.Nodes)
	}
	if len(s.Edges) != 1 {
		t.Errorf("edges = %+v, want one", s.Edges)
	}
	if len(diags) != 3 {
		t.Fatalf("diagnostics = %v, want 3", diags)
	}
	for _, d := range diags {
		if !errors.Is(d, ErrInvalidRecord) {
			t.Errorf("diagnostic %v does not wrap ErrInvalidRecord", d)
		}
	}
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"empty json", "", FormatJSON},
		{"truncated json", `{"nodes":[`, FormatJSON},
		{"bad yaml", "nodes: [\n  - id: a\n bad", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeSnapshotBytes([]byte(tt.doc), tt.format)
			if !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("err = %v, want ErrDecodeFailed", err)
			}
		})
	}
}

func TestReadSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topology.json")
	if err := os.WriteFile(path, []byte(originalShape), 0o600); err != nil {
		t.Fatal(err)
	}

	s, _, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatalf("ReadSnapshotFile() error = %v", err)
	}
	if len(s.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(s.Nodes))
	}

	if _, _, err := ReadSnapshotFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeSnapshot_RoundTripsThroughModel(t *testing.T) {
	s, _, err := DecodeSnapshotBytes([]byte(originalShape), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel()
	m.LoadSnapshot(s)

	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, m.Get()); err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}

	back, _, err := DecodeSnapshot(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("decode of encoded snapshot: %v", err)
	}
	m2 := NewModel()
	report := m2.LoadSnapshot(back)
	if report.Placed != 0 {
		t.Errorf("Placed = %d, want 0 since positions were encoded", report.Placed)
	}
	for _, n := range m.Get().Nodes {
		n2, ok := m2.Node(n.ID)
		if !ok || n2.X != n.X || n2.Y != n.Y {
			t.Errorf("%s: got (%v,%v), want (%v,%v)", n.ID, n2.X, n2.Y, n.X, n.Y)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("a.YML") != FormatYAML || FormatForPath("a.yaml") != FormatYAML {
		t.Error("yaml extensions not detected")
	}
	if FormatForPath("a.json") != FormatJSON || FormatForPath("noext") != FormatJSON {
		t.Error("json should be the default")
	}
}
