// Package topology holds the infrastructure graph model: nodes with
// positions, velocities and pins, edges stored by id, and the id index that
// ties them together.
package topology

import (
	"math"
	"strings"
)

// Kind is the resource type of a node.
type Kind string

const (
	KindSubscription   Kind = "Subscription"
	KindResourceGroup  Kind = "ResourceGroup"
	KindVirtualNetwork Kind = "VirtualNetwork"
	KindSubnet         Kind = "Subnet"
	KindVirtualMachine Kind = "VirtualMachine"
	KindSQLDatabase    Kind = "SQLDatabase"
	KindStorageAccount Kind = "StorageAccount"
	KindKeyVault       Kind = "KeyVault"
	KindLoadBalancer   Kind = "LoadBalancer"
	KindFirewall       Kind = "Firewall"
	KindUnknown        Kind = "Unknown"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{
	KindSubscription, KindResourceGroup, KindVirtualNetwork, KindSubnet,
	KindVirtualMachine, KindSQLDatabase, KindStorageAccount, KindKeyVault,
	KindLoadBalancer, KindFirewall, KindUnknown,
}

// armKinds maps Azure Resource Manager type prefixes to kinds. Subnets come
// before virtual networks since their type string contains the latter.
var armKinds = []struct {
	prefix string
	kind   Kind
}{
	{"microsoft.network/virtualnetworks/subnets", KindSubnet},
	{"microsoft.network/virtualnetworks", KindVirtualNetwork},
	{"microsoft.compute/virtualmachines", KindVirtualMachine},
	{"microsoft.network/loadbalancers", KindLoadBalancer},
	{"microsoft.network/azurefirewalls", KindFirewall},
	{"microsoft.sql/servers", KindSQLDatabase},
	{"microsoft.storage/storageaccounts", KindStorageAccount},
	{"microsoft.keyvault/vaults", KindKeyVault},
	{"microsoft.resources/resourcegroups", KindResourceGroup},
	{"microsoft.resources/subscriptions", KindSubscription},
}

// ParseKind accepts canonical kind names (any case) and ARM resource type
// strings. Anything else is KindUnknown.
func ParseKind(s string) Kind {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return KindUnknown
	}
	for _, k := range Kinds {
		if strings.ToLower(string(k)) == lower {
			return k
		}
	}
	for _, a := range armKinds {
		if strings.Contains(lower, a.prefix) {
			return a.kind
		}
	}
	return KindUnknown
}

// Status drives the stroke color of a node.
type Status string

const (
	StatusRunning  Status = "Running"
	StatusStopped  Status = "Stopped"
	StatusDegraded Status = "Degraded"
	StatusOK       Status = "OK"
)

// ParseStatus maps a status string to a Status; empty or unknown values are OK.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running":
		return StatusRunning
	case "stopped", "deallocated":
		return StatusStopped
	case "degraded", "failed":
		return StatusDegraded
	default:
		return StatusOK
	}
}

// EdgeKind distinguishes containment from network/data relations.
type EdgeKind string

const (
	EdgeContains EdgeKind = "contains"
	EdgeConnects EdgeKind = "connects"
)

// ParseEdgeKind returns EdgeContains for "contains" and EdgeConnects otherwise.
func ParseEdgeKind(s string) EdgeKind {
	if strings.EqualFold(strings.TrimSpace(s), string(EdgeContains)) {
		return EdgeContains
	}
	return EdgeConnects
}

// Axis is a bit mask of pinned coordinates.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY

	AxisNone Axis = 0
	AxisBoth      = AxisX | AxisY
)

// Node is one infrastructure entity plus its layout state.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Kind        Kind           `json:"kind"`
	ParentGroup string         `json:"parentGroup,omitempty"`
	Status      Status         `json:"status"`
	Weight      float64        `json:"weight"`
	Location    string         `json:"location,omitempty"`
	Cost        string         `json:"cost,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// FX and FY are only meaningful for the axes set in Fixed.
	FX    float64 `json:"fx,omitempty"`
	FY    float64 `json:"fy,omitempty"`
	Fixed Axis    `json:"fixed,omitempty"`
}

// Pinned reports whether any axis of the node is anchored.
func (n *Node) Pinned() bool {
	return n.Fixed != AxisNone
}

// Radius is the drawn and collision radius before padding.
func (n *Node) Radius() float64 {
	return StyleFor(n.Kind).BaseRadius + n.Weight/2
}

// Finite reports whether position and velocity are all finite numbers.
func (n *Node) Finite() bool {
	return finite(n.X) && finite(n.Y) && finite(n.VX) && finite(n.VY)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Label is the display text: the name, or the id when the name is empty.
func (n *Node) Label() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is a relation between two nodes, referenced by id.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// Link is an edge resolved to node slice indexes for the engine.
type Link struct {
	Source int
	Target int
	Kind   EdgeKind
}

// Snapshot is an immutable copy of the model, or an inbound graph.
type Snapshot struct {
	Revision string `json:"revision,omitempty"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
}

// Lookup returns the node with the given id.
func (s *Snapshot) Lookup(id string) (Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return s.Nodes[i], true
		}
	}
	return Node{}, false
}
