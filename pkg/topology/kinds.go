package topology

// KindStyle is the per-kind visual table entry. Adding a resource kind means
// adding a row here; the engine never branches on kind.
type KindStyle struct {
	Icon       string
	Glyph      rune
	BaseRadius float64
	Color      string // replaces the OK status color when set
}

var kindStyles = map[Kind]KindStyle{
	KindSubscription:   {Icon: "subscription", Glyph: '◆', BaseRadius: 35},
	KindResourceGroup:  {Icon: "resource-group", Glyph: '▣', BaseRadius: 25},
	KindVirtualNetwork: {Icon: "vnet", Glyph: '◎', BaseRadius: 20},
	KindSubnet:         {Icon: "subnet", Glyph: '▢', BaseRadius: 15},
	KindVirtualMachine: {Icon: "vm", Glyph: '■', BaseRadius: 12},
	KindSQLDatabase:    {Icon: "sql", Glyph: '⛁', BaseRadius: 12},
	KindStorageAccount: {Icon: "storage", Glyph: '▤', BaseRadius: 12},
	KindKeyVault:       {Icon: "key-vault", Glyph: '⚿', BaseRadius: 12},
	KindLoadBalancer:   {Icon: "load-balancer", Glyph: '⇋', BaseRadius: 12},
	KindFirewall:       {Icon: "firewall", Glyph: '▲', BaseRadius: 12, Color: "#f97316"},
	KindUnknown:        {Icon: "unknown", Glyph: '?', BaseRadius: 12},
}

// StyleFor returns the style row for a kind, falling back to Unknown.
func StyleFor(k Kind) KindStyle {
	if s, ok := kindStyles[k]; ok {
		return s
	}
	return kindStyles[KindUnknown]
}

// Status colors.
const (
	ColorRunning  = "#22c55e"
	ColorOK       = "#3b82f6"
	ColorStopped  = "#94a3b8"
	ColorDegraded = "#ef4444"
	ColorFallback = "#64748b"
)

var statusColors = map[Status]string{
	StatusRunning:  ColorRunning,
	StatusOK:       ColorOK,
	StatusStopped:  ColorStopped,
	StatusDegraded: ColorDegraded,
}

// StatusColor returns the stroke color for a status.
func StatusColor(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return ColorFallback
}

// StrokeColor is the status color, except that a kind with a Color override
// replaces the plain OK color.
func StrokeColor(n *Node) string {
	if c := StyleFor(n.Kind).Color; c != "" && n.Status == StatusOK {
		return c
	}
	return StatusColor(n.Status)
}
