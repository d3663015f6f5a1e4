// Package render draws a topology snapshot onto an abstract canvas: edges,
// then node circles, then labels. Drawing never mutates the model.
package render

import (
	"math"
	"time"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/validation"
	"github.com/dd0wney/topomap/pkg/viewport"
)

// Palette.
const (
	ColorBackground = "#0f172a"
	ColorEdge       = "#475569"
	ColorNodeFill   = "#1e293b"
	ColorHover      = "#ffffff"
	ColorSelected   = "#facc15"
	ColorLabel      = "#e2e8f0"
	ColorTooltipBg  = "#1e293b"
)

// Anchor is the horizontal alignment of a text run.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
)

// Stroke describes a line or outline.
type Stroke struct {
	Color   string
	Width   float64
	Opacity float64
	Dash    []float64 // empty for a solid line
}

// TextStyle describes a text run. Text is positioned by its vertical center.
type TextStyle struct {
	Color      string
	Size       float64
	Weight     int
	Anchor     Anchor
	Background string
}

// Canvas is a drawing surface in screen coordinates.
type Canvas interface {
	Size() (w, h float64)
	Clear(background string)
	Line(x1, y1, x2, y2 float64, s Stroke)
	Circle(cx, cy, r float64, fill string, s Stroke)
	Text(x, y float64, text string, st TextStyle)
	// Measure returns the box a text run would occupy.
	Measure(text string, size float64) (w, h float64)
}

// GlyphCanvas is implemented by canvases that can draw a kind glyph inside a
// node.
type GlyphCanvas interface {
	Glyph(x, y, size float64, glyph rune, color string)
}

// Config holds drawing constants.
type Config struct {
	LabelMaxChars   int     `yaml:"label_max_chars" toml:"label_max_chars"`
	LabelKeepChars  int     `yaml:"label_keep_chars" toml:"label_keep_chars"`
	LabelMinScale   float64 `yaml:"label_min_scale" toml:"label_min_scale"`
	FontSize        float64 `yaml:"font_size" toml:"font_size"`
	LabelGap        float64 `yaml:"label_gap" toml:"label_gap"`
	EdgeWidth       float64 `yaml:"edge_width" toml:"edge_width"`
	EdgeOpacity     float64 `yaml:"edge_opacity" toml:"edge_opacity"`
	DashLength      float64 `yaml:"dash_length" toml:"dash_length"`
	NodeStrokeWidth float64 `yaml:"node_stroke_width" toml:"node_stroke_width"`
	SelectionGap    float64 `yaml:"selection_gap" toml:"selection_gap"`
	Glyphs          bool    `yaml:"glyphs" toml:"glyphs"`
	Legend          bool    `yaml:"legend" toml:"legend"`
}

// DefaultConfig returns the stock drawing settings.
func DefaultConfig() Config {
	return Config{
		LabelMaxChars:   15,
		LabelKeepChars:  12,
		LabelMinScale:   0.6,
		FontSize:        10,
		LabelGap:        5,
		EdgeWidth:       math.Sqrt2,
		EdgeOpacity:     0.6,
		DashLength:      5,
		NodeStrokeWidth: 2.5,
		SelectionGap:    4,
		Glyphs:          true,
		Legend:          true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("render").
		MinInt("label_keep_chars", c.LabelKeepChars, 1).
		MinInt("label_max_chars", c.LabelMaxChars, c.LabelKeepChars).
		MaxInt("label_max_chars", c.LabelMaxChars, 256).
		NonNegativeFloat("label_min_scale", c.LabelMinScale).
		PositiveFloat("font_size", c.FontSize).
		NonNegativeFloat("label_gap", c.LabelGap).
		PositiveFloat("edge_width", c.EdgeWidth).
		RangeFloat("edge_opacity", c.EdgeOpacity, 0, 1).
		NonNegativeFloat("dash_length", c.DashLength).
		NonNegativeFloat("node_stroke_width", c.NodeStrokeWidth).
		NonNegativeFloat("selection_gap", c.SelectionGap).
		Validate()
}

// State is the interaction state that affects drawing.
type State struct {
	Hovered  string
	Selected string
	Tooltip  string
	TooltipX float64
	TooltipY float64
}

// Stats summarizes one Draw call.
type Stats struct {
	Skipped          bool
	Edges            int
	Nodes            int
	Labels           int
	LabelsSuppressed int
	Duration         time.Duration
}

// Renderer draws snapshots.
type Renderer struct {
	cfg    Config
	logger logging.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a renderer. An invalid cfg is replaced by DefaultConfig.
func New(cfg Config, opts ...Option) *Renderer {
	r := &Renderer{logger: logging.NewNopLogger()}
	cfgErr := cfg.Validate()
	if cfgErr != nil {
		cfg = DefaultConfig()
	}
	r.cfg = cfg
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.Component("render"))
	if cfgErr != nil {
		r.logger.Warn("invalid render config, using defaults", logging.Error(cfgErr))
	}
	return r
}

// Config returns the active configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// screenNode is a node projected into screen space.
type screenNode struct {
	node    *topology.Node
	x, y, r float64
	visible bool
}

// Draw paints s onto c under transform t. A zero-size canvas draws nothing.
func (r *Renderer) Draw(c Canvas, s *topology.Snapshot, t viewport.Transform, st State) Stats {
	start := time.Now()
	var stats Stats
	w, h := c.Size()
	if !(w > 0) || !(h > 0) || !t.Valid() {
		stats.Skipped = true
		r.logger.Debug("draw skipped", logging.Float64("width", w), logging.Float64("height", h))
		return stats
	}

	c.Clear(ColorBackground)
	if s == nil {
		stats.Duration = time.Since(start)
		return stats
	}

	projected := make([]screenNode, len(s.Nodes))
	index := make(map[string]int, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		index[n.ID] = i
		sx, sy := t.Apply(n.X, n.Y)
		sr := t.Scale(n.Radius())
		projected[i] = screenNode{
			node:    n,
			x:       sx,
			y:       sy,
			r:       sr,
			visible: finite(sx) && finite(sy) && sx+sr >= 0 && sx-sr <= w && sy+sr >= 0 && sy-sr <= h,
		}
	}

	stats.Edges = r.drawEdges(c, s.Edges, projected, index, t, w, h)

	for i := range projected {
		p := &projected[i]
		if !p.visible {
			continue
		}
		r.drawNode(c, p, st, t)
		stats.Nodes++
	}

	stats.Labels, stats.LabelsSuppressed = r.drawLabels(c, projected, st, t)

	if st.Tooltip != "" && finite(st.TooltipX) && finite(st.TooltipY) {
		c.Text(st.TooltipX, st.TooltipY, st.Tooltip, TextStyle{
			Color:      ColorLabel,
			Size:       r.cfg.FontSize + 2,
			Weight:     500,
			Background: ColorTooltipBg,
		})
	}
	if r.cfg.Legend {
		r.drawLegend(c, h)
	}

	stats.Duration = time.Since(start)
	return stats
}

func (r *Renderer) drawEdges(c Canvas, edges []topology.Edge, nodes []screenNode, index map[string]int, t viewport.Transform, w, h float64) int {
	drawn := 0
	solid := Stroke{Color: ColorEdge, Width: t.Scale(r.cfg.EdgeWidth), Opacity: r.cfg.EdgeOpacity}
	dashed := solid
	if d := t.Scale(r.cfg.DashLength); d > 0 {
		dashed.Dash = []float64{d, d}
	}
	for _, e := range edges {
		si, ok := index[e.SourceID]
		if !ok {
			continue
		}
		ti, ok := index[e.TargetID]
		if !ok || si == ti {
			continue
		}
		a, b := &nodes[si], &nodes[ti]
		if !finite(a.x) || !finite(a.y) || !finite(b.x) || !finite(b.y) {
			continue
		}
		if math.Max(a.x, b.x) < 0 || math.Min(a.x, b.x) > w || math.Max(a.y, b.y) < 0 || math.Min(a.y, b.y) > h {
			continue
		}
		stroke := dashed
		if e.Kind == topology.EdgeContains {
			stroke = solid
		}
		c.Line(a.x, a.y, b.x, b.y, stroke)
		drawn++
	}
	return drawn
}

func (r *Renderer) drawNode(c Canvas, p *screenNode, st State, t viewport.Transform) {
	n := p.node
	stroke := Stroke{Color: topology.StrokeColor(n), Width: t.Scale(r.cfg.NodeStrokeWidth), Opacity: 1}
	if n.ID == st.Hovered {
		stroke.Color = ColorHover
	}
	if n.ID == st.Selected {
		c.Circle(p.x, p.y, p.r+r.cfg.SelectionGap, "", Stroke{Color: ColorSelected, Width: 2, Opacity: 1})
	}
	c.Circle(p.x, p.y, p.r, ColorNodeFill, stroke)
	if gc, ok := c.(GlyphCanvas); ok && r.cfg.Glyphs {
		gc.Glyph(p.x, p.y, p.r, topology.StyleFor(n.Kind).Glyph, stroke.Color)
	}
}

type box struct {
	x0, y0, x1, y1 float64
}

func (b box) overlaps(o box) bool {
	return b.x0 < o.x1 && o.x0 < b.x1 && b.y0 < o.y1 && o.y0 < b.y1
}

// drawLabels places labels for visible nodes. The selected and hovered
// labels are placed first; any later label whose box overlaps a placed one
// is suppressed.
func (r *Renderer) drawLabels(c Canvas, nodes []screenNode, st State, t viewport.Transform) (drawn, suppressed int) {
	if t.K < r.cfg.LabelMinScale {
		for i := range nodes {
			if nodes[i].visible {
				suppressed++
			}
		}
		return 0, suppressed
	}

	order := make([]int, 0, len(nodes))
	for _, id := range []string{st.Selected, st.Hovered} {
		if id == "" {
			continue
		}
		for i := range nodes {
			if nodes[i].visible && nodes[i].node.ID == id && !containsIndex(order, i) {
				order = append(order, i)
			}
		}
	}
	for i := range nodes {
		if nodes[i].visible && !containsIndex(order, i) {
			order = append(order, i)
		}
	}

	size := t.Scale(r.cfg.FontSize)
	style := TextStyle{Color: ColorLabel, Size: size, Weight: 500}
	placed := make([]box, 0, len(order))
	for _, i := range order {
		p := &nodes[i]
		text := Truncate(p.node.Label(), r.cfg.LabelMaxChars, r.cfg.LabelKeepChars)
		x := p.x + p.r + t.Scale(r.cfg.LabelGap)
		tw, th := c.Measure(text, size)
		b := box{x0: x, y0: p.y - th/2, x1: x + tw, y1: p.y + th/2}
		clash := false
		for _, o := range placed {
			if b.overlaps(o) {
				clash = true
				break
			}
		}
		if clash {
			suppressed++
			continue
		}
		placed = append(placed, b)
		c.Text(x, p.y, text, style)
		drawn++
	}
	return drawn, suppressed
}

func containsIndex(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// LegendEntries lists the status legend in display order.
var LegendEntries = []struct {
	Status topology.Status
	Label  string
}{
	{topology.StatusRunning, "Running"},
	{topology.StatusOK, "OK"},
	{topology.StatusDegraded, "Degraded"},
	{topology.StatusStopped, "Stopped"},
}

func (r *Renderer) drawLegend(c Canvas, h float64) {
	const (
		left   = 16.0
		bottom = 16.0
		step   = 18.0
		dot    = 5.0
	)
	style := TextStyle{Color: ColorLabel, Size: r.cfg.FontSize + 1, Weight: 500}
	for i, e := range LegendEntries {
		y := h - bottom - float64(len(LegendEntries)-1-i)*step
		color := topology.StatusColor(e.Status)
		c.Circle(left, y, dot, color, Stroke{Color: color, Width: 1, Opacity: 1})
		c.Text(left+dot+6, y, e.Label, style)
	}
}

// Truncate shortens s to keep runes plus "..." when it is longer than max
// runes.
func Truncate(s string, max, keep int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	return string(runes[:keep]) + "..."
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
