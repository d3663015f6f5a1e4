// Package interaction turns pointer, wheel and keyboard input over the
// drawing surface into pins, view transform changes and selection callbacks.
package interaction

import (
	"math"
	"sync"

	"github.com/dd0wney/topomap/pkg/logging"
	"github.com/dd0wney/topomap/pkg/metrics"
	"github.com/dd0wney/topomap/pkg/quadtree"
	"github.com/dd0wney/topomap/pkg/topology"
	"github.com/dd0wney/topomap/pkg/viewport"
)

// Graph is the part of the model the controller mutates.
type Graph interface {
	Node(id string) (topology.Node, bool)
	SetPin(id string, x, y float64) bool
	ClearPin(id string) bool
	Read(fn func(nodes []topology.Node, links []topology.Link))
}

// Engine is the part of the simulation the controller drives.
type Engine interface {
	Reheat(target float64)
	SetAlphaTarget(target float64)
	Stopped() bool
}

// Controller owns the view transform, hover, drag and selection state.
type Controller struct {
	mu sync.Mutex

	graph  Graph
	engine Engine
	cfg    Config

	transform     viewport.Transform
	width, height float64

	pressed        bool
	pressX, pressY float64
	lastX, lastY   float64
	moved          bool
	dragID         string
	panning        bool

	hoverID  string
	tooltip  Tooltip
	selected string

	onSelect  func(topology.Node)
	onCleared func()
	onView    func(viewport.Transform)

	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Controller.
type Option func(*Controller)

// OnNodeSelected registers the callback fired when a node is clicked.
func OnNodeSelected(fn func(topology.Node)) Option {
	return func(c *Controller) { c.onSelect = fn }
}

// OnSelectionCleared registers the callback fired by a click on empty canvas.
func OnSelectionCleared(fn func()) Option {
	return func(c *Controller) { c.onCleared = fn }
}

// OnViewChange registers the callback fired after every pan or zoom.
func OnViewChange(fn func(viewport.Transform)) Option {
	return func(c *Controller) { c.onView = fn }
}

// WithTransform restores a saved view transform.
func WithTransform(t viewport.Transform) Option {
	return func(c *Controller) {
		if t.Valid() {
			c.transform = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records interaction counters.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Controller) { c.metrics = r }
}

// New creates a controller. An invalid cfg is replaced by DefaultConfig.
func New(graph Graph, engine Engine, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		graph:     graph,
		engine:    engine,
		transform: viewport.Identity,
		logger:    logging.NewNopLogger(),
	}
	cfgErr := cfg.Validate()
	if cfgErr != nil {
		cfg = DefaultConfig()
	}
	c.cfg = cfg
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.Component("interaction"))
	if cfgErr != nil {
		c.logger.Warn("invalid interaction config, using defaults", logging.Error(cfgErr))
	}
	c.transform.K = viewport.Clamp(c.transform.K, cfg.MinScale, cfg.MaxScale)
	return c
}

// pending collects callbacks to run once the lock is released.
type pending struct {
	selected *topology.Node
	cleared  bool
	view     *viewport.Transform
}

func (c *Controller) fire(p pending) {
	if p.view != nil && c.onView != nil {
		c.onView(*p.view)
	}
	if p.selected != nil && c.onSelect != nil {
		c.onSelect(*p.selected)
	}
	if p.cleared && c.onCleared != nil {
		c.onCleared()
	}
}

// ignored reports whether input must be dropped because the engine has been
// stopped.
func (c *Controller) ignored(kind EventType) bool {
	if c.engine != nil && !c.engine.Stopped() {
		return false
	}
	if c.metrics != nil {
		c.metrics.RecordIgnoredEvent()
	}
	c.logger.Debug("input after teardown ignored", logging.String("event", kind.String()))
	return true
}

// Handle dispatches a queued event.
func (c *Controller) Handle(e Event) {
	switch e.Type {
	case PointerDown:
		c.PointerDown(e.X, e.Y)
	case PointerMove:
		c.PointerMove(e.X, e.Y)
	case PointerUp:
		c.PointerUp(e.X, e.Y)
	case Wheel:
		c.Wheel(e.X, e.Y, e.Delta)
	case PointerLeave:
		c.PointerLeave()
	case Resize:
		c.Resize(e.Width, e.Height)
	}
}

// hitTest returns the topmost node whose circle contains the screen point.
// Must be called with mu held.
func (c *Controller) hitTest(sx, sy float64) (string, bool) {
	x, y := c.transform.Invert(sx, sy)
	if !finite(x) || !finite(y) {
		return "", false
	}
	id, found := "", false
	c.graph.Read(func(nodes []topology.Node, _ []topology.Link) {
		if len(nodes) == 0 {
			return
		}
		pts := make([]quadtree.Point, len(nodes))
		maxR := 0.0
		for i := range nodes {
			pts[i] = quadtree.Point{X: nodes[i].X, Y: nodes[i].Y, Mass: 1}
			maxR = math.Max(maxR, nodes[i].Radius())
		}
		best := -1
		quadtree.Build(pts).ForEachNear(x, y, maxR, func(i int, p quadtree.Point) bool {
			r := nodes[i].Radius()
			if dx, dy := p.X-x, p.Y-y; dx*dx+dy*dy <= r*r && i > best {
				best = i
			}
			return true
		})
		if best >= 0 {
			id, found = nodes[best].ID, true
		}
	})
	return id, found
}

// PointerDown starts a node drag when the pointer is over a node, and a pan
// otherwise.
func (c *Controller) PointerDown(sx, sy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignored(PointerDown) || !finite(sx) || !finite(sy) {
		return
	}

	// a release lost outside the surface must not leave the old pin behind
	c.releaseDrag()
	c.resetPress()
	c.pressed = true
	c.pressX, c.pressY = sx, sy
	c.lastX, c.lastY = sx, sy

	id, ok := c.hitTest(sx, sy)
	if !ok {
		c.panning = true
		return
	}
	x, y := c.transform.Invert(sx, sy)
	if c.graph.SetPin(id, x, y) {
		c.dragID = id
		c.engine.Reheat(c.cfg.DragAlphaTarget)
		c.logger.Debug("drag start", logging.NodeID(id))
	}
}

// PointerMove updates a drag pin, pans, or updates the hover tooltip.
func (c *Controller) PointerMove(sx, sy float64) {
	c.mu.Lock()
	if c.ignored(PointerMove) || !finite(sx) || !finite(sy) {
		c.mu.Unlock()
		return
	}
	p := c.move(sx, sy)
	c.mu.Unlock()
	c.fire(p)
}

// move must be called with mu held.
func (c *Controller) move(sx, sy float64) pending {
	var p pending
	if !c.pressed {
		c.updateHover(sx, sy)
		c.lastX, c.lastY = sx, sy
		return p
	}

	if math.Hypot(sx-c.pressX, sy-c.pressY) > c.cfg.ClickThreshold {
		c.moved = true
	}
	switch {
	case c.dragID != "":
		x, y := c.transform.Invert(sx, sy)
		if !c.graph.SetPin(c.dragID, x, y) {
			// the node disappeared in a reload mid-drag
			c.logger.Debug("dragged node vanished", logging.NodeID(c.dragID))
			c.dragID = ""
			c.engine.SetAlphaTarget(0)
		}
		c.clearHover()
	case c.panning:
		if dx, dy := sx-c.lastX, sy-c.lastY; dx != 0 || dy != 0 {
			c.transform = c.transform.Translate(dx, dy)
			t := c.transform
			p.view = &t
		}
	}
	c.lastX, c.lastY = sx, sy
	return p
}

// PointerUp ends a drag or pan. A press and release within ClickThreshold is
// a click: on a node it selects it, on empty canvas it clears the selection.
func (c *Controller) PointerUp(sx, sy float64) {
	c.mu.Lock()
	if c.ignored(PointerUp) || !c.pressed {
		c.mu.Unlock()
		return
	}
	var p pending
	if finite(sx) && finite(sy) {
		p = c.move(sx, sy)
	}

	switch {
	case c.dragID != "":
		id := c.dragID
		c.graph.ClearPin(id)
		c.engine.SetAlphaTarget(0)
		if c.moved {
			if c.metrics != nil {
				c.metrics.RecordDrag()
			}
			c.logger.Debug("drag end", logging.NodeID(id))
		} else if n, ok := c.graph.Node(id); ok {
			c.selected = id
			p.selected = &n
			if c.metrics != nil {
				c.metrics.RecordSelection()
			}
			c.logger.Debug("node selected", logging.NodeID(id))
		}
	case c.panning && !c.moved:
		c.selected = ""
		p.cleared = true
	}
	c.resetPress()
	c.mu.Unlock()
	c.fire(p)
}

func (c *Controller) resetPress() {
	c.pressed = false
	c.moved = false
	c.dragID = ""
	c.panning = false
}

// Wheel zooms around the cursor. delta is in notches; positive zooms out.
func (c *Controller) Wheel(sx, sy, delta float64) {
	c.mu.Lock()
	if c.ignored(Wheel) || !finite(sx) || !finite(sy) || !finite(delta) || delta == 0 {
		c.mu.Unlock()
		return
	}
	p := c.zoomAt(sx, sy, math.Pow(c.cfg.ZoomStep, -delta))
	c.mu.Unlock()
	c.fire(p)
}

// zoomAt must be called with mu held.
func (c *Controller) zoomAt(sx, sy, factor float64) pending {
	next := c.transform.ZoomAt(sx, sy, factor, c.cfg.MinScale, c.cfg.MaxScale)
	if next.K == c.transform.K {
		return pending{}
	}
	c.transform = next
	if c.metrics != nil {
		c.metrics.SetZoom(next.K)
	}
	return pending{view: &next}
}

// PointerLeave clears hover and cancels any press in progress without
// selecting.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignored(PointerLeave) {
		return
	}
	c.releaseDrag()
	c.resetPress()
	c.clearHover()
}

// releaseDrag frees the dragged node, if any. It must be called with mu held.
func (c *Controller) releaseDrag() {
	if c.dragID == "" {
		return
	}
	c.graph.ClearPin(c.dragID)
	c.engine.SetAlphaTarget(0)
	c.logger.Debug("drag released", logging.NodeID(c.dragID))
	c.dragID = ""
}

// Resize records the surface size used by keyboard zoom and Reset.
func (c *Controller) Resize(w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignored(Resize) || !finite(w) || !finite(h) {
		return
	}
	c.width, c.height = math.Max(w, 0), math.Max(h, 0)
}

func (c *Controller) updateHover(sx, sy float64) {
	id, ok := c.hitTest(sx, sy)
	if !ok {
		c.clearHover()
		return
	}
	if id != c.hoverID {
		n, exists := c.graph.Node(id)
		if !exists {
			c.clearHover()
			return
		}
		c.hoverID = id
		c.tooltip = Tooltip{NodeID: id, Name: n.Label(), Kind: n.Kind}
	}
	c.tooltip.X = sx + c.cfg.TooltipOffsetX
	c.tooltip.Y = sy + c.cfg.TooltipOffsetY
}

func (c *Controller) clearHover() {
	c.hoverID = ""
	c.tooltip = Tooltip{}
}

// PanBy shifts the view by a screen-space offset.
func (c *Controller) PanBy(dx, dy float64) {
	c.mu.Lock()
	if c.ignored(PointerMove) || !finite(dx) || !finite(dy) {
		c.mu.Unlock()
		return
	}
	c.transform = c.transform.Translate(dx, dy)
	t := c.transform
	c.mu.Unlock()
	c.fire(pending{view: &t})
}

// ZoomBy zooms around the surface center.
func (c *Controller) ZoomBy(factor float64) {
	c.mu.Lock()
	if c.ignored(Wheel) {
		c.mu.Unlock()
		return
	}
	p := c.zoomAt(c.width/2, c.height/2, factor)
	c.mu.Unlock()
	c.fire(p)
}

// Reset fits every node into the surface.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.ignored(Resize) {
		c.mu.Unlock()
		return
	}
	first := true
	var minX, minY, maxX, maxY float64
	c.graph.Read(func(nodes []topology.Node, _ []topology.Link) {
		for i := range nodes {
			n := &nodes[i]
			r := n.Radius()
			if first {
				minX, minY, maxX, maxY = n.X-r, n.Y-r, n.X+r, n.Y+r
				first = false
				continue
			}
			minX, minY = math.Min(minX, n.X-r), math.Min(minY, n.Y-r)
			maxX, maxY = math.Max(maxX, n.X+r), math.Max(maxY, n.Y+r)
		}
	})
	next := viewport.Identity
	if !first {
		next = viewport.Fit(minX, minY, maxX, maxY, c.width, c.height, c.cfg.FitPadding, c.cfg.MinScale, c.cfg.MaxScale)
	}
	c.transform = next
	if c.metrics != nil {
		c.metrics.SetZoom(next.K)
	}
	c.mu.Unlock()
	c.fire(pending{view: &next})
}

// SelectNext moves the selection to the node after the current one in
// arena order, wrapping around.
func (c *Controller) SelectNext() {
	c.mu.Lock()
	if c.ignored(PointerUp) {
		c.mu.Unlock()
		return
	}
	var next topology.Node
	found := false
	c.graph.Read(func(nodes []topology.Node, _ []topology.Link) {
		if len(nodes) == 0 {
			return
		}
		at := -1
		for i := range nodes {
			if nodes[i].ID == c.selected {
				at = i
				break
			}
		}
		next = nodes[(at+1)%len(nodes)]
		found = true
	})
	var p pending
	if found {
		c.selected = next.ID
		if n, ok := c.graph.Node(next.ID); ok {
			p.selected = &n
		}
		if c.metrics != nil {
			c.metrics.RecordSelection()
		}
	}
	c.mu.Unlock()
	c.fire(p)
}

// ClearSelection drops the selection and fires OnSelectionCleared.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	if c.ignored(PointerUp) {
		c.mu.Unlock()
		return
	}
	c.selected = ""
	c.mu.Unlock()
	c.fire(pending{cleared: true})
}

// SetTransform replaces the view transform, e.g. to restore a saved zoom.
func (c *Controller) SetTransform(t viewport.Transform) {
	if !t.Valid() {
		return
	}
	c.mu.Lock()
	t.K = viewport.Clamp(t.K, c.cfg.MinScale, c.cfg.MaxScale)
	c.transform = t
	c.mu.Unlock()
	c.fire(pending{view: &t})
}

// Transform returns the current view transform.
func (c *Controller) Transform() viewport.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// Tooltip returns the hover tooltip, if any.
func (c *Controller) Tooltip() (Tooltip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tooltip, c.hoverID != ""
}

// Hovered returns the id of the node under the pointer.
func (c *Controller) Hovered() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hoverID
}

// Selected returns the id of the selected node.
func (c *Controller) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Dragging returns the id of the node being dragged.
func (c *Controller) Dragging() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragID
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
