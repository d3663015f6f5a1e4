// Package quadtree is a point quadtree with Barnes-Hut aggregation, rebuilt
// from scratch on every simulation tick.
package quadtree

import "math"

// MaxDepth bounds subdivision. Points closer than the cell size at this depth
// share a leaf bucket.
const MaxDepth = 32

// Point is one body. Mass is the weight used for centers of mass.
type Point struct {
	X, Y float64
	Mass float64
}

// Body is what Accumulate hands to its callback: a single point (Index >= 0)
// or the aggregate of a far cell (Index == -1).
type Body struct {
	X, Y  float64
	Mass  float64
	Index int
	Count int
}

type cell struct {
	x, y, size float64
	depth      int

	// center of mass and totals
	cx, cy float64
	mass   float64
	count  int

	bodies   []int
	children *[4]*cell
}

// Tree is an immutable quadtree over a point set.
type Tree struct {
	points []Point
	root   *cell

	minX, minY, maxX, maxY float64
}

// Build indexes points. Non-finite points are left out of the tree but keep
// their index slot.
func Build(points []Point) *Tree {
	t := &Tree{points: points}

	first := true
	for _, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		if first {
			t.minX, t.maxX, t.minY, t.maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		t.minX = math.Min(t.minX, p.X)
		t.maxX = math.Max(t.maxX, p.X)
		t.minY = math.Min(t.minY, p.Y)
		t.maxY = math.Max(t.maxY, p.Y)
	}
	if first {
		return t
	}

	// Square root cell with a margin so boundary points fall strictly inside.
	size := math.Max(t.maxX-t.minX, t.maxY-t.minY)
	size = math.Max(size*1.1, 1)
	cx := (t.minX + t.maxX) / 2
	cy := (t.minY + t.maxY) / 2
	t.root = &cell{x: cx - size/2, y: cy - size/2, size: size}

	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		t.root.insert(points, i)
	}
	return t
}

func (c *cell) insert(points []Point, i int) {
	p := points[i]
	c.addMass(p)

	if c.children == nil {
		if len(c.bodies) == 0 || c.depth >= MaxDepth || coincident(points[c.bodies[0]], p) {
			c.bodies = append(c.bodies, i)
			return
		}
		c.split(points)
	}
	c.child(p.X, p.Y).insert(points, i)
}

func (c *cell) addMass(p Point) {
	total := c.mass + p.Mass
	if total != 0 {
		c.cx = (c.cx*c.mass + p.X*p.Mass) / total
		c.cy = (c.cy*c.mass + p.Y*p.Mass) / total
	} else {
		// massless points still need a representative position
		n := float64(c.count)
		c.cx = (c.cx*n + p.X) / (n + 1)
		c.cy = (c.cy*n + p.Y) / (n + 1)
	}
	c.mass = total
	c.count++
}

func (c *cell) split(points []Point) {
	half := c.size / 2
	c.children = &[4]*cell{
		{x: c.x, y: c.y, size: half, depth: c.depth + 1},
		{x: c.x + half, y: c.y, size: half, depth: c.depth + 1},
		{x: c.x, y: c.y + half, size: half, depth: c.depth + 1},
		{x: c.x + half, y: c.y + half, size: half, depth: c.depth + 1},
	}
	moved := c.bodies
	c.bodies = nil
	for _, j := range moved {
		c.child(points[j].X, points[j].Y).insert(points, j)
	}
}

func (c *cell) child(x, y float64) *cell {
	half := c.size / 2
	q := 0
	if x >= c.x+half {
		q |= 1
	}
	if y >= c.y+half {
		q |= 2
	}
	return c.children[q]
}

func (c *cell) contains(x, y float64) bool {
	return x >= c.x && x <= c.x+c.size && y >= c.y && y <= c.y+c.size
}

// distance from (x, y) to the nearest point of the cell square, squared
func (c *cell) dist2(x, y float64) float64 {
	dx := math.Max(math.Max(c.x-x, 0), x-(c.x+c.size))
	dy := math.Max(math.Max(c.y-y, 0), y-(c.y+c.size))
	return dx*dx + dy*dy
}

// Len returns the number of indexed points.
func (t *Tree) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.count
}

// Bounds returns the bounding box of the indexed points.
func (t *Tree) Bounds() (minX, minY, maxX, maxY float64) {
	return t.minX, t.minY, t.maxX, t.maxY
}

// ForEachNear calls fn for every point within distance r of (x, y). The walk
// stops early when fn returns false.
func (t *Tree) ForEachNear(x, y, r float64, fn func(i int, p Point) bool) {
	if t.root == nil || r < 0 || !finite(x) || !finite(y) {
		return
	}
	r2 := r * r
	var walk func(c *cell) bool
	walk = func(c *cell) bool {
		if c == nil || c.count == 0 || c.dist2(x, y) > r2 {
			return true
		}
		if c.children == nil {
			for _, i := range c.bodies {
				p := t.points[i]
				dx, dy := p.X-x, p.Y-y
				if dx*dx+dy*dy <= r2 && !fn(i, p) {
					return false
				}
			}
			return true
		}
		for _, ch := range c.children {
			if !walk(ch) {
				return false
			}
		}
		return true
	}
	walk(t.root)
}

// Find returns the index of the point nearest to (x, y) within radius r.
func (t *Tree) Find(x, y, r float64) (int, bool) {
	best, bestD := -1, math.Inf(1)
	t.ForEachNear(x, y, r, func(i int, p Point) bool {
		dx, dy := p.X-x, p.Y-y
		if d := dx*dx + dy*dy; d < bestD {
			best, bestD = i, d
		}
		return true
	})
	return best, best >= 0
}

// Accumulate walks the tree on behalf of point i at (x, y). A cell whose
// width over its distance to (x, y) is below theta, and which does not hold
// (x, y) itself, is passed to fn as one aggregate body. Other cells are
// opened down to single points; point i itself is skipped. With theta 0 every
// other point is visited exactly once.
func (t *Tree) Accumulate(i int, x, y, theta float64, fn func(b Body)) {
	if t.root == nil {
		return
	}
	theta2 := theta * theta
	var walk func(c *cell)
	walk = func(c *cell) {
		if c == nil || c.count == 0 {
			return
		}
		if c.children != nil && theta2 > 0 && !c.contains(x, y) {
			dx, dy := c.cx-x, c.cy-y
			if l := dx*dx + dy*dy; l > 0 && c.size*c.size < theta2*l {
				fn(Body{X: c.cx, Y: c.cy, Mass: c.mass, Index: -1, Count: c.count})
				return
			}
		}
		if c.children == nil {
			for _, j := range c.bodies {
				if j == i {
					continue
				}
				p := t.points[j]
				fn(Body{X: p.X, Y: p.Y, Mass: p.Mass, Index: j, Count: 1})
			}
			return
		}
		for _, ch := range c.children {
			walk(ch)
		}
	}
	walk(t.root)
}

func coincident(a, b Point) bool {
	return a.X == b.X && a.Y == b.Y
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
