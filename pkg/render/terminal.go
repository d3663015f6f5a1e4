package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille cells are 2 dots wide and 4 dots tall; one canvas pixel is one dot.
const (
	dotsX = 2
	dotsY = 4
)

// brailleBits[row][col] is the dot bit of a braille cell.
var brailleBits = [dotsY][dotsX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cell struct {
	dots      uint8
	color     string
	text      rune
	textColor string
	textBg    string
}

// TerminalCanvas rasterizes onto braille sub-cells and overlays text runs
// cell by cell. String renders the grid with lipgloss colors.
type TerminalCanvas struct {
	cols, rows int
	cells      []cell
}

// NewTerminalCanvas creates a canvas of cols by rows terminal cells.
func NewTerminalCanvas(cols, rows int) *TerminalCanvas {
	cols, rows = max(cols, 0), max(rows, 0)
	return &TerminalCanvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

// Cells returns the grid size in terminal cells.
func (t *TerminalCanvas) Cells() (cols, rows int) {
	return t.cols, t.rows
}

func (t *TerminalCanvas) Size() (float64, float64) {
	return float64(t.cols * dotsX), float64(t.rows * dotsY)
}

func (t *TerminalCanvas) Clear(string) {
	clear(t.cells)
}

func (t *TerminalCanvas) dot(x, y int, color string) {
	if x < 0 || y < 0 || x >= t.cols*dotsX || y >= t.rows*dotsY {
		return
	}
	c := &t.cells[(y/dotsY)*t.cols+x/dotsX]
	c.dots |= brailleBits[y%dotsY][x%dotsX]
	c.color = color
}

// Line draws with Bresenham's algorithm, skipping the gaps of a dash pattern.
func (t *TerminalCanvas) Line(x1, y1, x2, y2 float64, st Stroke) {
	if !finite(x1) || !finite(y1) || !finite(x2) || !finite(y2) {
		return
	}
	w, h := t.Size()
	// keep pathological zoom levels from walking millions of dots
	if math.Hypot(x2-x1, y2-y1) > 4*(w+h) {
		x1, y1, x2, y2 = clipLine(x1, y1, x2, y2, w, h)
	}
	ax, ay := int(math.Round(x1)), int(math.Round(y1))
	bx, by := int(math.Round(x2)), int(math.Round(y2))
	dx, dy := abs(bx-ax), -abs(by-ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	on, off := 0, 0
	if len(st.Dash) >= 2 {
		on, off = max(int(math.Round(st.Dash[0])), 1), max(int(math.Round(st.Dash[1])), 1)
	}
	err := dx + dy
	for step := 0; ; step++ {
		if on == 0 || step%(on+off) < on {
			t.dot(ax, ay, st.Color)
		}
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ax += sx
		}
		if e2 <= dx {
			err += dx
			ay += sy
		}
	}
}

// clipLine shortens a segment to the part that can touch a w by h surface
// plus a margin. Segments entirely outside collapse to a point off screen.
func clipLine(x1, y1, x2, y2, w, h float64) (float64, float64, float64, float64) {
	const margin = 2.0
	minX, minY, maxX, maxY := -margin, -margin, w+margin, h+margin
	t0, t1 := 0.0, 1.0
	dx, dy := x2-x1, y2-y1
	for _, edge := range [4][2]float64{
		{-dx, x1 - minX},
		{dx, maxX - x1},
		{-dy, y1 - minY},
		{dy, maxY - y1},
	} {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return -margin, -margin, -margin, -margin
			}
			continue
		}
		r := q / p
		if p < 0 {
			t0 = math.Max(t0, r)
		} else {
			t1 = math.Min(t1, r)
		}
	}
	if t0 > t1 {
		return -margin, -margin, -margin, -margin
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy
}

// Circle draws the outline in the stroke color. Terminals have no fill that
// reads well at braille resolution, so fill is only used when there is no
// stroke.
func (t *TerminalCanvas) Circle(cx, cy, r float64, fill string, st Stroke) {
	if !finite(cx) || !finite(cy) || !finite(r) {
		return
	}
	color := st.Color
	if color == "" {
		color = fill
	}
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	rad := int(math.Round(r))
	if rad <= 0 {
		t.dot(x0, y0, color)
		return
	}
	w, h := t.Size()
	if rad > int(w+h) {
		return
	}
	x, y, d := rad, 0, 1-rad
	for x >= y {
		for _, p := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			t.dot(x0+p[0], y0+p[1], color)
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func (t *TerminalCanvas) Text(x, y float64, text string, st TextStyle) {
	if !finite(x) || !finite(y) {
		return
	}
	runes := []rune(text)
	col := int(math.Floor(x / dotsX))
	row := int(math.Floor(y / dotsY))
	if st.Anchor == AnchorMiddle {
		col -= len(runes) / 2
	}
	if row < 0 || row >= t.rows {
		return
	}
	for i, r := range runes {
		c := col + i
		if c < 0 || c >= t.cols {
			continue
		}
		cl := &t.cells[row*t.cols+c]
		cl.text = r
		cl.textColor = st.Color
		cl.textBg = st.Background
	}
}

// Glyph places the kind glyph in the cell under the node center.
func (t *TerminalCanvas) Glyph(x, y, _ float64, glyph rune, color string) {
	if glyph == 0 || !finite(x) || !finite(y) {
		return
	}
	col, row := int(math.Floor(x/dotsX)), int(math.Floor(y/dotsY))
	if col < 0 || row < 0 || col >= t.cols || row >= t.rows {
		return
	}
	c := &t.cells[row*t.cols+col]
	c.text = glyph
	c.textColor = color
	c.textBg = ""
}

// Measure counts one cell per display column.
func (t *TerminalCanvas) Measure(text string, _ float64) (float64, float64) {
	return float64(lipgloss.Width(text) * dotsX), dotsY
}

// String renders the grid, one line per row, grouping runs of equal style.
func (t *TerminalCanvas) String() string {
	var out strings.Builder
	var run strings.Builder
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var fg, bg string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle()
			if fg != "" {
				style = style.Foreground(lipgloss.Color(fg))
			}
			if bg != "" {
				style = style.Background(lipgloss.Color(bg))
			}
			out.WriteString(style.Render(run.String()))
			run.Reset()
		}
		for col := 0; col < t.cols; col++ {
			c := t.cells[row*t.cols+col]
			ch, cfg, cbg := ' ', "", ""
			switch {
			case c.text != 0:
				ch, cfg, cbg = c.text, c.textColor, c.textBg
			case c.dots != 0:
				ch, cfg = rune(0x2800)+rune(c.dots), c.color
			}
			if cfg != fg || cbg != bg {
				flush()
				fg, bg = cfg, cbg
			}
			run.WriteRune(ch)
		}
		flush()
	}
	return out.String()
}

// Plain renders the grid without color escapes.
func (t *TerminalCanvas) Plain() string {
	var out strings.Builder
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		for col := 0; col < t.cols; col++ {
			c := t.cells[row*t.cols+col]
			switch {
			case c.text != 0:
				out.WriteRune(c.text)
			case c.dots != 0:
				out.WriteRune(rune(0x2800) + rune(c.dots))
			default:
				out.WriteByte(' ')
			}
		}
	}
	return out.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
