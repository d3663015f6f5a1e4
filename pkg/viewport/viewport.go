// Package viewport holds the pan/zoom transform between simulation space and
// screen space.
package viewport

import "math"

// Transform maps a simulation point p to the screen point p*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the unscaled, untranslated transform.
var Identity = Transform{K: 1}

// Apply maps simulation coordinates to screen coordinates.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps screen coordinates to simulation coordinates.
func (t Transform) Invert(sx, sy float64) (float64, float64) {
	k := t.scale()
	return (sx - t.X) / k, (sy - t.Y) / k
}

// Scale returns a length in simulation units as screen units.
func (t Transform) Scale(d float64) float64 {
	return d * t.scale()
}

// Translate shifts the transform by a screen-space offset.
func (t Transform) Translate(dx, dy float64) Transform {
	t.X += dx
	t.Y += dy
	return t
}

// ZoomAt multiplies the scale by factor, clamped to [min, max], keeping the
// simulation point under screen point (px, py) fixed.
func (t Transform) ZoomAt(px, py, factor, min, max float64) Transform {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return t
	}
	k := Clamp(t.scale()*factor, min, max)
	x, y := t.Invert(px, py)
	return Transform{X: px - x*k, Y: py - y*k, K: k}
}

// Valid reports whether every component is finite and the scale positive.
func (t Transform) Valid() bool {
	return finite(t.X) && finite(t.Y) && finite(t.K) && t.K > 0
}

func (t Transform) scale() float64 {
	if !(t.K > 0) {
		return 1
	}
	return t.K
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Fit returns the transform that shows the box [minX,maxX]x[minY,maxY] inside
// a w by h surface with padding on every side, scale clamped to
// [minK, maxK].
func Fit(minX, minY, maxX, maxY, w, h, padding, minK, maxK float64) Transform {
	if w <= 0 || h <= 0 {
		return Identity
	}
	bw, bh := maxX-minX, maxY-minY
	aw, ah := w-2*padding, h-2*padding
	if aw <= 0 || ah <= 0 {
		aw, ah = w, h
	}
	k := 1.0
	switch {
	case bw > 0 && bh > 0:
		k = math.Min(aw/bw, ah/bh)
	case bw > 0:
		k = aw / bw
	case bh > 0:
		k = ah / bh
	}
	k = Clamp(k, minK, maxK)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return Transform{X: w/2 - cx*k, Y: h/2 - cy*k, K: k}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
