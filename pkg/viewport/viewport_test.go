package viewport

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTransform_ApplyInvert(t *testing.T) {
	tr := Transform{X: 40, Y: -20, K: 2.5}
	sx, sy := tr.Apply(10, 30)
	if sx != 65 || sy != 55 {
		t.Errorf("Apply = (%v,%v), want (65,55)", sx, sy)
	}
	x, y := tr.Invert(sx, sy)
	if !near(x, 10) || !near(y, 30) {
		t.Errorf("Invert = (%v,%v), want (10,30)", x, y)
	}
	if tr.Scale(4) != 10 {
		t.Errorf("Scale(4) = %v, want 10", tr.Scale(4))
	}
}

func TestTransform_ZoomAtKeepsCursorPoint(t *testing.T) {
	tr := Transform{X: 100, Y: 50, K: 1}
	px, py := 320.0, 240.0
	bx, by := tr.Invert(px, py)

	z := tr.ZoomAt(px, py, 1.5, 0.1, 4)
	if z.K != 1.5 {
		t.Errorf("K = %v, want 1.5", z.K)
	}
	ax, ay := z.Invert(px, py)
	if !near(ax, bx) || !near(ay, by) {
		t.Errorf("point under cursor moved: (%v,%v) -> (%v,%v)", bx, by, ax, ay)
	}
}

func TestTransform_ZoomClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  float64
		factor float64
		want   float64
	}{
		{"max", 3, 10, 4},
		{"min", 0.2, 0.01, 0.1},
		{"zero factor ignored", 2, 0, 2},
		{"negative factor ignored", 2, -1, 2},
		{"nan factor ignored", 2, math.NaN(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := Transform{K: tt.start}.ZoomAt(0, 0, tt.factor, 0.1, 4)
			if z.K != tt.want {
				t.Errorf("K = %v, want %v", z.K, tt.want)
			}
		})
	}
}

func TestTransform_DegenerateScale(t *testing.T) {
	tr := Transform{X: 10, Y: 10}
	x, y := tr.Invert(20, 30)
	if x != 10 || y != 20 {
		t.Errorf("Invert with K=0 = (%v,%v), want unit scale", x, y)
	}
	if tr.Valid() {
		t.Error("K=0 transform reported valid")
	}
	if !Identity.Valid() {
		t.Error("Identity reported invalid")
	}
}

func TestFit(t *testing.T) {
	tr := Fit(-100, -50, 100, 50, 800, 600, 50, 0.1, 4)
	// box is 200x100, usable area 700x500
	if !near(tr.K, 3.5) {
		t.Errorf("K = %v, want 3.5", tr.K)
	}
	cx, cy := tr.Apply(0, 0)
	if !near(cx, 400) || !near(cy, 300) {
		t.Errorf("box center maps to (%v,%v), want (400,300)", cx, cy)
	}

	single := Fit(5, 5, 5, 5, 800, 600, 20, 0.1, 4)
	if single.K != 1 {
		t.Errorf("single point K = %v, want 1", single.K)
	}
	if Fit(0, 0, 10, 10, 0, 600, 0, 0.1, 4) != Identity {
		t.Error("zero-size surface should return Identity")
	}
	huge := Fit(0, 0, 1e6, 1e6, 800, 600, 0, 0.1, 4)
	if huge.K != 0.1 {
		t.Errorf("K = %v, want clamped 0.1", huge.K)
	}
}
