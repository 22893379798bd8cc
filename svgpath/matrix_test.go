package svgpath

import (
	"math"
	"testing"
)

func nearEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComposeOrder(t *testing.T) {
	// a translation applied first, then a scale on top
	m := Identity.Scale(2, 2).Translate(10, 0)

	x, y := m.Transform(0, 0)
	if !nearEq(x, 20) || !nearEq(y, 0) {
		t.Errorf("(0,0) mapped to (%g,%g), want (20,0)", x, y)
	}
	x, y = m.Transform(1, 0)
	if !nearEq(x, 22) || !nearEq(y, 0) {
		t.Errorf("(1,0) mapped to (%g,%g), want (22,0)", x, y)
	}
}

func TestMultAppliesRightFirst(t *testing.T) {
	trans := Identity.Translate(10, 0)
	scale := Identity.Scale(2, 2)

	x, y := trans.Mult(scale).Transform(1, 0)
	if !nearEq(x, 12) || !nearEq(y, 0) {
		t.Errorf("translate·scale maps (1,0) to (%g,%g), want (12,0)", x, y)
	}
	x, y = scale.Mult(trans).Transform(1, 0)
	if !nearEq(x, 22) || !nearEq(y, 0) {
		t.Errorf("scale·translate maps (1,0) to (%g,%g), want (22,0)", x, y)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	m := Identity.Translate(3, -7).Rotate(0.3).Scale(2, 0.5).SkewX(0.1)
	inv, err := m.Invert()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range [][2]float64{{0, 0}, {1, 0}, {-5, 12.5}, {100, 3}} {
		x, y := m.Transform(p[0], p[1])
		x, y = inv.Transform(x, y)
		if !nearEq(x, p[0]) || !nearEq(y, p[1]) {
			t.Errorf("round trip of (%g,%g) gave (%g,%g)", p[0], p[1], x, y)
		}
	}
}

func TestInvertSingular(t *testing.T) {
	for _, m := range []Matrix2D{
		Identity.Scale(0, 1),
		Identity.Scale(1, 0),
		{1, 2, 2, 4, 0, 0}, // rank one
	} {
		if !m.IsSingular() {
			t.Errorf("%v not reported singular", m)
		}
		if _, err := m.Invert(); err != ErrSingularMatrix {
			t.Errorf("Invert(%v) returned %v, want ErrSingularMatrix", m, err)
		}
	}
}

func TestMaxScale(t *testing.T) {
	if s := Identity.MaxScale(); !nearEq(s, 1) {
		t.Errorf("identity MaxScale = %g", s)
	}
	if s := Identity.Scale(3, 2).MaxScale(); !nearEq(s, 3) {
		t.Errorf("scale(3,2) MaxScale = %g, want 3", s)
	}
	// rotation preserves lengths
	if s := Identity.Rotate(1.2).MaxScale(); !nearEq(s, 1) {
		t.Errorf("rotation MaxScale = %g, want 1", s)
	}
	// translation does not affect stretch
	if s := Identity.Translate(100, -40).MaxScale(); !nearEq(s, 1) {
		t.Errorf("translation MaxScale = %g, want 1", s)
	}
}

func TestTFixed(t *testing.T) {
	m := Identity.Translate(2, 3)
	got := m.TFixed(ToFixedP(1, 1))
	want := ToFixedP(3, 4)
	if got != want {
		t.Errorf("TFixed gave %v, want %v", got, want)
	}
}
