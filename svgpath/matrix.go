package svgpath

import (
	"errors"
	"math"

	"golang.org/x/image/math/fixed"
)

// Matrix2D represents an SVG style affine matrix,
// mapping (x,y) to (A*x + C*y + E, B*x + D*y + F):
//
//	[A C E]
//	[B D F]
type Matrix2D struct {
	A, B, C, D, E, F float64
}

// Identity is the identity matrix.
var Identity = Matrix2D{1, 0, 0, 1, 0, 0}

// ErrSingularMatrix is returned when a non-invertible matrix
// would have to be inverted.
var ErrSingularMatrix = errors.New("svgpath: singular transform matrix")

// Mult returns a.Mult(b), the combined effect of applying b first, a second.
// Composing the entries of an SVG transform list left to right is
// m = m.Mult(entry).
func (a Matrix2D) Mult(b Matrix2D) Matrix2D {
	return Matrix2D{
		A: a.A*b.A + a.C*b.B,
		B: a.B*b.A + a.D*b.B,
		C: a.A*b.C + a.C*b.D,
		D: a.B*b.C + a.D*b.D,
		E: a.A*b.E + a.C*b.F + a.E,
		F: a.B*b.E + a.D*b.F + a.F,
	}
}

// Translate composes a translation by x, y onto a.
func (a Matrix2D) Translate(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, 0, 1, x, y})
}

// Scale composes a scale by x, y onto a.
func (a Matrix2D) Scale(x, y float64) Matrix2D {
	return a.Mult(Matrix2D{x, 0, 0, y, 0, 0})
}

// Rotate composes a rotation of theta radians onto a.
func (a Matrix2D) Rotate(theta float64) Matrix2D {
	return a.Mult(Matrix2D{math.Cos(theta), math.Sin(theta),
		-math.Sin(theta), math.Cos(theta), 0, 0})
}

// SkewX composes an x axis skew of theta radians onto a.
func (a Matrix2D) SkewX(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, 0, math.Tan(theta), 1, 0, 0})
}

// SkewY composes a y axis skew of theta radians onto a.
func (a Matrix2D) SkewY(theta float64) Matrix2D {
	return a.Mult(Matrix2D{1, math.Tan(theta), 0, 1, 0, 0})
}

// Determinant returns A*D - C*B.
func (a Matrix2D) Determinant() float64 {
	return a.A*a.D - a.C*a.B
}

const singularEps = 1e-12

// IsSingular reports whether a cannot be inverted.
func (a Matrix2D) IsSingular() bool {
	return math.Abs(a.Determinant()) < singularEps
}

// Invert returns the inverse of a, or ErrSingularMatrix when the
// determinant is too close to zero. Singular matrices are never
// silently inverted.
func (a Matrix2D) Invert() (Matrix2D, error) {
	det := a.Determinant()
	if math.Abs(det) < singularEps {
		return Identity, ErrSingularMatrix
	}
	return Matrix2D{
		A: a.D / det,
		B: -a.B / det,
		C: -a.C / det,
		D: a.A / det,
		E: (a.C*a.F - a.D*a.E) / det,
		F: (a.B*a.E - a.A*a.F) / det,
	}, nil
}

// Transform applies a to the point x, y.
func (a Matrix2D) Transform(x, y float64) (x1, y1 float64) {
	return a.A*x + a.C*y + a.E, a.B*x + a.D*y + a.F
}

// TFixed transforms the fixed point v by a.
func (a Matrix2D) TFixed(v fixed.Point26_6) (t fixed.Point26_6) {
	x, y := float64(v.X)/64, float64(v.Y)/64
	x1, y1 := a.Transform(x, y)
	t.X = fixed.Int26_6(x1 * 64)
	t.Y = fixed.Int26_6(y1 * 64)
	return t
}

// MaxScale returns an upper bound on how much a stretches distances,
// the larger row norm of the linear part. Flattening tolerances given
// in target pixel units are divided by it to get local units.
func (a Matrix2D) MaxScale() float64 {
	return math.Max(math.Hypot(a.A, a.B), math.Hypot(a.C, a.D))
}
