package svgraster

import (
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

// Curve flattening: every path command is reduced to line segments
// within the given flatness tolerance, by recursive de Casteljau
// subdivision.

type point struct{ x, y float64 }

func fromFixed(p fixed.Point26_6) point {
	return point{float64(p.X) / 64, float64(p.Y) / 64}
}

func lerp(a, b point, t float64) point {
	return point{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t}
}

// distPointToLine is the perpendicular distance from p to the
// (infinite) line through a and b.
func distPointToLine(p, a, b point) float64 {
	dx := b.x - a.x
	dy := b.y - a.y
	if dx == 0 && dy == 0 {
		return math.Hypot(p.x-a.x, p.y-a.y)
	}
	t := ((p.x-a.x)*dx + (p.y-a.y)*dy) / (dx*dx + dy*dy)
	return math.Hypot(p.x-(a.x+t*dx), p.y-(a.y+t*dy))
}

const maxFlattenDepth = 24

// flattenCubic subdivides the cubic until both control points lie
// within flatness of the chord, then emits the end point.
func flattenCubic(p0, p1, p2, p3 point, flatness float64, depth int, out *[]point) {
	if depth >= maxFlattenDepth ||
		(distPointToLine(p1, p0, p3) <= flatness && distPointToLine(p2, p0, p3) <= flatness) {
		*out = append(*out, p3)
		return
	}
	m01 := lerp(p0, p1, 0.5)
	m12 := lerp(p1, p2, 0.5)
	m23 := lerp(p2, p3, 0.5)
	m012 := lerp(m01, m12, 0.5)
	m123 := lerp(m12, m23, 0.5)
	m0123 := lerp(m012, m123, 0.5)
	flattenCubic(p0, m01, m012, m0123, flatness, depth+1, out)
	flattenCubic(m0123, m123, m23, p3, flatness, depth+1, out)
}

// flattenQuad handles a quadratic by degree elevation to a cubic.
func flattenQuad(p0, q, p1 point, flatness float64, out *[]point) {
	c1 := point{p0.x + 2.0/3.0*(q.x-p0.x), p0.y + 2.0/3.0*(q.y-p0.y)}
	c2 := point{p1.x + 2.0/3.0*(q.x-p1.x), p1.y + 2.0/3.0*(q.y-p1.y)}
	flattenCubic(p0, c1, c2, p1, flatness, 0, out)
}

// flattenPath reduces p to closed polygons, one per subpath. Open
// subpaths are implicitly closed: clip shapes are always filled.
// flatness is in the path's own units.
func flattenPath(p svgpath.Path, flatness float64) [][]point {
	var polys [][]point
	var cur []point
	var pos fixed.Point26_6
	closeCur := func() {
		if len(cur) >= 3 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	for _, op := range p {
		switch op := op.(type) {
		case svgpath.MoveTo:
			closeCur()
			pos = fixed.Point26_6(op)
			cur = append(cur, fromFixed(pos))
		case svgpath.LineTo:
			pos = fixed.Point26_6(op)
			cur = append(cur, fromFixed(pos))
		case svgpath.QuadTo:
			flattenQuad(fromFixed(pos), fromFixed(op[0]), fromFixed(op[1]), flatness, &cur)
			pos = op[1]
		case svgpath.CubicTo:
			flattenCubic(fromFixed(pos), fromFixed(op[0]), fromFixed(op[1]), fromFixed(op[2]), flatness, 0, &cur)
			pos = op[2]
		case svgpath.ArcTo:
			for _, seg := range svgpath.ArcToCubics(pos, op) {
				switch seg := seg.(type) {
				case svgpath.CubicTo:
					flattenCubic(fromFixed(pos), fromFixed(seg[0]), fromFixed(seg[1]), fromFixed(seg[2]), flatness, 0, &cur)
					pos = seg[2]
				case svgpath.LineTo:
					pos = fixed.Point26_6(seg)
					cur = append(cur, fromFixed(pos))
				}
			}
			pos = op.Target
		case svgpath.Close:
			closeCur()
		}
	}
	closeCur()
	return polys
}
