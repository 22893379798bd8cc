package svgpath

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// This file implements the transformation from
// high level shapes to their path equivalent

// maxDx is the maximum radians a cubic splice is allowed to span
// in ellipse parametric when approximating an off-axis ellipse.
const maxDx float64 = math.Pi / 8

// kappa is the bezier circle constant: a quarter circle of radius r
// is approximated within ~2.7e-4*r by one cubic with control points
// at distance kappa*r.
const kappa = 0.5522847498307936

// ToFixedP converts two floats to a fixed point.
func ToFixedP(x, y float64) (p fixed.Point26_6) {
	p.X = fixed.Int26_6(x * 64)
	p.Y = fixed.Int26_6(y * 64)
	return
}

// AddRect adds a rectangle of the indicated size as a closed
// subpath of four lines.
func (p *Path) AddRect(minX, minY, maxX, maxY float64) {
	p.Start(ToFixedP(minX, minY))
	p.Line(ToFixedP(maxX, minY))
	p.Line(ToFixedP(maxX, maxY))
	p.Line(ToFixedP(minX, maxY))
	p.Stop(true)
}

// AddRoundRect adds a rectangle with corners rounded by rx in
// the x axis and ry in the y axis, each corner a single cubic.
func (p *Path) AddRoundRect(minX, minY, maxX, maxY, rx, ry float64) {
	if rx <= 0 || ry <= 0 {
		p.AddRect(minX, minY, maxX, maxY)
		return
	}
	w := maxX - minX
	if w < rx*2 {
		rx = w / 2
	}
	h := maxY - minY
	if h < ry*2 {
		ry = h / 2
	}
	cx, cy := rx*kappa, ry*kappa

	p.Start(ToFixedP(minX+rx, minY))
	p.Line(ToFixedP(maxX-rx, minY))
	p.CubeBezier(ToFixedP(maxX-rx+cx, minY), ToFixedP(maxX, minY+ry-cy), ToFixedP(maxX, minY+ry))
	p.Line(ToFixedP(maxX, maxY-ry))
	p.CubeBezier(ToFixedP(maxX, maxY-ry+cy), ToFixedP(maxX-rx+cx, maxY), ToFixedP(maxX-rx, maxY))
	p.Line(ToFixedP(minX+rx, maxY))
	p.CubeBezier(ToFixedP(minX+rx-cx, maxY), ToFixedP(minX, maxY-ry+cy), ToFixedP(minX, maxY-ry))
	p.Line(ToFixedP(minX, minY+ry))
	p.CubeBezier(ToFixedP(minX, minY+ry-cy), ToFixedP(minX+rx-cx, minY), ToFixedP(minX+rx, minY))
	p.Stop(true)
}

// AddEllipse adds an ellipse centered at cx, cy as four cubic
// bezier quadrants.
func (p *Path) AddEllipse(cx, cy, rx, ry float64) {
	dx, dy := rx*kappa, ry*kappa

	p.Start(ToFixedP(cx+rx, cy))
	p.CubeBezier(ToFixedP(cx+rx, cy+dy), ToFixedP(cx+dx, cy+ry), ToFixedP(cx, cy+ry))
	p.CubeBezier(ToFixedP(cx-dx, cy+ry), ToFixedP(cx-rx, cy+dy), ToFixedP(cx-rx, cy))
	p.CubeBezier(ToFixedP(cx-rx, cy-dy), ToFixedP(cx-dx, cy-ry), ToFixedP(cx, cy-ry))
	p.CubeBezier(ToFixedP(cx+dx, cy-ry), ToFixedP(cx+rx, cy-dy), ToFixedP(cx+rx, cy))
	p.Stop(true)
}

// AddPolygon adds the points as a subpath, closed when close is true.
func (p *Path) AddPolygon(pts []float64, close bool) {
	if len(pts) < 4 {
		return
	}
	p.Start(ToFixedP(pts[0], pts[1]))
	for i := 2; i < len(pts)-1; i += 2 {
		p.Line(ToFixedP(pts[i], pts[i+1]))
	}
	p.Stop(close)
}

// ArcToCubics converts the arc op starting at start into a sequence of
// cubic segments. Degenerate radii yield a single straight line, per
// the SVG arc implementation notes.
func ArcToCubics(start fixed.Point26_6, op ArcTo) []Operation {
	px, py := float64(start.X)/64, float64(start.Y)/64
	ex, ey := float64(op.Target.X)/64, float64(op.Target.Y)/64
	ra, rb := math.Abs(op.Rx), math.Abs(op.Ry)
	if ra == 0 || rb == 0 || (px == ex && py == ey) {
		return []Operation{LineTo(op.Target)}
	}
	rotX := op.Rotation * math.Pi / 180
	cx, cy := findEllipseCenter(&ra, &rb, rotX, px, py, ex, ey, op.Sweep, op.LargeArc)

	startAngle := math.Atan2(py-cy, px-cx) - rotX
	endAngle := math.Atan2(ey-cy, ex-cx) - rotX
	deltaTheta := endAngle - startAngle
	arcBig := math.Abs(deltaTheta) > math.Pi

	// Approximate ellipse using cubic bezier splines
	etaStart := math.Atan2(math.Sin(startAngle)/rb, math.Cos(startAngle)/ra)
	etaEnd := math.Atan2(math.Sin(endAngle)/rb, math.Cos(endAngle)/ra)
	deltaEta := etaEnd - etaStart
	if (arcBig && !op.LargeArc) || (!arcBig && op.LargeArc) { // Go has no boolean XOR
		if deltaEta < 0 {
			deltaEta += math.Pi * 2
		} else {
			deltaEta -= math.Pi * 2
		}
	}
	// This check might be needed if the center point of the elipse is
	// at the midpoint of the start and end lines.
	if deltaEta < 0 && op.Sweep {
		deltaEta += math.Pi * 2
	} else if deltaEta >= 0 && !op.Sweep {
		deltaEta -= math.Pi * 2
	}

	// Round up to determine number of cubic splines to approximate bezier curve
	segs := int(math.Abs(deltaEta)/maxDx) + 1
	dEta := deltaEta / float64(segs) // span of each segment
	// Approximate the ellipse using a set of cubic bezier curves by the method of
	// L. Maisonobe, "Drawing an elliptical arc using polylines, quadratic
	// or cubic Bezier curves", 2003
	// https://www.spaceroots.org/documents/elllipse/elliptical-arc.pdf
	tde := math.Tan(dEta / 2)
	alpha := math.Sin(dEta) * (math.Sqrt(4+3*tde*tde) - 1) / 3
	lx, ly := px, py
	sinTheta, cosTheta := math.Sin(rotX), math.Cos(rotX)
	ldx, ldy := ellipsePrime(ra, rb, sinTheta, cosTheta, etaStart)

	out := make([]Operation, 0, segs)
	for i := 1; i <= segs; i++ {
		eta := etaStart + dEta*float64(i)
		var sx, sy float64
		if i == segs {
			sx, sy = ex, ey // Just makes the end point exact; no roundoff error
		} else {
			sx, sy = ellipsePointAt(ra, rb, sinTheta, cosTheta, eta, cx, cy)
		}
		dx, dy := ellipsePrime(ra, rb, sinTheta, cosTheta, eta)
		out = append(out, CubicTo{
			ToFixedP(lx+alpha*ldx, ly+alpha*ldy),
			ToFixedP(sx-alpha*dx, sy-alpha*dy),
			ToFixedP(sx, sy),
		})
		lx, ly, ldx, ldy = sx, sy, dx, dy
	}
	return out
}

// ellipsePrime gives tangent vectors for parameterized elipse; a, b, radii, eta parameter
func ellipsePrime(a, b, sinTheta, cosTheta, eta float64) (px, py float64) {
	bCosEta := b * math.Cos(eta)
	aSinEta := a * math.Sin(eta)
	px = -aSinEta*cosTheta - bCosEta*sinTheta
	py = -aSinEta*sinTheta + bCosEta*cosTheta
	return
}

// ellipsePointAt gives points for parameterized elipse; a, b, radii, eta parameter, center cx, cy
func ellipsePointAt(a, b, sinTheta, cosTheta, eta, cx, cy float64) (px, py float64) {
	aCosEta := a * math.Cos(eta)
	bSinEta := b * math.Sin(eta)
	px = cx + aCosEta*cosTheta - bSinEta*sinTheta
	py = cy + aCosEta*sinTheta + bSinEta*cosTheta
	return
}

// findEllipseCenter locates the center of the Ellipse if it exists. If it does not exist,
// the radius values will be increased minimally for a solution to be possible
// while preserving the ra to rb ratio.  ra and rb arguments are pointers that can be
// checked after the call to see if the values changed. This method uses coordinate transformations
// to reduce the problem to finding the center of a circle that includes the origin
// and an arbitrary point. The center of the circle is then transformed
// back to the original coordinates and returned.
func findEllipseCenter(ra, rb *float64, rotX, startX, startY, endX, endY float64, sweep, smallArc bool) (cx, cy float64) {
	cos, sin := math.Cos(rotX), math.Sin(rotX)

	// Move origin to start point
	nx, ny := endX-startX, endY-startY

	// Rotate ellipse x-axis to coordinate x-axis
	nx, ny = nx*cos+ny*sin, -nx*sin+ny*cos
	// Scale X dimension so that ra = rb
	nx *= *rb / *ra // Now the ellipse is a circle radius rb; therefore foci and center coincide

	midX, midY := nx/2, ny/2
	midlenSq := midX*midX + midY*midY

	var hr float64
	if *rb**rb < midlenSq {
		// Requested ellipse does not exist; scale ra, rb to fit. Length of
		// span is greater than max width of ellipse, must scale *ra, *rb
		nrb := math.Sqrt(midlenSq)
		if *ra == *rb {
			*ra = nrb // prevents roundoff
		} else {
			*ra = *ra * nrb / *rb
		}
		*rb = nrb
	} else {
		hr = math.Sqrt(*rb**rb-midlenSq) / math.Sqrt(midlenSq)
	}
	// Notice that if hr is zero, both answers are the same.
	if (sweep && smallArc) || (!sweep && !smallArc) {
		cx = midX + midY*hr
		cy = midY - midX*hr
	} else {
		cx = midX - midY*hr
		cy = midY + midX*hr
	}

	// reverse scale
	cx *= *ra / *rb
	//Reverse rotate and translate back to original coordinates
	return cx*cos - cy*sin + startX, cx*sin + cy*cos + startY
}
