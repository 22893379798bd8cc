package svgpath

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Parsing of the path "d" attribute and of transform lists.

var (
	errParamMismatch  = errors.New("param mismatch")
	errCommandUnknown = errors.New("unknown path command")
)

// ParsePoints reads a list of numbers separated by commas, spaces or
// sign characters, as allowed in path data and point lists
// (e.g. "10-5.5.25e2" holds three numbers).
func ParsePoints(s string) ([]float64, error) {
	var pts []float64
	lastIndex := -1
	flush := func(end int) error {
		if lastIndex == -1 {
			return nil
		}
		v, err := strconv.ParseFloat(s[lastIndex:end], 64)
		if err != nil {
			return err
		}
		pts = append(pts, v)
		lastIndex = -1
		return nil
	}
	for i, r := range s {
		if unicode.IsSpace(r) || r == ',' {
			if err := flush(i); err != nil {
				return nil, err
			}
			continue
		}
		if r == '-' || r == '+' {
			// a sign starts a new number, unless it belongs to an exponent
			if lastIndex != -1 && !(i > 0 && (s[i-1] == 'e' || s[i-1] == 'E')) {
				if err := flush(i); err != nil {
					return nil, err
				}
			}
			if lastIndex == -1 {
				lastIndex = i
			}
			continue
		}
		if r == '.' {
			// a second dot starts a new number ("1.5.5")
			if lastIndex != -1 && strings.ContainsRune(s[lastIndex:i], '.') {
				if err := flush(i); err != nil {
					return nil, err
				}
			}
			if lastIndex == -1 {
				lastIndex = i
			}
			continue
		}
		if lastIndex == -1 {
			lastIndex = i
		}
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}
	return pts, nil
}

// ParseTransform composes the entries of the SVG transform list v,
// left to right, onto base. Composition order follows the document:
// "translate(10,0) scale(2,2)" maps (1,0) to (12,0).
func ParseTransform(base Matrix2D, v string) (Matrix2D, error) {
	ts := strings.Split(v, ")")
	m1 := base
	for _, t := range ts {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := ParsePoints(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = applyTransformEntry(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

func applyTransformEntry(m1 Matrix2D, k string, points []float64) (Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0] * math.Pi / 180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "skewx":
		if ln == 1 {
			m1 = m1.SkewX(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "skewy":
		if ln == 1 {
			m1 = m1.SkewY(points[0] * math.Pi / 180)
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, errParamMismatch
	}
	return m1, nil
}

// pathCursor is used while compiling path data
type pathCursor struct {
	path                   Path
	placeX, placeY         float64
	pathStartX, pathStartY float64
	cntlPtX, cntlPtY       float64 // last control point, for S and T reflections
	lastKey                byte
}

const pathCommands = "MmLlHhVvCcSsQqTtAaZz"

// CompilePath translates the svgPath "d" attribute into a Path
func CompilePath(svgPath string) (Path, error) {
	var c pathCursor
	c.pathStartX, c.pathStartY = math.NaN(), math.NaN()
	lastIndex := -1
	for i, v := range svgPath {
		if strings.ContainsRune(pathCommands, v) {
			if lastIndex != -1 {
				if err := c.addSeg(svgPath[lastIndex:i]); err != nil {
					return nil, err
				}
			}
			lastIndex = i
		}
	}
	if lastIndex != -1 {
		if err := c.addSeg(svgPath[lastIndex:]); err != nil {
			return nil, err
		}
	}
	return c.path, nil
}

// valsToAbs converts relative coordinate sets of setLen values to
// absolute ones. Each set is relative to the endpoint of the set
// before it, not to the point where the command started.
func (c *pathCursor) valsToAbs(points []float64, setLen int) {
	refX, refY := c.placeX, c.placeY
	for i := 0; i+setLen <= len(points); i += setLen {
		for j := 0; j < setLen; j += 2 {
			points[i+j] += refX
			points[i+j+1] += refY
		}
		refX, refY = points[i+setLen-2], points[i+setLen-1]
	}
}

// hasSetsOrMore checks that len(points) is a nonzero multiple of n
func hasSetsOrMore(points []float64, n int) bool {
	return len(points) >= n && len(points)%n == 0
}

// reflectControlQuad reflects the last quadratic control point
// around the current point, per the T command.
func (c *pathCursor) reflectControlQuad() {
	switch c.lastKey {
	case 'q', 'Q', 'T', 't':
		c.cntlPtX, c.cntlPtY = 2*c.placeX-c.cntlPtX, 2*c.placeY-c.cntlPtY
	default:
		c.cntlPtX, c.cntlPtY = c.placeX, c.placeY
	}
}

// reflectControlCube reflects the last cubic control point
// around the current point, per the S command.
func (c *pathCursor) reflectControlCube() {
	switch c.lastKey {
	case 'c', 'C', 's', 'S':
		c.cntlPtX, c.cntlPtY = 2*c.placeX-c.cntlPtX, 2*c.placeY-c.cntlPtY
	default:
		c.cntlPtX, c.cntlPtY = c.placeX, c.placeY
	}
}

func (c *pathCursor) moveTo(x, y float64) {
	c.path.Start(ToFixedP(x, y))
	c.placeX, c.placeY = x, y
	c.pathStartX, c.pathStartY = x, y
}

func (c *pathCursor) lineTo(x, y float64) {
	c.path.Line(ToFixedP(x, y))
	c.placeX, c.placeY = x, y
}

// addSeg decodes and executes one command segment
func (c *pathCursor) addSeg(seg string) error {
	if len(seg) == 0 {
		return nil
	}
	k := seg[0]
	points, err := ParsePoints(seg[1:])
	if err != nil {
		return err
	}
	rel := k >= 'a' // lowercase commands are relative
	switch k {
	case 'Z', 'z':
		if len(points) != 0 {
			return errParamMismatch
		}
		if !math.IsNaN(c.pathStartX) {
			c.path.Stop(true)
			c.placeX, c.placeY = c.pathStartX, c.pathStartY
		}
	case 'M', 'm':
		if !hasSetsOrMore(points, 2) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 2)
		}
		c.moveTo(points[0], points[1])
		for i := 2; i < len(points); i += 2 {
			// extra coordinate pairs are implicit linetos
			c.lineTo(points[i], points[i+1])
		}
	case 'L', 'l':
		if !hasSetsOrMore(points, 2) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 2)
		}
		for i := 0; i < len(points); i += 2 {
			c.lineTo(points[i], points[i+1])
		}
	case 'H', 'h':
		if !hasSetsOrMore(points, 1) {
			return errParamMismatch
		}
		for _, x := range points {
			if rel {
				x += c.placeX
			}
			c.lineTo(x, c.placeY)
		}
	case 'V', 'v':
		if !hasSetsOrMore(points, 1) {
			return errParamMismatch
		}
		for _, y := range points {
			if rel {
				y += c.placeY
			}
			c.lineTo(c.placeX, y)
		}
	case 'C', 'c':
		if !hasSetsOrMore(points, 6) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 6)
		}
		for i := 0; i < len(points); i += 6 {
			c.path.CubeBezier(
				ToFixedP(points[i], points[i+1]),
				ToFixedP(points[i+2], points[i+3]),
				ToFixedP(points[i+4], points[i+5]))
			c.cntlPtX, c.cntlPtY = points[i+2], points[i+3]
			c.placeX, c.placeY = points[i+4], points[i+5]
			c.lastKey = k
		}
	case 'S', 's':
		if !hasSetsOrMore(points, 4) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 4)
		}
		for i := 0; i < len(points); i += 4 {
			c.reflectControlCube()
			c.path.CubeBezier(
				ToFixedP(c.cntlPtX, c.cntlPtY),
				ToFixedP(points[i], points[i+1]),
				ToFixedP(points[i+2], points[i+3]))
			c.lastKey = k
			c.cntlPtX, c.cntlPtY = points[i], points[i+1]
			c.placeX, c.placeY = points[i+2], points[i+3]
		}
	case 'Q', 'q':
		if !hasSetsOrMore(points, 4) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 4)
		}
		for i := 0; i < len(points); i += 4 {
			c.path.QuadBezier(
				ToFixedP(points[i], points[i+1]),
				ToFixedP(points[i+2], points[i+3]))
			c.cntlPtX, c.cntlPtY = points[i], points[i+1]
			c.placeX, c.placeY = points[i+2], points[i+3]
			c.lastKey = k
		}
	case 'T', 't':
		if !hasSetsOrMore(points, 2) {
			return errParamMismatch
		}
		if rel {
			c.valsToAbs(points, 2)
		}
		for i := 0; i < len(points); i += 2 {
			c.reflectControlQuad()
			c.path.QuadBezier(
				ToFixedP(c.cntlPtX, c.cntlPtY),
				ToFixedP(points[i], points[i+1]))
			c.lastKey = k
			c.placeX, c.placeY = points[i], points[i+1]
		}
	case 'A', 'a':
		if !hasSetsOrMore(points, 7) {
			return errParamMismatch
		}
		for i := 0; i < len(points); i += 7 {
			x, y := points[i+5], points[i+6]
			if rel {
				x += c.placeX
				y += c.placeY
			}
			c.path.Arc(ToFixedP(x, y),
				points[i], points[i+1], points[i+2],
				points[i+3] != 0, points[i+4] != 0)
			c.placeX, c.placeY = x, y
		}
	default:
		return errCommandUnknown
	}
	if k != 'C' && k != 'c' && k != 'S' && k != 's' &&
		k != 'Q' && k != 'q' && k != 'T' && k != 't' {
		c.lastKey = k
	}
	return nil
}
