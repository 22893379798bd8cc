// Rasterizes clip regions into binary masks: curves are
// flattened to a pixel-space tolerance, vertices mapped by the
// composed transform, and the polygon set filled by scanline under
// the region's winding rule.
package svgraster

import (
	"errors"
	"image"
	"math"

	"github.com/Eryk-dev/svg-crop-api/svgclip"
	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

// DefaultTolerance bounds the curve flattening error, in target
// image pixels.
const DefaultTolerance = 0.25

// ErrDegenerateRegion is returned when a region's geometry covers no
// pixel of the target image.
var ErrDegenerateRegion = errors.New("svgraster: clip region has an empty bounding box")

// Mask is a single-channel binary pixel grid, values 0 or 255. Its
// bounds are the region's tight bounding box in the target image's
// pixel space, not the full image.
type Mask struct {
	Rect image.Rectangle
	Pix  []uint8 // row-major, len = Rect.Dx()*Rect.Dy()
}

// At returns the mask value at the target-image pixel (x, y);
// pixels outside the bounding box are 0.
func (m *Mask) At(x, y int) uint8 {
	if !(image.Point{x, y}).In(m.Rect) {
		return 0
	}
	return m.Pix[(y-m.Rect.Min.Y)*m.Rect.Dx()+(x-m.Rect.Min.X)]
}

// Gray copies the mask into a grayscale image for lossless encoding.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()))
	copy(g.Pix, m.Pix)
	return g
}

// Rasterize renders the clip path into a binary mask in the pixel
// space of a width x height target image. toImage must already map
// the path's coordinates to that pixel space. tolerance is the
// maximum flattening error in pixels; zero or negative selects
// DefaultTolerance. The result is deterministic for identical inputs.
func Rasterize(p svgpath.Path, rule svgclip.FillRule, toImage svgpath.Matrix2D, width, height int, tolerance float64) (*Mask, error) {
	if toImage.IsSingular() {
		return nil, svgpath.ErrSingularMatrix
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	// tolerance is evaluated in pixel space: divide by the matrix
	// stretch to get the equivalent local flatness
	flatness := tolerance / toImage.MaxScale()
	polys := flattenPath(p, flatness)
	if len(polys) == 0 {
		return nil, ErrDegenerateRegion
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range polys {
		for i, v := range poly {
			x, y := toImage.Transform(v.x, v.y)
			poly[i] = point{x, y}
			minX, minY = math.Min(minX, x), math.Min(minY, y)
			maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
		}
	}

	bbox := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(image.Rect(0, 0, width, height))
	if bbox.Empty() {
		return nil, ErrDegenerateRegion
	}

	mask := &Mask{Rect: bbox, Pix: make([]uint8, bbox.Dx()*bbox.Dy())}
	fillPolygons(mask.Pix, bbox, polys, rule)
	return mask, nil
}
