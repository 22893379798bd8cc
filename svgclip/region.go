package svgclip

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

// ErrNoImage marks a region whose referencing element owns no image;
// there is nothing to crop for it.
var ErrNoImage = errors.New("svgclip: clip region has no owning image")

// buildRegions pairs every clip-path reference with its definition,
// in document order of the referencing elements. Dangling references
// are skipped; a missing owning image or a singular composed matrix
// is recorded on the region, never escalated to the document.
func (c *docCursor) buildRegions() {
	for _, ref := range c.refs {
		def, ok := c.defs[ref.clipID]
		if !ok {
			continue
		}
		region := &Region{
			ID:       def.id,
			Index:    len(c.doc.Regions),
			Path:     append(svgpath.Path{}, def.path...),
			FillRule: def.rule,
			Image:    ref.image,
		}
		c.doc.Regions = append(c.doc.Regions, region)

		if ref.image == nil {
			region.Err = ErrNoImage
			continue
		}
		units := svgpath.Identity
		if def.units == ObjectBoundingBox {
			b, err := c.refBounds(ref)
			if err != nil {
				region.Err = err
				continue
			}
			units = svgpath.Identity.Translate(b.X, b.Y).Scale(b.W, b.H)
		}
		invImg, err := ref.image.Transform.Invert()
		if err != nil {
			region.Err = fmt.Errorf("image placement: %w", err)
			continue
		}
		// clip space -> referencing user space -> document space
		// -> image local space -> image placement units
		region.ToImage = svgpath.Identity.
			Translate(-ref.image.X, -ref.image.Y).
			Mult(invImg).
			Mult(ref.m).
			Mult(units)
	}
}

// refBounds computes the referencing element's bounding box in its
// own user space, the box objectBoundingBox geometry normalizes to.
// The box is that of the owning image's placement, mapped through
// whatever transforms sit between the two elements.
func (c *docCursor) refBounds(ref *pendingRef) (Bounds, error) {
	invRef, err := ref.m.Invert()
	if err != nil {
		return Bounds{}, fmt.Errorf("referencing element: %w", err)
	}
	rel := invRef.Mult(ref.image.Transform)

	img := ref.image
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, corner := range [4][2]float64{
		{img.X, img.Y},
		{img.X + img.Width, img.Y},
		{img.X + img.Width, img.Y + img.Height},
		{img.X, img.Y + img.Height},
	} {
		x, y := rel.Transform(corner[0], corner[1])
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, nil
}

// applyMatrix folds m into the path geometry. Arcs are reduced to
// cubics first: their radius and rotation parameters do not survive
// a general affine map.
func applyMatrix(p svgpath.Path, m svgpath.Matrix2D) svgpath.Path {
	if m == svgpath.Identity {
		return p
	}
	out := make(svgpath.Path, 0, len(p))
	var cur, start fixed.Point26_6
	for _, op := range p {
		switch op := op.(type) {
		case svgpath.MoveTo:
			cur = fixed.Point26_6(op)
			start = cur
			out = append(out, svgpath.MoveTo(m.TFixed(cur)))
		case svgpath.LineTo:
			cur = fixed.Point26_6(op)
			out = append(out, svgpath.LineTo(m.TFixed(cur)))
		case svgpath.QuadTo:
			cur = op[1]
			out = append(out, svgpath.QuadTo{m.TFixed(op[0]), m.TFixed(op[1])})
		case svgpath.CubicTo:
			cur = op[2]
			out = append(out, svgpath.CubicTo{m.TFixed(op[0]), m.TFixed(op[1]), m.TFixed(op[2])})
		case svgpath.ArcTo:
			for _, seg := range svgpath.ArcToCubics(cur, op) {
				switch seg := seg.(type) {
				case svgpath.CubicTo:
					out = append(out, svgpath.CubicTo{m.TFixed(seg[0]), m.TFixed(seg[1]), m.TFixed(seg[2])})
				case svgpath.LineTo:
					out = append(out, svgpath.LineTo(m.TFixed(fixed.Point26_6(seg))))
				}
			}
			cur = op.Target
		case svgpath.Close:
			cur = start
			out = append(out, op)
		}
	}
	return out
}
