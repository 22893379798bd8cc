// Parses SVG mockup documents into clip regions: the clip-path
// definitions, the elements referencing them, and the embedded raster
// images the regions crop. Only geometric and clip semantics are
// resolved; paint and stroke attributes are ignored.
package svgclip

import (
	"io"

	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

// FillRule selects the winding convention used to decide whether a
// point is inside a clip shape.
type FillRule uint8

const (
	NonZero FillRule = iota // SVG default
	EvenOdd
)

func (f FillRule) String() string {
	switch f {
	case NonZero:
		return "nonzero"
	case EvenOdd:
		return "evenodd"
	default:
		return "<unknown FillRule>"
	}
}

// ClipUnits is the coordinate system of a clipPath definition.
type ClipUnits uint8

const (
	UserSpaceOnUse    ClipUnits = iota // SVG default
	ObjectBoundingBox                  // geometry normalized to [0,1]x[0,1] of the referencing element
)

// Bounds defines a bounding box, such as a viewport
// or an element extent.
type Bounds struct{ X, Y, W, H float64 }

// ImageRef is one image element: its resolved href and its placement
// in document units. The pixel buffer itself is fetched externally;
// fetches are deduplicated by Href.
type ImageRef struct {
	Href string // resolved absolute URL

	X, Y, Width, Height float64 // placement, in user units

	// Transform maps the image's local coordinates to document space
	// (ancestor transforms and viewport scaling composed root to leaf).
	Transform svgpath.Matrix2D
}

// Region pairs one clipPath definition with one referencing element.
type Region struct {
	// ID of the clipPath definition; Index is the region's ordinal
	// in extraction (document) order.
	ID    string
	Index int

	// Path holds the clip geometry, child transforms already folded
	// in, in the space selected by the definition's clipPathUnits.
	Path     svgpath.Path
	FillRule FillRule

	// ToImage maps clip geometry to the owning image's placement
	// units. The intrinsic-pixel scale is composed once the image is
	// decoded and its pixel size is known.
	ToImage svgpath.Matrix2D

	// Image is the owning image of the region.
	Image *ImageRef

	// Err records a per-region resolution failure (such as a singular
	// composed transform); the region then cannot be rasterized,
	// other regions are unaffected.
	Err error
}

// Document is the parsed, immutable result of reading an SVG mockup.
type Document struct {
	ViewBox       Bounds
	Width, Height float64

	Images  []*ImageRef
	Regions []*Region
}

// ReadDocument parses the SVG document from stream. Image hrefs are
// resolved against baseURL when it is non-empty. A document with no
// clip-path references is valid and yields zero regions.
func ReadDocument(stream io.Reader, baseURL string) (*Document, error) {
	return readDocument(stream, baseURL)
}
