package svgraster

import (
	"errors"
	"image"
	"testing"

	"github.com/Eryk-dev/svg-crop-api/svgclip"
	"github.com/Eryk-dev/svg-crop-api/svgpath"
)

func rectPath(minX, minY, maxX, maxY float64) svgpath.Path {
	var p svgpath.Path
	p.AddRect(minX, minY, maxX, maxY)
	return p
}

func TestFullBoundsMask(t *testing.T) {
	// geometry covering the whole image yields an all-255 mask over
	// the full image rectangle
	mask, err := Rasterize(rectPath(0, 0, 64, 48), svgclip.NonZero, svgpath.Identity, 64, 48, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.Rect.Dx() != 64 || mask.Rect.Dy() != 48 {
		t.Fatalf("mask bounds = %v, want 64x48 at origin", mask.Rect)
	}
	for _, v := range mask.Pix {
		if v != 0xFF {
			t.Fatal("full-bounds mask contains a zero pixel")
		}
	}
}

func TestPartialRectTightBBox(t *testing.T) {
	mask, err := Rasterize(rectPath(10, 20, 30, 40), svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := mask.Rect, (image.Rect(10, 20, 30, 40)); got != want {
		t.Errorf("mask bounds = %v, want %v", got, want)
	}
	if mask.At(15, 25) != 0xFF {
		t.Error("interior pixel not set")
	}
	if mask.At(5, 5) != 0 || mask.At(50, 50) != 0 {
		t.Error("exterior pixel set")
	}
}

func TestEvenOddHole(t *testing.T) {
	// outer square with a concentric inner square: evenodd leaves a
	// hole, nonzero fills through when both run the same direction
	p := rectPath(0, 0, 100, 100)
	p.AddRect(25, 25, 75, 75)

	mask, err := Rasterize(p, svgclip.EvenOdd, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.At(50, 50) != 0 {
		t.Error("evenodd: pixel inside the hole should be 0")
	}
	if mask.At(10, 10) != 0xFF {
		t.Error("evenodd: pixel in the ring should be 255")
	}

	mask, err = Rasterize(p, svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.At(50, 50) != 0xFF {
		t.Error("nonzero: pixel inside both squares should be 255")
	}
}

func TestNonZeroHoleWithReversedSubpath(t *testing.T) {
	// the inner square wound the opposite way cancels the winding
	p := rectPath(0, 0, 100, 100)
	p.Start(svgpath.ToFixedP(25, 75))
	p.Line(svgpath.ToFixedP(75, 75))
	p.Line(svgpath.ToFixedP(75, 25))
	p.Line(svgpath.ToFixedP(25, 25))
	p.Stop(true)

	mask, err := Rasterize(p, svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.At(50, 50) != 0 {
		t.Error("opposite winding should cut a hole under nonzero")
	}
	if mask.At(10, 10) != 0xFF {
		t.Error("ring pixel should be 255")
	}
}

func TestTransformApplied(t *testing.T) {
	// a unit square scaled by 40 and shifted by 10
	m := svgpath.Identity.Translate(10, 10).Scale(40, 40)
	mask, err := Rasterize(rectPath(0, 0, 1, 1), svgclip.NonZero, m, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := mask.Rect, image.Rect(10, 10, 50, 50); got != want {
		t.Errorf("mask bounds = %v, want %v", got, want)
	}
	if mask.At(30, 30) != 0xFF {
		t.Error("transformed interior pixel not set")
	}
}

func TestEllipseMask(t *testing.T) {
	var p svgpath.Path
	p.AddEllipse(50, 50, 40, 40)
	mask, err := Rasterize(p, svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.At(50, 50) != 0xFF {
		t.Error("circle center should be inside")
	}
	// corners of the bounding box lie outside the disc
	if mask.At(12, 12) != 0 || mask.At(88, 88) != 0 {
		t.Error("bounding box corner should be outside the circle")
	}
}

func TestDegenerateGeometry(t *testing.T) {
	// collinear points enclose no pixel center
	var p svgpath.Path
	p.Start(svgpath.ToFixedP(0, 0))
	p.Line(svgpath.ToFixedP(10, 0))
	p.Stop(true)
	if _, err := Rasterize(p, svgclip.NonZero, svgpath.Identity, 100, 100, 0); !errors.Is(err, ErrDegenerateRegion) {
		t.Errorf("got %v, want ErrDegenerateRegion", err)
	}

	// geometry entirely off the image
	if _, err := Rasterize(rectPath(500, 500, 600, 600), svgclip.NonZero, svgpath.Identity, 100, 100, 0); !errors.Is(err, ErrDegenerateRegion) {
		t.Errorf("got %v, want ErrDegenerateRegion", err)
	}

	if _, err := Rasterize(nil, svgclip.NonZero, svgpath.Identity, 100, 100, 0); !errors.Is(err, ErrDegenerateRegion) {
		t.Errorf("empty path: got %v, want ErrDegenerateRegion", err)
	}
}

func TestSingularTransform(t *testing.T) {
	m := svgpath.Identity.Scale(0, 1)
	if _, err := Rasterize(rectPath(0, 0, 10, 10), svgclip.NonZero, m, 100, 100, 0); !errors.Is(err, svgpath.ErrSingularMatrix) {
		t.Errorf("got %v, want ErrSingularMatrix", err)
	}
}

func TestMaskAtOutsideRect(t *testing.T) {
	mask, err := Rasterize(rectPath(10, 10, 20, 20), svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if mask.At(-1, -1) != 0 || mask.At(99, 99) != 0 {
		t.Error("pixels outside the bounding box must read 0")
	}
}

func TestGrayRoundTrip(t *testing.T) {
	mask, err := Rasterize(rectPath(10, 10, 20, 20), svgclip.NonZero, svgpath.Identity, 100, 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	g := mask.Gray()
	if g.Bounds().Dx() != mask.Rect.Dx() || g.Bounds().Dy() != mask.Rect.Dy() {
		t.Fatalf("gray bounds %v do not match mask %v", g.Bounds(), mask.Rect)
	}
	for y := 0; y < g.Bounds().Dy(); y++ {
		for x := 0; x < g.Bounds().Dx(); x++ {
			if g.GrayAt(x, y).Y != mask.At(mask.Rect.Min.X+x, mask.Rect.Min.Y+y) {
				t.Fatalf("gray and mask disagree at (%d,%d)", x, y)
			}
		}
	}
}
