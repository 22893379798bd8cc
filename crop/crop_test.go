package crop

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/Eryk-dev/svg-crop-api/svgclip"
	"github.com/Eryk-dev/svg-crop-api/svgpath"
	"github.com/Eryk-dev/svg-crop-api/svgraster"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func rectMask(t *testing.T, minX, minY, maxX, maxY float64, w, h int) *svgraster.Mask {
	t.Helper()
	var p svgpath.Path
	p.AddRect(minX, minY, maxX, maxY)
	mask, err := svgraster.Rasterize(p, svgclip.NonZero, svgpath.Identity, w, h, 0)
	if err != nil {
		t.Fatal(err)
	}
	return mask
}

func TestDimensionInvariant(t *testing.T) {
	src := solidImage(100, 80, color.NRGBA{10, 20, 30, 255})
	mask := rectMask(t, 15, 10, 55, 70, 100, 80)

	imgBytes, maskBytes, err := Apply(src, mask, PNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	croppedCfg, _, err := image.DecodeConfig(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	maskCfg, _, err := image.DecodeConfig(bytes.NewReader(maskBytes))
	if err != nil {
		t.Fatal(err)
	}
	if croppedCfg.Width != maskCfg.Width || croppedCfg.Height != maskCfg.Height {
		t.Errorf("cropped %dx%d but mask %dx%d",
			croppedCfg.Width, croppedCfg.Height, maskCfg.Width, maskCfg.Height)
	}
	if croppedCfg.Width != mask.Rect.Dx() || croppedCfg.Height != mask.Rect.Dy() {
		t.Errorf("cropped %dx%d but mask bounds %v",
			croppedCfg.Width, croppedCfg.Height, mask.Rect)
	}
}

func TestFullBoundsCropIsIdentity(t *testing.T) {
	src := solidImage(40, 30, color.NRGBA{200, 100, 50, 255})
	mask := rectMask(t, 0, 0, 40, 30, 40, 30)

	imgBytes, maskBytes, err := Apply(src, mask, PNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("crop bounds %v differ from source %v", out.Bounds(), src.Bounds())
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			// decoders may differ in concrete color type, compare channels
			r1, g1, b1, a1 := out.At(x, y).RGBA()
			r2, g2, b2, a2 := src.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed: %v vs %v", x, y, out.At(x, y), src.At(x, y))
			}
		}
	}
	m, err := png.Decode(bytes.NewReader(maskBytes))
	if err != nil {
		t.Fatal(err)
	}
	gray := m.(*image.Gray)
	for _, v := range gray.Pix {
		if v != 255 {
			t.Fatal("full-bounds mask should be entirely 255")
		}
	}
}

func TestPNGCarriesMaskAsAlpha(t *testing.T) {
	src := solidImage(20, 20, color.NRGBA{1, 2, 3, 255})
	mask := rectMask(t, 5, 5, 15, 15, 20, 20)

	imgBytes, _, err := Apply(src, mask, PNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	// every pixel of the tight bounding box is inside this mask
	_, _, _, a := out.At(0, 0).RGBA()
	if a == 0 {
		t.Error("masked-in pixel should be opaque")
	}
}

func TestJPEGCompositesWhite(t *testing.T) {
	src := solidImage(20, 20, color.NRGBA{0, 0, 0, 255})
	// a disc inside the box leaves masked-out corners
	var p svgpath.Path
	p.AddEllipse(10, 10, 8, 8)
	mask, err := svgraster.Rasterize(p, svgclip.NonZero, svgpath.Identity, 20, 20, 0)
	if err != nil {
		t.Fatal(err)
	}

	imgBytes, _, err := Apply(src, mask, JPEG, 95)
	if err != nil {
		t.Fatal(err)
	}
	out, err := jpeg.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	// top-left corner of the bounding box is outside the disc
	r, g, b, _ := out.At(0, 0).RGBA()
	if r < 0xE000 || g < 0xE000 || b < 0xE000 {
		t.Errorf("masked-out jpeg pixel should be near white, got %d %d %d", r>>8, g>>8, b>>8)
	}
	// center is inside and stays near black
	cx := mask.Rect.Dx() / 2
	cy := mask.Rect.Dy() / 2
	r, g, b, _ = out.At(cx, cy).RGBA()
	if r > 0x2000 || g > 0x2000 || b > 0x2000 {
		t.Errorf("masked-in jpeg pixel should stay dark, got %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestSubImageSource(t *testing.T) {
	// mask coordinates are relative to the source's bounds origin
	base := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			base.SetNRGBA(x, y, color.NRGBA{uint8(x * 10), uint8(y * 10), 0, 255})
		}
	}
	sub := base.SubImage(image.Rect(5, 5, 15, 15))
	mask := rectMask(t, 0, 0, 10, 10, 10, 10)

	imgBytes, _, err := Apply(sub, mask, PNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 10 || out.Bounds().Dy() != 10 {
		t.Fatalf("crop bounds = %v, want 10x10", out.Bounds())
	}
	r, g, _, _ := out.At(0, 0).RGBA()
	wr, wg, _, _ := base.At(5, 5).RGBA()
	if r != wr || g != wg {
		t.Errorf("crop origin holds (%d,%d), want the sub-image origin pixel (%d,%d)",
			r>>8, g>>8, wr>>8, wg>>8)
	}
}

func TestMaskOutsideImage(t *testing.T) {
	src := solidImage(10, 10, color.NRGBA{0, 0, 0, 255})
	mask := rectMask(t, 5, 5, 30, 30, 40, 40) // built against a larger image
	if _, _, err := Apply(src, mask, PNG, 0); err == nil {
		t.Error("mask extending past the source should fail")
	}
}

func TestParseFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Format
		ok   bool
	}{
		{"png", PNG, true},
		{"", PNG, true},
		{"jpeg", JPEG, true},
		{"jpg", JPEG, true},
		{"gif", PNG, false},
	} {
		got, err := ParseFormat(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseFormat(%q) = %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseFormat(%q) should fail", tc.in)
		}
	}
}
