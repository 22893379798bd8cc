// Crops decoded raster buffers to a clip mask's bounding box and
// encodes the result. PNG output carries the mask as an alpha
// channel; JPEG output composites over opaque white since the format
// has no alpha, and the separately emitted mask keeps the exact
// shape recoverable.
package crop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/Eryk-dev/svg-crop-api/svgraster"
)

// Format selects the cropped image encoding. The mask is always
// encoded as a lossless grayscale PNG, whatever the format.
type Format uint8

const (
	PNG Format = iota
	JPEG
)

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case JPEG:
		return "jpeg"
	default:
		return "<unknown Format>"
	}
}

// Ext returns the file extension used in archive member names.
func (f Format) Ext() string { return f.String() }

// ParseFormat reads a format name ("png" or "jpeg").
func ParseFormat(s string) (Format, error) {
	switch s {
	case "png", "":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return PNG, fmt.Errorf("crop: unsupported output format %q", s)
}

// DefaultJPEGQuality matches the original export pipeline.
const DefaultJPEGQuality = 95

var errMaskOutside = errors.New("crop: mask bounding box lies outside the image")

// Apply crops src to the mask's bounding box and encodes both the
// cropped image and the mask. Mask coordinates are relative to src's
// bounds origin, so sub-images crop correctly. Pure function: neither
// src nor mask is modified.
func Apply(src image.Image, mask *svgraster.Mask, format Format, jpegQuality int) (imageBytes, maskBytes []byte, err error) {
	bbox := mask.Rect
	off := src.Bounds().Min
	if !bbox.Add(off).In(src.Bounds()) {
		return nil, nil, errMaskOutside
	}
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}

	out := image.NewNRGBA(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	for y := bbox.Min.Y; y < bbox.Max.Y; y++ {
		for x := bbox.Min.X; x < bbox.Max.X; x++ {
			a := mask.At(x, y)
			var c color.NRGBA
			if a == 0 && format == JPEG {
				c = color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF} // white background
			} else {
				c = color.NRGBAModel.Convert(src.At(x+off.X, y+off.Y)).(color.NRGBA)
				if format == PNG {
					c.A = a
				} else {
					c.A = 0xFF
				}
			}
			out.SetNRGBA(x-bbox.Min.X, y-bbox.Min.Y, c)
		}
	}

	var buf bytes.Buffer
	switch format {
	case PNG:
		err = png.Encode(&buf, out)
	case JPEG:
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("encoding cropped image: %w", err)
	}

	var maskBuf bytes.Buffer
	if err := png.Encode(&maskBuf, mask.Gray()); err != nil {
		return nil, nil, fmt.Errorf("encoding mask: %w", err)
	}
	return buf.Bytes(), maskBuf.Bytes(), nil
}
