package svgraster

import (
	"image"
	"math"
	"sort"

	"github.com/Eryk-dev/svg-crop-api/svgclip"
)

// Scanline polygon fill. Each mask row is sampled at the pixel
// center; edge crossings are accumulated under the region's fill
// rule, so multiple subpaths combine into holes exactly as the
// winding convention dictates.

type crossing struct {
	x       float64
	winding int // +1 for a downward edge, -1 for an upward edge
}

// fillPolygons writes 255 into mask for every pixel of rect whose
// center is inside the polygon set under rule.
func fillPolygons(mask []uint8, rect image.Rectangle, polys [][]point, rule svgclip.FillRule) {
	var crossings []crossing
	w := rect.Dx()
	for row := rect.Min.Y; row < rect.Max.Y; row++ {
		yc := float64(row) + 0.5
		crossings = crossings[:0]
		for _, poly := range polys {
			n := len(poly)
			for i := 0; i < n; i++ {
				a, b := poly[i], poly[(i+1)%n]
				if a.y == b.y {
					continue // horizontal edges never cross a scanline
				}
				winding := 1
				if a.y > b.y {
					a, b = b, a
					winding = -1
				}
				// half-open [a.y, b.y) so shared vertices count once
				if yc < a.y || yc >= b.y {
					continue
				}
				t := (yc - a.y) / (b.y - a.y)
				crossings = append(crossings, crossing{x: a.x + t*(b.x-a.x), winding: winding})
			}
		}
		if len(crossings) == 0 {
			continue
		}
		sort.Slice(crossings, func(i, j int) bool { return crossings[i].x < crossings[j].x })

		sum := 0
		for i := 0; i < len(crossings)-1; i++ {
			sum += crossings[i].winding
			inside := sum != 0
			if rule == svgclip.EvenOdd {
				inside = (i+1)%2 == 1
			}
			if !inside {
				continue
			}
			xa, xb := crossings[i].x, crossings[i+1].x
			// pixel centers x+0.5 within [xa, xb)
			x0 := int(math.Ceil(xa - 0.5))
			x1 := int(math.Ceil(xb-0.5)) - 1
			if x0 < rect.Min.X {
				x0 = rect.Min.X
			}
			if x1 >= rect.Max.X {
				x1 = rect.Max.X - 1
			}
			base := (row - rect.Min.Y) * w
			for x := x0; x <= x1; x++ {
				mask[base+x-rect.Min.X] = 0xFF
			}
		}
	}
}
