package render

import (
	"image"
	"math"
)

const (
	// RadiusFraction is the disc radius as a fraction of the canvas side.
	RadiusFraction = 0.3
	// Feather is the half-width of the anti-aliased edge, in logical pixels.
	Feather = 2.0
)

// Coverage is the anti-aliased fraction of a pixel at distance d from the center
// of a disc: 1 up to radius-Feather, 0 from radius+Feather on and a cosine
// S-curve in between (0.5 exactly at the radius).
func Coverage(d, radius float64) float64 {
	switch {
	case d <= radius-Feather:
		return 1
	case d < radius+Feather:
		t := (radius + Feather - d) / (2 * Feather)
		return 0.5 * (1 + math.Cos(math.Pi*(1-t)))
	default:
		return 0
	}
}

// NewLayer allocates a transparent side x side buffer. Non-positive sides give
// an empty image.
func NewLayer(side int) *image.NRGBA {
	if side < 0 {
		side = 0
	}
	return image.NewNRGBA(image.Rect(0, 0, side, side))
}

// RasterizeDisc clears dst and draws one soft-edged disc into it. Channels are
// the base color scaled by brightness and are not premultiplied; alpha carries
// coverage times brightness. Pixels without coverage stay (0,0,0,0).
func RasterizeDisc(dst *image.NRGBA, cx, cy, radius float64, base [3]uint8, brightness float64) {
	clear(dst.Pix)
	size := dst.Rect.Dx()
	if size <= 0 || dst.Rect.Dy() != size || !(radius > 0) || math.IsNaN(cx) || math.IsNaN(cy) {
		return
	}

	intensity := clampPercent(brightness) / 100
	r := round8(float64(base[0]) * intensity)
	g := round8(float64(base[1]) * intensity)
	b := round8(float64(base[2]) * intensity)

	reach := radius + Feather
	x0, x1 := span(cx, reach, size)
	y0, y1 := span(cy, reach, size)

	for py := y0; py <= y1; py++ {
		row := py * dst.Stride
		dy := float64(py) - cy
		for px := x0; px <= x1; px++ {
			dx := float64(px) - cx
			coverage := Coverage(math.Sqrt(dx*dx+dy*dy), radius)
			if coverage <= 0 {
				continue
			}
			i := row + px*4
			dst.Pix[i+0] = r
			dst.Pix[i+1] = g
			dst.Pix[i+2] = b
			dst.Pix[i+3] = round8(255 * coverage * intensity)
		}
	}
}

// span is the pixel range of [c-reach, c+reach] inside [0,size).
func span(c, reach float64, size int) (lo, hi int) {
	lo = int(math.Max(0, math.Floor(c-reach)))
	hi = int(math.Min(float64(size-1), math.Ceil(c+reach)))
	return lo, hi
}

func round8(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
