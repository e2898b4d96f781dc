package render

import "image"

// Compositor names.
const (
	CompositeMax = "max"
	CompositeSum = "sum"
)

// MixSources composites layers with the light-overlap rule: each color channel
// and alpha take the per-pixel maximum across the layers that have any alpha.
// Two overlapping primaries therefore stay at 255 in their own channels and
// white appears only where all three channels are maxed.
func MixSources(dst *image.NRGBA, layers []*image.NRGBA) {
	n := len(dst.Pix)
	for i := 0; i < n; i += 4 {
		var r, g, b, a uint8
		for _, l := range layers {
			if i+3 >= len(l.Pix) {
				continue
			}
			p := l.Pix[i : i+4 : i+4]
			if p[3] == 0 {
				continue
			}
			r = max(r, p[0])
			g = max(g, p[1])
			b = max(b, p[2])
			a = max(a, p[3])
		}
		dst.Pix[i+0] = r
		dst.Pix[i+1] = g
		dst.Pix[i+2] = b
		dst.Pix[i+3] = a
	}
}

// SumSources is the alternative additive rule: channels are summed and clamped
// to 255, alpha is still the maximum.
func SumSources(dst *image.NRGBA, layers []*image.NRGBA) {
	n := len(dst.Pix)
	for i := 0; i < n; i += 4 {
		var r, g, b int
		var a uint8
		for _, l := range layers {
			if i+3 >= len(l.Pix) {
				continue
			}
			p := l.Pix[i : i+4 : i+4]
			if p[3] == 0 {
				continue
			}
			r += int(p[0])
			g += int(p[1])
			b += int(p[2])
			a = max(a, p[3])
		}
		dst.Pix[i+0] = clamp255(r)
		dst.Pix[i+1] = clamp255(g)
		dst.Pix[i+2] = clamp255(b)
		dst.Pix[i+3] = a
	}
}

func clamp255(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
