package render

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Scalers selectable for the device-pixel-ratio blit.
var Scalers = map[string]xdraw.Scaler{
	"nearest":  xdraw.NearestNeighbor,
	"bilinear": xdraw.ApproxBiLinear,
}

// Blit scales the logical composite src onto the device-sized dst. Only this
// step sees the device pixel ratio.
func Blit(dst *image.NRGBA, src *image.NRGBA, s xdraw.Scaler) *image.NRGBA {
	if dst == nil || dst.Rect.Empty() || src.Rect.Empty() {
		return dst
	}
	if dst.Rect.Eq(src.Rect) {
		copy(dst.Pix, src.Pix)
		return dst
	}
	if s == nil {
		s = xdraw.NearestNeighbor
	}
	s.Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return dst
}
