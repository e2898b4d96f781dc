package render

import (
	"errors"
	"image"
	"image/png"
	"io"
)

var ErrEmptyFrame = errors.New("empty frame")

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG writes img as PNG. Empty images have no PNG form.
func EncodePNG(w io.Writer, img *image.NRGBA) error {
	if img == nil || img.Rect.Empty() {
		return ErrEmptyFrame
	}
	return pngEncoder.Encode(w, img)
}
