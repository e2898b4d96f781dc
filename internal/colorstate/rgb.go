package colorstate

import (
	"fmt"
	"math"
)

const (
	MinPercent = 0.0
	MaxPercent = 100.0

	DefaultBrightness = 100.0
	DefaultSaturation = 100.0
)

// Luma weights used to find the gray a primary desaturates toward.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// CSS formats the color as "rgb(r, g, b)".
func (c RGB) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Gray returns the luma-weighted gray of the channel's primary.
func Gray(c Channel) uint8 {
	p := c.Primary()
	return to8(lumaR*float64(p.R) + lumaG*float64(p.G) + lumaB*float64(p.B))
}

// ComputeRGB maps brightness and saturation percentages to a concrete color for
// the channel. Inputs outside [0,100] are clamped.
func ComputeRGB(brightness, saturation float64, c Channel) RGB {
	b := ClampPercent(brightness) / 100
	s := ClampPercent(saturation) / 100

	p := c.Primary()
	if s == 1 {
		return RGB{R: scale(p.R, b), G: scale(p.G, b), B: scale(p.B, b)}
	}
	gray := float64(Gray(c))
	mix := func(v uint8) uint8 {
		return to8(gray + (float64(v)-gray)*s)
	}
	return RGB{R: scale(mix(p.R), b), G: scale(mix(p.G), b), B: scale(mix(p.B), b)}
}

func scale(v uint8, f float64) uint8 {
	return to8(float64(v) * f)
}

func to8(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// ClampPercent clamps v to [0,100]; NaN maps to 0.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < MinPercent {
		return MinPercent
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}
