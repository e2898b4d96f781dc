package render

import "github.com/coreman2200/colorlab/internal/colorstate"

// SourcesFrom builds the three lights from the color state. The disc color is
// the channel color at full brightness (desaturated when saturation is on) and
// brightness is applied once, by the rasterizer.
func SourcesFrom(s colorstate.Snapshot) [3]Source {
	var out [3]Source
	for _, ch := range colorstate.Channels {
		st := s.States[ch]
		sat := colorstate.DefaultSaturation
		if s.SaturationEnabled {
			sat = st.Saturation()
		}
		base := colorstate.ComputeRGB(colorstate.MaxPercent, sat, ch)
		x, y := ch.Position()
		out[ch] = Source{
			Color:      [3]uint8{base.R, base.G, base.B},
			X:          x,
			Y:          y,
			Brightness: st.Brightness(),
		}
	}
	return out
}
