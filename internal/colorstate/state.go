package colorstate

// ColorState holds the user-facing parameters of one channel. The derived RGB is
// recomputed on every change and cannot be set directly.
type ColorState struct {
	brightness float64
	saturation float64
	rgb        RGB
}

// NewColorState returns a channel at the given parameters with its RGB derived.
func NewColorState(c Channel, brightness, saturation float64, saturationEnabled bool) ColorState {
	s := ColorState{
		brightness: ClampPercent(brightness),
		saturation: ClampPercent(saturation),
	}
	s.rgb = s.derive(c, saturationEnabled)
	return s
}

func (s ColorState) Brightness() float64 { return s.brightness }
func (s ColorState) Saturation() float64 { return s.saturation }
func (s ColorState) RGB() RGB            { return s.rgb }

func (s ColorState) derive(c Channel, saturationEnabled bool) RGB {
	sat := DefaultSaturation
	if saturationEnabled {
		sat = s.saturation
	}
	return ComputeRGB(s.brightness, sat, c)
}

// Update is a partial change to a ColorState. Nil fields keep their previous value.
type Update struct {
	Brightness *float64 `json:"brightness,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
}

// SetBrightness returns an Update that only changes brightness.
func SetBrightness(v float64) Update { return Update{Brightness: &v} }

// SetSaturation returns an Update that only changes saturation.
func SetSaturation(v float64) Update { return Update{Saturation: &v} }

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool { return u.Brightness == nil && u.Saturation == nil }

// Merge applies u over s and re-derives the RGB.
func (s ColorState) Merge(c Channel, u Update, saturationEnabled bool) ColorState {
	next := s
	if u.Brightness != nil {
		next.brightness = ClampPercent(*u.Brightness)
	}
	if u.Saturation != nil {
		next.saturation = ClampPercent(*u.Saturation)
	}
	next.rgb = next.derive(c, saturationEnabled)
	return next
}

// View is the serializable form of a ColorState.
type View struct {
	Channel    Channel  `json:"channel"`
	Brightness float64  `json:"brightness"`
	Saturation float64  `json:"saturation"`
	RGB        [3]uint8 `json:"rgb"`
	Hex        string   `json:"hex"`
}

func (s ColorState) View(c Channel) View {
	return View{
		Channel:    c,
		Brightness: s.brightness,
		Saturation: s.saturation,
		RGB:        [3]uint8{s.rgb.R, s.rgb.G, s.rgb.B},
		Hex:        c.Hex(),
	}
}
