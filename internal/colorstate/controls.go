package colorstate

// Controls is the state holder for all three channels. It is owned by the host
// and handed to the renderer by reference; it is not safe for concurrent use.
type Controls struct {
	saturationEnabled bool
	states            [3]ColorState
	revision          uint64
}

// NewControls creates the default state: every channel at brightness 100 and
// saturation 100.
func NewControls(saturationEnabled bool) *Controls {
	c := &Controls{saturationEnabled: saturationEnabled}
	c.fillDefaults()
	return c
}

func (c *Controls) fillDefaults() {
	for _, ch := range Channels {
		c.states[ch] = NewColorState(ch, DefaultBrightness, DefaultSaturation, c.saturationEnabled)
	}
}

// Get returns the state of one channel.
func (c *Controls) Get(ch Channel) ColorState {
	if !ch.valid() {
		return ColorState{}
	}
	return c.states[ch]
}

// Update merges u into the channel. Empty updates leave the revision untouched.
func (c *Controls) Update(ch Channel, u Update) ColorState {
	if !ch.valid() {
		return ColorState{}
	}
	if u.Empty() {
		return c.states[ch]
	}
	c.states[ch] = c.states[ch].Merge(ch, u, c.saturationEnabled)
	c.revision++
	return c.states[ch]
}

// Reset restores the defaults.
func (c *Controls) Reset() {
	c.fillDefaults()
	c.revision++
}

// SaturationEnabled reports whether saturation feeds into the derived color.
func (c *Controls) SaturationEnabled() bool { return c.saturationEnabled }

// SetSaturationEnabled toggles the saturation extension and re-derives every channel.
func (c *Controls) SetSaturationEnabled(on bool) {
	if c.saturationEnabled == on {
		return
	}
	c.saturationEnabled = on
	for _, ch := range Channels {
		c.states[ch] = c.states[ch].Merge(ch, Update{}, on)
	}
	c.revision++
}

// Revision increases on every effective change.
func (c *Controls) Revision() uint64 { return c.revision }

// Snapshot is an immutable copy of Controls.
type Snapshot struct {
	SaturationEnabled bool
	States            [3]ColorState
	Revision          uint64
}

func (c *Controls) Snapshot() Snapshot {
	return Snapshot{
		SaturationEnabled: c.saturationEnabled,
		States:            c.states,
		Revision:          c.revision,
	}
}

// Views returns the serializable state of every channel.
func (s Snapshot) Views() []View {
	out := make([]View, 0, len(Channels))
	for _, ch := range Channels {
		out = append(out, s.States[ch].View(ch))
	}
	return out
}
