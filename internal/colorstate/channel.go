package colorstate

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Channel identifies one of the three fixed light sources.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// Channels lists every channel in canonical order.
var Channels = [3]Channel{Red, Green, Blue}

type channelInfo struct {
	name    string
	primary RGB
	x, y    float64 // fractions of the canvas side
}

var channelTable = [3]channelInfo{
	Red:   {name: "red", primary: RGB{R: 255}, x: 0.3, y: 0.6},
	Green: {name: "green", primary: RGB{G: 255}, x: 0.7, y: 0.6},
	Blue:  {name: "blue", primary: RGB{B: 255}, x: 0.5, y: 0.3},
}

func (c Channel) valid() bool { return c >= Red && c <= Blue }

func (c Channel) String() string {
	if !c.valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelTable[c].name
}

// Primary returns the pure primary bound to the channel.
func (c Channel) Primary() RGB {
	if !c.valid() {
		return RGB{}
	}
	return channelTable[c].primary
}

// Position returns the canonical disc center as fractions of the canvas side.
func (c Channel) Position() (x, y float64) {
	if !c.valid() {
		return 0, 0
	}
	info := channelTable[c]
	return info.x, info.y
}

// Hex is the display color used by control panels, e.g. "#ff0000".
func (c Channel) Hex() string {
	p := c.Primary()
	return colorful.Color{R: float64(p.R) / 255, G: float64(p.G) / 255, B: float64(p.B) / 255}.Hex()
}

// ParseChannel accepts "red", "green" or "blue" in any case.
func ParseChannel(s string) (Channel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Channels {
		if channelTable[c].name == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

func (c Channel) MarshalText() ([]byte, error) {
	if !c.valid() {
		return nil, fmt.Errorf("invalid channel %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(b []byte) error {
	ch, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = ch
	return nil
}
