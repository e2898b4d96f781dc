package lamp

import (
	"math"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/config"
)

// Driver names accepted by Open.
const (
	DriverNone    = "none"
	DriverSim     = "sim"
	DriverConsole = "console"
	DriverSPI     = "spi"
)

// Lamp mirrors the hovered color onto every pixel of a strip.
type Lamp struct {
	mu     sync.Mutex
	drv    Driver
	name   string
	pixels int
	buf    []byte
	lit    bool
	color  colorstate.RGB

	// WhiteCap bounds the current drawn by bright mixes, see applyWhiteCap.
	WhiteCap float64
}

// Open builds the configured lamp. It returns nil for driver "none". Hardware
// init failures fall back to the sim driver and are reported through fallback.
func Open(c config.Lamp) (l *Lamp, fallback error) {
	pixels := c.Pixels
	if pixels <= 0 {
		pixels = 1
	}
	var drv Driver
	name := c.Driver
	switch c.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverSim:
		drv = NewSim(pixels)
	case DriverConsole:
		drv = NewConsole(pixels)
	case DriverSPI:
		d, err := NewSPI(c.SPIDev, pixels, c.FreqKHz)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", c.SPIDev).
				Int("pixels", pixels).
				Msg("SPI init failed; falling back to SIM")
			drv, name, fallback = NewSim(pixels), DriverSim, err
		} else {
			drv = d
		}
	default:
		log.Warn().Str("driver", c.Driver).Msg("unknown lamp driver; using SIM")
		drv, name = NewSim(pixels), DriverSim
	}
	l = New(drv, name, pixels)
	l.WhiteCap = c.WhiteCap
	return l, fallback
}

// New wraps an existing driver.
func New(drv Driver, name string, pixels int) *Lamp {
	return &Lamp{drv: drv, name: name, pixels: pixels, buf: make([]byte, pixels*3)}
}

func (l *Lamp) Name() string { return l.name }

// Show fills the strip with c.
func (l *Lamp) Show(c colorstate.RGB) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lit && l.color == c {
		return nil
	}
	for i := 0; i < l.pixels; i++ {
		l.buf[i*3+0] = c.R
		l.buf[i*3+1] = c.G
		l.buf[i*3+2] = c.B
	}
	applyWhiteCap(l.buf, l.WhiteCap)
	if err := l.drv.Write(l.buf); err != nil {
		return err
	}
	l.lit, l.color = true, c
	return nil
}

// Off blanks the strip.
func (l *Lamp) Off() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.lit {
		return nil
	}
	clear(l.buf)
	if err := l.drv.Write(l.buf); err != nil {
		return err
	}
	l.lit = false
	return nil
}

// Hover follows the pointer: a color lights the strip, no color turns it off.
func (l *Lamp) Hover(c colorstate.RGB, ok bool) error {
	if !ok {
		return l.Off()
	}
	return l.Show(c)
}

func (l *Lamp) Close() error {
	_ = l.Off()
	return l.drv.Close()
}

// applyWhiteCap scales each pixel so r+g+b <= whiteCap*3*255.
func applyWhiteCap(rgb []byte, whiteCap float64) {
	if whiteCap <= 0 || whiteCap >= 1 {
		return
	}
	limit := whiteCap * 3.0 * 255.0
	for i := 0; i+2 < len(rgb); i += 3 {
		s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
		if s > limit {
			scale := limit / s
			rgb[i] = byte(math.Round(float64(rgb[i]) * scale))
			rgb[i+1] = byte(math.Round(float64(rgb[i+1]) * scale))
			rgb[i+2] = byte(math.Round(float64(rgb[i+2]) * scale))
		}
	}
}
