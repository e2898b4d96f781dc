package render

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/layout"
)

var ErrUnknownCompositor = errors.New("unknown compositor")

// Engine owns the logical layers, the composite and the device-scaled frame.
// Any input change marks the buffer stale; Render makes it fresh again. Sample
// and Frame never hand out a stale buffer. Engine is not safe for concurrent use.
type Engine struct {
	Drv    Driver
	Scaler xdraw.Scaler

	geom     layout.Geometry
	sources  [3]Source
	reg      *Registry
	compName string
	comp     Compositor

	layers []*image.NRGBA // one per source, logical size
	out    *image.NRGBA   // composite, logical size
	frame  *image.NRGBA   // blit target, physical size

	stale   bool
	frameID uint64

	// metrics (last durations in ms)
	Last struct {
		RasterMS float64
		MixMS    float64
		BlitMS   float64
		TotalMS  float64
	}
}

// NewEngine returns a stale engine for the geometry. A nil registry means
// DefaultRegistry; an empty compositor name means CompositeMax.
func NewEngine(g layout.Geometry, reg *Registry, compositor string) (*Engine, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if compositor == "" {
		compositor = CompositeMax
	}
	e := &Engine{
		Scaler: xdraw.NearestNeighbor,
		reg:    reg,
		stale:  true,
	}
	if err := e.SetCompositor(compositor); err != nil {
		return nil, err
	}
	e.Resize(g)
	return e, nil
}

// SetCompositor switches the compositing rule by registry name.
func (e *Engine) SetCompositor(name string) error {
	c, ok := e.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCompositor, name)
	}
	if name != e.compName {
		e.compName = name
		e.comp = c
		e.stale = true
	}
	return nil
}

func (e *Engine) Compositor() string { return e.compName }

// Compositors lists the names SetCompositor accepts.
func (e *Engine) Compositors() []string { return e.reg.List() }

// SetSources replaces the three lights.
func (e *Engine) SetSources(src [3]Source) {
	if src != e.sources {
		e.sources = src
		e.stale = true
	}
}

// SetControls feeds the engine from the color-state holder.
func (e *Engine) SetControls(s colorstate.Snapshot) {
	e.SetSources(SourcesFrom(s))
}

// Resize reallocates the buffers when the geometry changes.
func (e *Engine) Resize(g layout.Geometry) {
	if g == e.geom && e.out != nil {
		return
	}
	side := max(g.Logical, 0)
	if e.out == nil || e.out.Rect.Dx() != side {
		e.layers = e.layers[:0]
		for range e.sources {
			e.layers = append(e.layers, NewLayer(side))
		}
		e.out = NewLayer(side)
	}
	phys := g.Physical()
	if e.frame == nil || e.frame.Rect.Dx() != phys {
		e.frame = NewLayer(phys)
	}
	e.geom = g
	e.stale = true
}

func (e *Engine) Geometry() layout.Geometry { return e.geom }

func (e *Engine) Stale() bool { return e.stale }

func (e *Engine) FrameID() uint64 { return e.frameID }

// Render rasterizes every source, composites and blits, synchronously. It is a
// no-op when the buffer is already fresh. Degenerate geometry renders an empty
// frame. The only error comes from the driver.
func (e *Engine) Render() error {
	if !e.stale {
		return nil
	}
	start := time.Now()

	side := float64(e.geom.Logical)
	radius := side * RadiusFraction
	for i, s := range e.sources {
		RasterizeDisc(e.layers[i], s.X*side, s.Y*side, radius, s.Color, s.Brightness)
	}
	rasterDone := time.Now()

	e.comp(e.out, e.layers)
	mixDone := time.Now()

	Blit(e.frame, e.out, e.Scaler)
	blitDone := time.Now()

	e.stale = false
	e.frameID++

	e.Last.RasterMS = ms(rasterDone.Sub(start))
	e.Last.MixMS = ms(mixDone.Sub(rasterDone))
	e.Last.BlitMS = ms(blitDone.Sub(mixDone))
	e.Last.TotalMS = ms(blitDone.Sub(start))

	if e.Drv != nil {
		if err := e.Drv.Write(e.current()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) current() Frame {
	return Frame{ID: e.frameID, Logical: e.out, Physical: e.frame}
}

// Frame renders if needed and returns the current frame. The images are owned
// by the engine and change on the next render.
func (e *Engine) Frame() Frame {
	e.ensureFresh()
	return e.current()
}

func (e *Engine) ensureFresh() {
	if e.stale {
		// the frame is fresh even when the driver rejects it
		if err := e.Render(); err != nil {
			log.Warn().Err(err).Uint64("frame", e.frameID).Msg("frame driver write failed")
		}
	}
}

// At returns the composited logical pixel.
func (e *Engine) At(px, py int) (colorstate.RGB, bool) {
	e.ensureFresh()
	if px < 0 || py < 0 || px >= e.out.Rect.Dx() || py >= e.out.Rect.Dy() {
		return colorstate.RGB{}, false
	}
	i := e.out.PixOffset(px, py)
	p := e.out.Pix[i : i+3 : i+3]
	return colorstate.RGB{R: p[0], G: p[1], B: p[2]}, true
}

// SampleRGB reads the color under a pointer given in display coordinates. The
// buffer is brought up to date first, so the result always reflects the
// current inputs. ok is false outside the drawable area.
func (e *Engine) SampleRGB(x, y float64) (colorstate.RGB, bool) {
	px, py, ok := e.geom.ToLogical(x, y)
	if !ok {
		return colorstate.RGB{}, false
	}
	return e.At(px, py)
}

// Sample is SampleRGB formatted for the hover readout.
func (e *Engine) Sample(x, y float64) (HoverSample, bool) {
	c, ok := e.SampleRGB(x, y)
	if !ok {
		return HoverSample{}, false
	}
	return HoverSample{Color: c.CSS(), X: x, Y: y}, true
}

func ms(d time.Duration) float64 { return float64(d.Microseconds()) / 1000.0 }
