package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/config"
	diag "github.com/coreman2200/colorlab/internal/diagnostics"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/render"
)

// HoverSink is told about every hover result, e.g. a lamp.
type HoverSink interface {
	Hover(c colorstate.RGB, ok bool) error
}

type Options struct {
	Bounds     layout.Bounds
	DPR        float64
	Debounce   time.Duration
	Compositor string
	Saturation bool
}

// OptionsFrom maps the canvas section of the config.
func OptionsFrom(c config.Canvas) Options {
	return Options{
		Bounds:     layout.Bounds{Min: c.MinSize, Max: c.MaxSize},
		DPR:        c.DPR,
		Debounce:   c.Debounce(),
		Compositor: c.Compositor,
		Saturation: c.Saturation,
	}
}

// State is the host-side owner of the controls and the render engine. Every
// mutation re-renders synchronously, so replies always describe a fresh frame.
type State struct {
	mu       sync.Mutex
	controls *colorstate.Controls
	engine   *render.Engine
	bounds   layout.Bounds
	debounce *layout.Debouncer

	ConfigPath string
	Config     *config.Config
	Lamp       HoverSink

	hub       *hub
	startTime time.Time
}

func NewState(opts Options) (*State, error) {
	if opts.Bounds.Min <= 0 {
		opts.Bounds = layout.DefaultBounds()
	}
	controls := colorstate.NewControls(opts.Saturation)
	// until a host measures, the canvas is as large as allowed
	g := opts.Bounds.Measure(layout.Measurement{Container: float64(opts.Bounds.Max), DPR: opts.DPR})
	eng, err := render.NewEngine(g, nil, opts.Compositor)
	if err != nil {
		return nil, err
	}
	h := newHub()
	eng.Drv = h
	eng.SetControls(controls.Snapshot())
	return &State{
		controls:  controls,
		engine:    eng,
		bounds:    opts.Bounds,
		debounce:  layout.NewDebouncer(opts.Debounce),
		hub:       h,
		startTime: time.Now(),
	}, nil
}

// renderLocked pushes the controls into the engine and renders. Callers hold mu.
func (s *State) renderLocked() {
	s.engine.SetControls(s.controls.Snapshot())
	if err := s.engine.Render(); err != nil {
		log.Warn().Err(err).Msg("frame broadcast failed")
	}
}

func (s *State) stateLocked() StateMessage {
	snap := s.controls.Snapshot()
	g := s.engine.Geometry()
	return StateMessage{
		Type:              "state",
		Channels:          snap.Views(),
		SaturationEnabled: snap.SaturationEnabled,
		Compositor:        s.engine.Compositor(),
		Compositors:       s.engine.Compositors(),
		Logical:           g.Logical,
		Physical:          g.Physical(),
		DPR:               g.DPR,
		FrameID:           s.engine.FrameID(),
		Revision:          snap.Revision,
	}
}

// Snapshot returns the current state message, rendering first if needed.
func (s *State) Snapshot() StateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderLocked()
	return s.stateLocked()
}

// Update merges a partial change into one channel.
func (s *State) Update(ch colorstate.Channel, u colorstate.Update) StateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Update(ch, u)
	s.renderLocked()
	return s.stateLocked()
}

// Reset restores every channel to its defaults.
func (s *State) Reset() StateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls.Reset()
	s.renderLocked()
	return s.stateLocked()
}

// SetCompositor switches the compositing rule and persists the choice.
func (s *State) SetCompositor(name string) (StateMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.engine.Compositor()
	if err := s.engine.SetCompositor(name); err != nil {
		return s.stateLocked(), err
	}
	s.renderLocked()
	if prev != name {
		s.hub.pushDiag(diag.New(diag.Info, diag.CodeCompositor, "Compositor changed").
			With("from", prev).With("to", name))
		s.saveConfig()
	}
	return s.stateLocked(), nil
}

// SetSaturationEnabled toggles the saturation control and persists the choice.
func (s *State) SetSaturationEnabled(on bool) StateMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controls.SaturationEnabled() != on {
		s.controls.SetSaturationEnabled(on)
		s.renderLocked()
		s.saveConfig()
	}
	return s.stateLocked()
}

// Resize schedules a re-layout for the measurement. Bursts collapse into the
// last one; the resulting state is broadcast to every control client.
func (s *State) Resize(m layout.Measurement) {
	s.debounce.Trigger(func() { s.applyResize(m) })
}

// FlushResize applies a pending resize immediately.
func (s *State) FlushResize() { s.debounce.Flush() }

func (s *State) applyResize(m layout.Measurement) {
	g, prev, msg := s.resizeLocked(m)
	if prev != g {
		log.Debug().Int("logical", g.Logical).Int("physical", g.Physical()).Msg("canvas resized")
		s.hub.pushDiag(diag.New(diag.Info, diag.CodeResize, "Canvas resized").
			With("logical", g.Logical).With("physical", g.Physical()))
	}
	s.hub.broadcastState(msg)
}

func (s *State) resizeLocked(m layout.Measurement) (g, prev layout.Geometry, msg StateMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g = s.bounds.Measure(m)
	prev = s.engine.Geometry()
	s.engine.Resize(g)
	s.renderLocked()
	return g, prev, s.stateLocked()
}

// Hover samples the composite under a pointer in display coordinates.
func (s *State) Hover(x, y float64) HoverMessage {
	s.mu.Lock()
	c, ok := s.engine.SampleRGB(x, y)
	s.mu.Unlock()

	s.notifyLamp(c, ok)
	msg := HoverMessage{Type: "hover", X: x, Y: y}
	if ok {
		css := c.CSS()
		msg.Color = &css
	}
	return msg
}

// Leave clears the hover readout.
func (s *State) Leave() HoverMessage {
	s.notifyLamp(colorstate.RGB{}, false)
	return HoverMessage{Type: "hover"}
}

func (s *State) notifyLamp(c colorstate.RGB, ok bool) {
	if s.Lamp == nil {
		return
	}
	if err := s.Lamp.Hover(c, ok); err != nil {
		log.Warn().Err(err).Msg("lamp write failed")
		s.hub.pushDiag(diag.New(diag.Warn, diag.CodeLampWrite, "Lamp write failed").With("error", err.Error()))
	}
}

// Apply runs one control message. The reply is nil for resize, whose result is
// broadcast once the debounce settles.
func (s *State) Apply(m ControlMessage) (any, error) {
	switch m.Op {
	case OpUpdate:
		ch, err := colorstate.ParseChannel(m.Channel)
		if err != nil {
			return nil, err
		}
		return s.Update(ch, colorstate.Update{Brightness: m.Brightness, Saturation: m.Saturation}), nil
	case OpReset:
		return s.Reset(), nil
	case OpResize:
		s.Resize(layout.Measurement{Container: m.Width, Viewport: m.Viewport, DPR: m.DPR})
		return nil, nil
	case OpHover:
		return s.Hover(m.X, m.Y), nil
	case OpLeave:
		return s.Leave(), nil
	case OpCompositor:
		msg, err := s.SetCompositor(m.Name)
		if err != nil {
			return nil, err
		}
		return msg, nil
	case OpSaturation:
		if m.Enabled == nil {
			return nil, fmt.Errorf("saturation: missing enabled")
		}
		return s.SetSaturationEnabled(*m.Enabled), nil
	default:
		s.hub.pushDiag(diag.New(diag.Warn, diag.CodeUnknownOp, "Unknown control op").With("op", m.Op))
		return nil, fmt.Errorf("unknown op %q", m.Op)
	}
}

// Report publishes a diagnostic raised outside the state holder, such as a
// lamp fallback at startup.
func (s *State) Report(d diag.Diagnostic) { s.hub.pushDiag(d) }

// saveConfig persists the canvas choices. Callers hold mu.
func (s *State) saveConfig() {
	if s.ConfigPath == "" || s.Config == nil {
		return
	}
	s.Config.Canvas.Compositor = s.engine.Compositor()
	s.Config.Canvas.Saturation = s.controls.SaturationEnabled()
	if err := config.Save(s.ConfigPath, s.Config); err != nil {
		log.Error().Err(err).Str("path", s.ConfigPath).Msg("config save failed")
		s.hub.pushDiag(diag.New(diag.Err, diag.CodeConfigSave, "Config save failed").With("error", err.Error()))
	}
}

// Close drops any pending resize.
func (s *State) Close() {
	s.debounce.Stop()
}
