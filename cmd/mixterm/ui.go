package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/render"
)

const (
	statusLines = 3
	step        = 5.0
	upperHalf   = '▀'
)

var termBounds = layout.Bounds{Min: 8, Max: layout.DefaultMaxSize}

type resizeTag struct{}

type ui struct {
	screen   tcell.Screen
	controls *colorstate.Controls
	engine   *render.Engine
	debounce *layout.Debouncer

	selected colorstate.Channel
	hover    *colorstate.RGB
	hoverAt  [2]int
	quit     bool
}

func newUI(s tcell.Screen, compositor string, saturation bool) (*ui, error) {
	u := &ui{
		screen:   s,
		controls: colorstate.NewControls(saturation),
		debounce: layout.NewDebouncer(layout.DefaultDebounce),
	}
	eng, err := render.NewEngine(u.measure(), nil, compositor)
	if err != nil {
		return nil, err
	}
	u.engine = eng
	u.sync()
	return u, nil
}

// measure fits the square canvas into the terminal: one column per pixel and
// two pixels per row.
func (u *ui) measure() layout.Geometry {
	w, h := u.screen.Size()
	side := min(w, 2*(h-statusLines))
	return termBounds.Measure(layout.Measurement{Container: float64(side), DPR: 1})
}

func (u *ui) sync() {
	u.engine.SetControls(u.controls.Snapshot())
}

func (u *ui) run() {
	u.draw()
	for !u.quit {
		ev := u.screen.PollEvent()
		if ev == nil {
			return
		}
		u.handle(ev)
		u.draw()
	}
	u.debounce.Stop()
}

func (u *ui) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		u.screen.Sync()
		u.debounce.Trigger(func() {
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(resizeTag{}))
		})
	case *tcell.EventInterrupt:
		if _, ok := ev.Data().(resizeTag); ok {
			u.engine.Resize(u.measure())
			u.hover = nil
		}
	case *tcell.EventKey:
		u.handleKey(ev)
	case *tcell.EventMouse:
		x, y := ev.Position()
		u.sample(x, y)
	}
}

func (u *ui) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		u.quit = true
	case tcell.KeyUp:
		u.selected = colorstate.Channel((int(u.selected) + 2) % 3)
	case tcell.KeyDown, tcell.KeyTab:
		u.selected = colorstate.Channel((int(u.selected) + 1) % 3)
	case tcell.KeyLeft:
		u.nudge(-step, 0)
	case tcell.KeyRight:
		u.nudge(step, 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			u.quit = true
		case 'r':
			u.controls.Reset()
			u.sync()
		case 'c':
			u.cycleCompositor()
		case 's':
			u.controls.SetSaturationEnabled(!u.controls.SaturationEnabled())
			u.sync()
		case '[':
			u.nudge(0, -step)
		case ']':
			u.nudge(0, step)
		}
	}
	u.refreshHover()
}

func (u *ui) nudge(db, ds float64) {
	st := u.controls.Get(u.selected)
	upd := colorstate.Update{}
	if db != 0 {
		upd = colorstate.SetBrightness(st.Brightness() + db)
	}
	if ds != 0 {
		upd = colorstate.SetSaturation(st.Saturation() + ds)
	}
	u.controls.Update(u.selected, upd)
	u.sync()
}

func (u *ui) cycleCompositor() {
	names := u.engine.Compositors()
	for i, n := range names {
		if n == u.engine.Compositor() {
			next := names[(i+1)%len(names)]
			if err := u.engine.SetCompositor(next); err != nil {
				log.Warn().Err(err).Msg("compositor")
			}
			return
		}
	}
}

// sample reads the composite under terminal cell (x, y).
func (u *ui) sample(x, y int) {
	u.hoverAt = [2]int{x, y}
	c, ok := u.engine.SampleRGB(float64(x), float64(2*y))
	if !ok {
		u.hover = nil
		return
	}
	u.hover = &c
}

func (u *ui) refreshHover() {
	if u.hover != nil {
		u.sample(u.hoverAt[0], u.hoverAt[1])
	}
}

func rgbColor(r, g, b uint8) tcell.Color {
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// overBlack is what a pixel looks like on the black canvas background.
func overBlack(c color.NRGBA) tcell.Color {
	a := int32(c.A)
	return tcell.NewRGBColor(int32(c.R)*a/255, int32(c.G)*a/255, int32(c.B)*a/255)
}

func (u *ui) draw() {
	start := time.Now()
	u.screen.Clear()
	frame := u.engine.Frame().Logical
	side := frame.Rect.Dx()
	for cy := 0; cy*2 < side; cy++ {
		for x := 0; x < side; x++ {
			st := tcell.StyleDefault.
				Foreground(overBlack(frame.NRGBAAt(x, 2*cy))).
				Background(overBlack(frame.NRGBAAt(x, 2*cy+1)))
			u.screen.SetContent(x, cy, upperHalf, nil, st)
		}
	}
	u.drawStatus((side + 1) / 2)
	u.screen.Show()
	log.Debug().Dur("draw", time.Since(start)).Uint64("frame", u.engine.FrameID()).Msg("draw")
}

func (u *ui) drawStatus(row int) {
	snap := u.controls.Snapshot()
	x := 0
	for _, ch := range colorstate.Channels {
		st := snap.States[ch]
		label := fmt.Sprintf(" %s %3.0f%%", ch, st.Brightness())
		if snap.SaturationEnabled {
			label += fmt.Sprintf(" sat %3.0f%%", st.Saturation())
		}
		style := tcell.StyleDefault.Foreground(rgbColor(st.RGB().R, st.RGB().G, st.RGB().B))
		if ch == u.selected {
			style = style.Reverse(true)
		}
		x = u.print(x, row, style, label) + 1
	}
	u.print(0, row+1, tcell.StyleDefault, u.hoverText())
	u.print(0, row+2, tcell.StyleDefault.Dim(true),
		fmt.Sprintf("↑↓ channel  ←→ brightness  [] saturation  s toggle sat  c %s  r reset  q quit", u.engine.Compositor()))
}

func (u *ui) hoverText() string {
	if u.hover == nil {
		return "hover over the canvas"
	}
	c := colorful.Color{R: float64(u.hover.R) / 255, G: float64(u.hover.G) / 255, B: float64(u.hover.B) / 255}
	h, s, l := c.Hsl()
	return fmt.Sprintf("%s  %s  hsl(%.0f, %.0f%%, %.0f%%)", u.hover.CSS(), c.Hex(), h, s*100, l*100)
}

func (u *ui) print(x, y int, style tcell.Style, s string) int {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
