package render

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/layout"
)

// fakeDriver captures every frame written.
type fakeDriver struct {
	ids  []uint64
	last *image.NRGBA
	err  error
}

func (d *fakeDriver) Write(f Frame) error {
	d.ids = append(d.ids, f.ID)
	d.last = f.Physical
	return d.err
}

func newTestEngine(t *testing.T, g layout.Geometry, c *colorstate.Controls, comp string) *Engine {
	t.Helper()
	e, err := NewEngine(g, nil, comp)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	e.SetControls(c.Snapshot())
	return e
}

func sampleColor(t *testing.T, e *Engine, x, y float64) string {
	t.Helper()
	s, ok := e.Sample(x, y)
	if !ok {
		t.Fatalf("sample (%v,%v) outside canvas", x, y)
	}
	return s.Color
}

func TestEnginePrimaryCentersAndOverlaps(t *testing.T) {
	e := newTestEngine(t, layout.Square(200), colorstate.NewControls(true), "")

	cases := []struct {
		name string
		x, y float64
		want string
	}{
		{"red center", 60, 120, "rgb(255, 0, 0)"},
		{"green center", 140, 120, "rgb(0, 255, 0)"},
		{"blue center", 100, 60, "rgb(0, 0, 255)"},
		{"centroid", 100, 100, "rgb(255, 255, 255)"},
		{"red+green", 100, 150, "rgb(255, 255, 0)"},
		{"background", 2, 2, "rgb(0, 0, 0)"},
	}
	for _, tc := range cases {
		if got := sampleColor(t, e, tc.x, tc.y); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestEngineBlueOffLeavesYellowCenter(t *testing.T) {
	c := colorstate.NewControls(true)
	c.Update(colorstate.Blue, colorstate.SetBrightness(0))
	e := newTestEngine(t, layout.Square(200), c, CompositeMax)

	if got := sampleColor(t, e, 100, 100); got != "rgb(255, 255, 0)" {
		t.Fatalf("centroid without blue: got %s", got)
	}
	if got := sampleColor(t, e, 100, 60); got != "rgb(0, 0, 0)" {
		t.Fatalf("blue center with blue off: got %s", got)
	}
}

func TestEngineSampleAfterChangeIsFresh(t *testing.T) {
	c := colorstate.NewControls(true)
	e := newTestEngine(t, layout.Square(200), c, "")
	if err := e.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	c.Update(colorstate.Red, colorstate.SetBrightness(50))
	e.SetControls(c.Snapshot())
	if !e.Stale() {
		t.Fatalf("brightness change should mark the engine stale")
	}
	// no explicit Render: sampling must not observe the old frame
	if got := sampleColor(t, e, 60, 120); got != "rgb(128, 0, 0)" {
		t.Fatalf("got %s", got)
	}
	if e.Stale() {
		t.Fatalf("engine still stale after sample")
	}
}

func TestEngineSumCompositor(t *testing.T) {
	c := colorstate.NewControls(true)
	c.Update(colorstate.Red, colorstate.SetSaturation(0))
	c.Update(colorstate.Green, colorstate.SetSaturation(0))

	e := newTestEngine(t, layout.Square(200), c, CompositeMax)
	if got := sampleColor(t, e, 100, 150); got != "rgb(150, 150, 150)" {
		t.Fatalf("max of grays: got %s", got)
	}
	if err := e.SetCompositor(CompositeSum); err != nil {
		t.Fatalf("set compositor: %v", err)
	}
	if !e.Stale() {
		t.Fatalf("compositor switch should mark stale")
	}
	if got := sampleColor(t, e, 100, 150); got != "rgb(226, 226, 226)" {
		t.Fatalf("sum of grays: got %s", got)
	}
}

func TestEngineUnknownCompositor(t *testing.T) {
	if _, err := NewEngine(layout.Square(10), nil, "screen"); !errors.Is(err, ErrUnknownCompositor) {
		t.Fatalf("expected ErrUnknownCompositor, got %v", err)
	}
	e := newTestEngine(t, layout.Square(10), colorstate.NewControls(true), "")
	if err := e.SetCompositor("screen"); !errors.Is(err, ErrUnknownCompositor) {
		t.Fatalf("expected ErrUnknownCompositor, got %v", err)
	}
	if e.Compositor() != CompositeMax {
		t.Fatalf("failed switch changed compositor to %q", e.Compositor())
	}
}

func TestEngineSampleOutside(t *testing.T) {
	e := newTestEngine(t, layout.Square(200), colorstate.NewControls(true), "")
	for _, p := range [][2]float64{{-1, 10}, {10, -0.5}, {200, 10}, {10, 200}, {500, 500}} {
		if _, ok := e.Sample(p[0], p[1]); ok {
			t.Fatalf("expected no sample at %v", p)
		}
	}
}

func TestEngineSampleScalesDisplayCoordinates(t *testing.T) {
	g := layout.Geometry{Logical: 200, DPR: 1, Display: 100}
	e := newTestEngine(t, g, colorstate.NewControls(true), "")
	// display (30,60) is logical (60,120), the red center
	if got := sampleColor(t, e, 30, 60); got != "rgb(255, 0, 0)" {
		t.Fatalf("got %s", got)
	}
}

func TestEngineDegenerateGeometry(t *testing.T) {
	drv := &fakeDriver{}
	e := newTestEngine(t, layout.Geometry{}, colorstate.NewControls(true), "")
	e.Drv = drv
	if err := e.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	f := e.Frame()
	if !f.Logical.Rect.Empty() || !f.Physical.Rect.Empty() {
		t.Fatalf("expected empty frame, got %v / %v", f.Logical.Rect, f.Physical.Rect)
	}
	if _, ok := e.Sample(0, 0); ok {
		t.Fatalf("empty canvas has no samples")
	}
}

func TestEngineDevicePixelRatio(t *testing.T) {
	drv := &fakeDriver{}
	e := newTestEngine(t, layout.Geometry{Logical: 200, DPR: 2, Display: 200}, colorstate.NewControls(true), "")
	e.Drv = drv
	if err := e.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if drv.last == nil || drv.last.Rect.Dx() != 400 || drv.last.Rect.Dy() != 400 {
		t.Fatalf("expected 400x400 physical frame, got %v", drv.last)
	}
	if got := pixel(drv.last, 120, 240); got != [4]uint8{255, 0, 0, 255} {
		t.Fatalf("scaled red center: got %v", got)
	}
	// logical buffer keeps its size
	if f := e.Frame(); f.Logical.Rect.Dx() != 200 {
		t.Fatalf("logical side changed: %d", f.Logical.Rect.Dx())
	}
}

func TestEngineRendersOnlyWhenStale(t *testing.T) {
	drv := &fakeDriver{}
	c := colorstate.NewControls(true)
	e := newTestEngine(t, layout.Square(50), c, "")
	e.Drv = drv

	for i := 0; i < 3; i++ {
		if err := e.Render(); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if len(drv.ids) != 1 {
		t.Fatalf("expected a single frame, got %d", len(drv.ids))
	}

	e.SetControls(c.Snapshot())
	_ = e.Render()
	if len(drv.ids) != 1 {
		t.Fatalf("unchanged controls re-rendered")
	}

	e.Resize(layout.Square(60))
	_ = e.Render()
	if len(drv.ids) != 2 || drv.ids[1] != 2 {
		t.Fatalf("expected frame 2 after resize, got %v", drv.ids)
	}
}

func TestEngineDriverErrorKeepsFrame(t *testing.T) {
	drv := &fakeDriver{err: errors.New("boom")}
	e := newTestEngine(t, layout.Square(40), colorstate.NewControls(true), "")
	e.Drv = drv
	if err := e.Render(); err == nil {
		t.Fatalf("expected driver error")
	}
	if e.Stale() {
		t.Fatalf("frame should be fresh even when the driver fails")
	}
}

func TestSourcesFromSaturationDisabled(t *testing.T) {
	c := colorstate.NewControls(false)
	c.Update(colorstate.Red, colorstate.SetSaturation(0))
	src := SourcesFrom(c.Snapshot())
	if src[colorstate.Red].Color != [3]uint8{255, 0, 0} {
		t.Fatalf("saturation off should keep the pure primary, got %v", src[colorstate.Red].Color)
	}
	if src[colorstate.Blue].X != 0.5 || src[colorstate.Blue].Y != 0.3 {
		t.Fatalf("blue position: %v,%v", src[colorstate.Blue].X, src[colorstate.Blue].Y)
	}
}

func TestEngineLazyRenderLogsDriverError(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	e := newTestEngine(t, layout.Square(40), colorstate.NewControls(true), "")
	e.Drv = &fakeDriver{err: errors.New("encode failed")}
	f := e.Frame()
	if f.Physical.Rect.Dx() != 40 {
		t.Fatalf("frame not returned: %v", f.Physical.Rect)
	}
	if !strings.Contains(buf.String(), "encode failed") {
		t.Fatalf("driver error not logged: %q", buf.String())
	}
}
