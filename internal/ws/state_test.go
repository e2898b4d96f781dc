package ws

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/config"
	diag "github.com/coreman2200/colorlab/internal/diagnostics"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/render"
)

type recordingLamp struct {
	mu    sync.Mutex
	calls []string
}

func (l *recordingLamp) Hover(c colorstate.RGB, ok bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !ok {
		l.calls = append(l.calls, "off")
	} else {
		l.calls = append(l.calls, c.CSS())
	}
	return nil
}

func newTestState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(Options{
		Bounds:     layout.DefaultBounds(),
		Debounce:   5 * time.Millisecond,
		Saturation: true,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	s.Resize(layout.Measurement{Container: 200, DPR: 1})
	s.FlushResize()
	return s
}

func TestStateDefaults(t *testing.T) {
	s, err := NewState(Options{})
	require.NoError(t, err)
	msg := s.Snapshot()
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, layout.DefaultMaxSize, msg.Logical)
	assert.Equal(t, render.CompositeMax, msg.Compositor)
	assert.Equal(t, []string{"max", "sum"}, msg.Compositors)
	require.Len(t, msg.Channels, 3)
	assert.Equal(t, [3]uint8{255, 0, 0}, msg.Channels[0].RGB)
	assert.NotZero(t, msg.FrameID)
}

func TestStateUpdateAndHover(t *testing.T) {
	s := newTestState(t)
	lamp := &recordingLamp{}
	s.Lamp = lamp

	msg := s.Update(colorstate.Red, colorstate.SetBrightness(40))
	assert.Equal(t, 40.0, msg.Channels[0].Brightness)
	assert.Equal(t, [3]uint8{102, 0, 0}, msg.Channels[0].RGB)

	h := s.Hover(60, 120)
	require.NotNil(t, h.Color)
	assert.Equal(t, "rgb(102, 0, 0)", *h.Color)

	h = s.Hover(100, 100)
	require.NotNil(t, h.Color)
	assert.Equal(t, "rgb(102, 255, 255)", *h.Color)

	h = s.Hover(-5, 10)
	assert.Nil(t, h.Color)

	assert.Nil(t, s.Leave().Color)
	assert.Equal(t, []string{"rgb(102, 0, 0)", "rgb(102, 255, 255)", "off", "off"}, lamp.calls)
}

func TestStateResetAndRevision(t *testing.T) {
	s := newTestState(t)
	before := s.Snapshot().Revision
	s.Update(colorstate.Green, colorstate.SetBrightness(10))
	msg := s.Reset()
	assert.Greater(t, msg.Revision, before)
	assert.Equal(t, 100.0, msg.Channels[1].Brightness)
}

func TestStateResizeIsDebounced(t *testing.T) {
	s := newTestState(t)
	s.Resize(layout.Measurement{Container: 300, DPR: 2})
	s.Resize(layout.Measurement{Container: 50, DPR: 1})
	s.Resize(layout.Measurement{Container: 250, Viewport: 240, DPR: 1.5})
	s.FlushResize()

	msg := s.Snapshot()
	assert.Equal(t, 208, msg.Logical)
	assert.Equal(t, 312, msg.Physical)
}

func TestStateCompositorPersists(t *testing.T) {
	s := newTestState(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	s.ConfigPath = path
	s.Config = config.Default()

	_, err := s.SetCompositor("screen")
	require.Error(t, err)

	msg, err := s.SetCompositor(render.CompositeSum)
	require.NoError(t, err)
	assert.Equal(t, "sum", msg.Compositor)

	msg = s.SetSaturationEnabled(false)
	assert.False(t, msg.SaturationEnabled)

	saved, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sum", saved.Canvas.Compositor)
	assert.False(t, saved.Canvas.Saturation)
}

func TestApplyErrors(t *testing.T) {
	s := newTestState(t)
	_, err := s.Apply(ControlMessage{Op: "explode"})
	assert.Error(t, err)
	_, err = s.Apply(ControlMessage{Op: OpUpdate, Channel: "purple"})
	assert.Error(t, err)
	_, err = s.Apply(ControlMessage{Op: OpSaturation})
	assert.Error(t, err)
	reply, err := s.Apply(ControlMessage{Op: OpResize, Width: 300})
	assert.NoError(t, err)
	assert.Nil(t, reply)
}

func TestHostileResizeStaysBounded(t *testing.T) {
	for _, tc := range []struct {
		name     string
		msg      ControlMessage
		logical  int
		physical int
	}{
		{"huge dpr", ControlMessage{Op: OpResize, Width: 600, DPR: 1e6}, 600, 2400},
		{"zero dpr", ControlMessage{Op: OpResize, Width: 300}, 300, 300},
		{"negative dpr", ControlMessage{Op: OpResize, Width: 300, DPR: -2}, 300, 300},
		{"negative viewport", ControlMessage{Op: OpResize, Width: 300, Viewport: -800, DPR: 1}, 300, 300},
		{"width far above max", ControlMessage{Op: OpResize, Width: 1e15, DPR: 3}, 600, 1800},
		{"negative width", ControlMessage{Op: OpResize, Width: -50, DPR: 1}, 140, 140},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestState(t)
			require.NotPanics(t, func() {
				_, err := s.Apply(tc.msg)
				require.NoError(t, err)
				s.FlushResize()
			})
			msg := s.Snapshot()
			assert.Equal(t, tc.logical, msg.Logical)
			assert.Equal(t, tc.physical, msg.Physical)

			// the state lock is free and the canvas still samples
			h := s.Hover(float64(tc.logical)/2, float64(tc.logical)/2)
			assert.NotNil(t, h.Color)
		})
	}
}

func newServer(t *testing.T, s *State) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func readJSON(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, c.ReadJSON(&m))
	return m
}

func TestControlSocket(t *testing.T) {
	s := newTestState(t)
	srv := newServer(t, s)
	c := dial(t, srv, "/control")

	first := readJSON(t, c)
	assert.Equal(t, "state", first["type"])
	assert.EqualValues(t, 200, first["logical"])

	require.NoError(t, c.WriteJSON(map[string]any{"op": "update", "channel": "blue", "brightness": 0}))
	st := readJSON(t, c)
	assert.Equal(t, "state", st["type"])

	require.NoError(t, c.WriteJSON(map[string]any{"op": "hover", "x": 100, "y": 100}))
	h := readJSON(t, c)
	assert.Equal(t, "hover", h["type"])
	assert.Equal(t, "rgb(255, 255, 0)", h["color"])

	require.NoError(t, c.WriteJSON(map[string]any{"op": "leave"}))
	h = readJSON(t, c)
	assert.Nil(t, h["color"])

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("{nope")))
	e := readJSON(t, c)
	assert.Equal(t, "error", e["type"])

	require.NoError(t, c.WriteJSON(map[string]any{"op": "resize", "width": 320, "dpr": 2}))
	st = readJSON(t, c)
	assert.Equal(t, "state", st["type"])
	assert.EqualValues(t, 320, st["logical"])
	assert.EqualValues(t, 640, st["physical"])

	require.NoError(t, c.WriteJSON(map[string]any{"op": "resize", "width": 320, "dpr": 1e6}))
	st = readJSON(t, c)
	assert.EqualValues(t, 1280, st["physical"])
	assert.EqualValues(t, 4, st["dpr"])
}

func TestCrossOriginUpgradeRefused(t *testing.T) {
	s := newTestState(t)
	srv := newServer(t, s)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/control"

	hdr := http.Header{"Origin": []string{"http://elsewhere.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	hdr = http.Header{"Origin": []string{srv.URL}}
	c, _, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	c.Close()
}

func TestFramesSocket(t *testing.T) {
	s := newTestState(t)
	srv := newServer(t, s)
	c := dial(t, srv, "/ws")

	readFrame := func() (frameHeader, []byte) {
		mt, hdr, err := c.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, mt)
		var h frameHeader
		require.NoError(t, json.Unmarshal(hdr, &h))
		mt, body, err := c.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.BinaryMessage, mt)
		return h, body
	}

	h, body := readFrame()
	assert.Equal(t, 200, h.Logical)
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())

	require.Eventually(t, func() bool { f, _, _ := s.hub.counts(); return f == 1 }, time.Second, 5*time.Millisecond)
	s.Update(colorstate.Red, colorstate.SetBrightness(20))
	next, _ := readFrame()
	assert.Greater(t, next.FrameID, h.FrameID)
}

func TestDiagSocketAndHealth(t *testing.T) {
	s := newTestState(t)
	srv := newServer(t, s)
	s.Report(diag.New(diag.Warn, diag.CodeLampFallback, "Lamp fell back to the simulator"))

	c := dial(t, srv, "/diag")
	// backlog first: the resize from newTestState, then the report
	assert.Equal(t, "LAYOUT.RESIZE", readJSON(t, c)["code"])
	assert.Equal(t, "LAMP.FALLBACK", readJSON(t, c)["code"])
	require.Eventually(t, func() bool { _, d, _ := s.hub.counts(); return d == 1 }, time.Second, 5*time.Millisecond)

	_, err := s.SetCompositor(render.CompositeSum)
	require.NoError(t, err)
	d := readJSON(t, c)
	assert.Equal(t, "RENDER.COMPOSITOR", d["code"])
	assert.Equal(t, "info", d["severity"])

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "sum", health["compositor"])
	assert.EqualValues(t, 200, health["logical"])
}

func TestDiagBacklogIsBounded(t *testing.T) {
	s := newTestState(t)
	for i := 0; i < diagBacklog+10; i++ {
		s.Report(diag.New(diag.Info, diag.CodeResize, "tick").With("i", i))
	}
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	require.Len(t, s.hub.recent, diagBacklog)
	assert.Equal(t, diagBacklog+9, s.hub.recent[diagBacklog-1].Evidence["i"])
}
