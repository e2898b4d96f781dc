package site

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/coreman2200/colorlab/internal/colorstate"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/render"
)

// canvasQuery is a stateless render request:
// size, dpr, red, green, blue, red_sat, green_sat, blue_sat, compositor.
type canvasQuery struct {
	geom       layout.Geometry
	controls   *colorstate.Controls
	compositor string
}

func floatParam(q url.Values, key string) (float64, bool, error) {
	v := q.Get(key)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

func (s *Server) parseCanvas(q url.Values) (canvasQuery, error) {
	size := float64(s.bounds.Max)
	if v, ok, err := floatParam(q, "size"); err != nil {
		return canvasQuery{}, err
	} else if ok {
		size = v
	}
	dpr, _, err := floatParam(q, "dpr")
	if err != nil {
		return canvasQuery{}, err
	}

	var sat [3]float64
	var satGiven bool
	for _, ch := range colorstate.Channels {
		v, ok, err := floatParam(q, ch.String()+"_sat")
		if err != nil {
			return canvasQuery{}, err
		}
		sat[ch] = colorstate.DefaultSaturation
		if ok {
			sat[ch], satGiven = v, true
		}
	}
	controls := colorstate.NewControls(satGiven)
	for _, ch := range colorstate.Channels {
		u := colorstate.Update{}
		if v, ok, err := floatParam(q, ch.String()); err != nil {
			return canvasQuery{}, err
		} else if ok {
			u.Brightness = &v
		}
		if satGiven {
			v := sat[ch]
			u.Saturation = &v
		}
		controls.Update(ch, u)
	}

	return canvasQuery{
		geom:       s.bounds.Measure(layout.Measurement{Container: size, DPR: dpr}),
		controls:   controls,
		compositor: q.Get("compositor"),
	}, nil
}

func (s *Server) engineFor(r *http.Request) (*render.Engine, error) {
	cq, err := s.parseCanvas(r.URL.Query())
	if err != nil {
		return nil, err
	}
	eng, err := render.NewEngine(cq.geom, nil, cq.compositor)
	if err != nil {
		return nil, err
	}
	eng.SetControls(cq.controls.Snapshot())
	return eng, nil
}

// handleCanvasPNG renders the device-scaled frame for the query.
func (s *Server) handleCanvasPNG(w http.ResponseWriter, r *http.Request) {
	eng, err := s.engineFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, eng.Frame().Physical); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("encode canvas")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	hlog.FromRequest(r).Debug().Float64("render_ms", eng.Last.TotalMS).Msg("canvas rendered")
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(buf.Bytes())
}

type sampleResponse struct {
	Color *string `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// handleSample reports the color at display coordinates x, y of the query's
// canvas, or null outside it.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, okX, errX := floatParam(q, "x")
	y, okY, errY := floatParam(q, "y")
	if errX != nil || errY != nil || !okX || !okY {
		http.Error(w, "x and y are required numbers", http.StatusBadRequest)
		return
	}
	eng, err := s.engineFor(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := sampleResponse{X: x, Y: y}
	if hs, ok := eng.Sample(x, y); ok {
		resp.Color = &hs.Color
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
