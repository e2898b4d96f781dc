package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/colorlab/internal/diagnostics"
)

// The zero Upgrader refuses cross-origin upgrades.
var upgrader = websocket.Upgrader{}

// drain reads until the client goes away, then unregisters it.
func (s *State) drain(p *peer, set map[*peer]bool) {
	defer func() {
		s.hub.remove(set, p)
		p.conn.Close()
	}()
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleFramesWS streams every fresh frame as a JSON header and a PNG.
func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &peer{conn: conn}

	// the newcomer gets the current frame before any broadcast
	s.mu.Lock()
	single := &hub{frames: map[*peer]bool{p: true}}
	if err := single.Write(s.engine.Frame()); err != nil {
		log.Debug().Err(err).Msg("initial frame")
	}
	s.hub.add(s.hub.frames, p)
	s.mu.Unlock()

	go s.drain(p, s.hub.frames)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &peer{conn: conn}
	s.hub.addDiag(p)
	go s.drain(p, s.hub.diag)
}

// HandleControlWS answers control messages. Every connection first receives
// the current state.
func (s *State) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	p := &peer{conn: conn}
	s.hub.add(s.hub.control, p)
	defer func() {
		s.hub.remove(s.hub.control, p)
		conn.Close()
	}()

	if err := p.writeJSON(s.Snapshot()); err != nil {
		return
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.hub.pushDiag(diag.New(diag.Warn, diag.CodeBadMessage, "Malformed control message").
				With("error", err.Error()))
			_ = p.writeJSON(ErrorMessage{Type: "error", Error: "malformed message"})
			continue
		}
		reply, err := s.Apply(msg)
		if err != nil {
			_ = p.writeJSON(ErrorMessage{Type: "error", Error: err.Error()})
			continue
		}
		if reply != nil {
			if err := p.writeJSON(reply); err != nil {
				return
			}
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.engine.Geometry()
	resp := map[string]any{
		"frame_id":   s.engine.FrameID(),
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"logical":    g.Logical,
		"physical":   g.Physical(),
		"compositor": s.engine.Compositor(),
		"last_ms":    s.engine.Last.TotalMS,
	}
	s.mu.Unlock()
	frames, diags, control := s.hub.counts()
	resp["clients"] = map[string]int{"frames": frames, "diag": diags, "control": control}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
