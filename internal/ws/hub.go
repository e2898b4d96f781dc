package ws

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/colorlab/internal/diagnostics"
	"github.com/coreman2200/colorlab/internal/render"
)

const writeWait = 200 * time.Millisecond

// peer serializes writes to one connection.
type peer struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (p *peer) write(mt int, b []byte) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(mt, b)
}

func (p *peer) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.write(websocket.TextMessage, b)
}

// hub tracks connected clients per socket kind. It is the engine's frame
// driver, so it never touches State.mu.
type hub struct {
	mu      sync.RWMutex
	frames  map[*peer]bool
	diag    map[*peer]bool
	control map[*peer]bool

	recent []diag.Diagnostic // replayed to new diag clients
}

const diagBacklog = 32

func newHub() *hub {
	return &hub{
		frames:  map[*peer]bool{},
		diag:    map[*peer]bool{},
		control: map[*peer]bool{},
	}
}

func (h *hub) add(set map[*peer]bool, p *peer) {
	h.mu.Lock()
	set[p] = true
	h.mu.Unlock()
}

func (h *hub) remove(set map[*peer]bool, p *peer) {
	h.mu.Lock()
	delete(set, p)
	h.mu.Unlock()
}

func (h *hub) counts() (frames, diags, control int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frames), len(h.diag), len(h.control)
}

// Write broadcasts a fresh frame: a JSON header followed by the PNG.
func (h *hub) Write(f render.Frame) error {
	h.mu.RLock()
	n := len(h.frames)
	h.mu.RUnlock()
	if n == 0 || f.Physical == nil || f.Physical.Rect.Empty() {
		return nil
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, f.Physical); err != nil {
		return err
	}
	hdr, _ := json.Marshal(frameHeader{
		T:        time.Now().UnixNano(),
		FrameID:  f.ID,
		Logical:  f.Logical.Rect.Dx(),
		Physical: f.Physical.Rect.Dx(),
	})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.frames {
		if err := p.write(websocket.TextMessage, hdr); err != nil {
			log.Debug().Err(err).Msg("write frame header")
			continue
		}
		if err := p.write(websocket.BinaryMessage, buf.Bytes()); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
	return nil
}

func (h *hub) broadcastState(m StateMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.control {
		if err := p.writeJSON(m); err != nil {
			log.Debug().Err(err).Msg("write state")
		}
	}
}

func (h *hub) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, d)
	if n := len(h.recent); n > diagBacklog {
		h.recent = h.recent[n-diagBacklog:]
	}
	for p := range h.diag {
		_ = p.write(websocket.TextMessage, b)
	}
}

// addDiag registers p after replaying the backlog to it.
func (h *hub) addDiag(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.recent {
		if err := p.writeJSON(d); err != nil {
			return
		}
	}
	h.diag[p] = true
}
