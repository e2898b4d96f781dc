package ws

import (
	"github.com/coreman2200/colorlab/internal/colorstate"
)

// Control operations accepted on /control.
const (
	OpUpdate     = "update"
	OpReset      = "reset"
	OpResize     = "resize"
	OpHover      = "hover"
	OpLeave      = "leave"
	OpCompositor = "compositor"
	OpSaturation = "saturation"
)

// ControlMessage is one request from a host. Only the fields of its op are read.
type ControlMessage struct {
	Op string `json:"op"`

	// update
	Channel    string   `json:"channel,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`

	// resize
	Width    float64 `json:"width,omitempty"`
	Viewport float64 `json:"viewport,omitempty"`
	DPR      float64 `json:"dpr,omitempty"`

	// hover
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// compositor
	Name string `json:"name,omitempty"`

	// saturation
	Enabled *bool `json:"enabled,omitempty"`
}

type StateMessage struct {
	Type              string            `json:"type"`
	Channels          []colorstate.View `json:"channels"`
	SaturationEnabled bool              `json:"saturationEnabled"`
	Compositor        string            `json:"compositor"`
	Compositors       []string          `json:"compositors"`
	Logical           int               `json:"logical"`
	Physical          int               `json:"physical"`
	DPR               float64           `json:"dpr"`
	FrameID           uint64            `json:"frame_id"`
	Revision          uint64            `json:"revision"`
}

// HoverMessage carries the color under the pointer; Color is null when the
// pointer is outside the canvas or has left it.
type HoverMessage struct {
	Type  string  `json:"type"`
	Color *string `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type frameHeader struct {
	T        int64  `json:"t"`
	FrameID  uint64 `json:"frame_id"`
	Logical  int    `json:"logical"`
	Physical int    `json:"physical"`
}
