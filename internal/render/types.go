package render

import (
	"image"
	"sort"
)

// Source is one light: a base color, a center given as fractions of the canvas
// side and a brightness percentage.
type Source struct {
	Color      [3]uint8
	X, Y       float64
	Brightness float64
}

// Frame is one fresh render: the logical composite and its device-scaled blit.
type Frame struct {
	ID       uint64
	Logical  *image.NRGBA
	Physical *image.NRGBA
}

// Driver receives every fresh frame.
type Driver interface {
	Write(Frame) error
}

// HoverSample is the color under the pointer in display coordinates.
type HoverSample struct {
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Compositor merges per-source layers into dst. All images share dst's bounds.
type Compositor func(dst *image.NRGBA, layers []*image.NRGBA)

type Registry struct{ m map[string]Compositor }

func NewRegistry() *Registry { return &Registry{m: map[string]Compositor{}} }

// DefaultRegistry knows the max-channel and clamped-sum compositors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CompositeMax, MixSources)
	r.Register(CompositeSum, SumSources)
	return r
}

func (r *Registry) Register(name string, c Compositor) {
	if c == nil || name == "" {
		return
	}
	r.m[name] = c
}

func (r *Registry) Get(name string) (Compositor, bool) { c, ok := r.m[name]; return c, ok }

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
