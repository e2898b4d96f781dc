package layout

import "math"

const (
	DefaultMinSize = 140
	DefaultMaxSize = 600

	// MaxDPR bounds the reported device pixel ratio. Displays top out around 3-4.
	MaxDPR = 4.0

	// viewportMargin keeps the canvas off the viewport edges on narrow screens.
	viewportMargin = 32
)

// Geometry describes the square canvas: its logical side in CSS pixels, the
// device pixel ratio and the size it is currently displayed at.
type Geometry struct {
	Logical int
	DPR     float64
	Display float64
}

// Square returns a geometry displayed at its logical size with dpr 1.
func Square(side int) Geometry {
	return Geometry{Logical: side, DPR: 1, Display: float64(side)}
}

func (g Geometry) Empty() bool { return g.Logical <= 0 }

func (g Geometry) dpr() float64 { return ClampDPR(g.DPR) }

// ClampDPR maps a reported ratio into (0, MaxDPR]. Missing or non-finite
// values mean 1.
func ClampDPR(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return math.Min(v, MaxDPR)
}

// Physical is the side of the device-scaled buffer, round(S*dpr), at most
// Logical*MaxDPR.
func (g Geometry) Physical() int {
	if g.Empty() {
		return 0
	}
	return int(math.Round(float64(g.Logical) * g.dpr()))
}

func (g Geometry) display() float64 {
	if g.Display <= 0 || math.IsNaN(g.Display) {
		return float64(g.Logical)
	}
	return g.Display
}

// ToLogical maps display-space coordinates onto a logical pixel. ok is false
// outside the drawable area.
func (g Geometry) ToLogical(x, y float64) (px, py int, ok bool) {
	if g.Empty() || math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, false
	}
	ratio := float64(g.Logical) / g.display()
	fx := math.Floor(x * ratio)
	fy := math.Floor(y * ratio)
	if fx < 0 || fy < 0 || fx >= float64(g.Logical) || fy >= float64(g.Logical) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Bounds limits the logical side.
type Bounds struct {
	Min int
	Max int
}

func DefaultBounds() Bounds { return Bounds{Min: DefaultMinSize, Max: DefaultMaxSize} }

// Measurement is what the host reports about the container.
type Measurement struct {
	Container float64 // measured container width, CSS px
	Viewport  float64 // viewport width, CSS px; 0 when unknown
	DPR       float64
}

// Side derives the logical side from a measurement: the container width, held
// inside the viewport margin, capped at Max (DefaultMaxSize when unset) and
// never below Min.
func (b Bounds) Side(m Measurement) int {
	target := m.Container
	if m.Viewport > 0 {
		target = math.Min(target, m.Viewport-viewportMargin)
	}
	maxSide := b.Max
	if maxSide <= 0 {
		maxSide = DefaultMaxSize
	}
	target = math.Min(target, float64(maxSide))
	if math.IsNaN(target) {
		target = 0
	}
	side := int(math.Floor(target))
	if side < b.Min {
		side = b.Min
	}
	return side
}

// Measure builds the geometry for a measurement.
func (b Bounds) Measure(m Measurement) Geometry {
	side := b.Side(m)
	return Geometry{Logical: side, DPR: ClampDPR(m.DPR), Display: float64(side)}
}
