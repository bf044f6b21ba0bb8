package merit

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Distortion measures the worst-field relative departure of the chief-ray
// image height from the paraxial height f·tan(angle), in percent. Only
// chief rays (px = py = 0) at nonzero field contribute; the on-axis field
// has no height to compare against.
type Distortion struct {
	name  string
	efl   autodiff.Jet
	worst autodiff.Jet
	seen  bool
}

// NewDistortion takes the focal length as a jet so the paraxial reference
// height tracks the design parameters.
func NewDistortion(efl autodiff.Jet) *Distortion {
	return &Distortion{name: "distortion_pct", efl: efl}
}

func (m *Distortion) Name() string { return m.name }

func (m *Distortion) Observe(r raytrace.Ray, field optics.Field, px, py float64) {
	if px != 0 || py != 0 || field.AngleDeg == 0 {
		return
	}
	ref := m.efl.MulFloat(math.Tan(field.AngleDeg * math.Pi / 180))
	pct := r.Pos.Y.Sub(ref).Div(ref).Abs().MulFloat(100)
	if !m.seen {
		m.worst = pct
		m.seen = true
		return
	}
	m.worst = autodiff.Max(m.worst, pct)
}

// Value returns the worst-field distortion in percent, zero before any
// chief ray was observed.
func (m *Distortion) Value() autodiff.Jet {
	if !m.seen {
		return autodiff.Const(0)
	}
	return m.worst
}

func (m *Distortion) Reset() {
	m.worst = autodiff.Jet{}
	m.seen = false
}
