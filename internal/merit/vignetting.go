package merit

import (
	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Vignetting reports the fraction of launched rays that never reached the
// image surface. The count is piecewise constant in the design parameters,
// so Value carries no derivatives.
type Vignetting struct {
	name string
	ok   int
	lost int
}

func NewVignetting() *Vignetting {
	return &Vignetting{name: "vignetting"}
}

func (m *Vignetting) Name() string { return m.name }

func (m *Vignetting) Observe(r raytrace.Ray, field optics.Field, px, py float64) {
	m.ok++
}

func (m *Vignetting) ObserveLost(field optics.Field, px, py float64) {
	m.lost++
}

func (m *Vignetting) Value() autodiff.Jet {
	total := m.ok + m.lost
	if total == 0 {
		return autodiff.Const(0)
	}
	return autodiff.Const(float64(m.lost) / float64(total))
}

// Lost and Launched expose the raw counts.
func (m *Vignetting) Lost() int     { return m.lost }
func (m *Vignetting) Launched() int { return m.ok + m.lost }

func (m *Vignetting) Reset() {
	m.ok = 0
	m.lost = 0
}
