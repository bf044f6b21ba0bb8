package merit

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

type spotAccum struct {
	angle    float64
	weight   float64
	sx, sy   autodiff.Jet
	sxx, syy autodiff.Jet
	n        int
}

// SpotSize measures the mean-square transverse spot radius about the
// centroid, per field, in mm². Fields are combined by their weights.
type SpotSize struct {
	name   string
	fields []*spotAccum
}

func NewSpotSize() *SpotSize {
	return &SpotSize{name: "rms_spot"}
}

func (m *SpotSize) Name() string { return m.name }

func (m *SpotSize) field(f optics.Field) *spotAccum {
	for _, a := range m.fields {
		if a.angle == f.AngleDeg {
			return a
		}
	}
	w := f.Weight
	if w <= 0 {
		w = 1
	}
	a := &spotAccum{
		angle: f.AngleDeg, weight: w,
		sx: autodiff.Const(0), sy: autodiff.Const(0),
		sxx: autodiff.Const(0), syy: autodiff.Const(0),
	}
	m.fields = append(m.fields, a)
	return a
}

func (m *SpotSize) Observe(r raytrace.Ray, field optics.Field, px, py float64) {
	a := m.field(field)
	a.sx = a.sx.Add(r.Pos.X)
	a.sy = a.sy.Add(r.Pos.Y)
	a.sxx = a.sxx.Add(r.Pos.X.Square())
	a.syy = a.syy.Add(r.Pos.Y.Square())
	a.n++
}

// Value returns the field-weighted mean-square spot radius. With nothing
// observed it returns zero.
func (m *SpotSize) Value() autodiff.Jet {
	total := autodiff.Const(0)
	wsum := 0.0
	for _, a := range m.fields {
		if a.n == 0 {
			continue
		}
		inv := 1 / float64(a.n)
		mx := a.sx.MulFloat(inv)
		my := a.sy.MulFloat(inv)
		ms := a.sxx.Add(a.syy).MulFloat(inv).
			Sub(mx.Square()).
			Sub(my.Square())
		total = total.Add(ms.MulFloat(a.weight))
		wsum += a.weight
	}
	if wsum == 0 {
		return autodiff.Const(0)
	}
	return total.MulFloat(1 / wsum)
}

// RMS is the square root of Value, for reporting.
func (m *SpotSize) RMS() float64 {
	return math.Sqrt(math.Max(m.Value().Val, 0))
}

func (m *SpotSize) Reset() { m.fields = nil }
