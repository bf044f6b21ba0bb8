package merit

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

type wfAccum struct {
	angle   float64
	weight  float64
	sw, sww autodiff.Jet
	n       int
}

// Wavefront measures the variance of the optical path across the pupil,
// per field, converted to waves² at the given wavelength. The mean path is
// subtracted, so piston does not count; tilt and defocus do.
type Wavefront struct {
	name     string
	lambdaUm float64
	fields   []*wfAccum
}

func NewWavefront(lambdaUm float64) *Wavefront {
	return &Wavefront{name: "rms_wavefront", lambdaUm: lambdaUm}
}

func (m *Wavefront) Name() string { return m.name }

func (m *Wavefront) field(f optics.Field) *wfAccum {
	for _, a := range m.fields {
		if a.angle == f.AngleDeg {
			return a
		}
	}
	w := f.Weight
	if w <= 0 {
		w = 1
	}
	a := &wfAccum{
		angle: f.AngleDeg, weight: w,
		sw: autodiff.Const(0), sww: autodiff.Const(0),
	}
	m.fields = append(m.fields, a)
	return a
}

func (m *Wavefront) Observe(r raytrace.Ray, field optics.Field, px, py float64) {
	a := m.field(field)
	a.sw = a.sw.Add(r.OPL)
	a.sww = a.sww.Add(r.OPL.Square())
	a.n++
}

// Value returns the field-weighted wavefront variance in waves².
func (m *Wavefront) Value() autodiff.Jet {
	// mm → waves: one wave is lambdaUm·1e-3 mm of path.
	scale := 1e3 / m.lambdaUm
	total := autodiff.Const(0)
	wsum := 0.0
	for _, a := range m.fields {
		if a.n == 0 {
			continue
		}
		inv := 1 / float64(a.n)
		mean := a.sw.MulFloat(inv)
		varW := a.sww.MulFloat(inv).Sub(mean.Square())
		total = total.Add(varW.MulFloat(a.weight * scale * scale))
		wsum += a.weight
	}
	if wsum == 0 {
		return autodiff.Const(0)
	}
	return total.MulFloat(1 / wsum)
}

// RMS is the root of Value: the familiar sigma in waves.
func (m *Wavefront) RMS() float64 {
	return math.Sqrt(math.Max(m.Value().Val, 0))
}

func (m *Wavefront) Reset() { m.fields = nil }

// Strehl estimates the Strehl ratio from the wavefront variance with the
// Maréchal approximation exp(−(2π·sigma)²), sigma in waves. Valid for
// mildly aberrated systems; a perfect system reports 1.
type Strehl struct {
	name string
	wf   *Wavefront
}

func NewStrehl(lambdaUm float64) *Strehl {
	return &Strehl{name: "strehl", wf: NewWavefront(lambdaUm)}
}

func (m *Strehl) Name() string { return m.name }

func (m *Strehl) Observe(r raytrace.Ray, field optics.Field, px, py float64) {
	m.wf.Observe(r, field, px, py)
}

func (m *Strehl) Value() autodiff.Jet {
	return m.wf.Value().MulFloat(-4 * math.Pi * math.Pi).Exp()
}

func (m *Strehl) Reset() { m.wf.Reset() }
