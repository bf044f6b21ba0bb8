package merit

import (
	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Metric accumulates traced rays into one differentiable figure of merit.
// Observe receives the ray at the image surface together with the field it
// was launched from and its normalized pupil coordinates.
type Metric interface {
	Name() string
	Observe(r raytrace.Ray, field optics.Field, px, py float64)
	Value() autodiff.Jet
	Reset()
}

// LostObserver is implemented by metrics that also want to hear about rays
// that never reached the image surface.
type LostObserver interface {
	ObserveLost(field optics.Field, px, py float64)
}

// Accumulate traces the pupil sample for every field of the tracer's system
// and feeds each metric. Rays lost to apertures, surface misses or total
// internal reflection are reported to LostObserver metrics and otherwise
// skipped. If no ray at all survives, ErrNoRays is returned.
func Accumulate(tr *raytrace.Tracer, samples []PupilSample, metrics ...Metric) error {
	sys := tr.System()
	traced := 0
	for _, fld := range sys.Fields {
		for _, s := range samples {
			out, err := tr.Trace(raytrace.Launch(sys, fld.AngleDeg, s.Px, s.Py))
			if err != nil {
				for _, m := range metrics {
					if lo, ok := m.(LostObserver); ok {
						lo.ObserveLost(fld, s.Px, s.Py)
					}
				}
				continue
			}
			traced++
			for _, m := range metrics {
				m.Observe(out, fld, s.Px, s.Py)
			}
		}
	}
	if traced == 0 {
		return raytrace.ErrNoRays
	}
	return nil
}
