package analysis

import (
	"fmt"

	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Fan is a one-dimensional pupil scan for one field. Pupil holds the
// normalized coordinates of the rays that reached the image plane; Value
// holds the measure per surviving ray. Vignetted rays are dropped and
// counted in Lost.
type Fan struct {
	AngleDeg float64
	Sagittal bool
	Pupil    []float64
	Value    []float64
	Lost     int
}

// TransverseFan scans the pupil diameter and records transverse ray
// aberration against the chief ray, in mm. Tangential fans scan py and
// measure Δy; sagittal fans scan px and measure Δx.
func TransverseFan(tr *raytrace.Tracer, angleDeg float64, n int, sagittal bool) (*Fan, error) {
	return scanFan(tr, angleDeg, n, sagittal, func(ray, chief raytrace.Ray) float64 {
		if sagittal {
			return ray.Pos.X.Val - chief.Pos.X.Val
		}
		return ray.Pos.Y.Val - chief.Pos.Y.Val
	})
}

// OPDFan scans the pupil diameter and records optical path difference
// against the chief ray, in waves at the tracer wavelength.
func OPDFan(tr *raytrace.Tracer, angleDeg float64, n int, sagittal bool) (*Fan, error) {
	toWaves := 1e3 / tr.Wavelength().Val
	return scanFan(tr, angleDeg, n, sagittal, func(ray, chief raytrace.Ray) float64 {
		return (ray.OPL.Val - chief.OPL.Val) * toWaves
	})
}

func scanFan(tr *raytrace.Tracer, angleDeg float64, n int, sagittal bool, measure func(ray, chief raytrace.Ray) float64) (*Fan, error) {
	if n < 2 {
		n = 2
	}
	sys := tr.System()

	chief, err := tr.Trace(raytrace.Chief(sys, angleDeg))
	if err != nil {
		return nil, fmt.Errorf("analysis: chief ray at %g deg: %w", angleDeg, err)
	}

	fan := &Fan{AngleDeg: angleDeg, Sagittal: sagittal}
	for i := 0; i < n; i++ {
		p := -1 + 2*float64(i)/float64(n-1)
		px, py := 0.0, p
		if sagittal {
			px, py = p, 0
		}
		out, err := tr.Trace(raytrace.Launch(sys, angleDeg, px, py))
		if err != nil {
			fan.Lost++
			continue
		}
		fan.Pupil = append(fan.Pupil, p)
		fan.Value = append(fan.Value, measure(out, chief))
	}
	if len(fan.Pupil) == 0 {
		return nil, fmt.Errorf("analysis: fan at %g deg: %w", angleDeg, raytrace.ErrNoRays)
	}
	return fan, nil
}
