package analysis

import (
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/merit"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Spot is a per-field spot diagram: image-plane ray offsets against the
// chief ray, in mm, plus the chief-referenced radii. The chief reference
// (rather than the centroid) keeps repeated diagrams of one design
// comparable when samplings differ.
type Spot struct {
	AngleDeg  float64
	X, Y      []float64
	RMS       float64 // rms radius about the chief, mm
	GeoRadius float64 // radius of the worst ray, mm
	Lost      int
}

// SpotDiagram traces one pupil sampling for one field and collects the
// transverse offsets of the surviving rays.
func SpotDiagram(tr *raytrace.Tracer, angleDeg float64, samples []merit.PupilSample) (*Spot, error) {
	sys := tr.System()

	chief, err := tr.Trace(raytrace.Chief(sys, angleDeg))
	if err != nil {
		return nil, fmt.Errorf("analysis: chief ray at %g deg: %w", angleDeg, err)
	}

	spot := &Spot{AngleDeg: angleDeg}
	sum := 0.0
	for _, s := range samples {
		out, err := tr.Trace(raytrace.Launch(sys, angleDeg, s.Px, s.Py))
		if err != nil {
			spot.Lost++
			continue
		}
		dx := out.Pos.X.Val - chief.Pos.X.Val
		dy := out.Pos.Y.Val - chief.Pos.Y.Val
		spot.X = append(spot.X, dx)
		spot.Y = append(spot.Y, dy)

		r2 := dx*dx + dy*dy
		sum += r2
		if r := math.Sqrt(r2); r > spot.GeoRadius {
			spot.GeoRadius = r
		}
	}
	if len(spot.X) == 0 {
		return nil, fmt.Errorf("analysis: spot at %g deg: %w", angleDeg, raytrace.ErrNoRays)
	}
	spot.RMS = math.Sqrt(sum / float64(len(spot.X)))
	return spot, nil
}
