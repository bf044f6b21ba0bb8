package raytrace

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

// Ray is a position, a unit direction, and the optical path length
// accumulated so far (mm, index-weighted).
type Ray struct {
	Pos optics.Vec
	Dir optics.Vec
	OPL autodiff.Jet
}

// Launch builds a ray for a collimated field beam at the entrance pupil,
// which sits in the first vertex plane (z = 0). px and py are normalized
// pupil coordinates in [−1, 1]; the field angle tilts the beam in the y-z
// plane. The starting path length is the plane-wave phase at the launch
// point, so optical path differences across one field reference a common
// incoming wavefront.
func Launch(sys *optics.SystemModel, angleDeg, px, py float64) Ray {
	a := sys.EPD / 2
	theta := angleDeg * math.Pi / 180
	pos := optics.V(px*a, py*a, 0)
	dir := optics.V(0, math.Sin(theta), math.Cos(theta))
	return Ray{
		Pos: pos,
		Dir: dir,
		OPL: pos.Dot(dir),
	}
}

// Chief returns the chief ray for a field: through the pupil center.
func Chief(sys *optics.SystemModel, angleDeg float64) Ray {
	return Launch(sys, angleDeg, 0, 0)
}
