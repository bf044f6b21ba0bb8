package analysis

import (
	"fmt"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/merit"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// FocusPoint is one through-focus sample: the image plane shift from the
// nominal position and the spot radius found there.
type FocusPoint struct {
	Offset float64 // mm, added to the final thickness
	RMS    float64
	Lost   int
}

// ThroughFocus repeats a spot diagram with the image plane displaced by
// each offset. The system itself is left untouched; each offset traces a
// shifted copy.
func ThroughFocus(sys *optics.SystemModel, angleDeg float64, samples []merit.PupilSample, offsets []float64) ([]FocusPoint, error) {
	if len(sys.Elements) == 0 {
		return nil, fmt.Errorf("analysis: through-focus on empty system")
	}
	points := make([]FocusPoint, 0, len(offsets))
	for _, d := range offsets {
		shifted := *sys
		shifted.Elements = append([]optics.Element(nil), sys.Elements...)
		last := &shifted.Elements[len(shifted.Elements)-1]
		last.Thick = last.Thick.AddFloat(d)

		tr := raytrace.New(&shifted, autodiff.Const(shifted.Wavelength))
		spot, err := SpotDiagram(tr, angleDeg, samples)
		if err != nil {
			return nil, fmt.Errorf("analysis: through-focus at %+g mm: %w", d, err)
		}
		points = append(points, FocusPoint{Offset: d, RMS: spot.RMS, Lost: spot.Lost})
	}
	return points, nil
}

// FocusOffsets builds a symmetric offset ladder: n steps either side of
// nominal at the given spacing.
func FocusOffsets(n int, spacing float64) []float64 {
	out := make([]float64, 0, 2*n+1)
	for i := -n; i <= n; i++ {
		out = append(out, float64(i)*spacing)
	}
	return out
}
