package optics

import (
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// FirstOrder holds the Gaussian properties of a system, carried as jets so
// quantities like EFL stay differentiable with respect to seeded parameters.
type FirstOrder struct {
	EFL        autodiff.Jet // effective focal length, mm
	BFL        autodiff.Jet // back focal distance from last vertex, mm
	FNum       autodiff.Jet // working f-number at infinite conjugates
	Power      autodiff.Jet // 1/EFL
	TotalTrack autodiff.Jet // first vertex to image plane, mm
}

// Paraxial runs a y-nu marginal ray trace at the given wavelength and
// returns the first-order properties. Reduced angles ω = n·u keep the
// refraction equation uniform; a mirror flips the sign of the index.
func Paraxial(sys *SystemModel, lambda autodiff.Jet) (FirstOrder, error) {
	if err := sys.Validate(); err != nil {
		return FirstOrder{}, err
	}

	y := autodiff.Const(1)
	omega := autodiff.Const(0) // reduced angle n·u
	n := autodiff.Const(1)     // object space is air

	for _, e := range sys.Elements {
		var nNext autodiff.Jet
		if e.Mirror {
			nNext = n.Neg()
		} else {
			nNext = e.Medium.Index(lambda)
			if n.Val < 0 {
				// still folded back from an odd mirror count
				nNext = nNext.Neg()
			}
		}

		phi := e.Surf.Curvature().Mul(nNext.Sub(n))
		omega = omega.Sub(y.Mul(phi))
		y = y.Add(e.Thick.Mul(omega).Div(nNext))
		n = nNext
	}

	power := omega.Neg()
	if math.Abs(power.Val) < 1e-12 {
		return FirstOrder{}, fmt.Errorf("optics: system %q is afocal, no focal length", sys.Name)
	}
	efl := power.Recip()

	// y just crossed the final thickness; step back to the last vertex
	// for the back focal distance.
	last := sys.Elements[len(sys.Elements)-1]
	yVertex := y.Sub(last.Thick.Mul(omega).Div(n))
	bfl := yVertex.Neg().Mul(n).Div(omega)

	return FirstOrder{
		EFL:        efl,
		BFL:        bfl,
		FNum:       efl.DivFloat(sys.EPD).Abs(),
		Power:      power,
		TotalTrack: sys.TotalTrack(),
	}, nil
}

// ParaxialImageHeight returns the ideal image height for a field angle,
// h = EFL·tan(θ).
func ParaxialImageHeight(fo FirstOrder, angleDeg float64) autodiff.Jet {
	return fo.EFL.MulFloat(math.Tan(angleDeg * math.Pi / 180))
}

// SolveImageDistance replaces the final thickness with the paraxial back
// focal distance so the image plane sits at best Gaussian focus. It returns
// a copy; the input system is not modified.
func SolveImageDistance(sys *SystemModel, lambda autodiff.Jet) (*SystemModel, error) {
	fo, err := Paraxial(sys, lambda)
	if err != nil {
		return nil, err
	}
	out := *sys
	out.Elements = make([]Element, len(sys.Elements))
	copy(out.Elements, sys.Elements)
	out.Elements[len(out.Elements)-1].Thick = fo.BFL
	return &out, nil
}
