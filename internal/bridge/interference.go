package bridge

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// TwoBeam is a pair of mutually coherent beams by intensity.
type TwoBeam struct {
	I1, I2 float64
}

// EqualSplit divides unit input power evenly.
func EqualSplit() TwoBeam { return TwoBeam{I1: 0.5, I2: 0.5} }

// Fringe is the screen intensity where both beams overlap:
// I = I1 + I2 + 2√(I1·I2)·cos Δφ.
func (t TwoBeam) Fringe(dphi float64) float64 {
	return t.I1 + t.I2 + 2*math.Sqrt(t.I1*t.I2)*math.Cos(dphi)
}

// FringeJet is Fringe over a jet phase difference, so fringe intensity
// stays differentiable in the design parameters.
func (t TwoBeam) FringeJet(dphi autodiff.Jet) autodiff.Jet {
	return dphi.Cos().MulFloat(2 * math.Sqrt(t.I1*t.I2)).AddFloat(t.I1 + t.I2)
}

// Visibility is the fringe contrast (Imax−Imin)/(Imax+Imin).
func (t TwoBeam) Visibility() float64 {
	if t.I1+t.I2 == 0 {
		return 0
	}
	return 2 * math.Sqrt(t.I1*t.I2) / (t.I1 + t.I2)
}

// Ports gives the two recombined outputs of an interferometer. Unlike the
// overlap fringe, the second splitter redistributes power, so the ports sum
// to the input: I1 + I2.
func (t TwoBeam) Ports(dphi float64) (bright, dark float64) {
	mean := (t.I1 + t.I2) / 2
	cross := math.Sqrt(t.I1*t.I2) * math.Cos(dphi)
	return mean + cross, mean - cross
}
