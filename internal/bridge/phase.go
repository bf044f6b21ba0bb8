package bridge

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/eikonal"
)

// Wavenumber returns 2π/λ in radians per millimetre for λ in µm.
func Wavenumber(lambdaUm float64) float64 {
	return 2 * math.Pi / (lambdaUm * 1e-3)
}

// Phase converts a path length in mm to phase in radians: φ = 2π·W/λ.
// Jet arithmetic carries ∇φ = (2π/λ)·∇W along for free.
func Phase(w autodiff.Jet, lambdaUm float64) autodiff.Jet {
	return w.MulFloat(Wavenumber(lambdaUm))
}

// PathFromPhase inverts Phase: W = φ·λ/2π, in mm.
func PathFromPhase(phi, lambdaUm float64) float64 {
	return phi / Wavenumber(lambdaUm)
}

// Waves expresses a path length in wavelengths.
func Waves(w, lambdaUm float64) float64 {
	return w * 1e3 / lambdaUm
}

// Wrap reduces a phase to its principal value in [0, 2π).
func Wrap(phi float64) float64 {
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return phi
}

// PhaseResult is an engine evaluation rescaled from path length to phase.
type PhaseResult struct {
	Phi     float64   // radians
	Wrapped float64   // principal value in [0, 2π)
	Waves   float64   // path length in wavelengths
	Grad    []float64 // ∂φ/∂p, rad per parameter unit
	Hess    []float64 // ∂²φ/∂p², row-major
}

// FromEikonal rescales W, ∇W and ∇²W into phase units.
func FromEikonal(res *eikonal.Result, lambdaUm float64) *PhaseResult {
	k := Wavenumber(lambdaUm)
	out := &PhaseResult{
		Phi:     k * res.W,
		Wrapped: Wrap(k * res.W),
		Waves:   Waves(res.W, lambdaUm),
	}
	if res.Grad != nil {
		out.Grad = make([]float64, len(res.Grad))
		for i, g := range res.Grad {
			out.Grad[i] = k * g
		}
	}
	if res.Hess != nil {
		out.Hess = make([]float64, len(res.Hess))
		for i, h := range res.Hess {
			out.Hess[i] = k * h
		}
	}
	return out
}
