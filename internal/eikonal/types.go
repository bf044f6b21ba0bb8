package eikonal

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

// Params is a design parameter vector.
type Params []float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	copy(c, p)
	return c
}

func (p Params) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (p Params) Norm() float64 {
	sum := 0.0
	for _, v := range p {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (p Params) Add(other Params) Params {
	result := make(Params, len(p))
	for i := range p {
		if i < len(other) {
			result[i] = p[i] + other[i]
		} else {
			result[i] = p[i]
		}
	}
	return result
}

func (p Params) Sub(other Params) Params {
	result := make(Params, len(p))
	for i := range p {
		if i < len(other) {
			result[i] = p[i] - other[i]
		} else {
			result[i] = p[i]
		}
	}
	return result
}

func (p Params) Scale(factor float64) Params {
	result := make(Params, len(p))
	for i := range p {
		result[i] = p[i] * factor
	}
	return result
}

// Builder materializes an optical system from seeded design parameters.
// Implementations must not retain or mutate the slice.
type Builder func(p []autodiff.Jet) (*optics.SystemModel, error)

// RaySpec names one ray: a field angle and normalized pupil coordinates.
type RaySpec struct {
	AngleDeg float64
	Px, Py   float64
}

// Config controls engine evaluation.
type Config struct {
	Dim        int     // number of design parameters
	Wavelength float64 // µm; 0 adopts the built system's primary
	Backend    string  // gradient backend name; "" uses the active one
}

func DefaultConfig(dim int) Config {
	return Config{Dim: dim}
}

// Result is one engine evaluation. Grad and Hess are filled only by the
// corresponding operations; Hess is n×n row-major.
type Result struct {
	W       float64
	Grad    Params
	Hess    []float64
	Backend string
}
