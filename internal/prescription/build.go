package prescription

import (
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/eikonal"
	"github.com/eikonal-bridge/dee/internal/optics"
)

// Dim returns the number of design variables.
func (p *Prescription) Dim() int { return len(p.Variables) }

// InitialParams reads the variables' nominal values off the surface table.
func (p *Prescription) InitialParams() eikonal.Params {
	x := make(eikonal.Params, len(p.Variables))
	for i, v := range p.Variables {
		s := &p.Surfaces[v.Surface]
		switch v.Field {
		case "curvature":
			x[i] = s.EffectiveCurvature()
		case "thickness":
			x[i] = s.Thickness
		case "conic":
			x[i] = s.Conic
		}
	}
	return x
}

// Bounds returns per-variable box bounds. Variables with zero min and max
// are unbounded on both sides.
func (p *Prescription) Bounds() (lower, upper []float64) {
	lower = make([]float64, len(p.Variables))
	upper = make([]float64, len(p.Variables))
	for i, v := range p.Variables {
		if v.Min == 0 && v.Max == 0 {
			lower[i] = math.Inf(-1)
			upper[i] = math.Inf(1)
			continue
		}
		lower[i] = v.Min
		upper[i] = v.Max
	}
	return lower, upper
}

// Builder returns the system constructor the engine and merit layers drive.
func (p *Prescription) Builder() eikonal.Builder {
	return p.ToSystem
}

// Nominal builds the system at the variables' nominal values.
func (p *Prescription) Nominal() (*optics.SystemModel, error) {
	return p.ToSystem(autodiff.Lift(p.InitialParams()))
}

// ToSystem builds the optical system with the design variables set to p.
// Derivative structure in the parameter jets flows into every surface the
// variables touch.
func (p *Prescription) ToSystem(params []autodiff.Jet) (*optics.SystemModel, error) {
	if len(params) != len(p.Variables) {
		return nil, fmt.Errorf("prescription %q: got %d params, want %d: %w",
			p.Name, len(params), len(p.Variables), eikonal.ErrDimensionMismatch)
	}

	curv := make([]autodiff.Jet, len(p.Surfaces))
	conic := make([]autodiff.Jet, len(p.Surfaces))
	thick := make([]autodiff.Jet, len(p.Surfaces))
	varConic := make([]bool, len(p.Surfaces))
	for i := range p.Surfaces {
		s := &p.Surfaces[i]
		curv[i] = autodiff.Const(s.EffectiveCurvature())
		conic[i] = autodiff.Const(s.Conic)
		thick[i] = autodiff.Const(s.Thickness)
	}
	for i, v := range p.Variables {
		switch v.Field {
		case "curvature":
			curv[v.Surface] = params[i]
		case "thickness":
			thick[v.Surface] = params[i]
		case "conic":
			conic[v.Surface] = params[i]
			varConic[v.Surface] = true
		}
	}

	elems := make([]optics.Element, len(p.Surfaces))
	for i := range p.Surfaces {
		s := &p.Surfaces[i]

		var surf optics.Surface
		switch {
		case s.Type == "flat":
			surf = optics.NewFlat()
		case s.Type == "asphere" || len(s.Aspheric) > 0:
			surf = optics.NewEvenAsphere(curv[i], conic[i], autodiff.Lift(s.Aspheric))
		case s.Conic != 0 || varConic[i]:
			surf = optics.NewConic(curv[i], conic[i])
		default:
			surf = optics.NewStandard(curv[i])
		}

		var medium optics.Glass = optics.Air
		if s.Glass != "" && !s.Mirror {
			g, err := optics.LookupGlass(s.Glass)
			if err != nil {
				return nil, fmt.Errorf("prescription %q: surface %d: %w", p.Name, i, err)
			}
			medium = g
		}

		elems[i] = optics.Element{
			Surf:     surf,
			Thick:    thick[i],
			Medium:   medium,
			SemiDiam: s.SemiDiam,
			Mirror:   s.Mirror,
			Stop:     s.Stop,
		}
	}

	fields := make([]optics.Field, len(p.Fields))
	for i, a := range p.Fields {
		fields[i] = optics.Field{AngleDeg: a, Weight: 1}
	}

	sys := &optics.SystemModel{
		Name:       p.Name,
		Elements:   elems,
		Wavelength: p.Wavelength,
		EPD:        p.EPD,
		Fields:     fields,
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}
