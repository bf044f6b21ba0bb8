package optics

import (
	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// Surface is a rotationally symmetric surface profile. Sag is the axial
// departure z(r²) from the vertex tangent plane; SagDeriv is d(sag)/d(r²).
// Both are evaluated in jet arithmetic so seeded design parameters
// propagate derivatives through the geometry.
type Surface interface {
	Sag(r2 autodiff.Jet) autodiff.Jet
	SagDeriv(r2 autodiff.Jet) autodiff.Jet
	Curvature() autodiff.Jet
	Kind() string
}

// Flat is a plane surface.
type Flat struct{}

func NewFlat() Flat { return Flat{} }

func (Flat) Sag(r2 autodiff.Jet) autodiff.Jet      { return autodiff.Const(0) }
func (Flat) SagDeriv(r2 autodiff.Jet) autodiff.Jet { return autodiff.Const(0) }
func (Flat) Curvature() autodiff.Jet               { return autodiff.Const(0) }
func (Flat) Kind() string                          { return "flat" }

// Standard is a conic section: sag = c·r² / (1 + √(1 − (1+k)c²r²)).
// Curvature c = 1/R; conic k = 0 gives a sphere, k = -1 a paraboloid.
// The formula is smooth through c = 0, so a curvature variable crossing
// zero keeps exact derivatives (no flat special case).
type Standard struct {
	Curv  autodiff.Jet
	Conic autodiff.Jet
}

func NewStandard(curv autodiff.Jet) *Standard {
	return &Standard{Curv: curv, Conic: autodiff.Const(0)}
}

func NewConic(curv, conic autodiff.Jet) *Standard {
	return &Standard{Curv: curv, Conic: conic}
}

func (s *Standard) Kind() string            { return "standard" }
func (s *Standard) Curvature() autodiff.Jet { return s.Curv }

func (s *Standard) Sag(r2 autodiff.Jet) autodiff.Jet {
	c := s.Curv
	w := autodiff.Const(1).Sub(s.Conic.AddFloat(1).Mul(c.Square()).Mul(r2))
	return c.Mul(r2).Div(w.Sqrt().AddFloat(1))
}

func (s *Standard) SagDeriv(r2 autodiff.Jet) autodiff.Jet {
	c := s.Curv
	kp1 := s.Conic.AddFloat(1)
	w := autodiff.Const(1).Sub(kp1.Mul(c.Square()).Mul(r2))
	sq := w.Sqrt()
	den := sq.AddFloat(1)
	first := c.Div(den)
	second := c.Mul(r2).Mul(kp1).Mul(c.Square()).Div(sq.Mul(den.Square()).MulFloat(2))
	return first.Add(second)
}

// EvenAsphere is a conic base with even polynomial departure:
// sag = conic + A4·r⁴ + A6·r⁶ + ... Coef[i] multiplies r^(2i+4).
type EvenAsphere struct {
	Base Standard
	Coef []autodiff.Jet
}

func NewEvenAsphere(curv, conic autodiff.Jet, coef []autodiff.Jet) *EvenAsphere {
	return &EvenAsphere{Base: Standard{Curv: curv, Conic: conic}, Coef: coef}
}

func (a *EvenAsphere) Kind() string            { return "even_asphere" }
func (a *EvenAsphere) Curvature() autodiff.Jet { return a.Base.Curv }

func (a *EvenAsphere) Sag(r2 autodiff.Jet) autodiff.Jet {
	sag := a.Base.Sag(r2)
	pow := r2.Square() // r⁴
	for _, c := range a.Coef {
		sag = sag.Add(c.Mul(pow))
		pow = pow.Mul(r2)
	}
	return sag
}

func (a *EvenAsphere) SagDeriv(r2 autodiff.Jet) autodiff.Jet {
	d := a.Base.SagDeriv(r2)
	pow := r2 // d(r⁴)/d(r²) = 2r²
	for i, c := range a.Coef {
		order := float64(i + 2)
		d = d.Add(c.Mul(pow).MulFloat(order))
		pow = pow.Mul(r2)
	}
	return d
}
