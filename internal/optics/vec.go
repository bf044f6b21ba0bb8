package optics

import "github.com/eikonal-bridge/dee/internal/autodiff"

// Vec is a 3-component vector over jet scalars.
type Vec struct {
	X, Y, Z autodiff.Jet
}

// V builds a constant vector.
func V(x, y, z float64) Vec {
	return Vec{autodiff.Const(x), autodiff.Const(y), autodiff.Const(z)}
}

func (v Vec) Add(o Vec) Vec {
	return Vec{v.X.Add(o.X), v.Y.Add(o.Y), v.Z.Add(o.Z)}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{v.X.Sub(o.X), v.Y.Sub(o.Y), v.Z.Sub(o.Z)}
}

func (v Vec) Scale(s autodiff.Jet) Vec {
	return Vec{v.X.Mul(s), v.Y.Mul(s), v.Z.Mul(s)}
}

func (v Vec) ScaleFloat(s float64) Vec {
	return Vec{v.X.MulFloat(s), v.Y.MulFloat(s), v.Z.MulFloat(s)}
}

func (v Vec) Neg() Vec {
	return Vec{v.X.Neg(), v.Y.Neg(), v.Z.Neg()}
}

func (v Vec) Dot(o Vec) autodiff.Jet {
	return v.X.Mul(o.X).Add(v.Y.Mul(o.Y)).Add(v.Z.Mul(o.Z))
}

func (v Vec) Cross(o Vec) Vec {
	return Vec{
		v.Y.Mul(o.Z).Sub(v.Z.Mul(o.Y)),
		v.Z.Mul(o.X).Sub(v.X.Mul(o.Z)),
		v.X.Mul(o.Y).Sub(v.Y.Mul(o.X)),
	}
}

// Norm2 returns the squared length.
func (v Vec) Norm2() autodiff.Jet {
	return v.Dot(v)
}

func (v Vec) Norm() autodiff.Jet {
	return v.Norm2().Sqrt()
}

// Unit returns v scaled to unit length.
func (v Vec) Unit() Vec {
	return v.Scale(v.Norm().Recip())
}

// Vals returns the plain component values.
func (v Vec) Vals() (x, y, z float64) {
	return v.X.Val, v.Y.Val, v.Z.Val
}
