package autodiff

import "math"

// Recip returns 1/a.
func (a Jet) Recip() Jet {
	v := 1 / a.Val
	return a.chain(v, -v*v, 2*v*v*v)
}

// Sqrt returns √a. The derivative diverges as a.Val approaches zero;
// callers square-averaging ray offsets should differentiate the mean square
// and take the root of the value only.
func (a Jet) Sqrt() Jet {
	v := math.Sqrt(a.Val)
	return a.chain(v, 0.5/v, -0.25/(v*v*v))
}

// Square returns a².
func (a Jet) Square() Jet {
	return a.chain(a.Val*a.Val, 2*a.Val, 2)
}

// Pow returns a^p for constant exponent p.
func (a Jet) Pow(p float64) Jet {
	v := math.Pow(a.Val, p)
	return a.chain(v, p*math.Pow(a.Val, p-1), p*(p-1)*math.Pow(a.Val, p-2))
}

// Sin returns sin(a).
func (a Jet) Sin() Jet {
	s, c := math.Sincos(a.Val)
	return a.chain(s, c, -s)
}

// Cos returns cos(a).
func (a Jet) Cos() Jet {
	s, c := math.Sincos(a.Val)
	return a.chain(c, -s, -c)
}

// Tan returns tan(a).
func (a Jet) Tan() Jet {
	t := math.Tan(a.Val)
	d1 := 1 + t*t
	return a.chain(t, d1, 2*t*d1)
}

// Asin returns arcsin(a) for |a.Val| < 1.
func (a Jet) Asin() Jet {
	w := 1 - a.Val*a.Val
	d1 := 1 / math.Sqrt(w)
	return a.chain(math.Asin(a.Val), d1, a.Val*d1/w)
}

// Atan returns arctan(a).
func (a Jet) Atan() Jet {
	w := 1 + a.Val*a.Val
	return a.chain(math.Atan(a.Val), 1/w, -2*a.Val/(w*w))
}

// Exp returns e^a.
func (a Jet) Exp() Jet {
	v := math.Exp(a.Val)
	return a.chain(v, v, v)
}

// Log returns ln(a) for a.Val > 0.
func (a Jet) Log() Jet {
	v := 1 / a.Val
	return a.chain(math.Log(a.Val), v, -v*v)
}

// Abs returns |a|. The second derivative at the kink is taken as zero.
func (a Jet) Abs() Jet {
	if a.Val < 0 {
		return a.chain(-a.Val, -1, 0)
	}
	return a.chain(a.Val, 1, 0)
}

// Hypot returns √(a²+b²).
func (a Jet) Hypot(b Jet) Jet {
	return a.Square().Add(b.Square()).Sqrt()
}

// Atan2 returns the quadrant-correct arctangent of y/x. The derivatives of
// atan2 match those of ±atan of the ratio everywhere away from the origin;
// the ratio with the larger denominator keeps the division well conditioned.
func Atan2(y, x Jet) Jet {
	v := math.Atan2(y.Val, x.Val)
	if math.Abs(x.Val) >= math.Abs(y.Val) {
		out := y.Div(x).Atan()
		out.Val = v
		return out
	}
	out := x.Div(y).Atan().Neg()
	out.Val = v
	return out
}

// Min returns the smaller of a and b by value.
func Min(a, b Jet) Jet {
	if b.Val < a.Val {
		return b.Clone()
	}
	return a.Clone()
}

// Max returns the larger of a and b by value.
func Max(a, b Jet) Jet {
	if b.Val > a.Val {
		return b.Clone()
	}
	return a.Clone()
}
