package autodiff

import "math"

// Order selects how many derivative levels a seeded computation tracks.
type Order int

const (
	OrderValue    Order = iota // plain evaluation
	OrderGradient              // value + gradient
	OrderHessian               // value + gradient + Hessian
)

// Jet is a scalar with optional first and second derivatives with respect
// to n design variables. Grad has length n; Hess is n×n row-major and kept
// symmetric. A nil Grad means the value is a constant. All jets combined in
// one computation must share the same n; constants mix freely with any n.
type Jet struct {
	Val  float64
	Grad []float64
	Hess []float64
}

// Const returns a jet carrying no derivatives.
func Const(v float64) Jet {
	return Jet{Val: v}
}

// Variable returns the i-th of n design variables seeded at v.
func Variable(v float64, i, n int, order Order) Jet {
	if order == OrderValue {
		return Jet{Val: v}
	}
	j := Jet{Val: v, Grad: make([]float64, n)}
	j.Grad[i] = 1
	if order == OrderHessian {
		j.Hess = make([]float64, n*n)
	}
	return j
}

// Seed seeds a full parameter vector as variables 0..n-1.
func Seed(vals []float64, order Order) []Jet {
	n := len(vals)
	out := make([]Jet, n)
	for i, v := range vals {
		out[i] = Variable(v, i, n, order)
	}
	return out
}

// Lift wraps values as constants.
func Lift(vals []float64) []Jet {
	out := make([]Jet, len(vals))
	for i, v := range vals {
		out[i] = Const(v)
	}
	return out
}

// IsFinite reports whether the value and all tracked derivatives are finite.
func (a Jet) IsFinite() bool {
	if math.IsNaN(a.Val) || math.IsInf(a.Val, 0) {
		return false
	}
	for _, g := range a.Grad {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return false
		}
	}
	for _, h := range a.Hess {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy; the result shares no storage with a.
func (a Jet) Clone() Jet {
	out := Jet{Val: a.Val}
	if a.Grad != nil {
		out.Grad = make([]float64, len(a.Grad))
		copy(out.Grad, a.Grad)
	}
	if a.Hess != nil {
		out.Hess = make([]float64, len(a.Hess))
		copy(out.Hess, a.Hess)
	}
	return out
}

func gradDim(a, b Jet) int {
	if a.Grad != nil {
		return len(a.Grad)
	}
	return len(b.Grad)
}

func gradAt(g []float64, k int) float64 {
	if g == nil {
		return 0
	}
	return g[k]
}

func hessAt(h []float64, idx int) float64 {
	if h == nil {
		return 0
	}
	return h[idx]
}

// Add returns a+b.
func (a Jet) Add(b Jet) Jet {
	out := Jet{Val: a.Val + b.Val}
	if a.Grad == nil && b.Grad == nil {
		return out
	}
	n := gradDim(a, b)
	out.Grad = make([]float64, n)
	for k := 0; k < n; k++ {
		out.Grad[k] = gradAt(a.Grad, k) + gradAt(b.Grad, k)
	}
	if a.Hess != nil || b.Hess != nil {
		out.Hess = make([]float64, n*n)
		for i := range out.Hess {
			out.Hess[i] = hessAt(a.Hess, i) + hessAt(b.Hess, i)
		}
	}
	return out
}

// Sub returns a-b.
func (a Jet) Sub(b Jet) Jet {
	out := Jet{Val: a.Val - b.Val}
	if a.Grad == nil && b.Grad == nil {
		return out
	}
	n := gradDim(a, b)
	out.Grad = make([]float64, n)
	for k := 0; k < n; k++ {
		out.Grad[k] = gradAt(a.Grad, k) - gradAt(b.Grad, k)
	}
	if a.Hess != nil || b.Hess != nil {
		out.Hess = make([]float64, n*n)
		for i := range out.Hess {
			out.Hess[i] = hessAt(a.Hess, i) - hessAt(b.Hess, i)
		}
	}
	return out
}

// Mul returns a*b with the product rule applied through second order.
func (a Jet) Mul(b Jet) Jet {
	out := Jet{Val: a.Val * b.Val}
	if a.Grad == nil && b.Grad == nil {
		return out
	}
	n := gradDim(a, b)
	out.Grad = make([]float64, n)
	for k := 0; k < n; k++ {
		out.Grad[k] = gradAt(a.Grad, k)*b.Val + a.Val*gradAt(b.Grad, k)
	}
	if a.Hess != nil || b.Hess != nil {
		out.Hess = make([]float64, n*n)
		for k := 0; k < n; k++ {
			ga := gradAt(a.Grad, k)
			gb := gradAt(b.Grad, k)
			for l := 0; l <= k; l++ {
				h := hessAt(a.Hess, k*n+l)*b.Val + a.Val*hessAt(b.Hess, k*n+l) +
					ga*gradAt(b.Grad, l) + gb*gradAt(a.Grad, l)
				out.Hess[k*n+l] = h
				out.Hess[l*n+k] = h
			}
		}
	}
	return out
}

// Div returns a/b.
func (a Jet) Div(b Jet) Jet {
	return a.Mul(b.Recip())
}

// Neg returns -a.
func (a Jet) Neg() Jet {
	return a.chain(-a.Val, -1, 0)
}

// AddFloat returns a+c for a plain constant c.
func (a Jet) AddFloat(c float64) Jet {
	out := a.Clone()
	out.Val += c
	return out
}

// SubFloat returns a-c.
func (a Jet) SubFloat(c float64) Jet {
	return a.AddFloat(-c)
}

// MulFloat returns a*c.
func (a Jet) MulFloat(c float64) Jet {
	out := Jet{Val: a.Val * c}
	if a.Grad != nil {
		out.Grad = make([]float64, len(a.Grad))
		for k, g := range a.Grad {
			out.Grad[k] = g * c
		}
	}
	if a.Hess != nil {
		out.Hess = make([]float64, len(a.Hess))
		for i, h := range a.Hess {
			out.Hess[i] = h * c
		}
	}
	return out
}

// DivFloat returns a/c.
func (a Jet) DivFloat(c float64) Jet {
	return a.MulFloat(1 / c)
}

// chain applies the univariate chain rule: for y = f(a) with f(a.Val) = val,
// first derivative d1 and second derivative d2, the gradient is d1·∇a and
// the Hessian is d1·H(a) + d2·∇a⊗∇a.
func (a Jet) chain(val, d1, d2 float64) Jet {
	out := Jet{Val: val}
	if a.Grad == nil {
		return out
	}
	n := len(a.Grad)
	out.Grad = make([]float64, n)
	for k, g := range a.Grad {
		out.Grad[k] = d1 * g
	}
	if a.Hess != nil {
		out.Hess = make([]float64, n*n)
		for k := 0; k < n; k++ {
			gk := a.Grad[k]
			for l := 0; l <= k; l++ {
				h := d1*a.Hess[k*n+l] + d2*gk*a.Grad[l]
				out.Hess[k*n+l] = h
				out.Hess[l*n+k] = h
			}
		}
	}
	return out
}
