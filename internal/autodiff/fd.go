package autodiff

import "math"

// FiniteDiff approximates derivatives by central differences on the plain
// evaluation path. It exists to cross-check the forward backend and to
// handle objectives with kinks where exact derivatives are undefined.
type FiniteDiff struct {
	// Step scales the per-coordinate step h_i = Step·max(1,|x_i|).
	// Zero selects ε^(1/3) for gradient stencils and ε^(1/4) for the
	// second-difference Hessian stencils.
	Step float64
}

func NewFiniteDiff() *FiniteDiff {
	return &FiniteDiff{}
}

func (f *FiniteDiff) Name() string    { return "fd" }
func (f *FiniteDiff) Available() bool { return true }

func (f *FiniteDiff) step(xi float64) float64 {
	s := f.Step
	if s == 0 {
		s = math.Cbrt(2.2e-16)
	}
	return s * math.Max(1, math.Abs(xi))
}

func (f *FiniteDiff) hstep(xi float64) float64 {
	s := f.Step
	if s == 0 {
		s = math.Sqrt(math.Sqrt(2.2e-16))
	}
	return s * math.Max(1, math.Abs(xi))
}

func (f *FiniteDiff) eval(fn Func, x []float64) (float64, error) {
	return Value(fn, x)
}

func (f *FiniteDiff) Gradient(fn Func, x []float64) ([]float64, error) {
	n := len(x)
	grad := make([]float64, n)
	probe := make([]float64, n)
	copy(probe, x)
	for i := 0; i < n; i++ {
		h := f.step(x[i])
		probe[i] = x[i] + h
		fp, err := f.eval(fn, probe)
		if err != nil {
			return nil, err
		}
		probe[i] = x[i] - h
		fm, err := f.eval(fn, probe)
		if err != nil {
			return nil, err
		}
		probe[i] = x[i]
		grad[i] = (fp - fm) / (2 * h)
	}
	return grad, nil
}

func (f *FiniteDiff) Hessian(fn Func, x []float64) ([]float64, []float64, error) {
	n := len(x)
	grad, err := f.Gradient(fn, x)
	if err != nil {
		return nil, nil, err
	}
	f0, err := f.eval(fn, x)
	if err != nil {
		return nil, nil, err
	}
	hess := make([]float64, n*n)
	probe := make([]float64, n)
	copy(probe, x)
	for i := 0; i < n; i++ {
		hi := f.hstep(x[i])
		probe[i] = x[i] + hi
		fp, err := f.eval(fn, probe)
		if err != nil {
			return nil, nil, err
		}
		probe[i] = x[i] - hi
		fm, err := f.eval(fn, probe)
		if err != nil {
			return nil, nil, err
		}
		probe[i] = x[i]
		hess[i*n+i] = (fp - 2*f0 + fm) / (hi * hi)

		for j := 0; j < i; j++ {
			hj := f.hstep(x[j])
			var quad [4]float64
			for q, signs := range [4][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
				probe[i] = x[i] + signs[0]*hi
				probe[j] = x[j] + signs[1]*hj
				v, err := f.eval(fn, probe)
				if err != nil {
					return nil, nil, err
				}
				quad[q] = v
			}
			probe[i] = x[i]
			probe[j] = x[j]
			h := (quad[0] - quad[1] - quad[2] + quad[3]) / (4 * hi * hj)
			hess[i*n+j] = h
			hess[j*n+i] = h
		}
	}
	return hess, grad, nil
}
