package autodiff

// Forward is the exact forward-mode backend. One seeded evaluation yields
// the value, the full gradient and, when requested, the full Hessian.
type Forward struct{}

func NewForward() *Forward {
	return &Forward{}
}

func (f *Forward) Name() string    { return "ad" }
func (f *Forward) Available() bool { return true }

func (f *Forward) Gradient(fn Func, x []float64) ([]float64, error) {
	y := fn(Seed(x, OrderGradient))
	if !y.IsFinite() {
		return nil, ErrNonFinite
	}
	n := len(x)
	grad := make([]float64, n)
	copy(grad, y.Grad)
	return grad, nil
}

func (f *Forward) Hessian(fn Func, x []float64) ([]float64, []float64, error) {
	y := fn(Seed(x, OrderHessian))
	if !y.IsFinite() {
		return nil, nil, ErrNonFinite
	}
	n := len(x)
	grad := make([]float64, n)
	copy(grad, y.Grad)
	hess := make([]float64, n*n)
	copy(hess, y.Hess)
	return hess, grad, nil
}

// Value evaluates fn without derivative tracking.
func Value(fn Func, x []float64) (float64, error) {
	y := fn(Lift(x))
	if !y.IsFinite() {
		return 0, ErrNonFinite
	}
	return y.Val, nil
}
