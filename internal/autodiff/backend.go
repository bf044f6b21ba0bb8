package autodiff

import (
	"errors"
	"fmt"
)

// ErrNonFinite indicates an evaluation produced NaN or Inf in the value or
// a tracked derivative.
var ErrNonFinite = errors.New("autodiff: non-finite result")

// Func is a scalar objective expressed in jet arithmetic. It must treat its
// input as read-only.
type Func func(p []Jet) Jet

// Backend computes derivatives of a Func at a point.
type Backend interface {
	Name() string
	Available() bool
	Gradient(f Func, x []float64) ([]float64, error)
	// Hessian returns the n×n matrix row-major together with the gradient.
	Hessian(f Func, x []float64) (hess, grad []float64, err error)
}

var activeBackend Backend

func init() {
	activeBackend = AutoSelect()
}

// SetBackend replaces the process-wide default backend.
func SetBackend(b Backend) {
	activeBackend = b
}

// GetBackend returns the process-wide default backend.
func GetBackend() Backend {
	return activeBackend
}

// AutoSelect picks the best available backend: exact forward-mode when
// available, finite differences otherwise.
func AutoSelect() Backend {
	fwd := NewForward()
	if fwd.Available() {
		return fwd
	}
	return NewFiniteDiff()
}

// New constructs a backend by name ("ad", "fd").
func New(name string) (Backend, error) {
	switch name {
	case "ad", "forward":
		return NewForward(), nil
	case "fd", "finite":
		return NewFiniteDiff(), nil
	default:
		return nil, fmt.Errorf("autodiff: unknown backend: %s", name)
	}
}

// Names lists the selectable backend names.
func Names() []string {
	return []string{"ad", "fd"}
}
