package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

var (
	// ErrNeedsResiduals indicates a least-squares optimizer was handed a
	// problem without a residual vector.
	ErrNeedsResiduals = errors.New("optim: optimizer requires a residual problem")

	// ErrUnboundedGrid indicates a grid search without finite bounds.
	ErrUnboundedGrid = errors.New("optim: grid search requires finite bounds")

	// ErrParameterBounds indicates malformed box bounds: wrong length or a
	// lower bound above its upper.
	ErrParameterBounds = errors.New("optim: invalid parameter bounds")
)

// Problem is the scalar view of a design problem: a dimension and an
// objective the autodiff backends can evaluate.
type Problem interface {
	Dim() int
	Objective() (autodiff.Func, *error)
}

// ResidualProblem is implemented by problems that also expose a residual
// vector whose squares sum to the objective.
type ResidualProblem interface {
	Problem
	Residuals(p []autodiff.Jet) ([]autodiff.Jet, error)
}

// Iteration is one accepted optimizer step. Step carries the line-search
// step length or the damping factor, whichever the optimizer uses.
type Iteration struct {
	N      int
	Cost   float64
	Step   float64
	Params []float64
}

// History records accepted iterations for plots, storage and the live view.
type History struct {
	Iterations []Iteration
}

func (h *History) add(n int, cost, step float64, params []float64) Iteration {
	p := make([]float64, len(params))
	copy(p, params)
	it := Iteration{N: n, Cost: cost, Step: step, Params: p}
	h.Iterations = append(h.Iterations, it)
	return it
}

func (h *History) Len() int { return len(h.Iterations) }

// Costs returns the cost sequence, ready for a terminal graph.
func (h *History) Costs() []float64 {
	out := make([]float64, len(h.Iterations))
	for i, it := range h.Iterations {
		out[i] = it.Cost
	}
	return out
}

// Result is an optimization outcome. Converged reports whether a tolerance
// was met, as opposed to running out of iterations or progress.
type Result struct {
	Params    []float64
	Cost      float64
	Iters     int
	Converged bool
	History   *History
}

// Optimizer drives a problem from a start vector toward a minimum within
// box bounds. Nil bounds mean unbounded.
type Optimizer interface {
	Name() string
	Run(ctx context.Context, prob Problem, lower, upper, x0 []float64) (*Result, error)
}

// checkBounds validates dimensions, fills nil bounds with ±Inf and returns
// a clamped copy of the start vector.
func checkBounds(dim int, lower, upper, x0 []float64) (lo, hi, x []float64, err error) {
	if len(x0) != dim {
		return nil, nil, nil, fmt.Errorf("optim: start vector has %d entries, problem has %d", len(x0), dim)
	}
	lo = fillBound(lower, dim, math.Inf(-1))
	hi = fillBound(upper, dim, math.Inf(1))
	if lo == nil || hi == nil {
		return nil, nil, nil, fmt.Errorf("%w: length does not match dimension %d", ErrParameterBounds, dim)
	}
	for i := 0; i < dim; i++ {
		if lo[i] > hi[i] {
			return nil, nil, nil, fmt.Errorf("%w: lower %g above upper %g at parameter %d", ErrParameterBounds, lo[i], hi[i], i)
		}
	}
	x = make([]float64, dim)
	copy(x, x0)
	clampVec(x, lo, hi)
	return lo, hi, x, nil
}

func fillBound(b []float64, dim int, def float64) []float64 {
	if b == nil {
		out := make([]float64, dim)
		for i := range out {
			out[i] = def
		}
		return out
	}
	if len(b) != dim {
		return nil
	}
	out := make([]float64, dim)
	copy(out, b)
	return out
}

func clampVec(x, lo, hi []float64) {
	for i := range x {
		if x[i] < lo[i] {
			x[i] = lo[i]
		}
		if x[i] > hi[i] {
			x[i] = hi[i]
		}
	}
}

// blockedGrad zeroes gradient components that point out of the feasible box
// at an active bound, so convergence is judged on the free directions.
func blockedGrad(grad, x, lo, hi []float64) []float64 {
	out := make([]float64, len(grad))
	copy(out, grad)
	for i := range out {
		if x[i] <= lo[i] && out[i] > 0 {
			out[i] = 0
		}
		if x[i] >= hi[i] && out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}

func maxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// probValue evaluates the objective at a plain point, preferring the
// problem's trapped cause over a generic non-finite report.
func probValue(fn autodiff.Func, trap *error, x []float64) (float64, error) {
	v, err := autodiff.Value(fn, x)
	if err != nil {
		if trap != nil && *trap != nil {
			return 0, *trap
		}
		return 0, err
	}
	return v, nil
}
