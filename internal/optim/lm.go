package optim

import (
	"context"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

const (
	lmLambdaMin = 1e-12
	lmLambdaMax = 1e12
)

// LevenbergMarquardt is damped least squares on the residual vector, the
// classic lens-design optimizer. One jet-seeded residual evaluation per
// accepted step yields the values and the full Jacobian together; the
// normal equations are damped on the diagonal and re-solved with a larger
// damping whenever a step fails to reduce the cost.
type LevenbergMarquardt struct {
	MaxIters int
	Tol      float64
	Lambda0  float64
	Progress func(Iteration)
}

func NewLevenbergMarquardt() *LevenbergMarquardt {
	return &LevenbergMarquardt{MaxIters: 100, Tol: 1e-10, Lambda0: 1e-3}
}

func (l *LevenbergMarquardt) Name() string { return "lm" }

func (l *LevenbergMarquardt) Run(ctx context.Context, prob Problem, lower, upper, x0 []float64) (*Result, error) {
	rp, ok := prob.(ResidualProblem)
	if !ok {
		return nil, ErrNeedsResiduals
	}
	dim := prob.Dim()
	lo, hi, x, err := checkBounds(dim, lower, upper, x0)
	if err != nil {
		return nil, err
	}
	maxIters := l.MaxIters
	if maxIters <= 0 {
		maxIters = 100
	}
	tol := l.Tol
	if tol <= 0 {
		tol = 1e-10
	}
	lambda := l.Lambda0
	if lambda <= 0 {
		lambda = 1e-3
	}

	r, jac, cost, err := l.linearize(rp, x)
	if err != nil {
		return nil, err
	}

	hist := &History{}
	l.emit(hist.add(0, cost, lambda, x))

	res := &Result{Params: x, Cost: cost, History: hist}
	for it := 1; it <= maxIters; it++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		res.Iters = it

		a, g := normalEquations(r, jac, dim)
		grad := make([]float64, dim)
		for i := range grad {
			grad[i] = 2 * g[i]
		}
		if maxAbs(blockedGrad(grad, x, lo, hi)) < tol {
			res.Converged = true
			break
		}

		accepted := false
		for !accepted {
			delta, ok := solveSPD(dampDiagonal(a, dim, lambda), negate(g), dim)
			if ok {
				cand := make([]float64, dim)
				for i := range cand {
					cand[i] = x[i] + delta[i]
				}
				clampVec(cand, lo, hi)

				rNew, jNew, cNew, err := l.linearize(rp, cand)
				if err == nil && cNew < cost {
					relDrop := (cost - cNew) / math.Max(1, math.Abs(cost))
					stepNorm := maxAbs(delta)
					x, r, jac, cost = cand, rNew, jNew, cNew
					lambda = math.Max(lambda/10, lmLambdaMin)
					accepted = true

					res.Params, res.Cost = x, cost
					l.emit(hist.add(it, cost, lambda, x))

					if relDrop < tol || stepNorm < tol*(1+maxAbs(x)) {
						res.Converged = true
					}
					break
				}
			}
			lambda *= 10
			if lambda > lmLambdaMax {
				break
			}
		}
		if !accepted || res.Converged {
			break
		}
	}
	return res, nil
}

// linearize evaluates the residual vector with seeded parameters: values,
// the Jacobian and the cost in one pass. Residuals without derivative
// tracking contribute zero rows.
func (l *LevenbergMarquardt) linearize(rp ResidualProblem, x []float64) (r []float64, jac [][]float64, cost float64, err error) {
	rs, err := rp.Residuals(autodiff.Seed(x, autodiff.OrderGradient))
	if err != nil {
		return nil, nil, 0, err
	}
	dim := len(x)
	r = make([]float64, len(rs))
	jac = make([][]float64, len(rs))
	for i, rj := range rs {
		r[i] = rj.Val
		cost += rj.Val * rj.Val
		row := make([]float64, dim)
		copy(row, rj.Grad)
		jac[i] = row
	}
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil, nil, 0, autodiff.ErrNonFinite
	}
	return r, jac, cost, nil
}

// normalEquations builds A = JᵀJ (row-major) and g = Jᵀr.
func normalEquations(r []float64, jac [][]float64, dim int) (a, g []float64) {
	a = make([]float64, dim*dim)
	g = make([]float64, dim)
	for i, row := range jac {
		for j := 0; j < dim; j++ {
			g[j] += row[j] * r[i]
			for k := j; k < dim; k++ {
				a[j*dim+k] += row[j] * row[k]
			}
		}
	}
	for j := 0; j < dim; j++ {
		for k := 0; k < j; k++ {
			a[j*dim+k] = a[k*dim+j]
		}
	}
	return a, g
}

// dampDiagonal returns a copy of A with Marquardt diagonal damping. A zero
// diagonal entry (a parameter no residual sees) gets a unit reference so
// the system stays solvable.
func dampDiagonal(a []float64, dim int, lambda float64) []float64 {
	out := make([]float64, len(a))
	copy(out, a)
	for j := 0; j < dim; j++ {
		d := out[j*dim+j]
		ref := d
		if ref <= 0 {
			ref = 1
		}
		out[j*dim+j] = d + lambda*ref
	}
	return out
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

// solveSPD solves A·x = b by Cholesky factorization for a symmetric
// positive definite A in row-major order. Reports false when A is not
// positive definite.
func solveSPD(a, b []float64, n int) ([]float64, bool) {
	chol := make([]float64, n*n)
	for j := 0; j < n; j++ {
		sum := a[j*n+j]
		for k := 0; k < j; k++ {
			sum -= chol[j*n+k] * chol[j*n+k]
		}
		if sum <= 0 {
			return nil, false
		}
		chol[j*n+j] = math.Sqrt(sum)
		for i := j + 1; i < n; i++ {
			s := a[i*n+j]
			for k := 0; k < j; k++ {
				s -= chol[i*n+k] * chol[j*n+k]
			}
			chol[i*n+j] = s / chol[j*n+j]
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= chol[i*n+k] * y[k]
		}
		y[i] = s / chol[i*n+i]
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := y[i]
		for k := i + 1; k < n; k++ {
			s -= chol[k*n+i] * x[k]
		}
		x[i] = s / chol[i*n+i]
	}
	return x, true
}

func (l *LevenbergMarquardt) emit(it Iteration) {
	if l.Progress != nil {
		l.Progress(it)
	}
}
