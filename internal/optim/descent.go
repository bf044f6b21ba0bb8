package optim

import (
	"context"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// GradientDescent is steepest descent with Armijo backtracking. It is the
// slow-but-steady cross-check on the least-squares optimizer: one gradient
// per iteration, candidate steps clamped into the bounds, and a candidate
// that fails to evaluate is treated as a rejected step rather than a fault.
type GradientDescent struct {
	MaxIters int
	Tol      float64
	Step0    float64
	Backend  autodiff.Backend
	Progress func(Iteration)
}

func NewGradientDescent() *GradientDescent {
	return &GradientDescent{MaxIters: 200, Tol: 1e-9, Step0: 1}
}

func (g *GradientDescent) Name() string { return "descent" }

func (g *GradientDescent) Run(ctx context.Context, prob Problem, lower, upper, x0 []float64) (*Result, error) {
	lo, hi, x, err := checkBounds(prob.Dim(), lower, upper, x0)
	if err != nil {
		return nil, err
	}
	backend := g.Backend
	if backend == nil {
		backend = autodiff.GetBackend()
	}
	maxIters := g.MaxIters
	if maxIters <= 0 {
		maxIters = 200
	}
	tol := g.Tol
	if tol <= 0 {
		tol = 1e-9
	}
	step := g.Step0
	if step <= 0 {
		step = 1
	}

	fn, trap := prob.Objective()
	cost, err := probValue(fn, trap, x)
	if err != nil {
		return nil, err
	}

	hist := &History{}
	g.emit(hist.add(0, cost, 0, x))

	res := &Result{Params: x, Cost: cost, History: hist}
	for it := 1; it <= maxIters; it++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}
		res.Iters = it

		grad, err := backend.Gradient(fn, x)
		if err != nil {
			if *trap != nil {
				err = *trap
			}
			return res, err
		}
		geff := blockedGrad(grad, x, lo, hi)
		if maxAbs(geff) < tol {
			res.Converged = true
			break
		}

		g2 := 0.0
		for _, v := range geff {
			g2 += v * v
		}

		t := step
		accepted := false
		var cNew float64
		for t >= 1e-14 {
			cand := make([]float64, len(x))
			for i := range cand {
				cand[i] = x[i] - t*geff[i]
			}
			clampVec(cand, lo, hi)
			c, err := probValue(fn, trap, cand)
			if err == nil && c <= cost-1e-4*t*g2 {
				x, cNew = cand, c
				accepted = true
				break
			}
			t /= 2
		}
		if !accepted {
			break // no downhill step at any length: stop where we are
		}

		relDrop := (cost - cNew) / math.Max(1, math.Abs(cost))
		cost = cNew
		res.Params, res.Cost = x, cost
		step = t * 2
		g.emit(hist.add(it, cost, t, x))

		if relDrop < tol {
			res.Converged = true
			break
		}
	}
	return res, nil
}

func (g *GradientDescent) emit(it Iteration) {
	if g.Progress != nil {
		g.Progress(it)
	}
}
