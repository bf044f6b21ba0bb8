package optim

import (
	"context"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// GridSearch exhaustively evaluates a Cartesian grid spanning the bounds.
// Coarse and assumption-free; its best point seeds the local optimizers.
// Points that fail to evaluate are skipped.
type GridSearch struct {
	Points   int
	Progress func(Iteration)
}

func NewGridSearch(points int) *GridSearch {
	if points < 2 {
		points = 2
	}
	return &GridSearch{Points: points}
}

func (g *GridSearch) Name() string { return "grid" }

func (g *GridSearch) Run(ctx context.Context, prob Problem, lower, upper, x0 []float64) (*Result, error) {
	dim := prob.Dim()
	lo, hi, x, err := checkBounds(dim, lower, upper, x0)
	if err != nil {
		return nil, err
	}
	for i := 0; i < dim; i++ {
		if math.IsInf(lo[i], 0) || math.IsInf(hi[i], 0) {
			return nil, ErrUnboundedGrid
		}
	}

	points := g.Points
	if points < 2 {
		points = 5
	}
	axes := make([][]float64, dim)
	for i := range axes {
		axes[i] = linspace(lo[i], hi[i], points)
	}

	fn, trap := prob.Objective()
	hist := &History{}
	res := &Result{Cost: math.Inf(1), History: hist}

	// The start vector is the incumbent when it evaluates.
	if c, err := probValue(fn, trap, x); err == nil {
		res.Params, res.Cost = x, c
		g.emit(hist.add(0, c, 0, x))
	}

	evals := 0
	g.searchRecursive(ctx, fn, trap, axes, make([]float64, dim), 0, &evals, res, hist)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if res.Params == nil {
		if *trap != nil {
			return nil, *trap
		}
		return nil, autodiff.ErrNonFinite
	}
	res.Iters = evals
	res.Converged = true
	return res, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	fn autodiff.Func,
	trap *error,
	axes [][]float64,
	current []float64,
	depth int,
	evals *int,
	res *Result,
	hist *History,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(axes) {
		*evals++
		cost, err := probValue(fn, trap, current)
		if err != nil {
			return
		}
		if cost < res.Cost {
			p := make([]float64, len(current))
			copy(p, current)
			res.Params, res.Cost = p, cost
			g.emit(hist.add(*evals, cost, 0, p))
		}
		return
	}

	for _, val := range axes[depth] {
		current[depth] = val
		g.searchRecursive(ctx, fn, trap, axes, current, depth+1, evals, res, hist)
	}
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func (g *GridSearch) emit(it Iteration) {
	if g.Progress != nil {
		g.Progress(it)
	}
}
