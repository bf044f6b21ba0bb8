package analysis

import (
	"context"
	"fmt"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/eikonal"
	"github.com/eikonal-bridge/dee/internal/optics"
)

// SweepPoint is one sample of a parameter sweep. A point that fails to
// build or evaluate keeps its Err and a zero metric; failures are part of
// the picture when scanning across a variable's range.
type SweepPoint struct {
	Param  float64
	Metric float64
	Err    error
}

// Sweep scans design variable index across [min, max] in steps equal
// intervals, rebuilding the system at each value and applying eval. The
// remaining variables stay at x0.
func Sweep(ctx context.Context, build eikonal.Builder, x0 eikonal.Params, index int, min, max float64, steps int, eval func(*optics.SystemModel) (float64, error)) ([]SweepPoint, error) {
	if index < 0 || index >= len(x0) {
		return nil, fmt.Errorf("analysis: sweep index %d with %d variables", index, len(x0))
	}
	if steps <= 1 {
		steps = 2
	}
	step := (max - min) / float64(steps-1)

	points := make([]SweepPoint, 0, steps)
	x := make([]float64, len(x0))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return points, ctx.Err()
		default:
		}

		copy(x, x0)
		x[index] = min + float64(i)*step
		pt := SweepPoint{Param: x[index]}

		sys, err := build(autodiff.Lift(x))
		if err != nil {
			pt.Err = err
		} else if m, err := eval(sys); err != nil {
			pt.Err = err
		} else {
			pt.Metric = m
		}
		points = append(points, pt)
	}
	return points, nil
}
