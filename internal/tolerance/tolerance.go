// Package tolerance estimates as-built performance by Monte Carlo: design
// parameters are perturbed per a tolerance spec, a caller-chosen figure is
// evaluated for every trial across workers, and the spread comes back as
// moments, percentiles and a yield fraction.
package tolerance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Distribution selects how a perturbation is drawn.
type Distribution int

const (
	// Normal draws from a zero-mean normal with Spread as the standard
	// deviation.
	Normal Distribution = iota
	// Uniform draws from ±Spread around zero.
	Uniform
)

// Perturbation perturbs one design parameter.
type Perturbation struct {
	Index  int
	Dist   Distribution
	Spread float64
}

// Config shapes a Monte Carlo run.
type Config struct {
	Trials    int     // default 100
	Seed      int64   // trial k uses Seed+k, so runs reproduce exactly
	Threshold float64 // a trial passes when its value is ≤ Threshold
	Workers   int     // default NumCPU
}

// Trial is one perturbed evaluation. Err is set when the perturbed system
// could not be evaluated; such trials count against yield.
type Trial struct {
	ID     int
	Params []float64
	Value  float64
	Err    error
}

// Summary is the distribution of the evaluated figure over all trials.
// Moments and percentiles cover the successful trials only.
type Summary struct {
	Trials  int
	Failed  int
	Nominal float64

	Mean, Std     float64
	Min, Max      float64
	P10, P50, P90 float64

	// Yield is the fraction of all trials that evaluated and passed the
	// threshold.
	Yield float64

	// Values holds the successful trial values, sorted.
	Values []float64
}

// ErrNoPerturbations indicates an empty tolerance spec.
var ErrNoPerturbations = errors.New("tolerance: no perturbations given")

// Run evaluates the figure at the nominal design and across perturbed
// trials. Trial evaluation failures are data (yield loss), not faults;
// only a bad spec, a failing nominal or cancellation abort the run.
func Run(ctx context.Context, nominal []float64, perts []Perturbation,
	eval func([]float64) (float64, error), cfg Config) (*Summary, []Trial, error) {

	if len(perts) == 0 {
		return nil, nil, ErrNoPerturbations
	}
	for _, p := range perts {
		if p.Index < 0 || p.Index >= len(nominal) {
			return nil, nil, fmt.Errorf("tolerance: perturbation index %d outside %d parameters", p.Index, len(nominal))
		}
		if p.Spread < 0 {
			return nil, nil, fmt.Errorf("tolerance: negative spread %g at parameter %d", p.Spread, p.Index)
		}
	}
	trials := cfg.Trials
	if trials <= 0 {
		trials = 100
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > trials {
		workers = trials
	}

	nom, err := eval(nominal)
	if err != nil {
		return nil, nil, fmt.Errorf("tolerance: nominal design fails: %w", err)
	}

	out := make([]Trial, trials)
	var wg sync.WaitGroup
	chunk := (trials + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start, end := w*chunk, (w+1)*chunk
		if end > trials {
			end = trials
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for k := start; k < end; k++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				// Per-trial source: the draw depends on the trial id, not
				// on worker scheduling.
				rng := rand.New(rand.NewSource(cfg.Seed + int64(k)))
				p := make([]float64, len(nominal))
				copy(p, nominal)
				for _, pt := range perts {
					p[pt.Index] += draw(rng, pt)
				}
				v, err := eval(p)
				out[k] = Trial{ID: k, Params: p, Value: v, Err: err}
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sum := summarize(out, nom, cfg.Threshold)
	return sum, out, nil
}

func draw(rng *rand.Rand, p Perturbation) float64 {
	switch p.Dist {
	case Uniform:
		return (rng.Float64() - 0.5) * 2 * p.Spread
	default:
		return rng.NormFloat64() * p.Spread
	}
}

func summarize(trials []Trial, nominal, threshold float64) *Summary {
	s := &Summary{Trials: len(trials), Nominal: nominal}

	passed := 0
	for _, t := range trials {
		if t.Err != nil {
			s.Failed++
			continue
		}
		s.Values = append(s.Values, t.Value)
		if t.Value <= threshold {
			passed++
		}
	}
	if len(trials) > 0 {
		s.Yield = float64(passed) / float64(len(trials))
	}
	if len(s.Values) == 0 {
		return s
	}

	sort.Float64s(s.Values)
	s.Min = s.Values[0]
	s.Max = s.Values[len(s.Values)-1]
	s.P10 = percentile(s.Values, 0.10)
	s.P50 = percentile(s.Values, 0.50)
	s.P90 = percentile(s.Values, 0.90)

	for _, v := range s.Values {
		s.Mean += v
	}
	s.Mean /= float64(len(s.Values))
	if len(s.Values) > 1 {
		var ss float64
		for _, v := range s.Values {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(s.Values)-1))
	}
	return s
}

// percentile is nearest-rank on a sorted slice.
func percentile(sorted []float64, q float64) float64 {
	i := int(q*float64(len(sorted)-1) + 0.5)
	return sorted[i]
}
