package study

import (
	"fmt"
	"sort"

	"github.com/eikonal-bridge/dee/internal/merit"
	"github.com/eikonal-bridge/dee/internal/optim"
	"github.com/eikonal-bridge/dee/internal/prescription"
)

// Registry maps names to the pluggable pieces a study assembles: designs,
// optimizers and pupil samplers. Gradient backends resolve through the
// autodiff package's own registry.
type Registry struct {
	optimizers map[string]func() optim.Optimizer
	samplers   map[string]func(density int, seed int64) []merit.PupilSample
}

func NewRegistry() *Registry {
	r := &Registry{
		optimizers: make(map[string]func() optim.Optimizer),
		samplers:   make(map[string]func(int, int64) []merit.PupilSample),
	}

	r.optimizers["lm"] = func() optim.Optimizer { return optim.NewLevenbergMarquardt() }
	r.optimizers["descent"] = func() optim.Optimizer { return optim.NewGradientDescent() }
	r.optimizers["grid"] = func() optim.Optimizer { return optim.NewGridSearch(8) }

	r.samplers["hexapolar"] = func(density int, _ int64) []merit.PupilSample {
		return merit.HexapolarSample(density)
	}
	r.samplers["grid"] = func(density int, _ int64) []merit.PupilSample {
		return merit.GridSample(density)
	}
	r.samplers["random"] = func(density int, seed int64) []merit.PupilSample {
		// density counts rings elsewhere; here it scales a ray budget
		// comparable to a hexapolar pattern of the same density.
		n := 3 * density * (density + 1)
		if n < 1 {
			n = 1
		}
		return merit.RandomSample(n, seed)
	}

	return r
}

// GetDesign resolves a preset name or a YAML file path, preset first.
func (r *Registry) GetDesign(name string) (*prescription.Prescription, error) {
	if p := prescription.GetPreset(name); p != nil {
		return p.Clone(), nil
	}
	p, err := prescription.Load(name)
	if err != nil {
		return nil, fmt.Errorf("unknown design %q (not a preset, not a readable file): %w", name, err)
	}
	return p, nil
}

func (r *Registry) GetOptimizer(name string) (optim.Optimizer, error) {
	fn, ok := r.optimizers[name]
	if !ok {
		return nil, fmt.Errorf("unknown optimizer: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetSampler(name string, density int, seed int64) ([]merit.PupilSample, error) {
	fn, ok := r.samplers[name]
	if !ok {
		return nil, fmt.Errorf("unknown sampler: %s", name)
	}
	if density < 1 {
		density = 3
	}
	return fn(density, seed), nil
}

func (r *Registry) ListOptimizers() []string {
	names := make([]string, 0, len(r.optimizers))
	for name := range r.optimizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListSamplers() []string {
	names := make([]string, 0, len(r.samplers))
	for name := range r.samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
