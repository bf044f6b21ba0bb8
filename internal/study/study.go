// Package study assembles and runs one design study: a prescription, a
// merit function over a pupil sampling, a gradient backend and an
// optimizer, producing a report of the outcome and the final image
// quality.
package study

import (
	"context"
	"fmt"
	"time"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/eikonal"
	"github.com/eikonal-bridge/dee/internal/merit"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/optim"
	"github.com/eikonal-bridge/dee/internal/prescription"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Config selects what the study runs.
type Config struct {
	Design          string  // preset name or prescription file path
	Wavelength      float64 // µm; 0 keeps the design's
	Backend         string  // gradient backend; "" keeps the active one
	Optimizer       string  // lm, descent, grid
	Sampler         string  // hexapolar, grid, random
	Density         int     // sampler density (rings / half grid size)
	Seed            int64
	MaxIters        int     // 0 keeps the optimizer default
	EFLTarget       float64 // mm; 0 leaves the focal length free
	EFLWeight       float64 // defaults to 1 when a target is set
	VignettePenalty float64
}

// Report is the outcome of one study.
type Report struct {
	Design     string
	Backend    string
	Optimizer  string
	Wavelength float64
	Variables  int

	Initial   eikonal.Params
	Final     eikonal.Params
	InitCost  float64
	FinalCost float64

	Iterations int
	Converged  bool
	Elapsed    time.Duration

	Metrics map[string]float64
	History *optim.History
}

// Study is the Setup/Run lifecycle around one configured optimization.
type Study struct {
	cfg      Config
	registry *Registry

	presc     *prescription.Prescription
	function  *merit.Function
	optimizer optim.Optimizer
	progress  func(optim.Iteration)
}

func New(cfg Config) *Study {
	return &Study{cfg: cfg, registry: NewRegistry()}
}

// Prescription returns the resolved design; valid after Setup.
func (s *Study) Prescription() *prescription.Prescription { return s.presc }

// Function returns the assembled merit function; valid after Setup.
func (s *Study) Function() *merit.Function { return s.function }

// OnIteration registers a progress callback, fed each accepted optimizer
// step. Must be called before Run.
func (s *Study) OnIteration(fn func(optim.Iteration)) { s.progress = fn }

// Setup resolves the design and assembles the merit function and the
// optimizer.
func (s *Study) Setup() error {
	presc, err := s.registry.GetDesign(s.cfg.Design)
	if err != nil {
		return err
	}
	if s.cfg.Wavelength != 0 {
		presc.Wavelength = s.cfg.Wavelength
	}
	if presc.Dim() == 0 {
		return fmt.Errorf("study: design %q declares no variables", presc.Name)
	}
	s.presc = presc

	samplerName := s.cfg.Sampler
	if samplerName == "" {
		samplerName = "hexapolar"
	}
	samples, err := s.registry.GetSampler(samplerName, s.cfg.Density, s.cfg.Seed)
	if err != nil {
		return err
	}

	mcfg := merit.Config{
		Samples:         samples,
		Wavelength:      s.cfg.Wavelength,
		VignettePenalty: s.cfg.VignettePenalty,
	}
	if s.cfg.EFLTarget != 0 {
		w := s.cfg.EFLWeight
		if w == 0 {
			w = 1
		}
		mcfg.Operands = append(mcfg.Operands, merit.EFLOperand(s.cfg.EFLTarget, w))
	}
	fn, err := merit.NewFunction(presc.Builder(), presc.Dim(), mcfg)
	if err != nil {
		return err
	}
	s.function = fn

	optName := s.cfg.Optimizer
	if optName == "" {
		optName = "lm"
	}
	opt, err := s.registry.GetOptimizer(optName)
	if err != nil {
		return err
	}
	s.configureOptimizer(opt)
	s.optimizer = opt

	if s.cfg.Backend != "" {
		if _, err := autodiff.New(s.cfg.Backend); err != nil {
			return err
		}
	}
	return nil
}

func (s *Study) configureOptimizer(opt optim.Optimizer) {
	switch o := opt.(type) {
	case *optim.LevenbergMarquardt:
		if s.cfg.MaxIters > 0 {
			o.MaxIters = s.cfg.MaxIters
		}
		o.Progress = s.emit
	case *optim.GradientDescent:
		if s.cfg.MaxIters > 0 {
			o.MaxIters = s.cfg.MaxIters
		}
		if s.cfg.Backend != "" {
			if b, err := autodiff.New(s.cfg.Backend); err == nil {
				o.Backend = b
			}
		}
		o.Progress = s.emit
	case *optim.GridSearch:
		if s.cfg.MaxIters > 0 {
			o.Points = s.cfg.MaxIters
		}
		o.Progress = s.emit
	}
}

func (s *Study) emit(it optim.Iteration) {
	if s.progress != nil {
		s.progress(it)
	}
}

// Run drives the optimizer from the prescription's nominal parameters and
// evaluates the final design.
func (s *Study) Run(ctx context.Context) (*Report, error) {
	if s.function == nil {
		return nil, fmt.Errorf("study not set up")
	}

	x0 := s.presc.InitialParams()
	lower, upper := s.presc.Bounds()

	initCost, err := s.function.Eval(x0)
	if err != nil {
		return nil, fmt.Errorf("study: nominal design does not evaluate: %w", err)
	}

	start := time.Now()
	res, err := s.optimizer.Run(ctx, s.function, lower, upper, x0)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	final := eikonal.Params(res.Params)
	metrics, err := s.evaluateMetrics(final)
	if err != nil {
		return nil, fmt.Errorf("study: final design does not evaluate: %w", err)
	}

	backendName := s.cfg.Backend
	if backendName == "" {
		backendName = autodiff.GetBackend().Name()
	}

	return &Report{
		Design:     s.presc.Name,
		Backend:    backendName,
		Optimizer:  s.optimizer.Name(),
		Wavelength: s.presc.Wavelength,
		Variables:  s.presc.Dim(),
		Initial:    x0,
		Final:      final,
		InitCost:   initCost,
		FinalCost:  res.Cost,
		Iterations: res.Iters,
		Converged:  res.Converged,
		Elapsed:    elapsed,
		Metrics:    metrics,
		History:    res.History,
	}, nil
}

// evaluateMetrics traces the standard merit suite at a parameter point.
func (s *Study) evaluateMetrics(p eikonal.Params) (map[string]float64, error) {
	sys, err := s.presc.ToSystem(autodiff.Lift(p))
	if err != nil {
		return nil, err
	}
	lambda := autodiff.Const(sys.Wavelength)
	tr := raytrace.New(sys, lambda)

	fo, err := optics.Paraxial(sys, lambda)
	if err != nil {
		return nil, err
	}

	spot := merit.NewSpotSize()
	wf := merit.NewWavefront(sys.Wavelength)
	strehl := merit.NewStrehl(sys.Wavelength)
	dist := merit.NewDistortion(fo.EFL)
	vig := merit.NewVignetting()

	samples, err := s.registry.GetSampler("hexapolar", 4, s.cfg.Seed)
	if err != nil {
		return nil, err
	}
	if err := merit.Accumulate(tr, samples, spot, wf, strehl, dist, vig); err != nil {
		return nil, err
	}

	return map[string]float64{
		"efl_mm":              fo.EFL.Val,
		"bfl_mm":              fo.BFL.Val,
		"fnum":                fo.FNum.Val,
		"rms_spot_mm":         spot.RMS(),
		"rms_wavefront_waves": wf.RMS(),
		"strehl":              strehl.Value().Val,
		"distortion_pct":      dist.Value().Val,
		"vignetting":          vig.Value().Val,
	}, nil
}
