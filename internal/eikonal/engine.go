package eikonal

import (
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Engine evaluates W and its derivatives for one design parameterization.
type Engine struct {
	build   Builder
	cfg     Config
	backend autodiff.Backend
}

func New(build Builder, cfg Config) (*Engine, error) {
	if build == nil {
		return nil, ErrNoBuilder
	}
	if cfg.Dim < 0 {
		return nil, fmt.Errorf("eikonal: negative parameter dimension %d", cfg.Dim)
	}

	backend := autodiff.GetBackend()
	if cfg.Backend != "" {
		b, err := autodiff.New(cfg.Backend)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	return &Engine{build: build, cfg: cfg, backend: backend}, nil
}

func (e *Engine) Dim() int                  { return e.cfg.Dim }
func (e *Engine) Backend() autodiff.Backend { return e.backend }

// Materialize builds the system at a parameter point, seeded to the given
// derivative order, and returns a tracer at the engine wavelength.
func (e *Engine) Materialize(p Params, order autodiff.Order) (*optics.SystemModel, *raytrace.Tracer, error) {
	if err := e.check(p); err != nil {
		return nil, nil, err
	}
	sys, err := e.build(autodiff.Seed(p, order))
	if err != nil {
		return nil, nil, err
	}
	lambda := e.cfg.Wavelength
	if lambda == 0 {
		lambda = sys.Wavelength
	}
	return sys, raytrace.New(sys, autodiff.Const(lambda)), nil
}

// WFunc exposes the single-ray eikonal as a backend objective. Trace
// failures surface as NaN so backends report them as non-finite; the
// returned trap holds the underlying cause of the most recent failure.
func (e *Engine) WFunc(ray RaySpec) (autodiff.Func, *error) {
	trap := new(error)
	fn := func(p []autodiff.Jet) autodiff.Jet {
		sys, err := e.build(p)
		if err != nil {
			*trap = err
			return autodiff.Const(math.NaN())
		}
		lambda := e.cfg.Wavelength
		if lambda == 0 {
			lambda = sys.Wavelength
		}
		tr := raytrace.New(sys, autodiff.Const(lambda))
		out, err := tr.Trace(raytrace.Launch(sys, ray.AngleDeg, ray.Px, ray.Py))
		if err != nil {
			*trap = err
			return autodiff.Const(math.NaN())
		}
		return out.OPL
	}
	return fn, trap
}

// Eval returns W for one ray.
func (e *Engine) Eval(p Params, ray RaySpec) (*Result, error) {
	if err := e.check(p); err != nil {
		return nil, err
	}
	fn, trap := e.WFunc(ray)
	w, err := autodiff.Value(fn, p)
	if err != nil {
		return nil, e.cause(err, trap)
	}
	return &Result{W: w, Backend: e.backend.Name()}, nil
}

// Gradient returns W and ∇W for one ray.
func (e *Engine) Gradient(p Params, ray RaySpec) (*Result, error) {
	if err := e.check(p); err != nil {
		return nil, err
	}
	fn, trap := e.WFunc(ray)
	grad, err := e.backend.Gradient(fn, p)
	if err != nil {
		return nil, e.cause(err, trap)
	}
	w, err := autodiff.Value(fn, p)
	if err != nil {
		return nil, e.cause(err, trap)
	}
	return &Result{W: w, Grad: grad, Backend: e.backend.Name()}, nil
}

// Hessian returns W, ∇W and ∇²W for one ray.
func (e *Engine) Hessian(p Params, ray RaySpec) (*Result, error) {
	if err := e.check(p); err != nil {
		return nil, err
	}
	fn, trap := e.WFunc(ray)
	hess, grad, err := e.backend.Hessian(fn, p)
	if err != nil {
		return nil, e.cause(err, trap)
	}
	w, err := autodiff.Value(fn, p)
	if err != nil {
		return nil, e.cause(err, trap)
	}
	return &Result{W: w, Grad: grad, Hess: hess, Backend: e.backend.Name()}, nil
}

func (e *Engine) check(p Params) error {
	if len(p) != e.cfg.Dim {
		return fmt.Errorf("%w: got %d parameters, engine expects %d",
			ErrDimensionMismatch, len(p), e.cfg.Dim)
	}
	if !p.IsValid() {
		return ErrInvalidParams
	}
	return nil
}

// cause prefers the trapped trace error over the backend's generic
// non-finite report.
func (e *Engine) cause(err error, trap *error) error {
	if *trap != nil {
		return *trap
	}
	return err
}
