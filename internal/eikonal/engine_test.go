package eikonal

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// test builder: a singlet with curvatures and center thickness as the
// design vector [c1, c2, t].
func singletBuilder(p []autodiff.Jet) (*optics.SystemModel, error) {
	if len(p) != 3 {
		return nil, fmt.Errorf("builder wants 3 parameters, got %d", len(p))
	}
	return &optics.SystemModel{
		Name: "singlet",
		Elements: []optics.Element{
			{Surf: optics.NewStandard(p[0]), Thick: p[2],
				Medium: optics.ConstantIndex{Label: "GLASS", N: 1.5168}},
			{Surf: optics.NewStandard(p[1]), Thick: autodiff.Const(95),
				Medium: optics.Air},
		},
		Wavelength: 0.5876,
		EPD:        20,
		Fields:     []optics.Field{{AngleDeg: 0, Weight: 1}},
	}, nil
}

var singletParams = Params{1.0 / 60, -1.0 / 358, 5}

func newTestEngine(t *testing.T, backend string) *Engine {
	t.Helper()
	cfg := DefaultConfig(3)
	cfg.Backend = backend
	eng, err := New(singletBuilder, cfg)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func TestEvalMatchesDirectTrace(t *testing.T) {
	eng := newTestEngine(t, "ad")
	ray := RaySpec{Px: 0, Py: 0.5}

	res, err := eng.Eval(singletParams, ray)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	sys, _ := singletBuilder(autodiff.Lift(singletParams))
	tr := raytrace.New(sys, autodiff.Const(sys.Wavelength))
	out, err := tr.Trace(raytrace.Launch(sys, 0, 0, 0.5))
	if err != nil {
		t.Fatalf("trace: %v", err)
	}

	if math.Abs(res.W-out.OPL.Val) > 1e-12 {
		t.Errorf("engine W = %.15g, direct trace %.15g", res.W, out.OPL.Val)
	}
}

func TestGradientBackendsAgree(t *testing.T) {
	ray := RaySpec{Px: 0.2, Py: 0.6}

	ad, err := newTestEngine(t, "ad").Gradient(singletParams, ray)
	if err != nil {
		t.Fatalf("ad gradient: %v", err)
	}
	fd, err := newTestEngine(t, "fd").Gradient(singletParams, ray)
	if err != nil {
		t.Fatalf("fd gradient: %v", err)
	}

	if ad.Backend != "ad" || fd.Backend != "fd" {
		t.Fatalf("backend labels: %q, %q", ad.Backend, fd.Backend)
	}
	for i := range ad.Grad {
		diff := math.Abs(ad.Grad[i] - fd.Grad[i])
		if diff > 1e-6*math.Max(1, math.Abs(ad.Grad[i])) {
			t.Errorf("∂W/∂p%d: ad %.12g vs fd %.12g", i, ad.Grad[i], fd.Grad[i])
		}
	}
}

func TestHessianSymmetricAndCrossChecked(t *testing.T) {
	ray := RaySpec{Px: 0, Py: 0.4}

	ad, err := newTestEngine(t, "ad").Hessian(singletParams, ray)
	if err != nil {
		t.Fatalf("ad hessian: %v", err)
	}
	n := len(singletParams)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ad.Hess[i*n+j] != ad.Hess[j*n+i] {
				t.Errorf("Hessian asymmetric at (%d,%d): %g vs %g",
					i, j, ad.Hess[i*n+j], ad.Hess[j*n+i])
			}
		}
	}

	fd, err := newTestEngine(t, "fd").Hessian(singletParams, ray)
	if err != nil {
		t.Fatalf("fd hessian: %v", err)
	}
	for i := 0; i < n*n; i++ {
		diff := math.Abs(ad.Hess[i] - fd.Hess[i])
		if diff > 1e-3*math.Max(1, math.Abs(ad.Hess[i])) {
			t.Errorf("∇²W[%d]: ad %.9g vs fd %.9g", i, ad.Hess[i], fd.Hess[i])
		}
	}
}

func TestParameterValidation(t *testing.T) {
	eng := newTestEngine(t, "ad")

	if _, err := eng.Eval(Params{1, 2}, RaySpec{}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short vector: got %v", err)
	}
	bad := singletParams.Clone()
	bad[1] = math.NaN()
	if _, err := eng.Eval(bad, RaySpec{}); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("NaN vector: got %v", err)
	}
	if _, err := New(nil, DefaultConfig(1)); !errors.Is(err, ErrNoBuilder) {
		t.Errorf("nil builder: got %v", err)
	}
}

func TestTraceFailureSurfacesCause(t *testing.T) {
	// A 1 mm aperture on the front surface vignettes the py=0.9 ray; the
	// engine must report the vignette, not a bare non-finite error.
	build := func(p []autodiff.Jet) (*optics.SystemModel, error) {
		sys, err := singletBuilder(p)
		if err != nil {
			return nil, err
		}
		sys.Elements[0].SemiDiam = 1
		return sys, nil
	}
	eng, err := New(build, DefaultConfig(3))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	_, err = eng.Gradient(singletParams, RaySpec{Px: 0, Py: 0.9})
	if !errors.Is(err, raytrace.ErrVignetted) {
		t.Errorf("want vignette cause, got %v", err)
	}
}

func TestZeroParameterEngine(t *testing.T) {
	build := func(p []autodiff.Jet) (*optics.SystemModel, error) {
		return singletBuilder(autodiff.Lift([]float64{1.0 / 60, -1.0 / 358, 5}))
	}
	eng, err := New(build, DefaultConfig(0))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	res, err := eng.Hessian(Params{}, RaySpec{Py: 0.5})
	if err != nil {
		t.Fatalf("hessian: %v", err)
	}
	if res.W <= 0 {
		t.Errorf("W = %g, want positive path length", res.W)
	}
	if len(res.Grad) != 0 || len(res.Hess) != 0 {
		t.Errorf("empty design should yield empty derivatives, got %d/%d",
			len(res.Grad), len(res.Hess))
	}
}

func TestMaterializeSeedsByOrder(t *testing.T) {
	eng := newTestEngine(t, "ad")

	sys, tr, err := eng.Materialize(singletParams, autodiff.OrderGradient)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if tr == nil {
		t.Fatal("no tracer")
	}
	curv := sys.Elements[0].Surf.Curvature()
	if curv.Grad == nil || curv.Grad[0] != 1 {
		t.Errorf("front curvature not seeded as variable 0: %+v", curv)
	}

	sysV, _, err := eng.Materialize(singletParams, autodiff.OrderValue)
	if err != nil {
		t.Fatalf("materialize value: %v", err)
	}
	if g := sysV.Elements[0].Surf.Curvature().Grad; g != nil {
		t.Errorf("value-order system carries gradients: %v", g)
	}
}

func TestWavelengthOverride(t *testing.T) {
	g, err := optics.LookupGlass("N-BK7")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	build := func(p []autodiff.Jet) (*optics.SystemModel, error) {
		sys, err := singletBuilder(p)
		if err != nil {
			return nil, err
		}
		sys.Elements[0].Medium = g
		return sys, nil
	}

	cfg := DefaultConfig(3)
	blueCfg := cfg
	blueCfg.Wavelength = 0.4861
	primary, _ := New(build, cfg)
	blue, _ := New(build, blueCfg)

	ray := RaySpec{Py: 0.6}
	wPrimary, err := primary.Eval(singletParams, ray)
	if err != nil {
		t.Fatalf("primary eval: %v", err)
	}
	wBlue, err := blue.Eval(singletParams, ray)
	if err != nil {
		t.Fatalf("blue eval: %v", err)
	}
	if wPrimary.W == wBlue.W {
		t.Error("dispersive glass should shift W with wavelength")
	}
}
