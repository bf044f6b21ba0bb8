package autodiff

import (
	"errors"
	"math"
	"testing"
)

// testFunc is smooth with a non-trivial Hessian:
// f(x,y) = exp(-x²)·cos(y) + x·y
func testFunc(p []Jet) Jet {
	return p[0].Square().Neg().Exp().Mul(p[1].Cos()).Add(p[0].Mul(p[1]))
}

func TestForwardMatchesFiniteDiff(t *testing.T) {
	x := []float64{0.4, -1.1}

	fwd := NewForward()
	fd := NewFiniteDiff()

	gAD, err := fwd.Gradient(testFunc, x)
	if err != nil {
		t.Fatalf("forward gradient: %v", err)
	}
	gFD, err := fd.Gradient(testFunc, x)
	if err != nil {
		t.Fatalf("fd gradient: %v", err)
	}
	for i := range gAD {
		if math.Abs(gAD[i]-gFD[i]) > 1e-6 {
			t.Errorf("gradient[%d]: ad=%.10f fd=%.10f", i, gAD[i], gFD[i])
		}
	}

	hAD, _, err := fwd.Hessian(testFunc, x)
	if err != nil {
		t.Fatalf("forward hessian: %v", err)
	}
	hFD, _, err := fd.Hessian(testFunc, x)
	if err != nil {
		t.Fatalf("fd hessian: %v", err)
	}
	for i := range hAD {
		if math.Abs(hAD[i]-hFD[i]) > 1e-4 {
			t.Errorf("hessian[%d]: ad=%.8f fd=%.8f", i, hAD[i], hFD[i])
		}
	}
}

func TestForwardGradientAnalytic(t *testing.T) {
	x, y := 0.4, -1.1
	g, err := NewForward().Gradient(testFunc, []float64{x, y})
	if err != nil {
		t.Fatal(err)
	}
	e := math.Exp(-x * x)
	wantX := -2*x*e*math.Cos(y) + y
	wantY := -e*math.Sin(y) + x
	if math.Abs(g[0]-wantX) > 1e-12 {
		t.Errorf("df/dx: expected %.12f, got %.12f", wantX, g[0])
	}
	if math.Abs(g[1]-wantY) > 1e-12 {
		t.Errorf("df/dy: expected %.12f, got %.12f", wantY, g[1])
	}
}

func TestBackendByName(t *testing.T) {
	for _, name := range Names() {
		b, err := New(name)
		if err != nil {
			t.Fatalf("backend %s: %v", name, err)
		}
		if !b.Available() {
			t.Errorf("backend %s reports unavailable", name)
		}
	}
	if _, err := New("cuda"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestAutoSelectPrefersForward(t *testing.T) {
	if AutoSelect().Name() != "ad" {
		t.Errorf("expected forward backend by default, got %s", AutoSelect().Name())
	}
}

func TestNonFiniteDetected(t *testing.T) {
	bad := func(p []Jet) Jet { return p[0].Log() }
	_, err := NewForward().Gradient(bad, []float64{-1})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestConstantFunctionZeroGradient(t *testing.T) {
	f := func(p []Jet) Jet { return Const(42) }
	g, err := NewForward().Gradient(f, []float64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range g {
		if v != 0 {
			t.Errorf("gradient[%d]: expected 0, got %f", i, v)
		}
	}
}
