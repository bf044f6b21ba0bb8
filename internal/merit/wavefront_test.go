package merit

import (
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

func opdRay(opl float64) raytrace.Ray {
	return raytrace.Ray{
		Pos: optics.V(0, 0, 50),
		Dir: optics.V(0, 0, 1),
		OPL: autodiff.Const(opl),
	}
}

func TestWavefrontVariance(t *testing.T) {
	m := NewWavefront(0.5)
	axis := optics.Field{}

	// Paths split by exactly one wave at 0.5 µm: deviations from the mean
	// are ±0.5 wave, so the variance is 0.25 waves².
	m.Observe(opdRay(10), axis, 0, -1)
	m.Observe(opdRay(10.0005), axis, 0, 1)

	// The one-pass variance subtracts terms of order 100 mm² to recover
	// 6.25e-8 mm², so a few ulps of cancellation noise survive the scale-up.
	if v := m.Value().Val; math.Abs(v-0.25) > 1e-6 {
		t.Errorf("expected variance 0.25 waves², got %g", v)
	}
	if rms := m.RMS(); math.Abs(rms-0.5) > 1e-6 {
		t.Errorf("expected RMS 0.5 waves, got %g", rms)
	}
}

func TestWavefrontPistonIgnored(t *testing.T) {
	axis := optics.Field{}

	a := NewWavefront(0.5)
	a.Observe(opdRay(10), axis, 0, -1)
	a.Observe(opdRay(10.0005), axis, 0, 1)

	b := NewWavefront(0.5)
	b.Observe(opdRay(42), axis, 0, -1)
	b.Observe(opdRay(42.0005), axis, 0, 1)

	if math.Abs(a.Value().Val-b.Value().Val) > 1e-5 {
		t.Errorf("piston should not count: %g vs %g", a.Value().Val, b.Value().Val)
	}
}

func TestStrehlPerfect(t *testing.T) {
	m := NewStrehl(0.5876)
	axis := optics.Field{}

	m.Observe(opdRay(20), axis, 0, -1)
	m.Observe(opdRay(20), axis, 0, 1)

	if s := m.Value().Val; math.Abs(s-1) > 1e-12 {
		t.Errorf("expected Strehl 1 for a flat wavefront, got %g", s)
	}
}

func TestStrehlDiffractionLimit(t *testing.T) {
	lambda := 0.5876
	m := NewStrehl(lambda)
	axis := optics.Field{}

	// Deviations of ±λ/14 give sigma = λ/14, the classic border where the
	// Maréchal estimate sits near 0.8.
	delta := lambda * 1e-3 / 14
	m.Observe(opdRay(20-delta), axis, 0, -1)
	m.Observe(opdRay(20+delta), axis, 0, 1)

	want := math.Exp(-4 * math.Pi * math.Pi / 196)
	if s := m.Value().Val; math.Abs(s-want) > 1e-4 {
		t.Errorf("expected Strehl %g, got %g", want, s)
	}
	if s := m.Value().Val; s < 0.8 || s > 0.84 {
		t.Errorf("expected Strehl near the 0.8 border, got %g", s)
	}
}

func TestWavefrontReset(t *testing.T) {
	m := NewWavefront(0.5)
	axis := optics.Field{}

	m.Observe(opdRay(10), axis, 0, -1)
	m.Observe(opdRay(10.001), axis, 0, 1)
	if m.Value().Val == 0 {
		t.Error("expected non-zero variance")
	}

	m.Reset()
	if m.Value().Val != 0 {
		t.Error("expected zero variance after reset")
	}
}
