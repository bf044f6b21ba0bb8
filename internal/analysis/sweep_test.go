package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

func sweepBuilder(p []autodiff.Jet) (*optics.SystemModel, error) {
	glass := optics.ConstantIndex{Label: "NBK7", N: 1.5168}
	return &optics.SystemModel{
		Name: "sweep-singlet",
		Elements: []optics.Element{
			{Surf: optics.NewStandard(p[0]), Thick: autodiff.Const(5), Medium: glass},
			{Surf: optics.NewStandard(p[1]), Thick: autodiff.Const(97), Medium: optics.Air},
		},
		Wavelength: 0.5876,
		EPD:        20,
		Fields:     []optics.Field{{AngleDeg: 0, Weight: 1}},
	}, nil
}

func eflOf(sys *optics.SystemModel) (float64, error) {
	fo, err := optics.Paraxial(sys, autodiff.Const(sys.Wavelength))
	if err != nil {
		return 0, err
	}
	return fo.EFL.Val, nil
}

func TestSweepScansLinearly(t *testing.T) {
	x0 := []float64{1.0 / 60, -1.0 / 360}
	points, err := Sweep(context.Background(), sweepBuilder, x0, 0, 0.014, 0.020, 7, eflOf)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	for i, pt := range points {
		want := 0.014 + float64(i)*0.001
		if math.Abs(pt.Param-want) > 1e-12 {
			t.Errorf("Param[%d] = %g, want %g", i, pt.Param, want)
		}
		if pt.Err != nil {
			t.Errorf("point %d failed: %v", i, pt.Err)
		}
	}
	// More front curvature means more power.
	for i := 1; i < len(points); i++ {
		if points[i].Metric >= points[i-1].Metric {
			t.Errorf("EFL should fall as curvature grows: %g then %g",
				points[i-1].Metric, points[i].Metric)
		}
	}
}

func TestSweepRecordsPointErrors(t *testing.T) {
	bad := errors.New("too strong")
	build := func(p []autodiff.Jet) (*optics.SystemModel, error) {
		if p[0].Val > 0.018 {
			return nil, fmt.Errorf("checking curvature: %w", bad)
		}
		return sweepBuilder(p)
	}
	points, err := Sweep(context.Background(), build, []float64{0.015, 0}, 0, 0.015, 0.021, 4, eflOf)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}
	if points[0].Err != nil || points[1].Err != nil {
		t.Error("in-range points should evaluate")
	}
	if !errors.Is(points[2].Err, bad) || !errors.Is(points[3].Err, bad) {
		t.Error("out-of-range points should carry the builder error")
	}
}

func TestSweepBadIndex(t *testing.T) {
	if _, err := Sweep(context.Background(), sweepBuilder, []float64{0.01, 0}, 2, 0, 1, 3, eflOf); err == nil {
		t.Fatal("index past the parameter vector should fail")
	}
}

func TestSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	points, err := Sweep(ctx, sweepBuilder, []float64{0.01, 0}, 0, 0, 1, 5, eflOf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(points) != 0 {
		t.Errorf("got %d points after immediate cancel", len(points))
	}
}

func TestSweepMinimumTwoSteps(t *testing.T) {
	points, err := Sweep(context.Background(), sweepBuilder, []float64{0.01, 0}, 0, 0.01, 0.02, 1, eflOf)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want endpoints", len(points))
	}
	if points[0].Param != 0.01 || points[1].Param != 0.02 {
		t.Errorf("endpoints = %g, %g", points[0].Param, points[1].Param)
	}
}
