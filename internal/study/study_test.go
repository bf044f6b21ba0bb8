package study

import (
	"context"
	"testing"

	"github.com/eikonal-bridge/dee/internal/optim"
)

func TestRegistryUnknownNames(t *testing.T) {
	r := NewRegistry()

	if _, err := r.GetOptimizer("annealing"); err == nil {
		t.Error("expected error for unknown optimizer")
	}
	if _, err := r.GetSampler("spiral", 3, 0); err == nil {
		t.Error("expected error for unknown sampler")
	}
	if _, err := r.GetDesign("no-such-design"); err == nil {
		t.Error("expected error for unknown design")
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	opts := r.ListOptimizers()
	if len(opts) != 3 {
		t.Fatalf("expected 3 optimizers, got %v", opts)
	}
	for i := 1; i < len(opts); i++ {
		if opts[i-1] > opts[i] {
			t.Errorf("optimizer names not sorted: %v", opts)
		}
	}

	samplers := r.ListSamplers()
	if len(samplers) != 3 {
		t.Fatalf("expected 3 samplers, got %v", samplers)
	}
}

func TestRegistryDesignClones(t *testing.T) {
	r := NewRegistry()

	a, err := r.GetDesign("singlet")
	if err != nil {
		t.Fatalf("get design failed: %v", err)
	}
	a.Surfaces[0].Thickness = 99

	b, err := r.GetDesign("singlet")
	if err != nil {
		t.Fatalf("get design failed: %v", err)
	}
	if b.Surfaces[0].Thickness == 99 {
		t.Error("preset mutation leaked into a fresh copy")
	}
}

func TestRegistrySamplerDefaults(t *testing.T) {
	r := NewRegistry()

	samples, err := r.GetSampler("hexapolar", 0, 0)
	if err != nil {
		t.Fatalf("sampler failed: %v", err)
	}
	if len(samples) == 0 {
		t.Error("zero density should fall back to a usable sampling")
	}

	rnd, err := r.GetSampler("random", 2, 7)
	if err != nil {
		t.Fatalf("sampler failed: %v", err)
	}
	rnd2, _ := r.GetSampler("random", 2, 7)
	if len(rnd) != len(rnd2) || rnd[0] != rnd2[0] {
		t.Error("random sampler should be deterministic for one seed")
	}
}

func TestStudySetupErrors(t *testing.T) {
	s := New(Config{Design: "missing"})
	if err := s.Setup(); err == nil {
		t.Error("expected error for unknown design")
	}

	s = New(Config{Design: "singlet", Optimizer: "bogus"})
	if err := s.Setup(); err == nil {
		t.Error("expected error for unknown optimizer")
	}

	s = New(Config{Design: "singlet", Backend: "cuda"})
	if err := s.Setup(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestStudyRunRequiresSetup(t *testing.T) {
	s := New(Config{Design: "singlet"})
	if _, err := s.Run(context.Background()); err == nil {
		t.Error("expected error for run before setup")
	}
}

func TestStudyRunSinglet(t *testing.T) {
	s := New(Config{
		Design:    "singlet",
		Optimizer: "lm",
		MaxIters:  10,
		EFLTarget: 100,
	})
	if err := s.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	var seen int
	s.OnIteration(func(optim.Iteration) { seen++ })

	rep, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if rep.Design != "singlet" {
		t.Errorf("expected design 'singlet', got %q", rep.Design)
	}
	if rep.Variables != 2 {
		t.Errorf("expected 2 variables, got %d", rep.Variables)
	}
	if rep.FinalCost > rep.InitCost {
		t.Errorf("optimization made the design worse: %g -> %g", rep.InitCost, rep.FinalCost)
	}
	if rep.History == nil || rep.History.Len() == 0 {
		t.Error("expected a non-empty history")
	}
	if seen == 0 {
		t.Error("progress callback never fired")
	}
	for _, key := range []string{"efl_mm", "rms_spot_mm", "strehl", "vignetting"} {
		if _, ok := rep.Metrics[key]; !ok {
			t.Errorf("metric %q missing from report", key)
		}
	}
	if rep.Metrics["efl_mm"] <= 0 {
		t.Errorf("expected positive EFL, got %g", rep.Metrics["efl_mm"])
	}
}

func TestStudyHonorsCancellation(t *testing.T) {
	s := New(Config{Design: "triplet", Optimizer: "descent", MaxIters: 10000})
	if err := s.Setup(); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Run(ctx); err == nil {
		t.Error("expected an error from a canceled run")
	}
}
