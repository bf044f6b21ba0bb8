package optics

import (
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

func TestVertexPositionsAccumulate(t *testing.T) {
	sys := &SystemModel{
		Name: "stack",
		Elements: []Element{
			{Surf: NewFlat(), Thick: autodiff.Const(5), Medium: Air},
			{Surf: NewFlat(), Thick: autodiff.Const(10), Medium: Air},
			{Surf: NewFlat(), Thick: autodiff.Const(40), Medium: Air},
		},
		Wavelength: 0.5876,
		EPD:        10,
		Fields:     []Field{{AngleDeg: 0, Weight: 1}},
	}
	for i, want := range []float64{0, 5, 15} {
		if got := sys.VertexZ(i).Val; got != want {
			t.Errorf("vertex %d at z=%g, want %g", i, got, want)
		}
	}
	if got := sys.ImageZ().Val; got != 55 {
		t.Errorf("image plane at z=%g, want 55", got)
	}
	if got := sys.TotalTrack().Val; got != 55 {
		t.Errorf("total track %g, want 55", got)
	}
}

func TestVertexZCarriesThicknessDerivative(t *testing.T) {
	th := autodiff.Variable(5, 0, 1, autodiff.OrderGradient)
	sys := &SystemModel{
		Elements: []Element{
			{Surf: NewFlat(), Thick: th, Medium: Air},
			{Surf: NewFlat(), Thick: autodiff.Const(10), Medium: Air},
		},
	}
	img := sys.ImageZ()
	if math.Abs(img.Val-15) > 1e-14 || math.Abs(img.Grad[0]-1) > 1e-14 {
		t.Errorf("image z = %g with d/dt = %v, want 15 with 1", img.Val, img.Grad)
	}
}

func TestStopIndexDefaultsToFirst(t *testing.T) {
	sys := &SystemModel{
		Elements: []Element{
			{Surf: NewFlat(), Thick: autodiff.Const(1), Medium: Air},
			{Surf: NewFlat(), Thick: autodiff.Const(1), Medium: Air, Stop: true},
			{Surf: NewFlat(), Thick: autodiff.Const(1), Medium: Air},
		},
	}
	if got := sys.StopIndex(); got != 1 {
		t.Errorf("stop index %d, want 1", got)
	}
	sys.Elements[1].Stop = false
	if got := sys.StopIndex(); got != 0 {
		t.Errorf("unflagged stop index %d, want 0", got)
	}
}

func TestValidateRejectsBadSystems(t *testing.T) {
	good := func() *SystemModel {
		return &SystemModel{
			Name: "ok",
			Elements: []Element{
				{Surf: NewFlat(), Thick: autodiff.Const(1), Medium: Air},
			},
			Wavelength: 0.5876,
			EPD:        10,
			Fields:     []Field{{AngleDeg: 0, Weight: 1}},
		}
	}
	if err := good().Validate(); err != nil {
		t.Fatalf("valid system rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SystemModel)
	}{
		{"no surfaces", func(s *SystemModel) { s.Elements = nil }},
		{"zero pupil", func(s *SystemModel) { s.EPD = 0 }},
		{"zero wavelength", func(s *SystemModel) { s.Wavelength = 0 }},
		{"nil profile", func(s *SystemModel) { s.Elements[0].Surf = nil }},
		{"nil medium", func(s *SystemModel) { s.Elements[0].Medium = nil }},
		{"negative aperture", func(s *SystemModel) { s.Elements[0].SemiDiam = -1 }},
		{"no fields", func(s *SystemModel) { s.Fields = nil }},
		{"two stops", func(s *SystemModel) {
			s.Elements = append(s.Elements, s.Elements[0], s.Elements[0])
			s.Elements[0].Stop = true
			s.Elements[1].Stop = true
		}},
	}
	for _, tt := range tests {
		sys := good()
		tt.mutate(sys)
		if err := sys.Validate(); err == nil {
			t.Errorf("%s: Validate accepted a broken system", tt.name)
		}
	}
}
