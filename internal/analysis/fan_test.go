package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// parabolaMirror images an axial collimated beam to a single point, so
// every aberration measure on it should read zero.
func parabolaMirror() *optics.SystemModel {
	return &optics.SystemModel{
		Name: "parabola",
		Elements: []optics.Element{
			{
				Surf:     optics.NewConic(autodiff.Const(-1.0/200), autodiff.Const(-1)),
				Thick:    autodiff.Const(-100),
				Medium:   optics.Air,
				SemiDiam: 26,
				Mirror:   true,
			},
		},
		Wavelength: 0.5876,
		EPD:        50,
		Fields:     []optics.Field{{AngleDeg: 0, Weight: 1}},
	}
}

// testSinglet is a full-aperture f/5 lens with plenty of spherical
// aberration, focused at its paraxial image.
func testSinglet(semiDiam float64) *optics.SystemModel {
	glass := optics.ConstantIndex{Label: "NBK7", N: 1.5168}
	return &optics.SystemModel{
		Name: "singlet",
		Elements: []optics.Element{
			{Surf: optics.NewStandard(autodiff.Const(1.0 / 60)), Thick: autodiff.Const(5), Medium: glass, SemiDiam: semiDiam},
			{Surf: optics.NewStandard(autodiff.Const(-1.0 / 360)), Thick: autodiff.Const(97.08), Medium: optics.Air, SemiDiam: semiDiam},
		},
		Wavelength: 0.5876,
		EPD:        20,
		Fields:     []optics.Field{{AngleDeg: 0, Weight: 1}},
	}
}

func newTracer(sys *optics.SystemModel) *raytrace.Tracer {
	return raytrace.New(sys, autodiff.Const(sys.Wavelength))
}

func TestTransverseFanPerfectMirror(t *testing.T) {
	tr := newTracer(parabolaMirror())
	fan, err := TransverseFan(tr, 0, 17, false)
	if err != nil {
		t.Fatalf("TransverseFan() error = %v", err)
	}
	if fan.Lost != 0 {
		t.Fatalf("Lost = %d, want 0", fan.Lost)
	}
	if fan.Pupil[0] != -1 || fan.Pupil[len(fan.Pupil)-1] != 1 {
		t.Errorf("pupil scan endpoints = %g, %g, want -1, 1", fan.Pupil[0], fan.Pupil[len(fan.Pupil)-1])
	}
	for i, v := range fan.Value {
		if math.Abs(v) > 1e-8 {
			t.Errorf("Value[%d] = %g, want ~0 for a parabola", i, v)
		}
	}
}

func TestTransverseFanOddSymmetry(t *testing.T) {
	tr := newTracer(testSinglet(12))
	fan, err := TransverseFan(tr, 0, 21, false)
	if err != nil {
		t.Fatalf("TransverseFan() error = %v", err)
	}
	n := len(fan.Value)
	spherical := false
	for i := 0; i < n/2; i++ {
		if math.Abs(fan.Value[i]+fan.Value[n-1-i]) > 1e-9 {
			t.Errorf("fan not odd at %g: %g vs %g", fan.Pupil[i], fan.Value[i], fan.Value[n-1-i])
		}
		if math.Abs(fan.Value[i]) > 1e-6 {
			spherical = true
		}
	}
	if !spherical {
		t.Error("full-aperture singlet shows no transverse aberration")
	}
}

func TestOPDFanEvenSymmetry(t *testing.T) {
	tr := newTracer(testSinglet(12))
	fan, err := OPDFan(tr, 0, 21, false)
	if err != nil {
		t.Fatalf("OPDFan() error = %v", err)
	}
	n := len(fan.Value)
	for i := 0; i < n/2; i++ {
		if math.Abs(fan.Value[i]-fan.Value[n-1-i]) > 1e-6 {
			t.Errorf("OPD fan not even at %g: %g vs %g", fan.Pupil[i], fan.Value[i], fan.Value[n-1-i])
		}
	}
	// Waves, not mm: a full-aperture singlet is off by a lot of them.
	if math.Abs(fan.Value[0]) < 1 {
		t.Errorf("edge OPD = %g waves, expected several", fan.Value[0])
	}
}

func TestSagittalFanMatchesTangentialOnAxis(t *testing.T) {
	tr := newTracer(testSinglet(12))
	tan, err := TransverseFan(tr, 0, 11, false)
	if err != nil {
		t.Fatalf("tangential: %v", err)
	}
	sag, err := TransverseFan(tr, 0, 11, true)
	if err != nil {
		t.Fatalf("sagittal: %v", err)
	}
	if !sag.Sagittal || tan.Sagittal {
		t.Fatal("Sagittal flags mixed up")
	}
	for i := range tan.Value {
		if math.Abs(tan.Value[i]-sag.Value[i]) > 1e-9 {
			t.Errorf("axis symmetry broken at %g: tan %g sag %g", tan.Pupil[i], tan.Value[i], sag.Value[i])
		}
	}
}

func TestFanCountsVignetted(t *testing.T) {
	tr := newTracer(testSinglet(8.5))
	fan, err := TransverseFan(tr, 0, 21, false)
	if err != nil {
		t.Fatalf("TransverseFan() error = %v", err)
	}
	if fan.Lost != 4 {
		t.Errorf("Lost = %d, want 4 (|py| of 0.9 and 1.0 hit past 8.5 mm)", fan.Lost)
	}
	if len(fan.Pupil) != 17 {
		t.Errorf("surviving rays = %d, want 17", len(fan.Pupil))
	}
}

func TestFanAllLost(t *testing.T) {
	tr := newTracer(testSinglet(0.01))
	_, err := TransverseFan(tr, 0, 2, false)
	if !errors.Is(err, raytrace.ErrNoRays) {
		t.Fatalf("error = %v, want ErrNoRays", err)
	}
}
