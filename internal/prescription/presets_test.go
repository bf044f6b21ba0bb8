package prescription

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

func TestListPresets(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"doublet", "interferometer", "mirror", "singlet", "triplet"}, names)
}

func TestGetPresetUnknown(t *testing.T) {
	assert.Nil(t, GetPreset("petzval"))
}

func TestPresetsBuild(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			p := GetPreset(name)
			require.NotNil(t, p)
			require.NoError(t, p.Validate())
			assert.Equal(t, name, p.Name)

			sys, err := p.Nominal()
			require.NoError(t, err)
			assert.Equal(t, len(p.Surfaces), sys.NumSurfaces())
		})
	}
}

func presetEFL(t *testing.T, name string) float64 {
	t.Helper()
	p := GetPreset(name)
	sys, err := p.Nominal()
	require.NoError(t, err)
	fo, err := optics.Paraxial(sys, autodiff.Const(sys.Wavelength))
	require.NoError(t, err)
	return fo.EFL.Val
}

func TestSingletFocalLength(t *testing.T) {
	efl := presetEFL(t, "singlet")
	assert.InDelta(t, 100, efl, 1.5)
}

func TestDoubletFocalLength(t *testing.T) {
	efl := presetEFL(t, "doublet")
	assert.InDelta(t, 100, efl, 1.5)
}

func TestTripletFocalLength(t *testing.T) {
	efl := presetEFL(t, "triplet")
	assert.InDelta(t, 50, efl, 1)
}

// A parabola brings an axial collimated beam to one point. The preset puts
// the image plane at the mirror focus, so even a full-aperture marginal ray
// lands on axis.
func TestParabolicMirrorFocus(t *testing.T) {
	p := GetPreset("mirror")
	sys, err := p.Nominal()
	require.NoError(t, err)

	tr := raytrace.New(sys, autodiff.Const(sys.Wavelength))
	out, err := tr.Trace(raytrace.Launch(sys, 0, 0, 0.8))
	require.NoError(t, err)

	assert.InDelta(t, 0, out.Pos.Y.Val, 1e-8)
	assert.InDelta(t, -100, out.Pos.Z.Val, 1e-12)
}

// Thickening the interferometer plate adds glass path at the plate index:
// d(OPL)/dt for the axial ray is n(λ) of fused silica.
func TestInterferometerPlateDerivative(t *testing.T) {
	p := GetPreset("interferometer")
	params := []autodiff.Jet{autodiff.Variable(10, 0, 1, autodiff.OrderGradient)}
	sys, err := p.ToSystem(params)
	require.NoError(t, err)

	tr := raytrace.New(sys, autodiff.Const(sys.Wavelength))
	out, err := tr.Trace(raytrace.Chief(sys, 0))
	require.NoError(t, err)

	require.Len(t, out.OPL.Grad, 1)
	assert.InDelta(t, 1.457, out.OPL.Grad[0], 0.003)
}

func TestPresetBoundsContainInitialParams(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			p := GetPreset(name)
			x := p.InitialParams()
			lo, hi := p.Bounds()
			for i := range x {
				assert.LessOrEqual(t, lo[i], x[i], "variable %d below its lower bound", i)
				assert.GreaterOrEqual(t, hi[i], x[i], "variable %d above its upper bound", i)
				assert.False(t, math.IsNaN(x[i]))
			}
		})
	}
}
