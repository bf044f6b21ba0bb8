package prescription

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPrescription() *Prescription {
	return &Prescription{
		Name:        "test-singlet",
		Description: "plano-convex test lens",
		Wavelength:  0.5876,
		EPD:         20,
		Fields:      []float64{0, 3},
		Surfaces: []SurfaceSpec{
			{Radius: 60, Thickness: 5, Glass: "N-BK7", SemiDiam: 12},
			{Radius: -360, Thickness: 96.7, SemiDiam: 12},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "curvature", Min: 0.001, Max: 0.05},
			{Surface: 1, Field: "curvature", Min: -0.05, Max: 0.01},
		},
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	p, err := Parse([]byte(`
name: bare
epd: 10
surfaces:
  - radius: 50
    thickness: 5
    glass: N-BK7
  - thickness: 90
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultWavelength, p.Wavelength)
	assert.Equal(t, []float64{0}, p.Fields)
	assert.Len(t, p.Surfaces, 2)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("surfaces: [not: {closed"))
	require.Error(t, err)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lens.yaml")
	orig := validPrescription()
	require.NoError(t, Save(path, orig))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Prescription)
		want   string
	}{
		{"missing name", func(p *Prescription) { p.Name = "" }, "missing name"},
		{"no surfaces", func(p *Prescription) { p.Surfaces = nil }, "no surfaces"},
		{"bad epd", func(p *Prescription) { p.EPD = 0 }, "entrance pupil"},
		{"bad wavelength", func(p *Prescription) { p.Wavelength = -1 }, "wavelength"},
		{"unknown type", func(p *Prescription) { p.Surfaces[0].Type = "toroid" }, "unknown type"},
		{"radius and curvature", func(p *Prescription) { p.Surfaces[0].Curvature = 0.02 }, "both radius and curvature"},
		{"flat with shape", func(p *Prescription) { p.Surfaces[0].Type = "flat" }, "flat but carries shape"},
		{"unknown glass", func(p *Prescription) { p.Surfaces[0].Glass = "UNOBTAINIUM" }, "UNOBTAINIUM"},
		{"negative semidiam", func(p *Prescription) { p.Surfaces[1].SemiDiam = -1 }, "negative semi-diameter"},
		{"two stops", func(p *Prescription) {
			p.Surfaces[0].Stop = true
			p.Surfaces[1].Stop = true
		}, "stop surfaces"},
		{"variable out of range", func(p *Prescription) { p.Variables[0].Surface = 7 }, "targets surface"},
		{"variable unknown field", func(p *Prescription) { p.Variables[0].Field = "tilt" }, "unknown field"},
		{"variable bends flat", func(p *Prescription) {
			p.Surfaces[1] = SurfaceSpec{Type: "flat", Thickness: 96.7}
		}, "bends a flat"},
		{"inverted bounds", func(p *Prescription) {
			p.Variables[0].Min = 1
			p.Variables[0].Max = -1
		}, "min 1 above max -1"},
		{"duplicate variable", func(p *Prescription) {
			p.Variables[1] = p.Variables[0]
		}, "declared variable twice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPrescription()
			tc.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}

	t.Run("valid passes", func(t *testing.T) {
		assert.NoError(t, validPrescription().Validate())
	})
}

func TestCloneIsIndependent(t *testing.T) {
	orig := validPrescription()
	cp := orig.Clone()

	cp.Surfaces[0].Radius = 42
	cp.Variables[0].Min = -99
	cp.Fields[0] = 10

	assert.Equal(t, 60.0, orig.Surfaces[0].Radius)
	assert.Equal(t, 0.001, orig.Variables[0].Min)
	assert.Equal(t, 0.0, orig.Fields[0])
}
