package prescription

import "sort"

// Presets are built-in designs usable as optimization starting points and
// demo systems. Callers that mutate a preset should Clone it first.
var Presets = map[string]*Prescription{
	"singlet": {
		Name:        "singlet",
		Description: "best-form singlet, f≈100 mm, N-BK7",
		Wavelength:  0.5876,
		EPD:         20,
		Fields:      []float64{0, 3},
		Surfaces: []SurfaceSpec{
			{Radius: 60, Thickness: 5, Glass: "N-BK7", SemiDiam: 12},
			{Radius: -360, Thickness: 97.08, SemiDiam: 12},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "curvature", Min: 1.0 / 300, Max: 1.0 / 20},
			{Surface: 1, Field: "curvature", Min: -1.0 / 20, Max: 1.0 / 100},
		},
	},
	"doublet": {
		Name:        "doublet",
		Description: "cemented achromat, f≈100 mm, N-BK7 + N-SF5",
		Wavelength:  0.5876,
		EPD:         25,
		Fields:      []float64{0},
		Surfaces: []SurfaceSpec{
			{Radius: 61.47, Thickness: 6, Glass: "N-BK7", SemiDiam: 14},
			{Radius: -44.64, Thickness: 2.5, Glass: "N-SF5", SemiDiam: 14},
			{Radius: -129.94, Thickness: 95.95, SemiDiam: 14},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "curvature", Min: 0.005, Max: 0.05},
			{Surface: 1, Field: "curvature", Min: -0.06, Max: -0.005},
			{Surface: 2, Field: "curvature", Min: -0.03, Max: 0.01},
		},
	},
	"triplet": {
		Name:        "triplet",
		Description: "Cooke triplet, f≈50 mm, N-SK16 + F2",
		Wavelength:  0.5876,
		EPD:         12.5,
		Fields:      []float64{0, 14, 20},
		Surfaces: []SurfaceSpec{
			{Radius: 22.01359, Thickness: 3.258956, Glass: "N-SK16", SemiDiam: 9.5},
			{Radius: -435.76, Thickness: 6.007551, SemiDiam: 9.5},
			{Radius: -22.21328, Thickness: 0.9999746, Glass: "F2", SemiDiam: 5},
			{Radius: 20.29192, Thickness: 4.750409, SemiDiam: 5, Stop: true},
			{Radius: 79.6836, Thickness: 2.952076, Glass: "N-SK16", SemiDiam: 7.5},
			{Radius: -18.39533, Thickness: 42.20778, SemiDiam: 7.5},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "curvature"},
			{Surface: 1, Field: "curvature"},
			{Surface: 2, Field: "curvature"},
			{Surface: 3, Field: "curvature"},
			{Surface: 4, Field: "curvature"},
			{Surface: 5, Field: "curvature"},
		},
	},
	"mirror": {
		Name:        "mirror",
		Description: "parabolic mirror, f=100 mm",
		Wavelength:  0.5876,
		EPD:         50,
		Fields:      []float64{0},
		Surfaces: []SurfaceSpec{
			{Radius: -200, Conic: -1, Thickness: -100, Mirror: true, SemiDiam: 26},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "conic", Min: -3, Max: 0},
		},
	},
	"interferometer": {
		Name:        "interferometer",
		Description: "fused-silica plate arm in a collimated beam",
		Wavelength:  0.6328,
		EPD:         10,
		Fields:      []float64{0},
		Surfaces: []SurfaceSpec{
			{Type: "flat", Thickness: 10, Glass: "SIO2", SemiDiam: 8},
			{Type: "flat", Thickness: 50, SemiDiam: 8},
		},
		Variables: []VariableSpec{
			{Surface: 0, Field: "thickness", Min: 1, Max: 20},
		},
	},
}

// GetPreset returns a built-in prescription, or nil when the name is
// unknown.
func GetPreset(name string) *Prescription {
	return Presets[name]
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
