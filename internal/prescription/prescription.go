// Package prescription reads, writes and validates lens prescriptions, and
// turns them into parameterized optical systems. A prescription is the
// YAML-facing description of a design: surfaces, media, aperture, fields,
// plus which scalars are design variables with what bounds.
package prescription

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eikonal-bridge/dee/internal/optics"
)

// SurfaceSpec is one surface row. Radius and Curvature are alternatives:
// set at most one; Validate rejects a surface that sets both. A zero radius
// and zero curvature mean a plane. Thickness is the signed distance to the
// next vertex (negative after an odd number of mirrors).
type SurfaceSpec struct {
	Type      string    `yaml:"type,omitempty"` // standard (default), flat, asphere
	Radius    float64   `yaml:"radius,omitempty"`
	Curvature float64   `yaml:"curvature,omitempty"`
	Thickness float64   `yaml:"thickness"`
	Glass     string    `yaml:"glass,omitempty"` // catalog name; empty is air
	Conic     float64   `yaml:"conic,omitempty"`
	Aspheric  []float64 `yaml:"aspheric,omitempty"` // r⁴, r⁶, ... coefficients
	SemiDiam  float64   `yaml:"semidiam,omitempty"`
	Stop      bool      `yaml:"stop,omitempty"`
	Mirror    bool      `yaml:"mirror,omitempty"`
}

// VariableSpec marks one surface scalar as a design variable. Zero Min and
// Max mean unbounded.
type VariableSpec struct {
	Surface int     `yaml:"surface"`
	Field   string  `yaml:"field"` // curvature, thickness, conic
	Min     float64 `yaml:"min,omitempty"`
	Max     float64 `yaml:"max,omitempty"`
}

// Prescription is a complete design description.
type Prescription struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Wavelength  float64        `yaml:"wavelength_um"`
	EPD         float64        `yaml:"epd"`
	Fields      []float64      `yaml:"fields,omitempty"` // angles in degrees
	Surfaces    []SurfaceSpec  `yaml:"surfaces"`
	Variables   []VariableSpec `yaml:"variables,omitempty"`
}

const (
	DefaultWavelength = 0.5876 // d line, µm
)

// Load reads and validates a prescription file. Missing wavelength and
// fields fall back to the d line on axis.
func Load(path string) (*Prescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML bytes into a validated prescription.
func Parse(data []byte) (*Prescription, error) {
	p := &Prescription{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("prescription: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Save writes the prescription as YAML.
func Save(path string, p *Prescription) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (p *Prescription) applyDefaults() {
	if p.Wavelength == 0 {
		p.Wavelength = DefaultWavelength
	}
	if len(p.Fields) == 0 {
		p.Fields = []float64{0}
	}
}

var variableFields = map[string]bool{
	"curvature": true,
	"thickness": true,
	"conic":     true,
}

// Validate checks structural consistency: surface counts, resolvable
// glasses, at most one stop, variable targets and bounds.
func (p *Prescription) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("prescription: missing name")
	}
	if len(p.Surfaces) == 0 {
		return fmt.Errorf("prescription %q: no surfaces", p.Name)
	}
	if p.EPD <= 0 {
		return fmt.Errorf("prescription %q: entrance pupil diameter %g, want > 0", p.Name, p.EPD)
	}
	if p.Wavelength <= 0 {
		return fmt.Errorf("prescription %q: wavelength %g µm, want > 0", p.Name, p.Wavelength)
	}

	stops := 0
	for i, s := range p.Surfaces {
		switch s.Type {
		case "", "standard", "flat", "asphere":
		default:
			return fmt.Errorf("prescription %q: surface %d has unknown type %q", p.Name, i, s.Type)
		}
		if s.Radius != 0 && s.Curvature != 0 {
			return fmt.Errorf("prescription %q: surface %d sets both radius and curvature", p.Name, i)
		}
		if s.Type == "flat" && (s.Radius != 0 || s.Curvature != 0 || s.Conic != 0 || len(s.Aspheric) > 0) {
			return fmt.Errorf("prescription %q: surface %d is flat but carries shape terms", p.Name, i)
		}
		if s.Glass != "" && !s.Mirror {
			if _, err := optics.LookupGlass(s.Glass); err != nil {
				return fmt.Errorf("prescription %q: surface %d: %w", p.Name, i, err)
			}
		}
		if s.SemiDiam < 0 {
			return fmt.Errorf("prescription %q: surface %d has negative semi-diameter", p.Name, i)
		}
		if s.Stop {
			stops++
		}
	}
	if stops > 1 {
		return fmt.Errorf("prescription %q: %d stop surfaces, want at most 1", p.Name, stops)
	}

	type varKey struct {
		surface int
		field   string
	}
	seen := make(map[varKey]bool)
	for i, v := range p.Variables {
		if v.Surface < 0 || v.Surface >= len(p.Surfaces) {
			return fmt.Errorf("prescription %q: variable %d targets surface %d of %d", p.Name, i, v.Surface, len(p.Surfaces))
		}
		if !variableFields[v.Field] {
			return fmt.Errorf("prescription %q: variable %d has unknown field %q", p.Name, i, v.Field)
		}
		if v.Field == "curvature" && p.Surfaces[v.Surface].Type == "flat" {
			return fmt.Errorf("prescription %q: variable %d bends a flat surface; declare it standard", p.Name, i)
		}
		if (v.Min != 0 || v.Max != 0) && v.Min > v.Max {
			return fmt.Errorf("prescription %q: variable %d has min %g above max %g", p.Name, i, v.Min, v.Max)
		}
		key := varKey{v.Surface, v.Field}
		if seen[key] {
			return fmt.Errorf("prescription %q: surface %d %s declared variable twice", p.Name, v.Surface, v.Field)
		}
		seen[key] = true
	}
	return nil
}

// Clone returns a deep copy, so presets can be adjusted without touching
// the shared table.
func (p *Prescription) Clone() *Prescription {
	out := *p
	out.Fields = append([]float64(nil), p.Fields...)
	out.Surfaces = make([]SurfaceSpec, len(p.Surfaces))
	for i, s := range p.Surfaces {
		s.Aspheric = append([]float64(nil), s.Aspheric...)
		out.Surfaces[i] = s
	}
	out.Variables = append([]VariableSpec(nil), p.Variables...)
	return &out
}

// EffectiveCurvature resolves the surface shape to a curvature whichever
// of radius or curvature the file used.
func (s *SurfaceSpec) EffectiveCurvature() float64 {
	if s.Curvature != 0 {
		return s.Curvature
	}
	if s.Radius != 0 {
		return 1 / s.Radius
	}
	return 0
}
