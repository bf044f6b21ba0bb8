package toolio

import (
	"encoding/json"
	"os"

	"github.com/eikonal-bridge/dee/internal/prescription"
)

// DesignDump is the generic JSON view of a design: the prescription table
// with resolved refractive indices, so downstream tools need no glass
// catalog of their own.
type DesignDump struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Wavelength  float64       `json:"wavelength_um"`
	EPD         float64       `json:"epd_mm"`
	Fields      []float64     `json:"fields_deg"`
	Surfaces    []SurfaceDump `json:"surfaces"`
}

// SurfaceDump is one surface row with the curvature resolved and the
// medium index evaluated at the design wavelength.
type SurfaceDump struct {
	Curvature float64   `json:"curvature"`
	Thickness float64   `json:"thickness_mm"`
	Glass     string    `json:"glass,omitempty"`
	Index     float64   `json:"index"`
	Conic     float64   `json:"conic,omitempty"`
	Aspheric  []float64 `json:"aspheric,omitempty"`
	SemiDiam  float64   `json:"semidiam_mm,omitempty"`
	Stop      bool      `json:"stop,omitempty"`
	Mirror    bool      `json:"mirror,omitempty"`
}

// JSON renders the design dump, indented, with a trailing newline.
func JSON(p *prescription.Prescription) ([]byte, error) {
	d := DesignDump{
		Name:        p.Name,
		Description: p.Description,
		Wavelength:  p.Wavelength,
		EPD:         p.EPD,
		Fields:      p.Fields,
	}
	for _, s := range p.Surfaces {
		idx := 1.0
		if s.Glass != "" && !s.Mirror {
			idx = glassIndex(s.Glass, p.Wavelength)
		}
		d.Surfaces = append(d.Surfaces, SurfaceDump{
			Curvature: s.EffectiveCurvature(),
			Thickness: s.Thickness,
			Glass:     s.Glass,
			Index:     idx,
			Conic:     s.Conic,
			Aspheric:  s.Aspheric,
			SemiDiam:  s.SemiDiam,
			Stop:      s.Stop,
			Mirror:    s.Mirror,
		})
	}
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// SaveJSON writes the design dump to disk.
func SaveJSON(path string, p *prescription.Prescription) error {
	data, err := JSON(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
