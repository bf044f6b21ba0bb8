package optics

import (
	"fmt"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// Element is one surface of a sequential system: the profile, the axial
// distance to the next vertex (signed, mm), and the medium that follows.
type Element struct {
	Surf     Surface
	Thick    autodiff.Jet
	Medium   Glass
	SemiDiam float64 // aperture radius in mm; 0 means unbounded
	Mirror   bool
	Stop     bool
}

// Field is an object-space field point at infinity, given as an angle.
type Field struct {
	AngleDeg float64
	Weight   float64
}

// SystemModel is an ordered sequential optical system. Surface vertices sit
// on the z axis; the image plane lies one final thickness after the last
// surface. Object space is air at infinite conjugates.
type SystemModel struct {
	Name       string
	Elements   []Element
	Wavelength float64 // primary wavelength, µm
	EPD        float64 // entrance pupil diameter, mm
	Fields     []Field
}

func (s *SystemModel) NumSurfaces() int { return len(s.Elements) }

// VertexZ returns the axial position of surface i's vertex.
func (s *SystemModel) VertexZ(i int) autodiff.Jet {
	z := autodiff.Const(0)
	for j := 0; j < i && j < len(s.Elements); j++ {
		z = z.Add(s.Elements[j].Thick)
	}
	return z
}

// ImageZ returns the axial position of the image plane.
func (s *SystemModel) ImageZ() autodiff.Jet {
	return s.VertexZ(len(s.Elements))
}

// StopIndex returns the index of the aperture stop surface. When no surface
// is flagged, the first surface acts as the stop.
func (s *SystemModel) StopIndex() int {
	for i, e := range s.Elements {
		if e.Stop {
			return i
		}
	}
	return 0
}

// TotalTrack returns the signed vertex-to-image length.
func (s *SystemModel) TotalTrack() autodiff.Jet {
	return s.ImageZ()
}

func (s *SystemModel) Validate() error {
	if len(s.Elements) == 0 {
		return fmt.Errorf("optics: system %q has no surfaces", s.Name)
	}
	if s.EPD <= 0 {
		return fmt.Errorf("optics: system %q has non-positive entrance pupil %f", s.Name, s.EPD)
	}
	if s.Wavelength <= 0 {
		return fmt.Errorf("optics: system %q has non-positive wavelength %f", s.Name, s.Wavelength)
	}
	stops := 0
	for i, e := range s.Elements {
		if e.Surf == nil {
			return fmt.Errorf("optics: surface %d has no profile", i)
		}
		if e.Medium == nil {
			return fmt.Errorf("optics: surface %d has no medium", i)
		}
		if e.SemiDiam < 0 {
			return fmt.Errorf("optics: surface %d has negative semi-diameter", i)
		}
		if e.Stop {
			stops++
		}
	}
	if stops > 1 {
		return fmt.Errorf("optics: system %q declares %d stop surfaces", s.Name, stops)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("optics: system %q has no field points", s.Name)
	}
	return nil
}
