package toolio

import (
	"fmt"
	"os"
	"strings"

	"github.com/eikonal-bridge/dee/internal/prescription"
)

// RSoftStack describes the waveguide-style view RSoft takes of a design:
// an ordered stack of homogeneous slabs along z, each with a refractive
// index. Only the axial structure survives the translation; curvatures
// have no .ind counterpart.
type RSoftStack struct {
	Name   string
	Lambda float64 // µm
	Slabs  []RSoftSlab
}

// RSoftSlab is one homogeneous region.
type RSoftSlab struct {
	Length float64 // µm
	Index  float64
	Label  string
}

// RSoftFromPrescription flattens a prescription into its axial slab stack:
// one slab per surface gap, indexed by the medium that follows the surface
// at the design wavelength. Thicknesses convert from mm to µm. Mirror folds
// do not flatten; designs with mirrors return an error.
func RSoftFromPrescription(p *prescription.Prescription) (*RSoftStack, error) {
	st := &RSoftStack{Name: p.Name, Lambda: p.Wavelength}
	for i, s := range p.Surfaces {
		if s.Mirror {
			return nil, fmt.Errorf("toolio: surface %d is a mirror; folded paths have no slab stack", i)
		}
		idx := 1.0
		label := "air"
		if s.Glass != "" {
			idx = glassIndex(s.Glass, p.Wavelength)
			label = s.Glass
		}
		st.Slabs = append(st.Slabs, RSoftSlab{
			Length: s.Thickness * 1e3,
			Index:  idx,
			Label:  label,
		})
	}
	return st, nil
}

// RSoft renders the stack as an RSoft-style .ind circuit file: header
// variables followed by one segment block per slab. Positions are laid
// out end to end from z = 0.
func (st *RSoftStack) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n", st.Name)
	fmt.Fprintf(&sb, "free_space_wavelength = %.6f\n", st.Lambda)
	sb.WriteString("background_index = 1.0\n")
	sb.WriteString("dimension = 2\n")
	total := 0.0
	for _, s := range st.Slabs {
		total += s.Length
	}
	fmt.Fprintf(&sb, "structure_length = %.6f\n", total)
	sb.WriteString("\n")

	z := 0.0
	for i, s := range st.Slabs {
		fmt.Fprintf(&sb, "segment %d\n", i+1)
		if s.Label != "" {
			fmt.Fprintf(&sb, "\tcomment = %s\n", s.Label)
		}
		// delta is the index contrast over background.
		fmt.Fprintf(&sb, "\tdelta = %.6f\n", s.Index-1.0)
		fmt.Fprintf(&sb, "\tbegin.z = %.6f\n", z)
		z += s.Length
		fmt.Fprintf(&sb, "\tend.z = %.6f\n", z)
		sb.WriteString("end segment\n\n")
	}
	return sb.String()
}

// SaveRSoft writes the .ind file to disk.
func (st *RSoftStack) Save(path string) error {
	return os.WriteFile(path, []byte(st.Render()), 0644)
}
