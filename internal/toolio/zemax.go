package toolio

import (
	"fmt"
	"os"
	"strings"

	"github.com/eikonal-bridge/dee/internal/prescription"
)

// Zemax renders a prescription as a minimal OpticStudio .zmx lens file:
// sequential mode, one SURF block per surface plus object and image, even
// aspheres as EVENASPH with PARM terms.
func Zemax(p *prescription.Prescription) string {
	var sb strings.Builder

	sb.WriteString("VERS 130717 693\n")
	sb.WriteString("MODE SEQ\n")
	fmt.Fprintf(&sb, "NAME %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&sb, "NOTE 0 %s\n", p.Description)
	}
	sb.WriteString("UNIT MM X W X CM MR CPMM\n")
	fmt.Fprintf(&sb, "ENPD %.6f\n", p.EPD)
	fmt.Fprintf(&sb, "WAVM 1 %.6f 1\n", p.Wavelength)
	for i, a := range p.Fields {
		fmt.Fprintf(&sb, "YFLD %d %.6f\n", i+1, a)
	}

	// Object at infinity.
	sb.WriteString("SURF 0\n")
	sb.WriteString("  TYPE STANDARD\n")
	sb.WriteString("  CURV 0.0\n")
	sb.WriteString("  DISZ INFINITY\n")

	for i, s := range p.Surfaces {
		fmt.Fprintf(&sb, "SURF %d\n", i+1)
		if len(s.Aspheric) > 0 {
			sb.WriteString("  TYPE EVENASPH\n")
		} else {
			sb.WriteString("  TYPE STANDARD\n")
		}
		if s.Stop {
			sb.WriteString("  STOP\n")
		}
		fmt.Fprintf(&sb, "  CURV %.12E\n", s.EffectiveCurvature())
		if s.Conic != 0 {
			fmt.Fprintf(&sb, "  CONI %.12E\n", s.Conic)
		}
		// PARM 1 is the r² term, unused by even-asphere prescriptions;
		// coefficients start at r⁴ in PARM 2.
		for j, a := range s.Aspheric {
			fmt.Fprintf(&sb, "  PARM %d %.12E\n", j+2, a)
		}
		fmt.Fprintf(&sb, "  DISZ %.12E\n", s.Thickness)
		switch {
		case s.Mirror:
			sb.WriteString("  GLAS MIRROR\n")
		case s.Glass != "":
			fmt.Fprintf(&sb, "  GLAS %s 0 0 %.6f\n", s.Glass, glassIndex(s.Glass, p.Wavelength))
		}
		if s.SemiDiam > 0 {
			fmt.Fprintf(&sb, "  DIAM %.6f 1 0 0 1\n", s.SemiDiam)
		}
	}

	fmt.Fprintf(&sb, "SURF %d\n", len(p.Surfaces)+1)
	sb.WriteString("  TYPE STANDARD\n")
	sb.WriteString("  CURV 0.0\n")
	sb.WriteString("  DISZ 0.0\n")
	return sb.String()
}

// SaveZemax writes the .zmx file to disk.
func SaveZemax(path string, p *prescription.Prescription) error {
	return os.WriteFile(path, []byte(Zemax(p)), 0644)
}
