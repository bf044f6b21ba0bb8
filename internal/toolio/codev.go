package toolio

import (
	"fmt"
	"os"
	"strings"

	"github.com/eikonal-bridge/dee/internal/prescription"
)

// CodeV renders a prescription as a Code V sequence file: LEN NEW header,
// one S line per surface with radius, thickness and the following medium,
// STO naming the stop, SI closing at the image plane.
func CodeV(p *prescription.Prescription) string {
	var sb strings.Builder

	if p.Description != "" {
		fmt.Fprintf(&sb, "! %s: %s\n", p.Name, p.Description)
	} else {
		fmt.Fprintf(&sb, "! %s\n", p.Name)
	}
	sb.WriteString("LEN NEW\n")
	fmt.Fprintf(&sb, "TIT '%s'\n", p.Name)
	fmt.Fprintf(&sb, "EPD %.6f\n", p.EPD)
	fmt.Fprintf(&sb, "WL %.2f\n", p.Wavelength*1000) // nm

	angles := make([]string, len(p.Fields))
	for i, a := range p.Fields {
		angles[i] = fmt.Sprintf("%.4f", a)
	}
	fmt.Fprintf(&sb, "YAN %s\n", strings.Join(angles, " "))

	sb.WriteString("SO 0.000000 0.100000E+12\n")
	stop := -1
	for i, s := range p.Surfaces {
		fmt.Fprintf(&sb, "S%d %s %.6f", i+1, codevRadius(&s), s.Thickness)
		switch {
		case s.Mirror:
			sb.WriteString(" REFL")
		case s.Glass != "":
			sb.WriteString(" " + codevToken(s.Glass))
		}
		sb.WriteByte('\n')
		if s.Conic != 0 {
			fmt.Fprintf(&sb, "CON\nK %.6f\n", s.Conic)
		}
		if len(s.Aspheric) > 0 {
			sb.WriteString("ASP\n")
			// Code V letters the even coefficients A, B, C, ...
			for j, a := range s.Aspheric {
				fmt.Fprintf(&sb, "%c %.6E\n", 'A'+j, a)
			}
		}
		if s.SemiDiam > 0 {
			fmt.Fprintf(&sb, "CIR S%d %.6f\n", i+1, s.SemiDiam)
		}
		if s.Stop {
			stop = i
		}
	}
	if stop >= 0 {
		fmt.Fprintf(&sb, "STO S%d\n", stop+1)
	}
	sb.WriteString("SI 0.000000 0.000000\n")
	sb.WriteString("GO\n")
	return sb.String()
}

// SaveCodeV writes the sequence file to disk.
func SaveCodeV(path string, p *prescription.Prescription) error {
	return os.WriteFile(path, []byte(CodeV(p)), 0644)
}

func codevRadius(s *prescription.SurfaceSpec) string {
	c := s.EffectiveCurvature()
	if c == 0 {
		return "INFINITY"
	}
	return fmt.Sprintf("%.6f", 1/c)
}
