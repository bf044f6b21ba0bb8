// Package toolio renders prescriptions in the exchange formats of the
// commercial tools a design usually ends up in: Code V sequence files,
// Zemax lens files, an RSoft-style index profile for the waveguide-like
// cases, and a generic JSON dump. Renderers are deterministic, with stable
// ordering and fixed float formats, so outputs diff cleanly.
package toolio

import (
	"strings"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

// glassIndex resolves a catalog name at the design wavelength. Unknown
// names were already rejected by prescription validation.
func glassIndex(name string, lambdaUm float64) float64 {
	g, err := optics.LookupGlass(name)
	if err != nil {
		return 0
	}
	return g.Index(autodiff.Const(lambdaUm)).Val
}

// codevToken maps a catalog glass name to Code V spelling, which drops
// the hyphen.
func codevToken(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", ""))
}
