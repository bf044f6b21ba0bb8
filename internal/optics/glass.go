package optics

import (
	"fmt"
	"sort"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

// Glass is a transmissive medium with a (possibly dispersive) refractive
// index. Wavelength is in micrometres.
type Glass interface {
	Name() string
	Index(lambda autodiff.Jet) autodiff.Jet
}

// ConstantIndex is a non-dispersive medium.
type ConstantIndex struct {
	Label string
	N     float64
}

func (g ConstantIndex) Name() string { return g.Label }

func (g ConstantIndex) Index(lambda autodiff.Jet) autodiff.Jet {
	return autodiff.Const(g.N)
}

// Air is the default medium between elements.
var Air = ConstantIndex{Label: "AIR", N: 1.0}

// Sellmeier is the three-term Sellmeier dispersion model:
// n²(λ) = 1 + Σ Bᵢλ²/(λ²−Cᵢ), λ in µm.
type Sellmeier struct {
	Label string
	B     [3]float64
	C     [3]float64
	Vd    float64 // Abbe number, informational
}

func (g Sellmeier) Name() string { return g.Label }

func (g Sellmeier) Index(lambda autodiff.Jet) autodiff.Jet {
	l2 := lambda.Square()
	n2 := autodiff.Const(1)
	for i := 0; i < 3; i++ {
		n2 = n2.Add(l2.MulFloat(g.B[i]).Div(l2.SubFloat(g.C[i])))
	}
	return n2.Sqrt()
}

// catalog holds the built-in glasses, keyed by catalog name.
var catalog = map[string]Glass{
	"AIR": Air,
	"N-BK7": Sellmeier{
		Label: "N-BK7",
		B:     [3]float64{1.03961212, 0.231792344, 1.01046945},
		C:     [3]float64{0.00600069867, 0.0200179144, 103.560653},
		Vd:    64.17,
	},
	"N-SF5": Sellmeier{
		Label: "N-SF5",
		B:     [3]float64{1.52481889, 0.187085527, 1.42729015},
		C:     [3]float64{0.011254756, 0.0588995392, 129.141675},
		Vd:    32.25,
	},
	"F2": Sellmeier{
		Label: "F2",
		B:     [3]float64{1.34533359, 0.209073176, 0.937357162},
		C:     [3]float64{0.00997743871, 0.0470450767, 111.886764},
		Vd:    36.43,
	},
	"N-SK16": Sellmeier{
		Label: "N-SK16",
		B:     [3]float64{1.34317774, 0.241144399, 0.994317969},
		C:     [3]float64{0.00704687339, 0.0229005, 92.7508526},
		Vd:    60.32,
	},
	"N-LAK9": Sellmeier{
		Label: "N-LAK9",
		B:     [3]float64{1.46231905, 0.344399589, 1.15508372},
		C:     [3]float64{0.00724270156, 0.0243353131, 85.4686868},
		Vd:    54.71,
	},
	"SIO2": Sellmeier{
		Label: "SIO2",
		B:     [3]float64{0.6961663, 0.4079426, 0.8974794},
		C:     [3]float64{0.00467914826, 0.0135120631, 97.9340025},
		Vd:    67.8,
	},
}

// LookupGlass finds a catalog glass by name.
func LookupGlass(name string) (Glass, error) {
	g, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("optics: unknown glass: %s", name)
	}
	return g, nil
}

// CatalogNames lists the built-in glasses in stable order.
func CatalogNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
