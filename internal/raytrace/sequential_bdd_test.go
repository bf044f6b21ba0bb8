package raytrace

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

var _ = Describe("conic intersection", func() {
	axial := optics.V(0, 0, 1)

	It("finds the cap of a sphere nearest the vertex plane", func() {
		// R = 100 sphere, ray at 10 mm: sag is 100 − √(100²−10²).
		t, err := conicIntersect(autodiff.Const(0.01), autodiff.Const(0),
			optics.V(0, 10, 0), axial)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Val).To(BeNumerically("~", 100-math.Sqrt(100*100-10*10), 1e-12))
	})

	It("degenerates to the tangent plane as curvature vanishes", func() {
		t, err := conicIntersect(autodiff.Const(0), autodiff.Const(0),
			optics.V(0, 7, -3), axial)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Val).To(BeNumerically("~", 3, 1e-14))
	})

	It("keeps curvature derivatives alive at exactly zero curvature", func() {
		// t(c) = sag(c) along an axial offset ray, so dt/dc = r²/2 at c = 0.
		c := autodiff.Variable(0, 0, 1, autodiff.OrderGradient)
		t, err := conicIntersect(c, autodiff.Const(0), optics.V(0, 6, 0), axial)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Val).To(BeZero())
		Expect(t.Grad[0]).To(BeNumerically("~", 18, 1e-12))
	})

	It("rejects rays that pass a steep sphere entirely", func() {
		_, err := conicIntersect(autodiff.Const(0.2), autodiff.Const(0),
			optics.V(0, 8, 0), axial)
		Expect(err).To(MatchError(ErrRayMiss))
	})
})

var _ = Describe("vector refraction", func() {
	normal := optics.V(0, 0, -1)

	It("leaves normal incidence undeflected", func() {
		bent, err := refract(optics.V(0, 0, 1), normal,
			autodiff.Const(1), autodiff.Const(1.5168))
		Expect(err).NotTo(HaveOccurred())
		Expect(bent.Y.Val).To(BeZero())
		Expect(bent.Z.Val).To(BeNumerically("~", 1, 1e-14))
	})

	It("bends toward the normal entering a denser medium", func() {
		theta := 30 * math.Pi / 180
		bent, err := refract(optics.V(0, math.Sin(theta), math.Cos(theta)), normal,
			autodiff.Const(1), autodiff.Const(1.5))
		Expect(err).NotTo(HaveOccurred())
		Expect(bent.Y.Val).To(BeNumerically("~", math.Sin(theta)/1.5, 1e-14))
		Expect(bent.Norm().Val).To(BeNumerically("~", 1, 1e-14))
	})

	It("reports total internal reflection past the critical angle", func() {
		theta := 50 * math.Pi / 180
		_, err := refract(optics.V(0, math.Sin(theta), math.Cos(theta)), normal,
			autodiff.Const(1.5), autodiff.Const(1))
		Expect(err).To(MatchError(ErrTotalInternalReflection))
	})
})

var _ = Describe("tracing a cemented doublet", func() {
	var (
		sys *optics.SystemModel
		tr  *Tracer
	)

	BeforeEach(func() {
		crown, err := optics.LookupGlass("N-BK7")
		Expect(err).NotTo(HaveOccurred())
		flint, err := optics.LookupGlass("N-SF5")
		Expect(err).NotTo(HaveOccurred())

		sys = &optics.SystemModel{
			Name: "achromat",
			Elements: []optics.Element{
				{Surf: optics.NewStandard(autodiff.Const(1.0 / 61.47)),
					Thick: autodiff.Const(6), Medium: crown},
				{Surf: optics.NewStandard(autodiff.Const(-1.0 / 44.64)),
					Thick: autodiff.Const(2.5), Medium: flint},
				{Surf: optics.NewStandard(autodiff.Const(-1.0 / 129.94)),
					Thick: autodiff.Const(90), Medium: optics.Air},
			},
			Wavelength: 0.5876,
			EPD:        25,
			Fields:     []optics.Field{{AngleDeg: 0, Weight: 1}},
		}
		solved, err := optics.SolveImageDistance(sys, autodiff.Const(sys.Wavelength))
		Expect(err).NotTo(HaveOccurred())
		sys = solved
		tr = New(sys, autodiff.Const(sys.Wavelength))
	})

	It("lands the chief ray on the axis", func() {
		out, err := tr.Trace(Chief(sys, 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Pos.Y.Val).To(BeNumerically("~", 0, 1e-12))
	})

	It("keeps zonal rays within a tight spot", func() {
		for _, py := range []float64{-0.7, -0.3, 0.3, 0.7} {
			out, err := tr.Trace(Launch(sys, 0, 0, py))
			Expect(err).NotTo(HaveOccurred())
			Expect(math.Abs(out.Pos.Y.Val)).To(BeNumerically("<", 0.1),
				"zonal ray py=%g strayed", py)
		}
	})

	It("focuses blue and red within the secondary spectrum", func() {
		focusAt := func(lambda float64) float64 {
			fo, err := optics.Paraxial(sys, autodiff.Const(lambda))
			Expect(err).NotTo(HaveOccurred())
			return fo.BFL.Val
		}
		blue, red := focusAt(0.4861), focusAt(0.6563)
		// An achromat pairs crown and flint so the F and C foci nearly
		// coincide; a BK7 singlet of this power would miss by ~1.5 mm.
		Expect(math.Abs(blue - red)).To(BeNumerically("<", 0.25))
	})
})
