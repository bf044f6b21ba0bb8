// Package optics provides the optical system models traced by the engine.
//
// Surface profiles implement the [Surface] interface, defining sag as a
// function of squared radial distance in jet arithmetic so that design
// derivatives flow through the geometry:
//
//   - [Standard]: spherical and conic sections (flat at zero curvature)
//   - [EvenAsphere]: conic base plus even polynomial terms
//   - [Flat]: plane (stops, windows, image surfaces)
//
// Media implement [Glass]; the built-in catalog carries Sellmeier
// dispersion for a handful of common glasses. A [SystemModel] is the
// ordered surface list with apertures, spacings and media that the tracer
// walks.
//
// # Differentiability
//
// Every geometric quantity is expressed over [autodiff.Jet], so a system
// built from seeded parameters yields exact derivatives of anything
// computed downstream:
//
//	sys := rx.ToSystem(autodiff.Seed(params, autodiff.OrderGradient))
//	w := tracer.Trace(sys, ray).OPL // w.Grad is dW/dparams
package optics
