// Package eikonal evaluates the point eikonal W, the optical path length
// from the entrance pupil to the image plane, as a differentiable function
// of a design parameter vector.
//
// The package ties the layers together:
//
//   - [Params]: the design vector (curvatures, thicknesses, coefficients)
//   - [Builder]: materializes an optical system from seeded parameters
//   - [Engine]: traces rays through the built system and hands W to a
//     gradient backend, so one call returns W, ∇W and optionally ∇²W
//
// Because the whole trace runs in jet arithmetic, the forward backend
// produces exact derivatives in a single pass; the finite-difference
// backend exists to cross-check them.
//
// # Example
//
//	eng, _ := eikonal.New(build, eikonal.DefaultConfig(3))
//	res, _ := eng.Hessian(params, eikonal.RaySpec{Px: 0, Py: 0.7})
package eikonal
