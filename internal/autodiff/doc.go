// Package autodiff provides forward-mode automatic differentiation for the
// eikonal engine.
//
// The central type is [Jet], a second-order truncated Taylor value that
// carries a scalar together with its gradient and Hessian with respect to a
// fixed set of design variables:
//
//   - [Const]: plain value, no derivative tracking
//   - [Variable]: the i-th design variable, seeded with unit gradient
//   - [Seed]: seed a full parameter vector at once
//
// Arithmetic on jets applies the chain rule exactly, so any computation
// built from jet operations, including iterative ones such as Newton
// intersection solves, yields machine-precision derivatives in a single
// evaluation pass. A jet with a nil gradient behaves as an ordinary float64
// and allocates nothing.
//
// # Backends
//
// Gradients and Hessians are requested through a [Backend]:
//
//	g, err := autodiff.GetBackend().Gradient(f, params)
//
// Two backends ship: [Forward] (exact, default) and [FiniteDiff] (central
// differences, for cross-checking and for objectives with kinks). The
// default is chosen at init via [AutoSelect].
package autodiff
