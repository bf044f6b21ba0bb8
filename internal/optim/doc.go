// Package optim drives design parameters toward a merit minimum.
//
// Three optimizers share the [Optimizer] interface:
//
//   - [LevenbergMarquardt]: damped least squares on the residual vector,
//     the workhorse. The Jacobian comes from one jet-seeded residual
//     evaluation, not finite differences.
//   - [GradientDescent]: steepest descent with backtracking, as a
//     cross-check and for objectives without a residual form.
//   - [GridSearch]: exhaustive scan between bounds, for seeding.
//
// All of them honor box bounds by clamping and judge convergence on the
// gradient components that are free to move. Accepted iterations stream
// through an optional Progress callback and land in a [History].
package optim
