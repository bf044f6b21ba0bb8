package eikonal

import "errors"

// Domain errors for engine evaluation.
var (
	// ErrDimensionMismatch indicates a parameter vector of the wrong length.
	ErrDimensionMismatch = errors.New("eikonal: parameter dimension mismatch")

	// ErrInvalidParams indicates NaN or Inf in a parameter vector.
	ErrInvalidParams = errors.New("eikonal: invalid parameters (NaN or Inf)")

	// ErrNoBuilder indicates an engine constructed without a system builder.
	ErrNoBuilder = errors.New("eikonal: no system builder")

	// ErrAimDiverged indicates the ray aiming iteration failed to converge.
	ErrAimDiverged = errors.New("eikonal: ray aiming did not converge")
)
