package raytrace

import (
	"errors"
	"fmt"
)

// Domain errors for ray tracing.
var (
	// ErrRayMiss indicates a ray that never intersects a surface.
	ErrRayMiss = errors.New("raytrace: ray misses surface")

	// ErrTotalInternalReflection indicates refraction past the critical angle.
	ErrTotalInternalReflection = errors.New("raytrace: total internal reflection")

	// ErrVignetted indicates a ray blocked by a surface aperture.
	ErrVignetted = errors.New("raytrace: ray vignetted at aperture")

	// ErrNoConvergence indicates the aspheric intersection iteration failed.
	ErrNoConvergence = errors.New("raytrace: surface intersection did not converge")

	// ErrDegenerateRay indicates a ray with no axial direction component.
	ErrDegenerateRay = errors.New("raytrace: ray direction has no axial component")

	// ErrNoRays indicates a bundle in which every ray failed.
	ErrNoRays = errors.New("raytrace: no rays survived the trace")
)

// TraceError wraps a trace failure with the surface where it happened.
type TraceError struct {
	Surface int
	Wrapped error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("surface %d: %v", e.Surface, e.Wrapped)
}

func (e *TraceError) Unwrap() error {
	return e.Wrapped
}
