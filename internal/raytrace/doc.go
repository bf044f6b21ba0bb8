// Package raytrace implements exact sequential ray tracing through an
// optical system, carried in jet arithmetic so the accumulated optical
// path length is differentiable with respect to design parameters.
//
// The trace walks surfaces in order:
//
//   - [Launch]: build a collimated ray at the entrance pupil for a field
//   - transfer to the next vertex plane, then intersect the real surface
//     (closed form for conics, Newton refinement for aspheres)
//   - aperture test against the surface semi-diameter
//   - bend by the vector refraction equation, or reflect at a mirror
//   - accumulate index·distance into the ray's optical path length
//
// Rays that miss a surface, vignette, or suffer total internal reflection
// stop with a [TraceError] naming the surface; a bundle trace records these
// per ray and keeps going.
//
// # Thread Safety
//
// A Tracer is safe for concurrent Trace calls; [TraceBundle] fans rays out
// across workers and honors context cancellation.
package raytrace
