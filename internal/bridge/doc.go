// Package bridge maps optical path length to accumulated phase and models
// two-beam interference on top of the eikonal engine.
//
// The central identity is φ = 2π·W/λ: a ray's path length, measured in
// wavelengths, is the phase advance of the wave that rides it. Everything
// here is unit-explicit (W in millimetres, λ in micrometres, φ in radians)
// because the factor of 1000 between them is the classic source of silent
// fringe-count errors.
//
// [MachZehnder] composes two eikonal arms sharing one design vector and
// reports port intensities, their design gradients, and wavelength sweeps.
package bridge
