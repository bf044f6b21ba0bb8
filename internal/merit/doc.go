// Package merit turns traced ray sets into scalar image-quality figures
// and composes them into an optimizable objective.
//
// Metrics ([SpotSize], [Wavefront], [Strehl], [Distortion], [Vignetting])
// accumulate rays per field and report jet values, so every figure carries
// design derivatives. Quadratic metrics report their mean-square form from
// Value: the square root of a quantity passing through zero has no
// derivative there, which would poison Newton steps at the very optimum
// the optimizer is after; RMS accessors exist for display.
//
// [Function] is the optimization view: a residual vector of chief-referenced
// transverse aberrations over a pupil sample plus first-order operands
// (focal length, back focus, track length) with targets and weights.
package merit
