// Package analysis provides image-quality evaluation for traced systems.
//
// The package covers the standard single-design diagnostics:
//
//   - [TransverseFan], [OPDFan]: aberration vs pupil coordinate per field
//   - [SpotDiagram]: image-plane ray scatter against the chief ray
//   - [ThroughFocus]: spot radius across an image-plane shift ladder
//   - [ComputePSF], [ComputeMTF]: far field from the sampled pupil phase
//   - [Sweep]: any scalar metric against one design variable
//
// # Reading a fan
//
// A tangential transverse fan of a corrected design hugs zero; odd
// curvature signals coma, an S shape signals spherical aberration:
//
//	fan, err := analysis.TransverseFan(tr, 0, 33, false)
//	if err != nil {
//	    // every fan ray vignetted
//	}
package analysis
