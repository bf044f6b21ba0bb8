// Package viz provides terminal visualization for designs and runs.
//
// The package covers three surfaces:
//
//   - [Canvas]: Braille-based pixel canvas, used for spot diagrams and
//     layout previews; [Scatter] maps data onto it with equal axes
//   - [CostPlot], [SeriesPlot]: asciigraph wrappers for fans, sweeps and
//     merit histories
//   - [RunLive], [LiveModel]: a Bubble Tea view of a running optimization
//
// # Key Bindings (live view)
//
//	Space - Pause the display (the optimizer keeps going)
//	R     - Reset the graph window
//	Q     - Cancel the run
package viz
