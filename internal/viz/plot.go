package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
)

// CostPlot renders an optimizer cost history on a log10 axis, which is the
// only readable scale once a merit drops a few decades.
func CostPlot(costs []float64, width, height int) string {
	if len(costs) == 0 {
		return ""
	}
	logs := make([]float64, len(costs))
	for i, c := range costs {
		if c <= 0 {
			c = 1e-16
		}
		logs[i] = math.Log10(c)
	}
	return asciigraph.Plot(logs,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("log10(merit) vs iteration"),
	)
}

// SeriesPlot renders one data series with a caption.
func SeriesPlot(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
