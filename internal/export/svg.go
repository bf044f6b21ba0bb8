// Package export renders designs and terminal canvases as SVG documents.
// Output is deterministic (fixed float formats, stable element order), so
// exported files diff cleanly across runs.
package export

import (
	"fmt"
	"strings"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
	"github.com/eikonal-bridge/dee/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG, one dot per lit sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per cell
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per cell

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// layout maps system coordinates (z along the axis, y meridional) into the
// SVG viewport with a shared isotropic scale.
type layout struct {
	zMin, yMax    float64
	scale         float64
	width, height int
}

func (l *layout) point(z, y float64) (float64, float64) {
	px := (z - l.zMin) * l.scale
	py := (l.yMax - y) * l.scale
	return px, py
}

// LayoutSVG draws the meridional cross-section of a system: each surface
// profile as a sampled polyline, the image plane, and one polyline per
// traced ray path. Ray paths come from [raytrace.Tracer.TracePath].
func LayoutSVG(sys *optics.SystemModel, paths [][]raytrace.PathPoint, width int) string {
	if len(sys.Elements) == 0 {
		return ""
	}
	if width < 100 {
		width = 100
	}

	yMax := sys.EPD / 2
	for _, e := range sys.Elements {
		if e.SemiDiam > yMax {
			yMax = e.SemiDiam
		}
	}
	yMax *= 1.15

	zMin, zMax := 0.0, sys.ImageZ().Val
	for _, path := range paths {
		for _, pt := range path {
			if pt.Z < zMin {
				zMin = pt.Z
			}
			if pt.Z > zMax {
				zMax = pt.Z
			}
		}
	}
	span := zMax - zMin
	if span <= 0 {
		span = 1
	}
	margin := span * 0.05
	zMin -= margin
	zMax += margin

	l := &layout{zMin: zMin, yMax: yMax}
	l.scale = float64(width) / (zMax - zMin)
	l.width = width
	l.height = int(2*yMax*l.scale) + 1

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, l.width, l.height, l.width, l.height)

	// Optical axis.
	ax0, ay := l.point(zMin, 0)
	ax1, _ := l.point(zMax, 0)
	fmt.Fprintf(&sb, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"#bbbbbb\" stroke-width=\"0.5\" stroke-dasharray=\"4 3\"/>\n", ax0, ay, ax1, ay)

	// Surface profiles.
	sb.WriteString("<g fill=\"none\" stroke=\"#333333\" stroke-width=\"1.2\">\n")
	for i, e := range sys.Elements {
		sb.WriteString(surfacePath(sys, i, e, l))
	}
	sb.WriteString("</g>\n")

	// Image plane.
	iz := sys.ImageZ().Val
	ix, iy0 := l.point(iz, -yMax/1.15)
	_, iy1 := l.point(iz, yMax/1.15)
	fmt.Fprintf(&sb, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"#888888\" stroke-width=\"1\"/>\n", ix, iy0, ix, iy1)

	// Ray paths.
	sb.WriteString("<g fill=\"none\" stroke=\"#cc2222\" stroke-width=\"0.7\">\n")
	for _, path := range paths {
		if len(path) < 2 {
			continue
		}
		sb.WriteString("<polyline points=\"")
		for j, pt := range path {
			if j > 0 {
				sb.WriteByte(' ')
			}
			px, py := l.point(pt.Z, pt.Y)
			fmt.Fprintf(&sb, "%.2f,%.2f", px, py)
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// surfacePath samples one surface profile across its aperture.
func surfacePath(sys *optics.SystemModel, i int, e optics.Element, l *layout) string {
	semi := e.SemiDiam
	if semi <= 0 {
		semi = sys.EPD / 2
	}
	vz := sys.VertexZ(i).Val

	const steps = 32
	var sb strings.Builder
	sb.WriteString("<polyline points=\"")
	for k := 0; k <= steps; k++ {
		y := -semi + 2*semi*float64(k)/steps
		sag := e.Surf.Sag(autodiff.Const(y * y)).Val
		px, py := l.point(vz+sag, y)
		if k > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.2f,%.2f", px, py)
	}
	sb.WriteString("\"/>\n")
	return sb.String()
}
