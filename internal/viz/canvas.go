package viz

import (
	"math"
	"strings"
)

// Braille patterns: 2x4 dots per cell
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille-cell raster for terminal plots: Width×Height cells,
// (Width*2)×(Height*4) addressable sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the sub-pixel at (x, y).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Unset clears the sub-pixel at (x, y).
func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &= ^rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < 0x2800 {
		c.Grid[row][col] = 0x2800
	}
}

// Clear resets every cell.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// Line draws a sub-pixel line with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Scatter renders x/y data onto a fresh canvas, centered on (0, 0) with a
// square data window of half-width r. A zero r autoscales to the data with
// a small margin. Used for spot diagrams, where equal x and y scales
// matter.
func Scatter(xs, ys []float64, w, h int, r float64) *Canvas {
	c := NewCanvas(w, h)
	if len(xs) == 0 || len(xs) != len(ys) {
		return c
	}
	if r <= 0 {
		for i := range xs {
			r = math.Max(r, math.Max(math.Abs(xs[i]), math.Abs(ys[i])))
		}
		if r == 0 {
			r = 1
		}
		r *= 1.1
	}

	// Sub-pixel extents.
	pw := float64(w*2 - 1)
	ph := float64(h*4 - 1)
	for i := range xs {
		px := int((xs[i] + r) / (2 * r) * pw)
		py := int((r - ys[i]) / (2 * r) * ph)
		c.Set(px, py)
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
