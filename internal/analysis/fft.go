package analysis

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of a real sequence by
// radix-2 decimation. The length must be a power of two.
func FFT(data []float64) []complex128 {
	buf := make([]complex128, len(data))
	for i, v := range data {
		buf[i] = complex(v, 0)
	}
	return fftC(buf)
}

func fftC(data []complex128) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		copy(result, data)
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := fftC(even)
	fodd := fftC(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// FFT2D transforms a square grid, rows first then columns.
func FFT2D(grid [][]complex128) [][]complex128 {
	n := len(grid)
	rows := make([][]complex128, n)
	for i := range grid {
		rows[i] = fftC(grid[i])
	}

	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
	}
	col := make([]complex128, n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			col[i] = rows[i][j]
		}
		f := fftC(col)
		for i := 0; i < n; i++ {
			out[i][j] = f[i]
		}
	}
	return out
}

// Spectrum returns the magnitude of the first half of the transform, the
// usable bins for a real input sequence.
func Spectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// fftShift swaps quadrants so the zero-frequency bin sits at the grid
// center.
func fftShift(grid [][]float64) [][]float64 {
	n := len(grid)
	h := n / 2
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = grid[(i+h)%n][(j+h)%n]
		}
	}
	return out
}
