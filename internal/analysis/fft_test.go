package analysis

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestFFTImpulse(t *testing.T) {
	data := make([]float64, 16)
	data[0] = 1
	f := FFT(data)
	for i, v := range f {
		if math.Abs(cmplx.Abs(v)-1) > 1e-12 {
			t.Errorf("bin %d magnitude = %g, want 1", i, cmplx.Abs(v))
		}
	}
}

func TestFFTSinePeak(t *testing.T) {
	const n, k = 64, 5
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * k * float64(i) / n)
	}
	f := FFT(data)
	if got := cmplx.Abs(f[k]); math.Abs(got-n/2) > 1e-9 {
		t.Errorf("bin %d magnitude = %g, want %d", k, got, n/2)
	}
	for i := 1; i < n/2; i++ {
		if i == k {
			continue
		}
		if cmplx.Abs(f[i]) > 1e-9 {
			t.Errorf("bin %d magnitude = %g, want 0", i, cmplx.Abs(f[i]))
		}
	}
}

func TestFFTParseval(t *testing.T) {
	data := []float64{3, 1, -4, 1, 5, -9, 2, 6}
	var timeSum float64
	for _, v := range data {
		timeSum += v * v
	}
	var freqSum float64
	for _, v := range FFT(data) {
		a := cmplx.Abs(v)
		freqSum += a * a
	}
	freqSum /= float64(len(data))
	if math.Abs(timeSum-freqSum) > 1e-9 {
		t.Errorf("Parseval mismatch: time %g vs freq %g", timeSum, freqSum)
	}
}

func TestFFT2DDelta(t *testing.T) {
	const n = 8
	grid := make([][]complex128, n)
	for i := range grid {
		grid[i] = make([]complex128, n)
	}
	grid[0][0] = 1
	f := FFT2D(grid)
	for i := range f {
		for j := range f[i] {
			if math.Abs(cmplx.Abs(f[i][j])-1) > 1e-12 {
				t.Errorf("bin %d,%d magnitude = %g, want 1", i, j, cmplx.Abs(f[i][j]))
			}
		}
	}
}

func TestSpectrumHalfLength(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	s := Spectrum(data)
	if len(s) != 4 {
		t.Fatalf("len = %d, want 4", len(s))
	}
	if math.Abs(s[0]-36) > 1e-12 {
		t.Errorf("DC = %g, want the plain sum 36", s[0])
	}
}

func TestFFTShiftCentersOrigin(t *testing.T) {
	const n = 8
	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
	}
	grid[0][0] = 1
	out := fftShift(grid)
	if out[n/2][n/2] != 1 {
		t.Errorf("origin not centered: out[%d][%d] = %g", n/2, n/2, out[n/2][n/2])
	}
	if out[0][0] != 0 {
		t.Errorf("corner should be empty after shift, got %g", out[0][0])
	}
}
