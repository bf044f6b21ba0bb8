package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// PSF is the point spread function computed from the sampled pupil: each
// open pupil point contributes unit amplitude at the phase of its ray's
// OPD, vignetted points contribute nothing, and the far field is the
// squared transform magnitude. Data is quadrant-shifted so the pattern
// center sits mid-grid, scaled to peak 1.
type PSF struct {
	N      int
	Data   [][]float64
	Strehl float64
	Open   int // pupil grid points that traced
	Lost   int // pupil grid points inside the disc that vignetted
}

// ComputePSF samples the pupil on an n×n grid and transforms it. n must
// be a power of two; the pupil disc spans half the grid so the transform
// is padded against wraparound.
func ComputePSF(tr *raytrace.Tracer, angleDeg float64, n int) (*PSF, error) {
	if n < 8 || n&(n-1) != 0 {
		return nil, fmt.Errorf("analysis: psf grid %d, want a power of two ≥ 8", n)
	}
	sys := tr.System()

	chief, err := tr.Trace(raytrace.Chief(sys, angleDeg))
	if err != nil {
		return nil, fmt.Errorf("analysis: chief ray at %g deg: %w", angleDeg, err)
	}
	toWaves := 1e3 / tr.Wavelength().Val

	pupil := make([][]complex128, n)
	for i := range pupil {
		pupil[i] = make([]complex128, n)
	}
	psf := &PSF{N: n}
	scale := 4.0 / float64(n) // disc diameter n/2 grid points
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pv := (float64(i) - float64(n)/2) * scale
			pu := (float64(j) - float64(n)/2) * scale
			if pu*pu+pv*pv > 1 {
				continue
			}
			out, err := tr.Trace(raytrace.Launch(sys, angleDeg, pu, pv))
			if err != nil {
				psf.Lost++
				continue
			}
			phase := 2 * math.Pi * (out.OPL.Val - chief.OPL.Val) * toWaves
			pupil[i][j] = cmplx.Exp(complex(0, phase))
			psf.Open++
		}
	}
	f := FFT2D(pupil)

	// The zero-frequency bin is the coherent pupil sum, so the Strehl
	// ratio falls out before any shifting.
	center := cmplx.Abs(f[0][0])
	psf.Strehl = center * center / float64(psf.Open*psf.Open)

	inten := make([][]float64, n)
	peak := 0.0
	for i := range f {
		inten[i] = make([]float64, n)
		for j := range f[i] {
			a := cmplx.Abs(f[i][j])
			inten[i][j] = a * a
			if inten[i][j] > peak {
				peak = inten[i][j]
			}
		}
	}
	if peak > 0 {
		for i := range inten {
			for j := range inten[i] {
				inten[i][j] /= peak
			}
		}
	}
	psf.Data = fftShift(inten)
	return psf, nil
}

// MTF holds modulation transfer cuts. Frequencies are normalized to the
// grid Nyquist; with the standard pupil padding the diffraction cutoff
// sits at 0.5.
type MTF struct {
	Freq     []float64
	Tan, Sag []float64
}

// ComputeMTF reduces a PSF to tangential and sagittal modulation cuts via
// line spread functions: rows integrate out x to give the y-profile and
// vice versa.
func ComputeMTF(p *PSF) *MTF {
	n := p.N
	lsfY := make([]float64, n)
	lsfX := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			lsfY[i] += p.Data[i][j]
			lsfX[j] += p.Data[i][j]
		}
	}

	tan := Spectrum(lsfY)
	sag := Spectrum(lsfX)
	normalize := func(v []float64) {
		if len(v) == 0 || v[0] == 0 {
			return
		}
		d := v[0]
		for i := range v {
			v[i] /= d
		}
	}
	normalize(tan)
	normalize(sag)

	freq := make([]float64, len(tan))
	for i := range freq {
		freq[i] = float64(i) / float64(len(freq))
	}
	return &MTF{Freq: freq, Tan: tan, Sag: sag}
}
