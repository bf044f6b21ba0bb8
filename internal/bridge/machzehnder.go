package bridge

import (
	"context"
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/eikonal"
)

// MachZehnder is a two-arm interferometer: each arm is an eikonal system
// sharing one design vector. The phase difference between arms drives the
// recombined port intensities.
type MachZehnder struct {
	armA, armB eikonal.Builder
	dim        int
	lambdaUm   float64
	split      TwoBeam
	backend    string
}

func NewMachZehnder(armA, armB eikonal.Builder, dim int, lambdaUm float64) *MachZehnder {
	return &MachZehnder{
		armA:     armA,
		armB:     armB,
		dim:      dim,
		lambdaUm: lambdaUm,
		split:    EqualSplit(),
	}
}

// SetSplit replaces the default 50/50 beamsplitter.
func (mz *MachZehnder) SetSplit(split TwoBeam) { mz.split = split }

// SetBackend selects the gradient backend for both arms.
func (mz *MachZehnder) SetBackend(name string) { mz.backend = name }

func (mz *MachZehnder) Split() TwoBeam      { return mz.split }
func (mz *MachZehnder) Wavelength() float64 { return mz.lambdaUm }

func (mz *MachZehnder) engines(lambdaUm float64) (*eikonal.Engine, *eikonal.Engine, error) {
	cfg := eikonal.Config{Dim: mz.dim, Wavelength: lambdaUm, Backend: mz.backend}
	a, err := eikonal.New(mz.armA, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge: arm A: %w", err)
	}
	b, err := eikonal.New(mz.armB, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge: arm B: %w", err)
	}
	return a, b, nil
}

// PhaseDifference returns φ_A − φ_B in radians for one ray.
func (mz *MachZehnder) PhaseDifference(p eikonal.Params, ray eikonal.RaySpec) (float64, error) {
	return mz.phaseAt(p, ray, mz.lambdaUm)
}

func (mz *MachZehnder) phaseAt(p eikonal.Params, ray eikonal.RaySpec, lambdaUm float64) (float64, error) {
	a, b, err := mz.engines(lambdaUm)
	if err != nil {
		return 0, err
	}
	ra, err := a.Eval(p, ray)
	if err != nil {
		return 0, fmt.Errorf("bridge: arm A: %w", err)
	}
	rb, err := b.Eval(p, ray)
	if err != nil {
		return 0, fmt.Errorf("bridge: arm B: %w", err)
	}
	return Wavenumber(lambdaUm) * (ra.W - rb.W), nil
}

// Ports returns the bright and dark output intensities for one ray.
func (mz *MachZehnder) Ports(p eikonal.Params, ray eikonal.RaySpec) (bright, dark float64, err error) {
	dphi, err := mz.PhaseDifference(p, ray)
	if err != nil {
		return 0, 0, err
	}
	bright, dark = mz.split.Ports(dphi)
	return bright, dark, nil
}

// PortSignal is one interferometer readout with design sensitivities.
type PortSignal struct {
	Bright     float64
	Dark       float64
	PhaseDiff  float64
	GradPhase  []float64
	GradBright []float64
	GradDark   []float64
}

// Signal evaluates both ports and their gradients with respect to the
// design vector: ∂I/∂p = ∓√(I1·I2)·sin(Δφ)·∂Δφ/∂p.
func (mz *MachZehnder) Signal(p eikonal.Params, ray eikonal.RaySpec) (*PortSignal, error) {
	a, b, err := mz.engines(mz.lambdaUm)
	if err != nil {
		return nil, err
	}
	ra, err := a.Gradient(p, ray)
	if err != nil {
		return nil, fmt.Errorf("bridge: arm A: %w", err)
	}
	rb, err := b.Gradient(p, ray)
	if err != nil {
		return nil, fmt.Errorf("bridge: arm B: %w", err)
	}

	k := Wavenumber(mz.lambdaUm)
	sig := &PortSignal{
		PhaseDiff: k * (ra.W - rb.W),
		GradPhase: make([]float64, len(p)),
	}
	for i := range p {
		sig.GradPhase[i] = k * (ra.Grad[i] - rb.Grad[i])
	}
	sig.Bright, sig.Dark = mz.split.Ports(sig.PhaseDiff)

	cross := math.Sqrt(mz.split.I1*mz.split.I2) * math.Sin(sig.PhaseDiff)
	sig.GradBright = make([]float64, len(p))
	sig.GradDark = make([]float64, len(p))
	for i := range p {
		sig.GradBright[i] = -cross * sig.GradPhase[i]
		sig.GradDark[i] = cross * sig.GradPhase[i]
	}
	return sig, nil
}

// SweepPoint is one wavelength sample of the interferogram.
type SweepPoint struct {
	LambdaUm  float64
	PhaseDiff float64
	Bright    float64
	Dark      float64
}

// Sweep scans the interferometer output across a wavelength band. Arms are
// rebuilt per sample, so dispersive media shift the fringes as they should.
func (mz *MachZehnder) Sweep(ctx context.Context, p eikonal.Params, ray eikonal.RaySpec, loUm, hiUm float64, steps int) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, fmt.Errorf("bridge: sweep needs at least 2 steps, got %d", steps)
	}
	if loUm <= 0 || hiUm <= loUm {
		return nil, fmt.Errorf("bridge: bad sweep band [%g, %g] µm", loUm, hiUm)
	}

	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return points, ctx.Err()
		default:
		}

		lambda := loUm + float64(i)*(hiUm-loUm)/float64(steps-1)
		dphi, err := mz.phaseAt(p, ray, lambda)
		if err != nil {
			return points, fmt.Errorf("bridge: sweep at %g µm: %w", lambda, err)
		}
		bright, dark := mz.split.Ports(dphi)
		points = append(points, SweepPoint{
			LambdaUm:  lambda,
			PhaseDiff: dphi,
			Bright:    bright,
			Dark:      dark,
		})
	}
	return points, nil
}
