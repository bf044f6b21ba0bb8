package merit

import (
	"fmt"
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/eikonal"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

// Operand is a first-order design target: a property of the built system
// pulled toward Target with the given Weight.
type Operand struct {
	Name   string
	Target float64
	Weight float64
	Eval   func(sys *optics.SystemModel, lambda autodiff.Jet) (autodiff.Jet, error)
}

// EFLOperand targets the effective focal length in mm.
func EFLOperand(target, weight float64) Operand {
	return Operand{Name: "efl", Target: target, Weight: weight,
		Eval: func(sys *optics.SystemModel, lambda autodiff.Jet) (autodiff.Jet, error) {
			fo, err := optics.Paraxial(sys, lambda)
			if err != nil {
				return autodiff.Jet{}, err
			}
			return fo.EFL, nil
		}}
}

// BFLOperand targets the back focal length in mm.
func BFLOperand(target, weight float64) Operand {
	return Operand{Name: "bfl", Target: target, Weight: weight,
		Eval: func(sys *optics.SystemModel, lambda autodiff.Jet) (autodiff.Jet, error) {
			fo, err := optics.Paraxial(sys, lambda)
			if err != nil {
				return autodiff.Jet{}, err
			}
			return fo.BFL, nil
		}}
}

// TotalTrackOperand targets the vertex-to-image length in mm.
func TotalTrackOperand(target, weight float64) Operand {
	return Operand{Name: "total_track", Target: target, Weight: weight,
		Eval: func(sys *optics.SystemModel, lambda autodiff.Jet) (autodiff.Jet, error) {
			return sys.TotalTrack(), nil
		}}
}

// Config shapes a merit function. Zero Samples means a three-ring
// hexapolar pupil; zero Wavelength means the system primary.
type Config struct {
	Samples    []PupilSample
	Operands   []Operand
	Wavelength float64

	// VignettePenalty adds (penalty·lostFraction²) to the merit when rays
	// are lost. It steers value-comparing optimizers away from vignetting
	// configurations but carries no derivatives.
	VignettePenalty float64
}

// Function is the optimization view of a design: a residual vector of
// chief-referenced transverse ray errors over the pupil sample plus the
// configured operands. The scalar merit is the sum of squared residuals.
type Function struct {
	build eikonal.Builder
	dim   int
	cfg   Config
}

func NewFunction(build eikonal.Builder, dim int, cfg Config) (*Function, error) {
	if build == nil {
		return nil, eikonal.ErrNoBuilder
	}
	if dim < 0 {
		return nil, fmt.Errorf("merit: negative parameter dimension %d", dim)
	}
	if cfg.Samples == nil {
		cfg.Samples = HexapolarSample(3)
	}
	for _, op := range cfg.Operands {
		if op.Weight <= 0 {
			return nil, fmt.Errorf("merit: operand %q has weight %g, want > 0", op.Name, op.Weight)
		}
		if op.Eval == nil {
			return nil, fmt.Errorf("merit: operand %q has no evaluator", op.Name)
		}
	}
	return &Function{build: build, dim: dim, cfg: cfg}, nil
}

func (f *Function) Dim() int { return f.dim }

// Residuals evaluates the residual vector at a parameter point. Transverse
// errors are measured against the chief ray of each field and weighted by
// the square root of the field and sample weights, so their squares sum to
// the weighted mean-square spot about the chief. Rays lost on the way are
// dropped; losing every ray is an error.
func (f *Function) Residuals(p []autodiff.Jet) ([]autodiff.Jet, error) {
	if len(p) != f.dim {
		return nil, fmt.Errorf("%w: got %d parameters, function expects %d",
			eikonal.ErrDimensionMismatch, len(p), f.dim)
	}
	sys, err := f.build(p)
	if err != nil {
		return nil, err
	}
	if len(sys.Fields) == 0 {
		return nil, fmt.Errorf("merit: system %q has no fields", sys.Name)
	}
	lambda := f.cfg.Wavelength
	if lambda == 0 {
		lambda = sys.Wavelength
	}
	tr := raytrace.New(sys, autodiff.Const(lambda))

	var res []autodiff.Jet
	lost, total := 0, 0
	for _, fld := range sys.Fields {
		chief, err := tr.Trace(raytrace.Launch(sys, fld.AngleDeg, 0, 0))
		if err != nil {
			return nil, fmt.Errorf("merit: chief ray at %g deg: %w", fld.AngleDeg, err)
		}
		fw := fld.Weight
		if fw <= 0 {
			fw = 1
		}
		for _, s := range f.cfg.Samples {
			if s.Px == 0 && s.Py == 0 {
				continue // the chief is the reference, not a residual
			}
			total++
			out, err := tr.Trace(raytrace.Launch(sys, fld.AngleDeg, s.Px, s.Py))
			if err != nil {
				lost++
				continue
			}
			sw := s.Weight
			if sw <= 0 {
				sw = 1
			}
			scale := math.Sqrt(fw * sw)
			res = append(res,
				out.Pos.X.Sub(chief.Pos.X).MulFloat(scale),
				out.Pos.Y.Sub(chief.Pos.Y).MulFloat(scale))
		}
	}
	if total > 0 && lost == total {
		return nil, raytrace.ErrNoRays
	}
	if f.cfg.VignettePenalty > 0 && total > 0 {
		frac := float64(lost) / float64(total)
		res = append(res, autodiff.Const(math.Sqrt(f.cfg.VignettePenalty)*frac))
	}

	lj := autodiff.Const(lambda)
	for _, op := range f.cfg.Operands {
		val, err := op.Eval(sys, lj)
		if err != nil {
			return nil, fmt.Errorf("merit: operand %q: %w", op.Name, err)
		}
		res = append(res, val.SubFloat(op.Target).MulFloat(math.Sqrt(op.Weight)))
	}
	return res, nil
}

// Objective exposes the scalar merit as a backend objective. Evaluation
// failures surface as NaN; the trap holds the underlying cause.
func (f *Function) Objective() (autodiff.Func, *error) {
	trap := new(error)
	fn := func(p []autodiff.Jet) autodiff.Jet {
		res, err := f.Residuals(p)
		if err != nil {
			*trap = err
			return autodiff.Const(math.NaN())
		}
		sum := autodiff.Const(0)
		for _, r := range res {
			sum = sum.Add(r.Square())
		}
		return sum
	}
	return fn, trap
}

// Eval returns the scalar merit at a parameter point.
func (f *Function) Eval(p eikonal.Params) (float64, error) {
	fn, trap := f.Objective()
	v, err := autodiff.Value(fn, p)
	if err != nil {
		if *trap != nil {
			return 0, *trap
		}
		return 0, err
	}
	return v, nil
}
