package eikonal

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
	"github.com/eikonal-bridge/dee/internal/raytrace"
)

const (
	aimMaxIter = 20
	aimTol     = 1e-9
	aimMinStep = 1.0 / 1024
)

// Aim finds normalized pupil coordinates whose ray lands on a target
// image-plane point, by damped Newton iteration. The Jacobian of the image
// hit with respect to the pupil coordinates comes from seeding them as jet
// variables, so no trace is wasted on difference stencils.
func (e *Engine) Aim(p Params, angleDeg, targetX, targetY float64) (px, py float64, err error) {
	if err := e.check(p); err != nil {
		return 0, 0, err
	}
	sys, err := e.build(autodiff.Lift(p))
	if err != nil {
		return 0, 0, err
	}
	lambda := e.cfg.Wavelength
	if lambda == 0 {
		lambda = sys.Wavelength
	}
	tr := raytrace.New(sys, autodiff.Const(lambda))

	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sincos(theta)
	a := sys.EPD / 2

	// value-only probe for step damping
	probe := func(qx, qy float64) (float64, bool) {
		out, err := tr.Trace(raytrace.Launch(sys, angleDeg, qx, qy))
		if err != nil {
			return 0, false
		}
		return math.Hypot(out.Pos.X.Val-targetX, out.Pos.Y.Val-targetY), true
	}

	for iter := 0; iter < aimMaxIter; iter++ {
		pxj := autodiff.Variable(px, 0, 2, autodiff.OrderGradient)
		pyj := autodiff.Variable(py, 1, 2, autodiff.OrderGradient)
		pos := optics.Vec{X: pxj.MulFloat(a), Y: pyj.MulFloat(a), Z: autodiff.Const(0)}
		dir := optics.V(0, sin, cos)

		out, err := tr.Trace(raytrace.Ray{Pos: pos, Dir: dir, OPL: pos.Dot(dir)})
		if err != nil {
			return px, py, err
		}

		rx := out.Pos.X.Val - targetX
		ry := out.Pos.Y.Val - targetY
		res := math.Hypot(rx, ry)
		if res < aimTol {
			return px, py, nil
		}

		j00, j01 := out.Pos.X.Grad[0], out.Pos.X.Grad[1]
		j10, j11 := out.Pos.Y.Grad[0], out.Pos.Y.Grad[1]
		det := j00*j11 - j01*j10
		if math.Abs(det) < 1e-14 {
			return px, py, ErrAimDiverged
		}
		dx := (-rx*j11 + ry*j01) / det
		dy := (-ry*j00 + rx*j10) / det

		lam := 1.0
		for ; lam >= aimMinStep; lam /= 2 {
			if r, ok := probe(px+lam*dx, py+lam*dy); ok && r < res {
				break
			}
		}
		if lam < aimMinStep {
			return px, py, ErrAimDiverged
		}
		px += lam * dx
		py += lam * dy
	}
	return px, py, ErrAimDiverged
}
