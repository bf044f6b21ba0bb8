package optics

import (
	"math"
	"testing"

	"github.com/eikonal-bridge/dee/internal/autodiff"
)

func TestCrossRightHanded(t *testing.T) {
	x, y := V(1, 0, 0), V(0, 1, 0)
	z := x.Cross(y)
	if gx, gy, gz := z.Vals(); gx != 0 || gy != 0 || gz != 1 {
		t.Errorf("x × y = (%g, %g, %g), want (0, 0, 1)", gx, gy, gz)
	}
}

func TestUnitNormalizes(t *testing.T) {
	v := V(3, 4, 12).Unit()
	if got := v.Norm().Val; math.Abs(got-1) > 1e-14 {
		t.Errorf("|unit| = %.16g, want 1", got)
	}
	if got := v.Z.Val; math.Abs(got-12.0/13.0) > 1e-14 {
		t.Errorf("unit z = %g, want %g", got, 12.0/13.0)
	}
}

func TestDotCarriesDerivatives(t *testing.T) {
	// d(v·v)/dx = 2x for v = (x, 2, 0).
	x := autodiff.Variable(3, 0, 1, autodiff.OrderGradient)
	v := Vec{X: x, Y: autodiff.Const(2), Z: autodiff.Const(0)}
	n2 := v.Norm2()
	if math.Abs(n2.Val-13) > 1e-14 {
		t.Errorf("|v|² = %g, want 13", n2.Val)
	}
	if math.Abs(n2.Grad[0]-6) > 1e-14 {
		t.Errorf("d|v|²/dx = %g, want 6", n2.Grad[0])
	}
}
