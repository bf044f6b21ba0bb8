package raytrace

import (
	"math"

	"github.com/eikonal-bridge/dee/internal/autodiff"
	"github.com/eikonal-bridge/dee/internal/optics"
)

const (
	newtonTol     = 1e-12
	maxNewtonIter = 30
)

// Tracer traces rays through one system at one wavelength. Media indices
// are evaluated once up front; a Tracer is safe for concurrent use.
type Tracer struct {
	sys    *optics.SystemModel
	lambda autodiff.Jet
	idx    []autodiff.Jet // index after each surface
}

func New(sys *optics.SystemModel, lambda autodiff.Jet) *Tracer {
	idx := make([]autodiff.Jet, len(sys.Elements))
	for i, e := range sys.Elements {
		idx[i] = e.Medium.Index(lambda)
	}
	return &Tracer{sys: sys, lambda: lambda, idx: idx}
}

func (tr *Tracer) System() *optics.SystemModel { return tr.sys }
func (tr *Tracer) Wavelength() autodiff.Jet    { return tr.lambda }

// PathPoint is a ray-surface hit in global coordinates, for layout drawing.
// Surface −1 is the launch point; NumSurfaces is the image plane.
type PathPoint struct {
	Surface int
	X, Y, Z float64
}

// Trace propagates a ray through every surface to the image plane.
func (tr *Tracer) Trace(r Ray) (Ray, error) {
	out, _, err := tr.trace(r, false)
	return out, err
}

// TracePath is Trace plus the surface hit points.
func (tr *Tracer) TracePath(r Ray) (Ray, []PathPoint, error) {
	return tr.trace(r, true)
}

func (tr *Tracer) trace(r Ray, wantPath bool) (Ray, []PathPoint, error) {
	var path []PathPoint
	record := func(surface int, p optics.Vec) {
		if !wantPath {
			return
		}
		x, y, z := p.Vals()
		path = append(path, PathPoint{Surface: surface, X: x, Y: y, Z: z})
	}
	record(-1, r.Pos)

	n := autodiff.Const(1) // object space is air
	zv := autodiff.Const(0)

	for i, e := range tr.sys.Elements {
		local := r.Pos
		local.Z = local.Z.Sub(zv)

		t, err := intersectSurface(e.Surf, local, r.Dir)
		if err != nil {
			return r, path, &TraceError{Surface: i, Wrapped: err}
		}
		hit := local.Add(r.Dir.Scale(t))

		if e.SemiDiam > 0 {
			if r2 := hit.X.Val*hit.X.Val + hit.Y.Val*hit.Y.Val; r2 > e.SemiDiam*e.SemiDiam {
				return r, path, &TraceError{Surface: i, Wrapped: ErrVignetted}
			}
		}

		m := surfaceNormal(e.Surf, hit)
		if m.Dot(r.Dir).Val > 0 {
			m = m.Neg()
		}

		r.OPL = r.OPL.Add(n.Mul(t))

		if e.Mirror {
			r.Dir = reflect(r.Dir, m)
		} else {
			bent, err := refract(r.Dir, m, n, tr.idx[i])
			if err != nil {
				return r, path, &TraceError{Surface: i, Wrapped: err}
			}
			r.Dir = bent
			n = tr.idx[i]
		}

		hit.Z = hit.Z.Add(zv)
		r.Pos = hit
		record(i, r.Pos)
		zv = zv.Add(e.Thick)
	}

	// final transfer to the image plane at zv
	if math.Abs(r.Dir.Z.Val) < 1e-12 {
		return r, path, &TraceError{Surface: len(tr.sys.Elements), Wrapped: ErrDegenerateRay}
	}
	t := zv.Sub(r.Pos.Z).Div(r.Dir.Z)
	r.OPL = r.OPL.Add(n.Mul(t))
	r.Pos = r.Pos.Add(r.Dir.Scale(t))
	record(len(tr.sys.Elements), r.Pos)

	return r, path, nil
}

// intersectSurface finds the ray parameter of the surface hit, with the ray
// origin already in vertex-local coordinates. Conics use the closed form;
// aspheres polish it with Newton iterations in jet arithmetic, so the hit
// keeps exact derivatives.
func intersectSurface(surf optics.Surface, p, d optics.Vec) (autodiff.Jet, error) {
	switch s := surf.(type) {
	case optics.Flat:
		if math.Abs(d.Z.Val) < 1e-14 {
			return autodiff.Jet{}, ErrRayMiss
		}
		return p.Z.Neg().Div(d.Z), nil
	case *optics.Standard:
		return conicIntersect(s.Curv, s.Conic, p, d)
	case *optics.EvenAsphere:
		t, err := conicIntersect(s.Base.Curv, s.Base.Conic, p, d)
		if err != nil {
			return t, err
		}
		return newtonPolish(surf, p, d, t)
	default:
		return newtonPolish(surf, p, d, autodiff.Const(0))
	}
}

// conicIntersect solves the quadratic for a conic of curvature c and conic
// constant k: the surface satisfies c(x²+y²) + c(1+k)z² − 2z = 0. The root
// nearest the vertex plane is evaluated in the form 2C/(−B ∓ √(B²−4AC)),
// which stays regular as the quadratic degenerates at c → 0, so curvature
// variables keep derivatives through zero.
func conicIntersect(curv, conic autodiff.Jet, p, d optics.Vec) (autodiff.Jet, error) {
	kp1 := conic.AddFloat(1)

	qa := curv.Mul(d.X.Square().Add(d.Y.Square()).Add(kp1.Mul(d.Z.Square())))
	qb := curv.Mul(p.X.Mul(d.X).Add(p.Y.Mul(d.Y)).Add(kp1.Mul(p.Z).Mul(d.Z))).Sub(d.Z).MulFloat(2)
	qc := curv.Mul(p.X.Square().Add(p.Y.Square()).Add(kp1.Mul(p.Z.Square()))).Sub(p.Z.MulFloat(2))

	disc := qb.Square().Sub(qa.Mul(qc).MulFloat(4))
	if disc.Val < 0 {
		return autodiff.Jet{}, ErrRayMiss
	}
	sq := disc.Sqrt()

	den := qb.Neg().Add(sq)
	if qb.Val > 0 {
		den = qb.Neg().Sub(sq)
	}
	if math.Abs(den.Val) < 1e-300 {
		// double root at the vertex: ray already on the surface
		if math.Abs(qc.Val) < 1e-12 {
			return autodiff.Const(0), nil
		}
		return autodiff.Jet{}, ErrRayMiss
	}
	return qc.MulFloat(2).Div(den), nil
}

func newtonPolish(surf optics.Surface, p, d optics.Vec, t autodiff.Jet) (autodiff.Jet, error) {
	for iter := 0; iter < maxNewtonIter; iter++ {
		hit := p.Add(d.Scale(t))
		r2 := hit.X.Square().Add(hit.Y.Square())
		g := hit.Z.Sub(surf.Sag(r2))
		if math.Abs(g.Val) < newtonTol {
			return t, nil
		}
		dg := d.Z.Sub(surf.SagDeriv(r2).Mul(hit.X.Mul(d.X).Add(hit.Y.Mul(d.Y))).MulFloat(2))
		if math.Abs(dg.Val) < 1e-14 {
			return t, ErrRayMiss
		}
		t = t.Sub(g.Div(dg))
	}
	return t, ErrNoConvergence
}

// surfaceNormal is the unit normal at a vertex-local hit point, oriented
// toward +z.
func surfaceNormal(surf optics.Surface, hit optics.Vec) optics.Vec {
	r2 := hit.X.Square().Add(hit.Y.Square())
	sp := surf.SagDeriv(r2)
	grad := optics.Vec{
		X: hit.X.Mul(sp).MulFloat(-2),
		Y: hit.Y.Mul(sp).MulFloat(-2),
		Z: autodiff.Const(1),
	}
	return grad.Unit()
}

// refract bends a unit direction by Snell's law in vector form. The normal
// must oppose the incident direction (d·m < 0).
func refract(d, m optics.Vec, n1, n2 autodiff.Jet) (optics.Vec, error) {
	mu := n1.Div(n2)
	ci := d.Dot(m).Neg()
	s2 := mu.Square().Mul(autodiff.Const(1).Sub(ci.Square()))
	if s2.Val > 1 {
		return optics.Vec{}, ErrTotalInternalReflection
	}
	ct := autodiff.Const(1).Sub(s2).Sqrt()
	return d.Scale(mu).Add(m.Scale(mu.Mul(ci).Sub(ct))), nil
}

func reflect(d, m optics.Vec) optics.Vec {
	return d.Sub(m.Scale(d.Dot(m).MulFloat(2)))
}
