package chessfen

import (
	"github.com/golang/geo/r2"
)

// warpSize is the side length of the normalized board image. Each of the 64
// squares covers an 80x80 cell of the warped space.
const warpSize = 640

// Transform is a 3x3 projective matrix mapping one planar coordinate system
// onto another. It is immutable once built.
type Transform struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

// Apply maps a single point through the transform.
func (t *Transform) Apply(p r2.Point) r2.Point {
	den := t.a13*p.X + t.a23*p.Y + t.a33
	if den == 0 {
		// degenerate transform, keep the result finite
		return r2.Point{}
	}
	return r2.Point{
		X: (t.a11*p.X + t.a21*p.Y + t.a31) / den,
		Y: (t.a12*p.X + t.a22*p.Y + t.a32) / den,
	}
}

// times returns t * other.
func (t *Transform) times(other *Transform) *Transform {
	return &Transform{
		a11: t.a11*other.a11 + t.a21*other.a12 + t.a31*other.a13,
		a21: t.a11*other.a21 + t.a21*other.a22 + t.a31*other.a23,
		a31: t.a11*other.a31 + t.a21*other.a32 + t.a31*other.a33,
		a12: t.a12*other.a11 + t.a22*other.a12 + t.a32*other.a13,
		a22: t.a12*other.a21 + t.a22*other.a22 + t.a32*other.a23,
		a32: t.a12*other.a31 + t.a22*other.a32 + t.a32*other.a33,
		a13: t.a13*other.a11 + t.a23*other.a12 + t.a33*other.a13,
		a23: t.a13*other.a21 + t.a23*other.a22 + t.a33*other.a23,
		a33: t.a13*other.a31 + t.a23*other.a32 + t.a33*other.a33,
	}
}

// adjoint returns the transpose of the cofactor matrix. For a projective
// transform, which is only defined up to scale, this is its inverse.
func (t *Transform) adjoint() *Transform {
	return &Transform{
		a11: t.a22*t.a33 - t.a23*t.a32,
		a21: t.a23*t.a31 - t.a21*t.a33,
		a31: t.a21*t.a32 - t.a22*t.a31,
		a12: t.a13*t.a32 - t.a12*t.a33,
		a22: t.a11*t.a33 - t.a13*t.a31,
		a32: t.a12*t.a31 - t.a11*t.a32,
		a13: t.a12*t.a23 - t.a13*t.a22,
		a23: t.a13*t.a21 - t.a11*t.a23,
		a33: t.a11*t.a22 - t.a12*t.a21,
	}
}

// squareToQuad maps the unit square (0,0),(1,0),(1,1),(0,1) onto the
// quadrilateral q, given in [TL, TR, BR, BL] order.
func squareToQuad(q [4]r2.Point) *Transform {
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y
	if dx3 == 0 && dy3 == 0 {
		// affine case
		return &Transform{
			a11: q[1].X - q[0].X, a21: q[2].X - q[1].X, a31: q[0].X,
			a12: q[1].Y - q[0].Y, a22: q[2].Y - q[1].Y, a32: q[0].Y,
			a13: 0, a23: 0, a33: 1,
		}
	}
	dx1 := q[1].X - q[2].X
	dx2 := q[3].X - q[2].X
	dy1 := q[1].Y - q[2].Y
	dy2 := q[3].Y - q[2].Y
	den := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return &Transform{
		a11: q[1].X - q[0].X + a13*q[1].X, a21: q[3].X - q[0].X + a23*q[3].X, a31: q[0].X,
		a12: q[1].Y - q[0].Y + a13*q[1].Y, a22: q[3].Y - q[0].Y + a23*q[3].Y, a32: q[0].Y,
		a13: a13, a23: a23, a33: 1,
	}
}

// QuadToQuad builds the transform mapping the source quadrilateral onto the
// destination quadrilateral. Both are given in [TL, TR, BR, BL] order, and
// exactly 4 correspondences fully determine the 8 degrees of freedom.
func QuadToQuad(src, dst [4]r2.Point) *Transform {
	return squareToQuad(dst).times(squareToQuad(src).adjoint())
}

// boardDestQuad is the corner layout of the normalized board:
// (0,0),(639,0),(639,639),(0,639).
func boardDestQuad() [4]r2.Point {
	return [4]r2.Point{
		{X: 0, Y: 0},
		{X: warpSize - 1, Y: 0},
		{X: warpSize - 1, Y: warpSize - 1},
		{X: 0, Y: warpSize - 1},
	}
}
