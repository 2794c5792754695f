// Package math provides the small amount of 3D geometry the reconstruction needs:
// axis-angle rotations and rigid transforms over point sets.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl64"
)

// epsilon is the smallest rotation angle treated as a real rotation.
const epsilon = 2.220446049250313e-16

// Skew returns the cross-product matrix [k]x, so that Skew(k).Mul3x1(v) == k.Cross(v).
func Skew(k mgl64.Vec3) mgl64.Mat3 {
	// mgl64 matrices are column-major.
	return mgl64.Mat3{
		0, k[2], -k[1],
		-k[2], 0, k[0],
		k[1], -k[0], 0,
	}
}

// Rodrigues converts an axis-angle rotation vector into a 3x3 rotation matrix.
// The vector's direction is the rotation axis and its length the angle in radians.
//
//	R = I + sin(θ)[k]x + (1 - cos(θ))[k]x²
//
// A zero vector yields the identity.
func Rodrigues(r mgl64.Vec3) mgl64.Mat3 {
	theta := r.Len()
	if theta < epsilon {
		return mgl64.Ident3()
	}

	k := Skew(r.Mul(1 / theta))
	s, c := gomath.Sin(theta), gomath.Cos(theta)

	return mgl64.Ident3().
		Add(k.Mul(s)).
		Add(k.Mul3(k).Mul(1 - c))
}
