package math

import "github.com/go-gl/mathgl/mgl64"

// RigidTransform is a rotation followed by a translation.
type RigidTransform struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// NewRigidTransform builds a transform from an axis-angle rotation vector and a translation.
func NewRigidTransform(rotation, translation mgl64.Vec3) RigidTransform {
	return RigidTransform{
		Rotation:    Rodrigues(rotation),
		Translation: translation,
	}
}

// TransformPoint returns R·p + t.
func (rt RigidTransform) TransformPoint(p [3]float64) [3]float64 {
	return rt.Rotation.Mul3x1(mgl64.Vec3(p)).Add(rt.Translation)
}

// TransformPoints applies the transform to every point and returns a new slice.
// The input is not modified.
func (rt RigidTransform) TransformPoints(points [][3]float64) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = rt.TransformPoint(p)
	}
	return out
}
