package morph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/morphface/pkg/math"
)

// PoseTransform converts raw pose parameters [rx, ry, rz, tx, ty, tz] into a
// rigid transform.
//
// The regressor's axes differ from the model's: ry, rz and tx are negated
// before use. Changing this flips the reconstructed geometry.
func PoseTransform(pose []float64) (math.RigidTransform, error) {
	if len(pose) < PoseLength {
		return math.RigidTransform{}, fmt.Errorf("%w: pose vector has %d values, need %d", ErrInvalidParameterLength, len(pose), PoseLength)
	}

	rotation := mgl64.Vec3{pose[0], -pose[1], -pose[2]}
	translation := mgl64.Vec3{-pose[3], pose[4], pose[5]}

	return math.NewRigidTransform(rotation, translation), nil
}

// ApplyPose rotates and translates vertices by the pose. The pose and the
// vertices are left unmodified; a new slice is returned.
func ApplyPose(pose []float64, vertices [][3]float64) ([][3]float64, error) {
	rt, err := PoseTransform(pose)
	if err != nil {
		return nil, err
	}
	return rt.TransformPoints(vertices), nil
}
