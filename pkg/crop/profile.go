package crop

import "fmt"

// Profile scales half the box size per side when expanding the crop window:
// [left, top, right, bottom].
type Profile [4]float64

// Rescale profiles for the two box sources the regressor was trained on.
var (
	// DetectorProfile suits face detector boxes.
	DetectorProfile = Profile{1.785974, 1.951171, 1.835600, 1.670403}
	// LandmarkProfile suits boxes enclosing facial landmarks.
	LandmarkProfile = Profile{1.9255, 2.2591, 1.9423, 1.6087}
	// UnitProfile expands each side by exactly half the box size.
	UnitProfile = Profile{1, 1, 1, 1}
)

// String returns the four factors.
func (p Profile) String() string {
	return fmt.Sprintf("[%g %g %g %g]", p[0], p[1], p[2], p[3])
}

// Validate checks that every factor is positive.
func (p Profile) Validate() error {
	for i, f := range p {
		if !(f > 0) {
			return fmt.Errorf("rescale factor %d must be positive, got %g", i, f)
		}
	}
	return nil
}

// ProfileByName returns a named profile: "detector", "landmark" or "unit".
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "detector", "bb":
		return DetectorProfile, nil
	case "landmark", "landmarks", "casia":
		return LandmarkProfile, nil
	case "unit":
		return UnitProfile, nil
	default:
		return Profile{}, fmt.Errorf("unknown rescale profile %q", name)
	}
}
