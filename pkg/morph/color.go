package morph

// TruncateUint8 clamps v to [0, 255] and truncates it to an integer channel value.
// NaN maps to 0.
func TruncateUint8(v float64) uint8 {
	switch {
	case v > 255:
		return 255
	case v >= 0:
		return uint8(v)
	default:
		return 0
	}
}
