package math

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRodriguesZero(t *testing.T) {
	r := Rodrigues(mgl64.Vec3{})
	if r != mgl64.Ident3() {
		t.Errorf("Rodrigues(0) = %v, want identity", r)
	}
}

func TestRodriguesQuarterTurnZ(t *testing.T) {
	r := Rodrigues(mgl64.Vec3{0, 0, gomath.Pi / 2})
	got := r.Mul3x1(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{0, 1, 0}
	if !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("Rz(90°)·x = %v, want %v", got, want)
	}
}

func TestRodriguesMatchesAxisRotations(t *testing.T) {
	tests := []struct {
		name string
		vec  mgl64.Vec3
		want mgl64.Mat3
	}{
		{"x", mgl64.Vec3{0.3, 0, 0}, mgl64.Rotate3DX(0.3)},
		{"y", mgl64.Vec3{0, -1.1, 0}, mgl64.Rotate3DY(-1.1)},
		{"z", mgl64.Vec3{0, 0, 2.5}, mgl64.Rotate3DZ(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rodrigues(tt.vec)
			if !got.ApproxEqualThreshold(tt.want, 1e-12) {
				t.Errorf("Rodrigues(%v) = %v, want %v", tt.vec, got, tt.want)
			}
		})
	}
}

func TestRodriguesIsOrthonormal(t *testing.T) {
	r := Rodrigues(mgl64.Vec3{0.4, -0.7, 1.3})

	if !r.Mul3(r.Transpose()).ApproxEqualThreshold(mgl64.Ident3(), 1e-12) {
		t.Error("R·Rᵀ should be identity")
	}
	if det := r.Det(); gomath.Abs(det-1) > 1e-12 {
		t.Errorf("det(R) = %v, want 1", det)
	}
}

func TestSkewMatchesCross(t *testing.T) {
	k := mgl64.Vec3{1, 2, 3}
	v := mgl64.Vec3{-4, 0.5, 7}
	if got, want := Skew(k).Mul3x1(v), k.Cross(v); got != want {
		t.Errorf("Skew(k)·v = %v, want %v", got, want)
	}
}
