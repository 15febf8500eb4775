package vmath

import (
	"math"
	"testing"
)

func TestV3Basics(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 6, Z: 8}

	if got := V3Add(a, b); got != (Vec3{X: 5, Y: 8, Z: 11}) {
		t.Errorf("V3Add wrong: %v", got)
	}
	if got := V3Dist(a, b); got != math.Sqrt(9+16+25) {
		t.Errorf("V3Dist wrong: %v", got)
	}
	if got := V3MulComp(a, b); got != (Vec3{X: 4, Y: 12, Z: 24}) {
		t.Errorf("V3MulComp wrong: %v", got)
	}
	if got := V3Normalize(Vec3{}); got != (Vec3{}) {
		t.Errorf("Expected zero vector normalized to zero, got %v", got)
	}
}

func TestDeltaBetween(t *testing.T) {
	old := IdentityTransform()
	cur := Transform{
		Position: Vec3{X: 3, Y: 4},
		Rotation: Vec3{Z: 2},
		Scale:    V3Splat(1),
	}

	d := DeltaBetween(old, cur)
	if d.Position != 5 {
		t.Errorf("Expected position delta 5, got %v", d.Position)
	}
	if d.Rotation != 2 {
		t.Errorf("Expected rotation delta 2, got %v", d.Rotation)
	}
	if d.Scale != 0 {
		t.Errorf("Expected scale delta 0, got %v", d.Scale)
	}
	if d.Total() != 7 {
		t.Errorf("Expected total 7, got %v", d.Total())
	}
}

// Rotation delta is component distance, deliberately not wrap-aware:
// poses at +pi and -pi are maximally distant, not equal
func TestRotationDeltaNotWrapAware(t *testing.T) {
	old := Transform{Rotation: Vec3{Z: math.Pi}, Scale: V3Splat(1)}
	cur := Transform{Rotation: Vec3{Z: -math.Pi}, Scale: V3Splat(1)}

	d := DeltaBetween(old, cur)
	if d.Rotation != 2*math.Pi {
		t.Errorf("Expected raw component distance 2pi, got %v", d.Rotation)
	}
}

func TestComposeOffset(t *testing.T) {
	base := Transform{
		Position: Vec3{X: 1},
		Rotation: Vec3{Z: 0.5},
		Scale:    V3Splat(2),
	}
	offset := Transform{
		Position: Vec3{Y: 3},
		Rotation: Vec3{Z: 0.5},
		Scale:    V3Splat(4),
	}

	got := ComposeOffset(base, offset)
	if got.Position != (Vec3{X: 1, Y: 3}) {
		t.Errorf("Expected position added, got %v", got.Position)
	}
	if got.Rotation.Z != 1 {
		t.Errorf("Expected rotation added, got %v", got.Rotation.Z)
	}
	if got.Scale != V3Splat(8) {
		t.Errorf("Expected scale multiplied, got %v", got.Scale)
	}
}
