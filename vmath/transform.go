package vmath

// Transform is a position/rotation/scale triple
// Rotation is Euler radians per axis; deltas over rotation are plain
// component distance, not wrap-aware angular distance
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// IdentityTransform returns a zero pose with unit scale
func IdentityTransform() Transform {
	return Transform{Scale: V3Splat(1)}
}

// TransformDelta holds per-channel Euclidean distances between two transforms
type TransformDelta struct {
	Position float64
	Rotation float64
	Scale    float64
}

// DeltaBetween computes per-channel distances from old to new
func DeltaBetween(old, new Transform) TransformDelta {
	return TransformDelta{
		Position: V3Dist(old.Position, new.Position),
		Rotation: V3Dist(old.Rotation, new.Rotation),
		Scale:    V3Dist(old.Scale, new.Scale),
	}
}

// Total returns the summed channel deltas, used for accumulated-motion stats
func (d TransformDelta) Total() float64 {
	return d.Position + d.Rotation + d.Scale
}

// ComposeOffset applies a local offset to a base pose:
// position and rotation add, scale multiplies component-wise
func ComposeOffset(base, offset Transform) Transform {
	return Transform{
		Position: V3Add(base.Position, offset.Position),
		Rotation: V3Add(base.Rotation, offset.Rotation),
		Scale:    V3MulComp(base.Scale, offset.Scale),
	}
}
