package bonesync

import (
	"math"

	"github.com/lixenwraith/bone-collider/vmath"
)

// SyntheticBone describes one oscillating bone in a synthetic rig
type SyntheticBone struct {
	Name string
	Base vmath.Transform
	// Amplitude is the positional oscillation extent per axis
	Amplitude vmath.Vec3
	// Frequency is the oscillation rate in Hz
	Frequency float64
	// Spin is the rotation rate in radians per second per axis
	Spin vmath.Vec3
}

// SyntheticBoneSource is a deterministic BoneSource for sandboxes and
// tests: bones oscillate around their base pose as a pure function of
// the advanced clock
type SyntheticBoneSource struct {
	bones map[string]SyntheticBone
	time  float64
}

// NewSyntheticBoneSource creates a source from a bone set
func NewSyntheticBoneSource(bones []SyntheticBone) *SyntheticBoneSource {
	m := make(map[string]SyntheticBone, len(bones))
	for _, b := range bones {
		if b.Base.Scale == (vmath.Vec3{}) {
			b.Base.Scale = vmath.V3Splat(1)
		}
		m[b.Name] = b
	}
	return &SyntheticBoneSource{bones: m}
}

// Advance moves the animation clock forward by dt seconds
func (s *SyntheticBoneSource) Advance(dt float64) {
	s.time += dt
}

// SetTime sets the animation clock
func (s *SyntheticBoneSource) SetTime(t float64) {
	s.time = t
}

// CurrentTime implements BoneSource
func (s *SyntheticBoneSource) CurrentTime() float64 {
	return s.time
}

// BoneTransform implements BoneSource
func (s *SyntheticBoneSource) BoneTransform(name string) (vmath.Transform, bool) {
	b, ok := s.bones[name]
	if !ok {
		return vmath.Transform{}, false
	}

	phase := 2 * math.Pi * b.Frequency * s.time
	wave := math.Sin(phase)

	return vmath.Transform{
		Position: vmath.V3Add(b.Base.Position, vmath.V3Scale(b.Amplitude, wave)),
		Rotation: vmath.V3Add(b.Base.Rotation, vmath.V3Scale(b.Spin, s.time)),
		Scale:    b.Base.Scale,
	}, true
}
