// Package bonesync bridges an external skeletal animation source to
// collision shapes: per-bone change detection, priority-batched shape
// updates, and strategy-gated propagation. All entry points run inside
// the host's per-frame tick and degrade by skip/drop/count, never by
// returning errors
package bonesync

import (
	"time"

	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/parameter"
	"github.com/lixenwraith/bone-collider/vmath"
)

// Thresholds is the global per-channel change gate. A bone transform
// counts as changed when any channel delta exceeds its threshold
type Thresholds struct {
	Position float64
	Rotation float64
	Scale    float64
}

// DefaultThresholds returns the standard detection thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		Position: parameter.PositionThreshold,
		Rotation: parameter.RotationThreshold,
		Scale:    parameter.ScaleThreshold,
	}
}

// ThresholdPatch is a sparse threshold overlay; nil fields keep the
// current value
type ThresholdPatch struct {
	Position *float64 `yaml:"position"`
	Rotation *float64 `yaml:"rotation"`
	Scale    *float64 `yaml:"scale"`
}

// TrackingInfo is the per-bone bookkeeping entry. Exists iff the bone is
// currently tracked
type TrackingInfo struct {
	BoneName      string
	LastTransform vmath.Transform
	LastUpdate    time.Time
	// ChangeCount counts threshold-passing updates since tracking started
	ChangeCount int
	// TotalDelta accumulates summed channel deltas of counted updates
	TotalDelta float64
}

// TrackerStats is an advisory snapshot
type TrackerStats struct {
	TrackedBones int
	TotalUpdates uint64
	// UpdatesLastSecond counts recorded updates in the trailing window
	UpdatesLastSecond int
	MemoryEstimate    int
}

// Tracker decides whether a new bone transform differs enough from the
// last recorded one to warrant downstream propagation
type Tracker struct {
	clk        clock.Clock
	thresholds Thresholds
	bones      map[string]*TrackingInfo

	totalUpdates uint64
	recent       []time.Time
}

// NewTracker creates a tracker with the given thresholds. A nil clock
// uses the system clock
func NewTracker(thresholds Thresholds, clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Tracker{
		clk:        clk,
		thresholds: thresholds,
		bones:      make(map[string]*TrackingInfo),
	}
}

// StartTracking (re)creates the entry for a bone with the given baseline.
// Calling it on an already-tracked bone resets its bookkeeping
func (t *Tracker) StartTracking(bone string, initial vmath.Transform) {
	t.bones[bone] = &TrackingInfo{
		BoneName:      bone,
		LastTransform: initial,
		LastUpdate:    t.clk.Now(),
	}
}

// StopTracking removes the entry. No-op if absent
func (t *Tracker) StopTracking(bone string) {
	delete(t.bones, bone)
}

// Tracked reports whether a bone has a tracking entry
func (t *Tracker) Tracked(bone string) bool {
	_, ok := t.bones[bone]
	return ok
}

// ShouldUpdate reports whether current differs enough from the recorded
// baseline. An unknown bone is auto-provisioned and always counts: the
// first observation returns true without incrementing ChangeCount.
// Bookkeeping advances only on a true result
func (t *Tracker) ShouldUpdate(bone string, current vmath.Transform) bool {
	info, ok := t.bones[bone]
	if !ok {
		t.StartTracking(bone, current)
		return true
	}

	delta := vmath.DeltaBetween(info.LastTransform, current)
	if delta.Position <= t.thresholds.Position &&
		delta.Rotation <= t.thresholds.Rotation &&
		delta.Scale <= t.thresholds.Scale {
		return false
	}

	t.record(info, current, delta)
	return true
}

// ForceUpdate refreshes bookkeeping unconditionally, bypassing thresholds.
// Auto-provisions unknown bones
func (t *Tracker) ForceUpdate(bone string, current vmath.Transform) {
	info, ok := t.bones[bone]
	if !ok {
		t.StartTracking(bone, current)
		return
	}
	t.record(info, current, vmath.DeltaBetween(info.LastTransform, current))
}

func (t *Tracker) record(info *TrackingInfo, current vmath.Transform, delta vmath.TransformDelta) {
	now := t.clk.Now()
	info.LastTransform = current
	info.LastUpdate = now
	info.ChangeCount++
	info.TotalDelta += delta.Total()

	t.totalUpdates++
	t.recent = append(t.recent, now)
	t.pruneRecent(now)
}

// Delta returns per-channel distances from the recorded baseline to
// current. False for unknown bones; pure read
func (t *Tracker) Delta(bone string, current vmath.Transform) (vmath.TransformDelta, bool) {
	info, ok := t.bones[bone]
	if !ok {
		return vmath.TransformDelta{}, false
	}
	return vmath.DeltaBetween(info.LastTransform, current), true
}

// Info returns a defensive copy of a bone's tracking entry
func (t *Tracker) Info(bone string) (TrackingInfo, bool) {
	info, ok := t.bones[bone]
	if !ok {
		return TrackingInfo{}, false
	}
	return *info, true
}

// UpdateThresholds merges a sparse patch into the global config,
// affecting all bones from the next call onward
func (t *Tracker) UpdateThresholds(patch ThresholdPatch) {
	if patch.Position != nil {
		t.thresholds.Position = *patch.Position
	}
	if patch.Rotation != nil {
		t.thresholds.Rotation = *patch.Rotation
	}
	if patch.Scale != nil {
		t.thresholds.Scale = *patch.Scale
	}
}

// Thresholds returns the current global thresholds
func (t *Tracker) Thresholds() Thresholds {
	return t.thresholds
}

func (t *Tracker) pruneRecent(now time.Time) {
	cutoff := now.Add(-parameter.TrackerRateWindow)
	idx := 0
	for idx < len(t.recent) && t.recent[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		t.recent = append(t.recent[:0], t.recent[idx:]...)
	}
}

// Stats returns an advisory snapshot
func (t *Tracker) Stats() TrackerStats {
	t.pruneRecent(t.clk.Now())
	return TrackerStats{
		TrackedBones:      len(t.bones),
		TotalUpdates:      t.totalUpdates,
		UpdatesLastSecond: len(t.recent),
		MemoryEstimate:    len(t.bones) * parameter.BytesPerTrackedBone,
	}
}
