package bonesync

import (
	"testing"
	"time"

	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/vmath"
)

func testClock() *clock.ManualClock {
	return clock.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func poseAt(x float64) vmath.Transform {
	t := vmath.IdentityTransform()
	t.Position = vmath.Vec3{X: x}
	return t
}

// First observation of an unknown bone starts tracking and returns true
// without counting as a change
func TestShouldUpdateUnknownBone(t *testing.T) {
	tr := NewTracker(DefaultThresholds(), testClock())

	if !tr.ShouldUpdate("spine", poseAt(1)) {
		t.Error("Expected true for first observation of unknown bone")
	}

	info, ok := tr.Info("spine")
	if !ok {
		t.Fatal("Expected tracking info after auto-provisioning")
	}
	if info.ChangeCount != 0 {
		t.Errorf("Expected ChangeCount 0 after first observation, got %d", info.ChangeCount)
	}
	if info.LastTransform.Position.X != 1 {
		t.Errorf("Expected baseline position 1, got %v", info.LastTransform.Position.X)
	}
}

func TestShouldUpdateBelowThreshold(t *testing.T) {
	tr := NewTracker(Thresholds{Position: 0.1, Rotation: 0.1, Scale: 0.1}, testClock())
	tr.StartTracking("spine", poseAt(0))

	if tr.ShouldUpdate("spine", poseAt(0.05)) {
		t.Error("Expected false for sub-threshold move")
	}

	info, _ := tr.Info("spine")
	if info.ChangeCount != 0 {
		t.Errorf("Expected ChangeCount unchanged at 0, got %d", info.ChangeCount)
	}
	if info.LastTransform.Position.X != 0 {
		t.Error("Baseline must not advance on a false result")
	}
}

func TestShouldUpdateAnyChannelExceeds(t *testing.T) {
	tr := NewTracker(Thresholds{Position: 0.1, Rotation: 0.1, Scale: 0.1}, testClock())
	tr.StartTracking("spine", vmath.IdentityTransform())

	// Position and scale still, rotation over threshold
	cur := vmath.IdentityTransform()
	cur.Rotation = vmath.Vec3{Z: 0.2}

	if !tr.ShouldUpdate("spine", cur) {
		t.Error("Expected true when one channel exceeds its threshold")
	}

	info, _ := tr.Info("spine")
	if info.ChangeCount != 1 {
		t.Errorf("Expected ChangeCount 1, got %d", info.ChangeCount)
	}
	if info.LastTransform.Rotation.Z != 0.2 {
		t.Error("Baseline must advance on a true result")
	}
	if info.TotalDelta == 0 {
		t.Error("Expected TotalDelta to accumulate")
	}
}

func TestStartTrackingResetsBookkeeping(t *testing.T) {
	tr := NewTracker(DefaultThresholds(), testClock())
	tr.StartTracking("spine", poseAt(0))
	tr.ShouldUpdate("spine", poseAt(5))

	tr.StartTracking("spine", poseAt(5))
	info, _ := tr.Info("spine")
	if info.ChangeCount != 0 {
		t.Errorf("Expected re-tracking to reset ChangeCount, got %d", info.ChangeCount)
	}
}

func TestStopTracking(t *testing.T) {
	tr := NewTracker(DefaultThresholds(), testClock())
	tr.StartTracking("spine", poseAt(0))
	tr.StopTracking("spine")

	if _, ok := tr.Info("spine"); ok {
		t.Error("Expected no info after StopTracking")
	}
	// No-op on absent bone
	tr.StopTracking("spine")
}

func TestForceUpdateBypassesThresholds(t *testing.T) {
	tr := NewTracker(Thresholds{Position: 10, Rotation: 10, Scale: 10}, testClock())
	tr.StartTracking("spine", poseAt(0))

	tr.ForceUpdate("spine", poseAt(0.001))

	info, _ := tr.Info("spine")
	if info.ChangeCount != 1 {
		t.Errorf("Expected forced update to count, got %d", info.ChangeCount)
	}
	if info.LastTransform.Position.X != 0.001 {
		t.Error("Expected forced update to advance baseline")
	}
}

func TestDelta(t *testing.T) {
	tr := NewTracker(DefaultThresholds(), testClock())

	if _, ok := tr.Delta("unknown", poseAt(1)); ok {
		t.Error("Expected false for unknown bone")
	}

	tr.StartTracking("spine", poseAt(0))
	d, ok := tr.Delta("spine", poseAt(3))
	if !ok {
		t.Fatal("Expected delta for tracked bone")
	}
	if d.Position != 3 {
		t.Errorf("Expected position delta 3, got %v", d.Position)
	}
	if d.Rotation != 0 || d.Scale != 0 {
		t.Error("Expected zero rotation/scale delta")
	}
}

func TestInfoDefensiveCopy(t *testing.T) {
	tr := NewTracker(DefaultThresholds(), testClock())
	tr.StartTracking("spine", poseAt(0))

	info, _ := tr.Info("spine")
	info.ChangeCount = 99
	info.LastTransform.Position.X = 99

	again, _ := tr.Info("spine")
	if again.ChangeCount != 0 || again.LastTransform.Position.X != 0 {
		t.Error("Info must return a copy, not internal state")
	}
}

func TestUpdateThresholdsPartialMerge(t *testing.T) {
	tr := NewTracker(Thresholds{Position: 0.1, Rotation: 0.2, Scale: 0.3}, testClock())

	newPos := 5.0
	tr.UpdateThresholds(ThresholdPatch{Position: &newPos})

	th := tr.Thresholds()
	if th.Position != 5.0 {
		t.Errorf("Expected position threshold 5.0, got %v", th.Position)
	}
	if th.Rotation != 0.2 || th.Scale != 0.3 {
		t.Error("Expected unpatched thresholds to keep current values")
	}

	// Raised threshold gates from the next call onward
	tr.StartTracking("spine", poseAt(0))
	if tr.ShouldUpdate("spine", poseAt(1)) {
		t.Error("Expected move below raised threshold to be ignored")
	}
}

func TestTrackerStatsWindow(t *testing.T) {
	clk := testClock()
	tr := NewTracker(Thresholds{}, clk)
	tr.StartTracking("a", poseAt(0))

	tr.ShouldUpdate("a", poseAt(1))
	tr.ShouldUpdate("a", poseAt(2))

	stats := tr.Stats()
	if stats.TrackedBones != 1 {
		t.Errorf("Expected 1 tracked bone, got %d", stats.TrackedBones)
	}
	if stats.TotalUpdates != 2 {
		t.Errorf("Expected 2 total updates, got %d", stats.TotalUpdates)
	}
	if stats.UpdatesLastSecond != 2 {
		t.Errorf("Expected 2 updates in window, got %d", stats.UpdatesLastSecond)
	}
	if stats.MemoryEstimate <= 0 {
		t.Error("Expected non-zero memory estimate")
	}

	// Window slides: after 2s the recent count empties, total is monotonic
	clk.Advance(2 * time.Second)
	stats = tr.Stats()
	if stats.UpdatesLastSecond != 0 {
		t.Errorf("Expected empty window after 2s, got %d", stats.UpdatesLastSecond)
	}
	if stats.TotalUpdates != 2 {
		t.Errorf("Expected TotalUpdates to stay 2, got %d", stats.TotalUpdates)
	}
}
