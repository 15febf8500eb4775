package bonesync

import (
	"fmt"
	"testing"
	"time"

	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/vmath"
)

func testBatcher(opts BatcherOptions) (*Batcher, *collision.ShapeArena, *clock.ManualClock) {
	clk := testClock()
	arena := collision.NewShapeArena()
	return NewBatcher(opts, arena, clk), arena, clk
}

func positionUpdate(x float64) ShapeUpdate {
	return ShapeUpdate{
		Transform:     vmath.Transform{Position: vmath.Vec3{X: x}, Scale: vmath.V3Splat(1)},
		ApplyPosition: true,
	}
}

func TestScheduleUpdateUpsert(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	b.ScheduleUpdate("u1", h, positionUpdate(1), 0)
	b.ScheduleUpdate("u1", h, positionUpdate(2), 5)

	if got := b.Stats().PendingUpdates; got != 1 {
		t.Fatalf("Expected 1 pending after upsert, got %d", got)
	}

	b.ProcessBatch(1.0)
	if shape.Position.X != 2 {
		t.Errorf("Expected later transform to win, got position %v", shape.Position.X)
	}
}

func TestProcessBatchWaitsForInterval(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: 100 * time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)
	b.ScheduleUpdate("u1", h, positionUpdate(1), 0)

	b.ProcessBatch(0.05)
	if shape.Position.X != 0 {
		t.Error("Expected no flush before a full interval accumulated")
	}

	b.ProcessBatch(0.06)
	if shape.Position.X != 1 {
		t.Error("Expected flush once accumulated dt crossed the interval")
	}
}

func TestProcessBatchRespectsMaxBatchSize(t *testing.T) {
	const n, k = 4, 3
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Millisecond, MaxBatchSize: n})

	for i := 0; i < n+k; i++ {
		shape := arena.Add(collision.NewShape("s"))
		b.ScheduleUpdate(fmt.Sprintf("u%d", i), shape, positionUpdate(1), 0)
	}

	b.ProcessBatch(1.0)
	if got := b.Stats().PendingUpdates; got != k {
		t.Errorf("Expected %d left pending, got %d", k, got)
	}
	if got := b.Stats().ProcessedUpdates; got != n {
		t.Errorf("Expected %d processed, got %d", n, got)
	}

	b.ProcessBatch(1.0)
	if got := b.Stats().PendingUpdates; got != 0 {
		t.Errorf("Expected remainder consumed next cycle, got %d pending", got)
	}
}

func TestPriorityOrderAndTieBreak(t *testing.T) {
	b, arena, clk := testBatcher(BatcherOptions{BatchInterval: time.Millisecond})
	shape := collision.NewShape("target")
	h := arena.Add(shape)

	// Same shape, distinct ids: apply order is observable through the
	// final position. Higher priority applies first, so the lowest
	// priority entry lands last
	b.ScheduleUpdate("high", h, positionUpdate(1), 10)
	clk.Advance(time.Millisecond)
	b.ScheduleUpdate("low", h, positionUpdate(2), 1)

	b.ProcessBatch(1.0)
	if shape.Position.X != 2 {
		t.Errorf("Expected low-priority entry applied last, got %v", shape.Position.X)
	}

	// Equal priority: earlier submission applies first, latest wins the slot
	b.ScheduleUpdate("early", h, positionUpdate(3), 5)
	clk.Advance(time.Millisecond)
	b.ScheduleUpdate("late", h, positionUpdate(4), 5)

	b.ProcessBatch(1.0)
	if shape.Position.X != 4 {
		t.Errorf("Expected later-submitted tie entry applied last, got %v", shape.Position.X)
	}
}

func TestTimeoutDropsStaleUpdate(t *testing.T) {
	b, arena, clk := testBatcher(BatcherOptions{
		BatchInterval: time.Millisecond,
		UpdateTimeout: 50 * time.Millisecond,
	})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	b.ScheduleUpdate("u1", h, positionUpdate(9), 0)
	clk.Advance(100 * time.Millisecond)

	b.ProcessBatch(1.0)
	if shape.Position.X != 0 {
		t.Error("Stale update must never be applied")
	}
	stats := b.Stats()
	if stats.DroppedUpdates != 1 {
		t.Errorf("Expected 1 dropped, got %d", stats.DroppedUpdates)
	}
	if stats.PendingUpdates != 0 {
		t.Error("Dropped entry must leave the pending set")
	}
}

func TestCancelUpdate(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	b.ScheduleUpdate("u1", h, positionUpdate(1), 0)
	b.CancelUpdate("u1")
	b.CancelUpdate("missing")

	b.ProcessBatch(1.0)
	if shape.Position.X != 0 {
		t.Error("Cancelled update must not apply")
	}
}

func TestProcessImmediately(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Hour})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	b.ScheduleUpdate("u1", h, positionUpdate(7), 0)
	if !b.ProcessImmediately("u1") {
		t.Fatal("Expected true for pending id")
	}
	if shape.Position.X != 7 {
		t.Error("Expected immediate apply outside batch timing")
	}
	if b.ProcessImmediately("u1") {
		t.Error("Expected false for already-applied id")
	}
}

func TestFlushAllIgnoresBatchSize(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Hour, MaxBatchSize: 1})

	shapes := make([]*collision.Shape, 5)
	for i := range shapes {
		shapes[i] = collision.NewShape("s")
		h := arena.Add(shapes[i])
		b.ScheduleUpdate(fmt.Sprintf("u%d", i), h, positionUpdate(1), 0)
	}

	b.FlushAll()
	for i, s := range shapes {
		if s.Position.X != 1 {
			t.Errorf("Shape %d not applied by FlushAll", i)
		}
	}
	if got := b.Stats().PendingUpdates; got != 0 {
		t.Errorf("Expected empty pending set, got %d", got)
	}
}

func TestRemovedShapeIsDropped(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	b.ScheduleUpdate("u1", h, positionUpdate(3), 0)
	arena.Remove(h)

	b.ProcessBatch(1.0)
	if shape.Position.X != 0 {
		t.Error("Update must not reach a removed shape")
	}
	if got := b.Stats().DroppedUpdates; got != 1 {
		t.Errorf("Expected dead-handle drop counted, got %d", got)
	}
}

func TestApplyFlags(t *testing.T) {
	b, arena, _ := testBatcher(BatcherOptions{BatchInterval: time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	payload := ShapeUpdate{
		Transform: vmath.Transform{
			Position: vmath.Vec3{X: 1},
			Rotation: vmath.Vec3{Y: 2},
			Scale:    vmath.V3Splat(3),
		},
		ApplyRotation: true,
	}
	b.ScheduleUpdate("u1", h, payload, 0)
	b.ProcessBatch(1.0)

	if shape.Position.X != 0 {
		t.Error("Position flag off: position must not change")
	}
	if shape.Rotation.Y != 2 {
		t.Error("Rotation flag on: rotation must be written")
	}
	if shape.Scale.X != 1 {
		t.Error("Scale flag off: scale must not change")
	}
}

func TestBatcherRollingStats(t *testing.T) {
	b, arena, clk := testBatcher(BatcherOptions{BatchInterval: 10 * time.Millisecond})
	shape := collision.NewShape("hand")
	h := arena.Add(shape)

	for i := 0; i < 3; i++ {
		b.ScheduleUpdate("u1", h, positionUpdate(float64(i)), 0)
		b.ProcessBatch(0.02)
		clk.Advance(20 * time.Millisecond)
	}

	stats := b.Stats()
	if stats.AvgBatchSize != 1 {
		t.Errorf("Expected average batch size 1, got %v", stats.AvgBatchSize)
	}
	if stats.BatchesPerSecond <= 0 {
		t.Errorf("Expected positive batches-per-second, got %v", stats.BatchesPerSecond)
	}
}
