package bonesync

import (
	"sort"
	"time"

	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/parameter"
	"github.com/lixenwraith/bone-collider/vmath"
)

// ShapeUpdate is the payload applied to a shape: the target transform
// plus which channels to write
type ShapeUpdate struct {
	Transform     vmath.Transform
	ApplyPosition bool
	ApplyRotation bool
	ApplyScale    bool
}

// apply writes the flagged channels of the payload to a shape
func (u ShapeUpdate) apply(s *collision.Shape) {
	if u.ApplyPosition {
		s.Position = u.Transform.Position
	}
	if u.ApplyRotation {
		s.Rotation = u.Transform.Rotation
	}
	if u.ApplyScale {
		s.Scale = u.Transform.Scale
	}
}

// pendingUpdate is one live batcher entry. At most one exists per id;
// re-scheduling overwrites payload, priority, and timestamp
type pendingUpdate struct {
	id        string
	shape     collision.ShapeHandle
	payload   ShapeUpdate
	priority  int
	timestamp time.Time
}

// BatcherOptions configures a Batcher. Zero fields fall back to defaults
type BatcherOptions struct {
	// BatchInterval is the accumulated-dt period between flushes
	BatchInterval time.Duration
	// MaxBatchSize caps entries taken per ProcessBatch trigger
	MaxBatchSize int
	// UpdateTimeout is the pending age beyond which an entry is dropped
	// instead of applied. Deliberate backpressure, not an error
	UpdateTimeout time.Duration
}

// DefaultBatcherOptions returns the standard batching configuration
func DefaultBatcherOptions() BatcherOptions {
	return BatcherOptions{
		BatchInterval: parameter.BatchInterval,
		MaxBatchSize:  parameter.MaxBatchSize,
		UpdateTimeout: parameter.UpdateTimeout,
	}
}

func (o BatcherOptions) normalized() BatcherOptions {
	def := DefaultBatcherOptions()
	if o.BatchInterval <= 0 {
		o.BatchInterval = def.BatchInterval
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = def.MaxBatchSize
	}
	if o.UpdateTimeout <= 0 {
		o.UpdateTimeout = def.UpdateTimeout
	}
	return o
}

// BatcherStats is an advisory snapshot
type BatcherStats struct {
	PendingUpdates   int
	ProcessedUpdates uint64
	DroppedUpdates   uint64
	// Rolling averages over the batch history window
	AvgBatchSize     float64
	AvgBatchDuration time.Duration
	// BatchesPerSecond derives from wall-clock gaps between flushes
	BatchesPerSecond float64
}

type batchRecord struct {
	size     int
	duration time.Duration
	gap      time.Duration
}

// Batcher accumulates shape transform requests and flushes them in
// bounded batches on a fixed cadence, applying priority and staleness
// policy. Single-threaded
type Batcher struct {
	opts  BatcherOptions
	clk   clock.Clock
	arena *collision.ShapeArena

	pending map[string]*pendingUpdate
	accum   time.Duration

	processed uint64
	dropped   uint64
	history   []batchRecord
	lastFlush time.Time
}

// NewBatcher creates a batcher applying updates through the given arena.
// A nil clock uses the system clock
func NewBatcher(opts BatcherOptions, arena *collision.ShapeArena, clk clock.Clock) *Batcher {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Batcher{
		opts:    opts.normalized(),
		clk:     clk,
		arena:   arena,
		pending: make(map[string]*pendingUpdate),
	}
}

// ScheduleUpdate upserts a pending update keyed by id. A second call
// with the same id replaces payload, priority, and timestamp; the
// newest transform always wins
func (b *Batcher) ScheduleUpdate(id string, shape collision.ShapeHandle, payload ShapeUpdate, priority int) {
	if entry, ok := b.pending[id]; ok {
		entry.shape = shape
		entry.payload = payload
		entry.priority = priority
		entry.timestamp = b.clk.Now()
		return
	}
	b.pending[id] = &pendingUpdate{
		id:        id,
		shape:     shape,
		payload:   payload,
		priority:  priority,
		timestamp: b.clk.Now(),
	}
}

// CancelUpdate removes a pending entry if present
func (b *Batcher) CancelUpdate(id string) {
	delete(b.pending, id)
}

// Clear abandons all pending entries without applying them
func (b *Batcher) Clear() {
	b.pending = make(map[string]*pendingUpdate)
}

// ProcessImmediately applies and removes one pending entry outside
// normal batch timing. Returns false if the id is not pending
func (b *Batcher) ProcessImmediately(id string) bool {
	entry, ok := b.pending[id]
	if !ok {
		return false
	}
	delete(b.pending, id)
	b.applyEntry(entry, b.clk.Now())
	return true
}

// ProcessBatch accumulates elapsed time and, once a full batch interval
// has passed, flushes up to MaxBatchSize pending entries by (priority
// descending, timestamp ascending). dt is in seconds
func (b *Batcher) ProcessBatch(dt float64) {
	b.accum += time.Duration(dt * float64(time.Second))
	if b.accum < b.opts.BatchInterval {
		return
	}
	b.accum = 0
	b.flush(b.opts.MaxBatchSize)
}

// FlushAll applies the identical apply/drop policy to the entire pending
// set, ignoring MaxBatchSize. Used for shutdown or forced full sync
func (b *Batcher) FlushAll() {
	b.flush(len(b.pending))
}

// flush takes up to limit entries in priority order. Every taken entry
// leaves pending regardless of outcome: stale entries are dropped and
// counted, the rest are applied
func (b *Batcher) flush(limit int) {
	now := b.clk.Now()

	batch := make([]*pendingUpdate, 0, len(b.pending))
	for _, entry := range b.pending {
		batch = append(batch, entry)
	}
	sort.Slice(batch, func(i, j int) bool {
		if batch[i].priority != batch[j].priority {
			return batch[i].priority > batch[j].priority
		}
		if !batch[i].timestamp.Equal(batch[j].timestamp) {
			return batch[i].timestamp.Before(batch[j].timestamp)
		}
		return batch[i].id < batch[j].id
	})
	if limit < len(batch) {
		batch = batch[:limit]
	}

	for _, entry := range batch {
		delete(b.pending, entry.id)
		b.applyEntry(entry, now)
	}

	done := b.clk.Now()
	rec := batchRecord{size: len(batch), duration: done.Sub(now)}
	if !b.lastFlush.IsZero() {
		rec.gap = now.Sub(b.lastFlush)
	}
	b.lastFlush = now
	b.history = append(b.history, rec)
	if len(b.history) > parameter.BatchHistorySize {
		b.history = b.history[len(b.history)-parameter.BatchHistorySize:]
	}
}

// applyEntry applies one entry unless it aged out or its shape is gone
func (b *Batcher) applyEntry(entry *pendingUpdate, now time.Time) {
	if now.Sub(entry.timestamp) > b.opts.UpdateTimeout {
		b.dropped++
		return
	}
	shape, ok := b.arena.Resolve(entry.shape)
	if !ok {
		b.dropped++
		return
	}
	entry.payload.apply(shape)
	b.processed++
}

// Stats returns an advisory snapshot
func (b *Batcher) Stats() BatcherStats {
	stats := BatcherStats{
		PendingUpdates:   len(b.pending),
		ProcessedUpdates: b.processed,
		DroppedUpdates:   b.dropped,
	}
	if len(b.history) == 0 {
		return stats
	}

	var sizeSum int
	var durSum, gapSum time.Duration
	var gapCount int
	for _, rec := range b.history {
		sizeSum += rec.size
		durSum += rec.duration
		if rec.gap > 0 {
			gapSum += rec.gap
			gapCount++
		}
	}
	stats.AvgBatchSize = float64(sizeSum) / float64(len(b.history))
	stats.AvgBatchDuration = durSum / time.Duration(len(b.history))
	if gapCount > 0 {
		avgGap := gapSum / time.Duration(gapCount)
		stats.BatchesPerSecond = float64(time.Second) / float64(avgGap)
	}
	return stats
}
