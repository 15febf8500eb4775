package parameter

import "time"

// Bone change detection
const (
	// PositionThreshold is the minimum positional move that counts as a change
	PositionThreshold = 0.01
	// RotationThreshold is the minimum rotation-component move that counts
	RotationThreshold = 0.01
	// ScaleThreshold is the minimum scale move that counts
	ScaleThreshold = 0.01
	// TrackerRateWindow is the sliding window for the updates-per-second stat
	TrackerRateWindow = time.Second
	// BytesPerTrackedBone is the advisory memory estimate per tracking entry
	BytesPerTrackedBone = 160
)

// Update batching
const (
	// BatchInterval is the wall-clock period between pending-update flushes
	BatchInterval = 50 * time.Millisecond
	// MaxBatchSize caps entries applied per flush; the rest wait a cycle
	MaxBatchSize = 64
	// UpdateTimeout is the pending age beyond which an update is dropped
	UpdateTimeout = 500 * time.Millisecond
	// BatchHistorySize is the rolling window for batch size/duration averages
	BatchHistorySize = 32
)

// Sync orchestration
const (
	// SyncFrequency is the realtime-strategy propagation rate in Hz
	SyncFrequency = 60.0
	// MaxUpdatesPerFrame caps shape updates applied per sync pass
	MaxUpdatesPerFrame = 128
)
