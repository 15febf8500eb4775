package parameter

import "time"

// Spatial index
const (
	// CollisionCellSize is the spatial hash cell edge in world units
	CollisionCellSize = 10.0
	// CollisionObjectRadius is the bounding radius assumed for objects
	// that do not expose one
	CollisionObjectRadius = 0.5
)

// Event bus
const (
	// EventQueueSize bounds the unprocessed event FIFO; overflow evicts oldest
	EventQueueSize = 256
	// EventsPerFrame caps events drained per manager tick
	EventsPerFrame = 32
	// EventRateWindow is the sliding window for the events-per-second stat
	EventRateWindow = time.Second
)

// Advisory memory estimates, bytes per entry
const (
	BytesPerCollisionObject = 96
	BytesPerSpatialCell     = 64
	BytesPerQueuedEvent     = 112
)
