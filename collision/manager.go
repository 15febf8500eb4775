package collision

import (
	"sort"
	"time"

	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/parameter"
	"github.com/lixenwraith/bone-collider/vmath"
)

// Options configures a Manager. Zero fields fall back to package defaults
type Options struct {
	// SpatialHashEnabled selects hashed queries; disabled falls back to
	// full registry scans with identical results
	SpatialHashEnabled bool
	CellSize           float64
	// ObjectRadius is the bounding radius for nodes without a RadiusHolder
	ObjectRadius   float64
	EventQueueSize int
	// EventsPerFrame caps events drained per Update call
	EventsPerFrame int
	// PairEventsEnabled turns on enter/stay/exit classification of
	// overlapping registered pairs each tick
	PairEventsEnabled bool
}

// DefaultOptions returns the standard manager configuration
func DefaultOptions() Options {
	return Options{
		SpatialHashEnabled: true,
		CellSize:           parameter.CollisionCellSize,
		ObjectRadius:       parameter.CollisionObjectRadius,
		EventQueueSize:     parameter.EventQueueSize,
		EventsPerFrame:     parameter.EventsPerFrame,
		PairEventsEnabled:  true,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.CellSize <= 0 {
		o.CellSize = def.CellSize
	}
	if o.ObjectRadius <= 0 {
		o.ObjectRadius = def.ObjectRadius
	}
	if o.EventQueueSize <= 0 {
		o.EventQueueSize = def.EventQueueSize
	}
	if o.EventsPerFrame <= 0 {
		o.EventsPerFrame = def.EventsPerFrame
	}
	return o
}

// Stats is an advisory snapshot of manager state
type Stats struct {
	Objects          int
	Cells            int
	QueuedEvents     int
	DispatchedEvents uint64
	ProcessedEvents  uint64
	EvictedEvents    uint64
	// EventsLastSecond counts events drained in the trailing rate window
	EventsLastSecond    int
	LastProcessDuration time.Duration
	MemoryEstimate      int
}

// Hit is one raycast result
type Hit struct {
	Object   *Object
	Distance float64
}

// pairKey identifies an unordered object pair, smaller id first
type pairKey struct {
	a, b uint64
}

func makePairKey(a, b uint64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// Manager is the process-wide registry, spatial index, and bounded event
// bus for collidable objects. Single-threaded; every method is called
// from the host logic tick
type Manager struct {
	opts Options
	clk  clock.Clock

	objects   map[uint64]*Object
	hash      *SpatialHash
	maxRadius float64

	queue     *eventQueue
	listeners map[EventType][]Listener
	prevPairs map[pairKey]struct{}

	dispatched  uint64
	processed   uint64
	evicted     uint64
	drainTimes  []time.Time
	lastProcess time.Duration
}

// NewManager creates a manager. A nil clock uses the system clock
func NewManager(opts Options, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	opts = opts.normalized()
	return &Manager{
		opts:      opts,
		clk:       clk,
		objects:   make(map[uint64]*Object),
		hash:      NewSpatialHash(opts.CellSize),
		queue:     newEventQueue(opts.EventQueueSize),
		listeners: make(map[EventType][]Listener),
		prevPairs: make(map[pairKey]struct{}),
	}
}

// RegisterObject classifies a node and adds it to the registry and, when
// hashing is enabled, the spatial index. Re-registering an id replaces
// the previous entry
func (m *Manager) RegisterObject(node Collidable) {
	if node == nil {
		return
	}
	o := newObject(node, m.opts.ObjectRadius)
	m.objects[o.ID] = o
	if o.Radius > m.maxRadius {
		m.maxRadius = o.Radius
	}
	if m.opts.SpatialHashEnabled {
		m.hash.Insert(o)
	}
}

// UnregisterObject removes an object by id. No-op for unknown ids
func (m *Manager) UnregisterObject(id uint64) {
	if _, ok := m.objects[id]; !ok {
		return
	}
	delete(m.objects, id)
	m.hash.Remove(id)
}

// Object returns a registered object by id
func (m *Manager) Object(id uint64) (*Object, bool) {
	o, ok := m.objects[id]
	return o, ok
}

// UpdateObjectPosition re-buckets one object after its node moved, the
// incremental alternative to the per-tick full rebuild. No-op for
// unknown ids or when hashing is disabled
func (m *Manager) UpdateObjectPosition(id uint64) {
	o, ok := m.objects[id]
	if !ok || !m.opts.SpatialHashEnabled {
		return
	}
	m.hash.Move(o)
}

// AddEventListener registers a listener for one event type. The per-type
// list stays sorted descending by priority; equal priorities keep
// registration order
func (m *Manager) AddEventListener(t EventType, l Listener) {
	list := m.listeners[t]
	idx := len(list)
	for i, existing := range list {
		if existing.Priority < l.Priority {
			idx = i
			break
		}
	}
	list = append(list, Listener{})
	copy(list[idx+1:], list[idx:])
	list[idx] = l
	m.listeners[t] = list
}

// RemoveEventListener removes a listener by id. No-op if absent
func (m *Manager) RemoveEventListener(t EventType, id string) {
	list := m.listeners[t]
	for i, l := range list {
		if l.ID == id {
			m.listeners[t] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// DispatchEvent enqueues an event for draining on a later Update. At
// capacity the oldest unprocessed event is evicted, never the newest
func (m *Manager) DispatchEvent(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.clk.Now()
	}
	if m.queue.push(e) {
		m.evicted++
	}
	m.dispatched++
}

// QueuedEvents returns the number of undrained events
func (m *Manager) QueuedEvents() int {
	return m.queue.len()
}

// Update drains a bounded number of queued events to listeners, rebuilds
// the spatial hash from the live registry, classifies overlap
// transitions, and refreshes advisory stats
func (m *Manager) Update(dt float64) {
	start := m.clk.Now()

	m.drainEvents()

	if m.opts.SpatialHashEnabled {
		m.rebuildHash()
	}
	if m.opts.PairEventsEnabled {
		m.classifyPairs()
	}

	m.lastProcess = m.clk.Now().Sub(start)
	m.pruneDrainWindow(start)
	_ = dt
}

// drainEvents pops up to EventsPerFrame oldest events and invokes
// matching listeners synchronously, honoring filters
func (m *Manager) drainEvents() {
	for i := 0; i < m.opts.EventsPerFrame; i++ {
		e, ok := m.queue.pop()
		if !ok {
			return
		}
		m.processed++
		m.drainTimes = append(m.drainTimes, m.clk.Now())

		for _, l := range m.listeners[e.Type] {
			if l.Filter != nil && !l.Filter(e) {
				continue
			}
			if l.Handle != nil {
				l.Handle(e)
			}
		}
	}
}

// rebuildHash repopulates the spatial index from current node positions.
// Full rebuild is the correctness baseline; UpdateObjectPosition covers
// incremental movement between ticks
func (m *Manager) rebuildHash() {
	m.hash.Clear()
	for _, o := range m.objects {
		m.hash.Insert(o)
	}
}

// classifyPairs diffs the current overlapping pair set against the
// previous tick and dispatches enter/stay/exit events. Overlap is
// bounding-sphere against bounding-sphere; mask compatibility is
// required in at least one direction
func (m *Manager) classifyPairs() {
	current := make(map[pairKey]struct{}, len(m.prevPairs))

	m.forEachOverlap(func(a, b *Object) {
		key := makePairKey(a.ID, b.ID)
		if _, seen := current[key]; seen {
			return
		}
		current[key] = struct{}{}

		t := EventEnter
		if _, was := m.prevPairs[key]; was {
			t = EventStay
		}
		m.DispatchEvent(m.pairEvent(t, a, b))
	})

	for key := range m.prevPairs {
		if _, still := current[key]; still {
			continue
		}
		a, okA := m.objects[key.a]
		b, okB := m.objects[key.b]
		if okA && okB {
			m.DispatchEvent(m.pairEvent(EventExit, a, b))
		}
	}

	m.prevPairs = current
}

// forEachOverlap visits overlapping, mask-compatible object pairs.
// With hashing the scan is bounded to the cell cube around each object;
// without it the full registry is scanned
func (m *Manager) forEachOverlap(fn func(a, b *Object)) {
	visit := func(a, b *Object) {
		if a.ID >= b.ID {
			return
		}
		if a.Mask&b.Layer == 0 && b.Mask&a.Layer == 0 {
			return
		}
		reach := a.Radius + b.Radius
		if vmath.V3DistSq(a.Position(), b.Position()) <= reach*reach {
			fn(a, b)
		}
	}

	if m.opts.SpatialHashEnabled {
		for _, a := range m.objects {
			m.hash.ForEachInCube(a.Position(), a.Radius+m.maxRadius, func(b *Object) {
				visit(a, b)
			})
		}
		return
	}
	for _, a := range m.objects {
		for _, b := range m.objects {
			visit(a, b)
		}
	}
}

func (m *Manager) pairEvent(t EventType, a, b *Object) Event {
	pa, pb := a.Position(), b.Position()
	dist := vmath.V3Dist(pa, pb)
	return Event{
		Type:    t,
		ObjectA: a.ID,
		ObjectB: b.ID,
		Contact: Contact{
			Point:  vmath.V3Scale(vmath.V3Add(pa, pb), 0.5),
			Normal: vmath.V3Normalize(vmath.V3Sub(pb, pa)),
			Depth:  (a.Radius + b.Radius) - dist,
		},
		Timestamp: m.clk.Now(),
	}
}

// QueryArea returns objects whose position lies within radius of center,
// filtered by layer mask. Hashed and full-scan paths return the same set
func (m *Manager) QueryArea(center vmath.Vec3, radius float64, layerMask uint32) []*Object {
	var result []*Object
	radiusSq := radius * radius

	match := func(o *Object) {
		if o.Layer&layerMask == 0 {
			return
		}
		if vmath.V3DistSq(center, o.Position()) <= radiusSq {
			result = append(result, o)
		}
	}

	if m.opts.SpatialHashEnabled {
		m.hash.ForEachInCube(center, radius, match)
		return result
	}
	for _, o := range m.objects {
		match(o)
	}
	return result
}

// Raycast returns objects within maxDistance of origin, sorted ascending
// by distance. This is a bounded-sphere distance test: direction is
// accepted for interface stability but not used to narrow results
func (m *Manager) Raycast(origin, direction vmath.Vec3, maxDistance float64, layerMask uint32) []Hit {
	_ = direction

	var hits []Hit
	for _, o := range m.objects {
		if o.Layer&layerMask == 0 {
			continue
		}
		dist := vmath.V3Dist(origin, o.Position())
		if dist <= maxDistance {
			hits = append(hits, Hit{Object: o, Distance: dist})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

// pruneDrainWindow trims drain timestamps older than the rate window
func (m *Manager) pruneDrainWindow(now time.Time) {
	cutoff := now.Add(-parameter.EventRateWindow)
	idx := 0
	for idx < len(m.drainTimes) && m.drainTimes[idx].Before(cutoff) {
		idx++
	}
	if idx > 0 {
		m.drainTimes = append(m.drainTimes[:0], m.drainTimes[idx:]...)
	}
}

// Stats returns an advisory snapshot
func (m *Manager) Stats() Stats {
	return Stats{
		Objects:             len(m.objects),
		Cells:               m.hash.CellCount(),
		QueuedEvents:        m.queue.len(),
		DispatchedEvents:    m.dispatched,
		ProcessedEvents:     m.processed,
		EvictedEvents:       m.evicted,
		EventsLastSecond:    len(m.drainTimes),
		LastProcessDuration: m.lastProcess,
		MemoryEstimate: len(m.objects)*parameter.BytesPerCollisionObject +
			m.hash.CellCount()*parameter.BytesPerSpatialCell +
			m.queue.len()*parameter.BytesPerQueuedEvent,
	}
}

// Hash exposes the spatial index for read-only inspection (occupancy
// tooling). Callers must not retain objects across Unregister
func (m *Manager) Hash() *SpatialHash {
	return m.hash
}
