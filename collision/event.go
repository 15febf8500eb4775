package collision

import (
	"time"

	"github.com/lixenwraith/bone-collider/vmath"
)

// EventType classifies an overlap transition between two objects
type EventType uint8

const (
	EventEnter EventType = iota
	EventExit
	EventStay
)

func (t EventType) String() string {
	switch t {
	case EventEnter:
		return "enter"
	case EventExit:
		return "exit"
	case EventStay:
		return "stay"
	}
	return "unknown"
}

// Contact is the approximate contact info carried by an event:
// midpoint between object centers and the A-to-B direction
type Contact struct {
	Point  vmath.Vec3
	Normal vmath.Vec3
	Depth  float64
}

// Event is an ephemeral overlap notification. It lives only in the
// bounded queue between dispatch and drain
type Event struct {
	Type      EventType
	ObjectA   uint64
	ObjectB   uint64
	Contact   Contact
	Timestamp time.Time
}

// Listener receives drained events of one type. Filter, when set, must
// return true for Handle to be invoked
type Listener struct {
	ID       string
	Priority int
	Filter   func(Event) bool
	Handle   func(Event)
}

// eventQueue is a bounded FIFO ring. At capacity, pushing evicts the
// oldest unprocessed event. Single-threaded; the host loop is the only
// producer and consumer
type eventQueue struct {
	buf  []Event
	head int
	size int
}

func newEventQueue(capacity int) *eventQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &eventQueue{buf: make([]Event, capacity)}
}

// push enqueues an event, reporting whether the oldest was evicted
func (q *eventQueue) push(e Event) (evicted bool) {
	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		evicted = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = e
	q.size++
	return evicted
}

// pop dequeues the oldest event
func (q *eventQueue) pop() (Event, bool) {
	if q.size == 0 {
		return Event{}, false
	}
	e := q.buf[q.head]
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return e, true
}

func (q *eventQueue) len() int {
	return q.size
}
