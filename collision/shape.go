package collision

import (
	"github.com/lixenwraith/bone-collider/vmath"
)

// Shape is a mutable collision-shape handle. The shape itself is owned by
// the host scene; this struct is the transform surface the sync pipeline
// writes through. DebugEnabled is host-facing metadata only
type Shape struct {
	Name         string
	Position     vmath.Vec3
	Rotation     vmath.Vec3
	Scale        vmath.Vec3
	DebugEnabled bool
}

// NewShape creates a shape at the identity pose
func NewShape(name string) *Shape {
	return &Shape{
		Name:  name,
		Scale: vmath.V3Splat(1),
	}
}

// ShapeHandle is a generation-checked index into a ShapeArena
// The zero value is never valid
type ShapeHandle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether the handle is the invalid zero value
func (h ShapeHandle) IsZero() bool {
	return h.gen == 0
}

// Key returns a stable unique value for map keys and update ids
func (h ShapeHandle) Key() uint64 {
	return uint64(h.index)<<32 | uint64(h.gen)
}

type shapeSlot struct {
	shape *Shape
	gen   uint32
	live  bool
}

// ShapeArena maps stable handles to externally-owned shapes so that a
// destroyed shape is detected by stale generation instead of dangling.
// Slots are recycled through a free list; generation bumps on release
type ShapeArena struct {
	slots []shapeSlot
	free  []uint32
	count int
}

// NewShapeArena creates an empty arena
func NewShapeArena() *ShapeArena {
	return &ShapeArena{}
}

// Add registers a shape and returns its handle. O(1)
func (a *ShapeArena) Add(s *Shape) ShapeHandle {
	if s == nil {
		return ShapeHandle{}
	}

	a.count++

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.shape = s
		slot.gen++
		slot.live = true
		return ShapeHandle{index: idx, gen: slot.gen}
	}

	a.slots = append(a.slots, shapeSlot{shape: s, gen: 1, live: true})
	return ShapeHandle{index: uint32(len(a.slots) - 1), gen: 1}
}

// Remove releases a handle. Subsequent Resolve calls with the same handle
// fail instead of returning a recycled shape. No-op on stale handles
func (a *ShapeArena) Remove(h ShapeHandle) {
	slot := a.slot(h)
	if slot == nil {
		return
	}
	slot.shape = nil
	slot.live = false
	a.count--
	a.free = append(a.free, h.index)
}

// Resolve returns the shape for a handle, or false if the shape was
// removed or the handle is stale
func (a *ShapeArena) Resolve(h ShapeHandle) (*Shape, bool) {
	slot := a.slot(h)
	if slot == nil {
		return nil, false
	}
	return slot.shape, true
}

// Count returns the number of live shapes
func (a *ShapeArena) Count() int {
	return a.count
}

func (a *ShapeArena) slot(h ShapeHandle) *shapeSlot {
	if h.gen == 0 || int(h.index) >= len(a.slots) {
		return nil
	}
	slot := &a.slots[h.index]
	if !slot.live || slot.gen != h.gen {
		return nil
	}
	return slot
}
