package collision

import (
	"math"

	"github.com/lixenwraith/bone-collider/vmath"
)

// cellKey identifies a spatial hash bucket by floored cell coordinates
type cellKey struct {
	X, Y, Z int32
}

// SpatialHash is a sparse uniform 3D grid over registered objects.
// Buckets are created lazily on first insert and reclaimed when empty.
// An object lives in exactly one cell, keyed by floor(axis / cellSize)
type SpatialHash struct {
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cells       map[cellKey]map[uint64]*Object
	objectCell  map[uint64]cellKey
}

// NewSpatialHash creates an empty hash with the given cell edge
func NewSpatialHash(cellSize float64) *SpatialHash {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHash{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey]map[uint64]*Object),
		objectCell:  make(map[uint64]cellKey),
	}
}

// keyFor maps a world position to its cell
func (h *SpatialHash) keyFor(p vmath.Vec3) cellKey {
	return cellKey{
		X: int32(math.Floor(p.X * h.invCellSize)),
		Y: int32(math.Floor(p.Y * h.invCellSize)),
		Z: int32(math.Floor(p.Z * h.invCellSize)),
	}
}

// Insert adds an object at its current position. Re-inserting an id moves
// it. O(1)
func (h *SpatialHash) Insert(o *Object) {
	if o == nil {
		return
	}
	if _, ok := h.objectCell[o.ID]; ok {
		h.Remove(o.ID)
	}

	key := h.keyFor(o.Position())
	bucket, ok := h.cells[key]
	if !ok {
		bucket = make(map[uint64]*Object)
		h.cells[key] = bucket
	}
	bucket[o.ID] = o
	h.objectCell[o.ID] = key
}

// Remove deletes an object by id, reclaiming its bucket if emptied
// No-op for unknown ids. O(1)
func (h *SpatialHash) Remove(id uint64) {
	key, ok := h.objectCell[id]
	if !ok {
		return
	}
	delete(h.objectCell, id)

	bucket, ok := h.cells[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(h.cells, key)
	}
}

// Move re-buckets one object after a position change, the incremental
// alternative to a full rebuild
func (h *SpatialHash) Move(o *Object) {
	if o == nil {
		return
	}
	newKey := h.keyFor(o.Position())
	if old, ok := h.objectCell[o.ID]; ok && old == newKey {
		return
	}
	h.Insert(o)
}

// Clear drops all buckets
func (h *SpatialHash) Clear() {
	h.cells = make(map[cellKey]map[uint64]*Object)
	h.objectCell = make(map[uint64]cellKey)
}

// CellSize returns the configured cell edge
func (h *SpatialHash) CellSize() float64 {
	return h.cellSize
}

// CellCount returns the number of live buckets
func (h *SpatialHash) CellCount() int {
	return len(h.cells)
}

// ForEachCell visits every live bucket with its key and occupancy
func (h *SpatialHash) ForEachCell(fn func(x, y, z int32, count int)) {
	for key, bucket := range h.cells {
		fn(key.X, key.Y, key.Z, len(bucket))
	}
}

// ForEachInCube visits objects in the cube of cells within
// ceil(radius/cellSize) of the center's cell. The cube over-includes;
// callers apply the exact distance test. Scan cost is bounded by the
// cube volume, not world size
func (h *SpatialHash) ForEachInCube(center vmath.Vec3, radius float64, fn func(*Object)) {
	reach := int32(math.Ceil(radius * h.invCellSize))
	base := h.keyFor(center)

	for dx := -reach; dx <= reach; dx++ {
		for dy := -reach; dy <= reach; dy++ {
			for dz := -reach; dz <= reach; dz++ {
				key := cellKey{base.X + dx, base.Y + dy, base.Z + dz}
				for _, o := range h.cells[key] {
					fn(o)
				}
			}
		}
	}
}
