package collision

import (
	"github.com/lixenwraith/bone-collider/vmath"
)

// Kind classifies a collidable node. Set at construction by the host,
// replacing dynamic type inspection of concrete node types
type Kind uint8

const (
	KindArea Kind = iota
	KindCharacter
	KindRigid
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindArea:
		return "area"
	case KindCharacter:
		return "character"
	case KindRigid:
		return "rigid"
	case KindStatic:
		return "static"
	}
	return "unknown"
}

// Collidable is the minimal node handle the manager tracks. Nodes are
// owned by the host scene; the manager never outlives their registration
type Collidable interface {
	ID() uint64
	Name() string
	Position() vmath.Vec3
	Kind() Kind
}

// Optional node capabilities, read once at registration
// Absent capabilities fall back to layer=1, mask=1, priority=0

type LayerHolder interface {
	CollisionLayer() uint32
}

type MaskHolder interface {
	CollisionMask() uint32
}

type PriorityHolder interface {
	CollisionPriority() int
}

// RadiusHolder supplies a bounding radius for overlap classification
type RadiusHolder interface {
	CollisionRadius() float64
}

// Object is a registry entry for one collidable node
type Object struct {
	ID       uint64
	Node     Collidable
	Kind     Kind
	Layer    uint32
	Mask     uint32
	Priority int
	Radius   float64
}

// newObject classifies a node into a registry entry, reading optional
// capabilities with defaults
func newObject(node Collidable, defaultRadius float64) *Object {
	o := &Object{
		ID:       node.ID(),
		Node:     node,
		Kind:     node.Kind(),
		Layer:    1,
		Mask:     1,
		Priority: 0,
		Radius:   defaultRadius,
	}
	if l, ok := node.(LayerHolder); ok {
		o.Layer = l.CollisionLayer()
	}
	if m, ok := node.(MaskHolder); ok {
		o.Mask = m.CollisionMask()
	}
	if p, ok := node.(PriorityHolder); ok {
		o.Priority = p.CollisionPriority()
	}
	if r, ok := node.(RadiusHolder); ok {
		o.Radius = r.CollisionRadius()
	}
	return o
}

// Position returns the node's current position
func (o *Object) Position() vmath.Vec3 {
	return o.Node.Position()
}
