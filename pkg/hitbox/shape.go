package hitbox

import (
	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
)

type ShapeKind string

const (
	Box    ShapeKind = "box"
	Sphere ShapeKind = "sphere"
)

//Shape is an attack volume relative to its owner. Offset is rotated by the
//owner's facing.
type Shape struct {
	Kind        ShapeKind `yaml:"Kind"`
	HalfExtents cp.Vector `yaml:"HalfExtents"`
	Radius      float64   `yaml:"Radius"`
	Offset      cp.Vector `yaml:"Offset"`
}

//Layer is a collision layer bitmask
type Layer uint32

const (
	LayerPlayer Layer = 1 << iota
	LayerEnemy
	LayerNeutral
	LayerAll Layer = 1<<32 - 1
)

//Collider is one result of an overlap query. Hurtbox is resolved when the
//entity is registered; it is nil for colliders that cannot be hit.
type Collider struct {
	ID       combat.EntityID
	Position cp.Vector
	Hurtbox  *Hurtbox
}

//SpatialQuery is supplied by the host. Results come back in the host's
//natural order, not sorted by distance.
type SpatialQuery interface {
	Overlap(shape Shape, origin cp.Vector, orientation float64, mask Layer) []Collider
}
