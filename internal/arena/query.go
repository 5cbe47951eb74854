package arena

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/solarlune/resolv"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
)

//candidates moves the probe over the box min..max and returns the resolv
//broadphase result in the space's own order
func (a *Arena) candidates(min, max cp.Vector, tags ...string) []*resolv.Object {
	a.probe.X, a.probe.Y = min.X, min.Y
	a.probe.W, a.probe.H = max.X-min.X, max.Y-min.Y
	a.probe.Update()
	check := a.probe.Check(0, 0, tags...)
	if check == nil {
		return nil
	}
	return check.Objects
}

//Overlap implements hitbox.SpatialQuery
func (a *Arena) Overlap(shape hitbox.Shape, origin cp.Vector, orientation float64, mask hitbox.Layer) []hitbox.Collider {
	tags := tagsFor(mask)
	if len(tags) == 0 {
		return nil
	}
	var ext cp.Vector
	switch shape.Kind {
	case hitbox.Sphere:
		ext = cp.Vector{X: shape.Radius, Y: shape.Radius}
	default:
		u := cp.ForAngle(orientation)
		ext = cp.Vector{
			X: math.Abs(u.X)*shape.HalfExtents.X + math.Abs(u.Y)*shape.HalfExtents.Y,
			Y: math.Abs(u.Y)*shape.HalfExtents.X + math.Abs(u.X)*shape.HalfExtents.Y,
		}
	}

	var out []hitbox.Collider
	seen := make(map[combat.EntityID]bool)
	for _, o := range a.candidates(origin.Sub(ext), origin.Add(ext), tags...) {
		id, ok := o.Data.(combat.EntityID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		e := a.entry(id)
		if e == nil || !e.HasComponent(Alive) {
			continue
		}
		min := cp.Vector{X: o.X, Y: o.Y}
		max := cp.Vector{X: o.X + o.W, Y: o.Y + o.H}
		var hit bool
		if shape.Kind == hitbox.Sphere {
			hit = sphereOverlapsBox(origin, shape.Radius, min, max)
		} else {
			hit = orientedOverlapsBox(origin, shape.HalfExtents, orientation, min, max)
		}
		if !hit {
			continue
		}
		f := Fighter.Get(e)
		out = append(out, hitbox.Collider{ID: id, Position: f.C.Position(), Hurtbox: f.C.Hurtbox})
	}
	return out
}

//Nearby implements element.Environment
func (a *Arena) Nearby(origin cp.Vector, radius float64) []element.Neighbor {
	ext := cp.Vector{X: radius, Y: radius}
	var out []element.Neighbor
	seen := make(map[combat.EntityID]bool)
	for _, o := range a.candidates(origin.Sub(ext), origin.Add(ext), tagFighter) {
		id, ok := o.Data.(combat.EntityID)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		e := a.entry(id)
		if e == nil || !e.HasComponent(Alive) {
			continue
		}
		c := Fighter.Get(e).C
		if c.Position().Distance(origin) > radius {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sphereOverlapsBox(c cp.Vector, r float64, min, max cp.Vector) bool {
	p := cp.Vector{X: cp.Clamp(c.X, min.X, max.X), Y: cp.Clamp(c.Y, min.Y, max.Y)}
	return p.DistanceSq(c) <= r*r
}

//orientedOverlapsBox is a separating axis test between a box rotated by
//angle and an axis aligned box
func orientedOverlapsBox(c, half cp.Vector, angle float64, min, max cp.Vector) bool {
	u := cp.ForAngle(angle)
	v := u.Perp()
	bc := min.Add(max).Mult(0.5)
	bh := max.Sub(min).Mult(0.5)
	d := bc.Sub(c)
	for _, axis := range []cp.Vector{{X: 1}, {Y: 1}, u, v} {
		ra := half.X*math.Abs(u.Dot(axis)) + half.Y*math.Abs(v.Dot(axis))
		rb := bh.X*math.Abs(axis.X) + bh.Y*math.Abs(axis.Y)
		if math.Abs(d.Dot(axis)) > ra+rb {
			return false
		}
	}
	return true
}
