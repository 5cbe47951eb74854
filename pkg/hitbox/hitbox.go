package hitbox

import (
	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
)

type Config struct {
	Shape               Shape   `yaml:"Shape"`
	Mask                Layer   `yaml:"Mask"`
	DamageMultiplier    float64 `yaml:"DamageMultiplier"`
	KnockbackMultiplier float64 `yaml:"KnockbackMultiplier"`
	StaggerMultiplier   float64 `yaml:"StaggerMultiplier"`
	//MaxTargets caps targets per activation, 0 is unlimited
	MaxTargets int `yaml:"MaxTargets"`
	//Rehit lets the same target be hit again once RehitCooldown has passed
	Rehit         bool    `yaml:"Rehit"`
	RehitCooldown float64 `yaml:"RehitCooldown"`
}

func DefaultConfig() Config {
	return Config{
		Shape:               Shape{Kind: Box, HalfExtents: cp.Vector{X: 1, Y: 0.75}, Offset: cp.Vector{X: 1}},
		Mask:                LayerAll,
		DamageMultiplier:    1,
		KnockbackMultiplier: 1,
		StaggerMultiplier:   1,
		MaxTargets:          4,
	}
}

//Owner is the attacker a hitbox is attached to
type Owner interface {
	combat.Actor
	Facing() float64
}

type HitEvent struct {
	Target     combat.EntityID
	Descriptor combat.Descriptor
	Outcome    Outcome
}

//Hitbox is the attacker's attack volume
type Hitbox struct {
	cfg   Config
	owner Owner
	query SpatialQuery
	svc   combat.Services

	active bool
	desc   combat.Descriptor
	clock  float64
	hit    map[combat.EntityID]float64

	HitLanded combat.Signal[HitEvent]
}

func New(cfg Config, owner Owner, query SpatialQuery, svc combat.Services) *Hitbox {
	return &Hitbox{
		cfg:   cfg,
		owner: owner,
		query: query,
		svc:   svc,
		hit:   make(map[combat.EntityID]float64),
	}
}

func (h *Hitbox) Active() bool {
	return h.active
}

func (h *Hitbox) Descriptor() combat.Descriptor {
	return h.desc
}

//Activate arms the hitbox with d and clears the already hit set
func (h *Hitbox) Activate(d combat.Descriptor) {
	h.desc = d
	h.active = true
	h.clock = 0
	h.hit = make(map[combat.EntityID]float64)
}

func (h *Hitbox) Deactivate() {
	h.active = false
}

//HitCount is the number of distinct targets hit this activation
func (h *Hitbox) HitCount() int {
	return len(h.hit)
}

func (h *Hitbox) FixedStep(dt float64) {
	if !h.active {
		return
	}
	h.clock += dt
	if h.query == nil {
		h.svc.Logger().Debugw("hitbox active without a spatial query", "owner", h.owner.ID())
		return
	}
	origin := h.owner.Position()
	facing := h.owner.Facing()
	center := origin.Add(h.cfg.Shape.Offset.Rotate(cp.ForAngle(facing)))

	for _, c := range h.query.Overlap(h.cfg.Shape, center, facing, h.cfg.Mask) {
		//an earlier hit this step may have shut us down (parried, staggered)
		if !h.active {
			return
		}
		if c.ID == h.owner.ID() || c.Hurtbox == nil {
			continue
		}
		if last, ok := h.hit[c.ID]; ok {
			if !h.cfg.Rehit || h.clock-last < h.cfg.RehitCooldown {
				continue
			}
		} else if h.cfg.MaxTargets > 0 && len(h.hit) >= h.cfg.MaxTargets {
			continue
		}
		h.hit[c.ID] = h.clock
		h.strike(c, origin, facing)
	}
}

func (h *Hitbox) strike(c Collider, origin cp.Vector, facing float64) {
	dir := c.Position.Sub(origin)
	if dir.LengthSq() == 0 {
		dir = cp.ForAngle(facing)
	}
	dir = dir.Normalize()
	d := h.desc.
		Scaled(mult(h.cfg.DamageMultiplier), mult(h.cfg.KnockbackMultiplier), mult(h.cfg.StaggerMultiplier)).
		WithKnockbackDir(dir).
		WithImpact(c.Position, dir.Neg())

	out := c.Hurtbox.Receive(d)
	h.svc.Logger().Debugw("hit landed", "owner", h.owner.ID(), "target", c.ID, "outcome", out, "base", d.Base)
	h.HitLanded.Emit(HitEvent{Target: c.ID, Descriptor: d, Outcome: out})
}

//mult treats an unset multiplier as 1
func mult(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
