package combat

import "github.com/jakecoffman/cp"

//EntityID identifies a combat entity within one arena
type EntityID uint64

//Actor is anything that can originate a hit
type Actor interface {
	ID() EntityID
	Position() cp.Vector
}

//Damageable is the capability every hittable entity exposes
type Damageable interface {
	TakeDamage(d Descriptor)
	IsDead() bool
}

//Descriptor describes a single hit. It is passed by value; pipeline stages
//derive modified copies instead of changing the original.
type Descriptor struct {
	Base    float64
	Element EleType
	//Gauge is the elemental charge carried by the hit; 0 means the hit
	//does not interact with the target's element
	Gauge   float64
	Mastery float64

	Attacker Actor
	Point    cp.Vector
	Normal   cp.Vector

	KnockbackForce float64
	KnockbackDir   cp.Vector
	Stagger        float64

	Critical       bool
	CritMultiplier float64

	Parryable  bool
	Blockable  bool
	GuardBreak bool
	ComboIndex int

	//Depth counts how many times the hit re-entered the pipeline through reactions
	Depth int
	Trail []string
}

//AttackerID returns 0 when the hit has no attacker (environment, dot)
func (d Descriptor) AttackerID() EntityID {
	if d.Attacker == nil {
		return 0
	}
	return d.Attacker.ID()
}

func (d Descriptor) derive(stage string) Descriptor {
	next := make([]string, len(d.Trail), len(d.Trail)+1)
	copy(next, d.Trail)
	d.Trail = append(next, stage)
	return d
}

//WithBase returns a copy with base damage replaced
func (d Descriptor) WithBase(base float64, stage string) Descriptor {
	c := d.derive(stage)
	c.Base = base
	return c
}

//Scaled returns a copy with damage, knockback and stagger multiplied
func (d Descriptor) Scaled(dmg, knockback, stagger float64) Descriptor {
	c := d.derive("scaled")
	c.Base *= dmg
	c.KnockbackForce *= knockback
	c.Stagger *= stagger
	return c
}

//Reduced returns a copy with damage, knockback and stagger cut by frac
func (d Descriptor) Reduced(frac float64) Descriptor {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	c := d.derive("reduced")
	c.Base *= 1 - frac
	c.KnockbackForce *= 1 - frac
	c.Stagger *= 1 - frac
	return c
}

func (d Descriptor) WithoutStagger() Descriptor {
	c := d.derive("armored")
	c.Stagger = 0
	return c
}

func (d Descriptor) WithKnockbackDir(dir cp.Vector) Descriptor {
	c := d.derive("direction")
	c.KnockbackDir = dir
	return c
}

func (d Descriptor) WithImpact(point, normal cp.Vector) Descriptor {
	c := d.derive("impact")
	c.Point = point
	c.Normal = normal
	return c
}

//Propagated returns a secondary hit spawned by a reaction, one level deeper
func (d Descriptor) Propagated(stage string, base float64, e EleType, gauge float64) Descriptor {
	c := d.derive(stage)
	c.Base = base
	c.Element = e
	c.Gauge = gauge
	c.Critical = false
	c.KnockbackForce = 0
	c.Stagger = 0
	c.Parryable = false
	c.Blockable = false
	c.GuardBreak = false
	c.Depth++
	return c
}
