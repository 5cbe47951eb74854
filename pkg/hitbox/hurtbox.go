package hitbox

import "github.com/srliao/combatcore/pkg/combat"

//Filter is the single receive state of a hurtbox
type Filter int

const (
	Vulnerable Filter = iota
	Invincible
	Parrying
	Blocking
	SuperArmor
)

func (f Filter) String() string {
	switch f {
	case Vulnerable:
		return "vulnerable"
	case Invincible:
		return "invincible"
	case Parrying:
		return "parrying"
	case Blocking:
		return "blocking"
	case SuperArmor:
		return "super_armor"
	}
	return "unknown"
}

type Outcome int

const (
	Admitted Outcome = iota
	Dropped
	Parried
	Blocked
	GuardBroken
	Armored
)

func (o Outcome) String() string {
	return [...]string{"admitted", "dropped", "parried", "blocked", "guard_broken", "armored"}[o]
}

type Contact struct {
	Defender   combat.EntityID
	Descriptor combat.Descriptor
	Outcome    Outcome
}

const DefaultBlockReduction = 0.7

//Hurtbox decides whether a hit is admitted, rejected or reduced and forwards
//admitted hits to its target. It never computes final damage.
type Hurtbox struct {
	id             combat.EntityID
	target         combat.Damageable
	filter         Filter
	BlockReduction float64

	ParrySuccess combat.Signal[Contact]
	BlockSuccess combat.Signal[Contact]
	GuardBroken  combat.Signal[Contact]
	Received     combat.Signal[Contact]
}

func NewHurtbox(id combat.EntityID, target combat.Damageable, reduction float64) *Hurtbox {
	if reduction <= 0 {
		reduction = DefaultBlockReduction
	}
	return &Hurtbox{
		id:             id,
		target:         target,
		BlockReduction: reduction,
	}
}

func (h *Hurtbox) ID() combat.EntityID {
	return h.id
}

func (h *Hurtbox) Filter() Filter {
	return h.filter
}

func (h *Hurtbox) SetFilter(f Filter) {
	h.filter = f
}

func (h *Hurtbox) Receive(d combat.Descriptor) Outcome {
	c := Contact{Defender: h.id, Descriptor: d}
	switch h.filter {
	case Invincible:
		c.Outcome = Dropped
		return h.done(c)
	case Parrying:
		if d.Parryable {
			c.Outcome = Parried
			h.ParrySuccess.Emit(c)
			return h.done(c)
		}
	case Blocking:
		if d.GuardBreak {
			c.Outcome = GuardBroken
			h.target.TakeDamage(d)
			h.GuardBroken.Emit(c)
			return h.done(c)
		}
		if d.Blockable {
			c.Outcome = Blocked
			c.Descriptor = d.Reduced(h.BlockReduction)
			h.target.TakeDamage(c.Descriptor)
			h.BlockSuccess.Emit(c)
			return h.done(c)
		}
	case SuperArmor:
		c.Outcome = Armored
		c.Descriptor = d.WithoutStagger()
		h.target.TakeDamage(c.Descriptor)
		return h.done(c)
	}
	c.Outcome = Admitted
	h.target.TakeDamage(d)
	return h.done(c)
}

func (h *Hurtbox) done(c Contact) Outcome {
	h.Received.Emit(c)
	return c.Outcome
}
