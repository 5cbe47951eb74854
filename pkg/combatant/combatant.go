//Package combatant composes the combat capabilities of one entity and wires
//their signals together.
package combatant

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
	"github.com/srliao/combatcore/pkg/poise"
	"github.com/srliao/combatcore/pkg/posture"
	"github.com/srliao/combatcore/pkg/status"
)

//Staggerable is implemented by attackers that take poise damage back on a parry
type Staggerable interface {
	ApplyStagger(amount float64)
}

//AttackPower exposes the attacker's percentage attack bonus to the defender
type AttackPower interface {
	AttackPower() float64
}

//Deps are the host collaborators a combatant is built against
type Deps struct {
	ID       combat.EntityID
	Position cp.Vector
	Facing   float64
	Query    hitbox.SpatialQuery
	Env      element.Environment
	Library  status.Library
	Table    *element.Table
	//Body is optional; without it knockback is eased translation
	Body *cp.Body
}

type HealthEvent struct {
	ID      combat.EntityID
	Current float64
	Max     float64
}

type DamageEvent struct {
	Target     combat.EntityID
	Attacker   combat.EntityID
	Amount     float64
	Element    combat.EleType
	Critical   bool
	Descriptor combat.Descriptor
}

type Combatant struct {
	id    combat.EntityID
	cfg   Config
	svc   combat.Services
	lib   status.Library
	tasks *combat.TaskGroup
	subs  combat.Subscriptions

	pos    cp.Vector
	facing float64
	body   *cp.Body
	health float64
	dead   bool

	Status    *status.Manager
	Reactor   *element.Reactor
	Poise     *poise.Poise
	Knockback *poise.Knockback
	Hurtbox   *hitbox.Hurtbox
	Hitbox    *hitbox.Hitbox
	Machine   *posture.Machine

	HealthChanged combat.Signal[HealthEvent]
	Damaged       combat.Signal[DamageEvent]
	Died          combat.Signal[combat.EntityID]
}

func New(cfg Config, deps Deps, svc combat.Services) *Combatant {
	c := &Combatant{
		id:     deps.ID,
		cfg:    cfg,
		lib:    deps.Library,
		pos:    deps.Position,
		facing: deps.Facing,
		body:   deps.Body,
		health: cfg.MaxHealth,
	}
	if c.lib == nil {
		c.lib = status.DefaultLibrary()
	}
	c.tasks = combat.NewTaskGroup(svc.Scheduler)
	c.svc = svc.WithScheduler(c.tasks)
	if c.body != nil {
		c.body.SetPosition(deps.Position)
	}

	c.Status = status.NewManager(c, c, c.svc)
	c.Poise = poise.New(cfg.Poise)
	var body poise.DynamicBody
	if c.body != nil {
		body = poise.CPBody{Body: c.body}
	}
	c.Knockback = poise.NewKnockback(cfg.Knockback, body, c, c.svc)
	c.Hurtbox = hitbox.NewHurtbox(c.id, c, cfg.BlockReduction)
	c.Hitbox = hitbox.New(cfg.Hitbox, c, deps.Query, c.svc)
	c.Machine = posture.New(cfg.Posture, posture.Deps{
		Owner:   c,
		Hitbox:  c.Hitbox,
		Hurtbox: c.Hurtbox,
		Mods:    c.Status,
		Mastery: cfg.Mastery,
	}, c.svc)
	c.Reactor = element.NewReactor(cfg.Reactor, cfg.Charge, deps.Table, element.Deps{
		Self:     c,
		Statuses: c.Status,
		Library:  c.lib,
		Env:      deps.Env,
		Hold:     c.Machine,
	}, c.svc)

	c.subs.Add(
		c.Poise.StaggerStarted.Subscribe(func(poise.Event) {
			c.Machine.Stagger()
			c.svc.Present("stagger", c.Position())
		}),
		c.Poise.StaggerRecovered.Subscribe(func(poise.Event) {
			c.Machine.RecoverFromStagger()
		}),
		c.Hurtbox.ParrySuccess.Subscribe(func(ct hitbox.Contact) {
			c.Machine.ParrySucceeded()
			c.svc.Present("parry", c.Position())
			if s, ok := ct.Descriptor.Attacker.(Staggerable); ok && c.cfg.ParryCounter > 0 {
				s.ApplyStagger(c.cfg.ParryCounter)
			}
		}),
		c.Hurtbox.GuardBroken.Subscribe(func(hitbox.Contact) {
			c.Machine.EndBlock()
		}),
	)
	return c
}

func (c *Combatant) ID() combat.EntityID {
	return c.id
}

func (c *Combatant) Name() string {
	return c.cfg.Name
}

func (c *Combatant) Config() Config {
	return c.cfg
}

func (c *Combatant) Position() cp.Vector {
	if c.body != nil {
		return c.body.Position()
	}
	return c.pos
}

func (c *Combatant) SetPosition(p cp.Vector) {
	c.pos = p
	if c.body != nil {
		c.body.SetPosition(p)
	}
}

func (c *Combatant) Facing() float64 {
	return c.facing
}

func (c *Combatant) SetFacing(angle float64) {
	c.facing = angle
}

//FaceTowards turns to look at p; a zero offset keeps the current facing
func (c *Combatant) FaceTowards(p cp.Vector) {
	d := p.Sub(c.Position())
	if d.LengthSq() == 0 {
		return
	}
	c.facing = math.Atan2(d.Y, d.X)
}

//Translate moves the combatant; it is the knockback mover
func (c *Combatant) Translate(delta cp.Vector) {
	c.SetPosition(c.Position().Add(delta))
}

func (c *Combatant) Body() *cp.Body {
	return c.body
}

func (c *Combatant) Health() float64 {
	return c.health
}

func (c *Combatant) MaxHealth() float64 {
	return c.cfg.MaxHealth
}

func (c *Combatant) IsDead() bool {
	return c.dead
}

func (c *Combatant) ElementalCharge() (combat.EleType, float64) {
	return c.Reactor.Charge.Element(), c.Reactor.Charge.Gauge()
}

func (c *Combatant) Statuses() *status.Manager {
	return c.Status
}

func (c *Combatant) Library() status.Library {
	return c.lib
}

func (c *Combatant) AttackPower() float64 {
	return c.cfg.Attack
}

func (c *Combatant) ApplyStagger(amount float64) {
	if c.dead {
		return
	}
	c.Poise.ApplyStagger(amount)
}

func (c *Combatant) defenseProfile() combat.DefenseProfile {
	return combat.DefenseProfile{Defense: c.cfg.Defense, Affinity: c.cfg.Affinity}
}

//TakeDamage runs an admitted hit through reaction, calculator, status
//modifiers, health, poise and knockback in that order
func (c *Combatant) TakeDamage(d combat.Descriptor) {
	if c.dead {
		return
	}
	d = d.WithBase(c.Reactor.TryTrigger(d), "reaction")
	if c.dead {
		//a reaction's own propagation can land back on us
		return
	}
	var amount float64
	if a, ok := d.Attacker.(AttackPower); ok {
		amount = combat.CalculateWithAttack(d, a.AttackPower(), c.defenseProfile())
	} else {
		amount = combat.Calculate(d, c.defenseProfile())
	}
	amount = c.Status.ModifyIncomingDamage(amount)

	c.health = math.Max(0, c.health-amount)
	c.svc.Logger().Debugw("damage taken", "target", c.id, "attacker", d.AttackerID(), "amount", amount, "health", c.health, "trail", d.Trail)
	c.HealthChanged.Emit(HealthEvent{ID: c.id, Current: c.health, Max: c.cfg.MaxHealth})
	c.Damaged.Emit(DamageEvent{
		Target:     c.id,
		Attacker:   d.AttackerID(),
		Amount:     amount,
		Element:    d.Element,
		Critical:   d.Critical,
		Descriptor: d,
	})
	if amount > 0 {
		c.svc.Present("hit", d.Point)
	}
	if c.health <= 0 {
		c.die()
		return
	}
	c.Poise.ApplyStagger(d.Stagger)
	if d.KnockbackForce > 0 {
		c.Knockback.Request(d.KnockbackForce, d.KnockbackDir)
	}
}

//DamageOverTime routes status ticks through the normal damage path
func (c *Combatant) DamageOverTime(d combat.Descriptor) {
	c.TakeDamage(d)
}

func (c *Combatant) Heal(amount float64) {
	if c.dead || amount <= 0 {
		return
	}
	next := math.Min(c.cfg.MaxHealth, c.health+amount)
	if next == c.health {
		return
	}
	c.health = next
	c.HealthChanged.Emit(HealthEvent{ID: c.id, Current: c.health, Max: c.cfg.MaxHealth})
}

func (c *Combatant) die() {
	c.dead = true
	c.svc.Logger().Infow("combatant died", "id", c.id, "name", c.cfg.Name)
	c.svc.Present("death", c.Position())
	c.Teardown()
	c.Died.Emit(c.id)
}

//Teardown cancels owned callbacks, drops internal subscriptions and disarms
//both volumes. Calling it twice is harmless.
func (c *Combatant) Teardown() {
	c.tasks.Close()
	c.subs.Close()
	c.Reactor.Clear()
	c.Knockback.Cancel()
	c.Hitbox.Deactivate()
	c.Hurtbox.SetFilter(hitbox.Invincible)
}

//Pending is the number of scheduled callbacks this combatant still owns
func (c *Combatant) Pending() int {
	return c.tasks.Pending()
}

//Tick advances the frame rate timers
func (c *Combatant) Tick(dt float64) {
	if c.dead {
		return
	}
	c.Status.Tick(dt)
	if c.dead {
		return
	}
	c.Reactor.Tick(dt)
	c.Poise.Tick(dt)
	c.Machine.Tick(dt)
}

//FixedStep advances physics rate work: knockback then the hitbox sweep
func (c *Combatant) FixedStep(dt float64) {
	if c.dead {
		return
	}
	c.Knockback.FixedStep(dt)
	c.Hitbox.FixedStep(dt)
}

//State is the persisted form of a combatant
type State struct {
	Health   float64          `yaml:"Health"`
	Position cp.Vector        `yaml:"Position"`
	Statuses []status.Record  `yaml:"Statuses"`
	Element  element.Snapshot `yaml:"Element"`
	Poise    poise.Snapshot   `yaml:"Poise"`
}

func (c *Combatant) Save() State {
	return State{
		Health:   c.health,
		Position: c.Position(),
		Statuses: c.Status.Snapshot(),
		Element:  c.Reactor.Snapshot(),
		Poise:    c.Poise.Snapshot(),
	}
}

//Load restores s without emitting signals
func (c *Combatant) Load(s State) {
	c.health = math.Min(s.Health, c.cfg.MaxHealth)
	c.SetPosition(s.Position)
	c.Status.Restore(s.Statuses, c.lib)
	c.Reactor.Restore(s.Element)
	c.Poise.Restore(s.Poise)
}
