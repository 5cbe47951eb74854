package element

import (
	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/status"
)

type Config struct {
	MasteryScale float64 `yaml:"MasteryScale"`
	//AoEFraction is the share of reaction damage dealt to each entity in the radius
	AoEFraction float64 `yaml:"AoEFraction"`
	SwirlGauge  float64 `yaml:"SwirlGauge"`
	ECTicks     int     `yaml:"ECTicks"`
	ECInterval  float64 `yaml:"ECInterval"`
	//ECTickFraction of the reaction damage hits the carrier every tick
	ECTickFraction float64 `yaml:"ECTickFraction"`
	//ECSpreadFraction of the tick damage hits each nearby water carrier
	ECSpreadFraction    float64 `yaml:"ECSpreadFraction"`
	ECRadius            float64 `yaml:"ECRadius"`
	CrystallizeFraction float64 `yaml:"CrystallizeFraction"`
	MaxChainDepth       int     `yaml:"MaxChainDepth"`
}

func DefaultConfig() Config {
	return Config{
		MasteryScale:        0.5,
		AoEFraction:         0.5,
		SwirlGauge:          0.5,
		ECTicks:             4,
		ECInterval:          1,
		ECTickFraction:      0.25,
		ECSpreadFraction:    0.5,
		ECRadius:            3,
		CrystallizeFraction: 0.5,
		MaxChainDepth:       2,
	}
}

//Neighbor is what the reactor needs from entities around its owner
type Neighbor interface {
	combat.Damageable
	combat.Actor
	ElementalCharge() (combat.EleType, float64)
}

//Environment finds entities for area effects
type Environment interface {
	Nearby(origin cp.Vector, radius float64) []Neighbor
}

//Immobilizer is the posture side of the frozen window
type Immobilizer interface {
	Disable()
	Enable()
}

//ShieldHolder is implemented by attackers that can receive a crystallize shield
type ShieldHolder interface {
	Statuses() *status.Manager
}

type Deps struct {
	Self     Neighbor
	Statuses *status.Manager
	Library  status.Library
	Env      Environment
	Hold     Immobilizer
}

type Reaction struct {
	Kind     Kind
	Incoming combat.EleType
	Present  combat.EleType
	Damage   float64
	Target   combat.EntityID
	Attacker combat.EntityID
}

type ShieldEvent struct {
	Holder   combat.EntityID
	Capacity float64
}

type AoEEvent struct {
	Kind    Kind
	Origin  cp.Vector
	Radius  float64
	Element combat.EleType
	Targets []combat.EntityID
}

//Reactor owns one entity's elemental charge and resolves reactions against it
type Reactor struct {
	Charge Charge

	cfg   Config
	table *Table
	deps  Deps
	svc   combat.Services

	frozen   bool
	thawTok  combat.CancelToken
	ecTokens []combat.CancelToken

	ReactionTriggered combat.Signal[Reaction]
	FrozenStarted     combat.Signal[Reaction]
	Thawed            combat.Signal[combat.EntityID]
	ShieldCreated     combat.Signal[ShieldEvent]
	AoETriggered      combat.Signal[AoEEvent]
}

func NewReactor(cfg Config, charge ChargeConfig, table *Table, deps Deps, svc combat.Services) *Reactor {
	if table == nil {
		table = DefaultTable()
	}
	if deps.Library == nil {
		deps.Library = status.DefaultLibrary()
	}
	return &Reactor{
		Charge: NewCharge(charge),
		cfg:    cfg,
		table:  table,
		deps:   deps,
		svc:    svc,
	}
}

func (r *Reactor) Frozen() bool {
	return r.frozen
}

func (r *Reactor) self() combat.EntityID {
	if r.deps.Self == nil {
		return 0
	}
	return r.deps.Self.ID()
}

func (r *Reactor) origin() cp.Vector {
	if r.deps.Self == nil {
		return cp.Vector{}
	}
	return r.deps.Self.Position()
}

//TryTrigger resolves d against the present charge and returns the damage the
//hit should continue with
func (r *Reactor) TryTrigger(d combat.Descriptor) float64 {
	log := r.svc.Logger()
	if d.Gauge <= 0 || !d.Element.Elemental() {
		return d.Base
	}
	if !r.Charge.Present() {
		r.Charge.Imprint(d.Element, d.Gauge)
		log.Debugw("element imprinted", "target", r.self(), "element", d.Element, "gauge", r.Charge.Gauge())
		return d.Base
	}

	present := r.Charge.Element()
	rule, ok := r.table.Lookup(d.Element, present)
	if !ok {
		r.Charge.Imprint(d.Element, d.Gauge)
		log.Debugw("element replaced", "target", r.self(), "present", present, "incoming", d.Element)
		return d.Base
	}

	dmg := d.Base * rule.Multiplier * (1 + d.Mastery/100*r.cfg.MasteryScale)
	ev := Reaction{
		Kind:     rule.Kind,
		Incoming: d.Element,
		Present:  present,
		Damage:   dmg,
		Target:   r.self(),
		Attacker: d.AttackerID(),
	}
	log.Debugw("reaction triggered", "target", ev.Target, "kind", ev.Kind, "incoming", ev.Incoming, "present", ev.Present, "damage", dmg)

	r.dispatch(rule, d, ev)
	if rule.Consumes {
		r.Charge.Clear()
	}
	r.svc.Present(string(rule.Kind), r.origin())
	r.ReactionTriggered.Emit(ev)
	return dmg
}

func (r *Reactor) dispatch(rule Rule, d combat.Descriptor, ev Reaction) {
	switch rule.Kind {
	case Melt:
		if r.frozen {
			r.thaw()
		}
	case Freeze:
		r.freeze(rule, ev)
	case Superconduct:
		if r.deps.Statuses != nil {
			def := r.deps.Library.Get(status.DefenseDown)
			if def != nil {
				def = def.WithDuration(rule.EffectDuration)
			}
			r.deps.Statuses.Apply(def, ev.Attacker)
		}
	case Crystallize:
		r.crystallize(rule, d, ev)
	case ElectroCharged:
		r.electroCharge(d, ev)
	}

	if rule.AoE() {
		r.radiate(rule, d, ev)
	}
}

func (r *Reactor) freeze(rule Rule, ev Reaction) {
	if r.deps.Statuses != nil {
		def := r.deps.Library.Get(status.Frozen)
		if def != nil {
			def = def.WithDuration(rule.EffectDuration)
		}
		if r.deps.Statuses.Apply(def, ev.Attacker) == nil {
			return
		}
	}
	//the frozen aura reads as ice for later reactions
	r.Charge.Imprint(combat.Ice, r.Charge.Gauge())

	if r.thawTok != 0 {
		r.svc.Scheduler.Cancel(r.thawTok)
		r.thawTok = 0
	}
	if !r.frozen {
		r.frozen = true
		if r.deps.Hold != nil {
			r.deps.Hold.Disable()
		}
		r.FrozenStarted.Emit(ev)
	}
	if r.svc.Scheduler != nil {
		r.thawTok = r.svc.Scheduler.Schedule(rule.EffectDuration, "thaw", func() {
			r.thawTok = 0
			r.thaw()
		})
	}
}

func (r *Reactor) thaw() {
	if !r.frozen {
		return
	}
	if r.thawTok != 0 {
		r.svc.Scheduler.Cancel(r.thawTok)
		r.thawTok = 0
	}
	r.frozen = false
	if r.deps.Statuses != nil {
		r.deps.Statuses.Remove(status.Frozen)
	}
	if r.deps.Hold != nil {
		r.deps.Hold.Enable()
	}
	r.svc.Logger().Debugw("thawed", "target", r.self())
	r.Thawed.Emit(r.self())
}

func (r *Reactor) crystallize(rule Rule, d combat.Descriptor, ev Reaction) {
	holder, ok := d.Attacker.(ShieldHolder)
	if !ok || holder.Statuses() == nil {
		r.svc.Logger().Debugw("crystallize without a shield holder", "target", r.self(), "attacker", ev.Attacker)
		return
	}
	def := r.deps.Library.Get(status.Shield)
	if def == nil {
		r.svc.Logger().Debugw("crystallize without a shield definition", "target", r.self())
		return
	}
	capacity := ev.Damage * r.cfg.CrystallizeFraction
	if rule.EffectDuration > 0 {
		def = def.WithDuration(rule.EffectDuration)
	}
	if holder.Statuses().ApplyShield(def, r.self(), capacity) == nil {
		return
	}
	r.ShieldCreated.Emit(ShieldEvent{Holder: ev.Attacker, Capacity: capacity})
}

func (r *Reactor) electroCharge(d combat.Descriptor, ev Reaction) {
	r.stopElectroCharge()
	if r.svc.Scheduler == nil || r.deps.Self == nil {
		return
	}
	tick := d.Propagated("electrocharged", ev.Damage*r.cfg.ECTickFraction, combat.Lightning, 0)
	for i := 1; i <= r.cfg.ECTicks; i++ {
		tok := r.svc.Scheduler.Schedule(float64(i)*r.cfg.ECInterval, "electrocharged tick", func() {
			//ticks fire in schedule order so the head is always this one
			if len(r.ecTokens) > 0 {
				r.ecTokens = r.ecTokens[1:]
			}
			r.electroTick(tick)
		})
		r.ecTokens = append(r.ecTokens, tok)
	}
}

func (r *Reactor) electroTick(tick combat.Descriptor) {
	self := r.deps.Self
	if self.IsDead() {
		return
	}
	self.TakeDamage(tick)
	if r.deps.Env == nil || tick.Depth > r.cfg.MaxChainDepth {
		return
	}
	spread := tick.Propagated("electrocharged spread", tick.Base*r.cfg.ECSpreadFraction, combat.Lightning, 0)
	for _, n := range r.deps.Env.Nearby(self.Position(), r.cfg.ECRadius) {
		if n.ID() == self.ID() || n.IsDead() {
			continue
		}
		if e, g := n.ElementalCharge(); e != combat.Water || g <= 0 {
			continue
		}
		n.TakeDamage(spread)
	}
}

func (r *Reactor) stopElectroCharge() {
	for _, tok := range r.ecTokens {
		if r.svc.Scheduler != nil {
			r.svc.Scheduler.Cancel(tok)
		}
	}
	r.ecTokens = nil
}

//ElectroCharging reports whether electro-charged ticks are still scheduled
func (r *Reactor) ElectroCharging() bool {
	return len(r.ecTokens) > 0
}

func (r *Reactor) radiate(rule Rule, d combat.Descriptor, ev Reaction) {
	if r.deps.Env == nil {
		return
	}
	if d.Depth >= r.cfg.MaxChainDepth {
		r.svc.Logger().Debugw("reaction aoe suppressed at max depth", "target", r.self(), "kind", rule.Kind, "depth", d.Depth)
		return
	}
	e, gauge := ev.Incoming, 0.0
	if rule.Kind == Swirl {
		gauge = r.cfg.SwirlGauge
		if rule.Dominant == Present {
			e = ev.Present
		}
	}
	hit := d.Propagated(string(rule.Kind), ev.Damage*r.cfg.AoEFraction, e, gauge)
	hit.Point = r.origin()

	aoe := AoEEvent{Kind: rule.Kind, Origin: r.origin(), Radius: rule.Radius, Element: e}
	for _, n := range r.deps.Env.Nearby(aoe.Origin, rule.Radius) {
		if n.ID() == r.self() || n.IsDead() {
			continue
		}
		aoe.Targets = append(aoe.Targets, n.ID())
		n.TakeDamage(hit)
	}
	r.AoETriggered.Emit(aoe)
}

func (r *Reactor) Tick(dt float64) {
	r.Charge.Tick(dt)
	//electro-charged ends early once either element is gone
	if len(r.ecTokens) > 0 && r.Charge.Element() != combat.Water && r.Charge.Element() != combat.Lightning {
		r.stopElectroCharge()
	}
}

//Clear drops the charge and ends any running reaction effects
func (r *Reactor) Clear() {
	r.Charge.Clear()
	r.stopElectroCharge()
	r.thaw()
}

type Snapshot struct {
	Element combat.EleType `yaml:"Element"`
	Gauge   float64        `yaml:"Gauge"`
}

func (r *Reactor) Snapshot() Snapshot {
	return Snapshot{Element: r.Charge.Element(), Gauge: r.Charge.Gauge()}
}

func (r *Reactor) Restore(s Snapshot) {
	r.Charge.Imprint(s.Element, s.Gauge)
}
