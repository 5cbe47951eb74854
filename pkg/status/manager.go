package status

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
)

//Instance is one active effect on one entity
type Instance struct {
	Def             *Definition
	Source          combat.EntityID
	Remaining       float64
	Stacks          int
	ShieldRemaining float64

	sinceTick float64
}

func (i *Instance) Kind() Kind {
	return i.Def.Kind
}

//Sink receives the output of tick callbacks
type Sink interface {
	Heal(amount float64)
	DamageOverTime(d combat.Descriptor)
}

//Owner is the entity the manager belongs to
type Owner interface {
	ID() combat.EntityID
	Position() cp.Vector
}

//Manager keeps at most one instance per kind, in application order
type Manager struct {
	owner   Owner
	sink    Sink
	svc     combat.Services
	effects []*Instance
	agg     combat.Aggregate

	Applied   combat.Signal[*Instance]
	Removed   combat.Signal[*Instance]
	Refreshed combat.Signal[*Instance]
	Stacked   combat.Signal[*Instance]
}

func NewManager(owner Owner, sink Sink, svc combat.Services) *Manager {
	return &Manager{
		owner: owner,
		sink:  sink,
		svc:   svc,
	}
}

func (m *Manager) index(k Kind) int {
	for i, v := range m.effects {
		if v.Def.Kind == k {
			return i
		}
	}
	return -1
}

func (m *Manager) Get(k Kind) *Instance {
	if i := m.index(k); i != -1 {
		return m.effects[i]
	}
	return nil
}

func (m *Manager) Has(k Kind) bool {
	return m.index(k) != -1
}

//Active returns a copy of the active instances in application order
func (m *Manager) Active() []*Instance {
	r := make([]*Instance, len(m.effects))
	copy(r, m.effects)
	return r
}

func (m *Manager) Aggregate() combat.Aggregate {
	return m.agg
}

//Apply adds def or stacks/refreshes the existing instance of its kind.
//Returns nil if the application was rejected.
func (m *Manager) Apply(def *Definition, src combat.EntityID) *Instance {
	log := m.svc.Logger()
	if def == nil {
		log.Debugw("apply called with nil effect definition", "owner", m.owner.ID(), "source", src)
		return nil
	}

	if ex := m.Get(def.Kind); ex != nil {
		switch {
		case def.Stackable && ex.Stacks < def.maxStacks():
			ex.Stacks++
			ex.Def = def
			ex.Remaining = def.Duration
			m.recompute()
			log.Debugw("effect stacked", "owner", m.owner.ID(), "kind", def.Kind, "stacks", ex.Stacks)
			m.Stacked.Emit(ex)
			return ex
		case def.Refreshable:
			ex.Def = def
			ex.Remaining = def.Duration
			log.Debugw("effect refreshed", "owner", m.owner.ID(), "kind", def.Kind)
			m.Refreshed.Emit(ex)
			return ex
		}
		log.Debugw("effect rejected, not stackable or refreshable", "owner", m.owner.ID(), "kind", def.Kind)
		return nil
	}

	if def.Category == Debuff && m.Has(Invincibility) {
		log.Debugw("debuff rejected, target invincible", "owner", m.owner.ID(), "kind", def.Kind)
		return nil
	}

	inst := &Instance{
		Def:       def,
		Source:    src,
		Remaining: def.Duration,
		Stacks:    1,
	}
	if def.Kind == Shield {
		inst.ShieldRemaining = def.Capacity
	}
	m.effects = append(m.effects, inst)
	m.recompute()
	m.svc.Present(def.Cue, m.owner.Position())
	log.Debugw("effect applied", "owner", m.owner.ID(), "kind", def.Kind, "source", src, "duration", def.Duration)
	m.Applied.Emit(inst)
	return inst
}

//ApplyShield applies a shield kind definition and sets its absorption to capacity
func (m *Manager) ApplyShield(def *Definition, src combat.EntityID, capacity float64) *Instance {
	inst := m.Apply(def, src)
	if inst == nil {
		return nil
	}
	inst.ShieldRemaining = capacity
	return inst
}

func (m *Manager) removeAt(i int) {
	inst := m.effects[i]
	m.effects = append(m.effects[:i:i], m.effects[i+1:]...)
	m.recompute()
	m.svc.Logger().Debugw("effect removed", "owner", m.owner.ID(), "kind", inst.Def.Kind)
	m.Removed.Emit(inst)
}

func (m *Manager) Remove(k Kind) bool {
	i := m.index(k)
	if i == -1 {
		return false
	}
	m.removeAt(i)
	return true
}

//RemoveBySource drops every instance applied by src and returns how many went
func (m *Manager) RemoveBySource(src combat.EntityID) int {
	var gone []*Instance
	next := make([]*Instance, 0, len(m.effects))
	for _, v := range m.effects {
		if v.Source == src {
			gone = append(gone, v)
			continue
		}
		next = append(next, v)
	}
	if len(gone) == 0 {
		return 0
	}
	m.effects = next
	m.recompute()
	for _, v := range gone {
		m.Removed.Emit(v)
	}
	return len(gone)
}

//Clear removes everything without firing tick callbacks
func (m *Manager) Clear() {
	gone := m.effects
	m.effects = nil
	m.recompute()
	for _, v := range gone {
		m.Removed.Emit(v)
	}
}

//Tick fires due tick callbacks then expires finished instances
func (m *Manager) Tick(dt float64) {
	for _, inst := range m.Active() {
		//a callback earlier in this loop may have removed it
		if m.Get(inst.Def.Kind) != inst {
			continue
		}
		if inst.Def.TickInterval > 0 {
			inst.sinceTick += dt
			for inst.sinceTick >= inst.Def.TickInterval && m.Get(inst.Def.Kind) == inst {
				inst.sinceTick -= inst.Def.TickInterval
				m.fire(inst)
			}
		}
		if inst.Def.Permanent || m.Get(inst.Def.Kind) != inst {
			continue
		}
		inst.Remaining -= dt
		if inst.Remaining <= 0 {
			m.Remove(inst.Def.Kind)
		}
	}
}

func (m *Manager) fire(inst *Instance) {
	amount := inst.Def.TickValue * float64(inst.Stacks)
	if m.sink == nil || amount <= 0 {
		return
	}
	if inst.Def.Kind == Regeneration {
		m.sink.Heal(amount)
		return
	}
	e, ok := dotElement[inst.Def.Kind]
	if !ok {
		return
	}
	m.sink.DamageOverTime(combat.Descriptor{
		Base:    amount,
		Element: e,
		Point:   m.owner.Position(),
		Trail:   []string{"dot:" + string(inst.Def.Kind)},
	})
}

func (m *Manager) recompute() {
	var a combat.Aggregate
	for _, v := range m.effects {
		x := v.Def.Value * float64(v.Stacks)
		switch v.Def.Kind {
		case AttackUp:
			a.Attack += x
		case AttackDown:
			a.Attack -= x
		case DefenseUp:
			a.Defense += x
		case DefenseDown:
			a.Defense -= x
		case SpeedUp:
			a.Speed += x
		case SpeedDown:
			a.Speed -= x
		case CritRateUp:
			a.CritRate += x
		case CritRateDown:
			a.CritRate -= x
		case CritDamageUp:
			a.CritDamage += x
		case CritDamageDown:
			a.CritDamage -= x
		}
	}
	m.agg = a
}

//ModifyIncomingDamage lets a shield absorb first, then applies the defense aggregate
func (m *Manager) ModifyIncomingDamage(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if s := m.Get(Shield); s != nil {
		absorbed := math.Min(s.ShieldRemaining, amount)
		s.ShieldRemaining -= absorbed
		amount -= absorbed
		if s.ShieldRemaining <= 0 {
			m.Remove(Shield)
		}
	}
	return math.Max(0, amount*(1-m.agg.Defense))
}

func (m *Manager) ModifyOutgoingDamage(amount float64) float64 {
	return math.Max(0, amount*(1+m.agg.Attack))
}

//Record is the persisted form of an instance
type Record struct {
	Kind      Kind            `yaml:"Kind"`
	Source    combat.EntityID `yaml:"Source"`
	Remaining float64         `yaml:"Remaining"`
	Stacks    int             `yaml:"Stacks"`
	Shield    float64         `yaml:"Shield,omitempty"`
}

func (m *Manager) Snapshot() []Record {
	r := make([]Record, 0, len(m.effects))
	for _, v := range m.effects {
		r = append(r, Record{
			Kind:      v.Def.Kind,
			Source:    v.Source,
			Remaining: v.Remaining,
			Stacks:    v.Stacks,
			Shield:    v.ShieldRemaining,
		})
	}
	return r
}

//Restore replaces the active set with recs; kinds missing from lib are skipped.
//No signals fire.
func (m *Manager) Restore(recs []Record, lib Library) {
	m.effects = m.effects[:0]
	for _, v := range recs {
		def := lib.Get(v.Kind)
		if def == nil {
			m.svc.Logger().Debugw("restore skipped unknown effect", "owner", m.owner.ID(), "kind", v.Kind)
			continue
		}
		stacks := v.Stacks
		if stacks < 1 {
			stacks = 1
		}
		if stacks > def.maxStacks() {
			stacks = def.maxStacks()
		}
		m.effects = append(m.effects, &Instance{
			Def:             def,
			Source:          v.Source,
			Remaining:       v.Remaining,
			Stacks:          stacks,
			ShieldRemaining: v.Shield,
		})
	}
	m.recompute()
}
