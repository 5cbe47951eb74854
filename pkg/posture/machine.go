package posture

import (
	"context"

	"github.com/jakecoffman/cp"
	"github.com/looplab/fsm"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/hitbox"
)

type Posture string

const (
	Idle       Posture = "idle"
	Attacking  Posture = "attacking"
	Blocking   Posture = "blocking"
	Parrying   Posture = "parrying"
	Dodging    Posture = "dodging"
	Staggered  Posture = "staggered"
	Charging   Posture = "charging"
	Recovering Posture = "recovering"
	Disabled   Posture = "disabled"
)

const (
	evAttack     = "attack"
	evRelease    = "release"
	evRecover    = "recover"
	evSettle     = "settle"
	evBlock      = "block"
	evUnblock    = "unblock"
	evParry      = "parry"
	evParryEnd   = "parry_end"
	evDodge      = "dodge"
	evDodgeEnd   = "dodge_end"
	evStagger    = "stagger"
	evStaggerEnd = "stagger_end"
	evCharge     = "charge"
	evCancel     = "cancel"
	evDisable    = "disable"
	evEnable     = "enable"
)

type Input int

const (
	Light Input = iota
	Heavy
	inputCount
)

func (i Input) String() string {
	if i == Heavy {
		return "heavy"
	}
	return "light"
}

//Activator arms and disarms the attack volume
type Activator interface {
	Activate(d combat.Descriptor)
	Deactivate()
}

type Guard interface {
	SetFilter(f hitbox.Filter)
}

//Modifiers feeds buffs into outgoing attacks
type Modifiers interface {
	ModifyOutgoingDamage(amount float64) float64
	Aggregate() combat.Aggregate
}

type Deps struct {
	Owner   combat.Actor
	Hitbox  Activator
	Hurtbox Guard
	Mods    Modifiers
	Mastery float64
}

type Change struct {
	From, To Posture
}

type AttackEvent struct {
	Input      Input
	Combo      string
	Index      int
	Step       string
	Multiplier float64
	Descriptor combat.Descriptor
}

type ComboEvent struct {
	Combo string
	Hits  int
}

//Machine owns an entity's combat posture. Transitions go through the fsm;
//combo continuation stays inside Attacking and is handled here.
type Machine struct {
	fsm  *fsm.FSM
	cfg  Config
	deps Deps
	svc  combat.Services

	combo   *Combo
	input   Input
	index   int
	step    AttackStep
	bonus   float64
	desc    combat.Descriptor
	elapsed float64
	armed   bool
	fired   bool
	charge  float64
	buffer  [inputCount]bool

	PostureChanged combat.Signal[Change]
	AttackStarted  combat.Signal[AttackEvent]
	ComboEnded     combat.Signal[ComboEvent]
	Dodged         combat.Signal[cp.Vector]
	//ChargeReleased carries the charge ratio in [0, 1]
	ChargeReleased combat.Signal[float64]
}

func New(cfg Config, deps Deps, svc combat.Services) *Machine {
	m := &Machine{
		cfg:   cfg,
		deps:  deps,
		svc:   svc,
		bonus: 1,
	}
	all := []string{
		string(Idle), string(Attacking), string(Blocking), string(Parrying), string(Dodging),
		string(Staggered), string(Charging), string(Recovering),
	}
	m.fsm = fsm.NewFSM(
		string(Idle),
		fsm.Events{
			{Name: evAttack, Src: []string{string(Idle)}, Dst: string(Attacking)},
			{Name: evRelease, Src: []string{string(Charging)}, Dst: string(Attacking)},
			{Name: evRecover, Src: []string{string(Attacking)}, Dst: string(Recovering)},
			{Name: evSettle, Src: []string{string(Recovering)}, Dst: string(Idle)},
			{Name: evBlock, Src: []string{string(Idle)}, Dst: string(Blocking)},
			{Name: evUnblock, Src: []string{string(Blocking), string(Parrying)}, Dst: string(Idle)},
			{Name: evParry, Src: []string{string(Blocking)}, Dst: string(Parrying)},
			{Name: evParryEnd, Src: []string{string(Parrying)}, Dst: string(Blocking)},
			{Name: evDodge, Src: []string{string(Idle), string(Blocking)}, Dst: string(Dodging)},
			{Name: evDodgeEnd, Src: []string{string(Dodging)}, Dst: string(Idle)},
			{Name: evStagger, Src: []string{
				string(Idle), string(Attacking), string(Blocking), string(Parrying),
				string(Charging), string(Recovering),
			}, Dst: string(Staggered)},
			{Name: evStaggerEnd, Src: []string{string(Staggered)}, Dst: string(Idle)},
			{Name: evCharge, Src: []string{string(Idle)}, Dst: string(Charging)},
			{Name: evCancel, Src: []string{string(Charging)}, Dst: string(Idle)},
			{Name: evDisable, Src: all, Dst: string(Disabled)},
			{Name: evEnable, Src: []string{string(Disabled)}, Dst: string(Idle)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.svc.Logger().Debugw("posture", "owner", m.ownerID(), "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return m
}

func (m *Machine) ownerID() combat.EntityID {
	if m.deps.Owner == nil {
		return 0
	}
	return m.deps.Owner.ID()
}

func (m *Machine) Posture() Posture {
	return Posture(m.fsm.Current())
}

func (m *Machine) Is(p Posture) bool {
	return m.Posture() == p
}

//transition fires ev and runs entry logic once the fsm has settled
func (m *Machine) transition(ev string) bool {
	from := m.Posture()
	if err := m.fsm.Event(context.Background(), ev); err != nil {
		m.svc.Logger().Debugw("transition rejected", "owner", m.ownerID(), "event", ev, "from", from, "err", err)
		return false
	}
	to := m.Posture()
	m.elapsed = 0
	if from == Attacking {
		m.disarm()
	}
	switch to {
	case Idle:
		m.combo = nil
		m.index = 0
		m.bonus = 1
		m.charge = 0
	case Staggered, Disabled:
		m.clearBuffer()
		m.charge = 0
	}
	m.applyFilter()
	m.PostureChanged.Emit(Change{From: from, To: to})
	if to == Idle && m.Is(Idle) {
		m.replay()
	}
	return true
}

func (m *Machine) applyFilter() {
	if m.deps.Hurtbox == nil {
		return
	}
	f := hitbox.Vulnerable
	switch m.Posture() {
	case Blocking:
		f = hitbox.Blocking
	case Parrying:
		f = hitbox.Parrying
	case Dodging:
		f = hitbox.Invincible
	case Attacking:
		if m.step.SuperArmor {
			f = hitbox.SuperArmor
		}
	}
	m.deps.Hurtbox.SetFilter(f)
}

func (m *Machine) comboFor(in Input) *Combo {
	if in == Heavy {
		return &m.cfg.Heavy
	}
	return &m.cfg.Light
}

func (m *Machine) LightAttack() bool {
	return m.attack(Light)
}

func (m *Machine) HeavyAttack() bool {
	return m.attack(Heavy)
}

//attack starts, continues or buffers a combo. It returns false when the
//input was rejected outright.
func (m *Machine) attack(in Input) bool {
	switch m.Posture() {
	case Idle:
		c := m.comboFor(in)
		if len(c.Steps) == 0 {
			m.svc.Logger().Debugw("no combo configured", "owner", m.ownerID(), "input", in)
			return false
		}
		m.combo = c
		m.input = in
		m.index = 0
		m.bonus = 1
		m.step = c.Steps[0]
		if !m.transition(evAttack) {
			return false
		}
		m.startStep()
		return true
	case Attacking:
		if in == m.input && m.inWindow() && m.hasNext() {
			m.index++
			m.startStep()
			return true
		}
		m.buffer[in] = true
		return true
	case Recovering, Dodging:
		m.buffer[in] = true
		return true
	}
	m.svc.Logger().Debugw("attack rejected", "owner", m.ownerID(), "posture", m.Posture())
	return false
}

func (m *Machine) startStep() {
	m.disarm()
	m.step = m.combo.Steps[m.index]
	m.elapsed = 0
	m.fired = false
	mult := m.combo.Multiplier(m.index) * m.bonus
	m.desc = m.buildDescriptor(mult)
	m.applyFilter()
	m.AttackStarted.Emit(AttackEvent{
		Input:      m.input,
		Combo:      m.combo.Name,
		Index:      m.index,
		Step:       m.step.Name,
		Multiplier: mult,
		Descriptor: m.desc,
	})
	m.syncHitbox()
}

func (m *Machine) buildDescriptor(mult float64) combat.Descriptor {
	s := m.step
	base := s.Damage * mult
	var agg combat.Aggregate
	if m.deps.Mods != nil {
		base = m.deps.Mods.ModifyOutgoingDamage(base)
		agg = m.deps.Mods.Aggregate()
	}
	rate := s.CritRate + agg.CritRate
	crit := rate >= 1
	if !crit && rate > 0 && m.svc.Rand != nil {
		crit = m.svc.Rand.Float64() < rate
	}
	cm := s.CritMultiplier + agg.CritDamage
	if cm <= 0 {
		cm = 1
	}
	return combat.Descriptor{
		Base:           base,
		Element:        s.Element,
		Gauge:          s.Gauge,
		Mastery:        m.deps.Mastery,
		Attacker:       m.deps.Owner,
		KnockbackForce: s.Knockback,
		Stagger:        s.Stagger,
		Critical:       crit,
		CritMultiplier: cm,
		Parryable:      s.Parryable,
		Blockable:      s.Blockable,
		GuardBreak:     s.GuardBreak,
		ComboIndex:     m.index,
		Trail:          []string{"attack:" + s.Name},
	}
}

func (m *Machine) progress() float64 {
	if m.step.Duration <= 0 {
		return 1
	}
	return m.elapsed / m.step.Duration
}

func (m *Machine) inWindow() bool {
	if !m.Is(Attacking) || m.step.WindowEnd <= 0 {
		return false
	}
	p := m.progress()
	return p >= m.step.WindowStart && p <= m.step.WindowEnd
}

func (m *Machine) hasNext() bool {
	return m.combo != nil && m.index+1 < len(m.combo.Steps)
}

//syncHitbox keeps the hitbox armed only inside the step's active interval;
//a step fires its hitbox at most once
func (m *Machine) syncHitbox() {
	p := m.progress()
	want := m.step.ActiveEnd > m.step.ActiveStart && p >= m.step.ActiveStart && p < m.step.ActiveEnd
	switch {
	case want && !m.armed && !m.fired:
		m.armed = true
		m.fired = true
		if m.deps.Hitbox != nil {
			m.deps.Hitbox.Activate(m.desc)
		}
	case !want && m.armed:
		m.disarm()
	}
}

func (m *Machine) disarm() {
	if !m.armed {
		return
	}
	m.armed = false
	if m.deps.Hitbox != nil {
		m.deps.Hitbox.Deactivate()
	}
}

func (m *Machine) speed() float64 {
	s := 1.0
	if m.deps.Mods != nil {
		s += m.deps.Mods.Aggregate().Speed
	}
	if s < 0.1 {
		s = 0.1
	}
	return s
}

//Tick advances timers by dt seconds
func (m *Machine) Tick(dt float64) {
	switch m.Posture() {
	case Attacking:
		m.elapsed += dt * m.speed()
		m.syncHitbox()
		if m.buffer[m.input] && m.inWindow() && m.hasNext() {
			m.buffer[m.input] = false
			m.index++
			m.startStep()
			return
		}
		if m.progress() >= 1 {
			m.finishCombo()
		}
	case Recovering:
		m.elapsed += dt
		if m.elapsed >= m.cfg.RecoveryDelay {
			m.transition(evSettle)
		}
	case Parrying:
		m.elapsed += dt
		if m.elapsed >= m.cfg.ParryWindow {
			m.transition(evParryEnd)
		}
	case Dodging:
		m.elapsed += dt
		if m.elapsed >= m.cfg.DodgeDuration {
			m.transition(evDodgeEnd)
		}
	case Charging:
		m.charge += dt
		if m.charge > m.cfg.MaxCharge {
			m.charge = m.cfg.MaxCharge
		}
	}
}

func (m *Machine) finishCombo() {
	ev := ComboEvent{Combo: m.combo.Name, Hits: m.index + 1}
	if m.transition(evRecover) {
		m.ComboEnded.Emit(ev)
	}
}

//replay consumes one buffered input once back at Idle
func (m *Machine) replay() {
	for i := Input(0); i < inputCount; i++ {
		if m.buffer[i] {
			m.buffer[i] = false
			m.attack(i)
			return
		}
	}
}

func (m *Machine) clearBuffer() {
	m.buffer = [inputCount]bool{}
}

//Buffered reports whether an input of kind in is waiting to be replayed
func (m *Machine) Buffered(in Input) bool {
	return m.buffer[in]
}

func (m *Machine) StartBlock() bool {
	return m.transition(evBlock)
}

func (m *Machine) EndBlock() bool {
	return m.transition(evUnblock)
}

//TryParry opens the parry window from a block
func (m *Machine) TryParry() bool {
	return m.transition(evParry)
}

//ParrySucceeded closes the parry window early and returns to blocking
func (m *Machine) ParrySucceeded() {
	if m.Is(Parrying) {
		m.transition(evParryEnd)
	}
}

func (m *Machine) Dodge(dir cp.Vector) bool {
	if !m.transition(evDodge) {
		return false
	}
	m.Dodged.Emit(dir)
	return true
}

func (m *Machine) StartCharging() bool {
	if len(m.cfg.Charge.Steps) == 0 {
		return false
	}
	return m.transition(evCharge)
}

//ChargeRatio is the held charge as a fraction of MaxCharge
func (m *Machine) ChargeRatio() float64 {
	if m.cfg.MaxCharge <= 0 {
		return 1
	}
	return m.charge / m.cfg.MaxCharge
}

//ReleaseCharge turns the held charge into the charged attack
func (m *Machine) ReleaseCharge() bool {
	if !m.Is(Charging) {
		return false
	}
	ratio := m.ChargeRatio()
	m.combo = &m.cfg.Charge
	m.input = Heavy
	m.index = 0
	m.step = m.combo.Steps[0]
	if !m.transition(evRelease) {
		return false
	}
	m.bonus = 1 + ratio*m.cfg.ChargeBonus
	m.ChargeReleased.Emit(ratio)
	m.startStep()
	return true
}

func (m *Machine) CancelCharge() bool {
	return m.transition(evCancel)
}

//Stagger pre-empts every posture except dodging and disabled
func (m *Machine) Stagger() bool {
	return m.transition(evStagger)
}

func (m *Machine) RecoverFromStagger() bool {
	return m.transition(evStaggerEnd)
}

//Disable satisfies the element package's immobilizer
func (m *Machine) Disable() {
	if !m.Is(Disabled) {
		m.transition(evDisable)
	}
}

func (m *Machine) Enable() {
	m.transition(evEnable)
}

func (m *Machine) CanAttack() bool {
	switch m.Posture() {
	case Idle:
		return true
	case Attacking:
		return m.inWindow() && m.hasNext()
	}
	return false
}

func (m *Machine) CanBlock() bool {
	return m.fsm.Can(evBlock)
}

func (m *Machine) CanDodge() bool {
	return m.fsm.Can(evDodge)
}

func (m *Machine) CanParry() bool {
	return m.fsm.Can(evParry)
}

//ComboIndex is the current step of the running combo
func (m *Machine) ComboIndex() int {
	return m.index
}

//Descriptor is the descriptor of the current attack step
func (m *Machine) Descriptor() combat.Descriptor {
	return m.desc
}

//HitboxArmed reports whether the current step's active interval is open
func (m *Machine) HitboxArmed() bool {
	return m.armed
}
