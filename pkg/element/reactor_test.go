package element

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dummy struct {
	id      combat.EntityID
	pos     cp.Vector
	element combat.EleType
	gauge   float64
	hits    []combat.Descriptor
	dead    bool
	reactor *Reactor
	status  *status.Manager
}

func (d *dummy) ID() combat.EntityID       { return d.id }
func (d *dummy) Position() cp.Vector       { return d.pos }
func (d *dummy) IsDead() bool              { return d.dead }
func (d *dummy) Statuses() *status.Manager { return d.status }
func (d *dummy) TakeDamage(h combat.Descriptor) {
	d.hits = append(d.hits, h)
	if d.reactor != nil {
		d.reactor.TryTrigger(h)
	}
}
func (d *dummy) ElementalCharge() (combat.EleType, float64) {
	if d.reactor != nil {
		return d.reactor.Charge.Element(), d.reactor.Charge.Gauge()
	}
	return d.element, d.gauge
}

type world []Neighbor

func (w world) Nearby(origin cp.Vector, radius float64) []Neighbor {
	var r []Neighbor
	for _, n := range w {
		if n.Position().Sub(origin).Length() <= radius {
			r = append(r, n)
		}
	}
	return r
}

type hold struct{ disabled, enabled int }

func (h *hold) Disable() { h.disabled++ }
func (h *hold) Enable()  { h.enabled++ }

type rig struct {
	q      *combat.TaskQueue
	target *dummy
	r      *Reactor
	st     *status.Manager
	hold   *hold
}

func newRig(env world) *rig {
	q := combat.NewTaskQueue(nil)
	svc := combat.Services{Scheduler: q}
	target := &dummy{id: 1}
	st := status.NewManager(target, nil, svc)
	h := &hold{}
	r := NewReactor(DefaultConfig(), DefaultChargeConfig(), DefaultTable(), Deps{
		Self:     target,
		Statuses: st,
		Env:      env,
		Hold:     h,
	}, svc)
	target.reactor = r
	return &rig{q: q, target: target, r: r, st: st, hold: h}
}

func hit(e combat.EleType, base float64) combat.Descriptor {
	return combat.Descriptor{Base: base, Element: e, Gauge: 1}
}

func TestTryTrigger_ImprintReturnsBase(t *testing.T) {
	g := newRig(nil)
	assert.Equal(t, 40.0, g.r.TryTrigger(hit(combat.Fire, 40)))
	assert.Equal(t, combat.Fire, g.r.Charge.Element())
	assert.Equal(t, 1.0, g.r.Charge.Gauge())
}

func TestTryTrigger_ZeroGaugeIgnored(t *testing.T) {
	g := newRig(nil)
	d := hit(combat.Fire, 40)
	d.Gauge = 0
	assert.Equal(t, 40.0, g.r.TryTrigger(d))
	assert.False(t, g.r.Charge.Present())
}

func TestTryTrigger_VaporizeConsumes(t *testing.T) {
	g := newRig(nil)
	var got []Reaction
	g.r.ReactionTriggered.Subscribe(func(r Reaction) { got = append(got, r) })

	g.r.TryTrigger(hit(combat.Fire, 10))
	dmg := g.r.TryTrigger(hit(combat.Water, 10))

	require.Len(t, got, 1)
	assert.Equal(t, Vaporize, got[0].Kind)
	assert.Equal(t, 20.0, dmg)
	assert.Equal(t, dmg, got[0].Damage)
	assert.False(t, g.r.Charge.Present())
	assert.Equal(t, combat.NoElement, g.r.Charge.Element())
}

func TestTryTrigger_MasteryScaling(t *testing.T) {
	g := newRig(nil)
	g.r.TryTrigger(hit(combat.Water, 10))
	d := hit(combat.Fire, 10)
	d.Mastery = 100
	//10 * 1.5 * (1 + 100/100*0.5)
	assert.InDelta(t, 22.5, g.r.TryTrigger(d), 1e-9)
}

func TestTryTrigger_SameElementReplaces(t *testing.T) {
	g := newRig(nil)
	fired := 0
	g.r.ReactionTriggered.Subscribe(func(Reaction) { fired++ })
	g.r.TryTrigger(hit(combat.Fire, 10))
	g.r.Charge.Tick(5)
	d := hit(combat.Fire, 10)
	d.Gauge = 2
	assert.Equal(t, 10.0, g.r.TryTrigger(d))
	assert.Zero(t, fired)
	assert.Equal(t, 2.0, g.r.Charge.Gauge())

	//the replacing hit restarts the decay delay
	g.r.Charge.Tick(1.5)
	assert.Equal(t, 2.0, g.r.Charge.Gauge())
}

func TestFrozen_ImmobilizesAndThawsOnTimer(t *testing.T) {
	g := newRig(nil)
	thawed := 0
	g.r.Thawed.Subscribe(func(combat.EntityID) { thawed++ })

	g.r.TryTrigger(hit(combat.Water, 10))
	g.r.TryTrigger(hit(combat.Ice, 10))

	assert.True(t, g.r.Frozen())
	assert.True(t, g.st.Has(status.Frozen))
	assert.Equal(t, 1, g.hold.disabled)

	g.q.Advance(3.1)
	assert.False(t, g.r.Frozen())
	assert.False(t, g.st.Has(status.Frozen))
	assert.Equal(t, 1, g.hold.enabled)
	assert.Equal(t, 1, thawed)
}

func TestFrozen_MeltBreaksEarly(t *testing.T) {
	g := newRig(nil)
	var kinds []Kind
	g.r.ReactionTriggered.Subscribe(func(r Reaction) { kinds = append(kinds, r.Kind) })

	g.r.TryTrigger(hit(combat.Water, 10))
	g.r.TryTrigger(hit(combat.Ice, 10))
	require.True(t, g.r.Frozen())

	g.q.Advance(0.5)
	g.r.TryTrigger(hit(combat.Fire, 10))
	assert.Equal(t, []Kind{Freeze, Melt}, kinds)
	assert.False(t, g.r.Frozen())
	assert.Equal(t, 1, g.hold.enabled)
	assert.Zero(t, g.q.Pending())
}

func TestSuperconduct_AppliesDefenseDown(t *testing.T) {
	g := newRig(nil)
	g.r.TryTrigger(hit(combat.Ice, 10))
	g.r.TryTrigger(hit(combat.Lightning, 10))

	inst := g.st.Get(status.DefenseDown)
	require.NotNil(t, inst)
	assert.Equal(t, 8.0, inst.Remaining)
	assert.Less(t, g.st.Aggregate().Defense, 0.0)
}

func TestCrystallize_ShieldMatchesComputedValue(t *testing.T) {
	g := newRig(nil)
	attacker := &dummy{id: 9}
	attacker.status = status.NewManager(attacker, nil, combat.Services{})

	var shields []ShieldEvent
	g.r.ShieldCreated.Subscribe(func(e ShieldEvent) { shields = append(shields, e) })

	g.r.TryTrigger(hit(combat.Fire, 10))
	d := hit(combat.Earth, 40)
	d.Attacker = attacker
	dmg := g.r.TryTrigger(d)

	require.Len(t, shields, 1)
	want := dmg * DefaultConfig().CrystallizeFraction
	assert.Equal(t, want, shields[0].Capacity)
	assert.Equal(t, combat.EntityID(9), shields[0].Holder)

	sm := attacker.status
	assert.Equal(t, 0.0, sm.ModifyIncomingDamage(want-1))
	assert.Equal(t, 4.0, sm.ModifyIncomingDamage(5))
	assert.False(t, sm.Has(status.Shield))
	assert.Equal(t, 5.0, sm.ModifyIncomingDamage(5))
}

func TestElectroCharged_TicksAndSpreads(t *testing.T) {
	wet := &dummy{id: 2, pos: cp.Vector{X: 1}, element: combat.Water, gauge: 1}
	dry := &dummy{id: 3, pos: cp.Vector{X: 1}}
	far := &dummy{id: 4, pos: cp.Vector{X: 50}, element: combat.Water, gauge: 1}
	env := world{}
	g := newRig(nil)
	g.r.deps.Env = append(env, g.target, wet, dry, far)

	g.r.TryTrigger(hit(combat.Water, 10))
	dmg := g.r.TryTrigger(hit(combat.Lightning, 10))
	assert.Equal(t, combat.Water, g.r.Charge.Element())
	assert.True(t, g.r.ElectroCharging())

	g.q.Advance(4.5)
	cfg := DefaultConfig()
	require.Len(t, g.target.hits, cfg.ECTicks)
	assert.InDelta(t, dmg*cfg.ECTickFraction, g.target.hits[0].Base, 1e-9)
	assert.Zero(t, g.target.hits[0].Gauge)
	assert.Len(t, wet.hits, cfg.ECTicks)
	assert.InDelta(t, dmg*cfg.ECTickFraction*cfg.ECSpreadFraction, wet.hits[0].Base, 1e-9)
	assert.Empty(t, dry.hits)
	assert.Empty(t, far.hits)
	assert.False(t, g.r.ElectroCharging())
}

func TestElectroCharged_ClearCancelsTicks(t *testing.T) {
	g := newRig(nil)
	g.r.TryTrigger(hit(combat.Water, 10))
	g.r.TryTrigger(hit(combat.Lightning, 10))
	g.q.Advance(1.5)
	require.Len(t, g.target.hits, 1)

	g.r.Clear()
	g.q.Advance(10)
	assert.Len(t, g.target.hits, 1)
	assert.Zero(t, g.q.Pending())
}

func TestSwirl_PropagatesPresentElement(t *testing.T) {
	a := &dummy{id: 2, pos: cp.Vector{X: 2}}
	b := &dummy{id: 3, pos: cp.Vector{X: -3}}
	g := newRig(nil)
	nb := newRig(nil)
	a.reactor = nb.r
	g.r.deps.Env = world{g.target, a, b}

	var aoe []AoEEvent
	g.r.AoETriggered.Subscribe(func(e AoEEvent) { aoe = append(aoe, e) })

	g.r.TryTrigger(hit(combat.Fire, 10))
	dmg := g.r.TryTrigger(hit(combat.Wind, 10))

	require.Len(t, aoe, 1)
	assert.Equal(t, combat.Fire, aoe[0].Element)
	assert.Equal(t, []combat.EntityID{2, 3}, aoe[0].Targets)
	require.Len(t, a.hits, 1)
	assert.Equal(t, combat.Fire, a.hits[0].Element)
	assert.Equal(t, DefaultConfig().SwirlGauge, a.hits[0].Gauge)
	assert.InDelta(t, dmg*DefaultConfig().AoEFraction, a.hits[0].Base, 1e-9)
	assert.Equal(t, 1, a.hits[0].Depth)
	assert.Equal(t, combat.Fire, nb.r.Charge.Element())
	assert.Empty(t, g.target.hits)
}

func TestAoE_StopsAtMaxDepth(t *testing.T) {
	other := &dummy{id: 2, pos: cp.Vector{X: 1}}
	g := newRig(world{})
	g.r.deps.Env = world{g.target, other}

	g.r.TryTrigger(hit(combat.Lightning, 10))
	d := hit(combat.Fire, 10)
	d.Depth = DefaultConfig().MaxChainDepth
	g.r.TryTrigger(d)
	assert.Empty(t, other.hits)
}

func TestTable_Symmetry(t *testing.T) {
	tb := DefaultTable()
	fw, ok := tb.Lookup(combat.Fire, combat.Water)
	require.True(t, ok)
	wf, ok := tb.Lookup(combat.Water, combat.Fire)
	require.True(t, ok)
	assert.Equal(t, Vaporize, fw.Kind)
	assert.Equal(t, Vaporize, wf.Kind)

	_, ok = tb.Lookup(combat.Fire, combat.Fire)
	assert.False(t, ok)

	sw, _ := tb.Lookup(combat.Wind, combat.Ice)
	ws, _ := tb.Lookup(combat.Ice, combat.Wind)
	assert.Equal(t, Present, sw.Dominant)
	assert.Equal(t, Incoming, ws.Dominant)
}

func TestLoadTable_Overrides(t *testing.T) {
	src := []byte(`
- Incoming: fire
  Present: water
  Kind: vaporize
  Multiplier: 3
  Consumes: true
- Incoming: water
  Present: fire
  Kind: ""
- Incoming: poison
  Present: holy
  Kind: purify
  Multiplier: 1.8
  Radius: 2
`)
	tb, err := LoadTable(src, DefaultTable())
	require.NoError(t, err)

	r, ok := tb.Lookup(combat.Fire, combat.Water)
	require.True(t, ok)
	assert.Equal(t, 3.0, r.Multiplier)
	_, ok = tb.Lookup(combat.Water, combat.Fire)
	assert.False(t, ok)
	r, ok = tb.Lookup(combat.Poison, combat.Holy)
	require.True(t, ok)
	assert.Equal(t, Present, r.Dominant)

	_, err = LoadTable([]byte("- Incoming: physical\n  Present: fire\n  Kind: x\n"), nil)
	assert.Error(t, err)
}

func TestCharge_DecayAfterDelay(t *testing.T) {
	c := NewCharge(ChargeConfig{Max: 2, DecayDelay: 1, DecayRate: 0.5})
	c.Imprint(combat.Water, 5)
	assert.Equal(t, 2.0, c.Gauge())

	c.Tick(1)
	assert.Equal(t, 2.0, c.Gauge())
	c.Tick(2)
	assert.Equal(t, 1.0, c.Gauge())
	c.Tick(2)
	assert.False(t, c.Present())
	assert.Equal(t, combat.NoElement, c.Element())
}
