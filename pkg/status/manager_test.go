package status

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOwner struct{}

func (testOwner) ID() combat.EntityID { return 7 }
func (testOwner) Position() cp.Vector { return cp.Vector{} }

type testSink struct {
	healed float64
	dots   []combat.Descriptor
}

func (s *testSink) Heal(v float64)                     { s.healed += v }
func (s *testSink) DamageOverTime(d combat.Descriptor) { s.dots = append(s.dots, d) }

func newTestManager() (*Manager, *testSink) {
	sink := &testSink{}
	return NewManager(testOwner{}, sink, combat.Services{}), sink
}

func TestApply_StacksNeverExceedMax(t *testing.T) {
	m, _ := newTestManager()
	lib := DefaultLibrary()
	def := lib.Get(AttackUp)

	stacked := 0
	m.Stacked.Subscribe(func(*Instance) { stacked++ })
	for i := 0; i < 10; i++ {
		require.NotNil(t, m.Apply(def, 1))
	}
	inst := m.Get(AttackUp)
	assert.Equal(t, def.MaxStacks, inst.Stacks)
	assert.Equal(t, def.MaxStacks-1, stacked)
	assert.InDelta(t, def.Value*float64(def.MaxStacks), m.Aggregate().Attack, 1e-9)
}

func TestApply_RefreshAndReject(t *testing.T) {
	m, _ := newTestManager()
	refreshable := &Definition{Kind: DefenseDown, Category: Debuff, Duration: 5, Refreshable: true, Value: 0.4}
	fixed := &Definition{Kind: SpeedUp, Category: Buff, Duration: 5, Value: 0.2}

	refreshed := 0
	m.Refreshed.Subscribe(func(*Instance) { refreshed++ })

	m.Apply(refreshable, 1)
	m.Tick(3)
	require.NotNil(t, m.Apply(refreshable, 1))
	assert.Equal(t, 5.0, m.Get(DefenseDown).Remaining)
	assert.Equal(t, 1, refreshed)

	require.NotNil(t, m.Apply(fixed, 1))
	assert.Nil(t, m.Apply(fixed, 1))
	assert.Equal(t, 1, m.Get(SpeedUp).Stacks)
}

func TestApply_NilDefinitionIsNoop(t *testing.T) {
	m, _ := newTestManager()
	assert.Nil(t, m.Apply(nil, 1))
	assert.Empty(t, m.Active())
}

func TestApply_InvincibleRejectsNewDebuffs(t *testing.T) {
	m, _ := newTestManager()
	lib := DefaultLibrary()
	m.Apply(lib.Get(Invincibility), 1)

	assert.Nil(t, m.Apply(lib.Get(Poison), 2))
	assert.NotNil(t, m.Apply(lib.Get(AttackUp), 2))
	assert.False(t, m.Has(Poison))
}

func TestTick_RoutesRegenAndDot(t *testing.T) {
	m, sink := newTestManager()
	m.Apply(&Definition{Kind: Regeneration, Category: Buff, Duration: 3, TickInterval: 1, TickValue: 5}, 1)
	m.Apply(&Definition{Kind: Burn, Category: Debuff, Duration: 2, TickInterval: 0.5, TickValue: 3}, 2)
	m.Apply(&Definition{Kind: Bleed, Category: Debuff, Duration: 1, TickInterval: 1, TickValue: 2}, 2)

	for i := 0; i < 4; i++ {
		m.Tick(1)
	}
	assert.Equal(t, 15.0, sink.healed)

	var burns, bleeds int
	for _, d := range sink.dots {
		switch d.Element {
		case combat.Fire:
			burns++
			assert.Equal(t, 3.0, d.Base)
		case combat.Physical:
			bleeds++
		}
		assert.Zero(t, d.Gauge)
	}
	assert.Equal(t, 4, burns)
	assert.Equal(t, 1, bleeds)
	assert.Empty(t, m.Active())
}

func TestTick_PoisonScalesWithStacks(t *testing.T) {
	m, sink := newTestManager()
	def := &Definition{Kind: Poison, Category: Debuff, Duration: 10, Stackable: true, MaxStacks: 5, TickInterval: 1, TickValue: 4}
	m.Apply(def, 1)
	m.Apply(def, 1)
	m.Tick(1)
	require.Len(t, sink.dots, 1)
	assert.Equal(t, 8.0, sink.dots[0].Base)
	assert.Equal(t, combat.Poison, sink.dots[0].Element)
}

func TestExpiry_RecomputesAggregate(t *testing.T) {
	m, _ := newTestManager()
	m.Apply(&Definition{Kind: AttackUp, Category: Buff, Duration: 1, Value: 0.3}, 1)
	m.Apply(&Definition{Kind: AttackDown, Category: Debuff, Duration: 5, Value: 0.1}, 2)
	m.Apply(&Definition{Kind: DefenseUp, Category: Buff, Permanent: true, Value: 0.25}, 2)
	assert.InDelta(t, 0.2, m.Aggregate().Attack, 1e-9)

	var removed []Kind
	m.Removed.Subscribe(func(i *Instance) { removed = append(removed, i.Kind()) })
	m.Tick(1.5)
	assert.Equal(t, []Kind{AttackUp}, removed)
	assert.InDelta(t, -0.1, m.Aggregate().Attack, 1e-9)

	m.Tick(100)
	assert.True(t, m.Has(DefenseUp))
	assert.InDelta(t, 0.25, m.Aggregate().Defense, 1e-9)
}

func TestModifyIncomingDamage_ShieldAbsorbsThenPassesThrough(t *testing.T) {
	m, _ := newTestManager()
	m.ApplyShield(DefaultLibrary().Get(Shield), 1, 30)

	assert.Equal(t, 0.0, m.ModifyIncomingDamage(20))
	assert.Equal(t, 10.0, m.Get(Shield).ShieldRemaining)

	assert.Equal(t, 15.0, m.ModifyIncomingDamage(25))
	assert.False(t, m.Has(Shield))

	assert.Equal(t, 40.0, m.ModifyIncomingDamage(40))
}

func TestModifyDamage_Aggregates(t *testing.T) {
	m, _ := newTestManager()
	m.Apply(&Definition{Kind: DefenseDown, Category: Debuff, Duration: 5, Value: 0.4}, 1)
	m.Apply(&Definition{Kind: AttackUp, Category: Buff, Duration: 5, Value: 0.5}, 1)
	assert.InDelta(t, 140.0, m.ModifyIncomingDamage(100), 1e-9)
	assert.InDelta(t, 150.0, m.ModifyOutgoingDamage(100), 1e-9)

	m.Apply(&Definition{Kind: DefenseUp, Category: Buff, Duration: 5, Value: 2}, 1)
	assert.Equal(t, 0.0, m.ModifyIncomingDamage(100))
}

func TestRemoveBySource_KeepsOtherContributions(t *testing.T) {
	m, _ := newTestManager()
	m.Apply(&Definition{Kind: AttackUp, Category: Buff, Duration: 5, Value: 0.2}, 1)
	m.Apply(&Definition{Kind: CritRateUp, Category: Buff, Duration: 5, Value: 0.1}, 2)
	m.Apply(&Definition{Kind: DefenseDown, Category: Debuff, Duration: 5, Value: 0.3}, 1)

	assert.Equal(t, 2, m.RemoveBySource(1))
	agg := m.Aggregate()
	assert.Zero(t, agg.Attack)
	assert.Zero(t, agg.Defense)
	assert.InDelta(t, 0.1, agg.CritRate, 1e-9)
	assert.Zero(t, m.RemoveBySource(1))
}

func TestSnapshotRestore(t *testing.T) {
	m, _ := newTestManager()
	lib := DefaultLibrary()
	m.Apply(lib.Get(Poison), 3)
	m.Apply(lib.Get(Poison), 3)
	m.ApplyShield(lib.Get(Shield), 4, 12)
	m.Tick(0.5)

	recs := m.Snapshot()
	n, _ := newTestManager()
	n.Restore(recs, lib)

	require.Len(t, n.Active(), 2)
	p := n.Get(Poison)
	assert.Equal(t, 2, p.Stacks)
	assert.InDelta(t, lib.Get(Poison).Duration-0.5, p.Remaining, 1e-9)
	assert.Equal(t, 12.0, n.Get(Shield).ShieldRemaining)
	assert.Equal(t, recs, n.Snapshot())
}

func TestLoadLibrary(t *testing.T) {
	src := []byte(`
- Kind: burn
  Category: debuff
  Duration: 9
  TickInterval: 1
  TickValue: 7
- Kind: attack_up
  Category: buff
  Duration: 4
  Value: 0.5
`)
	lib, err := LoadLibrary(src, DefaultLibrary())
	require.NoError(t, err)
	assert.Equal(t, 9.0, lib.Get(Burn).Duration)
	assert.Equal(t, 7.0, lib.Get(Burn).TickValue)
	assert.Equal(t, 0.5, lib.Get(AttackUp).Value)
	assert.NotNil(t, lib.Get(Shield))

	_, err = LoadLibrary([]byte("- Kind: burn\n  Category: nope\n"), nil)
	assert.Error(t, err)
}
