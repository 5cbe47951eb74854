package sim

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/posture"
	"github.com/srliao/combatcore/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const duel = `
Label: duel
Duration: 20
Seed: 7
StopWhenDecided: true
Combatants:
  - Name: hero
    Team: player
    Position: {x: 10, y: 10}
  - Name: dummy
    Team: enemy
    MaxHealth: 25
    Position: {x: 11.5, y: 10}
    Facing: 3.14159
Rotation:
  - Combatant: hero
    Action: light
`

func newSim(t *testing.T, src string) *Sim {
	t.Helper()
	p, err := ParseProfile([]byte(src))
	require.NoError(t, err)
	s, err := NewWithLogger(p, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestParseProfile_Defaults(t *testing.T) {
	p, err := ParseProfile([]byte(duel))
	require.NoError(t, err)
	assert.Equal(t, 60, p.FrameRate)
	assert.Equal(t, 50, p.FixedRate)
	assert.Equal(t, 64.0, p.Arena.Width)
	require.Len(t, p.Combatants, 2)

	hero := p.Combatants[0]
	assert.Equal(t, TeamPlayer, hero.Team)
	assert.Equal(t, 100.0, hero.MaxHealth, "unset fields keep combatant defaults")
	assert.Equal(t, 1.5, hero.Reach)
	assert.Equal(t, cp.Vector{X: 10, Y: 10}, hero.Position)
	assert.NotEmpty(t, hero.Posture.Light.Steps)
	assert.Equal(t, 25.0, p.Combatants[1].MaxHealth)

	_, err = ParseProfile([]byte("Duration: [1"))
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	cases := map[string]string{
		"no duration": `
Combatants:
  - Name: a
`,
		"no combatants": `
Duration: 1
`,
		"duplicate": `
Duration: 1
Combatants:
  - Name: a
  - Name: a
`,
		"bad team": `
Duration: 1
Combatants:
  - Name: a
    Team: spectators
`,
		"unknown status": `
Duration: 1
Combatants:
  - Name: a
    Statuses: [cursed]
`,
		"rotation": `
Duration: 1
Combatants:
  - Name: a
Rotation:
  - Combatant: b
    Action: light
`,
		"bad action": `
Duration: 1
Combatants:
  - Name: a
Rotation:
  - Combatant: a
    Action: fireball
`,
		"bad script": `
Duration: 1
Combatants:
  - Name: a
Script: actions+=fireball target=a;
`,
		"script syntax": `
Duration: 1
Combatants:
  - Name: a
Script: actions+=light target=a
`,
		"bad effect override": `
Duration: 1
Combatants:
  - Name: a
Effects:
  - Kind: cursed
`,
	}
	for name, src := range cases {
		p, err := ParseProfile([]byte(src))
		require.NoError(t, err, name)
		_, err = NewWithLogger(p, zap.NewNop().Sugar())
		assert.Error(t, err, name)
	}
}

func TestRun_DuelIsDecided(t *testing.T) {
	s := newSim(t, duel)
	total, stats := s.Run()

	assert.Equal(t, []string{"dummy"}, stats.Deaths)
	assert.Equal(t, []string{"hero"}, stats.Survivors)
	assert.Less(t, stats.Frames, 20*60, "stops once decided")
	assert.Equal(t, total, stats.TotalDamage)
	assert.GreaterOrEqual(t, stats.DamageByAttacker["hero"], 25.0)
	assert.Equal(t, stats.DamageByAttacker["hero"], stats.DamageTaken["dummy"])
	assert.GreaterOrEqual(t, stats.Outcomes["admitted"], 3)
	assert.Positive(t, stats.DPS())
}

func TestRun_SameSeedSameResult(t *testing.T) {
	_, a := newSim(t, duel).Run()
	_, b := newSim(t, duel).Run()
	assert.Equal(t, a, b)
}

func TestRun_InitialStatusAndEffects(t *testing.T) {
	s := newSim(t, `
Duration: 3
Combatants:
  - Name: a
    Team: player
    Statuses: [poison]
    Position: {x: 5, y: 5}
  - Name: b
    Team: enemy
    Position: {x: 40, y: 40}
`)
	_, stats := s.Run()
	assert.Equal(t, 1, stats.EffectsApplied[status.Poison])
	assert.Positive(t, stats.DamageTaken["a"])
	assert.Positive(t, stats.DamageByAttacker["effect"])
	assert.Zero(t, stats.DamageTaken["b"])
}

func TestConditions(t *testing.T) {
	s := newSim(t, duel)
	s.retarget()
	hero := s.find("hero")
	require.NotNil(t, hero)
	require.Equal(t, "dummy", hero.target.c.Name())

	assert.True(t, s.conditionsOk(hero, ActionItem{}))
	assert.True(t, s.conditionsOk(hero, ActionItem{ConditionType: "target posture", ConditionTarget: string(posture.Idle), ConditionBool: true}))
	assert.True(t, s.conditionsOk(hero, ActionItem{ConditionType: "target element", ConditionTarget: string(combat.Fire), ConditionBool: false}))
	assert.False(t, s.conditionsOk(hero, ActionItem{ConditionType: "health lt", ConditionFloat: 0.5}))
	assert.False(t, s.conditionsOk(hero, ActionItem{ConditionType: "nonsense"}))

	hero.target.c.TakeDamage(combat.Descriptor{Base: 1, Element: combat.Fire, Gauge: 1})
	assert.True(t, s.conditionsOk(hero, ActionItem{ConditionType: "target element", ConditionTarget: string(combat.Fire), ConditionBool: true}))
}

func TestExecute_WaitAndCharge(t *testing.T) {
	s := newSim(t, duel)
	s.retarget()
	hero := s.find("hero")

	s.execute(hero, ActionItem{Action: ActionWait, Hold: 0.5})
	assert.Equal(t, 0.5, hero.wait)
	hero.wait = 0

	s.execute(hero, ActionItem{Action: ActionCharge, Hold: 0.25})
	assert.True(t, hero.c.Machine.Is(posture.Charging))
	for i := 0; i < 20; i++ {
		s.think()
		s.Arena.Tick(s.frameDt)
	}
	assert.False(t, hero.c.Machine.Is(posture.Charging), "released after the hold")
}

func TestRun_ScriptedRotation(t *testing.T) {
	s := newSim(t, `
Duration: 20
Seed: 11
StopWhenDecided: true
Combatants:
  - Name: hero
    Team: player
    Position: {x: 10, y: 10}
  - Name: dummy
    Team: enemy
    MaxHealth: 40
    Position: {x: 11.5, y: 10}
Script: |
  actions+=heavy target=hero if=.target.health<0.5;
  actions+=light target=hero if=.target.health>=0.5&&.distance<2;
`)
	hero := s.find("hero")
	require.Len(t, hero.rotation, 2)
	assert.Equal(t, ActionHeavy, hero.rotation[0].Action)
	require.NotNil(t, hero.rotation[1].Cond)

	_, stats := s.Run()
	assert.Equal(t, []string{"dummy"}, stats.Deaths)
}

func TestEnv_Fields(t *testing.T) {
	s := newSim(t, duel)
	s.retarget()
	hero := s.find("hero")
	env := s.env(hero)

	v, ok := env([]string{"health"})
	require.True(t, ok)
	assert.Equal(t, "1", v)
	v, _ = env([]string{"target", "posture"})
	assert.Equal(t, "idle", v)
	v, _ = env([]string{"distance"})
	assert.Equal(t, "1.5", v)
	v, _ = env([]string{"target", "status", "poison"})
	assert.Equal(t, "0", v)
	v, _ = env([]string{"combo"})
	assert.Equal(t, "0", v)
	_, ok = env([]string{"mana"})
	assert.False(t, ok)
	_, ok = env([]string{"target"})
	assert.False(t, ok)

	hero.target.c.Status.Apply(hero.target.c.Library().Get(status.Poison), hero.c.ID())
	v, _ = env([]string{"target", "status", "poison"})
	assert.Equal(t, "1", v)
	v, _ = env([]string{"target", "element"})
	assert.Equal(t, "none", v)
}

func TestRun_OpeningStatusesReachLateSubscribers(t *testing.T) {
	s := newSim(t, `
Duration: 0.5
Combatants:
  - Name: a
    Team: player
    Statuses: [attack_up]
  - Name: b
    Team: enemy
    Position: {x: 40, y: 40}
`)
	a := s.find("a")
	require.NotNil(t, a)
	assert.Nil(t, a.c.Status.Get(status.AttackUp), "nothing applied before Run")

	var seen []status.Kind
	a.c.Status.Applied.Subscribe(func(inst *status.Instance) {
		seen = append(seen, inst.Kind())
	})
	_, stats := s.Run()
	assert.Equal(t, []status.Kind{status.AttackUp}, seen)
	assert.Equal(t, 1, stats.EffectsApplied[status.AttackUp])
	assert.NotNil(t, a.c.Status.Get(status.AttackUp))
}
