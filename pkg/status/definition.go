package status

import (
	"fmt"

	"github.com/srliao/combatcore/pkg/combat"
	"gopkg.in/yaml.v2"
)

type Kind string

const (
	AttackUp       Kind = "attack_up"
	AttackDown     Kind = "attack_down"
	DefenseUp      Kind = "defense_up"
	DefenseDown    Kind = "defense_down"
	SpeedUp        Kind = "speed_up"
	SpeedDown      Kind = "speed_down"
	CritRateUp     Kind = "crit_rate_up"
	CritRateDown   Kind = "crit_rate_down"
	CritDamageUp   Kind = "crit_damage_up"
	CritDamageDown Kind = "crit_damage_down"
	Shield         Kind = "shield"
	Invincibility  Kind = "invincibility"
	Regeneration   Kind = "regeneration"
	Poison         Kind = "poison"
	Burn           Kind = "burn"
	Bleed          Kind = "bleed"
	Frozen         Kind = "frozen"
)

type Category string

const (
	Buff   Category = "buff"
	Debuff Category = "debuff"
)

//dotElement maps damage over time kinds to the damage kind of their ticks
var dotElement = map[Kind]combat.EleType{
	Poison: combat.Poison,
	Burn:   combat.Fire,
	Bleed:  combat.Physical,
}

//Definition is immutable once loaded; instances only ever point at it
type Definition struct {
	Kind         Kind     `yaml:"Kind"`
	Category     Category `yaml:"Category"`
	Duration     float64  `yaml:"Duration"`
	Permanent    bool     `yaml:"Permanent"`
	Stackable    bool     `yaml:"Stackable"`
	MaxStacks    int      `yaml:"MaxStacks"`
	Refreshable  bool     `yaml:"Refreshable"`
	TickInterval float64  `yaml:"TickInterval"`
	TickValue    float64  `yaml:"TickValue"`
	Value        float64  `yaml:"Value"`
	//Capacity is the default absorption of shield kinds
	Capacity float64 `yaml:"Capacity"`
	Cue      string  `yaml:"Cue"`
}

//WithDuration returns a new definition differing only in duration
func (d *Definition) WithDuration(dur float64) *Definition {
	c := *d
	c.Duration = dur
	return &c
}

func (d *Definition) maxStacks() int {
	if d.MaxStacks < 1 {
		return 1
	}
	return d.MaxStacks
}

//Library holds the effect definitions available to a combat world
type Library map[Kind]*Definition

func (l Library) Get(k Kind) *Definition {
	if l == nil {
		return nil
	}
	return l[k]
}

//DefaultLibrary returns the stock tuning for every kind
func DefaultLibrary() Library {
	defs := []Definition{
		{Kind: AttackUp, Category: Buff, Duration: 10, Stackable: true, MaxStacks: 3, Refreshable: true, Value: 0.1, Cue: "buff_attack"},
		{Kind: AttackDown, Category: Debuff, Duration: 8, Refreshable: true, Value: 0.15},
		{Kind: DefenseUp, Category: Buff, Duration: 10, Refreshable: true, Value: 0.2, Cue: "buff_defense"},
		{Kind: DefenseDown, Category: Debuff, Duration: 8, Refreshable: true, Value: 0.4, Cue: "debuff_defense"},
		{Kind: SpeedUp, Category: Buff, Duration: 6, Refreshable: true, Value: 0.2},
		{Kind: SpeedDown, Category: Debuff, Duration: 4, Refreshable: true, Value: 0.3},
		{Kind: CritRateUp, Category: Buff, Duration: 10, Stackable: true, MaxStacks: 2, Refreshable: true, Value: 0.1},
		{Kind: CritRateDown, Category: Debuff, Duration: 6, Refreshable: true, Value: 0.1},
		{Kind: CritDamageUp, Category: Buff, Duration: 10, Refreshable: true, Value: 0.3},
		{Kind: CritDamageDown, Category: Debuff, Duration: 6, Refreshable: true, Value: 0.2},
		{Kind: Shield, Category: Buff, Duration: 15, Refreshable: true, Capacity: 50, Cue: "shield"},
		{Kind: Invincibility, Category: Buff, Duration: 2},
		{Kind: Regeneration, Category: Buff, Duration: 10, Refreshable: true, TickInterval: 1, TickValue: 5, Cue: "regen"},
		{Kind: Poison, Category: Debuff, Duration: 6, Stackable: true, MaxStacks: 5, Refreshable: true, TickInterval: 1, TickValue: 4, Cue: "poisoned"},
		{Kind: Burn, Category: Debuff, Duration: 4, Refreshable: true, TickInterval: 0.5, TickValue: 3, Cue: "burning"},
		{Kind: Bleed, Category: Debuff, Duration: 5, Stackable: true, MaxStacks: 3, TickInterval: 1, TickValue: 5, Cue: "bleeding"},
		{Kind: Frozen, Category: Debuff, Duration: 3, Refreshable: true, Cue: "frozen"},
	}
	l := make(Library, len(defs))
	for i := range defs {
		l[defs[i].Kind] = &defs[i]
	}
	return l
}

//LoadLibrary parses a yaml list of definitions on top of base
func LoadLibrary(data []byte, base Library) (Library, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing effect definitions: %w", err)
	}
	return base.Merge(defs)
}

//Merge returns a copy of l where each of defs replaces the definition of the
//same kind
func (l Library) Merge(defs []Definition) (Library, error) {
	out := make(Library, len(l)+len(defs))
	for k, v := range l {
		out[k] = v
	}
	for i := range defs {
		d := defs[i]
		if d.Kind == "" {
			return nil, fmt.Errorf("effect definition %d: missing kind", i)
		}
		if d.Category != Buff && d.Category != Debuff {
			return nil, fmt.Errorf("effect %v: invalid category %q", d.Kind, d.Category)
		}
		out[d.Kind] = &d
	}
	return out, nil
}
