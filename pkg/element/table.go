package element

import (
	"fmt"

	"github.com/srliao/combatcore/pkg/combat"
	"gopkg.in/yaml.v2"
)

//Kind is the name of a reaction
type Kind string

const (
	None           Kind = ""
	Vaporize       Kind = "vaporize"
	Melt           Kind = "melt"
	Freeze         Kind = "frozen"
	Superconduct   Kind = "superconduct"
	Overload       Kind = "overload"
	ElectroCharged Kind = "electrocharged"
	Swirl          Kind = "swirl"
	Crystallize    Kind = "crystallize"
)

//Dominance says which of the two elements a reaction carries forward
type Dominance string

const (
	Present  Dominance = "present"
	Incoming Dominance = "incoming"
)

type Rule struct {
	Kind           Kind      `yaml:"Kind"`
	Multiplier     float64   `yaml:"Multiplier"`
	EffectDuration float64   `yaml:"EffectDuration"`
	Radius         float64   `yaml:"Radius"`
	Consumes       bool      `yaml:"Consumes"`
	Dominant       Dominance `yaml:"Dominant"`
}

func (r Rule) AoE() bool {
	return r.Radius > 0
}

type pair struct {
	incoming, present combat.EleType
}

//Table maps (incoming, present) to a rule; missing pairs mean no reaction
type Table struct {
	rules map[pair]Rule
}

func NewTable() *Table {
	return &Table{rules: make(map[pair]Rule)}
}

func (t *Table) Set(incoming, present combat.EleType, r Rule) {
	t.rules[pair{incoming, present}] = r
}

//Lookup returns the rule for the pair; ok is false when the pair does not react
func (t *Table) Lookup(incoming, present combat.EleType) (Rule, bool) {
	r, ok := t.rules[pair{incoming, present}]
	if !ok || r.Kind == None {
		return Rule{}, false
	}
	return r, true
}

func (t *Table) Len() int {
	return len(t.rules)
}

func (t *Table) Clone() *Table {
	c := NewTable()
	for k, v := range t.rules {
		c.rules[k] = v
	}
	return c
}

func DefaultTable() *Table {
	t := NewTable()
	f, w, i, l := combat.Fire, combat.Water, combat.Ice, combat.Lightning

	//amplifying
	t.Set(f, w, Rule{Kind: Vaporize, Multiplier: 1.5, Consumes: true})
	t.Set(w, f, Rule{Kind: Vaporize, Multiplier: 2, Consumes: true})
	t.Set(f, i, Rule{Kind: Melt, Multiplier: 2, Consumes: true})
	t.Set(i, f, Rule{Kind: Melt, Multiplier: 1.5, Consumes: true})

	//frozen leaves an ice charge behind so a later fire hit can melt it
	t.Set(w, i, Rule{Kind: Freeze, Multiplier: 1, EffectDuration: 3})
	t.Set(i, w, Rule{Kind: Freeze, Multiplier: 1, EffectDuration: 3})

	t.Set(l, i, Rule{Kind: Superconduct, Multiplier: 1.5, EffectDuration: 8, Radius: 3, Consumes: true})
	t.Set(i, l, Rule{Kind: Superconduct, Multiplier: 1.5, EffectDuration: 8, Radius: 3, Consumes: true})
	t.Set(f, l, Rule{Kind: Overload, Multiplier: 2, Radius: 4, Consumes: true})
	t.Set(l, f, Rule{Kind: Overload, Multiplier: 2, Radius: 4, Consumes: true})
	t.Set(w, l, Rule{Kind: ElectroCharged, Multiplier: 1.2, EffectDuration: 4})
	t.Set(l, w, Rule{Kind: ElectroCharged, Multiplier: 1.2, EffectDuration: 4})

	for _, e := range []combat.EleType{f, w, i, l} {
		t.Set(combat.Wind, e, Rule{Kind: Swirl, Multiplier: 1.2, Radius: 5, Consumes: true, Dominant: Present})
		t.Set(e, combat.Wind, Rule{Kind: Swirl, Multiplier: 1.2, Radius: 5, Consumes: true, Dominant: Incoming})
		t.Set(combat.Earth, e, Rule{Kind: Crystallize, Multiplier: 1, EffectDuration: 15, Consumes: true, Dominant: Present})
		t.Set(e, combat.Earth, Rule{Kind: Crystallize, Multiplier: 1, EffectDuration: 15, Consumes: true, Dominant: Incoming})
	}
	return t
}

//TableEntry is one rule override for an incoming/present pair
type TableEntry struct {
	Incoming combat.EleType `yaml:"Incoming"`
	Present  combat.EleType `yaml:"Present"`
	Rule     `yaml:",inline"`
}

//LoadTable parses yaml rule overrides on top of base
func LoadTable(data []byte, base *Table) (*Table, error) {
	var entries []TableEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing reaction table: %w", err)
	}
	return Override(base, entries)
}

//Override returns a copy of base with entries applied; a rule with an empty
//kind removes the pair
func Override(base *Table, entries []TableEntry) (*Table, error) {
	t := NewTable()
	if base != nil {
		t = base.Clone()
	}
	for i, e := range entries {
		if !e.Incoming.Elemental() || !e.Present.Elemental() {
			return nil, fmt.Errorf("reaction rule %d: invalid element pair %v/%v", i, e.Incoming, e.Present)
		}
		if e.Kind == None {
			delete(t.rules, pair{e.Incoming, e.Present})
			continue
		}
		if e.Dominant == "" {
			e.Dominant = Present
		}
		t.Set(e.Incoming, e.Present, e.Rule)
	}
	return t, nil
}
