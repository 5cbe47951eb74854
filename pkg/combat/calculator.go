package combat

import "math"

//MinDamage is the floor applied to every calculated hit
const MinDamage = 1.0

const (
	sameElementMod    = 0.5
	opposedElementMod = 1.5
)

//DefenseProfile is what the calculator needs to know about the target
type DefenseProfile struct {
	Defense  float64 `yaml:"Defense"`
	Affinity EleType `yaml:"Affinity"`
}

//Aggregate is the sum of stat deltas across a target's active effects
type Aggregate struct {
	Attack     float64
	Defense    float64
	Speed      float64
	CritRate   float64
	CritDamage float64
}

//ElementalModifier returns the multiplier of kind hitting a target with the
//given affinity
func ElementalModifier(kind, affinity EleType) float64 {
	switch {
	case kind == True:
		return 1
	case kind == affinity && kind.Elemental():
		return sameElementMod
	case kind.Opposes(affinity):
		return opposedElementMod
	}
	return 1
}

//DefenseModifier maps defense onto the 100/(100+def) curve; negative
//defense is treated as zero
func DefenseModifier(def float64) float64 {
	if def < 0 {
		def = 0
	}
	return 100 / (100 + def)
}

//Calculate returns the final damage of d against target
func Calculate(d Descriptor, target DefenseProfile) float64 {
	dmg := d.Base
	if dmg < 0 {
		dmg = 0
	}
	if d.Critical && d.CritMultiplier > 0 {
		dmg *= d.CritMultiplier
	}
	dmg *= ElementalModifier(d.Element, target.Affinity)
	dmg *= DefenseModifier(target.Defense)
	return math.Max(MinDamage, dmg)
}

//CalculateWithAttack scales the base by 1+attack/100 before running Calculate
func CalculateWithAttack(d Descriptor, attack float64, target DefenseProfile) float64 {
	return Calculate(d.WithBase(d.Base*(1+attack/100), "attack"), target)
}
