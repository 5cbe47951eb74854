package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_NeverBelowFloor(t *testing.T) {
	kinds := []EleType{Physical, Fire, Water, Ice, Lightning, Wind, Earth, Poison, Holy, True}
	for _, base := range []float64{0, 0.1, 1, 7, 250} {
		for _, def := range []float64{0, 50, 1000, 1e9} {
			for _, k := range kinds {
				d := Descriptor{Base: base, Element: k}
				got := Calculate(d, DefenseProfile{Defense: def, Affinity: k})
				assert.GreaterOrEqual(t, got, MinDamage, "base %v def %v kind %v", base, def, k)
			}
		}
	}
}

func TestCalculate_CritExact(t *testing.T) {
	d := Descriptor{Base: 80, Element: Physical, Critical: true, CritMultiplier: 2.5}
	assert.Equal(t, 200.0, Calculate(d, DefenseProfile{}))

	d.Critical = false
	assert.Equal(t, 80.0, Calculate(d, DefenseProfile{}))
}

func TestCalculate_DefenseCurve(t *testing.T) {
	d := Descriptor{Base: 100, Element: Physical}
	assert.InDelta(t, 50.0, Calculate(d, DefenseProfile{Defense: 100}), 1e-9)
	assert.InDelta(t, 100.0, Calculate(d, DefenseProfile{Defense: -40}), 1e-9)
}

func TestElementalModifier(t *testing.T) {
	cases := []struct {
		kind, affinity EleType
		want           float64
	}{
		{Fire, Fire, 0.5},
		{Fire, Ice, 1.5},
		{Ice, Fire, 1.5},
		{Water, Lightning, 1.5},
		{Wind, Earth, 1.5},
		{Holy, Poison, 1.5},
		{Physical, Physical, 1},
		{True, Fire, 1},
		{True, True, 1},
		{Fire, Water, 1},
		{Fire, NoElement, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ElementalModifier(c.kind, c.affinity), "%v vs %v", c.kind, c.affinity)
	}
}

func TestCalculateWithAttack(t *testing.T) {
	d := Descriptor{Base: 100, Element: Physical}
	assert.InDelta(t, 150.0, CalculateWithAttack(d, 50, DefenseProfile{}), 1e-9)
	//the original descriptor is untouched
	assert.Equal(t, 100.0, d.Base)
	assert.Empty(t, d.Trail)
}

func TestDescriptor_DeriveCopies(t *testing.T) {
	d := Descriptor{Base: 10, Stagger: 4, KnockbackForce: 6, Trail: []string{"hitbox"}}
	a := d.Reduced(0.5)
	b := d.WithoutStagger()

	assert.Equal(t, 10.0, d.Base)
	assert.Equal(t, 4.0, d.Stagger)
	assert.Equal(t, 5.0, a.Base)
	assert.Equal(t, 2.0, a.Stagger)
	assert.Equal(t, 3.0, a.KnockbackForce)
	assert.Equal(t, 0.0, b.Stagger)
	assert.Equal(t, []string{"hitbox"}, d.Trail)
	assert.Equal(t, []string{"hitbox", "reduced"}, a.Trail)
	assert.Equal(t, []string{"hitbox", "armored"}, b.Trail)
}

func TestDescriptor_Propagated(t *testing.T) {
	d := Descriptor{Base: 10, Element: Wind, Critical: true, Stagger: 3, KnockbackForce: 2, Depth: 1}
	p := d.Propagated("swirl", 4, Fire, 0.5)
	assert.Equal(t, 2, p.Depth)
	assert.Equal(t, Fire, p.Element)
	assert.Equal(t, 0.5, p.Gauge)
	assert.False(t, p.Critical)
	assert.Zero(t, p.Stagger)
	assert.Zero(t, p.KnockbackForce)
}
