package element

import "github.com/srliao/combatcore/pkg/combat"

type ChargeConfig struct {
	Max        float64 `yaml:"Max"`
	DecayDelay float64 `yaml:"DecayDelay"`
	DecayRate  float64 `yaml:"DecayRate"`
}

func DefaultChargeConfig() ChargeConfig {
	return ChargeConfig{
		Max:        2,
		DecayDelay: 2,
		DecayRate:  0.1,
	}
}

//Charge is the element currently imprinted on an entity. The element is
//present iff the gauge is above zero.
type Charge struct {
	cfg     ChargeConfig
	element combat.EleType
	gauge   float64
	idle    float64
}

func NewCharge(cfg ChargeConfig) Charge {
	if cfg.Max <= 0 {
		cfg.Max = 1
	}
	return Charge{cfg: cfg}
}

func (c *Charge) Element() combat.EleType {
	return c.element
}

func (c *Charge) Gauge() float64 {
	return c.gauge
}

func (c *Charge) Present() bool {
	return c.gauge > 0
}

//Imprint replaces whatever is present with e at the given gauge, capped at max
func (c *Charge) Imprint(e combat.EleType, gauge float64) {
	if gauge <= 0 || !e.Elemental() {
		c.Clear()
		return
	}
	if gauge > c.cfg.Max {
		gauge = c.cfg.Max
	}
	c.element = e
	c.gauge = gauge
	c.idle = 0
}

func (c *Charge) Clear() {
	c.element = combat.NoElement
	c.gauge = 0
	c.idle = 0
}

func (c *Charge) Tick(dt float64) {
	if !c.Present() {
		return
	}
	c.idle += dt
	if c.idle <= c.cfg.DecayDelay {
		return
	}
	c.gauge -= c.cfg.DecayRate * dt
	if c.gauge <= 0 {
		c.Clear()
	}
}
