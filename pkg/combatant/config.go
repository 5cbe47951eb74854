package combatant

import (
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
	"github.com/srliao/combatcore/pkg/poise"
	"github.com/srliao/combatcore/pkg/posture"
)

type Config struct {
	Name      string         `yaml:"Name"`
	MaxHealth float64        `yaml:"MaxHealth"`
	Defense   float64        `yaml:"Defense"`
	Affinity  combat.EleType `yaml:"Affinity"`
	//Attack is a percentage bonus applied to every hit this combatant lands
	Attack  float64 `yaml:"Attack"`
	Mastery float64 `yaml:"Mastery"`

	Layer          hitbox.Layer `yaml:"Layer"`
	Radius         float64      `yaml:"Radius"`
	Mass           float64      `yaml:"Mass"`
	BlockReduction float64      `yaml:"BlockReduction"`
	//ParryCounter is the poise damage dealt back to a parried attacker
	ParryCounter float64 `yaml:"ParryCounter"`

	Poise     poise.Config          `yaml:"Poise"`
	Knockback poise.KnockbackConfig `yaml:"Knockback"`
	Hitbox    hitbox.Config         `yaml:"Hitbox"`
	Posture   posture.Config        `yaml:"Posture"`
	Charge    element.ChargeConfig  `yaml:"Charge"`
	Reactor   element.Config        `yaml:"Reactor"`
}

func DefaultConfig() Config {
	return Config{
		Name:           "combatant",
		MaxHealth:      100,
		Layer:          hitbox.LayerNeutral,
		Radius:         0.5,
		Mass:           1,
		BlockReduction: hitbox.DefaultBlockReduction,
		ParryCounter:   40,
		Poise:          poise.DefaultConfig(),
		Knockback:      poise.DefaultKnockbackConfig(),
		Hitbox:         hitbox.DefaultConfig(),
		Posture:        posture.DefaultConfig(),
		Charge:         element.DefaultChargeConfig(),
		Reactor:        element.DefaultConfig(),
	}
}
