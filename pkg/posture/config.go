package posture

import (
	"fmt"
	"math"

	"github.com/srliao/combatcore/pkg/combat"
	"gopkg.in/yaml.v2"
)

//AttackStep is one swing of a combo. Active and window bounds are fractions
//of the step's duration.
type AttackStep struct {
	Name           string         `yaml:"Name"`
	Duration       float64        `yaml:"Duration"`
	ActiveStart    float64        `yaml:"ActiveStart"`
	ActiveEnd      float64        `yaml:"ActiveEnd"`
	WindowStart    float64        `yaml:"WindowStart"`
	WindowEnd      float64        `yaml:"WindowEnd"`
	Damage         float64        `yaml:"Damage"`
	Element        combat.EleType `yaml:"Element"`
	Gauge          float64        `yaml:"Gauge"`
	Knockback      float64        `yaml:"Knockback"`
	Stagger        float64        `yaml:"Stagger"`
	CritRate       float64        `yaml:"CritRate"`
	CritMultiplier float64        `yaml:"CritMultiplier"`
	Parryable      bool           `yaml:"Parryable"`
	Blockable      bool           `yaml:"Blockable"`
	GuardBreak     bool           `yaml:"GuardBreak"`
	SuperArmor     bool           `yaml:"SuperArmor"`
}

type Combo struct {
	Name          string       `yaml:"Name"`
	Steps         []AttackStep `yaml:"Steps"`
	ScalingBase   float64      `yaml:"ScalingBase"`
	CapMultiplier float64      `yaml:"CapMultiplier"`
}

//Multiplier for combo position i is min(base^i, cap)
func (c *Combo) Multiplier(i int) float64 {
	if c.ScalingBase <= 0 {
		return 1
	}
	v := math.Pow(c.ScalingBase, float64(i))
	if c.CapMultiplier > 0 && v > c.CapMultiplier {
		v = c.CapMultiplier
	}
	return v
}

type Config struct {
	Light  Combo `yaml:"Light"`
	Heavy  Combo `yaml:"Heavy"`
	Charge Combo `yaml:"Charge"`

	RecoveryDelay float64 `yaml:"RecoveryDelay"`
	ParryWindow   float64 `yaml:"ParryWindow"`
	DodgeDuration float64 `yaml:"DodgeDuration"`
	MaxCharge     float64 `yaml:"MaxCharge"`
	//ChargeBonus is the extra damage fraction of a fully charged release
	ChargeBonus float64 `yaml:"ChargeBonus"`
}

func DefaultConfig() Config {
	light := AttackStep{
		Duration:       0.5,
		ActiveStart:    0.3,
		ActiveEnd:      0.6,
		WindowStart:    0.5,
		WindowEnd:      0.9,
		Damage:         10,
		Knockback:      2,
		Stagger:        10,
		CritMultiplier: 1.5,
		Parryable:      true,
		Blockable:      true,
	}
	heavy := AttackStep{
		Duration:       0.9,
		ActiveStart:    0.4,
		ActiveEnd:      0.7,
		WindowStart:    0.6,
		WindowEnd:      0.95,
		Damage:         22,
		Knockback:      6,
		Stagger:        30,
		CritMultiplier: 1.5,
		Parryable:      true,
		Blockable:      true,
		SuperArmor:     true,
	}
	l1, l2, l3 := light, light, light
	l1.Name, l2.Name, l3.Name = "light-1", "light-2", "light-3"
	l3.Knockback = 5
	l3.WindowEnd = 0
	h1, h2 := heavy, heavy
	h1.Name, h2.Name = "heavy-1", "heavy-2"
	h2.GuardBreak = true
	h2.WindowEnd = 0

	charged := heavy
	charged.Name = "charged"
	charged.Damage = 30
	charged.Stagger = 45
	charged.Parryable = false
	charged.WindowEnd = 0

	return Config{
		Light:         Combo{Name: "light", Steps: []AttackStep{l1, l2, l3}, ScalingBase: 1.1, CapMultiplier: 1.25},
		Heavy:         Combo{Name: "heavy", Steps: []AttackStep{h1, h2}, ScalingBase: 1.2, CapMultiplier: 1.5},
		Charge:        Combo{Name: "charge", Steps: []AttackStep{charged}},
		RecoveryDelay: 0.2,
		ParryWindow:   0.2,
		DodgeDuration: 0.4,
		MaxCharge:     1.5,
		ChargeBonus:   1,
	}
}

//LoadConfig parses yaml over the defaults
func LoadConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing posture config: %w", err)
	}
	for _, c := range []Combo{cfg.Light, cfg.Heavy, cfg.Charge} {
		for i, s := range c.Steps {
			if s.Duration <= 0 {
				return Config{}, fmt.Errorf("combo %v step %d: duration must be positive", c.Name, i)
			}
			if s.ActiveEnd < s.ActiveStart || s.WindowEnd < s.WindowStart && s.WindowEnd != 0 {
				return Config{}, fmt.Errorf("combo %v step %d: interval ends before it starts", c.Name, i)
			}
		}
	}
	return cfg, nil
}
