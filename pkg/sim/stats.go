package sim

import (
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/status"
)

//Stats collects what happened during one run
type Stats struct {
	Duration float64
	Frames   int

	TotalDamage      float64
	DamageByAttacker map[string]float64
	DamageTaken      map[string]float64

	Outcomes           map[string]int
	ReactionsTriggered map[element.Kind]int
	EffectsApplied     map[status.Kind]int
	Staggers           map[string]int

	Deaths    []string
	Survivors []string
}

func newStats() Stats {
	return Stats{
		DamageByAttacker:   make(map[string]float64),
		DamageTaken:        make(map[string]float64),
		Outcomes:           make(map[string]int),
		ReactionsTriggered: make(map[element.Kind]int),
		EffectsApplied:     make(map[status.Kind]int),
		Staggers:           make(map[string]int),
	}
}

//DPS is total damage over the simulated time
func (s Stats) DPS() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.TotalDamage / s.Duration
}
