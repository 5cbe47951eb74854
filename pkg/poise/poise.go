package poise

import "github.com/srliao/combatcore/pkg/combat"

type Config struct {
	Max             float64 `yaml:"Max"`
	RegenRate       float64 `yaml:"RegenRate"`
	RegenDelay      float64 `yaml:"RegenDelay"`
	StaggerDuration float64 `yaml:"StaggerDuration"`
	//ImmuneWhileStaggered ignores further stagger until recovery
	ImmuneWhileStaggered bool `yaml:"ImmuneWhileStaggered"`
}

func DefaultConfig() Config {
	return Config{
		Max:                  100,
		RegenRate:            20,
		RegenDelay:           2,
		StaggerDuration:      1.5,
		ImmuneWhileStaggered: true,
	}
}

type Event struct {
	Current float64
	Max     float64
}

//Poise is an entity's resistance to being interrupted
type Poise struct {
	cfg       Config
	current   float64
	sinceHit  float64
	staggered bool
	remaining float64

	StaggerStarted   combat.Signal[Event]
	StaggerRecovered combat.Signal[Event]
}

func New(cfg Config) *Poise {
	return &Poise{
		cfg:      cfg,
		current:  cfg.Max,
		sinceHit: cfg.RegenDelay,
	}
}

func (p *Poise) Current() float64 {
	return p.current
}

func (p *Poise) Max() float64 {
	return p.cfg.Max
}

func (p *Poise) Staggered() bool {
	return p.staggered
}

//Remaining is the time left in the current stagger
func (p *Poise) Remaining() float64 {
	return p.remaining
}

func (p *Poise) ApplyStagger(amount float64) {
	if amount <= 0 {
		return
	}
	if p.staggered {
		if !p.cfg.ImmuneWhileStaggered {
			p.remaining = p.cfg.StaggerDuration
			p.sinceHit = 0
		}
		return
	}
	p.sinceHit = 0
	p.current -= amount
	if p.current > 0 {
		return
	}
	p.current = 0
	p.staggered = true
	p.remaining = p.cfg.StaggerDuration
	p.StaggerStarted.Emit(Event{Current: p.current, Max: p.cfg.Max})
}

func (p *Poise) Tick(dt float64) {
	if p.staggered {
		p.remaining -= dt
		if p.remaining <= 0 {
			p.Recover()
		}
		return
	}
	p.sinceHit += dt
	if p.sinceHit < p.cfg.RegenDelay || p.current >= p.cfg.Max {
		return
	}
	p.current += p.cfg.RegenRate * dt
	if p.current > p.cfg.Max {
		p.current = p.cfg.Max
	}
}

//Recover ends a stagger early, restoring half of max poise
func (p *Poise) Recover() {
	if !p.staggered {
		return
	}
	p.staggered = false
	p.remaining = 0
	p.sinceHit = 0
	p.current = p.cfg.Max / 2
	p.StaggerRecovered.Emit(Event{Current: p.current, Max: p.cfg.Max})
}

type Snapshot struct {
	Current   float64 `yaml:"Current"`
	Staggered bool    `yaml:"Staggered"`
	Remaining float64 `yaml:"Remaining"`
}

func (p *Poise) Snapshot() Snapshot {
	return Snapshot{Current: p.current, Staggered: p.staggered, Remaining: p.remaining}
}

func (p *Poise) Restore(s Snapshot) {
	p.current = s.Current
	if p.current < 0 {
		p.current = 0
	}
	if p.current > p.cfg.Max {
		p.current = p.cfg.Max
	}
	p.staggered = s.Staggered
	p.remaining = s.Remaining
}
