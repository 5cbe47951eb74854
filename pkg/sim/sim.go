//Package sim runs scripted fights in a headless arena, frame by frame.
package sim

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/internal/arena"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/combatant"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
	"github.com/srliao/combatcore/pkg/poise"
	"github.com/srliao/combatcore/pkg/posture"
	"github.com/srliao/combatcore/pkg/status"
	"go.uber.org/zap"
)

type fighter struct {
	c        *combatant.Combatant
	p        CombatantProfile
	rotation []ActionItem
	initial  []*status.Definition
	target   *fighter
	wait     float64
	hold     float64
}

func (f *fighter) targetPos() cp.Vector {
	if f.target == nil {
		return f.c.Position()
	}
	return f.target.c.Position()
}

func (f *fighter) inReach() bool {
	return f.target != nil && f.c.Position().Distance(f.target.c.Position()) <= f.p.Reach
}

//Sim keeps track of one simulation
type Sim struct {
	Log   *zap.SugaredLogger
	Arena *arena.Arena
	Rand  *rand.Rand
	Stats Stats
	F     int

	p        Profile
	fighters []*fighter
	byID     map[combat.EntityID]*fighter
	frameDt  float64
	fixedDt  float64
	accum    float64
	started  bool
}

//New creates a new sim from the given profile
func New(p Profile) (*Sim, error) {
	log, err := combat.NewLogger(p.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return NewWithLogger(p, log)
}

//NewWithLogger is New with a caller supplied logger
func NewWithLogger(p Profile, log *zap.SugaredLogger) (*Sim, error) {
	if p.Duration <= 0 {
		return nil, fmt.Errorf("profile %v: duration must be positive", p.Label)
	}
	if p.FrameRate <= 0 || p.FixedRate <= 0 {
		return nil, fmt.Errorf("profile %v: frame rates must be positive", p.Label)
	}
	if len(p.Combatants) == 0 {
		return nil, fmt.Errorf("profile %v: no combatants", p.Label)
	}
	lib, err := status.DefaultLibrary().Merge(p.Effects)
	if err != nil {
		return nil, fmt.Errorf("effect overrides: %w", err)
	}
	table, err := element.Override(element.DefaultTable(), p.Reactions)
	if err != nil {
		return nil, fmt.Errorf("reaction overrides: %w", err)
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Sim{
		Log:     log,
		Rand:    rand.New(rand.NewSource(seed)),
		Stats:   newStats(),
		p:       p,
		byID:    make(map[combat.EntityID]*fighter),
		frameDt: 1 / float64(p.FrameRate),
		fixedDt: 1 / float64(p.FixedRate),
	}
	s.Arena = arena.New(p.Arena, lib, table, combat.Services{Log: log, Rand: s.Rand})
	if err := s.initTeam(p, lib); err != nil {
		return nil, err
	}
	script, err := parseScript(p.Label, p.Script)
	if err != nil {
		return nil, fmt.Errorf("rotation script: %w", err)
	}
	rot := append(append([]ActionItem{}, p.Rotation...), script...)
	for i, v := range rot {
		f := s.find(v.Combatant)
		if f == nil {
			return nil, fmt.Errorf("invalid combatant %v in rotation list", v.Combatant)
		}
		if !v.Action.Valid() {
			return nil, fmt.Errorf("invalid action %v for %v in rotation list", v.Action, v.Combatant)
		}
		f.rotation = append(f.rotation, rot[i])
	}
	s.Log.Debugw("sim initialized", "label", p.Label, "seed", seed, "combatants", len(s.fighters))
	return s, nil
}

func (s *Sim) initTeam(p Profile, lib status.Library) error {
	dup := make(map[string]bool)
	for _, v := range p.Combatants {
		if dup[v.Name] {
			return fmt.Errorf("duplicate combatant %v", v.Name)
		}
		dup[v.Name] = true

		cfg := v.Config
		switch v.Team {
		case TeamPlayer:
			cfg.Layer, cfg.Hitbox.Mask = hitbox.LayerPlayer, hitbox.LayerEnemy
		case TeamEnemy:
			cfg.Layer, cfg.Hitbox.Mask = hitbox.LayerEnemy, hitbox.LayerPlayer
		case TeamNeutral:
			cfg.Layer, cfg.Hitbox.Mask = hitbox.LayerNeutral, hitbox.LayerAll
		default:
			return fmt.Errorf("combatant %v: invalid team %q", v.Name, v.Team)
		}
		c := s.Arena.Spawn(cfg, v.Position, v.Facing)
		f := &fighter{c: c, p: v}
		for _, k := range v.Statuses {
			def := lib.Get(k)
			if def == nil {
				return fmt.Errorf("combatant %v: unknown status %v", v.Name, k)
			}
			f.initial = append(f.initial, def)
		}
		s.fighters = append(s.fighters, f)
		s.byID[c.ID()] = f
		s.watch(f)
	}
	return nil
}

func (s *Sim) find(name string) *fighter {
	for _, f := range s.fighters {
		if f.c.Name() == name {
			return f
		}
	}
	return nil
}

func (s *Sim) name(id combat.EntityID) string {
	if f, ok := s.byID[id]; ok {
		return f.c.Name()
	}
	return "effect"
}

func (s *Sim) watch(f *fighter) {
	c := f.c
	name := c.Name()
	c.Damaged.Subscribe(func(ev combatant.DamageEvent) {
		s.Stats.DamageByAttacker[s.name(ev.Attacker)] += ev.Amount
		s.Stats.DamageTaken[name] += ev.Amount
		s.Stats.TotalDamage += ev.Amount
		s.Log.Debugw("damage", "frame", s.Frame(), "target", name, "attacker", s.name(ev.Attacker), "amount", ev.Amount, "element", ev.Element)
	})
	c.Hurtbox.Received.Subscribe(func(ct hitbox.Contact) {
		s.Stats.Outcomes[ct.Outcome.String()]++
	})
	c.Reactor.ReactionTriggered.Subscribe(func(ev element.Reaction) {
		s.Stats.ReactionsTriggered[ev.Kind]++
		s.Log.Infof("[%v] %v reaction on %v", s.Frame(), ev.Kind, name)
	})
	c.Status.Applied.Subscribe(func(inst *status.Instance) {
		s.Stats.EffectsApplied[inst.Kind()]++
	})
	c.Poise.StaggerStarted.Subscribe(func(poise.Event) {
		s.Stats.Staggers[name]++
		s.Log.Infof("[%v] %v staggered", s.Frame(), name)
	})
	c.Died.Subscribe(func(combat.EntityID) {
		s.Stats.Deaths = append(s.Stats.Deaths, name)
		s.Log.Infof("[%v] %v died", s.Frame(), name)
	})
}

//Fighters returns every combatant spawned by the profile, dead or alive
func (s *Sim) Fighters() []*combatant.Combatant {
	out := make([]*combatant.Combatant, 0, len(s.fighters))
	for _, f := range s.fighters {
		out = append(out, f.c)
	}
	return out
}

//Run the sim for the profile duration; returns total damage dealt
func (s *Sim) Run() (float64, Stats) {
	s.start()
	frames := int(s.p.Duration * float64(s.p.FrameRate))
	for s.F = 0; s.F < frames; s.F++ {
		s.retarget()
		s.think()
		s.Arena.Tick(s.frameDt)
		s.accum += s.frameDt
		for s.accum >= s.fixedDt {
			s.Arena.FixedStep(s.fixedDt)
			s.accum -= s.fixedDt
		}
		s.Stats.Frames++
		s.Stats.Duration += s.frameDt
		if s.p.StopWhenDecided && s.decided() {
			s.Log.Infof("[%v] fight decided", s.Frame())
			break
		}
	}
	for _, f := range s.fighters {
		if !f.c.IsDead() {
			s.Stats.Survivors = append(s.Stats.Survivors, f.c.Name())
		}
	}
	return s.Stats.TotalDamage, s.Stats
}

//start applies the profile's opening statuses once, so that anything
//subscribed between New and Run sees them
func (s *Sim) start() {
	if s.started {
		return
	}
	s.started = true
	for _, f := range s.fighters {
		for _, def := range f.initial {
			f.c.Status.Apply(def, f.c.ID())
		}
	}
}

//retarget points every living fighter at the nearest living enemy
func (s *Sim) retarget() {
	for _, f := range s.fighters {
		if f.c.IsDead() {
			continue
		}
		f.target = nil
		best := -1.0
		for _, o := range s.fighters {
			if o == f || o.c.IsDead() || !hostile(f.p.Team, o.p.Team) {
				continue
			}
			d := f.c.Position().DistanceSq(o.c.Position())
			if best < 0 || d < best {
				best, f.target = d, o
			}
		}
	}
}

func hostile(a, b Team) bool {
	return a == TeamNeutral || b == TeamNeutral || a != b
}

func (s *Sim) think() {
	for _, f := range s.fighters {
		if f.c.IsDead() {
			continue
		}
		m := f.c.Machine
		if f.hold > 0 {
			f.hold -= s.frameDt
			if f.hold <= 0 {
				m.ReleaseCharge()
			}
			continue
		}
		if f.wait > 0 {
			f.wait -= s.frameDt
			continue
		}
		if f.target == nil {
			continue
		}
		if m.Is(posture.Idle) {
			f.c.FaceTowards(f.target.c.Position())
			if !f.inReach() {
				s.approach(f)
				continue
			}
		}
		next, err := s.findNextAction(f)
		if err != nil {
			continue
		}
		s.execute(f, next)
	}
}

func (s *Sim) approach(f *fighter) {
	d := f.target.c.Position().Sub(f.c.Position())
	gap := d.Length() - f.p.Reach
	step := f.p.MoveSpeed * s.frameDt
	if step > gap {
		step = gap
	}
	f.c.Translate(d.Normalize().Mult(step))
}

//decided is true once no two living fighters are hostile
func (s *Sim) decided() bool {
	for i, a := range s.fighters {
		if a.c.IsDead() {
			continue
		}
		for _, b := range s.fighters[i+1:] {
			if !b.c.IsDead() && hostile(a.p.Team, b.p.Team) {
				return false
			}
		}
	}
	return true
}

func (s *Sim) Frame() string {
	return strconv.Itoa(int(1000*float64(s.F)/float64(s.p.FrameRate))) + "ms|" + strconv.Itoa(s.F)
}
