//Package arena is a headless host for combatants. It stores them in a donburi
//world, answers spatial queries from a resolv space and optionally steps
//dynamic bodies in a chipmunk space.
package arena

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/solarlune/resolv"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/combatant"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
	"github.com/srliao/combatcore/pkg/status"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

type Config struct {
	Width    float64 `yaml:"Width"`
	Height   float64 `yaml:"Height"`
	CellSize int     `yaml:"CellSize"`
	//Physics gives every combatant a dynamic body; knockback becomes an impulse
	Physics bool    `yaml:"Physics"`
	Damping float64 `yaml:"Damping"`
}

func DefaultConfig() Config {
	return Config{
		Width:    64,
		Height:   64,
		CellSize: 4,
		Damping:  0.1,
	}
}

type FighterData struct {
	C      *combatant.Combatant
	Object *resolv.Object
	Shape  *cp.Shape
}

var (
	Fighter = donburi.NewComponentType[FighterData]()
	Alive   = donburi.NewTag().SetName("Alive")
)

const (
	tagFighter = "fighter"
	tagProbe   = "probe"
)

var layerTags = []struct {
	layer hitbox.Layer
	tag   string
}{
	{hitbox.LayerPlayer, "player"},
	{hitbox.LayerEnemy, "enemy"},
	{hitbox.LayerNeutral, "neutral"},
}

func tagsFor(mask hitbox.Layer) []string {
	var t []string
	for _, v := range layerTags {
		if mask&v.layer != 0 {
			t = append(t, v.tag)
		}
	}
	return t
}

type Arena struct {
	cfg     Config
	svc     combat.Services
	lib     status.Library
	table   *element.Table
	world   donburi.World
	space   *resolv.Space
	physics *cp.Space
	probe   *resolv.Object
	alive   *donburi.Query

	Tasks *combat.TaskQueue

	entities map[combat.EntityID]donburi.Entity
	nextID   combat.EntityID
	dead     []combat.EntityID

	Spawned combat.Signal[*combatant.Combatant]
	Removed combat.Signal[combat.EntityID]
}

//New builds an empty arena. A nil library or table falls back to the defaults.
func New(cfg Config, lib status.Library, table *element.Table, svc combat.Services) *Arena {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 4
	}
	if lib == nil {
		lib = status.DefaultLibrary()
	}
	if table == nil {
		table = element.DefaultTable()
	}
	a := &Arena{
		cfg:      cfg,
		lib:      lib,
		table:    table,
		world:    donburi.NewWorld(),
		space:    resolv.NewSpace(int(math.Ceil(cfg.Width)), int(math.Ceil(cfg.Height)), cfg.CellSize, cfg.CellSize),
		alive:    donburi.NewQuery(filter.Contains(Fighter, Alive)),
		Tasks:    combat.NewTaskQueue(svc.Log),
		entities: make(map[combat.EntityID]donburi.Entity),
	}
	a.svc = svc.WithScheduler(a.Tasks)
	a.probe = resolv.NewObject(0, 0, 1, 1, tagProbe)
	a.space.Add(a.probe)
	if cfg.Physics {
		a.physics = cp.NewSpace()
		a.physics.SetDamping(1 - cfg.Damping)
	}
	return a
}

func (a *Arena) Config() Config {
	return a.cfg
}

func (a *Arena) Library() status.Library {
	return a.lib
}

//Spawn creates a combatant at pos and registers it with every subsystem
func (a *Arena) Spawn(cfg combatant.Config, pos cp.Vector, facing float64) *combatant.Combatant {
	a.nextID++
	id := a.nextID
	r := cfg.Radius
	if r <= 0 {
		r = 0.5
	}
	pos = a.clamp(pos, r)

	var body *cp.Body
	var shape *cp.Shape
	if a.physics != nil {
		mass := cfg.Mass
		if mass <= 0 {
			mass = 1
		}
		body = cp.NewBody(mass, cp.MomentForCircle(mass, 0, r, cp.Vector{}))
		shape = cp.NewCircle(body, r, cp.Vector{})
		shape.SetSensor(true)
		a.physics.AddBody(body)
		a.physics.AddShape(shape)
	}

	c := combatant.New(cfg, combatant.Deps{
		ID:       id,
		Position: pos,
		Facing:   facing,
		Query:    a,
		Env:      a,
		Library:  a.lib,
		Table:    a.table,
		Body:     body,
	}, a.svc)

	tags := append([]string{tagFighter}, tagsFor(cfg.Layer)...)
	obj := resolv.NewObject(pos.X-r, pos.Y-r, 2*r, 2*r, tags...)
	obj.SetShape(resolv.NewRectangle(0, 0, 2*r, 2*r))
	obj.Data = id
	a.space.Add(obj)

	ent := a.world.Create(Fighter, Alive)
	Fighter.SetValue(a.world.Entry(ent), FighterData{C: c, Object: obj, Shape: shape})
	a.entities[id] = ent

	c.Died.Subscribe(func(id combat.EntityID) {
		if e := a.entry(id); e != nil && e.HasComponent(Alive) {
			e.RemoveComponent(Alive)
		}
		a.dead = append(a.dead, id)
	})
	a.svc.Logger().Infow("spawned", "id", id, "name", cfg.Name, "x", pos.X, "y", pos.Y)
	a.Spawned.Emit(c)
	return c
}

func (a *Arena) entry(id combat.EntityID) *donburi.Entry {
	ent, ok := a.entities[id]
	if !ok || !a.world.Valid(ent) {
		return nil
	}
	return a.world.Entry(ent)
}

func (a *Arena) Get(id combat.EntityID) *combatant.Combatant {
	e := a.entry(id)
	if e == nil {
		return nil
	}
	return Fighter.Get(e).C
}

//Destroy tears the combatant down and removes it from every subsystem
func (a *Arena) Destroy(id combat.EntityID) bool {
	e := a.entry(id)
	if e == nil {
		return false
	}
	f := Fighter.Get(e)
	f.C.Teardown()
	a.space.Remove(f.Object)
	if f.Shape != nil {
		a.physics.RemoveShape(f.Shape)
		a.physics.RemoveBody(f.C.Body())
	}
	a.world.Remove(e.Entity())
	delete(a.entities, id)
	a.svc.Logger().Infow("removed", "id", id)
	a.Removed.Emit(id)
	return true
}

//Fighters returns the living combatants in spawn order
func (a *Arena) Fighters() []*combatant.Combatant {
	var out []*combatant.Combatant
	a.alive.Each(a.world, func(e *donburi.Entry) {
		out = append(out, Fighter.Get(e).C)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

//Tick advances scheduled callbacks then every fighter's frame timers
func (a *Arena) Tick(dt float64) {
	a.Tasks.Advance(dt)
	for _, c := range a.Fighters() {
		c.Tick(dt)
	}
	a.reap()
}

//FixedStep runs knockback and hitbox sweeps, steps physics and syncs the
//broadphase
func (a *Arena) FixedStep(dt float64) {
	a.sync()
	for _, c := range a.Fighters() {
		c.FixedStep(dt)
	}
	if a.physics != nil {
		a.physics.Step(dt)
	}
	a.sync()
	a.reap()
}

func (a *Arena) reap() {
	if len(a.dead) == 0 {
		return
	}
	dead := a.dead
	a.dead = nil
	for _, id := range dead {
		a.Destroy(id)
	}
}

func (a *Arena) clamp(p cp.Vector, r float64) cp.Vector {
	p.X = cp.Clamp(p.X, r, math.Max(r, a.cfg.Width-r))
	p.Y = cp.Clamp(p.Y, r, math.Max(r, a.cfg.Height-r))
	return p
}

func (a *Arena) sync() {
	a.alive.Each(a.world, func(e *donburi.Entry) {
		f := Fighter.Get(e)
		r := f.Object.W / 2
		p := f.C.Position()
		if q := a.clamp(p, r); q != p {
			f.C.SetPosition(q)
			p = q
		}
		if f.Object.X == p.X-r && f.Object.Y == p.Y-r {
			return
		}
		f.Object.X = p.X - r
		f.Object.Y = p.Y - r
		f.Object.Update()
	})
}

//Pending is the number of scheduled callbacks across the arena
func (a *Arena) Pending() int {
	return a.Tasks.Pending()
}
