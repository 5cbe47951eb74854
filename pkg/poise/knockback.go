package poise

import (
	"github.com/jakecoffman/cp"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

//DynamicBody receives knockback as a single velocity impulse
type DynamicBody interface {
	ApplyImpulse(impulse cp.Vector)
}

//Mover displaces entities without a dynamics body
type Mover interface {
	Translate(delta cp.Vector)
}

//CPBody adapts a chipmunk body
type CPBody struct {
	Body *cp.Body
}

func (b CPBody) ApplyImpulse(impulse cp.Vector) {
	b.Body.ApplyImpulseAtWorldPoint(impulse, b.Body.Position())
}

type KnockbackConfig struct {
	Resistance float64 `yaml:"Resistance"`
	Immune     bool    `yaml:"Immune"`
	//Duration and Curve only apply to kinematic displacement
	Duration float64 `yaml:"Duration"`
	Curve    string  `yaml:"Curve"`
}

func DefaultKnockbackConfig() KnockbackConfig {
	return KnockbackConfig{
		Duration: 0.3,
		Curve:    "out_quad",
	}
}

var curves = map[string]ease.TweenFunc{
	"linear":      ease.Linear,
	"in_quad":     ease.InQuad,
	"out_quad":    ease.OutQuad,
	"in_out_quad": ease.InOutQuad,
	"out_cubic":   ease.OutCubic,
	"in_out_sine": ease.InOutSine,
	"out_expo":    ease.OutExpo,
}

//Curve resolves a curve name, defaulting to out_quad
func Curve(name string) ease.TweenFunc {
	if f, ok := curves[name]; ok {
		return f
	}
	return ease.OutQuad
}

type KnockbackEvent struct {
	Force     float64
	Direction cp.Vector
	Impulse   bool
}

type request struct {
	force float64
	dir   cp.Vector
}

//Knockback stages at most one pending request and runs it on the next fixed step
type Knockback struct {
	cfg   KnockbackConfig
	body  DynamicBody
	mover Mover
	svc   combat.Services

	pending  *request
	active   *request
	velocity cp.Vector
	tween    *gween.Tween

	Applied combat.Signal[KnockbackEvent]
	Ended   combat.Signal[KnockbackEvent]
}

func NewKnockback(cfg KnockbackConfig, body DynamicBody, mover Mover, svc combat.Services) *Knockback {
	return &Knockback{
		cfg:   cfg,
		body:  body,
		mover: mover,
		svc:   svc,
	}
}

func (k *Knockback) Pending() bool {
	return k.pending != nil
}

func (k *Knockback) Active() bool {
	return k.active != nil
}

//Request stages force along dir after resistance; returns false if nothing was staged
func (k *Knockback) Request(force float64, dir cp.Vector) bool {
	applied := force * (1 - k.cfg.Resistance)
	if k.cfg.Immune || applied <= 0 {
		return false
	}
	if dir.LengthSq() == 0 {
		k.svc.Logger().Debugw("knockback dropped, no direction", "force", applied)
		return false
	}
	k.pending = &request{force: applied, dir: dir.Normalize()}
	return true
}

//Cancel drops both pending and active knockback without signals
func (k *Knockback) Cancel() {
	k.pending = nil
	k.active = nil
	k.tween = nil
}

func (k *Knockback) FixedStep(dt float64) {
	if k.pending != nil {
		k.start(*k.pending)
		k.pending = nil
	}
	if k.active == nil || k.tween == nil {
		return
	}
	v, done := k.tween.Update(float32(dt))
	k.mover.Translate(k.velocity.Mult(float64(v) * dt))
	if done {
		ev := KnockbackEvent{Force: k.active.force, Direction: k.active.dir}
		k.active = nil
		k.tween = nil
		k.Ended.Emit(ev)
	}
}

func (k *Knockback) start(r request) {
	//a displaced request still closes its Applied/Ended pair
	if k.active != nil {
		prev := KnockbackEvent{Force: k.active.force, Direction: k.active.dir}
		k.active = nil
		k.tween = nil
		k.Ended.Emit(prev)
	}
	ev := KnockbackEvent{Force: r.force, Direction: r.dir}
	switch {
	case k.body != nil:
		ev.Impulse = true
		k.body.ApplyImpulse(r.dir.Mult(r.force))
		k.Applied.Emit(ev)
		k.Ended.Emit(ev)
	case k.mover != nil && k.cfg.Duration > 0:
		k.active = &r
		k.velocity = r.dir.Mult(r.force)
		k.tween = gween.New(1, 0, float32(k.cfg.Duration), Curve(k.cfg.Curve))
		k.Applied.Emit(ev)
	default:
		k.svc.Logger().Debugw("knockback dropped, no body or mover", "force", r.force)
	}
}
