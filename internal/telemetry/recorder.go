package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/combatant"
	"github.com/srliao/combatcore/pkg/element"
	"github.com/srliao/combatcore/pkg/hitbox"
	"github.com/srliao/combatcore/pkg/poise"
	"github.com/srliao/combatcore/pkg/status"
)

//Recorder turns combatant signals into prometheus metrics. Every label has a
//bounded value set: outcomes, reaction kinds, effect kinds and elements.
type Recorder struct {
	reg *prometheus.Registry

	hits      *prometheus.CounterVec
	reactions *prometheus.CounterVec
	effects   *prometheus.CounterVec
	dealt     *prometheus.CounterVec
	damage    prometheus.Histogram
	staggers  prometheus.Counter
	deaths    prometheus.Counter

	subs combat.Subscriptions
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "combat_hits_total",
			Help: "Hits received by hurtboxes, by outcome",
		}, []string{"outcome"}),
		reactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "combat_reactions_total",
			Help: "Elemental reactions triggered",
		}, []string{"kind"}),
		effects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "combat_effects_applied_total",
			Help: "Status effects newly applied",
		}, []string{"kind"}),
		dealt: f.NewCounterVec(prometheus.CounterOpts{
			Name: "combat_damage_total",
			Help: "Damage applied to health after all modifiers",
		}, []string{"element"}),
		damage: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "combat_damage_per_hit",
			Help:    "Damage applied by a single hit",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		staggers: f.NewCounter(prometheus.CounterOpts{
			Name: "combat_staggers_total",
			Help: "Poise breaks",
		}),
		deaths: f.NewCounter(prometheus.CounterOpts{
			Name: "combat_deaths_total",
			Help: "Combatants killed",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

//Watch subscribes to c until Close
func (r *Recorder) Watch(c *combatant.Combatant) {
	r.subs.Add(
		c.Hurtbox.Received.Subscribe(func(ct hitbox.Contact) {
			r.hits.WithLabelValues(ct.Outcome.String()).Inc()
		}),
		c.Reactor.ReactionTriggered.Subscribe(func(ev element.Reaction) {
			r.reactions.WithLabelValues(string(ev.Kind)).Inc()
		}),
		c.Status.Applied.Subscribe(func(inst *status.Instance) {
			r.effects.WithLabelValues(string(inst.Kind())).Inc()
		}),
		c.Damaged.Subscribe(func(ev combatant.DamageEvent) {
			r.dealt.WithLabelValues(ev.Element.String()).Add(ev.Amount)
			r.damage.Observe(ev.Amount)
		}),
		c.Poise.StaggerStarted.Subscribe(func(poise.Event) {
			r.staggers.Inc()
		}),
		c.Died.Subscribe(func(combat.EntityID) {
			r.deaths.Inc()
		}),
	)
}

//WriteTo dumps the registry in the text exposition format
func (r *Recorder) WriteTo(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}

func (r *Recorder) Close() {
	r.subs.Close()
}
