package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/srliao/combatcore/pkg/combat"
	"github.com/srliao/combatcore/pkg/combatant"
	"github.com/srliao/combatcore/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsSignals(t *testing.T) {
	r := NewRecorder()
	c := combatant.New(combatant.DefaultConfig(), combatant.Deps{ID: 1}, combat.Services{})
	r.Watch(c)

	c.Hurtbox.Receive(combat.Descriptor{Base: 10, Element: combat.Fire, Gauge: 1})
	c.Hurtbox.Receive(combat.Descriptor{Base: 10, Element: combat.Water, Gauge: 1, Stagger: 150})
	c.Status.Apply(c.Library().Get(status.AttackUp), 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.hits.WithLabelValues("admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reactions.WithLabelValues("vaporize")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.effects.WithLabelValues("attack_up")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.dealt.WithLabelValues("fire")))
	assert.Equal(t, 20.0, testutil.ToFloat64(r.dealt.WithLabelValues("water")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staggers))

	c.TakeDamage(combat.Descriptor{Base: 1000})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deaths))

	r.Close()
	d := combatant.New(combatant.DefaultConfig(), combatant.Deps{ID: 2}, combat.Services{})
	d.TakeDamage(combat.Descriptor{Base: 1000})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deaths), "unwatched combatant is not counted")
}

func TestRecorder_WriteTo(t *testing.T) {
	r := NewRecorder()
	c := combatant.New(combatant.DefaultConfig(), combatant.Deps{ID: 1}, combat.Services{})
	r.Watch(c)
	c.Hurtbox.Receive(combat.Descriptor{Base: 5})

	path := filepath.Join(t.TempDir(), "combat.prom")
	require.NoError(t, r.WriteTo(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `combat_hits_total{outcome="admitted"} 1`)
	assert.Contains(t, string(data), "combat_damage_per_hit_count 1")
}
