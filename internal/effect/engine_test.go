package effect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

func newEngine(t *testing.T) (*Engine, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	return NewEngine(bus, zap.NewNop()), bus
}

func newTarget(t *testing.T) *world.Character {
	t.Helper()
	c := world.NewCharacter()
	c.FirstName = "Kara"
	c.Base = world.Stats{Might: 10, Vitality: 10, Agility: 10, Intellect: 10, Aura: 10, Persona: 10}
	c.MaxHP = 40
	c.HP = 40
	c.MaxEssence = 20
	c.Essence = 20
	return c
}

func TestReapplyByNameRefreshes(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	spec := &data.EffectSpec{
		Name: "Rage", Kind: world.EffectBuff, Channel: world.StatMight,
		Amount: 4, Duration: 30,
	}
	e.Apply(c, spec, 0, "rage", now)
	require.Equal(t, 14, c.EffStat(world.StatMight))

	// Second application replaces, never stacks.
	e.Apply(c, spec, 0, "rage", now.Add(10*time.Second))
	assert.Equal(t, 14, c.EffStat(world.StatMight))
	assert.Equal(t, now.Add(40*time.Second), c.Effects["Rage"].EndsAt)
}

func TestMaxHPEffectAppliesAndRevertsImmediately(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	spec := &data.EffectSpec{
		Name: "Bear Form", Kind: world.EffectShapechange, Channel: world.ChannelMaxHP,
		Amount: 20, Duration: -1,
		MsgExpire: "You shrink back to your own shape.",
	}
	e.Apply(c, spec, 0, "bear_form", now)
	assert.Equal(t, 60.0, c.MaxHP)
	assert.Equal(t, 60.0, c.HP, "max_hp gains raise current hp too")

	c.Damage(50) // down to 10

	require.True(t, e.Remove(c, "Bear Form", now))
	assert.Equal(t, 40.0, c.MaxHP)
	assert.Equal(t, 10.0, c.HP, "reversion clamps but never kills")
}

func TestShapechangeExclusivity(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	bear := &data.EffectSpec{Name: "Bear Form", Kind: world.EffectShapechange, Channel: world.ChannelMaxHP, Amount: 20, Duration: -1}
	wolf := &data.EffectSpec{Name: "Wolf Form", Kind: world.EffectShapechange, Channel: world.StatAgility, Amount: 6, Duration: -1}

	e.Apply(c, bear, 0, "bear_form", now)
	e.Apply(c, wolf, 0, "wolf_form", now)

	assert.Nil(t, c.Effects["Bear Form"])
	assert.NotNil(t, c.Effects["Wolf Form"])
	assert.Equal(t, 40.0, c.MaxHP, "displaced shape reverted its max_hp")
}

func TestStunAddsRoundtimeAdditively(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()
	c.SetRoundtime(2)

	stun := &data.EffectSpec{Name: "Concussion", Kind: world.EffectStun, Potency: 3, Duration: 3}
	e.Apply(c, stun, 0, "bash", now)
	assert.Equal(t, 5.0, c.RoundtimeLeft())
}

func TestInstantHPLeavesNoEntry(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	c.HP = 20

	heal := &data.EffectSpec{Name: "Minor Heal", Channel: world.ChannelHP, Amount: 15}
	e.Apply(c, heal, 0, "heal", time.Now())
	assert.Equal(t, 35.0, c.HP)
	assert.Empty(t, c.Effects)
}

func TestExpireDueRevertsAndEmits(t *testing.T) {
	e, bus := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	var expired []string
	event.Subscribe(bus, func(ev event.EffectExpired) { expired = append(expired, ev.Name) })

	e.Apply(c, &data.EffectSpec{Name: "Haste", Kind: world.EffectBuff, Channel: world.StatAgility, Amount: 4, Duration: 10}, 0, "haste", now)
	e.Apply(c, &data.EffectSpec{Name: "Ward", Kind: world.EffectBuff, Channel: world.ChannelBarrier, Amount: 5, Duration: 60}, 0, "ward", now)

	e.ExpireDue(c, now.Add(11*time.Second))
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.Equal(t, []string{"Haste"}, expired)
	assert.Nil(t, c.Effects["Haste"])
	assert.NotNil(t, c.Effects["Ward"])
	assert.Equal(t, 10, c.EffStat(world.StatAgility))
}

func TestCompoundSpecSharesSourceKey(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	spec := &data.EffectSpec{
		Name: "Venom", Kind: world.EffectPoison, Potency: 2, Duration: 20,
		Sub: []data.EffectSpec{
			{Name: "Venom Weakness", Kind: world.EffectDebuff, Channel: world.StatMight, Amount: -3, Duration: 20},
		},
	}
	e.Apply(c, spec, 7, "venom_bite", now)

	require.NotNil(t, c.Effects["Venom"])
	require.NotNil(t, c.Effects["Venom Weakness"])
	assert.Equal(t, "venom_bite", c.Effects["Venom"].SourceKey)
	assert.Equal(t, "venom_bite", c.Effects["Venom Weakness"].SourceKey)
	assert.Equal(t, 7, c.EffStat(world.StatMight))

	dots := DoTs(c, now)
	require.Len(t, dots, 1)
	assert.Equal(t, "Venom", dots[0].Name)
}

func TestUntilRemovedNeverExpires(t *testing.T) {
	e, _ := newEngine(t)
	c := newTarget(t)
	now := time.Now()

	e.Apply(c, &data.EffectSpec{Name: "Curse", Kind: world.EffectDebuff, Channel: world.StatAura, Amount: -2, Duration: -1}, 0, "curse", now)
	e.ExpireDue(c, now.Add(1000*time.Hour))
	assert.NotNil(t, c.Effects["Curse"])
}
