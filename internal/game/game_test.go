package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/config"
	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

func newDeps(t *testing.T, roller dice.Roller) *handler.Deps {
	t.Helper()
	state := world.NewState(roller)
	state.Catalog = &data.Catalog{
		Items: data.NewItemTable(nil),
		Mobs: data.NewMobTable([]data.MobTemplate{
			{ID: 1, Name: "a cave spider", Keywords: []string{"spider"},
				Level: 1, HP: 10,
				Might: 3, Vitality: 3, Agility: 6, Intellect: 1, Aura: 1, Persona: 1,
				XP: 25, RespawnDelay: 30,
				Attacks: []data.MobAttack{{Name: "bite", Base: 2, Random: 3, Speed: 3.0, Type: data.DamagePierce}},
				Flags:   []string{data.MobAggressive}},
		}),
		Abilities: data.NewAbilityTable(nil),
	}
	bus := event.NewBus()
	eff := effect.NewEngine(bus, zap.NewNop())
	curve := rules.Curve{Base: 100, Exponent: 1.0, MaxLevel: 50}
	return &handler.Deps{
		Cfg:          config.Defaults(),
		Log:          zap.NewNop(),
		State:        state,
		Bus:          bus,
		Combat:       combat.NewEngine(state, eff, bus, roller, curve, zap.NewNop()),
		Effects:      eff,
		Roller:       roller,
		Curve:        curve,
		GroupInvites: make(map[int32]int64),
	}
}

func addRoom(t *testing.T, deps *handler.Deps, id int32, flags ...string) *world.Room {
	t.Helper()
	room := world.NewRoom(id, 1, "Test Chamber", "Bare stone.")
	for _, f := range flags {
		room.Flags[f] = true
	}
	deps.State.Rooms[id] = room
	return room
}

func addChar(t *testing.T, deps *handler.Deps, room *world.Room, id int32, name string) *world.Character {
	t.Helper()
	c := world.NewCharacter()
	c.ID = id
	c.FirstName = name
	c.Level = 1
	c.Class = &data.Class{ID: 1, Name: "Warrior", HitDie: 10, EssenceDie: 2}
	c.Base = world.Stats{Might: 8, Vitality: 12, Agility: 8, Intellect: 8, Aura: 8, Persona: 8}
	c.MaxHP = 40
	c.HP = 40
	c.MaxEssence = 20
	c.Essence = 20
	c.Hunger = 100
	c.Thirst = 100
	deps.State.AddChar(c)
	room.AddChar(c)
	return c
}

func addSpider(t *testing.T, deps *handler.Deps, room *world.Room) *world.Mob {
	t.Helper()
	tmpl := deps.State.Catalog.Mobs.Get(1)
	require.NotNil(t, tmpl)
	m := world.SpawnMob(deps.State.NextMobID(), tmpl, room.ID, deps.State.Roller)
	deps.State.RegisterMob(m)
	room.AddMob(m)
	return m
}

func TestRoundtimeDecaysAndFloorsAtZero(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.SetRoundtime(1.5)

	sys := &roundtimeSystem{deps: deps}
	sys.Update(time.Second)
	assert.InDelta(t, 0.5, c.Roundtime, 0.001)
	sys.Update(time.Second)
	assert.Zero(t, c.Roundtime)
}

func TestDeadMobRespawnsAfterDelay(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	m := addSpider(t, deps, room)
	m.Dead = true
	m.HP = 0
	m.TimeOfDeath = time.Now().Add(-31 * time.Second)

	sys := &mobAISystem{deps: deps}
	sys.Update(time.Second)

	assert.False(t, m.Dead)
	assert.Equal(t, m.MaxHP, m.HP)
}

func TestDeadMobWaitsOutItsDelay(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	m := addSpider(t, deps, room)
	m.Dead = true
	m.TimeOfDeath = time.Now().Add(-5 * time.Second)

	(&mobAISystem{deps: deps}).Update(time.Second)

	assert.True(t, m.Dead)
}

func TestAggressiveMobAcquiresTargetAndStrikes(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{Dies: []int{1, 20, 3}})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	m := addSpider(t, deps, room)

	(&mobAISystem{deps: deps}).Update(time.Second)

	assert.True(t, m.Fighting)
	assert.Same(t, c, m.Target())
	// The same-tick attack put the mob into roundtime.
	assert.Greater(t, m.Roundtime, 0.0)
}

func TestAggressiveMobIgnoresHiddenCharacters(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.Hidden = true
	m := addSpider(t, deps, room)

	(&mobAISystem{deps: deps}).Update(time.Second)

	assert.False(t, m.Fighting)
}

func TestMobDropsDepartedTarget(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	elsewhere := addRoom(t, deps, 2)
	c := addChar(t, deps, room, 1, "Bran")
	m := addSpider(t, deps, room)
	m.SetTarget(c)
	m.SetFighting(true)
	m.Roundtime = 5

	room.RemoveChar(c)
	elsewhere.AddChar(c)
	(&mobAISystem{deps: deps}).Update(time.Second)

	assert.False(t, m.Fighting)
	assert.Nil(t, m.Target())
}

func TestDeathTimerTransitionsDyingToDead(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.Status = world.StatusDying
	c.Tether = 10
	c.DeathTimerEnd = time.Now().Add(-time.Second)

	(&deathTimerSystem{deps: deps}).Update(time.Second)

	assert.Equal(t, world.StatusDead, c.Status)
	assert.Equal(t, 9, c.Tether)
	assert.True(t, c.DeathTimerEnd.IsZero())
}

func TestDeathTimerLeavesFutureDeadlinesAlone(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.Status = world.StatusDying
	c.DeathTimerEnd = time.Now().Add(time.Minute)

	(&deathTimerSystem{deps: deps}).Update(time.Second)

	assert.Equal(t, world.StatusDying, c.Status)
}

func TestRegenRestoresHPAndEssence(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.HP = 10
	c.Essence = 5

	// vitality 12 → mod 4, div 4 → +1 HP; aura 8 → mod 2, div 4 → +0.5.
	(&regenSystem{deps: deps}).Update(time.Second)

	assert.InDelta(t, 11, c.HP, 0.001)
	assert.InDelta(t, 5.5, c.Essence, 0.001)
}

func TestNodeRoomBoostsRegen(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1, world.FlagNode)
	c := addChar(t, deps, room, 1, "Bran")
	c.HP = 10

	(&regenSystem{deps: deps}).Update(time.Second)

	assert.InDelta(t, 12, c.HP, 0.001)
}

func TestStarvationGatesHPRegen(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.HP = 10
	c.Hunger = 0

	(&regenSystem{deps: deps}).Update(time.Second)

	assert.InDelta(t, 10, c.HP, 0.001)
}

func TestAbsorbMovesPoolInNodeRoomsOnly(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	node := addRoom(t, deps, 1, world.FlagNode)
	plain := addRoom(t, deps, 2)
	a := addChar(t, deps, node, 1, "Bran")
	b := addChar(t, deps, plain, 2, "Wren")
	a.XPPool, b.XPPool = 25, 25

	(&absorbSystem{deps: deps}).Update(time.Second)

	rate := int64(deps.Cfg.Game.XPAbsorbRate)
	assert.Equal(t, 25-rate, a.XPPool)
	assert.Equal(t, rate, a.XPTotal)
	assert.Equal(t, int64(25), b.XPPool)
	assert.Zero(t, b.XPTotal)
}

func TestAbsorbLevelsUpAndGrantsPoints(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	node := addRoom(t, deps, 1, world.FlagNode)
	c := addChar(t, deps, node, 1, "Bran")
	c.XPTotal = deps.Curve.TotalForLevel(2) - 1
	c.XPPool = 10
	maxHP := c.MaxHP

	(&absorbSystem{deps: deps}).Update(time.Second)

	assert.Equal(t, 2, c.Level)
	assert.Equal(t, skillPointsPerLevel, c.SkillPoints)
	assert.Equal(t, attrPointsPerLevel, c.AttrPoints)
	assert.Greater(t, c.MaxHP, maxHP)
}

func TestSpawnerFillsRoomToCap(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	room.Spawners = append(room.Spawners, &world.Spawner{TemplateID: 1, Max: 2})

	sys := &spawnerSystem{deps: deps}
	sys.Update(time.Second)
	assert.Len(t, room.Mobs, 2)

	// Dead instances still count; no extras appear while they wait.
	for _, m := range room.Mobs {
		m.Dead = true
		m.TimeOfDeath = time.Now()
		break
	}
	sys.Update(time.Second)
	assert.Len(t, room.Mobs, 2)
}

func TestInactiveSpawnerNeverFires(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	room.Spawners = append(room.Spawners, &world.Spawner{TemplateID: 1, Max: 2, Inactive: true})

	(&spawnerSystem{deps: deps}).Update(time.Second)

	assert.Empty(t, room.Mobs)
}

func TestDoTTickDamages(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.Effects["poison"] = &world.Effect{
		Name: "poison", Kind: world.EffectPoison, Potency: 3,
		AppliedAt: time.Now(), EndsAt: time.Now().Add(time.Minute),
	}

	(&effectsSystem{deps: deps}).Update(time.Second)

	assert.InDelta(t, 37, c.HP, 0.001)
}

func TestDoTKillIsUnattributed(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	c.HP = 2
	c.Effects["bleed"] = &world.Effect{
		Name: "bleeding", Kind: world.EffectBleed, Potency: 5,
		AppliedAt: time.Now(), EndsAt: time.Now().Add(time.Minute),
	}

	(&effectsSystem{deps: deps}).Update(time.Second)

	assert.Equal(t, world.StatusDying, c.Status)
	assert.Equal(t, world.StanceLying, c.Stance)
}

func TestCleanupPrunesStaleInvitesAndEmptyGroups(t *testing.T) {
	deps := newDeps(t, &dice.Scripted{})
	room := addRoom(t, deps, 1)
	c := addChar(t, deps, room, 1, "Bran")
	g := deps.State.NewGroup(c)
	deps.GroupInvites[99] = g.ID

	g.Members = nil
	(&cleanupSystem{deps: deps}).Update(time.Second)

	assert.Empty(t, deps.State.Groups)
	assert.Empty(t, deps.GroupInvites)
}

func TestGuardedSystemRecoversPanic(t *testing.T) {
	g := &guarded{inner: panicker{}, log: zap.NewNop()}
	assert.NotPanics(t, func() { g.Update(time.Second) })
}

type panicker struct{}

func (panicker) Phase() system.Phase  { return system.PhaseUpdate }
func (panicker) Update(time.Duration) { panic("boom") }
