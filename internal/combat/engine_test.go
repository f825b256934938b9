package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

var testCurve = rules.Curve{Base: 1000, Exponent: 1.8, MaxLevel: 50}

func newFixture(t *testing.T, roller dice.Roller) (*Engine, *world.State, *world.Room) {
	t.Helper()
	state := world.NewState(roller)
	state.Catalog = &data.Catalog{
		Items: data.NewItemTable([]data.ItemTemplate{
			{ID: 500, Name: "a rusty dagger", Keywords: []string{"dagger"},
				Type: data.ItemWeapon, DamageBase: 1, DamageRandom: 4, Speed: 1.5,
				DamageType: data.DamagePierce, WeaponSkill: data.SkillSmallBlades},
		}),
	}
	room := world.NewRoom(1, 1, "Dusty Crossroads", "Roads meet here.")
	state.Rooms[room.ID] = room
	bus := event.NewBus()
	eff := effect.NewEngine(bus, zap.NewNop())
	eng := NewEngine(state, eff, bus, roller, testCurve, zap.NewNop())
	return eng, state, room
}

func newWarrior(t *testing.T, room *world.Room, id int32, name string) *world.Character {
	t.Helper()
	c := world.NewCharacter()
	c.ID = id
	c.FirstName = name
	c.Level = 2
	c.Base = world.Stats{Might: 6, Vitality: 9, Agility: 6, Intellect: 9, Aura: 6, Persona: 6}
	c.MaxHP = 40
	c.HP = 40
	c.MaxEssence = 15
	c.Essence = 15
	room.AddChar(c)
	return c
}

func newSword(id int64) *world.Item {
	return world.NewItem(id, &data.ItemTemplate{
		ID: 100, Name: "an iron sword", Keywords: []string{"sword"},
		Type: data.ItemWeapon, WearLoc: world.SlotMainHand,
		DamageBase: 5, DamageRandom: 3, Speed: 2.0,
		DamageType: data.DamageSlash, WeaponSkill: data.SkillSmallBlades,
	})
}

func newRat(id int64, room *world.Room) *world.Mob {
	tmpl := &data.MobTemplate{
		ID: 1, Name: "a giant rat", Keywords: []string{"rat"},
		Level: 1, HP: 12,
		Might: 3, Vitality: 3, Agility: 12, Intellect: 2, Aura: 2, Persona: 2,
		XP: 50, CoinMax: 10,
		Loot:         []data.LootDrop{{TemplateID: 500, Chance: 1.0}},
		RespawnDelay: 30,
	}
	m := world.SpawnMob(id, tmpl, room.ID, &dice.Scripted{})
	room.AddMob(m)
	return m
}

func TestMissThenHit(t *testing.T) {
	// Warrior MAR = mod(6) + mod(6)/2 = 3. Rat DV = mod(12)*2 = 8.
	roller := &dice.Scripted{Dies: []int{3, 18, 2}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.Equip(world.SlotMainHand, newSword(1))
	rat := newRat(1, room)

	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "slash"})
	assert.False(t, res.Hit, "3 + 3 does not beat DV 8")
	assert.Equal(t, 1.0, attacker.RoundtimeLeft(), "miss applies the short 1.0s base")
	assert.Equal(t, 12.0, rat.HP)

	attacker.SetRoundtime(0)
	res = eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "slash"})
	require.True(t, res.Hit)
	// Pre = 5 base + 2 rolled + 2 might mod = 9; rat pds = mod(3) = 1.
	assert.Equal(t, 8.0, res.Damage)
	assert.Equal(t, 4.0, rat.HP)
	assert.Equal(t, 2.0, attacker.RoundtimeLeft(), "hit applies weapon speed")
	assert.True(t, rat.Fighting)
	assert.Same(t, attacker, rat.Target().(*world.Character))
}

func TestCritRollsExplodingDie(t *testing.T) {
	// d20 = 20, then the d3 explodes: 3 (max) + 2 = 5 random total.
	roller := &dice.Scripted{Dies: []int{20, 3, 2}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.Equip(world.SlotMainHand, newSword(1))
	rat := newRat(1, room)

	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "slash"})
	require.True(t, res.Crit)
	// Pre = 5 + 5 + 2 = 12; pds 1 → 11.
	assert.Equal(t, 11.0, res.Damage)
}

func TestFumbleAlwaysMisses(t *testing.T) {
	roller := &dice.Scripted{Dies: []int{1}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	rat := newRat(1, room)

	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "punch"})
	assert.False(t, res.Hit)
	assert.True(t, res.Fumble)
}

func TestShieldBlockNegatesDamage(t *testing.T) {
	// Block chance 0.15 base + floor(20/10)*0.01 = 0.17; rng 0.14 blocks.
	roller := &dice.Scripted{Dies: []int{15}, Floats: []float64{0.14}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.Equip(world.SlotMainHand, newSword(1))
	defender := newWarrior(t, room, 2, "Tam")
	defender.Skills[data.SkillShieldUsage] = 20
	shield := world.NewItem(2, &data.ItemTemplate{
		ID: 101, Name: "a wooden shield", Keywords: []string{"shield"},
		Type: data.ItemShield, WearLoc: world.SlotOffHand, BlockChance: 0.15,
	})
	defender.Equip(world.SlotOffHand, shield)

	res := eng.Attack(attacker, defender, Mods{Class: Melee, Verb: "slash"})
	assert.True(t, res.Blocked)
	assert.Equal(t, 0.0, res.Damage)
	assert.Equal(t, 40.0, defender.HP)
	assert.Equal(t, 2.0, attacker.RoundtimeLeft(), "block still charges weapon speed")
}

func TestUnarmedUsesFists(t *testing.T) {
	// Unarmed: base 1, 1d2, speed 2.0.
	roller := &dice.Scripted{Dies: []int{18, 2}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	rat := newRat(1, room)

	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "punch"})
	require.True(t, res.Hit)
	// Pre = 1 + 2 + 2 = 5; pds 1 → 4.
	assert.Equal(t, 4.0, res.Damage)
	assert.Equal(t, 2.0, attacker.RoundtimeLeft())
}

func TestKillDropsCoinAndLoot(t *testing.T) {
	// Hit for 8 twice; second lands the kill. Coin die 6 → 5 talons.
	roller := &dice.Scripted{Dies: []int{18, 2, 18, 2, 6}}
	eng, state, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.Equip(world.SlotMainHand, newSword(1))
	rat := newRat(1, room)
	rat.HP = 16
	rat.MaxHP = 16

	eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "slash"})
	attacker.SetRoundtime(0)
	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "slash"})

	require.True(t, res.Killed)
	assert.True(t, rat.Dead)
	assert.False(t, rat.TimeOfDeath.IsZero())
	assert.False(t, attacker.IsFighting(), "combat stops on the kill")
	assert.EqualValues(t, 50, attacker.XPPool, "full template XP when solo")
	assert.EqualValues(t, 5, room.Coins)
	require.Len(t, room.Items, 1, "guaranteed loot drop materialized")
	assert.Equal(t, "a rusty dagger", room.Items[0].Name())
	assert.Len(t, state.Items, 1, "loot instance registered with the world")
}

func TestGroupSplitsKillReward(t *testing.T) {
	roller := &dice.Scripted{}
	eng, state, room := newFixture(t, roller)
	killer := newWarrior(t, room, 1, "Brand")
	buddy := newWarrior(t, room, 2, "Tam")
	g := state.NewGroup(killer)
	require.True(t, g.Add(buddy))
	rat := newRat(1, room)
	rat.HP = 0

	eng.MobDefeated(rat, killer)
	// 50 × 0.80 = 40, split 20/20.
	assert.EqualValues(t, 20, killer.XPPool)
	assert.EqualValues(t, 20, buddy.XPPool)
}

func TestCharacterDefeatStartsDeathTimer(t *testing.T) {
	roller := &dice.Scripted{}
	eng, _, room := newFixture(t, roller)
	victim := newWarrior(t, room, 1, "Brand")
	victim.Coins = 100
	victim.XPPool = 300
	victim.XPTotal = testCurve.TotalForLevel(2) + 500
	victim.HP = 0

	before := time.Now()
	eng.CharacterDefeated(victim, nil)

	assert.Equal(t, world.StatusDying, victim.Status)
	assert.Equal(t, world.StanceLying, victim.Stance)
	assert.EqualValues(t, 0, victim.XPPool, "pool is forfeit")
	assert.Equal(t, testCurve.TotalForLevel(2)+450, victim.XPTotal, "loses 10% of in-level progress")
	assert.EqualValues(t, 90, victim.Coins)
	assert.EqualValues(t, 10, room.Coins)
	// Vitality 9 → 9 second timer.
	assert.WithinDuration(t, before.Add(9*time.Second), victim.DeathTimerEnd, time.Second)
}

func TestCastDisruption(t *testing.T) {
	// Damage 8 → DC 10; d20 3 + spellcraft 0 + int mod 3 = 6 fails.
	roller := &dice.Scripted{Dies: []int{18, 2, 3}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.Equip(world.SlotMainHand, newSword(1))
	caster := newWarrior(t, room, 2, "Tam")
	caster.Casting = &world.Cast{AbilityKey: "firebolt", Remaining: 2}
	caster.SetRoundtime(2)

	res := eng.Attack(attacker, caster, Mods{Class: Melee, Verb: "slash"})
	require.True(t, res.Hit)
	assert.Nil(t, caster.Casting, "concentration broken")
	assert.Equal(t, 0.0, caster.RoundtimeLeft())
}

func TestHiddenAttackerGainsAdvantageAndIsRevealed(t *testing.T) {
	// Roll 6 alone misses DV 8 (6+3=9 > 8 actually hits); use 4: 4+3=7 ≤ 8
	// without the bonus, 7+4=11 with it.
	roller := &dice.Scripted{Dies: []int{4, 1}}
	eng, _, room := newFixture(t, roller)
	attacker := newWarrior(t, room, 1, "Brand")
	attacker.SetHidden(true)
	rat := newRat(1, room)

	res := eng.Attack(attacker, rat, Mods{Class: Melee, Verb: "stab"})
	assert.True(t, res.Hit, "striking from hiding gains +4")
	assert.False(t, attacker.IsHidden(), "any resolved attack reveals")
}

func TestWeatherMultipliers(t *testing.T) {
	room := world.NewRoom(9, 1, "Open Field", "Grass.")
	room.Flags[world.FlagOutdoors] = true

	room.SetWeather(world.FlagWet)
	assert.Equal(t, 0.75, WeatherMult(room, data.DamageFire))
	assert.Equal(t, 1.25, WeatherMult(room, data.DamageLightning))
	assert.Equal(t, 1.0, WeatherMult(room, data.DamageSlash))
	// The documented boundary: 8 pre-mitigation × 0.75 floors to 6.
	assert.Equal(t, 6, int(float64(8)*WeatherMult(room, data.DamageFire)))

	room.SetWeather(world.FlagWet, world.FlagStormy)
	assert.Equal(t, 1.25*1.5, WeatherMult(room, data.DamageLightning))

	room.SetWeather(world.FlagFreezing)
	assert.Equal(t, 1.25, WeatherMult(room, data.DamageCold))
	assert.Equal(t, 0.9, WeatherMult(room, data.DamageFire))

	room.SetWeather(world.FlagBlazing)
	assert.Equal(t, 1.25, WeatherMult(room, data.DamageFire))
	assert.Equal(t, 0.9, WeatherMult(room, data.DamageCold))

	room.SetWeather(world.FlagSandstorm)
	assert.Equal(t, 0.85, WeatherMult(room, data.DamageLightning))
	assert.Equal(t, 1.0, WeatherMult(room, data.DamageBludgeon))
}
