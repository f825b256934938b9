package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
)

func testCharacter(t *testing.T) *Character {
	t.Helper()
	c := NewCharacter()
	c.ID = 1
	c.FirstName = "Kara"
	c.Base = Stats{Might: 12, Vitality: 10, Agility: 9, Intellect: 8, Aura: 7, Persona: 6}
	c.MaxHP = 30
	c.HP = 30
	c.MaxEssence = 20
	c.Essence = 20
	return c
}

func testRoom(t *testing.T) *Room {
	t.Helper()
	return NewRoom(1, 1, "Test Chamber", "A bare room.")
}

func weaponTemplate() *data.ItemTemplate {
	return &data.ItemTemplate{
		ID: 100, Name: "an iron sword", Keywords: []string{"sword", "iron"},
		Type: data.ItemWeapon, WearLoc: SlotMainHand,
		DamageBase: 2, DamageRandom: 6, Speed: 3.0,
		DamageType: "slash", WeaponSkill: "small blades", Weight: 5, Value: 120,
	}
}

func TestEffStatLayersEquipmentAndEffects(t *testing.T) {
	c := testCharacter(t)
	assert.Equal(t, 12, c.EffStat(StatMight))

	ring := NewItem(1, &data.ItemTemplate{
		ID: 200, Name: "a brass ring", Keywords: []string{"ring"},
		Type: data.ItemGeneral, WearLoc: SlotFinger,
		Bonuses: map[string]int{StatMight: 2},
	})
	c.Equip(SlotFinger, ring)
	assert.Equal(t, 14, c.EffStat(StatMight))

	c.Effects["Rage"] = &Effect{
		Name: "Rage", Kind: EffectBuff, Channel: StatMight, Amount: 3,
		EndsAt: time.Now().Add(time.Minute),
	}
	assert.Equal(t, 17, c.EffStat(StatMight))

	// Expired effects no longer count.
	c.Effects["Rage"].EndsAt = time.Now().Add(-time.Second)
	assert.Equal(t, 14, c.EffStat(StatMight))
}

func TestDodgeValueArmorPenalty(t *testing.T) {
	c := testCharacter(t)
	// agility 9 → mod 3 → DV 6 with no armor.
	assert.Equal(t, 6, c.DodgeValue())

	plate := NewItem(2, &data.ItemTemplate{
		ID: 201, Name: "a steel breastplate", Keywords: []string{"breastplate"},
		Type: data.ItemArmor, WearLoc: SlotTorso, ArmorValue: 4,
	})
	c.Equip(SlotTorso, plate)
	assert.Equal(t, 4, c.ArmorValue())
	assert.Equal(t, 2, c.DodgeValue())
}

func TestTwoHandedOccupiesBothHands(t *testing.T) {
	c := testCharacter(t)
	maul := NewItem(3, &data.ItemTemplate{
		ID: 202, Name: "a great maul", Keywords: []string{"maul"},
		Type: data.ItemWeapon2H, WearLoc: SlotMainHand,
		DamageBase: 5, DamageRandom: 10, Speed: 5.0, DamageType: "bludgeon",
	})
	c.Equip(SlotMainHand, maul)
	assert.Same(t, maul, c.Equipment[SlotMainHand])
	assert.Same(t, maul, c.Equipment[SlotOffHand])

	got := c.Unequip(SlotOffHand)
	assert.Same(t, maul, got)
	assert.Nil(t, c.Equipment[SlotMainHand])
	assert.Nil(t, c.Equipment[SlotOffHand])
}

func TestHandLimit(t *testing.T) {
	c := testCharacter(t)
	a := NewItem(4, weaponTemplate())
	b := NewItem(5, weaponTemplate())
	third := NewItem(6, weaponTemplate())
	require.True(t, c.Hold(a))
	require.True(t, c.Hold(b))
	assert.False(t, c.Hold(third))
	require.True(t, c.Release(a))
	assert.True(t, c.Hold(third))
}

func TestContainerCapacityAndCycles(t *testing.T) {
	sackTmpl := &data.ItemTemplate{
		ID: 300, Name: "a burlap sack", Keywords: []string{"sack"},
		Type: data.ItemContainer, Capacity: 10, Weight: 1,
	}
	outer := NewItem(10, sackTmpl)
	inner := NewItem(11, sackTmpl)
	rock := NewItem(12, &data.ItemTemplate{
		ID: 301, Name: "a heavy rock", Keywords: []string{"rock"},
		Type: data.ItemGeneral, Weight: 8,
	})

	require.True(t, outer.CanContain(rock))
	outer.AddContent(rock)
	// 8 of 10 used; a 1-weight sack fits, another rock does not.
	assert.True(t, outer.CanContain(inner))
	assert.False(t, outer.CanContain(NewItem(13, rock.Tmpl)))

	outer.AddContent(inner)
	// No cycles: outer cannot go inside its own contents.
	assert.False(t, inner.CanContain(outer))
	assert.False(t, outer.CanContain(outer))
}

func TestXPPoolCap(t *testing.T) {
	c := testCharacter(t)
	// intellect 8 → cap 800.
	assert.EqualValues(t, 790, func() int64 { c.XPPool = 10; return c.GainXPPool(10000) }())
	assert.EqualValues(t, 800, c.XPPool)
	assert.EqualValues(t, 0, c.GainXPPool(5))
}

func TestSplitShares(t *testing.T) {
	shares := SplitShares(10, 3)
	require.Len(t, shares, 3)
	assert.EqualValues(t, 4, shares[0]) // leader takes the remainder
	assert.EqualValues(t, 3, shares[1])
	assert.EqualValues(t, 3, shares[2])

	assert.Nil(t, SplitShares(10, 0))
}

func TestGroupMembership(t *testing.T) {
	s := NewState(dice.NewRoller(1))
	leader := testCharacter(t)
	g := s.NewGroup(leader)
	require.Same(t, leader, g.Leader())

	members := make([]*Character, 0, MaxGroupSize)
	for i := 2; i <= MaxGroupSize; i++ {
		m := NewCharacter()
		m.ID = int32(i)
		m.FirstName = "M"
		require.True(t, g.Add(m))
		members = append(members, m)
	}
	extra := NewCharacter()
	extra.ID = 99
	assert.False(t, g.Add(extra), "group is capped at %d", MaxGroupSize)

	// Leader leaving promotes the next member.
	assert.False(t, g.Remove(leader))
	assert.Same(t, members[0], g.Leader())
}

func TestSpawnMobVarianceBounds(t *testing.T) {
	tmpl := &data.MobTemplate{
		ID: 1, Name: "a giant rat", Keywords: []string{"rat"},
		Level: 1, HP: 12,
		Might: 6, Vitality: 6, Agility: 8, Intellect: 2, Aura: 2, Persona: 2,
		StatVariance: 2,
	}
	roller := dice.NewRoller(42)
	for i := 0; i < 50; i++ {
		m := SpawnMob(int64(i+1), tmpl, 1, roller)
		assert.GreaterOrEqual(t, m.Stats.Might, 4)
		assert.LessOrEqual(t, m.Stats.Might, 8)
		assert.GreaterOrEqual(t, m.Stats.Intellect, 1, "variance never drops a stat below 1")
		assert.Equal(t, 12.0, m.MaxHP)
	}
}

func TestNextAttackPicksAtRandom(t *testing.T) {
	tmpl := &data.MobTemplate{
		ID: 1, Name: "a cave drake", Keywords: []string{"drake"}, HP: 30,
		Attacks: []data.MobAttack{
			{Name: "bite", Base: 2, Random: 4, Speed: 2.5, Type: data.DamagePierce},
			{Name: "claw", Base: 1, Random: 3, Speed: 2.0, Type: data.DamageSlash},
			{Name: "tail sweep", Base: 3, Random: 2, Speed: 3.0, Type: data.DamageBludgeon},
		},
	}
	m := SpawnMob(1, tmpl, 1, dice.NewRoller(1))

	roller := &dice.Scripted{Dies: []int{3, 1, 2}}
	assert.Equal(t, "tail sweep", m.NextAttack(roller).Name)
	assert.Equal(t, "bite", m.NextAttack(roller).Name)
	assert.Equal(t, "claw", m.NextAttack(roller).Name)
}

func TestNextAttackDefaultsWithoutAList(t *testing.T) {
	tmpl := &data.MobTemplate{ID: 1, Name: "a giant rat", Keywords: []string{"rat"}, HP: 5}
	m := SpawnMob(1, tmpl, 1, dice.NewRoller(1))

	// No dice scripted: a single (or missing) attack must not roll.
	atk := m.NextAttack(&dice.Scripted{})
	assert.Equal(t, "strike", atk.Name)
	assert.Equal(t, 2.0, atk.Speed)
}

func TestFindMobSkipsDeadAndHidden(t *testing.T) {
	r := testRoom(t)
	tmpl := &data.MobTemplate{ID: 1, Name: "a giant rat", Keywords: []string{"rat"}, HP: 5}
	roller := dice.NewRoller(1)
	first := SpawnMob(1, tmpl, r.ID, roller)
	second := SpawnMob(2, tmpl, r.ID, roller)
	r.AddMob(first)
	r.AddMob(second)

	assert.Same(t, first, r.FindMob("rat"), "lowest id wins with duplicates")
	first.Dead = true
	assert.Same(t, second, r.FindMob("rat"))
	second.Hidden = true
	assert.Nil(t, r.FindMob("rat"))
}

func TestSetWeatherMirrorsOutdoorRooms(t *testing.T) {
	s := NewState(dice.NewRoller(1))
	outside := testRoom(t)
	outside.Flags[FlagOutdoors] = true
	inside := NewRoom(2, 1, "Cellar", "Dank.")
	inside.Flags[FlagIndoors] = true
	s.Rooms[outside.ID] = outside
	s.Rooms[inside.ID] = inside

	s.SetWeather(FlagStormy)
	assert.True(t, outside.Flag(FlagStormy))
	assert.False(t, inside.Flag(FlagStormy))

	s.SetWeather(FlagFreezing)
	assert.False(t, outside.Flag(FlagStormy))
	assert.True(t, outside.Flag(FlagFreezing))

	s.SetWeather("")
	for _, f := range WeatherFlags {
		assert.False(t, outside.Flag(f))
	}
}

func TestDestroyItemCascadesAndQueuesDeletes(t *testing.T) {
	s := NewState(dice.NewRoller(1))
	sack := NewItem(1, &data.ItemTemplate{ID: 300, Name: "a sack", Type: data.ItemContainer, Capacity: 100})
	coinpurse := NewItem(2, &data.ItemTemplate{ID: 301, Name: "a purse", Type: data.ItemContainer, Capacity: 10})
	sack.AddContent(coinpurse)
	sack.Unsaved = false
	coinpurse.Unsaved = false
	s.RegisterItem(sack)
	s.RegisterItem(coinpurse)

	s.DestroyItem(sack)
	assert.Empty(t, s.Items)
	assert.ElementsMatch(t, []int64{1, 2}, s.DeadItems)
}
