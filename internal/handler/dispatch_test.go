package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/config"
	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

func newTestDeps(t *testing.T, roller dice.Roller) *Deps {
	t.Helper()
	state := world.NewState(roller)
	state.Catalog = &data.Catalog{
		Items: data.NewItemTable([]data.ItemTemplate{
			{ID: 1, Name: "a steel dagger", Keywords: []string{"dagger"},
				Type: data.ItemWeapon, DamageBase: 2, DamageRandom: 4, Speed: 1.5,
				DamageType: data.DamagePierce, WeaponSkill: data.SkillSmallBlades, Value: 40},
			{ID: 2, Name: "a greataxe", Keywords: []string{"greataxe", "axe"},
				Type: data.ItemWeapon2H, DamageBase: 6, DamageRandom: 8, Speed: 3.0,
				DamageType: data.DamageSlash, WeaponSkill: data.SkillLargeBlades, Value: 200},
			{ID: 3, Name: "a wooden buckler", Keywords: []string{"buckler", "shield"},
				Type: data.ItemShield, BlockChance: 0.05, Value: 30},
			{ID: 4, Name: "a healing draught", Keywords: []string{"draught", "potion"},
				Type: data.ItemDrink, Effect: "heal_hp", Amount: 10, Value: 25},
			{ID: 5, Name: "a battered chest", Keywords: []string{"chest"},
				Type: data.ItemContainer, Capacity: 50, Value: 10,
				LootTable: []data.LootDrop{{TemplateID: 4, Chance: 1.0}}},
		}),
		Mobs:      data.NewMobTable(nil),
		Abilities: data.NewAbilityTable(nil),
		Help:      &data.HelpTable{},
	}
	bus := event.NewBus()
	eff := effect.NewEngine(bus, zap.NewNop())
	curve := rules.Curve{Base: 100, Exponent: 1.0, MaxLevel: 50}
	return &Deps{
		Cfg:     config.Defaults(),
		Log:     zap.NewNop(),
		State:   state,
		Bus:     bus,
		Combat:  combat.NewEngine(state, eff, bus, roller, curve, zap.NewNop()),
		Effects: eff,
		Roller:  roller,
		Curve:   curve,
	}
}

func testRoom(t *testing.T, deps *Deps, id int32, flags ...string) *world.Room {
	t.Helper()
	room := world.NewRoom(id, 1, "Test Hall", "A bare hall.")
	for _, f := range flags {
		room.Flags[f] = true
	}
	deps.State.Rooms[id] = room
	return room
}

func testChar(t *testing.T, deps *Deps, room *world.Room, id int32, name string) *world.Character {
	t.Helper()
	c := world.NewCharacter()
	c.ID = id
	c.FirstName = name
	c.Level = 1
	c.Race = &data.Race{ID: 1, Name: "Human"}
	c.Class = &data.Class{ID: 1, Name: "Fighter"}
	c.Base = world.Stats{Might: 8, Vitality: 10, Agility: 8, Intellect: 8, Aura: 8, Persona: 8}
	c.MaxHP = 40
	c.HP = 40
	c.MaxEssence = 20
	c.Essence = 20
	c.Hunger = 100
	c.Thirst = 100
	c.Coins = 100
	deps.State.AddChar(c)
	room.AddChar(c)
	return c
}

func mint(t *testing.T, deps *Deps, templateID int64) *world.Item {
	t.Helper()
	tmpl := deps.State.ItemTemplate(templateID)
	require.NotNil(t, tmpl)
	it := world.NewItem(deps.State.NextItemID(), tmpl)
	deps.State.RegisterItem(it)
	return it
}

func TestParseSplitsVerbAndArgs(t *testing.T) {
	tests := []struct {
		line, verb, args string
	}{
		{"look", "look", ""},
		{"  GET sword  ", "get", "sword"},
		{"'hello there", "'", "hello there"},
		{":waves.", ":", "waves."},
		{"", "", ""},
	}
	for _, tt := range tests {
		verb, args := parse(tt.line)
		assert.Equal(t, tt.verb, verb, tt.line)
		assert.Equal(t, tt.args, args, tt.line)
	}
}

func TestDispatchRejectsAdminVerbsForMortals(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	assert.True(t, d.Dispatch(c, "@goto 2"))
	assert.Nil(t, deps.State.Room(2))
}

func TestStatusGatesPrecedeAdminVerbCheck(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	// An unknown-looking admin verb still counts as an action: it must
	// pass through the status gates first, so it breaks meditation.
	d.Dispatch(c, "meditate")
	require.Equal(t, world.StatusMeditating, c.Status)
	d.Dispatch(c, "@goto 2")
	assert.Equal(t, world.StatusAlive, c.Status)
	assert.Same(t, room, c.InRoom)
}

func TestDispatchRoundtimeGate(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	other := testRoom(t, deps, 2)
	room.Exits["north"] = &world.Exit{To: 2}
	c := testChar(t, deps, room, 1, "Bran")
	c.SetRoundtime(3)

	d.Dispatch(c, "north")

	assert.Empty(t, other.Chars)
	assert.Contains(t, room.Chars, c.ID)
}

func TestDispatchDyingAllowsOnlyQuit(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.Status = world.StatusDying

	assert.True(t, d.Dispatch(c, "say help"))
	assert.Equal(t, world.StatusDying, c.Status)
}

func TestDispatchDeadAllowsRelease(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.Status = world.StatusDead
	c.Stance = world.StanceLying
	c.HP = 0
	c.Tether = 5

	d.Dispatch(c, "release")

	assert.Equal(t, world.StatusAlive, c.Status)
	assert.Equal(t, world.StanceStanding, c.Stance)
	assert.Equal(t, c.MaxHP, c.HP)
	assert.Equal(t, 4, c.Tether)
}

func TestDispatchMeditationBreaksOnAction(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	d.Dispatch(c, "meditate")
	require.Equal(t, world.StatusMeditating, c.Status)

	d.Dispatch(c, "score")
	assert.Equal(t, world.StatusMeditating, c.Status)

	d.Dispatch(c, "say hello")
	assert.Equal(t, world.StatusAlive, c.Status)
}

func TestMoveThroughExit(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	dest := testRoom(t, deps, 2)
	room.Exits["north"] = &world.Exit{To: 2}
	c := testChar(t, deps, room, 1, "Bran")

	d.Dispatch(c, "n")

	assert.Same(t, dest, c.InRoom)
	assert.Contains(t, dest.Chars, c.ID)
	assert.NotContains(t, room.Chars, c.ID)
	assert.Greater(t, c.Roundtime, 0.0)
}

func TestGetAndDropItem(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	it := mint(t, deps, 1)
	room.AddItem(it)

	d.Dispatch(c, "get dagger")
	assert.Same(t, it, c.FindHeld("dagger"))
	assert.Empty(t, room.Items)

	d.Dispatch(c, "drop dagger")
	assert.Nil(t, c.FindHeld("dagger"))
	assert.Contains(t, room.Items, it)
}

func TestWieldTwoHandedNeedsBothHands(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	buckler := mint(t, deps, 3)
	require.True(t, c.Hold(buckler))
	d.Dispatch(c, "wear buckler")
	require.Same(t, buckler, c.Equipment[world.SlotOffHand])

	axe := mint(t, deps, 2)
	require.True(t, c.Hold(axe))
	d.Dispatch(c, "wield axe")
	assert.Nil(t, c.Equipment[world.SlotMainHand])
	assert.Same(t, axe, c.FindHeld("axe"))

	d.Dispatch(c, "remove buckler")
	d.Dispatch(c, "drop buckler")
	d.Dispatch(c, "wield axe")
	assert.Same(t, axe, c.Equipment[world.SlotMainHand])
	assert.Same(t, axe, c.Equipment[world.SlotOffHand])
}

func TestGiveItemNeedsAccept(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	giver := testChar(t, deps, room, 1, "Bran")
	taker := testChar(t, deps, room, 2, "Wren")
	it := mint(t, deps, 1)
	require.True(t, giver.Hold(it))

	d.Dispatch(giver, "give dagger to wren")
	require.NotNil(t, taker.PendingGive)
	assert.Same(t, it, giver.FindHeld("dagger"))

	d.Dispatch(taker, "accept")
	assert.Nil(t, taker.PendingGive)
	assert.Nil(t, giver.FindHeld("dagger"))
	assert.Same(t, it, taker.FindHeld("dagger"))
}

func TestGiveCoinsDecline(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	giver := testChar(t, deps, room, 1, "Bran")
	taker := testChar(t, deps, room, 2, "Wren")

	d.Dispatch(giver, "give 30 talons to wren")
	require.NotNil(t, taker.PendingGive)

	d.Dispatch(taker, "decline")
	assert.Nil(t, taker.PendingGive)
	assert.Equal(t, int64(100), giver.Coins)
	assert.Equal(t, int64(100), taker.Coins)
}

func TestOpenChestMaterializesLootOnce(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	chest := mint(t, deps, 5)
	room.AddItem(chest)

	d.Dispatch(c, "open chest")
	assert.True(t, chest.Stats.Open)
	assert.True(t, chest.Stats.LootRolled)
	require.Len(t, chest.Contents, 1)
	assert.Equal(t, int64(4), chest.Contents[0].Tmpl.ID)

	d.Dispatch(c, "close chest")
	d.Dispatch(c, "open chest")
	assert.Len(t, chest.Contents, 1)
}

func TestHideRolls(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{Dies: []int{20}})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	// 20 + rank 0 + agi mod 2 = 22 > 12.
	d.Dispatch(c, "hide")
	assert.True(t, c.IsHidden())
	assert.Greater(t, c.Roundtime, 0.0)

	c.SetHidden(false)
	c.SetRoundtime(0)
	deps.Roller.(*dice.Scripted).Dies = []int{1}
	d.Dispatch(c, "hide")
	assert.False(t, c.IsHidden())
}

func TestSearchThenDisarmExitTrap(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{Dies: []int{15, 15, 15}})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	testRoom(t, deps, 2)
	room.Exits["north"] = &world.Exit{To: 2, Trap: &world.ExitTrap{
		Active: true, PerceptionDC: 10, DisarmDC: 10, Damage: 8, DamageType: data.DamagePierce,
	}}
	c := testChar(t, deps, room, 1, "Bran")

	d.Dispatch(c, "disarm north")
	assert.True(t, room.Exits["north"].Trap.Active, "undetected trap cannot be disarmed")

	d.Dispatch(c, "search")
	assert.True(t, c.DetectedTraps[trapKey(room.ID, "north")])

	c.SetRoundtime(0)
	d.Dispatch(c, "disarm north")
	assert.False(t, room.Exits["north"].Trap.Active)
	assert.Equal(t, 40.0, c.HP, "clean disarm deals no damage")
}

func TestTrainSpendsPoints(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.AttrPoints = 1
	c.SkillPoints = 2

	d.Dispatch(c, "train might")
	assert.Equal(t, 9, c.Base.Get(world.StatMight))
	assert.Zero(t, c.AttrPoints)

	d.Dispatch(c, "train stealth")
	assert.Equal(t, 1, c.Skills[data.SkillStealth])
	assert.Equal(t, 1, c.SkillPoints)

	d.Dispatch(c, "train might")
	assert.Equal(t, 9, c.Base.Get(world.StatMight), "no points left")
}

func TestShopPricesHonorBartering(t *testing.T) {
	tmpl := &data.ItemTemplate{Value: 100}
	entry := &world.ShopEntry{BuyMod: 1.5}

	assert.Equal(t, int64(150), buyPrice(tmpl, entry, 0))
	// Rank 50 → 2% off: 150 × 98 / 100 = 147.
	assert.Equal(t, int64(147), buyPrice(tmpl, entry, 50))

	assert.Equal(t, int64(25), sellPrice(tmpl, 0, 0))
	assert.Equal(t, int64(25), sellPrice(tmpl, 0.25, 25))
	// Rank 50 → 2% up: 25 × 102 / 100 = 25 (integer floor).
	assert.Equal(t, int64(25), sellPrice(tmpl, 0.25, 50))
}

func TestBuyFromInfiniteStock(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1, world.FlagShop)
	room.Shop = []*world.ShopEntry{{TemplateID: 1, Stock: -1, BuyMod: 1.0}}
	c := testChar(t, deps, room, 1, "Bran")

	d.Dispatch(c, "buy dagger")

	it := c.FindHeld("dagger")
	require.NotNil(t, it)
	assert.Equal(t, int64(60), c.Coins)
}

func TestSellRespectsBuyFilter(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1, world.FlagShop)
	room.BuyFilter = []string{data.ItemShield}
	c := testChar(t, deps, room, 1, "Bran")
	it := mint(t, deps, 1)
	require.True(t, c.Hold(it))

	d.Dispatch(c, "sell dagger")
	assert.Same(t, it, c.FindHeld("dagger"), "shop only buys shields")

	room.BuyFilter = nil
	d.Dispatch(c, "sell dagger")
	assert.Nil(t, c.FindHeld("dagger"))
	assert.Equal(t, int64(110), c.Coins)
}

func TestDrinkHealsAndDestroys(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.HP = 20
	it := mint(t, deps, 4)
	require.True(t, c.Hold(it))

	d.Dispatch(c, "drink draught")

	assert.InDelta(t, 30, c.HP, 0.001)
	assert.Nil(t, c.FindHeld("draught"))
	assert.NotContains(t, deps.State.Items, it.ID)
}

func TestCoinArg(t *testing.T) {
	n, ok := coinArg("50")
	assert.True(t, ok)
	assert.Equal(t, int64(50), n)

	n, ok = coinArg("12 talons")
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, ok = coinArg("dagger")
	assert.False(t, ok)
}

func TestGroupInviteJoinLeave(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	a := testChar(t, deps, room, 1, "Bran")
	b := testChar(t, deps, room, 2, "Wren")

	d.Dispatch(a, "group invite wren")
	require.Contains(t, deps.GroupInvites, b.ID)

	d.Dispatch(b, "group join")
	g := deps.State.GroupOf(b)
	require.NotNil(t, g)
	assert.Same(t, a, g.Leader())
	assert.NotContains(t, deps.GroupInvites, b.ID)

	d.Dispatch(b, "group leave")
	assert.Nil(t, deps.State.GroupOf(b))
	assert.Nil(t, deps.State.GroupOf(a), "group of one dissolves")
}

func TestCompleteCastFiresHeldSpell(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	deps.State.Catalog.Abilities = data.NewAbilityTable([]data.Ability{
		{Key: "minor_heal", Name: "Minor Heal", Kind: "spell", School: data.SchoolDivine,
			EssenceCost: 5, CastTime: 2.0, HealBase: 6,
			MsgSelf: "Warmth knits your wounds."},
	})
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.Spells["minor_heal"] = true
	c.HP = 20

	d.Dispatch(c, "cast minor_heal")
	require.NotNil(t, c.Casting)
	assert.InDelta(t, 20, c.HP, 0.001, "nothing happens until the cast completes")

	c.Casting.Remaining = 0
	CompleteCast(deps, d, c)
	assert.Nil(t, c.Casting)
	assert.Greater(t, c.HP, 20.0)
	assert.InDelta(t, 15, c.Essence, 0.001)
}

func TestSecondDefeatDoesNotRearmDeathTimer(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")
	c.Status = world.StatusAlive
	deps.Combat.CharacterDefeated(c, nil)
	end := c.DeathTimerEnd
	require.False(t, end.IsZero())

	time.Sleep(2 * time.Millisecond)
	deps.Combat.CharacterDefeated(c, nil)
	assert.Equal(t, end, c.DeathTimerEnd)
}
