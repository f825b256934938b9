package world

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/net"
	"github.com/talonmoor/server/internal/rules"
)

// MaxHeldItems is the hand limit: at most two top-level held items.
const MaxHeldItems = 2

// Cast is an in-progress spellcast.
type Cast struct {
	AbilityKey string
	TargetRef  string  // player-typed target, resolved at completion
	Remaining  float64 // seconds until the cast fires
}

// GiveOffer is a pending give awaiting the recipient's accept.
type GiveOffer struct {
	From  *Character
	Item  *Item
	Coins int64
}

// Character is a player character attached to a session. All fields are
// mutated only from the game-loop goroutine.
type Character struct {
	ID        int32
	AccountID int32
	Session   *net.Session

	FirstName string
	LastName  string
	Sex       string
	Race      *data.Race
	Class     *data.Class

	Level       int
	XPPool      int64
	XPTotal     int64
	SkillPoints int
	AttrPoints  int
	Tether      int // spiritual tether; decremented on death and release

	HP         float64
	MaxHP      float64
	Essence    float64
	MaxEssence float64

	Status Status
	Stance Stance

	Base      Stats
	Skills    map[string]int
	Spells    map[string]bool
	Abilities map[string]bool

	Inventory []*Item          // held items, hand-capped
	Equipment map[string]*Item // slot → instance; 2H weapons appear in both hand slots

	RoomID int32 // persisted location
	InRoom *Room

	Coins  int64
	Hunger int // 0..100
	Thirst int // 0..100

	Description string
	Admin       bool

	// Runtime-only state.
	target        Actor
	Fighting      bool
	Casting       *Cast
	Effects       map[string]*Effect
	Roundtime     float64
	DeathTimerEnd time.Time
	PendingGive   *GiveOffer
	DetectedTraps map[string]bool
	Hidden        bool
	GroupID       int64

	Playtime int64 // accumulated seconds from previous sessions
	LoginAt  time.Time

	Dirty bool
}

// NewCharacter builds a blank character shell with initialized maps.
func NewCharacter() *Character {
	return &Character{
		Status:        StatusAlive,
		Stance:        StanceStanding,
		Skills:        make(map[string]int),
		Spells:        make(map[string]bool),
		Abilities:     make(map[string]bool),
		Equipment:     make(map[string]*Item),
		Effects:       make(map[string]*Effect),
		DetectedTraps: make(map[string]bool),
		Tether:        10,
	}
}

func (c *Character) Name() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

func (c *Character) Room() *Room       { return c.InRoom }
func (c *Character) IsCharacter() bool { return true }

// Send queues a line for the character's client. Safe with no session
// (tests, link-dead grace).
func (c *Character) Send(msg string) {
	if c.Session != nil {
		c.Session.SendLine(msg)
	}
}

// Prompt renders the status prompt emitted before every input read.
func (c *Character) Prompt() string {
	return fmt.Sprintf("<%d/%d %d/%d|%s>",
		int(c.HP), int(c.MaxHP), int(c.Essence), int(c.MaxEssence), stanceLabel(c.Stance))
}

func stanceLabel(s Stance) string {
	switch s {
	case StanceSitting:
		return "Sitting"
	case StanceLying:
		return "Lying"
	default:
		return "Standing"
	}
}

// ── Derived attributes ─────────────────────────────────────────────

// EffStat is the effective stat: base + equipment bonuses + live effects.
func (c *Character) EffStat(stat string) int {
	v := c.Base.Get(stat) + c.equipBonus(stat) + effectBonus(c.Effects, stat, time.Now())
	if v < 0 {
		v = 0
	}
	return v
}

// Mod is the ruleset modifier of an effective stat.
func (c *Character) Mod(stat string) int { return rules.Mod(c.EffStat(stat)) }

// equipBonus sums a channel's bonuses across template mods and instance
// overlays of equipped items. Two-handed weapons are counted once.
func (c *Character) equipBonus(channel string) int {
	total := 0
	for _, slot := range SlotOrder {
		it := c.Equipment[slot]
		if it == nil {
			continue
		}
		if slot == SlotOffHand && it == c.Equipment[SlotMainHand] {
			continue // same 2H instance
		}
		total += it.Tmpl.Bonuses[channel] + it.Bonus(channel)
	}
	return total
}

// ArmorValue is the summed armor value of worn equipment plus armor
// channel bonuses.
func (c *Character) ArmorValue() int {
	total := 0
	for _, slot := range SlotOrder {
		it := c.Equipment[slot]
		if it == nil {
			continue
		}
		if slot == SlotOffHand && it == c.Equipment[SlotMainHand] {
			continue
		}
		total += it.Tmpl.ArmorValue
	}
	total += c.equipBonus(ChannelArmor) + effectBonus(c.Effects, ChannelArmor, time.Now())
	if total < 0 {
		total = 0
	}
	return total
}

// BarrierValue is the magical mitigation channel, purely effect-driven.
func (c *Character) BarrierValue() int {
	v := effectBonus(c.Effects, ChannelBarrier, time.Now())
	if v < 0 {
		v = 0
	}
	return v
}

// DodgeValue derives DV; armor load penalizes dodge, effects can shift it.
func (c *Character) DodgeValue() int {
	return rules.DodgeValue(c.Mod(StatAgility), c.ArmorValue()) +
		effectBonus(c.Effects, ChannelDodge, time.Now())
}

// Resistance returns the multiplicative damage-type reduction in [0, 0.75].
func (c *Character) Resistance(damageType string) float64 {
	pts := c.equipBonus(ResistChannel(damageType)) +
		effectBonus(c.Effects, ResistChannel(damageType), time.Now())
	res := float64(pts) / 100
	if res < 0 {
		res = 0
	}
	if res > 0.75 {
		res = 0.75
	}
	return res
}

// SkillRank returns the trained rank of a skill.
func (c *Character) SkillRank(skill string) int { return c.Skills[skill] }

// SlowPenalty is the extra attack roundtime from slowing effects.
func (c *Character) SlowPenalty() float64 {
	return float64(effectBonus(c.Effects, ChannelSlow, time.Now()))
}

// Silenced reports whether a silence effect blocks casting.
func (c *Character) Silenced() bool {
	return hasEffectKind(c.Effects, EffectSilence, time.Now())
}

// StanceLocked reports whether a stance-lock effect prevents rising.
func (c *Character) StanceLocked() bool {
	return hasEffectKind(c.Effects, EffectStanceLock, time.Now())
}

// ── Vitals ─────────────────────────────────────────────────────────

func (c *Character) CurrentHP() float64 { return c.HP }
func (c *Character) MaximumHP() float64 { return c.MaxHP }

// Damage applies damage, flooring HP at 0, and returns remaining HP.
func (c *Character) Damage(amount float64) float64 {
	if amount < 0 {
		amount = 0
	}
	c.HP -= amount
	if c.HP < 0 {
		c.HP = 0
	}
	c.Dirty = true
	return c.HP
}

// HealHP restores HP up to the maximum.
func (c *Character) HealHP(amount float64) {
	if amount <= 0 {
		return
	}
	c.HP += amount
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	c.Dirty = true
}

// AdjustMaxHP shifts MaxHP by delta (effects with a max_hp channel mutate
// both max and current); HP is clamped into the new range.
func (c *Character) AdjustMaxHP(delta float64) {
	c.MaxHP += delta
	if c.MaxHP < 1 {
		c.MaxHP = 1
	}
	if delta > 0 {
		c.HP += delta
	}
	c.ClampVitals()
}

// AdjustMaxEssence mirrors AdjustMaxHP for the essence pool.
func (c *Character) AdjustMaxEssence(delta float64) {
	c.MaxEssence += delta
	if c.MaxEssence < 0 {
		c.MaxEssence = 0
	}
	if delta > 0 {
		c.Essence += delta
	}
	c.ClampVitals()
}

// SpendEssence deducts a cast cost; reports whether there was enough.
func (c *Character) SpendEssence(amount float64) bool {
	if c.Essence < amount {
		return false
	}
	c.Essence -= amount
	c.Dirty = true
	return true
}

// RestoreEssence refills essence up to the maximum.
func (c *Character) RestoreEssence(amount float64) {
	c.Essence += amount
	if c.Essence > c.MaxEssence {
		c.Essence = c.MaxEssence
	}
}

// ClampVitals repairs the vital-pool invariants: 0 ≤ hp ≤ max_hp and
// 0 ≤ essence ≤ max_essence.
func (c *Character) ClampVitals() {
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP > c.MaxHP {
		c.HP = c.MaxHP
	}
	if c.Essence < 0 {
		c.Essence = 0
	}
	if c.Essence > c.MaxEssence {
		c.Essence = c.MaxEssence
	}
}

func (c *Character) Alive() bool {
	return c.Status == StatusAlive || c.Status == StatusMeditating
}

// ── Combat runtime ─────────────────────────────────────────────────

func (c *Character) RoundtimeLeft() float64 { return c.Roundtime }

func (c *Character) SetRoundtime(sec float64) {
	if sec < 0 {
		sec = 0
	}
	c.Roundtime = sec
}

func (c *Character) AddRoundtime(sec float64) {
	c.Roundtime += sec
	if c.Roundtime < 0 {
		c.Roundtime = 0
	}
}

func (c *Character) EffectsMap() map[string]*Effect { return c.Effects }
func (c *Character) IsHidden() bool                 { return c.Hidden }
func (c *Character) SetHidden(h bool)               { c.Hidden = h }
func (c *Character) IsFighting() bool               { return c.Fighting }
func (c *Character) SetFighting(f bool)             { c.Fighting = f }
func (c *Character) Target() Actor                  { return c.target }
func (c *Character) SetTarget(a Actor)              { c.target = a }

// ── Equipment & inventory ──────────────────────────────────────────

// Weapon returns the wielded main-hand weapon, or nil for unarmed.
func (c *Character) Weapon() *Item {
	it := c.Equipment[SlotMainHand]
	if it != nil && it.IsWeapon() {
		return it
	}
	return nil
}

// Shield returns the off-hand shield, if any.
func (c *Character) Shield() *Item {
	it := c.Equipment[SlotOffHand]
	if it != nil && it.Tmpl.Type == data.ItemShield {
		return it
	}
	return nil
}

// HandsFree returns how many top-level items can still be held.
func (c *Character) HandsFree() int { return MaxHeldItems - len(c.Inventory) }

// Hold places an item into the character's hands; reports success.
func (c *Character) Hold(it *Item) bool {
	if c.HandsFree() <= 0 {
		return false
	}
	c.Inventory = append(c.Inventory, it)
	c.Dirty = true
	return true
}

// Release removes a held item; reports whether it was held.
func (c *Character) Release(it *Item) bool {
	for i, v := range c.Inventory {
		if v == it {
			c.Inventory = append(c.Inventory[:i], c.Inventory[i+1:]...)
			c.Dirty = true
			return true
		}
	}
	return false
}

// FindHeld locates a held item by keyword.
func (c *Character) FindHeld(keyword string) *Item {
	for _, it := range c.Inventory {
		if it.Matches(keyword) {
			return it
		}
	}
	return nil
}

// FindEquipped locates a worn item by keyword, returning its slot.
func (c *Character) FindEquipped(keyword string) (string, *Item) {
	for _, slot := range SlotOrder {
		it := c.Equipment[slot]
		if it == nil {
			continue
		}
		if slot == SlotOffHand && it == c.Equipment[SlotMainHand] {
			continue
		}
		if it.Matches(keyword) {
			return slot, it
		}
	}
	return "", nil
}

// FindAnywhere searches hands, worn equipment, and open held containers.
func (c *Character) FindAnywhere(keyword string) *Item {
	if it := c.FindHeld(keyword); it != nil {
		return it
	}
	if _, it := c.FindEquipped(keyword); it != nil {
		return it
	}
	for _, held := range c.Inventory {
		if held.Stats.Open {
			if it := held.FindContent(keyword); it != nil {
				return it
			}
		}
	}
	return nil
}

// Equip puts an item in a slot. Two-handed weapons occupy both hand slots
// with the same instance. The item must already be out of the inventory.
func (c *Character) Equip(slot string, it *Item) {
	c.Equipment[slot] = it
	if it.TwoHanded() && slot == SlotMainHand {
		c.Equipment[SlotOffHand] = it
	}
	c.Dirty = true
}

// Unequip clears a slot (both hand slots for a 2H weapon) and returns the
// item.
func (c *Character) Unequip(slot string) *Item {
	it := c.Equipment[slot]
	if it == nil {
		return nil
	}
	delete(c.Equipment, slot)
	if it.TwoHanded() {
		if c.Equipment[SlotMainHand] == it {
			delete(c.Equipment, SlotMainHand)
		}
		if c.Equipment[SlotOffHand] == it {
			delete(c.Equipment, SlotOffHand)
		}
	}
	c.Dirty = true
	return it
}

// ── Experience ─────────────────────────────────────────────────────

// GainXPPool adds experience to the pool, clamped at the cap
// (intellect × 100); overflow is silently discarded. Returns what was
// actually banked.
func (c *Character) GainXPPool(n int64) int64 {
	if n <= 0 {
		return 0
	}
	cap := rules.PoolCap(c.EffStat(StatIntellect))
	room := cap - c.XPPool
	if room <= 0 {
		return 0
	}
	if n > room {
		n = room
	}
	c.XPPool += n
	c.Dirty = true
	return n
}
