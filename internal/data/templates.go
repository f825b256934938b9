// Package data holds the immutable content catalogs the simulation consumes:
// races, classes, item templates, mob templates, and ability templates. The
// builder web UI owns the content; the core hydrates these tables from the
// database at boot and never mutates them afterwards (admin @ verbs edit the
// in-memory copy through the same validators the editor uses).
package data

// Race is a playable race from the races catalog.
type Race struct {
	ID          int32  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// StatMods are applied after stat assignment during creation,
	// clamped so no stat drops below 1.
	StatMods map[string]int `json:"stat_mods"`
	// Traits are the race-specific appearance questions, already in the
	// canonical ask order.
	Traits []TraitQuestion `json:"traits"`
}

// TraitQuestion is one appearance question asked during creation.
type TraitQuestion struct {
	Name    string   `json:"name"`    // e.g. "Height", "Eye Color"
	Options []string `json:"options"` // valid answers, chosen by number
}

// traitOrder is the canonical ask order for trait questions. Race rows may
// list traits in any order; the loader sorts them into this preference.
var traitOrder = []string{
	"Height", "Build", "Skin Tone", "Skin Pattern", "Shell Color",
	"Head Shape", "Hair Style", "Hair Color", "Eye Color", "Ear Shape",
	"Nose Type", "Beard Style",
}

// TraitRank returns the sort rank of a trait name; unknown traits sort last.
func TraitRank(name string) int {
	for i, n := range traitOrder {
		if n == name {
			return i
		}
	}
	return len(traitOrder)
}

// Class is a playable class from the classes catalog.
type Class struct {
	ID                int32          `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	HitDie            int            `json:"hit_die"` // max HP gain per level before stat mods
	EssenceDie        int            `json:"essence_die"`
	StartingSkills    map[string]int `json:"starting_skills"`
	StartingSpells    []string       `json:"starting_spells"`
	StartingAbilities []string       `json:"starting_abilities"`
}

// Item types. The closed set from the item catalog.
const (
	ItemWeapon    = "weapon"
	ItemWeapon2H  = "2h_weapon"
	ItemRanged    = "ranged"
	ItemAmmo      = "ammo"
	ItemArmor     = "armor"
	ItemShield    = "shield"
	ItemContainer = "container"
	ItemQuiver    = "quiver"
	ItemFood      = "food"
	ItemDrink     = "drink"
	ItemKey       = "key"
	ItemLight     = "light"
	ItemGeneral   = "general"
	ItemQuest     = "quest"
)

// ItemTemplate is an immutable item descriptor.
type ItemTemplate struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Keywords     []string       `json:"keywords"`
	Type         string         `json:"type"`
	WearLoc      string         `json:"wear_loc,omitempty"` // equipment slot name, "" = not wearable
	DamageBase   int            `json:"damage_base,omitempty"`
	DamageRandom int            `json:"damage_random,omitempty"`
	Speed        float64        `json:"speed,omitempty"`
	ArmorValue   int            `json:"armor_value,omitempty"`
	Weight       int            `json:"weight"`
	Value        int64          `json:"value"`
	Capacity     int            `json:"capacity,omitempty"`     // container weight capacity
	BlockChance  float64        `json:"block_chance,omitempty"` // shields
	Effect       string         `json:"effect,omitempty"`       // consumables: heal_hp, restore_hunger, restore_thirst
	Amount       int            `json:"amount,omitempty"`       // consumable potency
	DamageType   string         `json:"damage_type,omitempty"`  // slash, pierce, bludgeon, fire, cold, lightning, ...
	WeaponSkill  string         `json:"weapon_skill,omitempty"` // skill that rates this weapon
	Bonuses      map[string]int `json:"bonuses,omitempty"`
	Flags        []string       `json:"flags,omitempty"`
	LockID       string         `json:"lock_id,omitempty"` // containers: lock identity
	Unlocks      []string       `json:"unlocks,omitempty"` // keys: lock ids this key opens
	LootTable    []LootDrop     `json:"loot_table,omitempty"`
}

// HasFlag reports whether the template carries a flag.
func (t *ItemTemplate) HasFlag(f string) bool {
	for _, v := range t.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// MobAttack is one entry in a mob's attack list.
type MobAttack struct {
	Name   string  `json:"name"`
	Base   int     `json:"base"`
	Random int     `json:"random"`
	Speed  float64 `json:"speed"`
	Type   string  `json:"type"`
}

// LootDrop is one item drop rule: template id plus roll chance.
type LootDrop struct {
	TemplateID int64   `json:"template_id"`
	Chance     float64 `json:"chance"`
}

// Mob flags.
const (
	MobAggressive = "AGGRESSIVE"
	MobSentinel   = "SENTINEL"
)

// MobTemplate is an immutable NPC descriptor.
type MobTemplate struct {
	ID           int32       `json:"id"`
	Name         string      `json:"name"`
	Keywords     []string    `json:"keywords"`
	Description  string      `json:"description"`
	Level        int         `json:"level"`
	HP           float64     `json:"hp"`
	Might        int         `json:"might"`
	Vitality     int         `json:"vitality"`
	Agility      int         `json:"agility"`
	Intellect    int         `json:"intellect"`
	Aura         int         `json:"aura"`
	Persona      int         `json:"persona"`
	ArmorValue   int         `json:"armor_value"`
	XP           int64       `json:"xp"`
	CoinMax      int64       `json:"coin_max"`
	Attacks      []MobAttack `json:"attacks"`
	Loot         []LootDrop  `json:"loot,omitempty"`
	Flags        []string    `json:"flags,omitempty"`
	RespawnDelay float64     `json:"respawn_delay"` // seconds
	StatVariance int         `json:"stat_variance"` // ± applied per instance at spawn
}

// HasFlag reports whether the template carries a flag.
func (t *MobTemplate) HasFlag(f string) bool {
	for _, v := range t.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// EffectSpec describes one effect an ability applies.
type EffectSpec struct {
	Name      string       `json:"name"`
	Kind      string       `json:"kind"`              // buff, debuff, stun, bleed, poison, silence, shapechange, stance_lock
	Channel   string       `json:"channel,omitempty"` // affected stat channel, or "hp"/"max_hp"
	Amount    int          `json:"amount,omitempty"`
	Potency   float64      `json:"potency,omitempty"`  // DoT damage per tick / stun seconds
	Duration  float64      `json:"duration"`           // seconds; -1 = until removed
	SetStance string       `json:"set_stance,omitempty"`
	MsgApply  string       `json:"msg_apply,omitempty"`
	MsgExpire string       `json:"msg_expire,omitempty"`
	Sub       []EffectSpec `json:"sub,omitempty"` // compound effects applied atomically
}

// Ability is a spell or combat ability from the ability catalog.
type Ability struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`             // "spell" or "ability"
	School      string  `json:"school,omitempty"` // "arcane" or "divine" (spells)
	EssenceCost float64 `json:"essence_cost"`
	CastTime    float64 `json:"cast_time,omitempty"` // seconds of casting roundtime (spells)
	Cooldown    float64 `json:"cooldown,omitempty"`

	// Attack payload
	AlwaysHits  bool    `json:"always_hits,omitempty"`
	HitBonus    int     `json:"hit_bonus,omitempty"`
	DamageBase  int     `json:"damage_base,omitempty"`
	DamageRand  int     `json:"damage_rand,omitempty"`
	DamageBonus int     `json:"damage_bonus,omitempty"`
	DamageMult  float64 `json:"damage_mult,omitempty"`
	DamageType  string  `json:"damage_type,omitempty"`
	Cleave      int     `json:"cleave,omitempty"` // hit up to N additional engaged mobs
	Cone        int     `json:"cone,omitempty"`   // primary + up to N-1 others, independent rolls
	AoE         string  `json:"aoe,omitempty"`    // "", "enemies", "allies", "all"
	NeedsHidden bool    `json:"needs_hidden,omitempty"` // stealth prerequisite (backstab)

	// Healing
	HealBase int `json:"heal_base,omitempty"`
	HealRand int `json:"heal_rand,omitempty"`

	// Effect payload
	Effect *EffectSpec `json:"effect,omitempty"`

	MsgSelf string `json:"msg_self,omitempty"`
	MsgRoom string `json:"msg_room,omitempty"`
}

// IsAttack reports whether the ability resolves through the attack pipeline.
func (a *Ability) IsAttack() bool {
	return a.DamageBase > 0 || a.DamageRand > 0 || a.DamageBonus > 0
}
