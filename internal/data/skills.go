package data

// Canonical skill names. Catalog rows and character skill maps use these
// exact strings.
const (
	SkillMartialArts = "martial arts"
	SkillSmallBlades = "small blades"
	SkillLargeBlades = "large blades"
	SkillBluntWeapon = "blunt weapons"
	SkillPolearms    = "polearms"
	SkillArchery     = "archery"
	SkillParrying    = "parrying"
	SkillShieldUsage = "shield usage"
	SkillSpellcraft  = "spellcraft"
	SkillBartering   = "bartering"
	SkillPerception  = "perception"
	SkillStealth     = "stealth"
	SkillLockpicking = "lockpicking"
	SkillDisarmTraps = "disarm traps"
	SkillClimbing    = "climbing"
	SkillSwimming    = "swimming"
	SkillFirstAid    = "first aid"
)

// Damage types.
const (
	DamageSlash     = "slash"
	DamagePierce    = "pierce"
	DamageBludgeon  = "bludgeon"
	DamageFire      = "fire"
	DamageCold      = "cold"
	DamageLightning = "lightning"
	DamageAcid      = "acid"
	DamagePoison    = "poison"
	DamageHoly      = "holy"
	DamageShadow    = "shadow"
)

// Spell schools.
const (
	SchoolArcane = "arcane"
	SchoolDivine = "divine"
)
