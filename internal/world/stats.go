package world

// Status is a character's life state.
type Status string

const (
	StatusAlive      Status = "ALIVE"
	StatusMeditating Status = "MEDITATING"
	StatusDying      Status = "DYING"
	StatusDead       Status = "DEAD"
)

// Stance is a character's physical posture.
type Stance string

const (
	StanceStanding Stance = "standing"
	StanceSitting  Stance = "sitting"
	StanceLying    Stance = "lying"
)

// Stat channel names. Base attributes use their own name; derived channels
// exist only as effect/equipment bonus targets. These names are also the
// JSON keys in the DB, so the content editor sees the same vocabulary.
const (
	StatMight     = "might"
	StatVitality  = "vitality"
	StatAgility   = "agility"
	StatIntellect = "intellect"
	StatAura      = "aura"
	StatPersona   = "persona"

	ChannelHP         = "hp"
	ChannelMaxHP      = "max_hp"
	ChannelMaxEssence = "max_essence"
	ChannelBarrier    = "barrier_value"
	ChannelArmor      = "armor_value"
	ChannelDodge      = "dv"
	ChannelSlow       = "slow" // extra seconds added to attack roundtime
)

// ResistChannel names the bonus channel for a damage type, e.g.
// "resist_fire". Resistance totals are percentage points.
func ResistChannel(damageType string) string { return "resist_" + damageType }

// StatNames lists the six base attributes in display order.
var StatNames = []string{
	StatMight, StatVitality, StatAgility, StatIntellect, StatAura, StatPersona,
}

// Stats is the fixed-shape record of the six base attributes.
type Stats struct {
	Might     int `json:"might"`
	Vitality  int `json:"vitality"`
	Agility   int `json:"agility"`
	Intellect int `json:"intellect"`
	Aura      int `json:"aura"`
	Persona   int `json:"persona"`
}

// Get returns a stat by channel name; unknown names return 0.
func (s *Stats) Get(name string) int {
	switch name {
	case StatMight:
		return s.Might
	case StatVitality:
		return s.Vitality
	case StatAgility:
		return s.Agility
	case StatIntellect:
		return s.Intellect
	case StatAura:
		return s.Aura
	case StatPersona:
		return s.Persona
	}
	return 0
}

// Set writes a stat by channel name; unknown names are ignored.
func (s *Stats) Set(name string, v int) {
	switch name {
	case StatMight:
		s.Might = v
	case StatVitality:
		s.Vitality = v
	case StatAgility:
		s.Agility = v
	case StatIntellect:
		s.Intellect = v
	case StatAura:
		s.Aura = v
	case StatPersona:
		s.Persona = v
	}
}

// IsBaseStat reports whether a channel names one of the six attributes.
func IsBaseStat(name string) bool {
	for _, n := range StatNames {
		if n == name {
			return true
		}
	}
	return false
}
