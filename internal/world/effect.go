package world

import "time"

// Effect kinds.
const (
	EffectBuff        = "buff"
	EffectDebuff      = "debuff"
	EffectStun        = "stun"
	EffectBleed       = "bleed"
	EffectPoison      = "poison"
	EffectSilence     = "silence"
	EffectShapechange = "shapechange"
	EffectStanceLock  = "stance_lock"
)

// Effect is a named, time-bounded modifier on a character or mob. Effects
// stack by name: reapplying "Rage" replaces the previous entry. Expiration
// reverts whatever amount was stored at entry, not what the template says
// now.
type Effect struct {
	Name      string
	Kind      string
	Channel   string  // affected stat channel, or hp/max_hp
	Amount    int     // stat delta, or max_hp delta as stored at entry
	Potency   float64 // DoT damage per tick, stun seconds
	AppliedAt time.Time
	EndsAt    time.Time // zero = until removed
	SourceKey string    // ability key that applied it
	CasterID  int32     // character id of the caster, 0 for mobs/world
	MsgExpire string
}

// Expired reports whether the effect has run out at the given instant.
// Zero EndsAt ("until removed") never expires on its own.
func (e *Effect) Expired(now time.Time) bool {
	return !e.EndsAt.IsZero() && !now.Before(e.EndsAt)
}

// IsDoT reports whether the effect deals periodic damage.
func (e *Effect) IsDoT() bool {
	return e.Kind == EffectBleed || e.Kind == EffectPoison
}

// effectBonus sums the amounts of all non-expired effects on a channel.
func effectBonus(effects map[string]*Effect, channel string, now time.Time) int {
	total := 0
	for _, e := range effects {
		if e.Channel == channel && !e.Expired(now) {
			total += e.Amount
		}
	}
	return total
}

// hasEffectKind reports whether any live effect of the kind is present.
func hasEffectKind(effects map[string]*Effect, kind string, now time.Time) bool {
	for _, e := range effects {
		if e.Kind == kind && !e.Expired(now) {
			return true
		}
	}
	return false
}
