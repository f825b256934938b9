package world

// Actor is a combat participant: a character or a mob. The combat
// pipeline, effect engine, and AI work in terms of this interface so the
// same code resolves player-vs-mob and mob-vs-player swings.
type Actor interface {
	Name() string
	Room() *Room
	IsCharacter() bool
	Alive() bool

	// Send delivers a line to the actor's client; a no-op for mobs.
	Send(msg string)

	// Derived combat attributes.
	Mod(stat string) int
	DodgeValue() int
	ArmorValue() int
	BarrierValue() int
	Resistance(damageType string) float64
	SkillRank(skill string) int

	// Vitals.
	CurrentHP() float64
	MaximumHP() float64
	Damage(amount float64) float64
	HealHP(amount float64)
	AdjustMaxHP(delta float64)

	// Roundtime.
	RoundtimeLeft() float64
	SetRoundtime(sec float64)
	AddRoundtime(sec float64)

	// Runtime combat state.
	EffectsMap() map[string]*Effect
	IsHidden() bool
	SetHidden(h bool)
	IsFighting() bool
	SetFighting(f bool)
	Target() Actor
	SetTarget(a Actor)
}

var (
	_ Actor = (*Character)(nil)
	_ Actor = (*Mob)(nil)
)
