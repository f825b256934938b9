package event

import "github.com/talonmoor/server/internal/world"

type CharacterLoggedIn struct {
	Char *world.Character
}

type CharacterLoggedOut struct {
	Char *world.Character
}

// CharacterDying fires when a character drops to 0 HP and starts the
// death timer.
type CharacterDying struct {
	Char   *world.Character
	Killer world.Actor
}

// CharacterDied fires when the death timer expires (or tether hits 0).
type CharacterDied struct {
	Char *world.Character
}

type MobDied struct {
	Mob    *world.Mob
	Killer world.Actor
}

type LevelUp struct {
	Char  *world.Character
	Level int
}

type EffectExpired struct {
	Owner world.Actor
	Name  string
}
