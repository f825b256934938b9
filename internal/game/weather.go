package game

import (
	"time"
	"unicode"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// Seconds between weather rolls.
const weatherInterval = 150.0

var weatherArrives = map[string]string{
	world.FlagWet:       "{BRain begins to fall.{x",
	world.FlagStormy:    "{BThunder rolls as a storm breaks overhead.{x",
	world.FlagFreezing:  "{CA bitter cold settles over the land.{x",
	world.FlagBlazing:   "{RThe sun beats down with punishing heat.{x",
	world.FlagSandstorm: "{yStinging sand whips through the air.{x",
}

// weatherSystem periodically shifts the global weather, leaning toward
// clear skies, and announces the change to everyone outdoors.
type weatherSystem struct {
	deps    *handler.Deps
	elapsed float64
}

func (s *weatherSystem) Phase() system.Phase { return system.PhasePostUpdate }

func (s *weatherSystem) Update(dt time.Duration) {
	s.elapsed += dt.Seconds()
	if s.elapsed < weatherInterval {
		return
	}
	s.elapsed = 0

	roller := s.deps.State.Roller
	next := ""
	if !dice.Chance(roller, 0.5) {
		next = world.WeatherFlags[roller.Die(len(world.WeatherFlags))-1]
	}
	if next == s.deps.State.Weather {
		return
	}
	s.deps.State.SetWeather(next)

	msg := "{WThe skies clear.{x"
	if next != "" {
		msg = weatherArrives[next]
	}
	for _, c := range s.deps.State.Chars {
		if c.InRoom != nil && c.InRoom.Flag(world.FlagOutdoors) {
			c.Send(msg)
		}
	}
}

// upperFirst capitalizes the leading rune for sentence-position mob
// names ("a giant rat" → "A giant rat").
func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
