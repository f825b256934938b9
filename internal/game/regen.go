package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// Seconds between hunger/thirst decrements.
const metabolicInterval = 60.0

// regenSystem restores HP and essence each tick and slowly burns hunger
// and thirst. A starving character stops regenerating HP; a parched one
// stops regenerating essence. NODE rooms and meditation multiply the
// regen rates.
type regenSystem struct {
	deps      *handler.Deps
	metabolic float64
}

func (s *regenSystem) Phase() system.Phase { return system.PhasePostUpdate }

func (s *regenSystem) Update(dt time.Duration) {
	s.metabolic += dt.Seconds()
	burn := false
	if s.metabolic >= metabolicInterval {
		s.metabolic -= metabolicInterval
		burn = true
	}

	game := s.deps.Cfg.Game
	for _, c := range s.deps.State.Chars {
		if !c.Alive() {
			continue
		}
		if burn {
			s.burn(c)
		}

		mul := 1.0
		if c.InRoom != nil && c.InRoom.Flag(world.FlagNode) {
			mul = game.NodeRegenMul
		}
		if c.Status == world.StatusMeditating {
			mul *= 2
		}
		if c.Hunger > 0 && c.HP < c.MaxHP {
			gain := float64(c.Mod(world.StatVitality)) / game.HPRegenDiv * mul
			if gain > 0 {
				c.HealHP(gain)
				c.Dirty = true
			}
		}
		if c.Thirst > 0 && c.Essence < c.MaxEssence {
			gain := float64(c.Mod(world.StatAura)) / game.EssRegenDiv * mul
			if gain > 0 {
				c.RestoreEssence(gain)
				c.Dirty = true
			}
		}
	}
}

func (s *regenSystem) burn(c *world.Character) {
	if c.Hunger > 0 {
		c.Hunger--
		c.Dirty = true
		if c.Hunger == 0 {
			c.Send("{yYou are famished.{x")
		}
	}
	if c.Thirst > 0 {
		c.Thirst--
		c.Dirty = true
		if c.Thirst == 0 {
			c.Send("{yYour throat is parched.{x")
		}
	}
}
