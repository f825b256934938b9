package game

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// Points granted at each new level.
const (
	skillPointsPerLevel = 3
	attrPointsPerLevel  = 1
)

// absorbSystem drains the XP pool into the total inside NODE rooms and
// handles the level-ups that result.
type absorbSystem struct {
	deps *handler.Deps
}

func (s *absorbSystem) Phase() system.Phase { return system.PhasePostUpdate }

func (s *absorbSystem) Update(time.Duration) {
	rate := int64(s.deps.Cfg.Game.XPAbsorbRate)
	if rate <= 0 {
		return
	}
	for _, c := range s.deps.State.Chars {
		if !c.Alive() || c.XPPool <= 0 {
			continue
		}
		if c.InRoom == nil || !c.InRoom.Flag(world.FlagNode) {
			continue
		}
		n := rate
		if n > c.XPPool {
			n = c.XPPool
		}
		c.XPPool -= n
		c.XPTotal += n
		c.Dirty = true
		if lvl := s.deps.Curve.LevelForTotal(c.XPTotal); lvl > c.Level {
			s.levelUp(c, lvl)
		}
	}
}

// levelUp advances the character one or more levels, growing the vital
// pools by the class dice and granting training points per level.
func (s *absorbSystem) levelUp(c *world.Character, to int) {
	for c.Level < to {
		c.Level++
		hpGain := float64(c.Class.HitDie + rules.Mod(c.Base.Get(world.StatVitality)))
		if hpGain < 1 {
			hpGain = 1
		}
		c.AdjustMaxHP(hpGain)
		c.HealHP(hpGain)
		essGain := float64(c.Class.EssenceDie + rules.Mod(c.Base.Get(world.StatAura)))
		if essGain > 0 {
			c.AdjustMaxEssence(essGain)
			c.RestoreEssence(essGain)
		}
		c.SkillPoints += skillPointsPerLevel
		c.AttrPoints += attrPointsPerLevel

		c.Send(fmt.Sprintf("{YYou have reached level %d!{x", c.Level))
		c.Send(fmt.Sprintf("You gain %d skill points and %d attribute point.",
			skillPointsPerLevel, attrPointsPerLevel))
		if c.InRoom != nil {
			c.InRoom.Broadcast(fmt.Sprintf("%s is briefly wreathed in golden light.", c.Name()), c)
		}
		event.Emit(s.deps.Bus, event.LevelUp{Char: c, Level: c.Level})
	}
}
