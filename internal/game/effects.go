package game

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// effectsSystem expires finished effects and applies damage-over-time
// ticks. DoT kills carry no killer, so no XP is awarded.
type effectsSystem struct {
	deps *handler.Deps
}

func (s *effectsSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *effectsSystem) Update(time.Duration) {
	now := time.Now()
	for _, c := range s.deps.State.Chars {
		s.tick(c, now)
	}
	for _, m := range s.deps.State.Mobs {
		if !m.Dead {
			s.tick(m, now)
		}
	}
}

func (s *effectsSystem) tick(a world.Actor, now time.Time) {
	s.deps.Effects.ExpireDue(a, now)
	if !a.Alive() {
		return
	}
	for _, eff := range effect.DoTs(a, now) {
		if eff.Potency <= 0 {
			continue
		}
		a.Damage(eff.Potency)
		a.Send(fmt.Sprintf("{rYou suffer %d from %s.{x", int(eff.Potency), eff.Name))
		if a.CurrentHP() <= 0 {
			switch v := a.(type) {
			case *world.Mob:
				s.deps.Combat.MobDefeated(v, nil)
			case *world.Character:
				s.deps.Combat.CharacterDefeated(v, nil)
			}
			return
		}
	}
}
