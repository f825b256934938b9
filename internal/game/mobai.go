package game

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// mobAISystem runs the per-mob behavior loop: respawn, roundtime decay,
// target upkeep, the pending attack, and aggression.
type mobAISystem struct {
	deps *handler.Deps
}

func (s *mobAISystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *mobAISystem) Update(dt time.Duration) {
	now := time.Now()
	sec := dt.Seconds()
	for _, m := range s.deps.State.Mobs {
		s.tick(m, now, sec)
	}
}

func (s *mobAISystem) tick(m *world.Mob, now time.Time, sec float64) {
	if m.Dead {
		if now.Sub(m.TimeOfDeath).Seconds() >= m.Tmpl.RespawnDelay {
			m.Reset(s.deps.State.Roller)
			if m.InRoom != nil {
				m.InRoom.Broadcast(fmt.Sprintf("%s stirs and rises once more.", upperFirst(m.Name())))
			}
		}
		return
	}

	if m.Roundtime > 0 {
		m.Roundtime -= sec
		if m.Roundtime < 0 {
			m.Roundtime = 0
		}
	}

	if m.Fighting {
		t := m.Target()
		if t == nil || !t.Alive() || t.Room() != m.InRoom {
			m.SetTarget(nil)
			m.SetFighting(false)
		}
	}

	if m.Fighting {
		if m.Roundtime <= 0 {
			s.attack(m)
		}
		return
	}

	if m.Tmpl.HasFlag(data.MobAggressive) {
		if victim := s.pickVictim(m); victim != nil {
			m.SetTarget(victim)
			m.SetFighting(true)
			victim.Send(fmt.Sprintf("{R%s turns on you!{x", upperFirst(m.Name())))
			if m.Roundtime <= 0 {
				s.attack(m)
			}
		}
	}
}

// pickVictim chooses a random visible living character in the room.
func (s *mobAISystem) pickVictim(m *world.Mob) *world.Character {
	if m.InRoom == nil {
		return nil
	}
	var candidates []*world.Character
	for _, c := range m.InRoom.Chars {
		if c.Alive() && !c.Hidden {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.deps.State.Roller.Die(len(candidates))-1]
}

func (s *mobAISystem) attack(m *world.Mob) {
	t := m.Target()
	if t == nil {
		return
	}
	atk := m.NextAttack(s.deps.State.Roller)
	s.deps.Metrics.AttackResolved()
	s.deps.Combat.Attack(m, t, combat.Mods{
		Base:       atk.Base,
		Rand:       atk.Random,
		Speed:      atk.Speed,
		DamageType: atk.Type,
		Verb:       atk.Name,
	})
}
