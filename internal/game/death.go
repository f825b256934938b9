package game

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// deathTimerSystem moves DYING characters to DEAD once their timer
// elapses, paying the first of the two tether points a death costs.
type deathTimerSystem struct {
	deps *handler.Deps
}

func (s *deathTimerSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *deathTimerSystem) Update(time.Duration) {
	now := time.Now()
	for _, c := range s.deps.State.Chars {
		if c.Status != world.StatusDying || c.DeathTimerEnd.IsZero() || now.Before(c.DeathTimerEnd) {
			continue
		}
		c.Status = world.StatusDead
		c.DeathTimerEnd = time.Time{}
		if c.Tether > 0 {
			c.Tether--
		}
		c.Dirty = true
		c.Send("{RYour spirit slips free of your body. Type 'release' to return to the living.{x")
		if c.Tether == 0 {
			c.Send("{RYour spiritual tether is all but severed.{x")
		}
		if c.InRoom != nil {
			c.InRoom.Broadcast(fmt.Sprintf("%s's body goes still.", c.Name()), c)
		}
		event.Emit(s.deps.Bus, event.CharacterDied{Char: c})
	}
}
