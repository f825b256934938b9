package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
)

// roundtimeSystem decays character roundtime and advances in-flight
// casts, releasing a spell the moment its cast time runs out. Mob
// roundtime is ticked by the AI system.
type roundtimeSystem struct {
	deps       *handler.Deps
	dispatcher *handler.Dispatcher
}

func (s *roundtimeSystem) Phase() system.Phase { return system.PhaseUpdate }

func (s *roundtimeSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	for _, c := range s.deps.State.Chars {
		if c.Roundtime > 0 {
			c.Roundtime -= sec
			if c.Roundtime < 0 {
				c.Roundtime = 0
			}
		}
		if c.Casting != nil {
			c.Casting.Remaining -= sec
			if c.Casting.Remaining <= 0 {
				handler.CompleteCast(s.deps, s.dispatcher, c)
			}
		}
	}
}
