package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
)

// outputSystem flushes every session's buffered output at the end of
// the tick.
type outputSystem struct {
	deps *handler.Deps
}

func (s *outputSystem) Phase() system.Phase { return system.PhaseOutput }

func (s *outputSystem) Update(time.Duration) {
	s.deps.Server.FlushAll()
	s.deps.Metrics.SetCharactersOnline(len(s.deps.State.Chars))
}
