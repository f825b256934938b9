package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
)

// eventSystem rotates the bus at tick start and delivers last tick's
// events to their subscribers.
type eventSystem struct {
	bus *event.Bus
}

func (s *eventSystem) Phase() system.Phase { return system.PhasePreUpdate }

func (s *eventSystem) Update(time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
