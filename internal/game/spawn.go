package game

import (
	"fmt"
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/world"
)

// spawnerSystem tops rooms up to their spawner caps. Dead instances
// waiting on a respawn timer count against the cap; they come back in
// place instead of being replaced.
type spawnerSystem struct {
	deps *handler.Deps
}

func (s *spawnerSystem) Phase() system.Phase { return system.PhasePostUpdate }

func (s *spawnerSystem) Update(time.Duration) {
	for _, room := range s.deps.State.Rooms {
		for _, sp := range room.Spawners {
			if sp.Inactive {
				continue
			}
			tmpl := s.deps.State.Catalog.Mobs.Get(sp.TemplateID)
			if tmpl == nil {
				continue
			}
			for instanceCount(room, sp.TemplateID) < sp.Max {
				m := world.SpawnMob(s.deps.State.NextMobID(), tmpl, room.ID, s.deps.State.Roller)
				s.deps.State.RegisterMob(m)
				room.AddMob(m)
				room.Broadcast(fmt.Sprintf("%s arrives.", upperFirst(m.Name())))
			}
		}
	}
}

// instanceCount counts a template's instances in a room, dead ones
// included.
func instanceCount(room *world.Room, templateID int32) int {
	n := 0
	for _, m := range room.Mobs {
		if m.Tmpl.ID == templateID {
			n++
		}
	}
	return n
}
