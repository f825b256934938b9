package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
)

// cleanupSystem sweeps orphaned runtime state at the tail of the tick:
// groups with no members left and invites whose group or invitee is
// gone.
type cleanupSystem struct {
	deps *handler.Deps
}

func (s *cleanupSystem) Phase() system.Phase { return system.PhaseCleanup }

func (s *cleanupSystem) Update(time.Duration) {
	for id, g := range s.deps.State.Groups {
		if len(g.Members) == 0 {
			delete(s.deps.State.Groups, id)
		}
	}
	for charID, gid := range s.deps.GroupInvites {
		if s.deps.State.Chars[charID] == nil || s.deps.State.Groups[gid] == nil {
			delete(s.deps.GroupInvites, charID)
		}
	}
}
