package game

import (
	"time"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/net"
)

// inputSystem drains the server's event channel without blocking. Lines
// from playing characters go to the verb dispatcher; everything earlier
// goes to the session's login FSM. Output is flushed right after so a
// command's echo never waits out the tick interval.
type inputSystem struct {
	deps       *handler.Deps
	dispatcher *handler.Dispatcher
}

func (s *inputSystem) Phase() system.Phase { return system.PhaseInput }

func (s *inputSystem) Update(time.Duration) {
	handled := false
	for {
		select {
		case ev := <-s.deps.Server.Events():
			handled = true
			switch ev.Kind {
			case net.EventConnect:
				handler.Connected(s.deps, ev.Session)
			case net.EventLine:
				s.handleLine(ev.Session, ev.Line)
			case net.EventDisconnect:
				handler.Disconnected(s.deps, ev.Session)
			}
		default:
			if handled {
				s.deps.Server.FlushAll()
			}
			s.deps.Metrics.SetSessions(s.deps.Server.SessionCount())
			return
		}
	}
}

func (s *inputSystem) handleLine(sess *net.Session, line string) {
	fsm, ok := sess.Handler.(*handler.LoginFSM)
	if !ok {
		return
	}
	alive := true
	if c := fsm.Playing(); c != nil {
		alive = s.dispatcher.Dispatch(c, line)
	} else {
		alive = fsm.HandleLine(s.deps, line)
	}
	if !alive {
		sess.FlushOutput()
		handler.Disconnected(s.deps, sess)
		sess.Close()
	}
}
