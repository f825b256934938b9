package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/config"
)

// EventKind discriminates server events.
type EventKind int

const (
	EventConnect EventKind = iota
	EventLine
	EventDisconnect
)

// Event is one unit of client input, consumed by the game loop.
type Event struct {
	Session *Session
	Kind    EventKind
	Line    string
}

// Server accepts connections and funnels every client's input into one
// event channel. The game loop is the only consumer.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	ln        net.Listener
	events    chan Event
	accepting atomic.Bool

	mu       sync.Mutex
	sessions map[*Session]struct{}
}

// NewServer builds a server; Start opens the listener.
func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.Named("net"),
		events:   make(chan Event, cfg.Network.InQueueSize),
		sessions: make(map[*Session]struct{}),
	}
}

// Events is the input stream consumed by the game loop.
func (srv *Server) Events() <-chan Event { return srv.events }

// Start opens the listener and begins accepting in a goroutine.
func (srv *Server) Start() error {
	ln, err := net.Listen("tcp", srv.cfg.Network.BindAddress)
	if err != nil {
		return err
	}
	srv.ln = ln
	srv.accepting.Store(true)
	srv.log.Info("listening", zap.String("addr", srv.cfg.Network.BindAddress))
	go srv.acceptLoop()
	return nil
}

func (srv *Server) acceptLoop() {
	for {
		conn, err := srv.ln.Accept()
		if err != nil {
			if srv.accepting.Load() {
				srv.log.Warn("accept failed", zap.Error(err))
				continue
			}
			return
		}
		if !srv.accepting.Load() {
			conn.Close()
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetKeepAlive(true)
			tc.SetKeepAlivePeriod(2 * time.Minute)
		}
		s := newSession(conn, srv)
		srv.mu.Lock()
		srv.sessions[s] = struct{}{}
		n := len(srv.sessions)
		srv.mu.Unlock()
		s.log.Info("connected", zap.Int("sessions", n))
		go s.writeLoop()
		go s.readLoop()
		srv.events <- Event{Session: s, Kind: EventConnect}
	}
}

// disconnect is called by the session read goroutine on socket teardown.
func (srv *Server) disconnect(s *Session) {
	srv.mu.Lock()
	_, known := srv.sessions[s]
	delete(srv.sessions, s)
	srv.mu.Unlock()
	if !known {
		return
	}
	s.Close()
	s.log.Info("disconnected")
	srv.events <- Event{Session: s, Kind: EventDisconnect}
}

// SessionCount returns the number of live connections.
func (srv *Server) SessionCount() int {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return len(srv.sessions)
}

// StopAccepting closes the listener; existing sessions keep playing.
func (srv *Server) StopAccepting() {
	if !srv.accepting.CompareAndSwap(true, false) {
		return
	}
	if srv.ln != nil {
		srv.ln.Close()
	}
}

// Broadcast queues a line on every live session.
func (srv *Server) Broadcast(msg string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	for s := range srv.sessions {
		s.SendLine(msg)
	}
}

// FlushAll flushes every session's buffered output.
func (srv *Server) FlushAll() {
	srv.mu.Lock()
	list := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		list = append(list, s)
	}
	srv.mu.Unlock()
	for _, s := range list {
		s.FlushOutput()
	}
}

// CloseAll tears down every session; used during shutdown after the
// grace period.
func (srv *Server) CloseAll() {
	srv.mu.Lock()
	list := make([]*Session, 0, len(srv.sessions))
	for s := range srv.sessions {
		list = append(list, s)
	}
	srv.mu.Unlock()
	for _, s := range list {
		s.FlushOutput()
		s.Close()
	}
}
