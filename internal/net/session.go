package net

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/talonmoor/server/internal/ansi"
)

// Session is one client connection. The read and write goroutines own the
// socket; the game loop talks to the session only through SendLine,
// FlushOutput, and the server event channel.
type Session struct {
	ID     uuid.UUID
	Remote string

	conn net.Conn
	srv  *Server
	log  *zap.Logger

	// Color controls whether markup renders to ANSI or is stripped.
	Color bool

	// Handler is the per-connection state bag owned by the handler
	// package (login FSM, then the logged-in character). The net layer
	// never inspects it.
	Handler any

	// Prompt, when non-nil, is appended after each flushed batch.
	Prompt func() string

	limiter *rate.Limiter

	mu     sync.Mutex
	outBuf []string

	out    chan []byte
	closed atomic.Bool
	done   chan struct{}
}

func newSession(conn net.Conn, srv *Server) *Session {
	s := &Session{
		ID:     uuid.New(),
		Remote: conn.RemoteAddr().String(),
		conn:   conn,
		srv:    srv,
		Color:  srv.cfg.Game.Color,
		out:    make(chan []byte, srv.cfg.Network.OutQueueSize),
		done:   make(chan struct{}),
	}
	s.log = srv.log.With(zap.String("session", s.ID.String()), zap.String("remote", s.Remote))
	if srv.cfg.RateLimit.Enabled {
		s.limiter = rate.NewLimiter(rate.Limit(srv.cfg.RateLimit.LinesPerSecond), srv.cfg.RateLimit.Burst)
	}
	return s
}

// SendLine buffers one line for the client. Called only from the game
// loop; the buffer is drained by FlushOutput at the end of the tick.
func (s *Session) SendLine(msg string) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	s.outBuf = append(s.outBuf, msg)
	s.mu.Unlock()
}

// FlushOutput renders the buffered lines plus the prompt and hands the
// batch to the write goroutine. A full out queue drops the batch rather
// than blocking the game loop on a slow client.
func (s *Session) FlushOutput() {
	s.mu.Lock()
	lines := s.outBuf
	s.outBuf = nil
	s.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	var b []byte
	for _, ln := range lines {
		b = append(b, []byte(s.render(ln))...)
		b = append(b, '\r', '\n')
	}
	if s.Prompt != nil {
		b = append(b, []byte(s.render(s.Prompt()))...)
	}
	select {
	case s.out <- b:
	default:
		s.log.Warn("output queue full, dropping batch", zap.Int("bytes", len(b)))
	}
}

// SendRaw bypasses the buffer for connection-phase writes (banner,
// password prompts) that must reach the client before the next read.
func (s *Session) SendRaw(msg string) {
	if s.closed.Load() {
		return
	}
	select {
	case s.out <- []byte(s.render(msg)):
	default:
	}
}

func (s *Session) render(msg string) string {
	if s.Color {
		return ansi.Render(msg)
	}
	return ansi.Strip(msg)
}

// Close tears the connection down once; safe from any goroutine. The
// write goroutine drains pending output before the socket closes, so a
// quit message flushed just before Close still reaches the client.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)
}

// readLoop turns socket lines into server events. Runs as its own
// goroutine per connection; exits on socket error or close.
func (s *Session) readLoop() {
	defer s.srv.disconnect(s)
	r := bufio.NewReaderSize(s.conn, MaxLineLen*2)
	for {
		line, ok, err := readLine(r)
		if ok {
			if s.limiter != nil && !s.limiter.Allow() {
				s.SendRaw("{RYou are sending commands too fast.{x\r\n")
			} else {
				s.srv.events <- Event{Session: s, Kind: EventLine, Line: line}
			}
		}
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read closed", zap.Error(err))
			}
			return
		}
	}
}

// writeLoop drains the out queue onto the socket with a write deadline.
func (s *Session) writeLoop() {
	timeout := s.srv.cfg.Network.WriteTimeout
	for {
		select {
		case b := <-s.out:
			if timeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(timeout))
			}
			if _, err := s.conn.Write(b); err != nil {
				s.Close()
				s.conn.Close()
				return
			}
		case <-s.done:
			// Final drain so quit messages reach the client.
			for {
				select {
				case b := <-s.out:
					s.conn.SetWriteDeadline(time.Now().Add(time.Second))
					s.conn.Write(b)
				default:
					s.conn.Close()
					return
				}
			}
		}
	}
}
