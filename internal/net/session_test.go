package net

import (
	"bufio"
	stdnet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/config"
)

func newTestSession(t *testing.T) (*Session, stdnet.Conn) {
	t.Helper()
	cfg := config.Defaults()
	srv := NewServer(cfg, zap.NewNop())
	server, client := stdnet.Pipe()
	s := newSession(server, srv)
	go s.writeLoop()
	t.Cleanup(func() {
		s.Close()
		client.Close()
	})
	return s, client
}

func TestFlushOutputBatchesWithPrompt(t *testing.T) {
	s, client := newTestSession(t)
	s.Color = false
	s.Prompt = func() string { return "<10/10>" }

	s.SendLine("{WYou see a rat.{x")
	s.SendLine("It hisses.")
	s.FlushOutput()

	client.SetReadDeadline(time.Now().Add(time.Second))
	r := bufio.NewReader(client)
	line1, err := r.ReadString('\n')
	require.NoError(t, err)
	line2, err := r.ReadString('\n')
	require.NoError(t, err)
	prompt := make([]byte, len("<10/10>"))
	_, err = r.Read(prompt)
	require.NoError(t, err)

	assert.Equal(t, "You see a rat.\r\n", line1)
	assert.Equal(t, "It hisses.\r\n", line2)
	assert.Equal(t, "<10/10>", string(prompt))
}

func TestFlushOutputEmptyBufferWritesNothing(t *testing.T) {
	s, client := newTestSession(t)
	s.Prompt = func() string { return ">" }
	s.FlushOutput()

	client.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := client.Read(buf)
	assert.Error(t, err)
}

func TestSendLineAfterCloseIsDropped(t *testing.T) {
	s, _ := newTestSession(t)
	s.Close()
	s.SendLine("too late")
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.outBuf)
}
