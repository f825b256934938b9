package net

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLineNormalizes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"crlf stripped", "look\r\n", "look", true},
		{"lf only", "north\n", "north", true},
		{"surrounding spaces trimmed", "  say hi  \r\n", "say hi", true},
		{"empty line kept", "\r\n", "", true},
		{"iac negotiation discarded", "\xff\xfb\x01look\r\n", "", false},
		{"iac mid-line discarded", "loo\xffk\r\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))
			line, ok, err := readLine(r)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, line)
			}
		})
	}
}

func TestReadLineCapsLength(t *testing.T) {
	long := strings.Repeat("a", MaxLineLen+100) + "\r\n"
	r := bufio.NewReader(strings.NewReader(long))
	line, ok, err := readLine(r)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, line, MaxLineLen)
}

func TestReadLineEOFWithoutNewline(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("quit"))
	line, ok, err := readLine(r)
	require.Error(t, err)
	assert.True(t, ok)
	assert.Equal(t, "quit", line)
}
