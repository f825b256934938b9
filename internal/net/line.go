package net

import (
	"bufio"
	"strings"
)

// MaxLineLen caps a single input line; anything longer is truncated.
const MaxLineLen = 512

const telnetIAC = 0xFF

// readLine reads one newline-terminated line and normalizes it: CR/LF
// stripped, length capped, surrounding whitespace trimmed. Lines carrying
// telnet IAC negotiation bytes are discarded by returning ok=false; this
// server speaks plain lines and never answers option negotiation.
func readLine(r *bufio.Reader) (line string, ok bool, err error) {
	raw, err := r.ReadString('\n')
	if len(raw) == 0 && err != nil {
		return "", false, err
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] == telnetIAC {
			return "", false, err
		}
	}
	if len(raw) > MaxLineLen {
		raw = raw[:MaxLineLen]
	}
	line = strings.TrimRight(raw, "\r\n")
	line = strings.TrimSpace(line)
	return line, true, err
}
