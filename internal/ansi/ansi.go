// Package ansi translates the inline markup codes used by game content into
// ANSI escape sequences. Markup is a brace followed by a single letter:
// {r = red, {R = bright red, and so on, with {x as the reset sentinel.
// Unknown codes are dropped. A literal brace is written as {{.
package ansi

import "strings"

const esc = "\x1b["

// codes maps markup letters to SGR sequences. Lowercase = normal intensity,
// uppercase = bold/bright. The set is closed; content may only use these.
var codes = map[byte]string{
	'x': esc + "0m",
	'k': esc + "30m", 'K': esc + "1;30m",
	'r': esc + "31m", 'R': esc + "1;31m",
	'g': esc + "32m", 'G': esc + "1;32m",
	'y': esc + "33m", 'Y': esc + "1;33m",
	'b': esc + "34m", 'B': esc + "1;34m",
	'm': esc + "35m", 'M': esc + "1;35m",
	'c': esc + "36m", 'C': esc + "1;36m",
	'w': esc + "37m", 'W': esc + "1;37m",
	'd': esc + "39m", // terminal default foreground
}

// Render expands markup codes to ANSI sequences.
func Render(s string) string {
	return translate(s, true)
}

// Strip removes markup codes without emitting ANSI. Used when the client
// has color disabled and for log output.
func Strip(s string) string {
	return translate(s, false)
}

func translate(s string, color bool) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '{' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			break // trailing lone brace is dropped
		}
		i++
		code := s[i]
		if code == '{' {
			b.WriteByte('{')
			continue
		}
		if !color {
			continue
		}
		if seq, ok := codes[code]; ok {
			b.WriteString(seq)
		}
	}
	return b.String()
}
