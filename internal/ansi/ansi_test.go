package ansi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "hello world", "hello world"},
		{"color and reset", "{rdanger{x!", "\x1b[31mdanger\x1b[0m!"},
		{"bright variant", "{Rblood{x", "\x1b[1;31mblood\x1b[0m"},
		{"unknown code dropped", "{qodd", "odd"},
		{"escaped brace", "use {{ for a brace", "use { for a brace"},
		{"trailing lone brace dropped", "oops{", "oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "danger!", Strip("{rdanger{x!"))
	assert.Equal(t, "a { b", Strip("a {{ b"))
	assert.Equal(t, "plain", Strip("plain"))
}
