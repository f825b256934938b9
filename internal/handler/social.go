package handler

import (
	"fmt"
	"strings"

	"github.com/talonmoor/server/internal/world"
)

func (d *Dispatcher) cmdSay(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Say what?")
		return true
	}
	if c.Silenced() {
		c.Send("{RYou open your mouth, but no sound comes out!{x")
		return true
	}
	c.Send(fmt.Sprintf("You say, \"%s\"", args))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s says, \"%s\"", c.Name(), args), c)
	}
	return true
}

func (d *Dispatcher) cmdTell(c *world.Character, args string) bool {
	who, msg, ok := strings.Cut(args, " ")
	if !ok || msg == "" {
		c.Send("Tell whom what?")
		return true
	}
	target := d.deps.State.CharByName(who)
	if target == nil || target == c {
		c.Send("They aren't online.")
		return true
	}
	c.Send(fmt.Sprintf("{cYou tell %s, \"%s\"{x", target.Name(), msg))
	target.Send(fmt.Sprintf("{c%s tells you, \"%s\"{x", c.Name(), msg))
	return true
}

func (d *Dispatcher) cmdEmote(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Emote what?")
		return true
	}
	msg := fmt.Sprintf("%s %s", c.Name(), args)
	c.Send(msg)
	if c.InRoom != nil {
		c.InRoom.Broadcast(msg, c)
	}
	return true
}
