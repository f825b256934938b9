package handler

import (
	"fmt"
	"strings"

	"github.com/talonmoor/server/internal/world"
)

// sendLook renders a full room view: title, description, exits, ground
// contents, and visible occupants.
func sendLook(c *world.Character, room *world.Room) {
	c.Send(fmt.Sprintf("{C%s{x", room.Name))
	c.Send(room.Description)

	var exits []string
	for _, dir := range world.Directions {
		if _, ok := room.Exits[dir]; ok {
			exits = append(exits, dir)
		}
	}
	for dir := range room.Exits {
		if _, std := world.NormalizeDirection(dir); !std {
			exits = append(exits, dir)
		}
	}
	if len(exits) == 0 {
		c.Send("{cObvious exits: none.{x")
	} else {
		c.Send(fmt.Sprintf("{cObvious exits: %s.{x", strings.Join(exits, ", ")))
	}

	if room.Coins > 0 {
		c.Send(fmt.Sprintf("{Y%d talons lie scattered here.{x", room.Coins))
	}
	for _, it := range room.Items {
		c.Send(fmt.Sprintf("{g%s lies here.{x", capitalize(it.Name())))
	}
	for _, m := range room.Mobs {
		if m.Dead || m.Hidden {
			continue
		}
		c.Send(fmt.Sprintf("{Y%s is here.{x", capitalize(m.Name())))
	}
	for _, other := range room.Chars {
		if other == c || other.Hidden {
			continue
		}
		desc := other.Name()
		switch {
		case other.Status == world.StatusDying || other.Status == world.StatusDead:
			desc += " lies here, unmoving"
		case other.Stance == world.StanceSitting:
			desc += " is sitting here"
		case other.Stance == world.StanceLying:
			desc += " is lying here"
		default:
			desc += " is standing here"
		}
		c.Send(fmt.Sprintf("{W%s.{x", desc))
	}
}

func (d *Dispatcher) cmdLook(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil {
		c.Send("You float in a formless void.")
		return true
	}
	if args == "" {
		sendLook(c, room)
		return true
	}

	// "look in <container>"
	if rest, ok := strings.CutPrefix(args, "in "); ok {
		d.lookInContainer(c, strings.TrimSpace(rest))
		return true
	}
	d.examineTarget(c, args)
	return true
}

func (d *Dispatcher) cmdExamine(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Examine what?")
		return true
	}
	d.examineTarget(c, args)
	return true
}

// examineTarget resolves a keyword against mobs, characters, items
// (carried then ground), and descriptive room objects, in that order.
func (d *Dispatcher) examineTarget(c *world.Character, keyword string) {
	room := c.InRoom
	if room == nil {
		return
	}
	if m := room.FindMob(keyword); m != nil {
		c.Send(m.Tmpl.Description)
		c.Send(healthLine(m.Name(), m.CurrentHP(), m.MaximumHP()))
		return
	}
	if other := room.FindChar(keyword); other != nil && other != c && !other.Hidden {
		if other.Description != "" {
			c.Send(other.Description)
		} else {
			c.Send(fmt.Sprintf("You see nothing special about %s.", other.Name()))
		}
		return
	}
	if it := c.FindAnywhere(keyword); it != nil {
		describeItem(c, it)
		return
	}
	if it := room.FindItem(keyword); it != nil {
		describeItem(c, it)
		return
	}
	if obj := room.FindObject(keyword); obj != nil {
		c.Send(obj.Description)
		return
	}
	c.Send("You see nothing like that here.")
}

func describeItem(c *world.Character, it *world.Item) {
	c.Send(fmt.Sprintf("%s (condition %d/100)", capitalize(it.Name()), it.Condition))
	if it.Tmpl.Type == "container" {
		if it.Stats.Locked {
			c.Send("It is locked.")
		} else if it.Stats.Open {
			c.Send("It is open.")
		} else {
			c.Send("It is closed.")
		}
	}
}

// healthLine coarsely reports another creature's condition.
func healthLine(name string, hp, maxHP float64) string {
	if maxHP <= 0 {
		return ""
	}
	pct := hp / maxHP
	var desc string
	switch {
	case pct >= 1:
		desc = "in perfect health"
	case pct > 0.75:
		desc = "lightly wounded"
	case pct > 0.5:
		desc = "wounded"
	case pct > 0.25:
		desc = "badly wounded"
	default:
		desc = "near death"
	}
	return fmt.Sprintf("%s looks %s.", capitalize(name), desc)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
