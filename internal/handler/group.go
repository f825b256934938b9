package handler

import (
	"fmt"
	"strings"

	"github.com/talonmoor/server/internal/world"
)

// leaveGroup removes a character from a group, announcing the departure
// and disbanding when one member remains.
func leaveGroup(deps *Deps, c *world.Character, g *world.Group, announce bool) {
	if g == nil {
		return
	}
	if announce {
		g.Broadcast(fmt.Sprintf("{c%s leaves the group.{x", c.Name()), c)
	}
	if g.Remove(c) {
		if leader := g.Leader(); leader != nil {
			leader.Send("{cYour group dissolves.{x")
		}
		deps.State.Disband(g)
	}
}

func (d *Dispatcher) cmdGroup(c *world.Character, args string) bool {
	sub, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	switch strings.ToLower(sub) {
	case "", "list":
		d.groupList(c)
	case "invite":
		d.groupInvite(c, strings.TrimSpace(rest))
	case "join", "accept":
		d.groupJoin(c)
	case "decline":
		d.groupDecline(c)
	case "leave":
		g := d.deps.State.GroupOf(c)
		if g == nil {
			c.Send("You are not in a group.")
			return true
		}
		c.Send("You leave the group.")
		leaveGroup(d.deps, c, g, true)
	case "disband":
		d.groupDisband(c)
	default:
		c.Send("Usage: group [invite <name>|join|decline|leave|disband]")
	}
	return true
}

func (d *Dispatcher) groupList(c *world.Character) {
	g := d.deps.State.GroupOf(c)
	if g == nil {
		c.Send("You are not in a group.")
		return
	}
	c.Send("{CYour group:{x")
	for i, m := range g.Members {
		tag := ""
		if i == 0 {
			tag = " (leader)"
		}
		c.Send(fmt.Sprintf("  %-25s HP %d/%d%s", m.Name(), int(m.HP), int(m.MaxHP), tag))
	}
}

func (d *Dispatcher) groupInvite(c *world.Character, who string) {
	if who == "" {
		c.Send("Invite whom?")
		return
	}
	room := c.InRoom
	if room == nil {
		return
	}
	target := room.FindChar(who)
	if target == nil || target == c || target.Hidden {
		c.Send("They aren't here.")
		return
	}
	if d.deps.State.GroupOf(target) != nil {
		c.Send(fmt.Sprintf("%s is already in a group.", target.Name()))
		return
	}

	g := d.deps.State.GroupOf(c)
	if g == nil {
		g = d.deps.State.NewGroup(c)
	} else if g.Leader() != c {
		c.Send("Only the leader can invite.")
		return
	}
	if len(g.Members) >= world.MaxGroupSize {
		c.Send("Your group is full.")
		return
	}
	d.deps.GroupInvites[target.ID] = g.ID
	c.Send(fmt.Sprintf("You invite %s to your group.", target.Name()))
	target.Send(fmt.Sprintf("{c%s invites you to a group. 'group join' to accept.{x", c.Name()))
}

func (d *Dispatcher) groupJoin(c *world.Character) {
	gid, ok := d.deps.GroupInvites[c.ID]
	if !ok {
		c.Send("No one has invited you.")
		return
	}
	delete(d.deps.GroupInvites, c.ID)
	g := d.deps.State.Groups[gid]
	if g == nil || len(g.Members) == 0 {
		c.Send("That group no longer exists.")
		return
	}
	if !g.Add(c) {
		c.Send("That group is full.")
		return
	}
	g.Broadcast(fmt.Sprintf("{c%s joins the group.{x", c.Name()), c)
	c.Send(fmt.Sprintf("{cYou join %s's group.{x", g.Leader().Name()))
}

func (d *Dispatcher) groupDecline(c *world.Character) {
	if _, ok := d.deps.GroupInvites[c.ID]; !ok {
		c.Send("No one has invited you.")
		return
	}
	delete(d.deps.GroupInvites, c.ID)
	c.Send("You decline the invitation.")
}

func (d *Dispatcher) groupDisband(c *world.Character) {
	g := d.deps.State.GroupOf(c)
	if g == nil {
		c.Send("You are not in a group.")
		return
	}
	if g.Leader() != c {
		c.Send("Only the leader can disband the group.")
		return
	}
	g.Broadcast("{cThe group disbands.{x")
	d.deps.State.Disband(g)
}
