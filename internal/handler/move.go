package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/world"
)

// move walks a character through an exit, running any skill check or
// trap on the way.
func (d *Dispatcher) move(c *world.Character, direction string) {
	room := c.InRoom
	if room == nil {
		return
	}
	if c.Stance != world.StanceStanding {
		c.Send("You need to be standing first.")
		return
	}
	direction, _ = world.NormalizeDirection(direction)
	exit, ok := room.Exits[direction]
	if !ok {
		c.Send("You cannot go that way.")
		return
	}
	if exit.Locked {
		c.Send("The way is locked.")
		return
	}

	if exit.Trap != nil && exit.Trap.Active && !c.DetectedTraps[trapKey(room.ID, direction)] {
		d.springExitTrap(c, room, direction, exit)
		if !c.Alive() {
			return
		}
	}

	if exit.Check != nil {
		if !d.passSkillCheck(c, exit.Check) {
			return
		}
	}

	dest := d.deps.State.Room(exit.To)
	if dest == nil {
		// Broken topology is a content bug; the exit stays in place.
		d.deps.Log.Warn("exit to missing room",
			zap.Int32("from", room.ID), zap.String("dir", direction), zap.Int32("to", exit.To))
		c.Send("The path crumbles away into nothing before you.")
		return
	}

	c.Hidden = false
	room.RemoveChar(c)
	room.Broadcast(fmt.Sprintf("%s leaves %s.", c.Name(), direction), c)
	dest.AddChar(c)
	c.Dirty = true

	from := world.ReverseDirection(direction)
	if from == "" {
		dest.Broadcast(fmt.Sprintf("%s arrives.", c.Name()), c)
	} else {
		dest.Broadcast(fmt.Sprintf("%s arrives from the %s.", c.Name(), from), c)
	}
	sendLook(c, dest)

	c.SetRoundtime(1.0 + float64(c.ArmorValue()/20)*1.0)
}

// passSkillCheck rolls d20 + rank + attribute mod against the exit DC.
// Failure can hurt, knock the climber prone, and costs 10 seconds.
func (d *Dispatcher) passSkillCheck(c *world.Character, check *world.SkillCheck) bool {
	mod := c.Mod(statForSkill(check.Skill))
	roll := dice.D20(d.deps.Roller) + c.SkillRank(check.Skill) + mod
	if roll > check.DC {
		if check.SuccessMsg != "" {
			c.Send(check.SuccessMsg)
		}
		return true
	}
	if check.FailMsg != "" {
		c.Send(check.FailMsg)
	} else {
		c.Send("You fail to make it through.")
	}
	if check.FailDamage > 0 {
		c.Damage(float64(check.FailDamage))
		c.Send(fmt.Sprintf("{RYou take %d damage!{x", check.FailDamage))
		if c.CurrentHP() <= 0 {
			d.deps.Combat.CharacterDefeated(c, nil)
			return false
		}
	}
	if check.Skill == "climbing" {
		c.Stance = world.StanceLying
	}
	c.AddRoundtime(10)
	return false
}

// statForSkill maps a skill to its governing attribute for checks.
func statForSkill(skill string) string {
	switch skill {
	case "climbing", "swimming", "stealth", "lockpicking", "disarm traps":
		return world.StatAgility
	case "perception", "spellcraft", "first aid":
		return world.StatIntellect
	case "bartering":
		return world.StatPersona
	default:
		return world.StatAgility
	}
}

func trapKey(roomID int32, direction string) string {
	return fmt.Sprintf("exit:%d:%s", roomID, direction)
}

// springExitTrap fires an undetected exit trap through the magical
// mitigation path, then disarms it.
func (d *Dispatcher) springExitTrap(c *world.Character, room *world.Room, direction string, exit *world.Exit) {
	c.Send("{RA hidden trap springs!{x")
	room.Broadcast(fmt.Sprintf("{RA hidden trap catches %s!{x", c.Name()), c)
	applyTrapDamage(d.deps, c, float64(exit.Trap.Damage), exit.Trap.DamageType)
	exit.Trap.Active = false
}

func (d *Dispatcher) cmdStand(c *world.Character, _ string) bool {
	if c.Stance == world.StanceStanding {
		c.Send("You are already standing.")
		return true
	}
	if c.StanceLocked() {
		c.Send("{RYou cannot seem to rise!{x")
		return true
	}
	c.Stance = world.StanceStanding
	c.Send("You stand up.")
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s stands up.", c.Name()), c)
	}
	return true
}

func (d *Dispatcher) cmdSit(c *world.Character, _ string) bool {
	if c.Stance == world.StanceSitting {
		c.Send("You are already sitting.")
		return true
	}
	c.Stance = world.StanceSitting
	c.Send("You sit down.")
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s sits down.", c.Name()), c)
	}
	return true
}

func (d *Dispatcher) cmdLie(c *world.Character, _ string) bool {
	if c.Stance == world.StanceLying {
		c.Send("You are already lying down.")
		return true
	}
	c.Stance = world.StanceLying
	c.Send("You lie down.")
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s lies down.", c.Name()), c)
	}
	return true
}
