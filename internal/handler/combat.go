package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/world"
)

func (d *Dispatcher) cmdAttack(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil {
		return true
	}
	if c.Stance != world.StanceStanding {
		c.Send("You need to be standing to fight.")
		return true
	}
	var target world.Actor
	if args == "" {
		target = c.Target()
		if target == nil || target.Room() != room || !target.Alive() {
			c.Send("Attack what?")
			return true
		}
	} else {
		m := room.FindMob(args)
		if m == nil {
			c.Send("You don't see that here.")
			return true
		}
		target = m
	}
	d.deps.Metrics.AttackResolved()
	// Zero mods: the engine resolves damage from the wielded weapon.
	d.deps.Combat.Attack(c, target, combat.Mods{})
	return true
}

func (d *Dispatcher) cmdCast(c *world.Character, args string) bool {
	key, targetRef, _ := strings.Cut(args, " ")
	if key == "" {
		c.Send("Cast what?")
		return true
	}
	ab := d.deps.State.Catalog.Abilities.Get(key)
	if ab == nil || ab.Kind != "spell" || !c.Spells[strings.ToLower(ab.Key)] {
		c.Send("You don't know that spell.")
		return true
	}
	if c.Silenced() {
		c.Send("{RYou open your mouth, but no sound comes out!{x")
		return true
	}
	if c.Casting != nil {
		c.Send("You are already concentrating on a spell.")
		return true
	}
	if c.Essence < ab.EssenceCost {
		c.Send("You lack the essence for that.")
		return true
	}
	if ab.CastTime > 0 {
		c.Casting = &world.Cast{
			AbilityKey: strings.ToLower(ab.Key),
			TargetRef:  strings.TrimSpace(targetRef),
			Remaining:  ab.CastTime,
		}
		c.Send(fmt.Sprintf("You begin casting %s...", ab.Name))
		if c.InRoom != nil {
			c.InRoom.Broadcast(fmt.Sprintf("%s begins weaving a spell.", c.Name()), c)
		}
		return true
	}
	d.releaseAbility(c, ab, strings.TrimSpace(targetRef))
	return true
}

func (d *Dispatcher) cmdUse(c *world.Character, args string) bool {
	key, targetRef, _ := strings.Cut(args, " ")
	if key == "" {
		c.Send("Use what?")
		return true
	}
	ab := d.deps.State.Catalog.Abilities.Get(key)
	if ab == nil || ab.Kind != "ability" || !c.Abilities[strings.ToLower(ab.Key)] {
		c.Send("You don't know how to do that.")
		return true
	}
	d.releaseAbility(c, ab, strings.TrimSpace(targetRef))
	return true
}

// releaseAbility pays the cost and fires the payload at a resolved
// target. Used for instant casts, completed casts, and abilities.
func (d *Dispatcher) releaseAbility(c *world.Character, ab *data.Ability, targetRef string) {
	if ab.NeedsHidden && !c.IsHidden() {
		c.Send("You must strike from hiding.")
		return
	}
	var target world.Actor
	if targetRef != "" {
		room := c.InRoom
		if room == nil {
			return
		}
		if m := room.FindMob(targetRef); m != nil {
			target = m
		} else if other := room.FindChar(targetRef); other != nil {
			target = other
		} else {
			c.Send("You don't see that here.")
			return
		}
	} else if ab.IsAttack() {
		target = c.Target()
		if target == nil || target.Room() != c.InRoom || !target.Alive() {
			c.Send("At what?")
			return
		}
	}
	if !c.SpendEssence(ab.EssenceCost) {
		c.Send("You lack the essence for that.")
		return
	}
	d.deps.Combat.ResolveAbility(c, ab, target)
}

// CompleteCast fires a finished cast; invoked by the roundtime system
// when Casting.Remaining reaches 0.
func CompleteCast(deps *Deps, dispatcher *Dispatcher, c *world.Character) {
	cast := c.Casting
	c.Casting = nil
	if cast == nil {
		return
	}
	ab := deps.State.Catalog.Abilities.Get(cast.AbilityKey)
	if ab == nil {
		return
	}
	dispatcher.releaseAbility(c, ab, cast.TargetRef)
}

func (d *Dispatcher) cmdHide(c *world.Character, _ string) bool {
	if c.IsHidden() {
		c.Send("You are already hidden.")
		return true
	}
	if c.IsFighting() {
		c.Send("Not while you are fighting.")
		return true
	}
	roll := dice.D20(d.deps.Roller) + c.SkillRank(data.SkillStealth) + c.Mod(world.StatAgility)
	if roll > 12 {
		c.SetHidden(true)
		c.Send("You slip into the shadows.")
	} else {
		c.Send("You fail to find a good hiding spot.")
		if c.InRoom != nil {
			c.InRoom.Broadcast(fmt.Sprintf("%s tries to hide behind nothing in particular.", c.Name()), c)
		}
	}
	c.SetRoundtime(2)
	return true
}

func (d *Dispatcher) cmdSneak(c *world.Character, args string) bool {
	if !c.IsHidden() {
		c.Send("You need to hide first.")
		return true
	}
	dir := strings.ToLower(strings.TrimSpace(args))
	if dir == "" {
		c.Send("Sneak which way?")
		return true
	}
	// Moving normally clears hidden; a successful sneak keeps it.
	roll := dice.D20(d.deps.Roller) + c.SkillRank(data.SkillStealth) + c.Mod(world.StatAgility)
	d.move(c, dir)
	if roll > 14 && c.InRoom != nil {
		c.SetHidden(true)
	}
	return true
}

// cmdSearch sweeps the room for hidden trouble: traps on exits and
// containers, and hidden creatures.
func (d *Dispatcher) cmdSearch(c *world.Character, _ string) bool {
	room := c.InRoom
	if room == nil {
		return true
	}
	roll := dice.D20(d.deps.Roller) + c.SkillRank(data.SkillPerception) + c.Mod(world.StatIntellect)
	found := false
	for dir, exit := range room.Exits {
		if exit.Trap == nil || !exit.Trap.Active || c.DetectedTraps[trapKey(room.ID, dir)] {
			continue
		}
		if roll > exit.Trap.PerceptionDC {
			c.DetectedTraps[trapKey(room.ID, dir)] = true
			c.Send(fmt.Sprintf("{YYou spot a trap rigged on the %s exit!{x", dir))
			found = true
		}
	}
	for _, it := range room.Items {
		if !it.Stats.TrapArmed || c.DetectedTraps[itemTrapKey(it.ID)] {
			continue
		}
		if roll > it.Stats.TrapDC {
			c.DetectedTraps[itemTrapKey(it.ID)] = true
			c.Send(fmt.Sprintf("{YYou spot a trap on %s!{x", it.Name()))
			found = true
		}
	}
	for _, m := range room.Mobs {
		if m.Hidden && !m.Dead && roll > 15 {
			m.Hidden = false
			room.Broadcast(fmt.Sprintf("{Y%s is flushed from hiding!{x", capitalize(m.Name())))
			found = true
		}
	}
	if !found {
		c.Send("You search around but find nothing.")
	}
	c.SetRoundtime(3)
	return true
}

// cmdDisarm defuses a detected trap on an exit or container.
func (d *Dispatcher) cmdDisarm(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil || args == "" {
		c.Send("Disarm what?")
		return true
	}
	roll := dice.D20(d.deps.Roller) + c.SkillRank(data.SkillDisarmTraps) + c.Mod(world.StatAgility)

	if dir, ok := world.NormalizeDirection(strings.ToLower(args)); ok {
		exit := room.Exits[dir]
		if exit == nil || exit.Trap == nil || !exit.Trap.Active {
			c.Send("There is no trap there.")
			return true
		}
		if !c.DetectedTraps[trapKey(room.ID, dir)] {
			c.Send("You don't see a trap there.")
			return true
		}
		if roll > exit.Trap.DisarmDC {
			exit.Trap.Active = false
			c.Send("{GYou carefully disarm the trap.{x")
		} else {
			c.Send("{RYour hand slips!{x")
			applyTrapDamage(d.deps, c, float64(exit.Trap.Damage), exit.Trap.DamageType)
			exit.Trap.Active = false
		}
		c.SetRoundtime(3)
		return true
	}

	it := room.FindItem(args)
	if it == nil {
		it = c.FindHeld(args)
	}
	if it == nil || !it.Stats.TrapArmed {
		c.Send("There is no trap there.")
		return true
	}
	if !c.DetectedTraps[itemTrapKey(it.ID)] {
		c.Send("You don't see a trap there.")
		return true
	}
	if roll > it.Stats.TrapDC {
		it.Stats.TrapArmed = false
		it.Dirty = true
		c.Send("{GYou carefully disarm the trap.{x")
	} else {
		c.Send("{RYour hand slips!{x")
		springItemTrap(d.deps, c, it)
	}
	c.SetRoundtime(3)
	return true
}

func (d *Dispatcher) cmdMeditate(c *world.Character, _ string) bool {
	if c.Status == world.StatusMeditating {
		c.Send("You are already meditating.")
		return true
	}
	if c.IsFighting() {
		c.Send("Not while you are fighting.")
		return true
	}
	c.Status = world.StatusMeditating
	c.Send("You settle into a meditative trance.")
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s settles into a meditative trance.", c.Name()), c)
	}
	return true
}

// cmdRelease frees a dead character's spirit: respawn at the default
// room at full health, at the price of another tether point.
func (d *Dispatcher) cmdRelease(c *world.Character, _ string) bool {
	if c.Status != world.StatusDead {
		c.Send("You are not dead yet.")
		return true
	}
	origin := c.InRoom
	dest := d.deps.State.Room(d.deps.Cfg.Game.DefaultRoom)
	if dest == nil {
		c.Send("{RYour spirit can find no anchor...{x")
		return true
	}
	if origin != nil {
		origin.Broadcast(fmt.Sprintf("%s's body dissolves into motes of light.", c.Name()), c)
		origin.RemoveChar(c)
	}
	c.Status = world.StatusAlive
	c.Stance = world.StanceStanding
	c.HP = c.MaxHP
	c.ClampVitals()
	if c.Tether > 0 {
		c.Tether--
	}
	c.DeathTimerEnd = time.Time{}
	c.Dirty = true
	dest.AddChar(c)
	c.Send("{WLight floods your vision... you awaken, gasping.{x")
	if c.Tether == 0 {
		c.Send("{RYour spiritual tether is severed. The next death is final.{x")
	} else {
		c.Send(fmt.Sprintf("{DYour spiritual tether weakens. (%d remaining){x", c.Tether))
	}
	dest.Broadcast(fmt.Sprintf("%s coalesces out of drifting light.", c.Name()), c)
	sendLook(c, dest)
	return true
}
