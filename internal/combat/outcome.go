package combat

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/world"
)

// resolveDefeat routes a 0-HP actor to the right death path.
func (e *Engine) resolveDefeat(defeated, killer world.Actor) {
	switch v := defeated.(type) {
	case *world.Mob:
		e.MobDefeated(v, killer)
	case *world.Character:
		e.CharacterDefeated(v, killer)
	}
}

// MobDefeated marks a mob dead, awards XP, and drops its loot. killer may
// be nil (DoT kills carry no attribution and award nothing).
func (e *Engine) MobDefeated(m *world.Mob, killer world.Actor) {
	room := m.InRoom
	m.Dead = true
	m.TimeOfDeath = time.Now()
	m.Fighting = false
	m.SetTarget(nil)
	m.Roundtime = 0

	if room != nil {
		room.Broadcast(fmt.Sprintf("{R%s collapses and dies!{x", capitalize(m.Name())))
		// Anyone fighting this mob disengages.
		for _, c := range room.Chars {
			if c.Target() == m {
				c.SetTarget(nil)
				c.SetFighting(false)
			}
		}
	}

	kc, _ := killer.(*world.Character)
	if kc != nil {
		e.awardKill(kc, m)
	}
	if room != nil {
		e.dropLoot(m, room, kc)
	}

	event.Emit(e.bus, event.MobDied{Mob: m, Killer: killer})
	e.log.Debug("mob defeated",
		zap.Int64("mob", m.ID),
		zap.Int32("template", m.Tmpl.ID),
		zap.String("killer", killerName(killer)))
}

// awardKill applies the XP reward with the group-split rule: ≥2 living
// group members in the room splits XP×0.80 evenly, remainder to the
// leader, each share clamped by the member's pool cap.
func (e *Engine) awardKill(killer *world.Character, m *world.Mob) {
	xp := m.Tmpl.XP
	if xp <= 0 {
		return
	}
	members := e.presentGroup(killer)
	if len(members) >= 2 {
		shares := world.SplitShares(int64(float64(xp)*0.80), len(members))
		for i, member := range members {
			banked := member.GainXPPool(shares[i])
			if banked > 0 {
				member.Send(fmt.Sprintf("{cYou absorb %d experience from the kill.{x", banked))
			}
		}
		return
	}
	banked := killer.GainXPPool(xp)
	if banked > 0 {
		killer.Send(fmt.Sprintf("{cYou absorb %d experience from the kill.{x", banked))
	}
}

// presentGroup returns the killer's living groupmates in the same room,
// leader first; nil when solo.
func (e *Engine) presentGroup(killer *world.Character) []*world.Character {
	g := e.state.GroupOf(killer)
	if g == nil {
		return nil
	}
	var out []*world.Character
	for _, member := range g.PresentMembers(killer.InRoom) {
		if member.Alive() {
			out = append(out, member)
		}
	}
	return out
}

// dropLoot rolls coinage and the template loot table into the room. A
// grouped killer's coin is split to purses instead, remainder to the
// leader.
func (e *Engine) dropLoot(m *world.Mob, room *world.Room, killer *world.Character) {
	if m.Tmpl.CoinMax > 0 {
		coins := int64(dice.Between(e.roller, 0, int(m.Tmpl.CoinMax)))
		if coins > 0 {
			members := []*world.Character(nil)
			if killer != nil {
				members = e.presentGroup(killer)
			}
			if len(members) >= 2 {
				shares := world.SplitShares(coins, len(members))
				for i, member := range members {
					member.Coins += shares[i]
					member.Dirty = true
					member.Send(fmt.Sprintf("Your share of the spoils is %d talons.", shares[i]))
				}
			} else {
				room.Coins += coins
				room.Broadcast(fmt.Sprintf("%d talons spill to the ground.", coins))
			}
		}
	}
	for _, drop := range m.Tmpl.Loot {
		if !dice.Chance(e.roller, drop.Chance) {
			continue
		}
		tmpl := e.state.ItemTemplate(drop.TemplateID)
		if tmpl == nil {
			e.log.Warn("loot references missing item template",
				zap.Int32("mob", m.Tmpl.ID), zap.Int64("item", drop.TemplateID))
			continue
		}
		it := world.NewItem(e.state.NextItemID(), tmpl)
		e.state.RegisterItem(it)
		room.AddItem(it)
		room.Broadcast(fmt.Sprintf("%s falls from the corpse.", capitalize(it.Name())))
	}
}

// CharacterDefeated transitions a living character to DYING: the pool is
// forfeited, a tenth of the in-level progress is lost, a tenth of the
// purse spills, and the death timer starts at vitality seconds.
func (e *Engine) CharacterDefeated(c *world.Character, killer world.Actor) {
	if c.Status != world.StatusAlive && c.Status != world.StatusMeditating {
		return
	}
	c.Status = world.StatusDying
	c.Stance = world.StanceLying
	c.HP = 0
	c.Fighting = false
	c.SetTarget(nil)
	c.Casting = nil
	c.Roundtime = 0
	c.XPPool = 0
	c.XPTotal -= e.curve.DeathXPLoss(c.XPTotal, c.Level)

	if c.Coins > 0 && c.InRoom != nil {
		spill := c.Coins / 10
		if spill > 0 {
			c.Coins -= spill
			c.InRoom.Coins += spill
			c.InRoom.Broadcast(fmt.Sprintf("%d talons spill from %s's purse.", spill, c.Name()), c)
		}
	}

	vitality := c.EffStat(world.StatVitality)
	if vitality < 1 {
		vitality = 1
	}
	c.DeathTimerEnd = time.Now().Add(time.Duration(vitality) * time.Second)
	c.Dirty = true

	c.Send("{RYou collapse, mortally wounded. Your spirit clings to your body...{x")
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("{R%s collapses, mortally wounded!{x", c.Name()), c)
		for _, m := range c.InRoom.Mobs {
			if m.Target() == c {
				m.SetTarget(nil)
				m.Fighting = false
			}
		}
	}

	event.Emit(e.bus, event.CharacterDying{Char: c, Killer: killer})
	e.log.Info("character dying",
		zap.String("name", c.Name()),
		zap.String("killer", killerName(killer)))
}

func killerName(killer world.Actor) string {
	if killer == nil {
		return ""
	}
	return killer.Name()
}
