package handler

import (
	"fmt"
	"strings"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/world"
)

func itemTrapKey(itemID int64) string {
	return fmt.Sprintf("item:%d", itemID)
}

// applyTrapDamage runs trap damage through the magical mitigation path.
func applyTrapDamage(deps *Deps, c *world.Character, damage float64, damageType string) {
	if damageType == "" {
		damageType = "pierce"
	}
	dealt := deps.Combat.EnvironmentalDamage(c, int(damage), damageType)
	if dealt > 0 {
		c.Send(fmt.Sprintf("{RYou take %d damage!{x", int(dealt)))
	} else {
		c.Send("You shrug off the worst of it.")
	}
}

// springItemTrap fires an armed container trap and disarms it.
func springItemTrap(deps *Deps, c *world.Character, it *world.Item) {
	it.Stats.TrapArmed = false
	it.Dirty = true
	c.Send(fmt.Sprintf("{RA needle trap on %s springs!{x", it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("{RA trap on %s catches %s!{x", it.Name(), c.Name()), c)
	}
	applyTrapDamage(deps, c, float64(it.Stats.TrapDamage), "pierce")
}

// findContainer resolves a container keyword against hands, worn gear,
// and the ground, in that order.
func (d *Dispatcher) findContainer(c *world.Character, keyword string) *world.Item {
	if it := c.FindHeld(keyword); it != nil {
		return it
	}
	if _, it := c.FindEquipped(keyword); it != nil {
		return it
	}
	if c.InRoom != nil {
		if it := c.InRoom.FindItem(keyword); it != nil {
			return it
		}
	}
	return nil
}

func (d *Dispatcher) lookInContainer(c *world.Character, keyword string) {
	it := d.findContainer(c, keyword)
	if it == nil {
		c.Send("You don't see that here.")
		return
	}
	if it.Tmpl.Type != data.ItemContainer {
		c.Send("That isn't a container.")
		return
	}
	if it.Stats.Locked {
		c.Send("It is locked.")
		return
	}
	if !it.Stats.Open {
		c.Send("It is closed.")
		return
	}
	if len(it.Contents) == 0 {
		c.Send(fmt.Sprintf("%s is empty.", capitalize(it.Name())))
		return
	}
	c.Send(fmt.Sprintf("%s contains:", capitalize(it.Name())))
	for _, content := range it.Contents {
		c.Send("  " + content.Name())
	}
}

func (d *Dispatcher) cmdOpen(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Open what?")
		return true
	}
	it := d.findContainer(c, args)
	if it == nil {
		c.Send("You don't see that here.")
		return true
	}
	if it.Tmpl.Type != data.ItemContainer {
		c.Send("You can't open that.")
		return true
	}
	if it.Stats.Locked {
		c.Send("It is locked.")
		return true
	}
	if it.Stats.Open {
		c.Send("It is already open.")
		return true
	}
	if it.Stats.TrapArmed && !c.DetectedTraps[itemTrapKey(it.ID)] {
		springItemTrap(d.deps, c, it)
		if !c.Alive() {
			return true
		}
	}
	it.Stats.Open = true
	it.Dirty = true
	d.rollLoot(it)
	c.Send(fmt.Sprintf("You open %s.", it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s opens %s.", c.Name(), it.Name()), c)
	}
	return true
}

// rollLoot materializes a container's loot table on first open.
func (d *Dispatcher) rollLoot(it *world.Item) {
	if it.Stats.LootRolled || len(it.Tmpl.LootTable) == 0 {
		return
	}
	it.Stats.LootRolled = true
	it.Dirty = true
	for _, drop := range it.Tmpl.LootTable {
		if !dice.Chance(d.deps.Roller, drop.Chance) {
			continue
		}
		tmpl := d.deps.State.ItemTemplate(drop.TemplateID)
		if tmpl == nil {
			continue
		}
		loot := world.NewItem(d.deps.State.NextItemID(), tmpl)
		d.deps.State.RegisterItem(loot)
		it.AddContent(loot)
	}
}

func (d *Dispatcher) cmdClose(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Close what?")
		return true
	}
	it := d.findContainer(c, args)
	if it == nil {
		c.Send("You don't see that here.")
		return true
	}
	if it.Tmpl.Type != data.ItemContainer {
		c.Send("You can't close that.")
		return true
	}
	if !it.Stats.Open {
		c.Send("It is already closed.")
		return true
	}
	it.Stats.Open = false
	it.Dirty = true
	c.Send(fmt.Sprintf("You close %s.", it.Name()))
	return true
}

// heldKeyFor finds a held key that opens the given lock.
func heldKeyFor(c *world.Character, lockID string) *world.Item {
	if lockID == "" {
		return nil
	}
	for _, it := range c.Inventory {
		for _, id := range it.Tmpl.Unlocks {
			if id == lockID {
				return it
			}
		}
	}
	return nil
}

func (d *Dispatcher) cmdUnlock(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Unlock what?")
		return true
	}
	room := c.InRoom

	// Locked exit?
	if room != nil {
		if dir, ok := world.NormalizeDirection(strings.ToLower(args)); ok {
			exit := room.Exits[dir]
			if exit == nil {
				c.Send("There is no way there.")
				return true
			}
			if !exit.Locked {
				c.Send("It isn't locked.")
				return true
			}
			key := heldKeyFor(c, exit.KeyID)
			if key == nil {
				c.Send("You don't have the right key.")
				return true
			}
			exit.Locked = false
			c.Send(fmt.Sprintf("You unlock the way %s with %s.", dir, key.Name()))
			room.Broadcast(fmt.Sprintf("%s unlocks the way %s.", c.Name(), dir), c)
			return true
		}
	}

	it := d.findContainer(c, args)
	if it == nil {
		c.Send("You don't see that here.")
		return true
	}
	if !it.Stats.Locked {
		c.Send("It isn't locked.")
		return true
	}
	key := heldKeyFor(c, it.Tmpl.LockID)
	if key == nil {
		c.Send("You don't have the right key.")
		return true
	}
	it.Stats.Locked = false
	it.Dirty = true
	c.Send(fmt.Sprintf("You unlock %s with %s.", it.Name(), key.Name()))
	return true
}

func (d *Dispatcher) cmdLock(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Lock what?")
		return true
	}
	it := d.findContainer(c, args)
	if it == nil {
		c.Send("You don't see that here.")
		return true
	}
	if it.Tmpl.LockID == "" {
		c.Send("That has no lock.")
		return true
	}
	if it.Stats.Locked {
		c.Send("It is already locked.")
		return true
	}
	if it.Stats.Open {
		c.Send("Close it first.")
		return true
	}
	key := heldKeyFor(c, it.Tmpl.LockID)
	if key == nil {
		c.Send("You don't have the right key.")
		return true
	}
	it.Stats.Locked = true
	it.Dirty = true
	c.Send(fmt.Sprintf("You lock %s with %s.", it.Name(), key.Name()))
	return true
}

func (d *Dispatcher) cmdPut(c *world.Character, args string) bool {
	what, where, ok := cutAround(args, " in ")
	if !ok {
		c.Send("Put what in what?")
		return true
	}
	it := c.FindHeld(what)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	dest := d.findContainer(c, where)
	if dest == nil {
		c.Send("You don't see that container.")
		return true
	}
	if dest.Tmpl.Type != data.ItemContainer {
		c.Send("That isn't a container.")
		return true
	}
	if dest.Stats.Locked || !dest.Stats.Open {
		c.Send("It isn't open.")
		return true
	}
	if !dest.CanContain(it) {
		c.Send("It won't fit.")
		return true
	}
	c.Release(it)
	dest.AddContent(it)
	c.Send(fmt.Sprintf("You put %s in %s.", it.Name(), dest.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s puts %s in %s.", c.Name(), it.Name(), dest.Name()), c)
	}
	return true
}

// cutAround splits on the first occurrence of sep, trimming both sides.
func cutAround(s, sep string) (left, right string, ok bool) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+len(sep):]), true
}
