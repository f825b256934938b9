package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

func (d *Dispatcher) cmdGet(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil || args == "" {
		c.Send("Get what?")
		return true
	}

	if args == "coins" || args == "talons" {
		if room.Coins <= 0 {
			c.Send("There are no coins here.")
			return true
		}
		c.Coins += room.Coins
		c.Dirty = true
		c.Send(fmt.Sprintf("You scoop up %d talons.", room.Coins))
		room.Broadcast(fmt.Sprintf("%s scoops up a pile of coins.", c.Name()), c)
		room.Coins = 0
		return true
	}

	// "get <item> from <container>"
	if what, where, ok := cutAround(args, " from "); ok {
		src := d.findContainer(c, where)
		if src == nil {
			c.Send("You don't see that container.")
			return true
		}
		if src.Tmpl.Type != data.ItemContainer {
			c.Send("That isn't a container.")
			return true
		}
		if src.Stats.Locked || !src.Stats.Open {
			c.Send("It isn't open.")
			return true
		}
		it := src.FindContent(what)
		if it == nil {
			c.Send("There is no such thing inside.")
			return true
		}
		if c.HandsFree() <= 0 {
			c.Send("Your hands are full.")
			return true
		}
		src.RemoveContent(it)
		c.Hold(it)
		c.Send(fmt.Sprintf("You get %s from %s.", it.Name(), src.Name()))
		room.Broadcast(fmt.Sprintf("%s gets %s from %s.", c.Name(), it.Name(), src.Name()), c)
		return true
	}

	it := room.FindItem(args)
	if it == nil {
		c.Send("You don't see that here.")
		return true
	}
	if c.HandsFree() <= 0 {
		c.Send("Your hands are full.")
		return true
	}
	room.RemoveItem(it)
	c.Hold(it)
	it.Dirty = true
	c.Send(fmt.Sprintf("You pick up %s.", it.Name()))
	room.Broadcast(fmt.Sprintf("%s picks up %s.", c.Name(), it.Name()), c)
	return true
}

func (d *Dispatcher) cmdDrop(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil || args == "" {
		c.Send("Drop what?")
		return true
	}

	if n, currency, ok := parseCoinAmount(args); ok {
		if n <= 0 || n > c.Coins {
			c.Send("You don't have that many talons.")
			return true
		}
		c.Coins -= n
		c.Dirty = true
		room.Coins += n
		c.Send(fmt.Sprintf("You drop %d %s.", n, currency))
		room.Broadcast(fmt.Sprintf("%s drops some coins.", c.Name()), c)
		return true
	}

	it := c.FindHeld(args)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	c.Release(it)
	room.AddItem(it)
	it.Dirty = true
	c.Send(fmt.Sprintf("You drop %s.", it.Name()))
	room.Broadcast(fmt.Sprintf("%s drops %s.", c.Name(), it.Name()), c)
	return true
}

// parseCoinAmount recognizes "<n> coins" / "<n> talons".
func parseCoinAmount(args string) (int64, string, bool) {
	amount, rest, ok := strings.Cut(args, " ")
	if !ok {
		return 0, "", false
	}
	if rest != "coins" && rest != "talons" {
		return 0, "", false
	}
	n, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, rest, true
}

// cmdWear handles both wear and wield: the destination slot comes from
// the template's wear location.
func (d *Dispatcher) cmdWear(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Wear what?")
		return true
	}
	it := c.FindHeld(args)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	slot := it.Tmpl.WearLoc
	if it.IsWeapon() {
		slot = world.SlotMainHand
	} else if it.Tmpl.Type == data.ItemShield {
		slot = world.SlotOffHand
	}
	if slot == "" {
		c.Send("You can't wear that.")
		return true
	}
	if it.TwoHanded() && (c.Equipment[world.SlotMainHand] != nil || c.Equipment[world.SlotOffHand] != nil) {
		c.Send("You need both hands free for that.")
		return true
	}
	if c.Equipment[slot] != nil {
		c.Send(fmt.Sprintf("You are already wearing something on your %s.", strings.ReplaceAll(slot, "_", " ")))
		return true
	}
	c.Release(it)
	c.Equip(slot, it)
	verb := "wear"
	if it.IsWeapon() {
		verb = "wield"
	}
	c.Send(fmt.Sprintf("You %s %s.", verb, it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s %ss %s.", c.Name(), verb, it.Name()), c)
	}
	return true
}

func (d *Dispatcher) cmdRemove(c *world.Character, args string) bool {
	if args == "" {
		c.Send("Remove what?")
		return true
	}
	slot, it := c.FindEquipped(args)
	if it == nil {
		c.Send("You aren't wearing that.")
		return true
	}
	if c.HandsFree() <= 0 {
		c.Send("Your hands are full.")
		return true
	}
	c.Unequip(slot)
	c.Hold(it)
	c.Send(fmt.Sprintf("You remove %s.", it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s removes %s.", c.Name(), it.Name()), c)
	}
	return true
}

// cmdGive offers an item or coins; the recipient must accept.
func (d *Dispatcher) cmdGive(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil {
		return true
	}
	what, who, ok := cutAround(args, " to ")
	if !ok {
		c.Send("Give what to whom?")
		return true
	}
	target := room.FindChar(who)
	if target == nil || target == c || target.Hidden {
		c.Send("They aren't here.")
		return true
	}
	if target.PendingGive != nil {
		c.Send(fmt.Sprintf("%s is already considering an offer.", target.Name()))
		return true
	}

	offer := &world.GiveOffer{From: c}
	if n, _, isCoins := parseCoinAmount(what); isCoins {
		if n <= 0 || n > c.Coins {
			c.Send("You don't have that many talons.")
			return true
		}
		offer.Coins = n
		target.Send(fmt.Sprintf("%s offers you %d talons. (accept/decline)", c.Name(), n))
	} else {
		it := c.FindHeld(what)
		if it == nil {
			c.Send("You aren't holding that.")
			return true
		}
		offer.Item = it
		target.Send(fmt.Sprintf("%s offers you %s. (accept/decline)", c.Name(), it.Name()))
	}
	target.PendingGive = offer
	c.Send(fmt.Sprintf("You offer it to %s.", target.Name()))
	return true
}

func (d *Dispatcher) cmdAccept(c *world.Character, _ string) bool {
	offer := c.PendingGive
	if offer == nil {
		c.Send("Nothing has been offered to you.")
		return true
	}
	c.PendingGive = nil
	giver := offer.From
	if giver == nil || giver.InRoom != c.InRoom {
		c.Send("The offer has lapsed.")
		return true
	}
	if offer.Coins > 0 {
		if giver.Coins < offer.Coins {
			c.Send("The offer has lapsed.")
			return true
		}
		giver.Coins -= offer.Coins
		c.Coins += offer.Coins
		giver.Dirty = true
		c.Dirty = true
		c.Send(fmt.Sprintf("You accept %d talons from %s.", offer.Coins, giver.Name()))
		giver.Send(fmt.Sprintf("%s accepts your talons.", c.Name()))
		return true
	}
	it := offer.Item
	if it == nil || giver.FindHeld(it.Name()) != it {
		c.Send("The offer has lapsed.")
		return true
	}
	if c.HandsFree() <= 0 {
		c.Send("Your hands are full.")
		giver.Send(fmt.Sprintf("%s's hands are full.", c.Name()))
		return true
	}
	giver.Release(it)
	c.Hold(it)
	c.Send(fmt.Sprintf("You accept %s from %s.", it.Name(), giver.Name()))
	giver.Send(fmt.Sprintf("%s accepts %s.", c.Name(), it.Name()))
	return true
}

func (d *Dispatcher) cmdDecline(c *world.Character, _ string) bool {
	offer := c.PendingGive
	if offer == nil {
		c.Send("Nothing has been offered to you.")
		return true
	}
	c.PendingGive = nil
	c.Send("You decline the offer.")
	if offer.From != nil {
		offer.From.Send(fmt.Sprintf("%s declines your offer.", c.Name()))
	}
	return true
}

func (d *Dispatcher) cmdLight(c *world.Character, args string) bool {
	it := c.FindAnywhere(args)
	if it == nil {
		c.Send("You don't have that.")
		return true
	}
	if it.Tmpl.Type != data.ItemLight {
		c.Send("That won't burn.")
		return true
	}
	if it.Stats.Lit {
		c.Send("It is already lit.")
		return true
	}
	it.Stats.Lit = true
	it.Dirty = true
	c.Send(fmt.Sprintf("You light %s.", it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s lights %s.", c.Name(), it.Name()), c)
	}
	return true
}

func (d *Dispatcher) cmdSnuff(c *world.Character, args string) bool {
	it := c.FindAnywhere(args)
	if it == nil {
		c.Send("You don't have that.")
		return true
	}
	if !it.Stats.Lit {
		c.Send("It isn't lit.")
		return true
	}
	it.Stats.Lit = false
	it.Dirty = true
	c.Send(fmt.Sprintf("You snuff %s.", it.Name()))
	return true
}

func (d *Dispatcher) cmdEat(c *world.Character, args string) bool {
	return d.consume(c, args, data.ItemFood, "eat")
}

func (d *Dispatcher) cmdDrink(c *world.Character, args string) bool {
	return d.consume(c, args, data.ItemDrink, "drink")
}

// consume eats or drinks a held consumable and applies its effect.
func (d *Dispatcher) consume(c *world.Character, args string, itemType, verb string) bool {
	if args == "" {
		c.Send(capitalize(verb) + " what?")
		return true
	}
	it := c.FindHeld(args)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	if it.Tmpl.Type != itemType {
		c.Send(fmt.Sprintf("You can't %s that.", verb))
		return true
	}
	switch it.Tmpl.Effect {
	case "heal_hp":
		c.HealHP(float64(it.Tmpl.Amount))
		c.Send("{GA warm vigor spreads through you.{x")
	case "restore_hunger":
		c.Hunger += it.Tmpl.Amount
		if c.Hunger > 100 {
			c.Hunger = 100
		}
		c.Dirty = true
	case "restore_thirst":
		c.Thirst += it.Tmpl.Amount
		if c.Thirst > 100 {
			c.Thirst = 100
		}
		c.Dirty = true
	}
	c.Send(fmt.Sprintf("You %s %s.", verb, it.Name()))
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s %ss %s.", c.Name(), verb, it.Name()), c)
	}
	c.Release(it)
	d.deps.State.DestroyItem(it)
	return true
}
