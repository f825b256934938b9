package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// buyPrice is the shop's asking price after the bartering discount.
func buyPrice(tmpl *data.ItemTemplate, entry *world.ShopEntry, barterRank int) int64 {
	mod := entry.BuyMod
	if mod <= 0 {
		mod = 1.0
	}
	pct := 100 - rules.BarteringPercent(barterRank)
	price := int64(float64(tmpl.Value)*mod) * int64(pct) / 100
	if price < 1 {
		price = 1
	}
	return price
}

// sellPrice is what the shop pays, lifted by the bartering bonus.
func sellPrice(tmpl *data.ItemTemplate, mod float64, barterRank int) int64 {
	if mod <= 0 {
		mod = 0.25
	}
	pct := 100 + rules.BarteringPercent(barterRank)
	price := int64(float64(tmpl.Value)*mod) * int64(pct) / 100
	if price < 0 {
		price = 0
	}
	return price
}

func (d *Dispatcher) shopRoom(c *world.Character) *world.Room {
	room := c.InRoom
	if room == nil || !room.Flag(world.FlagShop) {
		c.Send("There is no shop here.")
		return nil
	}
	return room
}

func (d *Dispatcher) cmdList(c *world.Character, _ string) bool {
	room := d.shopRoom(c)
	if room == nil {
		return true
	}
	rank := c.SkillRank(data.SkillBartering)
	c.Send("{CThe shopkeeper offers:{x")
	for _, entry := range room.Shop {
		tmpl := d.deps.State.ItemTemplate(entry.TemplateID)
		if tmpl == nil {
			continue
		}
		stock := "in stock"
		switch {
		case entry.Stock == 0:
			stock = "sold out"
		case entry.Stock > 0:
			stock = fmt.Sprintf("%d left", entry.Stock)
		}
		c.Send(fmt.Sprintf("  %-25s %6d talons  (%s)", tmpl.Name, buyPrice(tmpl, entry, rank), stock))
	}
	return true
}

func (d *Dispatcher) cmdBuy(c *world.Character, args string) bool {
	room := d.shopRoom(c)
	if room == nil {
		return true
	}
	if args == "" {
		c.Send("Buy what?")
		return true
	}
	var entry *world.ShopEntry
	var tmpl *data.ItemTemplate
	for _, e := range room.Shop {
		t := d.deps.State.ItemTemplate(e.TemplateID)
		if t == nil {
			continue
		}
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(args)) {
			entry, tmpl = e, t
			break
		}
	}
	if entry == nil {
		c.Send("The shop doesn't carry that.")
		return true
	}
	if entry.Stock == 0 {
		c.Send("That is sold out.")
		return true
	}
	price := buyPrice(tmpl, entry, c.SkillRank(data.SkillBartering))
	if c.Coins < price {
		c.Send(fmt.Sprintf("You can't afford that. (%d talons)", price))
		return true
	}
	if c.HandsFree() <= 0 {
		c.Send("Your hands are full.")
		return true
	}

	// Finite stock is persisted before the in-memory sale goes through.
	if entry.Stock > 0 {
		ctx, cancel := d.deps.ctx()
		err := d.deps.World.UpdateShopStock(ctx, room.ID, entry.TemplateID, entry.Stock-1)
		cancel()
		if err != nil {
			d.deps.oops(c, "buy", err)
			return true
		}
		entry.Stock--
	}

	it := world.NewItem(d.deps.State.NextItemID(), tmpl)
	d.deps.State.RegisterItem(it)
	c.Coins -= price
	c.Dirty = true
	c.Hold(it)
	c.Send(fmt.Sprintf("You buy %s for %d talons.", it.Name(), price))
	room.Broadcast(fmt.Sprintf("%s buys %s.", c.Name(), it.Name()), c)
	return true
}

// shopBuys reports whether the shop's filter accepts the item. An empty
// filter means the shop buys anything with a value.
func shopBuys(room *world.Room, it *world.Item) bool {
	if it.Tmpl.Value <= 0 {
		return false
	}
	if len(room.BuyFilter) == 0 {
		return true
	}
	id := strconv.FormatInt(it.Tmpl.ID, 10)
	for _, f := range room.BuyFilter {
		if f == it.Tmpl.Type || f == id {
			return true
		}
	}
	return false
}

func (d *Dispatcher) cmdSell(c *world.Character, args string) bool {
	room := d.shopRoom(c)
	if room == nil {
		return true
	}
	if args == "" {
		c.Send("Sell what?")
		return true
	}
	it := c.FindHeld(args)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	if !shopBuys(room, it) {
		c.Send("The shopkeeper has no interest in that.")
		return true
	}
	mod := room.SellMod
	for _, e := range room.Shop {
		if e.TemplateID == it.Tmpl.ID && e.SellMod > 0 {
			mod = e.SellMod
			break
		}
	}
	price := sellPrice(it.Tmpl, mod, c.SkillRank(data.SkillBartering))
	c.Release(it)
	d.deps.State.DestroyItem(it)
	c.Coins += price
	c.Dirty = true
	c.Send(fmt.Sprintf("You sell %s for %d talons.", it.Name(), price))
	room.Broadcast(fmt.Sprintf("%s sells %s.", c.Name(), it.Name()), c)
	return true
}

// cmdRepair restores an item to full condition for 15% of its value.
func (d *Dispatcher) cmdRepair(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil || !room.Flag(world.FlagRepairer) {
		c.Send("There is no repairer here.")
		return true
	}
	if args == "" {
		c.Send("Repair what?")
		return true
	}
	it := c.FindHeld(args)
	if it == nil {
		_, it = c.FindEquipped(args)
	}
	if it == nil {
		c.Send("You don't have that.")
		return true
	}
	if it.Condition >= world.MaxCondition {
		c.Send("It is in perfect shape.")
		return true
	}
	fee := it.Tmpl.Value * 15 / 100
	if fee < 1 {
		fee = 1
	}
	if c.Coins < fee {
		c.Send(fmt.Sprintf("The repairer wants %d talons for that work.", fee))
		return true
	}
	c.Coins -= fee
	c.Dirty = true
	it.Condition = world.MaxCondition
	it.Dirty = true
	c.Send(fmt.Sprintf("The repairer restores %s for %d talons.", it.Name(), fee))
	return true
}
