package handler

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/world"
)

func (d *Dispatcher) cmdAdminGoto(c *world.Character, args string) bool {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 32)
	if err != nil {
		c.Send("Usage: @goto <room id>")
		return true
	}
	dest := d.deps.State.Room(int32(id))
	if dest == nil {
		c.Send("No such room.")
		return true
	}
	if c.InRoom != nil {
		c.InRoom.Broadcast(fmt.Sprintf("%s vanishes in a swirl of mist.", c.Name()), c)
		c.InRoom.RemoveChar(c)
	}
	dest.AddChar(c)
	c.Dirty = true
	dest.Broadcast(fmt.Sprintf("%s appears in a swirl of mist.", c.Name()), c)
	sendLook(c, dest)
	return true
}

func (d *Dispatcher) cmdAdminSpawn(c *world.Character, args string) bool {
	room := c.InRoom
	if room == nil {
		return true
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 32)
	if err != nil {
		c.Send("Usage: @spawn <mob template id>")
		return true
	}
	tmpl := d.deps.State.Catalog.Mobs.Get(int32(id))
	if tmpl == nil {
		c.Send("No such mob template.")
		return true
	}
	m := world.SpawnMob(d.deps.State.NextMobID(), tmpl, room.ID, d.deps.Roller)
	d.deps.State.RegisterMob(m)
	room.AddMob(m)
	d.deps.Log.Info("admin spawned mob",
		zap.String("admin", c.Name()), zap.Int32("template", tmpl.ID), zap.Int32("room", room.ID))
	room.Broadcast(fmt.Sprintf("{Y%s blinks into existence.{x", capitalize(m.Name())))
	return true
}

func (d *Dispatcher) cmdAdminCreate(c *world.Character, args string) bool {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		c.Send("Usage: @create <item template id>")
		return true
	}
	tmpl := d.deps.State.ItemTemplate(id)
	if tmpl == nil {
		c.Send("No such item template.")
		return true
	}
	it := world.NewItem(d.deps.State.NextItemID(), tmpl)
	d.deps.State.RegisterItem(it)
	if c.Hold(it) {
		c.Send(fmt.Sprintf("You conjure %s into your hands.", it.Name()))
	} else if c.InRoom != nil {
		c.InRoom.AddItem(it)
		c.Send(fmt.Sprintf("You conjure %s onto the ground.", it.Name()))
	}
	d.deps.Log.Info("admin created item",
		zap.String("admin", c.Name()), zap.Int64("template", tmpl.ID))
	return true
}

// cmdAdminSet pokes a numeric field on an online character:
// @set <name> <hp|essence|level|coins|xp|skillpoints|attrpoints|<stat>> <value>
func (d *Dispatcher) cmdAdminSet(c *world.Character, args string) bool {
	parts := strings.Fields(args)
	if len(parts) != 3 {
		c.Send("Usage: @set <name> <field> <value>")
		return true
	}
	target := d.deps.State.CharByName(parts[0])
	if target == nil {
		c.Send("They aren't online.")
		return true
	}
	field := strings.ToLower(parts[1])
	v, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		c.Send("The value must be a number.")
		return true
	}

	switch {
	case field == "hp":
		target.HP = float64(v)
		target.ClampVitals()
	case field == "essence":
		target.Essence = float64(v)
		target.ClampVitals()
	case field == "level":
		target.Level = int(v)
	case field == "coins":
		target.Coins = v
	case field == "xp":
		target.XPTotal = v
	case field == "skillpoints":
		target.SkillPoints = int(v)
	case field == "attrpoints":
		target.AttrPoints = int(v)
	case world.IsBaseStat(field):
		target.Base.Set(field, int(v))
	default:
		c.Send("Unknown field.")
		return true
	}
	target.Dirty = true
	d.deps.Log.Info("admin set field",
		zap.String("admin", c.Name()), zap.String("target", target.Name()),
		zap.String("field", field), zap.Int64("value", v))
	c.Send(fmt.Sprintf("Set %s's %s to %d.", target.Name(), field, v))
	return true
}

func (d *Dispatcher) cmdAdminWeather(c *world.Character, args string) bool {
	flag := strings.ToUpper(strings.TrimSpace(args))
	if flag == "" || flag == "CLEAR" {
		d.deps.State.SetWeather("")
		c.Send("You still the skies.")
		return true
	}
	valid := false
	for _, f := range world.WeatherFlags {
		if f == flag {
			valid = true
			break
		}
	}
	if !valid {
		c.Send(fmt.Sprintf("Weather is one of: %s, or clear.",
			strings.ToLower(strings.Join(world.WeatherFlags, ", "))))
		return true
	}
	d.deps.State.SetWeather(flag)
	c.Send(fmt.Sprintf("You call down a change in the weather: %s.", strings.ToLower(flag)))
	return true
}

func (d *Dispatcher) cmdAdminShutdown(c *world.Character, args string) bool {
	notice := strings.TrimSpace(args)
	if notice == "" {
		notice = "The world is being put to rest. You will be saved."
	}
	d.deps.Log.Warn("admin requested shutdown", zap.String("admin", c.Name()))
	if d.deps.Shutdown != nil {
		d.deps.Shutdown(notice)
	}
	return true
}
