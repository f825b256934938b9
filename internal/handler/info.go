package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

func (d *Dispatcher) cmdQuit(c *world.Character, _ string) bool {
	c.Send("Farewell. The world will remember you.")
	return false
}

func (d *Dispatcher) cmdHelp(c *world.Character, args string) bool {
	help := d.deps.State.Catalog.Help
	if args == "" {
		c.Send("{CHelp topics:{x")
		c.Send("  " + strings.Join(help.Names(), ", "))
		c.Send("Use 'help <topic>' for details.")
		return true
	}
	topic := help.Lookup(args)
	if topic == nil {
		c.Send("No help on that topic.")
		return true
	}
	c.Send(fmt.Sprintf("{C%s{x", topic.Name))
	for _, line := range strings.Split(strings.TrimRight(topic.Text, "\n"), "\n") {
		c.Send(line)
	}
	return true
}

func (d *Dispatcher) cmdWho(c *world.Character, _ string) bool {
	online := d.deps.State.OnlineChars()
	c.Send(fmt.Sprintf("{C%d adventurer(s) walk the world:{x", len(online)))
	for _, other := range online {
		line := fmt.Sprintf("  %-25s Level %d %s %s",
			other.Name(), other.Level, other.Race.Name, other.Class.Name)
		if other.Admin {
			line += " {Y[staff]{x"
		}
		c.Send(line)
	}
	return true
}

func (d *Dispatcher) cmdScore(c *world.Character, _ string) bool {
	c.Send(fmt.Sprintf("{C%s, %s %s %s{x", c.Name(), c.Sex, c.Race.Name, c.Class.Name))
	c.Send(fmt.Sprintf("Level %d   XP %d (pool %d/%d)",
		c.Level, c.XPTotal, c.XPPool, rules.PoolCap(c.EffStat(world.StatIntellect))))
	c.Send(fmt.Sprintf("HP %d/%d   Essence %d/%d",
		int(c.HP), int(c.MaxHP), int(c.Essence), int(c.MaxEssence)))
	for _, stat := range world.StatNames {
		c.Send(fmt.Sprintf("  %-10s %3d (%+d)", stat, c.EffStat(stat), c.Mod(stat)))
	}
	c.Send(fmt.Sprintf("AV %d   DV %d   BV %d", c.ArmorValue(), c.DodgeValue(), c.BarrierValue()))
	c.Send(fmt.Sprintf("Coins %d   Hunger %d%%   Thirst %d%%", c.Coins, c.Hunger, c.Thirst))
	c.Send(fmt.Sprintf("Tether %d   Skill points %d   Attribute points %d",
		c.Tether, c.SkillPoints, c.AttrPoints))
	played := time.Duration(c.Playtime)*time.Second + time.Since(c.LoginAt)
	c.Send(fmt.Sprintf("Time played: %s", played.Round(time.Minute)))
	if len(c.Effects) > 0 {
		var names []string
		for name := range c.Effects {
			names = append(names, name)
		}
		sort.Strings(names)
		c.Send("Active effects: " + strings.Join(names, ", "))
	}
	return true
}

func (d *Dispatcher) cmdSkills(c *world.Character, _ string) bool {
	if len(c.Skills) == 0 {
		c.Send("You have trained no skills.")
		return true
	}
	names := make([]string, 0, len(c.Skills))
	for name := range c.Skills {
		names = append(names, name)
	}
	sort.Strings(names)
	c.Send("{CYour skills:{x")
	for _, name := range names {
		c.Send(fmt.Sprintf("  %-15s rank %d", name, c.Skills[name]))
	}
	c.Send(fmt.Sprintf("Skill points available: %d", c.SkillPoints))
	return true
}

func (d *Dispatcher) cmdSpells(c *world.Character, _ string) bool {
	d.listKnown(c, c.Spells, "spells", "You know no spells.")
	return true
}

func (d *Dispatcher) cmdAbilities(c *world.Character, _ string) bool {
	d.listKnown(c, c.Abilities, "abilities", "You know no special abilities.")
	return true
}

func (d *Dispatcher) listKnown(c *world.Character, known map[string]bool, label, none string) {
	var names []string
	for key, ok := range known {
		if !ok {
			continue
		}
		if ab := d.deps.State.Catalog.Abilities.Get(key); ab != nil {
			names = append(names, fmt.Sprintf("%s (%d essence)", ab.Name, int(ab.EssenceCost)))
		} else {
			names = append(names, key)
		}
	}
	if len(names) == 0 {
		c.Send(none)
		return
	}
	sort.Strings(names)
	c.Send(fmt.Sprintf("{CYour %s:{x", label))
	for _, n := range names {
		c.Send("  " + n)
	}
}

func (d *Dispatcher) cmdInventory(c *world.Character, _ string) bool {
	if len(c.Inventory) == 0 {
		c.Send("Your hands are empty.")
	} else {
		c.Send("You are holding:")
		for _, it := range c.Inventory {
			c.Send("  " + it.Name())
		}
	}
	c.Send(fmt.Sprintf("You carry %d talons.", c.Coins))
	return true
}

func (d *Dispatcher) cmdEquipment(c *world.Character, _ string) bool {
	empty := true
	c.Send("You are wearing:")
	for _, slot := range world.SlotOrder {
		it := c.Equipment[slot]
		if it == nil {
			continue
		}
		if slot == world.SlotOffHand && it == c.Equipment[world.SlotMainHand] {
			continue
		}
		empty = false
		c.Send(fmt.Sprintf("  %-10s %s", strings.ReplaceAll(slot, "_", " "), it.Name()))
	}
	if empty {
		c.Send("  nothing at all.")
	}
	return true
}

var trainableSkills = []string{
	data.SkillMartialArts, data.SkillSmallBlades, data.SkillLargeBlades,
	data.SkillBluntWeapon, data.SkillPolearms, data.SkillArchery,
	data.SkillParrying, data.SkillShieldUsage, data.SkillSpellcraft,
	data.SkillBartering, data.SkillPerception, data.SkillStealth,
	data.SkillLockpicking, data.SkillDisarmTraps, data.SkillClimbing,
	data.SkillSwimming, data.SkillFirstAid,
}

// cmdTrain spends a skill point on a skill or an attribute point on one
// of the six base stats.
func (d *Dispatcher) cmdTrain(c *world.Character, args string) bool {
	args = strings.ToLower(strings.TrimSpace(args))
	if args == "" {
		c.Send("Train which skill or attribute?")
		c.Send(fmt.Sprintf("Skill points: %d   Attribute points: %d", c.SkillPoints, c.AttrPoints))
		return true
	}

	if world.IsBaseStat(args) {
		if c.AttrPoints <= 0 {
			c.Send("You have no attribute points to spend.")
			return true
		}
		c.AttrPoints--
		c.Base.Set(args, c.Base.Get(args)+1)
		c.Dirty = true
		c.Send(fmt.Sprintf("{GYour %s rises to %d.{x", args, c.Base.Get(args)))
		return true
	}

	var skill string
	for _, s := range trainableSkills {
		if s == args || strings.HasPrefix(s, args) {
			skill = s
			break
		}
	}
	if skill == "" {
		c.Send("You can't train that.")
		return true
	}
	if c.SkillPoints <= 0 {
		c.Send("You have no skill points to spend.")
		return true
	}
	c.SkillPoints--
	c.Skills[skill]++
	c.Dirty = true
	c.Send(fmt.Sprintf("{GYour %s rank rises to %d.{x", skill, c.Skills[skill]))
	return true
}
