package handler

import (
	"strings"

	"github.com/talonmoor/server/internal/world"
)

// Handler executes one verb. The return reports whether the session
// stays alive.
type Handler func(c *world.Character, args string) bool

// Dispatcher routes playing-state lines to verb handlers.
type Dispatcher struct {
	deps     *Deps
	handlers map[string]Handler
	aliases  map[string]string
}

// Verbs a meditating character may use without breaking meditation.
var meditateAllowed = map[string]bool{
	"look": true, "score": true, "skills": true,
	"quit": true, "help": true, "who": true, "tell": true,
}

func NewDispatcher(deps *Deps) *Dispatcher {
	if deps.GroupInvites == nil {
		deps.GroupInvites = make(map[int32]int64)
	}
	d := &Dispatcher{
		deps:     deps,
		handlers: make(map[string]Handler),
		aliases: map[string]string{
			"'":    "say",
			":":    "emote",
			"l":    "look",
			"i":    "inventory",
			"inv":  "inventory",
			"eq":   "equipment",
			"k":    "kill",
			"att":  "attack",
			"exa":  "examine",
			"take": "get",
			"med":  "meditate",
			"sc":   "score",
			"rm":   "remove",
		},
	}
	d.register()
	return d
}

func (d *Dispatcher) register() {
	d.handlers["look"] = d.cmdLook
	d.handlers["examine"] = d.cmdExamine
	d.handlers["quit"] = d.cmdQuit
	d.handlers["help"] = d.cmdHelp
	d.handlers["who"] = d.cmdWho
	d.handlers["score"] = d.cmdScore
	d.handlers["skills"] = d.cmdSkills
	d.handlers["spells"] = d.cmdSpells
	d.handlers["abilities"] = d.cmdAbilities
	d.handlers["inventory"] = d.cmdInventory
	d.handlers["equipment"] = d.cmdEquipment

	d.handlers["say"] = d.cmdSay
	d.handlers["tell"] = d.cmdTell
	d.handlers["emote"] = d.cmdEmote

	d.handlers["get"] = d.cmdGet
	d.handlers["drop"] = d.cmdDrop
	d.handlers["put"] = d.cmdPut
	d.handlers["wear"] = d.cmdWear
	d.handlers["wield"] = d.cmdWear
	d.handlers["remove"] = d.cmdRemove
	d.handlers["give"] = d.cmdGive
	d.handlers["accept"] = d.cmdAccept
	d.handlers["decline"] = d.cmdDecline
	d.handlers["open"] = d.cmdOpen
	d.handlers["close"] = d.cmdClose
	d.handlers["lock"] = d.cmdLock
	d.handlers["unlock"] = d.cmdUnlock
	d.handlers["light"] = d.cmdLight
	d.handlers["snuff"] = d.cmdSnuff

	d.handlers["eat"] = d.cmdEat
	d.handlers["drink"] = d.cmdDrink
	d.handlers["quaff"] = d.cmdDrink

	d.handlers["attack"] = d.cmdAttack
	d.handlers["kill"] = d.cmdAttack
	d.handlers["cast"] = d.cmdCast
	d.handlers["use"] = d.cmdUse
	d.handlers["hide"] = d.cmdHide
	d.handlers["sneak"] = d.cmdSneak
	d.handlers["search"] = d.cmdSearch
	d.handlers["disarm"] = d.cmdDisarm
	d.handlers["meditate"] = d.cmdMeditate
	d.handlers["stand"] = d.cmdStand
	d.handlers["sit"] = d.cmdSit
	d.handlers["lie"] = d.cmdLie
	d.handlers["release"] = d.cmdRelease

	d.handlers["list"] = d.cmdList
	d.handlers["buy"] = d.cmdBuy
	d.handlers["sell"] = d.cmdSell
	d.handlers["repair"] = d.cmdRepair
	d.handlers["balance"] = d.cmdBalance
	d.handlers["deposit"] = d.cmdDeposit
	d.handlers["withdraw"] = d.cmdWithdraw

	d.handlers["group"] = d.cmdGroup
	d.handlers["train"] = d.cmdTrain

	d.handlers["@goto"] = d.cmdAdminGoto
	d.handlers["@spawn"] = d.cmdAdminSpawn
	d.handlers["@create"] = d.cmdAdminCreate
	d.handlers["@set"] = d.cmdAdminSet
	d.handlers["@weather"] = d.cmdAdminWeather
	d.handlers["@shutdown"] = d.cmdAdminShutdown

	// Every direction token routes to the one move handler.
	move := func(dir string) Handler {
		return func(c *world.Character, _ string) bool {
			d.move(c, dir)
			return true
		}
	}
	for _, dir := range world.Directions {
		d.handlers[dir] = move(dir)
	}
	for short, dir := range map[string]string{
		"n": "north", "s": "south", "e": "east", "w": "west",
		"u": "up", "d": "down",
		"ne": "northeast", "nw": "northwest",
		"se": "southeast", "sw": "southwest",
	} {
		d.handlers[short] = move(dir)
	}
	d.handlers["go"] = func(c *world.Character, args string) bool {
		d.move(c, strings.ToLower(strings.TrimSpace(args)))
		return true
	}
}

// parse splits a line into (verb, args). Punctuation aliases need no
// separating space.
func parse(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	if strings.HasPrefix(line, "'") || strings.HasPrefix(line, ":") {
		return line[:1], strings.TrimSpace(line[1:])
	}
	verb, args, _ := strings.Cut(line, " ")
	return strings.ToLower(verb), strings.TrimSpace(args)
}

// Dispatch runs one playing-state line through the gates and into its
// handler. Returns whether the session stays alive.
func (d *Dispatcher) Dispatch(c *world.Character, line string) bool {
	verb, args := parse(line)
	if verb == "" {
		return true
	}
	if full, ok := d.aliases[verb]; ok {
		verb = full
	}

	isAdminVerb := strings.HasPrefix(verb, "@")

	// Gates, in order.
	switch c.Status {
	case world.StatusDying:
		if verb != "quit" {
			c.Send("{RYou are mortally wounded and can only await your fate... or 'quit'.{x")
			return true
		}
	case world.StatusDead:
		if verb != "quit" && verb != "release" {
			c.Send("{DYou are dead. 'release' your spirit, or 'quit'.{x")
			return true
		}
	case world.StatusMeditating:
		if !meditateAllowed[verb] {
			c.Status = world.StatusAlive
			c.Send("You rise out of your meditative trance.")
		}
	}

	if c.Roundtime > 0 && !(isAdminVerb && c.Admin) {
		c.Send("{yYou are still recovering from your last action.{x")
		return true
	}

	// Admin verbs look like unknown verbs to everyone else.
	if isAdminVerb && !c.Admin {
		c.Send("Huh? (Try 'help' for a list of commands.)")
		return true
	}

	h, ok := d.handlers[verb]
	if !ok {
		c.Send("Huh? (Try 'help' for a list of commands.)")
		return true
	}
	d.deps.Metrics.Command(verb)
	return h(c, args)
}
