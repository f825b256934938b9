package combat

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/talonmoor/server/internal/world"
)

func (e *Engine) announceMiss(attacker, defender world.Actor, verb string, fumble bool) {
	v3 := thirdPerson(verb)
	if fumble {
		attacker.Send(fmt.Sprintf("{yYou %s wildly at %s and stumble!{x", verb, defender.Name()))
		defender.Send(fmt.Sprintf("{g%s %s wildly at you and stumbles!{x", capitalize(attacker.Name()), v3))
	} else {
		attacker.Send(fmt.Sprintf("{yYou %s at %s and miss.{x", verb, defender.Name()))
		defender.Send(fmt.Sprintf("{g%s %s at you and misses.{x", capitalize(attacker.Name()), v3))
	}
	e.broadcastAct(attacker, defender,
		fmt.Sprintf("%s %s at %s and misses.", capitalize(attacker.Name()), v3, defender.Name()))
}

func (e *Engine) announceParry(attacker, defender world.Actor, verb string) {
	attacker.Send(fmt.Sprintf("{y%s parries your %s!{x", capitalize(defender.Name()), verb))
	defender.Send(fmt.Sprintf("{GYou parry %s's %s!{x", attacker.Name(), verb))
	e.broadcastAct(attacker, defender,
		fmt.Sprintf("%s parries %s's %s.", capitalize(defender.Name()), attacker.Name(), verb))
}

func (e *Engine) announceBlock(attacker, defender world.Actor, verb string) {
	attacker.Send(fmt.Sprintf("{y%s blocks your %s with a shield!{x", capitalize(defender.Name()), verb))
	defender.Send(fmt.Sprintf("{GYou block %s's %s with your shield!{x", attacker.Name(), verb))
	e.broadcastAct(attacker, defender,
		fmt.Sprintf("%s blocks %s's %s.", capitalize(defender.Name()), attacker.Name(), verb))
}

func (e *Engine) announceHit(attacker, defender world.Actor, verb string, crit bool, dmg float64) {
	v3 := thirdPerson(verb)
	n := int(dmg)
	if crit {
		attacker.Send(fmt.Sprintf("{RCritical!{x {yYou %s %s for %d damage!{x", verb, defender.Name(), n))
		defender.Send(fmt.Sprintf("{R%s %s you critically for %d damage!{x", capitalize(attacker.Name()), v3, n))
	} else {
		attacker.Send(fmt.Sprintf("{yYou %s %s for %d damage.{x", verb, defender.Name(), n))
		defender.Send(fmt.Sprintf("{r%s %s you for %d damage!{x", capitalize(attacker.Name()), v3, n))
	}
	e.broadcastAct(attacker, defender,
		fmt.Sprintf("%s %s %s.", capitalize(attacker.Name()), v3, defender.Name()))
}

// broadcastAct tells the room minus the two participants.
func (e *Engine) broadcastAct(attacker, defender world.Actor, msg string) {
	room := attacker.Room()
	if room == nil {
		return
	}
	var exclude []*world.Character
	if c, ok := attacker.(*world.Character); ok {
		exclude = append(exclude, c)
	}
	if c, ok := defender.(*world.Character); ok {
		exclude = append(exclude, c)
	}
	room.Broadcast(msg, exclude...)
}

// thirdPerson conjugates an attack verb for room messages.
func thirdPerson(verb string) string {
	switch {
	case strings.HasSuffix(verb, "s"), strings.HasSuffix(verb, "sh"),
		strings.HasSuffix(verb, "ch"), strings.HasSuffix(verb, "x"):
		return verb + "es"
	default:
		return verb + "s"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
