package combat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/world"
)

// ResolveAbility applies a spell or ability payload after the caster has
// paid its cost: attack resolution (with cleave, cone, and AoE scopes),
// healing, and effect application. The stealth prerequisite is the
// handler's gate; by the time this runs the act is committed.
func (e *Engine) ResolveAbility(caster world.Actor, ab *data.Ability, target world.Actor) {
	if target == nil {
		target = caster
	}
	if ab.MsgSelf != "" {
		caster.Send(ab.MsgSelf)
	}
	if ab.MsgRoom != "" && caster.Room() != nil {
		var exclude []*world.Character
		if c, ok := caster.(*world.Character); ok {
			exclude = append(exclude, c)
		}
		msg := ab.MsgRoom
		if strings.Contains(msg, "%s") {
			msg = fmt.Sprintf(msg, capitalize(caster.Name()))
		}
		caster.Room().Broadcast(msg, exclude...)
	}

	if ab.IsAttack() {
		e.abilityAttacks(caster, ab, target)
	}
	if ab.HealBase > 0 || ab.HealRand > 0 {
		e.abilityHeals(caster, ab, target)
	}
	if ab.Effect != nil {
		for _, t := range e.effectTargets(caster, ab, target) {
			e.eff.Apply(t, ab.Effect, casterID(caster), ab.Key, time.Now())
		}
	}
}

func (e *Engine) abilityAttacks(caster world.Actor, ab *data.Ability, primary world.Actor) {
	mods := Mods{
		Class:      abilityClass(ab),
		AlwaysHits: ab.AlwaysHits,
		HitBonus:   ab.HitBonus,
		Base:       ab.DamageBase,
		Rand:       ab.DamageRand,
		Bonus:      ab.DamageBonus,
		Mult:       ab.DamageMult,
		DamageType: ab.DamageType,
		Verb:       abilityVerb(ab),
		SourceKey:  ab.Key,
	}

	switch {
	case ab.AoE != "":
		for _, t := range e.aoeTargets(caster, ab.AoE, primary) {
			e.Attack(caster, t, mods)
		}
	case ab.Cone > 1:
		targets := append([]world.Actor{primary}, e.extraMobTargets(caster, primary, ab.Cone-1, false)...)
		for _, t := range targets {
			e.Attack(caster, t, mods)
		}
	default:
		res := e.Attack(caster, primary, mods)
		if ab.Cleave > 0 && res.Hit {
			for _, t := range e.extraMobTargets(caster, primary, ab.Cleave, true) {
				e.Attack(caster, t, mods)
			}
		}
	}
}

func (e *Engine) abilityHeals(caster world.Actor, ab *data.Ability, target world.Actor) {
	targets := []world.Actor{target}
	if ab.AoE == "allies" {
		targets = e.allyTargets(caster)
	}
	for _, t := range targets {
		amount := float64(ab.HealBase)
		if ab.HealRand > 0 {
			amount += float64(dice.Between(e.roller, 1, ab.HealRand))
		}
		t.HealHP(amount)
		if t == caster {
			caster.Send(fmt.Sprintf("{GWarmth knits your wounds closed. (+%d){x", int(amount)))
		} else {
			t.Send(fmt.Sprintf("{G%s's magic knits your wounds closed. (+%d){x", capitalize(caster.Name()), int(amount)))
		}
	}
}

// extraMobTargets returns up to n additional living, visible mobs in the
// caster's room. engagedOnly limits cleave to mobs already fighting the
// caster.
func (e *Engine) extraMobTargets(caster world.Actor, primary world.Actor, n int, engagedOnly bool) []world.Actor {
	room := caster.Room()
	if room == nil || n <= 0 {
		return nil
	}
	ids := make([]int64, 0, len(room.Mobs))
	for id := range room.Mobs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []world.Actor
	for _, id := range ids {
		m := room.Mobs[id]
		if m == primary || m.Dead || m.Hidden {
			continue
		}
		if engagedOnly && m.Target() != caster {
			continue
		}
		out = append(out, m)
		if len(out) == n {
			break
		}
	}
	return out
}

// aoeTargets expands an AoE scope within the caster's room.
func (e *Engine) aoeTargets(caster world.Actor, scope string, primary world.Actor) []world.Actor {
	room := caster.Room()
	if room == nil {
		return nil
	}
	var out []world.Actor
	if scope == "enemies" || scope == "all" {
		out = append(out, e.extraMobTargets(caster, nil, len(room.Mobs), false)...)
	}
	if scope == "allies" || scope == "all" {
		for _, t := range e.allyTargets(caster) {
			if t != caster {
				out = append(out, t)
			}
		}
	}
	return out
}

// allyTargets is the caster plus living groupmates in the room.
func (e *Engine) allyTargets(caster world.Actor) []world.Actor {
	out := []world.Actor{caster}
	c, ok := caster.(*world.Character)
	if !ok {
		return out
	}
	for _, member := range e.presentGroup(c) {
		if member != c {
			out = append(out, member)
		}
	}
	return out
}

// effectTargets: AoE "allies" buffs the group; everything else lands on
// the single target.
func (e *Engine) effectTargets(caster world.Actor, ab *data.Ability, target world.Actor) []world.Actor {
	if ab.AoE == "allies" {
		return e.allyTargets(caster)
	}
	return []world.Actor{target}
}

func abilityClass(ab *data.Ability) Class {
	if ab.Kind == "spell" {
		if ab.School == data.SchoolDivine {
			return Divine
		}
		return Arcane
	}
	return Melee
}

func abilityVerb(ab *data.Ability) string {
	if ab.Kind == "spell" {
		return "blast"
	}
	return strings.ToLower(ab.Name)
}

func casterID(caster world.Actor) int32 {
	if c, ok := caster.(*world.Character); ok {
		return c.ID
	}
	return 0
}
