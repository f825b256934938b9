// Package combat resolves discrete attack acts: hit check, parry and
// block, damage with mitigation, then defeat handling. All resolution
// runs on the game-loop goroutine against the shared world state.
package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// Class selects the attack rating and mitigation channel.
type Class int

const (
	Melee Class = iota
	Ranged
	Arcane
	Divine
)

// Physical reports whether the class mitigates through armor first.
func (c Class) Physical() bool { return c == Melee || c == Ranged }

// Mods is the attack payload. Zero Base+Rand on a melee act means "use
// the attacker's weapon" (unarmed 1/1d2 at speed 2.0 when bare-handed).
type Mods struct {
	Class      Class
	AlwaysHits bool
	HitBonus   int
	Base       int
	Rand       int
	Bonus      int     // flat bonus damage
	Mult       float64 // damage multiplier, 0 = ×1
	Speed      float64 // roundtime basis; 0 = weapon/unarmed speed
	DamageType string
	Verb       string // "slash", "bite", "firebolt"
	SourceKey  string
}

// Result summarizes one resolved act.
type Result struct {
	Hit     bool
	Crit    bool
	Fumble  bool
	Parried bool
	Blocked bool
	Damage  float64
	Killed  bool
}

// Durability wear chance per landed hit, each side rolled independently.
const wearChance = 0.10

// Engine resolves attacks and defeats against the world.
type Engine struct {
	state  *world.State
	eff    *effect.Engine
	bus    *event.Bus
	roller dice.Roller
	curve  rules.Curve
	log    *zap.Logger
}

func NewEngine(state *world.State, eff *effect.Engine, bus *event.Bus, roller dice.Roller, curve rules.Curve, log *zap.Logger) *Engine {
	return &Engine{
		state:  state,
		eff:    eff,
		bus:    bus,
		roller: roller,
		curve:  curve,
		log:    log.Named("combat"),
	}
}

// Attack resolves one act from attacker to defender. The three phases
// run in order; the first negation wins.
func (e *Engine) Attack(attacker, defender world.Actor, mods Mods) Result {
	var res Result
	room := attacker.Room()
	if room == nil || defender.Room() != room || !defender.Alive() {
		return res
	}

	weapon, base, rnd, speed := e.resolveWeapon(attacker, mods)
	verb := mods.Verb
	if verb == "" {
		verb = "attack"
	}

	engage(attacker, defender)
	wasHidden := attacker.IsHidden()
	attacker.SetHidden(false)

	// Phase A: hit check.
	rating := e.attackRating(attacker, weapon, mods.Class)
	if mods.AlwaysHits {
		res.Hit = true
	} else {
		roll := dice.D20(e.roller)
		switch {
		case roll == 1:
			res.Fumble = true
		case roll == 20:
			res.Hit = true
			res.Crit = true
		default:
			total := roll + rating + mods.HitBonus + visibilityMod(attacker, defender, wasHidden)
			res.Hit = total > defender.DodgeValue()
		}
	}
	if !res.Hit {
		e.announceMiss(attacker, defender, verb, res.Fumble)
		e.setAttackRoundtime(attacker, 1.0)
		return res
	}

	// Phase B: parry, then block. Only armed character defenders parry.
	if dc, ok := defender.(*world.Character); ok {
		if dc.Weapon() != nil &&
			dice.Chance(e.roller, rules.ParryChance(dc.SkillRank(data.SkillParrying))) {
			res.Hit = false
			res.Parried = true
			e.announceParry(attacker, defender, verb)
			e.setAttackRoundtime(attacker, 1.0)
			return res
		}
		if sh := dc.Shield(); sh != nil &&
			dice.Chance(e.roller, rules.BlockChance(sh.Tmpl.BlockChance, dc.SkillRank(data.SkillShieldUsage))) {
			res.Hit = false
			res.Blocked = true
			e.announceBlock(attacker, defender, verb)
			e.setAttackRoundtime(attacker, speed)
			return res
		}
	}

	// Phase C: damage. A crit turns the random component into an
	// exploding die of the same size.
	var random int
	if res.Crit && rnd >= 2 {
		random = dice.Explode(e.roller, rnd)
	} else {
		random = dice.Between(e.roller, 1, rnd)
	}
	pre := base + random + e.damageStatBonus(attacker, mods.Class) + mods.Bonus
	if mods.Mult > 0 {
		pre = int(float64(pre) * mods.Mult)
	}
	pre = int(float64(pre) * WeatherMult(room, mods.DamageType))

	dmg := e.mitigate(defender, pre, mods.Class, mods.DamageType)
	res.Damage = dmg

	defender.Damage(dmg)
	e.announceHit(attacker, defender, verb, res.Crit, dmg)
	e.postDamage(attacker, defender, weapon, dmg)
	e.setAttackRoundtime(attacker, speed)

	if defender.CurrentHP() <= 0 {
		res.Killed = true
		e.resolveDefeat(defender, attacker)
	}
	return res
}

// resolveWeapon picks the damage source for the act. Explicit Base/Rand
// in the payload (mob attacks, spells) wins over the wielded weapon.
func (e *Engine) resolveWeapon(attacker world.Actor, mods Mods) (weapon *world.Item, base, rnd int, speed float64) {
	base, rnd, speed = mods.Base, mods.Rand, mods.Speed
	if c, ok := attacker.(*world.Character); ok && mods.Class.Physical() {
		weapon = c.Weapon()
	}
	if base == 0 && rnd == 0 {
		if weapon != nil {
			base, rnd = weapon.Tmpl.DamageBase, weapon.Tmpl.DamageRandom
			if speed == 0 {
				speed = weapon.Tmpl.Speed
			}
		} else {
			// Unarmed.
			base, rnd = 1, 2
			if speed == 0 {
				speed = 2.0
			}
		}
	}
	if rnd < 1 {
		rnd = 1
	}
	if speed == 0 {
		speed = 2.0
	}
	return weapon, base, rnd, speed
}

// attackRating derives MAR/RAR/APR/DPR plus the weapon-skill bonus for
// character attackers.
func (e *Engine) attackRating(attacker world.Actor, weapon *world.Item, class Class) int {
	var rating int
	switch class {
	case Melee:
		rating = rules.MAR(attacker.Mod(world.StatMight), attacker.Mod(world.StatAgility))
	case Ranged:
		rating = rules.RAR(attacker.Mod(world.StatAgility), attacker.Mod(world.StatMight))
	case Arcane:
		rating = rules.APR(attacker.Mod(world.StatIntellect), attacker.Mod(world.StatAura))
	case Divine:
		rating = rules.DPR(attacker.Mod(world.StatAura), attacker.Mod(world.StatPersona))
	}
	if attacker.IsCharacter() && class.Physical() {
		skill := data.SkillMartialArts
		if weapon != nil && weapon.Tmpl.WeaponSkill != "" {
			skill = weapon.Tmpl.WeaponSkill
		}
		rating += rules.WeaponSkillBonus(attacker.SkillRank(skill))
	}
	return rating
}

// damageStatBonus is the stat modifier added to pre-mitigation damage.
func (e *Engine) damageStatBonus(attacker world.Actor, class Class) int {
	switch class {
	case Melee:
		return attacker.Mod(world.StatMight)
	case Ranged:
		return attacker.Mod(world.StatAgility)
	case Arcane:
		return rules.SpellPowerBonus(rules.APR(attacker.Mod(world.StatIntellect), attacker.Mod(world.StatAura)))
	case Divine:
		return rules.SpellPowerBonus(rules.DPR(attacker.Mod(world.StatAura), attacker.Mod(world.StatPersona)))
	}
	return 0
}

// mitigate applies flat defense, the armor/barrier max rule, then the
// multiplicative resistance. Never negative.
func (e *Engine) mitigate(defender world.Actor, pre int, class Class, damageType string) float64 {
	av := defender.ArmorValue()
	bv := defender.BarrierValue()
	var flat, layered int
	if class.Physical() {
		flat = defender.Mod(world.StatVitality) // pds
		layered = max(av, bv/2)
	} else {
		flat = defender.Mod(world.StatAura) // sds
		layered = max(bv, av/2)
	}
	dmg := float64(pre-flat-layered) * (1 - defender.Resistance(damageType))
	if dmg < 0 {
		dmg = 0
	}
	return dmg
}

// EnvironmentalDamage applies non-attack damage (traps, hazards) through
// the magical mitigation path: sds flat reduction, max(BV, AV/2), then
// resistance. Handles defeat with no killer attribution. Returns the
// damage dealt after mitigation.
func (e *Engine) EnvironmentalDamage(victim world.Actor, pre int, damageType string) float64 {
	dmg := e.mitigate(victim, pre, Arcane, damageType)
	if dmg > 0 {
		victim.Damage(dmg)
		if victim.CurrentHP() <= 0 {
			e.resolveDefeat(victim, nil)
		}
	}
	return dmg
}

// postDamage handles cast disruption, meditation break, and durability.
func (e *Engine) postDamage(attacker, defender world.Actor, weapon *world.Item, dmg float64) {
	if dmg <= 0 {
		return
	}
	if dc, ok := defender.(*world.Character); ok {
		if dc.Casting != nil {
			need := int(dmg / 2)
			if need < 10 {
				need = 10
			}
			roll := dice.D20(e.roller) + dc.SkillRank(data.SkillSpellcraft) + dc.Mod(world.StatIntellect)
			if roll < need {
				dc.Casting = nil
				dc.SetRoundtime(0)
				dc.Send("{RThe blow shatters your concentration!{x")
			}
		}
		if dc.Status == world.StatusMeditating {
			dc.Status = world.StatusAlive
			dc.Send("Your meditation is broken!")
		}
	}

	// Durability, each side independent.
	if ac, ok := attacker.(*world.Character); ok && weapon != nil && dice.Chance(e.roller, wearChance) {
		if weapon.Wear(1) {
			ac.Send(fmt.Sprintf("{R%s shatters in your hands!{x", capitalize(weapon.Name())))
			if slot, _ := ac.FindEquipped(weapon.Tmpl.Name); slot != "" {
				ac.Unequip(slot)
			} else {
				ac.Release(weapon)
			}
			e.state.DestroyItem(weapon)
		}
	}
	if dc, ok := defender.(*world.Character); ok && dice.Chance(e.roller, wearChance) {
		if piece := e.randomArmorPiece(dc); piece != nil {
			if piece.Wear(1) {
				dc.Send(fmt.Sprintf("{R%s falls apart!{x", capitalize(piece.Name())))
				if slot, _ := dc.FindEquipped(piece.Tmpl.Name); slot != "" {
					dc.Unequip(slot)
				}
				e.state.DestroyItem(piece)
			}
		}
	}
}

func (e *Engine) randomArmorPiece(c *world.Character) *world.Item {
	var pieces []*world.Item
	for _, slot := range world.SlotOrder {
		it := c.Equipment[slot]
		if it != nil && it.Tmpl.ArmorValue > 0 && it.Tmpl.Type == data.ItemArmor {
			pieces = append(pieces, it)
		}
	}
	if len(pieces) == 0 {
		return nil
	}
	return pieces[dice.Between(e.roller, 0, len(pieces)-1)]
}

// setAttackRoundtime sets (never adds) the attacker's recovery:
// base + armor penalty + slow effects.
func (e *Engine) setAttackRoundtime(attacker world.Actor, base float64) {
	rt := base + float64(attacker.ArmorValue())*0.05
	switch a := attacker.(type) {
	case *world.Character:
		rt += a.SlowPenalty()
	case *world.Mob:
		rt += a.SlowPenalty()
	}
	attacker.SetRoundtime(rt)
}

// engage flags both sides as fighting; the defender retaliates against
// its first attacker.
func engage(attacker, defender world.Actor) {
	attacker.SetFighting(true)
	if attacker.Target() == nil {
		attacker.SetTarget(defender)
	}
	defender.SetFighting(true)
	if defender.Target() == nil {
		defender.SetTarget(attacker)
	}
}

// visibilityMod covers fighting in the dark and striking from hiding.
func visibilityMod(attacker, defender world.Actor, wasHidden bool) int {
	if wasHidden {
		return 4
	}
	room := attacker.Room()
	if room != nil && room.Flag(world.FlagDark) {
		if c, ok := attacker.(*world.Character); ok && !hasLitLight(c) {
			return -4
		}
	}
	return 0
}

func hasLitLight(c *world.Character) bool {
	if it := c.Equipment[world.SlotLight]; it != nil && it.Stats.Lit {
		return true
	}
	for _, it := range c.Inventory {
		if it.Tmpl.Type == data.ItemLight && it.Stats.Lit {
			return true
		}
	}
	return false
}
