// Package effect applies, reverts, and expires the named modifiers that
// abilities, consumables, and traps place on characters and mobs.
package effect

import (
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

// Engine owns the effect lifecycle. Effects stack by name: reapplying a
// name reverts the old entry and installs the new one, so "Rage" twice
// refreshes instead of doubling. Expiration reverts exactly what was
// stored at entry, never what the template currently says.
type Engine struct {
	bus *event.Bus
	log *zap.Logger
}

func NewEngine(bus *event.Bus, log *zap.Logger) *Engine {
	return &Engine{bus: bus, log: log.Named("effect")}
}

// Apply installs a spec on a target. Compound specs (Sub) are applied
// atomically under the same source key. Instant hp-channel amounts apply
// immediately and leave no entry.
func (e *Engine) Apply(target world.Actor, spec *data.EffectSpec, casterID int32, sourceKey string, now time.Time) {
	e.applyOne(target, spec, casterID, sourceKey, now)
	for i := range spec.Sub {
		e.applyOne(target, &spec.Sub[i], casterID, sourceKey, now)
	}
}

func (e *Engine) applyOne(target world.Actor, spec *data.EffectSpec, casterID int32, sourceKey string, now time.Time) {
	// Instant vitals are not tracked effects.
	if spec.Channel == world.ChannelHP && !isDoT(spec.Kind) {
		if spec.Amount >= 0 {
			target.HealHP(float64(spec.Amount))
		} else {
			target.Damage(float64(-spec.Amount))
		}
		if spec.MsgApply != "" {
			target.Send(spec.MsgApply)
		}
		return
	}

	effects := target.EffectsMap()

	// One shape at a time: a new shapechange displaces the old one.
	if spec.Kind == world.EffectShapechange {
		for name, old := range effects {
			if old.Kind == world.EffectShapechange {
				e.expire(target, old, now, true)
				delete(effects, name)
			}
		}
	}

	// Same name refreshes: revert the old entry before installing.
	if old, ok := effects[spec.Name]; ok {
		e.revert(target, old)
		delete(effects, spec.Name)
	}

	eff := &world.Effect{
		Name:      spec.Name,
		Kind:      spec.Kind,
		Channel:   spec.Channel,
		Amount:    spec.Amount,
		Potency:   spec.Potency,
		AppliedAt: now,
		SourceKey: sourceKey,
		CasterID:  casterID,
		MsgExpire: spec.MsgExpire,
	}
	if spec.Duration >= 0 {
		eff.EndsAt = now.Add(time.Duration(spec.Duration * float64(time.Second)))
	}
	effects[spec.Name] = eff

	// Entry-time side effects.
	switch {
	case spec.Channel == world.ChannelMaxHP:
		target.AdjustMaxHP(float64(spec.Amount))
	case spec.Kind == world.EffectStun:
		// Stuns stack additively onto whatever roundtime is pending.
		target.AddRoundtime(spec.Potency)
	}
	if spec.SetStance != "" {
		if c, ok := target.(*world.Character); ok {
			c.Stance = world.Stance(spec.SetStance)
		}
	}
	if spec.MsgApply != "" {
		target.Send(spec.MsgApply)
	}
	e.log.Debug("effect applied",
		zap.String("target", target.Name()),
		zap.String("effect", spec.Name),
		zap.String("kind", spec.Kind))
}

// revert undoes an entry's stored side effects.
func (e *Engine) revert(target world.Actor, eff *world.Effect) {
	if eff.Channel == world.ChannelMaxHP {
		target.AdjustMaxHP(float64(-eff.Amount))
	}
	// Stat-channel amounts revert implicitly: derived attributes sum only
	// live entries, so removal is the reversion.
}

func (e *Engine) expire(target world.Actor, eff *world.Effect, now time.Time, silent bool) {
	e.revert(target, eff)
	if !silent && eff.MsgExpire != "" {
		target.Send(eff.MsgExpire)
	}
	event.Emit(e.bus, event.EffectExpired{Owner: target, Name: eff.Name})
}

// Remove force-expires a named effect (dispel, shapechange release).
// Reports whether the effect was present.
func (e *Engine) Remove(target world.Actor, name string, now time.Time) bool {
	effects := target.EffectsMap()
	eff, ok := effects[name]
	if !ok {
		return false
	}
	e.expire(target, eff, now, false)
	delete(effects, name)
	return true
}

// ExpireDue reverts and removes every effect whose time has run out,
// delivering expire messages. ends_at never moves once set, so an
// effect expires exactly once.
func (e *Engine) ExpireDue(target world.Actor, now time.Time) {
	effects := target.EffectsMap()
	for name, eff := range effects {
		if eff.Expired(now) {
			e.expire(target, eff, now, false)
			delete(effects, name)
		}
	}
}

// DoTs returns the live damage-over-time effects on a target. The caller
// applies the damage so kills route through the combat outcome path.
func DoTs(target world.Actor, now time.Time) []*world.Effect {
	var out []*world.Effect
	for _, eff := range target.EffectsMap() {
		if eff.IsDoT() && !eff.Expired(now) {
			out = append(out, eff)
		}
	}
	return out
}

func isDoT(kind string) bool {
	return kind == world.EffectBleed || kind == world.EffectPoison
}
