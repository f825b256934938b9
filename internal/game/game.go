// Package game holds the tick systems: the per-phase callbacks the
// runner executes each world tick. Every system runs on the game-loop
// goroutine; none of them take locks on world state.
package game

import (
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
)

// RegisterSystems wires every tick system into the runner and attaches
// the event-bus subscribers. Call once at boot, before the first tick.
func RegisterSystems(r *system.Runner, deps *handler.Deps, dispatcher *handler.Dispatcher) {
	subscribe(deps)

	reg := func(s system.System) {
		r.Register(&guarded{inner: s, log: deps.Log})
	}
	reg(&inputSystem{deps: deps, dispatcher: dispatcher})
	reg(&eventSystem{bus: deps.Bus})
	reg(&roundtimeSystem{deps: deps, dispatcher: dispatcher})
	reg(&mobAISystem{deps: deps})
	reg(&effectsSystem{deps: deps})
	reg(&deathTimerSystem{deps: deps})
	reg(&spawnerSystem{deps: deps})
	reg(&regenSystem{deps: deps})
	reg(&absorbSystem{deps: deps})
	reg(&weatherSystem{deps: deps})
	reg(&outputSystem{deps: deps})
	reg(&persistSystem{deps: deps})
	reg(&cleanupSystem{deps: deps})
}

// guarded recovers a panicking system so one bad callback never halts
// the loop.
type guarded struct {
	inner system.System
	log   *zap.Logger
}

func (g *guarded) Phase() system.Phase { return g.inner.Phase() }

func (g *guarded) Update(dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("tick system panicked",
				zap.Int("phase", int(g.inner.Phase())),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	g.inner.Update(dt)
}

// subscribe attaches the cross-cutting event handlers: metrics and the
// audit log. Gameplay reactions live in the systems themselves.
func subscribe(deps *handler.Deps) {
	event.Subscribe(deps.Bus, func(ev event.CharacterDying) {
		deps.Metrics.CharacterDeath()
		killer := "none"
		if ev.Killer != nil {
			killer = ev.Killer.Name()
		}
		deps.Log.Info("character dying",
			zap.String("name", ev.Char.Name()), zap.String("killer", killer))
	})
	event.Subscribe(deps.Bus, func(ev event.CharacterDied) {
		deps.Log.Info("character died",
			zap.String("name", ev.Char.Name()), zap.Int("tether", ev.Char.Tether))
	})
	event.Subscribe(deps.Bus, func(ev event.MobDied) {
		deps.Log.Debug("mob died", zap.Int64("id", ev.Mob.ID),
			zap.String("name", ev.Mob.Name()))
	})
	event.Subscribe(deps.Bus, func(ev event.LevelUp) {
		deps.Log.Info("level up",
			zap.String("name", ev.Char.Name()), zap.Int("level", ev.Level))
	})
}
