// Package handler interprets client lines: the login and creation state
// machines, then the verb dispatcher for playing characters. Everything
// here runs on the game-loop goroutine.
package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/combat"
	"github.com/talonmoor/server/internal/config"
	"github.com/talonmoor/server/internal/core/event"
	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/effect"
	"github.com/talonmoor/server/internal/metrics"
	"github.com/talonmoor/server/internal/net"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/rules"
	"github.com/talonmoor/server/internal/world"
)

// Deps is the shared dependency bag handlers close over.
type Deps struct {
	Cfg     *config.Config
	Log     *zap.Logger
	State   *world.State
	Server  *net.Server
	Bus     *event.Bus
	Combat  *combat.Engine
	Effects *effect.Engine
	Roller  dice.Roller
	Curve   rules.Curve
	Metrics *metrics.Metrics

	DB         *persist.DB
	Players    *persist.PlayerRepo
	Characters *persist.CharacterRepo
	Items      *persist.ItemRepo
	Bank       BankStore
	World      *persist.WorldRepo

	// GroupInvites maps invitee character id to the inviting group.
	// Entries are dropped on join, decline, or logout.
	GroupInvites map[int32]int64

	// Shutdown requests a graceful stop with a broadcast notice.
	Shutdown func(notice string)
}

// ctx returns a request context carrying the default query timeout.
// Callers must invoke the cancel func.
func (d *Deps) ctx() (context.Context, context.CancelFunc) {
	if d.DB != nil {
		return d.DB.Ctx(context.Background())
	}
	return context.WithCancel(context.Background())
}

// oops logs a persistence failure with context and tells the user
// something generic. The in-memory mutation must not have happened yet.
func (d *Deps) oops(c *world.Character, verb string, err error) {
	d.Log.Error("command failed",
		zap.String("character", c.Name()),
		zap.String("verb", verb),
		zap.Error(err))
	c.Send("{RAn error occurred. Please try again.{x")
}
