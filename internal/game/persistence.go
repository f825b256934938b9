package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/talonmoor/server/internal/core/system"
	"github.com/talonmoor/server/internal/handler"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/world"
)

// persistSystem flushes the world on the save cadence. The same flush
// runs once more during shutdown, after the last tick.
type persistSystem struct {
	deps    *handler.Deps
	elapsed time.Duration
}

func (s *persistSystem) Phase() system.Phase { return system.PhasePersist }

func (s *persistSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.deps.Cfg.Game.SaveInterval {
		return
	}
	s.elapsed = 0
	SaveWorld(s.deps)
}

// SaveWorld writes dirty characters, snapshots every owned item row,
// and deletes destroyed instances. Failures are logged; in-memory flags
// are cleared only for what actually reached the database.
func SaveWorld(deps *handler.Deps) {
	if deps.DB == nil {
		return
	}
	start := time.Now()

	saved := 0
	for _, c := range deps.State.Chars {
		if !c.Dirty {
			continue
		}
		row, err := persist.RowFromCharacter(c)
		if err != nil {
			deps.Log.Error("snapshot character", zap.String("name", c.Name()), zap.Error(err))
			continue
		}
		ctx, cancel := deps.DB.Ctx(context.Background())
		err = deps.Characters.Save(ctx, row)
		cancel()
		if err != nil {
			deps.Log.Error("save character", zap.String("name", c.Name()), zap.Error(err))
			continue
		}
		c.Dirty = false
		saved++
	}

	rows, flat := snapshotItems(deps)
	dead := deps.State.DeadItems
	deps.State.DeadItems = nil

	if len(rows) > 0 || len(dead) > 0 {
		ctx, cancel := deps.DB.Ctx(context.Background())
		err := deps.Items.SaveBatch(ctx, rows, dead)
		cancel()
		if err != nil {
			deps.Log.Error("save items", zap.Error(err))
			deps.State.DeadItems = append(dead, deps.State.DeadItems...)
		} else {
			for _, it := range flat {
				it.Dirty = false
				it.Unsaved = false
			}
		}
	}

	deps.Log.Info("world saved",
		zap.Int("characters", saved),
		zap.Int("items", len(rows)),
		zap.Int("deleted", len(dead)),
		zap.Duration("took", time.Since(start)))
}

// snapshotItems walks every owned item in the world and produces its
// current row. Position changes don't reliably mark instances dirty, so
// the whole ownership graph is rewritten each flush.
func snapshotItems(deps *handler.Deps) ([]*persist.ItemRow, []*world.Item) {
	var rows []*persist.ItemRow
	var flat []*world.Item

	var add func(it *world.Item, kind string, owner int64, slot string)
	add = func(it *world.Item, kind string, owner int64, slot string) {
		row, err := persist.RowFromItem(it, kind, owner, slot)
		if err != nil {
			deps.Log.Error("snapshot item", zap.Int64("id", it.ID), zap.Error(err))
			return
		}
		rows = append(rows, row)
		flat = append(flat, it)
		for _, inner := range it.Contents {
			add(inner, persist.OwnerContainer, it.ID, "")
		}
	}

	for _, c := range deps.State.Chars {
		for _, it := range c.Inventory {
			add(it, persist.OwnerInventory, int64(c.ID), "")
		}
		seen := make(map[*world.Item]bool)
		for _, slot := range world.SlotOrder {
			it := c.Equipment[slot]
			if it == nil || seen[it] {
				continue
			}
			seen[it] = true
			add(it, persist.OwnerEquipment, int64(c.ID), slot)
		}
	}
	for _, room := range deps.State.Rooms {
		for _, it := range room.Items {
			add(it, persist.OwnerRoom, int64(room.ID), "")
		}
	}
	return rows, flat
}
