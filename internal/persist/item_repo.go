package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

// Item owner kinds. Exactly one owner per instance.
const (
	OwnerInventory = "inventory" // owner_id = character id
	OwnerEquipment = "equipment" // owner_id = character id, slot set
	OwnerContainer = "container" // owner_id = containing item id
	OwnerRoom      = "room"      // owner_id = room id
	OwnerBank      = "bank"      // owner_id = character id
)

// ItemRow is one persisted item instance.
type ItemRow struct {
	ID         int64
	TemplateID int64
	OwnerKind  string
	OwnerID    int64
	Slot       string
	Condition  int
	Stats      []byte // JSONB
}

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadAll streams every instance row; the loader reassembles ownership.
func (r *ItemRepo) LoadAll(ctx context.Context) ([]*ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, template_id, owner_kind, owner_id, COALESCE(slot,''), condition, stats
		 FROM item_instances ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ItemRow
	for rows.Next() {
		it := &ItemRow{}
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.OwnerKind, &it.OwnerID,
			&it.Slot, &it.Condition, &it.Stats); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// LoadForCharacter returns the rows a character owns directly
// (inventory, equipment, bank box) plus everything nested in those
// containers, to any depth.
func (r *ItemRepo) LoadForCharacter(ctx context.Context, characterID int32) ([]*ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`WITH RECURSIVE owned AS (
			SELECT id, template_id, owner_kind, owner_id, slot, condition, stats
			FROM item_instances
			WHERE owner_kind IN ($1, $2, $3) AND owner_id = $4
			UNION ALL
			SELECT i.id, i.template_id, i.owner_kind, i.owner_id, i.slot, i.condition, i.stats
			FROM item_instances i JOIN owned o
			ON i.owner_kind = $5 AND i.owner_id = o.id
		)
		SELECT id, template_id, owner_kind, owner_id, COALESCE(slot,''), condition, stats
		FROM owned ORDER BY id`,
		OwnerInventory, OwnerEquipment, OwnerBank, int64(characterID), OwnerContainer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ItemRow
	for rows.Next() {
		it := &ItemRow{}
		if err := rows.Scan(&it.ID, &it.TemplateID, &it.OwnerKind, &it.OwnerID,
			&it.Slot, &it.Condition, &it.Stats); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

// MaxID returns the highest persisted instance id, 0 on an empty table.
// The in-memory id counter is seeded above it at boot.
func (r *ItemRepo) MaxID(ctx context.Context) (int64, error) {
	var maxID int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM item_instances`).Scan(&maxID)
	return maxID, err
}

// SaveBatch upserts instance rows and deletes dead ids in one round trip.
func (r *ItemRepo) SaveBatch(ctx context.Context, rows []*ItemRow, deadIDs []int64) error {
	if len(rows) == 0 && len(deadIDs) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, it := range rows {
		b.Queue(
			`INSERT INTO item_instances (id, template_id, owner_kind, owner_id, slot, condition, stats)
			 VALUES ($1,$2,$3,$4,NULLIF($5,''),$6,$7)
			 ON CONFLICT (id) DO UPDATE SET
				owner_kind = EXCLUDED.owner_kind, owner_id = EXCLUDED.owner_id,
				slot = EXCLUDED.slot, condition = EXCLUDED.condition, stats = EXCLUDED.stats`,
			it.ID, it.TemplateID, it.OwnerKind, it.OwnerID, it.Slot, it.Condition, it.Stats)
	}
	if len(deadIDs) > 0 {
		b.Queue(`DELETE FROM item_instances WHERE id = ANY($1)`, deadIDs)
	}
	return r.db.Pool.SendBatch(ctx, b).Close()
}

// Delete removes instance rows immediately (consumed consumables,
// destroyed gear).
func (r *ItemRepo) Delete(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM item_instances WHERE id = ANY($1)`, ids)
	return err
}

// ToItem rebuilds a live instance from a row.
func (row *ItemRow) ToItem(tmpl *data.ItemTemplate) (*world.Item, error) {
	it := &world.Item{
		ID:        row.ID,
		Tmpl:      tmpl,
		Condition: row.Condition,
	}
	if len(row.Stats) > 0 {
		if err := json.Unmarshal(row.Stats, &it.Stats); err != nil {
			return nil, fmt.Errorf("item %d stats: %w", row.ID, err)
		}
	}
	return it, nil
}

// RowFromItem snapshots a live instance under the given owner.
func RowFromItem(it *world.Item, ownerKind string, ownerID int64, slot string) (*ItemRow, error) {
	stats, err := json.Marshal(&it.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshal item %d stats: %w", it.ID, err)
	}
	return &ItemRow{
		ID:         it.ID,
		TemplateID: it.Tmpl.ID,
		OwnerKind:  ownerKind,
		OwnerID:    ownerID,
		Slot:       slot,
		Condition:  it.Condition,
		Stats:      stats,
	}, nil
}
