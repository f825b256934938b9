package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/talonmoor/server/internal/data"
)

// TemplateRepo loads the content catalogs. Each catalog table is an id
// plus a JSONB document in the core's vocabulary, so the builder UI and
// the server share one schema for content.
type TemplateRepo struct {
	db *DB
}

func NewTemplateRepo(db *DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

func loadDocs[T any](ctx context.Context, r *TemplateRepo, table string) ([]T, error) {
	rows, err := r.db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT id, data FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", table, id, err)
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (r *TemplateRepo) LoadRaces(ctx context.Context) (*data.RaceTable, error) {
	races, err := loadDocs[data.Race](ctx, r, "races")
	if err != nil {
		return nil, err
	}
	return data.NewRaceTable(races), nil
}

func (r *TemplateRepo) LoadClasses(ctx context.Context) (*data.ClassTable, error) {
	classes, err := loadDocs[data.Class](ctx, r, "classes")
	if err != nil {
		return nil, err
	}
	return data.NewClassTable(classes), nil
}

func (r *TemplateRepo) LoadItems(ctx context.Context) (*data.ItemTable, error) {
	items, err := loadDocs[data.ItemTemplate](ctx, r, "item_templates")
	if err != nil {
		return nil, err
	}
	return data.NewItemTable(items), nil
}

func (r *TemplateRepo) LoadMobs(ctx context.Context) (*data.MobTable, error) {
	mobs, err := loadDocs[data.MobTemplate](ctx, r, "mob_templates")
	if err != nil {
		return nil, err
	}
	return data.NewMobTable(mobs), nil
}

func (r *TemplateRepo) LoadAbilities(ctx context.Context) (*data.AbilityTable, error) {
	abilities, err := loadDocs[data.Ability](ctx, r, "ability_templates")
	if err != nil {
		return nil, err
	}
	return data.NewAbilityTable(abilities), nil
}
