package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/talonmoor/server/internal/world"
)

// WorldRepo loads the static world graph: areas, rooms, exits, room
// objects, spawners, and shop stock. Everything except shop stock is
// read-only at runtime; stock decrements persist through
// UpdateShopStock.
type WorldRepo struct {
	db *DB
}

func NewWorldRepo(db *DB) *WorldRepo {
	return &WorldRepo{db: db}
}

// JSONB shapes for the nested exit payloads. Kept here so the builder
// tables stay self-describing without leaking json tags into the world
// package.
type skillCheckJSON struct {
	Skill      string `json:"skill"`
	DC         int    `json:"dc"`
	FailMsg    string `json:"fail_msg,omitempty"`
	SuccessMsg string `json:"success_msg,omitempty"`
	FailDamage int    `json:"fail_damage,omitempty"`
}

type trapJSON struct {
	PerceptionDC int    `json:"perception_dc"`
	DisarmDC     int    `json:"disarm_dc"`
	Damage       int    `json:"damage"`
	DamageType   string `json:"damage_type"`
}

func (r *WorldRepo) LoadAreas(ctx context.Context) (map[int32]*world.Area, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM areas ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := make(map[int32]*world.Area)
	for rows.Next() {
		a := &world.Area{}
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		areas[a.ID] = a
	}
	return areas, rows.Err()
}

// LoadRooms hydrates the full room graph. Exits referencing rooms that
// do not exist are the loader's problem; this returns them as stored.
func (r *WorldRepo) LoadRooms(ctx context.Context) (map[int32]*world.Room, error) {
	rooms, err := r.loadRoomRows(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadExits(ctx, rooms); err != nil {
		return nil, err
	}
	if err := r.loadObjects(ctx, rooms); err != nil {
		return nil, err
	}
	if err := r.loadSpawners(ctx, rooms); err != nil {
		return nil, err
	}
	if err := r.loadShops(ctx, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *WorldRepo) loadRoomRows(ctx context.Context) (map[int32]*world.Room, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, area_id, name, description, flags, coins, sell_mod, buy_filter
		 FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make(map[int32]*world.Room)
	for rows.Next() {
		var (
			id, areaID  int32
			name, desc  string
			flags       []byte
			coins       int64
			sellMod     float64
			buyFilter   []byte
		)
		if err := rows.Scan(&id, &areaID, &name, &desc, &flags, &coins, &sellMod, &buyFilter); err != nil {
			return nil, err
		}
		room := world.NewRoom(id, areaID, name, desc)
		room.Coins = coins
		room.SellMod = sellMod
		var flagList []string
		if len(flags) > 0 {
			if err := json.Unmarshal(flags, &flagList); err != nil {
				return nil, fmt.Errorf("room %d flags: %w", id, err)
			}
		}
		for _, f := range flagList {
			room.Flags[f] = true
		}
		if len(buyFilter) > 0 {
			if err := json.Unmarshal(buyFilter, &room.BuyFilter); err != nil {
				return nil, fmt.Errorf("room %d buy_filter: %w", id, err)
			}
		}
		rooms[id] = room
	}
	return rooms, rows.Err()
}

func (r *WorldRepo) loadExits(ctx context.Context, rooms map[int32]*world.Room) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT room_id, direction, to_room, locked, COALESCE(key_id,''), lockpick_dc,
			skill_check, trap
		 FROM exits ORDER BY room_id, direction`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roomID     int32
			direction  string
			checkJSON  []byte
			trapBytes  []byte
		)
		exit := &world.Exit{}
		if err := rows.Scan(&roomID, &direction, &exit.To, &exit.Locked, &exit.KeyID,
			&exit.LockpickDC, &checkJSON, &trapBytes); err != nil {
			return err
		}
		if len(checkJSON) > 0 {
			var sc skillCheckJSON
			if err := json.Unmarshal(checkJSON, &sc); err != nil {
				return fmt.Errorf("exit %d/%s skill_check: %w", roomID, direction, err)
			}
			exit.Check = &world.SkillCheck{
				Skill: sc.Skill, DC: sc.DC,
				FailMsg: sc.FailMsg, SuccessMsg: sc.SuccessMsg,
				FailDamage: sc.FailDamage,
			}
		}
		if len(trapBytes) > 0 {
			var tr trapJSON
			if err := json.Unmarshal(trapBytes, &tr); err != nil {
				return fmt.Errorf("exit %d/%s trap: %w", roomID, direction, err)
			}
			exit.Trap = &world.ExitTrap{
				Active:       true,
				PerceptionDC: tr.PerceptionDC,
				DisarmDC:     tr.DisarmDC,
				Damage:       tr.Damage,
				DamageType:   tr.DamageType,
			}
		}
		if room, ok := rooms[roomID]; ok {
			room.Exits[direction] = exit
		}
	}
	return rows.Err()
}

func (r *WorldRepo) loadObjects(ctx context.Context, rooms map[int32]*world.Room) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT room_id, keywords, name, description FROM room_objects ORDER BY room_id, id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			roomID   int32
			keywords []byte
			obj      world.RoomObject
		)
		if err := rows.Scan(&roomID, &keywords, &obj.Name, &obj.Description); err != nil {
			return err
		}
		if err := json.Unmarshal(keywords, &obj.Keywords); err != nil {
			return fmt.Errorf("room %d object %q keywords: %w", roomID, obj.Name, err)
		}
		if room, ok := rooms[roomID]; ok {
			room.Objects = append(room.Objects, obj)
		}
	}
	return rows.Err()
}

func (r *WorldRepo) loadSpawners(ctx context.Context, rooms map[int32]*world.Room) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT room_id, template_id, max_count FROM spawners ORDER BY room_id, template_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var roomID int32
		sp := &world.Spawner{}
		if err := rows.Scan(&roomID, &sp.TemplateID, &sp.Max); err != nil {
			return err
		}
		if room, ok := rooms[roomID]; ok {
			room.Spawners = append(room.Spawners, sp)
		}
	}
	return rows.Err()
}

func (r *WorldRepo) loadShops(ctx context.Context, rooms map[int32]*world.Room) error {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT room_id, template_id, stock, buy_mod, sell_mod
		 FROM shop_inventories ORDER BY room_id, template_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var roomID int32
		entry := &world.ShopEntry{}
		if err := rows.Scan(&roomID, &entry.TemplateID, &entry.Stock,
			&entry.BuyMod, &entry.SellMod); err != nil {
			return err
		}
		if room, ok := rooms[roomID]; ok {
			room.Shop = append(room.Shop, entry)
		}
	}
	return rows.Err()
}

// UpdateShopStock persists a stock count after a sale. Infinite stock
// rows (-1) are never updated.
func (r *WorldRepo) UpdateShopStock(ctx context.Context, roomID int32, templateID int64, stock int) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE shop_inventories SET stock = $1
		 WHERE room_id = $2 AND template_id = $3 AND stock >= 0`,
		stock, roomID, templateID)
	return err
}
