package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/talonmoor/server/internal/data"
	"github.com/talonmoor/server/internal/world"
)

// CharacterRow is the durable character state. Stats, skills, and the
// known spell/ability sets travel as JSONB so the content editor reads
// the same vocabulary the core uses.
type CharacterRow struct {
	ID          int32
	PlayerID    int32
	FirstName   string
	LastName    string
	Sex         string
	RaceID      int32
	ClassID     int32
	Level       int
	XPPool      int64
	XPTotal     int64
	SkillPoints int
	AttrPoints  int
	Tether      int
	HP          float64
	MaxHP       float64
	Essence     float64
	MaxEssence  float64
	Status      string
	Stance      string
	Stats       []byte // JSONB
	Skills      []byte // JSONB
	Spells      []byte // JSONB
	Abilities   []byte // JSONB
	RoomID      int32
	Coins       int64
	Hunger      int
	Thirst      int
	Description string
	Playtime    int64
	CreatedAt   time.Time
	LastLogin   *time.Time
}

type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterColumns = `id, player_id, first_name, last_name, sex, race_id, class_id,
	level, xp_pool, xp_total, skill_points, attr_points, tether,
	hp, max_hp, essence, max_essence, status, stance,
	stats, skills, spells, abilities,
	room_id, coins, hunger, thirst, description, playtime, created_at, last_login`

func scanCharacter(row pgx.Row) (*CharacterRow, error) {
	c := &CharacterRow{}
	err := row.Scan(
		&c.ID, &c.PlayerID, &c.FirstName, &c.LastName, &c.Sex, &c.RaceID, &c.ClassID,
		&c.Level, &c.XPPool, &c.XPTotal, &c.SkillPoints, &c.AttrPoints, &c.Tether,
		&c.HP, &c.MaxHP, &c.Essence, &c.MaxEssence, &c.Status, &c.Stance,
		&c.Stats, &c.Skills, &c.Spells, &c.Abilities,
		&c.RoomID, &c.Coins, &c.Hunger, &c.Thirst, &c.Description, &c.Playtime,
		&c.CreatedAt, &c.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// LoadByPlayer lists a player's characters in creation order.
func (r *CharacterRepo) LoadByPlayer(ctx context.Context, playerID int32) ([]*CharacterRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE player_id = $1 ORDER BY id`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CharacterRow
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Load fetches one character; (nil, nil) when absent.
func (r *CharacterRepo) Load(ctx context.Context, id int32) (*CharacterRow, error) {
	c, err := scanCharacter(r.db.Pool.QueryRow(ctx,
		`SELECT `+characterColumns+` FROM characters WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// NameExists enforces world-unique first names, case-insensitive.
func (r *CharacterRepo) NameExists(ctx context.Context, firstName string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM characters WHERE LOWER(first_name) = LOWER($1))`,
		firstName,
	).Scan(&exists)
	return exists, err
}

func (r *CharacterRepo) Create(ctx context.Context, c *CharacterRow) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO characters (
			player_id, first_name, last_name, sex, race_id, class_id,
			level, xp_pool, xp_total, skill_points, attr_points, tether,
			hp, max_hp, essence, max_essence, status, stance,
			stats, skills, spells, abilities,
			room_id, coins, hunger, thirst, description, playtime
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,
			$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,
			$23,$24,$25,$26,$27,$28
		) RETURNING id, created_at`,
		c.PlayerID, c.FirstName, c.LastName, c.Sex, c.RaceID, c.ClassID,
		c.Level, c.XPPool, c.XPTotal, c.SkillPoints, c.AttrPoints, c.Tether,
		c.HP, c.MaxHP, c.Essence, c.MaxEssence, c.Status, c.Stance,
		c.Stats, c.Skills, c.Spells, c.Abilities,
		c.RoomID, c.Coins, c.Hunger, c.Thirst, c.Description, c.Playtime,
	).Scan(&c.ID, &c.CreatedAt)
}

// Save updates every mutable field of a character row.
func (r *CharacterRepo) Save(ctx context.Context, c *CharacterRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE characters SET
			level = $1, xp_pool = $2, xp_total = $3,
			skill_points = $4, attr_points = $5, tether = $6,
			hp = $7, max_hp = $8, essence = $9, max_essence = $10,
			status = $11, stance = $12,
			stats = $13, skills = $14, spells = $15, abilities = $16,
			room_id = $17, coins = $18, hunger = $19, thirst = $20,
			description = $21, playtime = $22, last_login = $23
		WHERE id = $24`,
		c.Level, c.XPPool, c.XPTotal,
		c.SkillPoints, c.AttrPoints, c.Tether,
		c.HP, c.MaxHP, c.Essence, c.MaxEssence,
		c.Status, c.Stance,
		c.Stats, c.Skills, c.Spells, c.Abilities,
		c.RoomID, c.Coins, c.Hunger, c.Thirst,
		c.Description, c.Playtime, c.LastLogin,
		c.ID,
	)
	return err
}

// RowFromCharacter snapshots live state into a row for saving.
func RowFromCharacter(c *world.Character) (*CharacterRow, error) {
	stats, err := json.Marshal(&c.Base)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}
	spells, err := json.Marshal(setToList(c.Spells))
	if err != nil {
		return nil, fmt.Errorf("marshal spells: %w", err)
	}
	abilities, err := json.Marshal(setToList(c.Abilities))
	if err != nil {
		return nil, fmt.Errorf("marshal abilities: %w", err)
	}
	var raceID, classID int32
	if c.Race != nil {
		raceID = c.Race.ID
	}
	if c.Class != nil {
		classID = c.Class.ID
	}
	playtime := c.Playtime
	if !c.LoginAt.IsZero() {
		playtime += int64(time.Since(c.LoginAt).Seconds())
	}
	row := &CharacterRow{
		ID: c.ID, PlayerID: c.AccountID,
		FirstName: c.FirstName, LastName: c.LastName, Sex: c.Sex,
		RaceID: raceID, ClassID: classID,
		Level: c.Level, XPPool: c.XPPool, XPTotal: c.XPTotal,
		SkillPoints: c.SkillPoints, AttrPoints: c.AttrPoints, Tether: c.Tether,
		HP: c.HP, MaxHP: c.MaxHP, Essence: c.Essence, MaxEssence: c.MaxEssence,
		Status: string(c.Status), Stance: string(c.Stance),
		Stats: stats, Skills: skills, Spells: spells, Abilities: abilities,
		RoomID: c.RoomID, Coins: c.Coins, Hunger: c.Hunger, Thirst: c.Thirst,
		Description: c.Description, Playtime: playtime,
	}
	if !c.LoginAt.IsZero() {
		login := c.LoginAt
		row.LastLogin = &login
	}
	return row, nil
}

// ToCharacter hydrates a live character from a row, resolving catalog
// references. The caller places it in a room and attaches the session.
func (row *CharacterRow) ToCharacter(catalog *data.Catalog, admin bool) (*world.Character, error) {
	c := world.NewCharacter()
	c.ID = row.ID
	c.AccountID = row.PlayerID
	c.FirstName = row.FirstName
	c.LastName = row.LastName
	c.Sex = row.Sex
	c.Race = catalog.Races.Get(row.RaceID)
	c.Class = catalog.Classes.Get(row.ClassID)
	if c.Race == nil || c.Class == nil {
		return nil, fmt.Errorf("character %d references missing race %d or class %d",
			row.ID, row.RaceID, row.ClassID)
	}
	c.Level = row.Level
	c.XPPool = row.XPPool
	c.XPTotal = row.XPTotal
	c.SkillPoints = row.SkillPoints
	c.AttrPoints = row.AttrPoints
	c.Tether = row.Tether
	c.HP = row.HP
	c.MaxHP = row.MaxHP
	c.Essence = row.Essence
	c.MaxEssence = row.MaxEssence
	c.Status = world.Status(row.Status)
	c.Stance = world.Stance(row.Stance)
	c.RoomID = row.RoomID
	c.Coins = row.Coins
	c.Hunger = row.Hunger
	c.Thirst = row.Thirst
	c.Description = row.Description
	c.Playtime = row.Playtime
	c.Admin = admin

	if err := json.Unmarshal(row.Stats, &c.Base); err != nil {
		return nil, fmt.Errorf("character %d stats: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Skills, &c.Skills); err != nil {
		return nil, fmt.Errorf("character %d skills: %w", row.ID, err)
	}
	var spells, abilities []string
	if err := json.Unmarshal(row.Spells, &spells); err != nil {
		return nil, fmt.Errorf("character %d spells: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Abilities, &abilities); err != nil {
		return nil, fmt.Errorf("character %d abilities: %w", row.ID, err)
	}
	for _, s := range spells {
		c.Spells[s] = true
	}
	for _, a := range abilities {
		c.Abilities[a] = true
	}
	c.ClampVitals()
	return c, nil
}

func setToList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k, v := range set {
		if v {
			out = append(out, k)
		}
	}
	return out
}
