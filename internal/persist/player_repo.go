package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// PlayerRow is an account row. The credential hash is opaque here; the
// auth package decides what scheme it carries.
type PlayerRow struct {
	ID           int32
	Username     string
	PasswordHash string
	Email        string
	Admin        bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Load fetches an account by username; (nil, nil) when absent.
func (r *PlayerRepo) Load(ctx context.Context, username string) (*PlayerRow, error) {
	row := &PlayerRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, username, password_hash, COALESCE(email,''), admin, created_at, last_login
		 FROM players WHERE LOWER(username) = LOWER($1)`, username,
	).Scan(&row.ID, &row.Username, &row.PasswordHash, &row.Email, &row.Admin, &row.CreatedAt, &row.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *PlayerRepo) Create(ctx context.Context, username, passwordHash, email string) (*PlayerRow, error) {
	row := &PlayerRow{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		CreatedAt:    time.Now(),
	}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO players (username, password_hash, email)
		 VALUES ($1, $2, $3) RETURNING id, created_at`,
		username, passwordHash, email,
	).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// UpdatePasswordHash persists a rehashed credential (legacy upgrade).
func (r *PlayerRepo) UpdatePasswordHash(ctx context.Context, id int32, hash string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE players SET password_hash = $1 WHERE id = $2`, hash, id)
	return err
}

func (r *PlayerRepo) TouchLastLogin(ctx context.Context, id int32) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE players SET last_login = NOW() WHERE id = $1`, id)
	return err
}
