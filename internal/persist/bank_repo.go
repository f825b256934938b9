package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrInsufficientFunds reports a withdrawal the account cannot cover.
var ErrInsufficientFunds = errors.New("insufficient bank balance")

// BankRepo backs the bank rooms: per-character talon balances plus the
// banked item box (item_instances rows with the bank owner kind).
type BankRepo struct {
	db *DB
}

func NewBankRepo(db *DB) *BankRepo {
	return &BankRepo{db: db}
}

// Balance returns the character's banked talons, 0 with no row yet.
func (r *BankRepo) Balance(ctx context.Context, characterID int32) (int64, error) {
	var balance int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE((SELECT balance FROM bank_accounts WHERE character_id = $1), 0)`,
		characterID,
	).Scan(&balance)
	return balance, err
}

// AdjustBalance applies a signed delta, creating the account row on a
// first deposit. Withdrawals only ever update an existing row, and the
// WHERE clause keeps the balance non-negative inside the statement; an
// overdraw or a withdrawal from a missing account commits nothing and
// returns ErrInsufficientFunds.
func (r *BankRepo) AdjustBalance(ctx context.Context, characterID int32, delta int64) (int64, error) {
	var balance int64
	if delta < 0 {
		err := r.db.Pool.QueryRow(ctx,
			`UPDATE bank_accounts SET balance = balance + $2
			 WHERE character_id = $1 AND balance + $2 >= 0
			 RETURNING balance`,
			characterID, delta,
		).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientFunds
		}
		return balance, err
	}
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO bank_accounts (character_id, balance) VALUES ($1, $2)
		 ON CONFLICT (character_id) DO UPDATE SET balance = bank_accounts.balance + $2
		 RETURNING balance`,
		characterID, delta,
	).Scan(&balance)
	return balance, err
}

// DepositItem moves an instance row into the character's bank box and
// charges the fee, atomically. The in-memory move happens only after
// this commits.
func (r *BankRepo) DepositItem(ctx context.Context, characterID int32, itemID, fee int64) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE item_instances SET owner_kind = $1, owner_id = $2, slot = NULL
		 WHERE id = $3`,
		OwnerBank, int64(characterID), itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d has no row to bank", itemID)
	}
	if fee > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE characters SET coins = coins - $1 WHERE id = $2 AND coins >= $1`,
			fee, characterID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// WithdrawItem moves a banked row back to the character's inventory.
func (r *BankRepo) WithdrawItem(ctx context.Context, characterID int32, itemID int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE item_instances SET owner_kind = $1, owner_id = $2, slot = NULL
		 WHERE id = $3 AND owner_kind = $4 AND owner_id = $2`,
		OwnerInventory, int64(characterID), itemID, OwnerBank)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %d is not in character %d's bank box", itemID, characterID)
	}
	return err
}

// BankedItems lists the instance rows stored in a character's box.
func (r *BankRepo) BankedItems(ctx context.Context, characterID int32) ([]*ItemRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, template_id, owner_kind, owner_id, COALESCE(slot,''), condition, stats
		 FROM item_instances WHERE owner_kind = $1 AND owner_id = $2 ORDER BY id`,
		OwnerBank, int64(characterID))
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
