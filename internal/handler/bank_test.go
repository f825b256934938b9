package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talonmoor/server/internal/dice"
	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/world"
)

// memBank implements BankStore with the repo's contract: accounts are
// created by a first deposit, and a withdrawal an account cannot cover
// fails with ErrInsufficientFunds and changes nothing.
type memBank struct {
	balances map[int32]int64
	boxes    map[int32][]*persist.ItemRow
	fees     int64
}

func newMemBank() *memBank {
	return &memBank{
		balances: make(map[int32]int64),
		boxes:    make(map[int32][]*persist.ItemRow),
	}
}

func (b *memBank) Balance(_ context.Context, id int32) (int64, error) {
	return b.balances[id], nil
}

func (b *memBank) AdjustBalance(_ context.Context, id int32, delta int64) (int64, error) {
	if delta < 0 {
		bal, ok := b.balances[id]
		if !ok || bal+delta < 0 {
			return 0, persist.ErrInsufficientFunds
		}
		b.balances[id] = bal + delta
		return bal + delta, nil
	}
	b.balances[id] += delta
	return b.balances[id], nil
}

func (b *memBank) DepositItem(_ context.Context, id int32, itemID, fee int64) error {
	b.boxes[id] = append(b.boxes[id], &persist.ItemRow{
		ID: itemID, OwnerKind: persist.OwnerBank, OwnerID: int64(id), Condition: 100,
	})
	b.fees += fee
	return nil
}

func (b *memBank) WithdrawItem(_ context.Context, id int32, itemID int64) error {
	rows := b.boxes[id]
	for i, row := range rows {
		if row.ID == itemID {
			b.boxes[id] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return persist.ErrInsufficientFunds
}

func (b *memBank) BankedItems(_ context.Context, id int32) ([]*persist.ItemRow, error) {
	return b.boxes[id], nil
}

func newBankDeps(t *testing.T) (*Deps, *Dispatcher, *world.Character, *memBank) {
	t.Helper()
	deps := newTestDeps(t, &dice.Scripted{})
	bank := newMemBank()
	deps.Bank = bank
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1, world.FlagBank)
	c := testChar(t, deps, room, 1, "Bran")
	return deps, d, c, bank
}

func TestWithdrawFromEmptyAccountGivesNothing(t *testing.T) {
	_, d, c, bank := newBankDeps(t)

	d.Dispatch(c, "withdraw 1000000")

	assert.Equal(t, int64(100), c.Coins, "no account, no money")
	assert.Empty(t, bank.balances)
}

func TestWithdrawOverdrawChangesNothing(t *testing.T) {
	_, d, c, bank := newBankDeps(t)
	bank.balances[c.ID] = 5

	d.Dispatch(c, "withdraw 10")

	assert.Equal(t, int64(100), c.Coins)
	assert.Equal(t, int64(5), bank.balances[c.ID])
}

func TestDepositAndWithdrawCoins(t *testing.T) {
	_, d, c, bank := newBankDeps(t)

	d.Dispatch(c, "deposit 40")
	assert.Equal(t, int64(60), c.Coins)
	assert.Equal(t, int64(40), bank.balances[c.ID])

	d.Dispatch(c, "withdraw 15 talons")
	assert.Equal(t, int64(75), c.Coins)
	assert.Equal(t, int64(25), bank.balances[c.ID])
}

func TestDepositMoreThanCarriedRefused(t *testing.T) {
	_, d, c, bank := newBankDeps(t)

	d.Dispatch(c, "deposit 500")

	assert.Equal(t, int64(100), c.Coins)
	assert.Empty(t, bank.balances)
}

func TestDepositItemChargesStorageFee(t *testing.T) {
	deps, d, c, bank := newBankDeps(t)
	it := mint(t, deps, 1) // value 40, fee 4
	it.Unsaved = false
	require.True(t, c.Hold(it))

	d.Dispatch(c, "deposit dagger")

	assert.Nil(t, c.FindHeld("dagger"))
	assert.Equal(t, int64(96), c.Coins)
	assert.Equal(t, int64(4), bank.fees)
	assert.NotContains(t, deps.State.Items, it.ID)
	require.Len(t, bank.boxes[c.ID], 1)
}

func TestWithdrawItemFromStrongbox(t *testing.T) {
	deps, d, c, bank := newBankDeps(t)
	bank.boxes[c.ID] = []*persist.ItemRow{
		{ID: 7, TemplateID: 1, OwnerKind: persist.OwnerBank, OwnerID: int64(c.ID), Condition: 100},
	}

	d.Dispatch(c, "withdraw dagger")

	require.NotNil(t, c.FindHeld("dagger"))
	assert.Empty(t, bank.boxes[c.ID])
	assert.Contains(t, deps.State.Items, int64(7))
}

func TestBankVerbsNeedABankRoom(t *testing.T) {
	deps := newTestDeps(t, &dice.Scripted{})
	deps.Bank = newMemBank()
	d := NewDispatcher(deps)
	room := testRoom(t, deps, 1)
	c := testChar(t, deps, room, 1, "Bran")

	d.Dispatch(c, "deposit 40")
	assert.Equal(t, int64(100), c.Coins)
}
