package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/talonmoor/server/internal/persist"
	"github.com/talonmoor/server/internal/world"
)

// BankStore is the persistence surface the bank verbs need.
// *persist.BankRepo implements it.
type BankStore interface {
	Balance(ctx context.Context, characterID int32) (int64, error)
	AdjustBalance(ctx context.Context, characterID int32, delta int64) (int64, error)
	DepositItem(ctx context.Context, characterID int32, itemID, fee int64) error
	WithdrawItem(ctx context.Context, characterID int32, itemID int64) error
	BankedItems(ctx context.Context, characterID int32) ([]*persist.ItemRow, error)
}

// Item storage fee: 10% of template value, paid on deposit.
func storageFee(it *world.Item) int64 {
	return it.Tmpl.Value / 10
}

func (d *Dispatcher) bankRoom(c *world.Character) *world.Room {
	room := c.InRoom
	if room == nil || !room.Flag(world.FlagBank) {
		c.Send("There is no bank here.")
		return nil
	}
	return room
}

func (d *Dispatcher) cmdBalance(c *world.Character, _ string) bool {
	if d.bankRoom(c) == nil {
		return true
	}
	ctx, cancel := d.deps.ctx()
	defer cancel()
	balance, err := d.deps.Bank.Balance(ctx, c.ID)
	if err != nil {
		d.deps.oops(c, "balance", err)
		return true
	}
	c.Send(fmt.Sprintf("The clerk checks the ledger: %d talons on account.", balance))

	rows, err := d.deps.Bank.BankedItems(ctx, c.ID)
	if err != nil {
		d.deps.oops(c, "balance", err)
		return true
	}
	if len(rows) > 0 {
		c.Send("In your strongbox:")
		for _, row := range rows {
			tmpl := d.deps.State.ItemTemplate(row.TemplateID)
			if tmpl == nil {
				continue
			}
			c.Send("  " + tmpl.Name)
		}
	}
	return true
}

func (d *Dispatcher) cmdDeposit(c *world.Character, args string) bool {
	if d.bankRoom(c) == nil {
		return true
	}
	if args == "" {
		c.Send("Deposit what?")
		return true
	}

	if n, ok := coinArg(args); ok {
		if n <= 0 || n > c.Coins {
			c.Send("You don't have that many talons.")
			return true
		}
		ctx, cancel := d.deps.ctx()
		balance, err := d.deps.Bank.AdjustBalance(ctx, c.ID, n)
		cancel()
		if err != nil {
			d.deps.oops(c, "deposit", err)
			return true
		}
		c.Coins -= n
		c.Dirty = true
		c.Send(fmt.Sprintf("You deposit %d talons. New balance: %d.", n, balance))
		return true
	}

	it := c.FindHeld(args)
	if it == nil {
		c.Send("You aren't holding that.")
		return true
	}
	fee := storageFee(it)
	if c.Coins < fee {
		c.Send(fmt.Sprintf("The clerk wants a %d talon storage fee.", fee))
		return true
	}

	ctx, cancel := d.deps.ctx()
	defer cancel()
	if it.Unsaved {
		row, err := persist.RowFromItem(it, persist.OwnerInventory, int64(c.ID), "")
		if err != nil {
			d.deps.oops(c, "deposit", err)
			return true
		}
		if err := d.deps.Items.SaveBatch(ctx, []*persist.ItemRow{row}, nil); err != nil {
			d.deps.oops(c, "deposit", err)
			return true
		}
		it.Unsaved = false
	}
	if err := d.deps.Bank.DepositItem(ctx, c.ID, it.ID, fee); err != nil {
		d.deps.oops(c, "deposit", err)
		return true
	}

	c.Release(it)
	c.Coins -= fee
	c.Dirty = true
	delete(d.deps.State.Items, it.ID)
	c.Send(fmt.Sprintf("The clerk locks %s in your strongbox. (%d talon fee)", it.Name(), fee))
	return true
}

func (d *Dispatcher) cmdWithdraw(c *world.Character, args string) bool {
	if d.bankRoom(c) == nil {
		return true
	}
	if args == "" {
		c.Send("Withdraw what?")
		return true
	}

	if n, ok := coinArg(args); ok {
		if n <= 0 {
			c.Send("Withdraw how much?")
			return true
		}
		ctx, cancel := d.deps.ctx()
		balance, err := d.deps.Bank.AdjustBalance(ctx, c.ID, -n)
		cancel()
		if errors.Is(err, persist.ErrInsufficientFunds) {
			c.Send("The clerk frowns. \"Your account won't cover that.\"")
			return true
		}
		if err != nil {
			d.deps.oops(c, "withdraw", err)
			return true
		}
		c.Coins += n
		c.Dirty = true
		c.Send(fmt.Sprintf("You withdraw %d talons. New balance: %d.", n, balance))
		return true
	}

	if c.HandsFree() <= 0 {
		c.Send("Your hands are full.")
		return true
	}
	ctx, cancel := d.deps.ctx()
	defer cancel()
	rows, err := d.deps.Bank.BankedItems(ctx, c.ID)
	if err != nil {
		d.deps.oops(c, "withdraw", err)
		return true
	}
	for _, row := range rows {
		tmpl := d.deps.State.ItemTemplate(row.TemplateID)
		if tmpl == nil || !strings.Contains(strings.ToLower(tmpl.Name), strings.ToLower(args)) {
			continue
		}
		if err := d.deps.Bank.WithdrawItem(ctx, c.ID, row.ID); err != nil {
			d.deps.oops(c, "withdraw", err)
			return true
		}
		it, err := row.ToItem(tmpl)
		if err != nil {
			d.deps.oops(c, "withdraw", err)
			return true
		}
		d.deps.State.RegisterItem(it)
		c.Hold(it)
		c.Send(fmt.Sprintf("The clerk retrieves %s from your strongbox.", it.Name()))
		return true
	}
	c.Send("Your strongbox holds nothing like that.")
	return true
}

// coinArg recognizes "<n>", "<n> coins", "<n> talons".
func coinArg(args string) (int64, bool) {
	amount, rest, _ := strings.Cut(args, " ")
	if rest != "" && rest != "coins" && rest != "talons" {
		return 0, false
	}
	n, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
