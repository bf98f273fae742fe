// Package custody implements deposit and withdraw, the two operations
// that move tokens across the contract boundary (spec §4.E), plus the
// running custodied-total tracker those operations maintain.
package custody

import (
	"context"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// LedgerFactory resolves the LedgerClient for a given token id.
type LedgerFactory interface {
	For(token string) (ledgerv1.Client, error)
}

// Usecase implements deposit and withdraw.
type Usecase struct {
	balances       *balances.Ledger
	tokens         *tokens.Registry
	custodied      *Custodied
	ledgers        LedgerFactory
	logger         logger.Interface
	custodyAccount string
}

// New creates the Custody usecase. custodyAccount identifies the
// contract's own subaccount on every external ledger, the destination
// of a deposit's TransferFrom and the source of a withdraw's Transfer.
func New(bal *balances.Ledger, tok *tokens.Registry, cust *Custodied, ledgers LedgerFactory, log logger.Interface, custodyAccount string) *Usecase {
	return &Usecase{
		balances:       bal,
		tokens:         tok,
		custodied:      cust,
		ledgers:        ledgers,
		logger:         log,
		custodyAccount: custodyAccount,
	}
}

// Deposit implements spec §4.E: query owner's per-caller subaccount on
// token's ledger, pull whatever sits there net of the ledger's own
// transfer fee, and credit owner's liquid balance. deposit_liquidity
// takes no amount argument — the contract discovers what was sent to
// the subaccount rather than trusting a caller-supplied figure. The
// ledger calls happen before any local mutation, so a failed pull
// leaves no trace (spec §5: only LedgerClient calls may suspend, and
// they run before the atomic local step begins).
func (u *Usecase) Deposit(ctx context.Context, owner, token string) error {
	rec, listed := u.tokens.Get(token)
	if !listed {
		return errors.New(errors.NotListed, "token", "token %s is not listed", token)
	}

	client, err := u.ledgers.For(token)
	if err != nil {
		return errors.New(errors.Ledger, "token", "no ledger for token %s: %v", token, err)
	}

	actual, err := client.BalanceOf(ctx, owner)
	if err != nil {
		return errors.New(errors.Ledger, "owner", "balance_of failed for owner=%s token=%s: %v", owner, token, err)
	}

	var usable uint64
	if actual > rec.LedgerTransferFee {
		usable = actual - rec.LedgerTransferFee
	}
	if usable == 0 {
		u.logger.Info("deposit no-op",
			logger.Field{Key: "owner", Value: owner},
			logger.Field{Key: "token", Value: token},
			logger.Field{Key: "subaccount_balance", Value: actual},
		)
		return nil
	}

	if _, err := client.TransferFrom(ctx, owner, u.custodyAccount, usable); err != nil {
		return errors.New(errors.Ledger, "amount", "transfer_from failed for owner=%s token=%s: %v", owner, token, err)
	}

	u.custodied.Increase(token, usable)
	u.balances.CreditLiquid(owner, token, usable)

	u.logger.Info("deposit settled",
		logger.Field{Key: "owner", Value: owner},
		logger.Field{Key: "token", Value: token},
		logger.Field{Key: "amount", Value: usable},
	)
	return nil
}

// Withdraw implements spec §4.E: debit owner's liquid balance first —
// so a double withdraw can never pass a concurrent call, since BEACON
// serializes every mutating call (spec §5) — then push `amount` out to
// owner's external subaccount, net of the ledger's own transfer fee. A
// failed push re-credits the liquid balance it debited.
func (u *Usecase) Withdraw(ctx context.Context, owner, token string, amount uint64) error {
	rec, listed := u.tokens.Get(token)
	if !listed {
		return errors.New(errors.NotListed, "token", "token %s is not listed", token)
	}
	if amount == 0 {
		return errors.New(errors.Validation, "amount", "amount must be positive")
	}
	if amount <= rec.LedgerTransferFee {
		return errors.New(errors.Validation, "amount", "amount %d does not exceed ledger transfer fee %d", amount, rec.LedgerTransferFee)
	}

	if err := u.balances.DebitLiquid(owner, token, amount); err != nil {
		return err
	}

	client, err := u.ledgers.For(token)
	if err != nil {
		u.balances.CreditLiquid(owner, token, amount)
		return errors.New(errors.Ledger, "token", "no ledger for token %s: %v", token, err)
	}
	if _, err := client.Transfer(ctx, owner, amount, rec.LedgerTransferFee); err != nil {
		u.balances.CreditLiquid(owner, token, amount)
		return errors.New(errors.Ledger, "amount", "transfer failed for owner=%s token=%s: %v", owner, token, err)
	}

	u.custodied.Decrease(token, amount)

	u.logger.Info("withdraw settled",
		logger.Field{Key: "owner", Value: owner},
		logger.Field{Key: "token", Value: token},
		logger.Field{Key: "amount", Value: amount},
	)
	return nil
}
