// Package invariants implements the pre/post checks of spec §4.H,
// wrapping every state transition the other usecases perform.
package invariants

import (
	bookv1 "github.com/beacon-exchange/beacon/internal/domain/book/v1"
	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
)

// BalanceReader is the subset of balances.Ledger the checker needs.
type BalanceReader interface {
	Read(owner, token string) (liquid, locked uint64)
	TotalOf(token string) uint64
}

// CustodyReader is the subset of custody.Custodied the checker needs.
type CustodyReader interface {
	Get(token string) uint64
}

// CeilDiv computes ceil(a*b/base) without overflow-prone float division.
func CeilDiv(amount, price, base uint64) uint64 {
	if base == 0 {
		return 0
	}
	num := amount * price
	q := num / base
	if num%base != 0 {
		q++
	}
	return q
}

// FloorDiv computes floor(a*b/base), the flooring used for gross payment.
func FloorDiv(amount, price, base uint64) uint64 {
	if base == 0 {
		return 0
	}
	return (amount * price) / base
}

// CheckConservation is invariant 1: for token t, every user's
// liquid+locked plus the fee account's liquid must equal custodied(t).
func CheckConservation(token, feeAccount string, balances BalanceReader, custody CustodyReader) error {
	total := balances.TotalOf(token)
	custodied := custody.Get(token)
	if total != custodied {
		return errors.New(errors.InvariantViolation, "conservation",
			"token %s: sum(liquid+locked)=%d != custodied=%d", token, total, custodied)
	}
	return nil
}

// CheckRestingLocks is invariants 2 and 3: every resting Sell order's
// owner must hold locked(token) >= its remaining amount, and every
// resting Buy order's owner must hold locked(paymentToken) >= the
// ceil-rounded residual payment.
func CheckRestingLocks(book *bookv1.Book, token, paymentToken string, base uint64, balances BalanceReader) error {
	for _, o := range book.Orders(orderv1.Sell) {
		_, locked := balances.Read(o.Owner, token)
		if locked < o.AmountRemain {
			return errors.New(errors.InvariantViolation, "sell_lock",
				"order owner=%s token=%s locked=%d < amount_remaining=%d", o.Owner, token, locked, o.AmountRemain)
		}
	}
	for _, o := range book.Orders(orderv1.Buy) {
		required := CeilDiv(o.AmountRemain, o.Price, base)
		_, locked := balances.Read(o.Owner, paymentToken)
		if locked < required {
			return errors.New(errors.InvariantViolation, "buy_lock",
				"order owner=%s required_payment_lock=%d > locked=%d", o.Owner, required, locked)
		}
	}
	return nil
}

// CheckNonZero is invariant 4's structural half plus the "no amount or
// price field is zero where documented non-zero" clause for a single
// order about to be inserted or archived.
func CheckNonZero(o *orderv1.Order) error {
	if o.AmountRemain == 0 {
		return errors.New(errors.InvariantViolation, "amount_remaining", "order has zero amount_remaining")
	}
	return nil
}
