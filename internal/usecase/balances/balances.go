package balances

import (
	"sync"

	balancev1 "github.com/beacon-exchange/beacon/internal/domain/balance/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
)

// Ledger is the in-memory VirtualBalances store (spec §4.B). The matcher
// holds exclusive mutation rights for the duration of one trade call
// (§5); Ledger itself only guards against concurrent Janitor access, it
// does not serialize callers — that is the engine's job.
type Ledger struct {
	mu   sync.RWMutex
	rows map[balancev1.Key]*balancev1.Balance
}

// New creates an empty VirtualBalances ledger.
func New() *Ledger {
	return &Ledger{rows: make(map[balancev1.Key]*balancev1.Balance)}
}

func (l *Ledger) row(owner, token string) *balancev1.Balance {
	k := balancev1.Key{Owner: owner, Token: token}
	row, ok := l.rows[k]
	if !ok {
		row = &balancev1.Balance{}
		l.rows[k] = row
	}
	return row
}

// Read returns (liquid, locked) for (owner, token) without mutating.
func (l *Ledger) Read(owner, token string) (uint64, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	k := balancev1.Key{Owner: owner, Token: token}
	row, ok := l.rows[k]
	if !ok {
		return 0, 0
	}
	return row.Liquid, row.Locked
}

// CreditLiquid adds Δ to owner's liquid balance of token.
func (l *Ledger) CreditLiquid(owner, token string, delta uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.row(owner, token).Liquid += delta
}

// DebitLiquid subtracts Δ from owner's liquid balance, failing with
// InsufficientLiquidity if liquid < Δ.
func (l *Ledger) DebitLiquid(owner, token string, delta uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := l.row(owner, token)
	if row.Liquid < delta {
		return errors.New(errors.InsufficientLiquidity, "liquid", "owner %s has %d liquid %s, need %d", owner, row.Liquid, token, delta)
	}
	row.Liquid -= delta
	return nil
}

// Lock moves Δ from liquid to locked atomically (spec §4.B).
func (l *Ledger) Lock(owner, token string, delta uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := l.row(owner, token)
	if row.Liquid < delta {
		return errors.New(errors.InsufficientLiquidity, "liquid", "owner %s has %d liquid %s, need %d to lock", owner, row.Liquid, token, delta)
	}
	row.Liquid -= delta
	row.Locked += delta
	return nil
}

// Unlock reverses Lock: moves Δ from locked back to liquid.
func (l *Ledger) Unlock(owner, token string, delta uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := l.row(owner, token)
	if row.Locked < delta {
		return errors.New(errors.InvariantViolation, "locked", "owner %s has %d locked %s, cannot unlock %d", owner, row.Locked, token, delta)
	}
	row.Locked -= delta
	row.Liquid += delta
	return nil
}

// Settle moves Δ from fromOwner's locked(token) to toOwner's
// liquid(token) — the primitive a fill uses to pay a maker (spec §4.B).
func (l *Ledger) Settle(fromOwner, toOwner, token string, delta uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	from := l.row(fromOwner, token)
	if from.Locked < delta {
		return errors.New(errors.InvariantViolation, "locked", "owner %s has %d locked %s, cannot settle %d", fromOwner, from.Locked, token, delta)
	}
	from.Locked -= delta
	l.row(toOwner, token).Liquid += delta
	return nil
}

// Snapshot captures every row touched by keys, for rollback (spec §9
// "Rollback without transactions").
func (l *Ledger) Snapshot(keys []balancev1.Key) map[balancev1.Key]balancev1.Balance {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[balancev1.Key]balancev1.Balance, len(keys))
	for _, k := range keys {
		if row, ok := l.rows[k]; ok {
			out[k] = *row
		} else {
			out[k] = balancev1.Balance{}
		}
	}
	return out
}

// Restore writes back a snapshot taken by Snapshot, undoing every
// mutation made since it was captured.
func (l *Ledger) Restore(snap map[balancev1.Key]balancev1.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range snap {
		val := v
		l.rows[k] = &val
	}
}

// TotalOf sums liquid+locked across every owner for token, for invariant
// H's conservation check.
func (l *Ledger) TotalOf(token string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for k, row := range l.rows {
		if k.Token == token {
			total += row.Liquid + row.Locked
		}
	}
	return total
}

// TotalLocked sums only the locked field across every owner for token,
// used by data()'s AggregateStats.payment_token_locked.
func (l *Ledger) TotalLocked(token string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for k, row := range l.rows {
		if k.Token == token {
			total += row.Locked
		}
	}
	return total
}

// ActiveOwners counts distinct owners holding any liquid or locked
// balance across every token, used by data()'s AggregateStats.active_traders.
func (l *Ledger) ActiveOwners() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owners := make(map[string]bool)
	for k, row := range l.rows {
		if row.Liquid > 0 || row.Locked > 0 {
			owners[k.Owner] = true
		}
	}
	return len(owners)
}
