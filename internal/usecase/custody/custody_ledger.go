package custody

import "sync"

// Custodied tracks, per token, the running total of in-contract tokens
// last observed from the LedgerClient minus unwithdrawn outputs (spec
// §4.B invariant text, §4.H invariant 1's `custodied(t)`). It is
// maintained solely by the Custody usecase's deposit/withdraw calls.
type Custodied struct {
	mu     sync.RWMutex
	totals map[string]uint64
}

// NewCustodied creates an empty custody tracker.
func NewCustodied() *Custodied {
	return &Custodied{totals: make(map[string]uint64)}
}

// Increase records `amount` more of token now held in the contract's
// main account (a successful deposit).
func (c *Custodied) Increase(token string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals[token] += amount
}

// Decrease records `amount` less of token held in the contract's main
// account (a successful withdrawal; Withdraw passes the full withdrawn
// amount, with no deduction for the ledger transfer fee).
func (c *Custodied) Decrease(token string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.totals[token] < amount {
		c.totals[token] = 0
		return
	}
	c.totals[token] -= amount
}

// Get returns the current custodied total for token.
func (c *Custodied) Get(token string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totals[token]
}
