package ledgerv1

import "context"

// Result carries the outcome of a mutating ledger call. Ledger is
// stateless (spec §4.A): callers reason about idempotency by reading
// balances, not by retrying blindly on an ambiguous Result.
type Result struct {
	// BlockIndex (or equivalent) identifies the ledger-side transaction,
	// when the call succeeded.
	BlockIndex uint64
}

// Metadata is the subset of a ledger's token metadata BEACON needs to
// list it (spec §4.F step 2).
type Metadata struct {
	Symbol            string
	Decimals          uint32
	LedgerTransferFee uint64
	Logo              string
}

// Client is the narrow request/response surface against one external
// fungible-ledger contract (spec §4.A). Every method may fail with a
// transport error or a ledger-level error (insufficient funds, bad
// recipient, rate limit, duplicate) — both are reported as a plain Go
// error; BEACON wraps the errors.Ledger taxonomy code around it.
//
//go:generate mockgen -source ledger.go -destination=mock/ledger_mock.go -package=ledgerv1_mock
type Client interface {
	// BalanceOf returns the ledger balance of owner's subaccount.
	BalanceOf(ctx context.Context, owner string) (uint64, error)
	// Transfer moves amount from the contract's main account to `to`,
	// net of the ledger's own transfer fee.
	Transfer(ctx context.Context, to string, amount uint64, fee uint64) (Result, error)
	// TransferFrom moves amount from a caller-owned subaccount into the
	// contract's main account.
	TransferFrom(ctx context.Context, from, to string, amount uint64) (Result, error)
	// Metadata fetches the token's symbol/decimals/fee/logo.
	Metadata(ctx context.Context) (Metadata, error)
}
