// Package tokens implements token listing, metadata, and delisting
// policy (spec §4.F).
package tokens

import (
	"context"
	"sync"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// LedgerFactory resolves the LedgerClient for a given token id. One
// BEACON instance talks to many ledgers — one per listed token, plus the
// single payment-token ledger (spec §1).
type LedgerFactory interface {
	For(token string) (ledgerv1.Client, error)
}

// Registry is the in-memory TokenRecord store.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*tokenv1.TokenRecord
}

// NewRegistry creates an empty token registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*tokenv1.TokenRecord)}
}

// Get returns the TokenRecord for id, if listed.
func (r *Registry) Get(id string) (*tokenv1.TokenRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.records[id]
	return t, ok
}

// List returns every listed TokenRecord.
func (r *Registry) List() []*tokenv1.TokenRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*tokenv1.TokenRecord, 0, len(r.records))
	for _, t := range r.records {
		out = append(out, t)
	}
	return out
}

// TouchActivity bumps last_activity_ns for id to now, idempotent no-op if
// id isn't listed.
func (r *Registry) TouchActivity(id string, nowNanos int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.records[id]; ok {
		t.LastActivityNanos = nowNanos
	}
}

// Restore reinstalls a TokenRecord read back from a state snapshot,
// bypassing the fee-charging path ListToken takes for a fresh listing.
func (r *Registry) Restore(rec *tokenv1.TokenRecord) {
	r.insert(rec)
}

func (r *Registry) insert(rec *tokenv1.TokenRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
}

func (r *Registry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

// MetadataCache is an optional write-through copy of listed-token
// metadata, kept in sync with every list/delist mutation. The engine's
// query paths (tokens(), data()) read the registry, not this cache.
// Backed by
// internal/infrastructure/redis/cache.MetadataCache in production.
type MetadataCache interface {
	Put(ctx context.Context, rec *tokenv1.TokenRecord) error
	Delete(ctx context.Context, token string) error
}

// Usecase implements list_token and its supporting delisting primitive.
type Usecase struct {
	registry   *Registry
	books      *bookreg.Registry
	balances   *balances.Ledger
	ledgers    LedgerFactory
	logger     logger.Interface
	listingFee uint64
	paymentTok string
	feeAccount string
	metaCache  MetadataCache
}

// New creates the Tokens usecase.
func New(registry *Registry, books *bookreg.Registry, bal *balances.Ledger, ledgers LedgerFactory, log logger.Interface, listingFee uint64, paymentToken, feeAccount string) *Usecase {
	return &Usecase{
		registry:   registry,
		books:      books,
		balances:   bal,
		ledgers:    ledgers,
		logger:     log,
		listingFee: listingFee,
		paymentTok: paymentToken,
		feeAccount: feeAccount,
	}
}

// ListToken implements spec §4.F. Failures (unknown ledger, fee transfer
// failure, duplicate) all return Err atomically — no book is created on
// any failure path.
func (u *Usecase) ListToken(ctx context.Context, caller, id string, nowNanos int64) error {
	if id == "" {
		return errors.New(errors.Validation, "token_id", "token id is empty")
	}
	if _, exists := u.registry.Get(id); exists {
		return errors.New(errors.AlreadyListed, "token_id", "token %s is already listed", id)
	}

	client, err := u.ledgers.For(id)
	if err != nil {
		return errors.New(errors.Ledger, "token_id", "no ledger for token %s: %v", id, err)
	}
	meta, err := client.Metadata(ctx)
	if err != nil {
		return errors.New(errors.Ledger, "token_id", "metadata fetch failed for %s: %v", id, err)
	}
	if meta.Decimals > tokenv1.MaxDecimals {
		return errors.New(errors.Validation, "decimals", "token %s has %d decimals, max is %d", id, meta.Decimals, tokenv1.MaxDecimals)
	}

	// Charge the listing fee before any record is created; on failure,
	// nothing has been created.
	if err := u.balances.DebitLiquid(caller, u.paymentTok, u.listingFee); err != nil {
		return err
	}
	u.balances.CreditLiquid(u.feeAccount, u.paymentTok, u.listingFee)

	rec := &tokenv1.TokenRecord{
		ID:                id,
		Symbol:            meta.Symbol,
		Decimals:          meta.Decimals,
		LedgerTransferFee: meta.LedgerTransferFee,
		Logo:              meta.Logo,
		ListedAtNanos:     nowNanos,
		LastActivityNanos: nowNanos,
	}
	u.registry.insert(rec)
	u.books.Create(id)

	if u.metaCache != nil {
		if err := u.metaCache.Put(ctx, rec); err != nil {
			u.logger.Error(err, logger.Field{Key: "action", Value: "metadata_cache_put"}, logger.Field{Key: "token", Value: id})
		}
	}

	u.logger.Info("token listed", logger.Field{Key: "token", Value: id}, logger.Field{Key: "symbol", Value: meta.Symbol})
	return nil
}

// Delist removes a TokenRecord. Callers (Janitor) are responsible for
// checking the inactivity/empty-book precondition first; balances are
// preserved (spec §3 "Lifecycle").
func (u *Usecase) Delist(id string) {
	u.registry.delete(id)
	if u.metaCache != nil {
		if err := u.metaCache.Delete(context.Background(), id); err != nil {
			u.logger.Error(err, logger.Field{Key: "action", Value: "metadata_cache_delete"}, logger.Field{Key: "token", Value: id})
		}
	}
	u.books.Delete(id)
}

// Registry exposes the underlying TokenRecord store for read-only query
// paths (tokens(), data()).
func (u *Usecase) Registry() *Registry {
	return u.registry
}

// SetMetadataCache wires an optional write-through cache that ListToken
// and Delist keep current. A nil cache (the default) disables caching
// entirely.
func (u *Usecase) SetMetadataCache(c MetadataCache) {
	u.metaCache = c
}

// SetPaymentToken implements the admin one-shot set_payment_token (spec
// §6). Callers serialize this under the engine's single mutation lock
// (spec §5), same as every other configuration change.
func (u *Usecase) SetPaymentToken(token string) {
	u.paymentTok = token
}

// SetFeeAccount implements the admin one-shot set_revenue_account (spec
// §6): fees charged at listing time move to this account from then on.
func (u *Usecase) SetFeeAccount(account string) {
	u.feeAccount = account
}

// PaymentToken returns the current quote-asset token id.
func (u *Usecase) PaymentToken() string {
	return u.paymentTok
}

// FeeAccount returns the current revenue account id.
func (u *Usecase) FeeAccount() string {
	return u.feeAccount
}
