// Package engine wires every usecase into BEACON's external-interface
// surface (spec §6) and owns the single-threaded serialization rule of
// spec §5: every mutating call below runs to completion, end to end,
// before the engine accepts the next one. Grounded on the
// matching-service engine's Start/Stop/background-goroutine shape.
package engine

import (
	"context"
	"sync"
	"time"

	bookv1 "github.com/beacon-exchange/beacon/internal/domain/book/v1"
	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/archive"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/custody"
	"github.com/beacon-exchange/beacon/internal/usecase/invariants"
	"github.com/beacon-exchange/beacon/internal/usecase/janitor"
	"github.com/beacon-exchange/beacon/internal/usecase/matcher"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// StateStore persists and recovers a full snapshot of engine memory
// across restarts (spec §9 durability, beyond per-trade rollback).
type StateStore interface {
	Save(ctx context.Context, name string, snapshot any) (version int64, err error)
	Load(ctx context.Context, name string, out any) (version int64, err error)
}

// TradesReader is the read side of the Postgres trade archive.
type TradesReader interface {
	List(ctx context.Context, token string, sinceNanos int64, limit int) ([]tradev1.Trade, error)
}

// PriceCache is the optional Redis-backed best-bid/best-ask read model
// behind prices() (spec §6). The engine refreshes it under its mutex
// after ListToken, Trade and every CancelOrder/CloseAllOrders
// cancellation. Janitor order expiries do not refresh it, so a cached
// quote can still show an expired order's price. A nil PriceCache falls
// back to reading the live book directly.
type PriceCache interface {
	SetBest(ctx context.Context, token string, bestBid, bestAsk uint64) error
	GetBest(ctx context.Context, token string) (bestBid, bestAsk uint64, err error)
}

// PriceQuote is one token's best bid/ask, the value type of prices().
type PriceQuote struct {
	BestBid uint64
	BestAsk uint64
}

// AggregateStats is data()'s return value (spec §6): exchange-wide
// figures a caller can't cheaply derive from the per-token queries.
type AggregateStats struct {
	FeeBPS uint64
	// FeeConvention documents the §9 open-question resolution: both the
	// maker and the taker independently pay FeeBPS against a fill's
	// gross payment (not one fee split between them).
	FeeConvention      string
	VolumeDay          uint64
	TradesDay          int
	PaymentTokenLocked uint64
	TokensListed       int
	ActiveTraders      int
}

// Snapshot is the versioned-blob shape saved to StateStore.
type Snapshot struct {
	Tokens    []tokenv1.TokenRecord
	Custodied map[string]uint64
	Orders    map[string][]orderv1.Order // token -> resting orders
}

// Engine is BEACON's single point of entry. Every mutating method
// takes the same lock; callers never see partial effects of another
// call (spec §5).
type Engine struct {
	mu sync.Mutex

	tokensReg  *tokens.Registry
	tokensUC   *tokens.Usecase
	books      *bookreg.Registry
	balances   *balances.Ledger
	custody    *custody.Custodied
	custodyUC  *custody.Usecase
	matcher    *matcher.Matcher
	janitor    *janitor.Janitor
	flusher    *archive.Flusher
	state      StateStore
	trades     TradesReader
	priceCache PriceCache
	logger     logger.Interface

	paymentTok string
}

// Deps bundles every constructed component the Engine wires together.
type Deps struct {
	TokensReg  *tokens.Registry
	TokensUC   *tokens.Usecase
	Books      *bookreg.Registry
	Balances   *balances.Ledger
	Custody    *custody.Custodied
	CustodyUC  *custody.Usecase
	Matcher    *matcher.Matcher
	Janitor    *janitor.Janitor
	Flusher    *archive.Flusher
	State      StateStore
	Trades     TradesReader
	PriceCache PriceCache
	Logger     logger.Interface

	PaymentToken string
}

// New creates an Engine from its dependencies.
func New(d Deps) *Engine {
	return &Engine{
		tokensReg:  d.TokensReg,
		tokensUC:   d.TokensUC,
		books:      d.Books,
		balances:   d.Balances,
		custody:    d.Custody,
		custodyUC:  d.CustodyUC,
		matcher:    d.Matcher,
		janitor:    d.Janitor,
		flusher:    d.Flusher,
		state:      d.State,
		trades:     d.Trades,
		priceCache: d.PriceCache,
		logger:     d.Logger,
		paymentTok: d.PaymentToken,
	}
}

// Start recovers the last saved snapshot, then launches the background
// janitor sweep and archive flush loops.
func (e *Engine) Start(ctx context.Context) error {
	if e.state != nil {
		var snap Snapshot
		version, err := e.state.Load(ctx, "engine", &snap)
		if err != nil {
			return err
		}
		if version > 0 {
			e.restore(snap)
			e.logger.Info("engine state recovered", logger.Field{Key: "version", Value: version})
		}
	}

	if e.janitor != nil {
		e.janitor.Start(ctx)
	}
	if e.flusher != nil {
		e.flusher.Start(ctx)
	}

	e.logger.Info("engine started")
	return nil
}

// Stop halts the background loops.
func (e *Engine) Stop(ctx context.Context) error {
	if e.janitor != nil {
		e.janitor.Stop()
	}
	if e.flusher != nil {
		e.flusher.Stop()
	}
	e.logger.Info("engine stopped")
	return nil
}

// Checkpoint saves the current in-memory state, for a periodic timer or
// an orderly shutdown path in cmd/beacon.
func (e *Engine) Checkpoint(ctx context.Context) error {
	if e.state == nil {
		return nil
	}
	e.mu.Lock()
	snap := e.snapshot()
	e.mu.Unlock()

	_, err := e.state.Save(ctx, "engine", snap)
	return err
}

func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{
		Custodied: map[string]uint64{},
		Orders:    map[string][]orderv1.Order{},
	}
	for _, rec := range e.tokensReg.List() {
		snap.Tokens = append(snap.Tokens, *rec)
		snap.Custodied[rec.ID] = e.custody.Get(rec.ID)
		if book, ok := e.books.Get(rec.ID); ok {
			for _, o := range book.AllOrders() {
				snap.Orders[rec.ID] = append(snap.Orders[rec.ID], *o)
			}
		}
	}
	return snap
}

func (e *Engine) restore(snap Snapshot) {
	for i := range snap.Tokens {
		rec := snap.Tokens[i]
		e.tokensReg.Restore(&rec)
		book := e.books.Create(rec.ID)
		e.custody.Increase(rec.ID, snap.Custodied[rec.ID])
		for j := range snap.Orders[rec.ID] {
			o := snap.Orders[rec.ID][j]
			book.Insert(&o)
		}
	}
}

// ListToken implements list_token (spec §4.F).
func (e *Engine) ListToken(ctx context.Context, caller, token string, nowNanos int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.tokensUC.ListToken(ctx, caller, token, nowNanos); err != nil {
		return err
	}
	e.refreshPriceCache(ctx, token)
	return nil
}

// refreshPriceCache recomputes token's best bid/ask from the live book
// and writes it through to the optional PriceCache. The list, trade and
// cancel paths call it; Janitor expiries do not.
func (e *Engine) refreshPriceCache(ctx context.Context, token string) {
	if e.priceCache == nil {
		return
	}
	book, ok := e.books.Get(token)
	if !ok {
		return
	}
	q := liveBest(book)
	if err := e.priceCache.SetBest(ctx, token, q.BestBid, q.BestAsk); err != nil {
		e.logger.Error(err, logger.Field{Key: "action", Value: "price_cache_refresh"}, logger.Field{Key: "token", Value: token})
	}
}

func liveBest(book *bookv1.Book) PriceQuote {
	var q PriceQuote
	if o := book.Best(orderv1.Buy); o != nil {
		q.BestBid = o.Price
	}
	if o := book.Best(orderv1.Sell); o != nil {
		q.BestAsk = o.Price
	}
	return q
}

// Deposit implements deposit_liquidity (spec §4.E). It takes no amount:
// the contract discovers whatever sits in the caller's subaccount.
func (e *Engine) Deposit(ctx context.Context, owner, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.custodyUC.Deposit(ctx, owner, token)
}

// Withdraw implements withdraw (spec §4.E).
func (e *Engine) Withdraw(ctx context.Context, owner, token string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.custodyUC.Withdraw(ctx, owner, token, amount)
}

// Trade implements the single order-execution entry point (spec §4.D).
func (e *Engine) Trade(ctx context.Context, caller, token string, amount, price uint64, side orderv1.Side) (matcher.TradeOutcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	outcome, err := e.matcher.Trade(ctx, caller, token, amount, price, side)
	if err == nil {
		e.refreshPriceCache(ctx, token)
	}
	return outcome, err
}

// CancelOrder implements close_order (spec §6): close_order(token_id,
// side, amount, price, timestamp_ns) → (). It matches the full order
// identity, not just (owner, price) — two resting orders from the same
// owner at the same price but different timestamps or amounts are
// distinct orders, and closing one must never touch the other (spec §7
// entry 6's exact-identity idempotence). Idempotent: cancelling an
// order that no longer exists (already filled, already cancelled, or
// never existed) is not an error.
func (e *Engine) CancelOrder(ctx context.Context, caller, token string, side orderv1.Side, amount, price uint64, timestampNanos int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelOrderLocked(ctx, caller, token, side, amount, price, timestampNanos)
}

func (e *Engine) cancelOrderLocked(ctx context.Context, caller, token string, side orderv1.Side, amount, price uint64, timestampNanos int64) error {
	book, ok := e.books.Get(token)
	if !ok {
		return errors.New(errors.NotListed, "token", "token %s is not listed", token)
	}
	rec, _ := e.tokensReg.Get(token)

	var target *orderv1.Order
	for _, o := range book.Orders(side) {
		if o.Owner == caller && o.Price == price && o.AmountRemain == amount && o.TimestampNanos == timestampNanos {
			target = o
			break
		}
	}
	if target == nil {
		return nil
	}
	if !book.Cancel(target) {
		return nil
	}
	e.refreshPriceCache(ctx, token)

	if side == orderv1.Sell {
		return e.balances.Unlock(caller, token, target.AmountRemain)
	}
	required := invariants.CeilDiv(target.AmountRemain, target.Price, rec.Base())
	return e.balances.Unlock(caller, e.paymentTok, required)
}

// CloseAllOrders implements close_all_orders (spec §6): cancels every
// resting order caller owns, across every listed token and both sides.
func (e *Engine) CloseAllOrders(ctx context.Context, caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, rec := range e.tokensReg.List() {
		book, ok := e.books.Get(rec.ID)
		if !ok {
			continue
		}
		for _, side := range []orderv1.Side{orderv1.Buy, orderv1.Sell} {
			for _, o := range book.Orders(side) {
				if o.Owner != caller {
					continue
				}
				if err := e.cancelOrderLocked(ctx, caller, rec.ID, side, o.AmountRemain, o.Price, o.TimestampNanos); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// BalanceOf implements the read-only balance query (spec §6).
func (e *Engine) BalanceOf(owner, token string) (liquid, locked uint64) {
	return e.balances.Read(owner, token)
}

// Tokens implements the tokens() query (spec §6).
func (e *Engine) Tokens() []*tokenv1.TokenRecord {
	return e.tokensReg.List()
}

// Orders implements the per-token order-book read (spec §6).
func (e *Engine) Orders(token string, side orderv1.Side) []*orderv1.Order {
	book, ok := e.books.Get(token)
	if !ok {
		return nil
	}
	return book.Orders(side)
}

// Trades implements the trades(token, since) archive query (spec §6).
// BEACON's own in-memory state never retains trade history once it has
// been flushed, so this reads straight from the durable archive.
func (e *Engine) Trades(ctx context.Context, token string, sinceNanos int64, limit int) ([]tradev1.Trade, error) {
	if e.trades == nil {
		return nil, nil
	}
	return e.trades.List(ctx, token, sinceNanos, limit)
}

// ExecutedOrders implements executed_orders(token_id) (spec §6): every
// fill archived for token, newest first. The archive is BEACON's only
// record of what executed — the matcher mutates resting orders in place
// and never retains a finished one.
func (e *Engine) ExecutedOrders(ctx context.Context, token string, limit int) ([]tradev1.Trade, error) {
	if e.trades == nil {
		return nil, nil
	}
	return e.trades.List(ctx, token, 0, limit)
}

// Prices implements prices() (spec §6): every listed token's best
// bid/ask, read through the optional PriceCache first and falling back
// to the live book on a cache miss (GetBest reads a missing entry as
// 0/0) or when no cache is wired.
func (e *Engine) Prices(ctx context.Context) map[string]PriceQuote {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]PriceQuote)
	for _, rec := range e.tokensReg.List() {
		if e.priceCache != nil {
			if bid, ask, err := e.priceCache.GetBest(ctx, rec.ID); err == nil && (bid != 0 || ask != 0) {
				out[rec.ID] = PriceQuote{BestBid: bid, BestAsk: ask}
				continue
			}
		}
		if book, ok := e.books.Get(rec.ID); ok {
			out[rec.ID] = liveBest(book)
		}
	}
	return out
}

// BalancePair is one token's (liquid, locked) balance, the value type
// of token_balances().
type BalancePair struct {
	Liquid uint64
	Locked uint64
}

// TokenBalances implements token_balances() (spec §6): caller's
// (liquid, locked) balance across every listed token plus the payment
// token — unlike BalanceOf, which reads a single token at a time.
func (e *Engine) TokenBalances(caller string) map[string]BalancePair {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]BalancePair)
	for _, rec := range e.tokensReg.List() {
		liquid, locked := e.balances.Read(caller, rec.ID)
		out[rec.ID] = BalancePair{Liquid: liquid, Locked: locked}
	}
	liquid, locked := e.balances.Read(caller, e.paymentTok)
	out[e.paymentTok] = BalancePair{Liquid: liquid, Locked: locked}
	return out
}

// Data implements data() (spec §6): exchange-wide figures a caller
// can't cheaply derive from the per-token queries. nowNanos is supplied
// by the caller rather than read from a hidden clock, matching
// ListToken's explicit-time convention.
func (e *Engine) Data(ctx context.Context, nowNanos int64) (AggregateStats, error) {
	e.mu.Lock()
	recs := e.tokensReg.List()
	stats := AggregateStats{
		FeeBPS:             e.matcher.FeeBPS(),
		FeeConvention:      "both-sides",
		PaymentTokenLocked: e.balances.TotalLocked(e.paymentTok),
		TokensListed:       len(recs),
		ActiveTraders:      e.balances.ActiveOwners(),
	}
	e.mu.Unlock()

	if e.trades == nil {
		return stats, nil
	}

	sinceNanos := nowNanos - (24 * time.Hour).Nanoseconds()
	for _, rec := range recs {
		trades, err := e.trades.List(ctx, rec.ID, sinceNanos, 100_000)
		if err != nil {
			return stats, err
		}
		stats.TradesDay += len(trades)
		for _, t := range trades {
			stats.VolumeDay += t.Amount
		}
	}
	return stats, nil
}

// SetPaymentToken implements the admin one-shot set_payment_token (spec
// §6): reconfigures the single quote asset future trades and listings
// charge against.
func (e *Engine) SetPaymentToken(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paymentTok = token
	e.tokensUC.SetPaymentToken(token)
	e.matcher.SetPaymentToken(token)
}

// SetRevenueAccount implements the admin one-shot set_revenue_account
// (spec §6): reconfigures the destination of future collected fees.
func (e *Engine) SetRevenueAccount(account string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokensUC.SetFeeAccount(account)
	e.matcher.SetFeeAccount(account)
}

