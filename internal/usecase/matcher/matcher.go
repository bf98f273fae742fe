// Package matcher implements the single-threaded atomic trade operation
// of spec §4.D, the core of the engine.
package matcher

import (
	"context"
	"crypto/rand"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	balancev1 "github.com/beacon-exchange/beacon/internal/domain/balance/v1"
	bookv1 "github.com/beacon-exchange/beacon/internal/domain/book/v1"
	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/custody"
	"github.com/beacon-exchange/beacon/internal/usecase/invariants"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// OutcomeKind tags a TradeOutcome as one of spec §4.D's two variants.
type OutcomeKind int

const (
	// Filled means the order consumed its liquidity budget without
	// leaving a resting order behind.
	Filled OutcomeKind = iota
	// FilledAndOrderCreated means a residual limit order was posted to
	// the book after matching.
	FilledAndOrderCreated
)

// TradeOutcome is the result of a trade call (spec §6 OrderExecution).
type TradeOutcome struct {
	Kind         OutcomeKind
	AmountFilled uint64
}

// Archive is the narrow append-only sink for completed fills (spec §3
// "Archive"). The matcher never reads it back.
type Archive interface {
	Append(t tradev1.Trade)
}

// NowFunc supplies the current time in nanoseconds; injected so tests
// are deterministic.
type NowFunc func() int64

// Matcher is the single method described in spec §4.D.
type Matcher struct {
	balances *balances.Ledger
	books    *bookreg.Registry
	tokens   *tokens.Usecase
	custody  *custody.Custodied
	archive  Archive
	logger   logger.Interface
	feeBPS   uint64
	payment  string
	feeAcct  string
	now      NowFunc
	maxSteps int
	entropy  *ulid.MonotonicEntropy
}

// New creates a Matcher.
func New(
	bal *balances.Ledger,
	books *bookreg.Registry,
	tok *tokens.Usecase,
	cust *custody.Custodied,
	archive Archive,
	log logger.Interface,
	feeBPS uint64,
	paymentToken, feeAccount string,
	now NowFunc,
	maxSteps int,
) *Matcher {
	if maxSteps <= 0 {
		maxSteps = 10_000
	}
	return &Matcher{
		balances: bal,
		books:    books,
		tokens:   tok,
		custody:  cust,
		archive:  archive,
		logger:   log,
		feeBPS:   feeBPS,
		payment:  paymentToken,
		feeAcct:  feeAccount,
		now:      now,
		maxSteps: maxSteps,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// tradeID mints the archive record's natural key (see tradev1.Trade.ID),
// monotonic within a process so same-millisecond fills during one trade
// call still sort by match order.
func (m *Matcher) tradeID(nowNanos int64) string {
	ms := uint64(nowNanos / int64(time.Millisecond))
	id, err := ulid.New(ms, m.entropy)
	if err != nil {
		return ulid.MustNew(ms, rand.Reader).String()
	}
	return id.String()
}

// SetPaymentToken implements the admin one-shot set_payment_token (spec
// §6). Resting orders already locked against the old payment token are
// unaffected; only future trades quote against the new one.
func (m *Matcher) SetPaymentToken(token string) {
	m.payment = token
}

// SetFeeAccount implements the admin one-shot set_revenue_account (spec
// §6): fees collected on future fills credit this account.
func (m *Matcher) SetFeeAccount(account string) {
	m.feeAcct = account
}

// FeeBPS returns the live taker fee rate, for data()'s AggregateStats.
func (m *Matcher) FeeBPS() uint64 {
	return m.feeBPS
}

// PaymentToken returns the current quote-asset token id.
func (m *Matcher) PaymentToken() string {
	return m.payment
}

// bookUndo reverses one book-structure mutation; balance mutations are
// reverted in bulk via a ledger snapshot instead (spec §9 "Rollback
// without transactions: ... a cheap pre-trade snapshot").
type bookUndo func()

// Trade implements spec §4.D end to end: lock, walk the opposite side,
// settle fills, post a residual order, verify invariants or revert.
func (m *Matcher) Trade(ctx context.Context, caller, token string, amount, price uint64, side orderv1.Side) (TradeOutcome, error) {
	rec, listed := m.tokens.Registry().Get(token)
	if !listed {
		return TradeOutcome{}, errors.New(errors.NotListed, "token", "token %s is not listed", token)
	}
	if side != orderv1.Buy && side != orderv1.Sell {
		return TradeOutcome{}, errors.New(errors.Validation, "side", "side must be buy or sell")
	}
	if amount == 0 {
		return TradeOutcome{}, errors.New(errors.Validation, "amount", "amount must be positive")
	}

	base := rec.Base()
	book, ok := m.books.Get(token)
	if !ok {
		return TradeOutcome{}, errors.New(errors.NotListed, "token", "token %s has no book", token)
	}

	isMarket := price == 0
	limitPrice := price
	if isMarket {
		if side == orderv1.Buy {
			limitPrice = math.MaxUint64
		} else {
			limitPrice = 0
		}
	}

	if !isMarket && invariants.FloorDiv(amount, price, base) == 0 {
		return TradeOutcome{}, errors.New(errors.Validation, "amount", "amount %d at price %d yields zero gross payment", amount, price)
	}

	limits := book.MatchableLimits(side, limitPrice, isMarket)

	lockToken := token
	var lockAmount uint64
	if side == orderv1.Buy {
		lockToken = m.payment
		if isMarket {
			// Lock the entire liquid balance only up to what the visible
			// opposite side can actually consume (spec §4.D step 1), so
			// liquid headroom remains for the taker's own fee, paid
			// separately out of liquid at settlement.
			liquid, _ := m.balances.Read(caller, m.payment)
			avail := consumableGross(limits, caller, base)
			lockAmount = avail
			if lockAmount > liquid {
				lockAmount = liquid
			}
		} else {
			if price != 0 && amount > math.MaxUint64/price {
				return TradeOutcome{}, errors.New(errors.Validation, "amount", "amount*price overflows")
			}
			lockAmount = invariants.CeilDiv(amount, price, base)
		}
	} else {
		lockAmount = amount
	}

	if lockAmount == 0 && side == orderv1.Buy {
		// Market buy with nothing to spend, or a limit buy at a price
		// that rounds its own lock to zero, fills nothing (spec §8
		// boundary: "Market Buy with zero Sells: Filled(0)").
		return TradeOutcome{Kind: Filled, AmountFilled: 0}, nil
	}

	keys := snapshotKeys(limits, m.maxSteps, caller, token, m.payment, m.feeAcct)
	snap := m.balances.Snapshot(keys)

	if err := m.balances.Lock(caller, lockToken, lockAmount); err != nil {
		return TradeOutcome{}, err
	}

	rollback := func(undos []bookUndo) {
		m.balances.Restore(snap)
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}

	var undos []bookUndo
	var fills []tradev1.Trade
	remaining := amount
	remainingLocked := lockAmount
	nowNanos := m.now()
	steps := 0

stepLoop:
	for _, lim := range limits {
		if remaining == 0 {
			break
		}
		for _, maker := range lim.Orders() {
			if remaining == 0 {
				break
			}
			if maker.Owner == caller {
				continue // self-trade prohibition: skip, leave resting (spec §4.C)
			}
			steps++
			if steps > m.maxSteps {
				rollback(undos)
				return TradeOutcome{}, errors.New(errors.ResourceExhausted, "", "trade exceeded %d matching steps", m.maxSteps)
			}

			fill := maker.AmountRemain
			if remaining < fill {
				fill = remaining
			}
			gross := invariants.FloorDiv(fill, maker.Price, base)
			if gross == 0 {
				continue // can't extract a non-zero payment from this maker; skip, stays resting
			}

			var buyer, seller string
			if side == orderv1.Buy {
				buyer, seller = caller, maker.Owner
			} else {
				buyer, seller = maker.Owner, caller
			}

			takerFee := feeOn(gross, m.feeBPS)
			makerFee := feeOn(gross, maker.PaymentFeeSnapshot)

			var buyerFee, sellerFee uint64
			if side == orderv1.Buy {
				buyerFee, sellerFee = takerFee, makerFee
			} else {
				buyerFee, sellerFee = makerFee, takerFee
			}

			if err := m.settleFill(buyer, seller, token, fill, gross, buyerFee, sellerFee); err != nil {
				rollback(undos)
				return TradeOutcome{}, err
			}

			prevRemain := maker.AmountRemain
			maker.AmountRemain -= fill
			filledOrder := maker
			undos = append(undos, func() { filledOrder.AmountRemain = prevRemain })
			if maker.AmountRemain == 0 {
				lim.Remove(maker)
				capturedBook := book
				undos = append(undos, func() { capturedBook.Insert(filledOrder) })
			}

			fills = append(fills, tradev1.Trade{
				ID:             m.tradeID(nowNanos),
				Token:          token,
				Maker:          maker.Owner,
				Taker:          caller,
				TakerSide:      side,
				Amount:         fill,
				Price:          maker.Price,
				TimestampNanos: nowNanos,
				TakerFee:       takerFee,
				MakerFee:       makerFee,
			})

			remaining -= fill
			if side == orderv1.Buy {
				remainingLocked -= gross
			} else {
				remainingLocked -= fill
			}
		}
		book.DropIfEmpty(side.Opposite(), lim)
		if remaining == 0 {
			break stepLoop
		}
	}

	m.tokens.Registry().TouchActivity(token, nowNanos)

	var outcome TradeOutcome
	outcome.AmountFilled = amount - remaining

	if remaining > 0 && !isMarket {
		resting := &orderv1.Order{
			Owner:              caller,
			Side:               side,
			Token:              token,
			AmountRemain:       remaining,
			Price:              price,
			TimestampNanos:     nowNanos,
			PaymentFeeSnapshot: m.feeBPS,
		}
		book.Insert(resting)
		capturedBook, capturedOrder := book, resting
		undos = append(undos, func() { capturedBook.Cancel(capturedOrder) })
		outcome.Kind = FilledAndOrderCreated
	} else {
		if remainingLocked > 0 {
			if err := m.balances.Unlock(caller, lockToken, remainingLocked); err != nil {
				rollback(undos)
				return TradeOutcome{}, err
			}
		}
		outcome.Kind = Filled
	}

	if err := m.verify(book, token); err != nil {
		rollback(undos)
		m.logger.Error(err, logger.Field{Key: "action", Value: "trade_invariant_violation"}, logger.Field{Key: "token", Value: token})
		return TradeOutcome{}, err
	}
	for _, t := range fills {
		m.archive.Append(t)
	}

	m.logger.Info("trade executed",
		logger.Field{Key: "token", Value: token},
		logger.Field{Key: "caller", Value: caller},
		logger.Field{Key: "side", Value: side},
		logger.Field{Key: "amount_filled", Value: outcome.AmountFilled},
		logger.Field{Key: "outcome", Value: outcome.Kind},
	)
	return outcome, nil
}

// feeOn computes one side's independent fee charge against gross (spec
// §4.D step 2: "taker_fee = round_half_down(gross_payment * FEE_BPS /
// 10_000); maker_fee computed the same way against the same gross").
// The quotient rounds up only when the remainder exceeds one half; an
// exact half rounds down.
func feeOn(gross, bps uint64) uint64 {
	num := gross * bps
	fee := num / 10_000
	if num%10_000 > 5_000 {
		fee++
	}
	return fee
}

// settleFill applies one fill's balance movements (spec §4.D step 2).
// The token leg moves seller's locked token to buyer's liquid token.
// The payment leg moves buyer's locked payment to seller's liquid
// payment, with sellerFee carved out of that flow straight to the fee
// account — the seller never sees it. buyerFee is a second, independent
// charge debited from the buyer's own liquid payment balance, since the
// buyer only ever locks the bare gross payment and reserves the fee in
// liquid (spec §4.D precondition: "liquid ≥ required_payment + fee_reserve").
// Both taker and maker pay their own fee regardless of which side of
// the trade (buy or sell) they occupy; both sides land in the fee
// account.
func (m *Matcher) settleFill(buyer, seller, token string, fill, gross, buyerFee, sellerFee uint64) error {
	if err := m.balances.Settle(seller, buyer, token, fill); err != nil {
		return err
	}
	if err := m.balances.Settle(buyer, seller, m.payment, gross-sellerFee); err != nil {
		return err
	}
	if sellerFee > 0 {
		if err := m.balances.Settle(buyer, m.feeAcct, m.payment, sellerFee); err != nil {
			return err
		}
	}
	if buyerFee > 0 {
		if err := m.balances.DebitLiquid(buyer, m.payment, buyerFee); err != nil {
			return err
		}
		m.balances.CreditLiquid(m.feeAcct, m.payment, buyerFee)
	}
	return nil
}

// consumableGross bounds a market buy's lock to what the visible
// opposite side can actually absorb (spec §4.D step 1), skipping the
// caller's own resting orders since self-trade never fills them.
func consumableGross(limits []*bookv1.Limit, caller string, base uint64) uint64 {
	var total uint64
	for _, lim := range limits {
		for _, o := range lim.Orders() {
			if o.Owner == caller {
				continue
			}
			total += invariants.FloorDiv(o.AmountRemain, o.Price, base)
		}
	}
	return total
}

// snapshotKeys collects every balance row a trade could touch: the
// caller's own token and payment rows, the fee account's payment row,
// and both rows for every maker visible in the matchable limits (a
// conservative superset — restoring an untouched row is a no-op).
func snapshotKeys(limits []*bookv1.Limit, maxSteps int, caller, token, payment, feeAccount string) []balancev1.Key {
	keys := []balancev1.Key{
		{Owner: caller, Token: token},
		{Owner: caller, Token: payment},
		{Owner: feeAccount, Token: payment},
	}
	seen := map[balancev1.Key]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	count := 0
	for _, lim := range limits {
		for _, o := range lim.Orders() {
			count++
			if count > maxSteps {
				return keys
			}
			for _, k := range [2]balancev1.Key{{Owner: o.Owner, Token: token}, {Owner: o.Owner, Token: payment}} {
				if !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
		}
	}
	return keys
}

// verify runs invariant H's post-mutation checks for one token.
func (m *Matcher) verify(book *bookv1.Book, token string) error {
	if err := invariants.CheckConservation(token, m.feeAcct, m.balances, m.custody); err != nil {
		return err
	}
	rec, _ := m.tokens.Registry().Get(token)
	return invariants.CheckRestingLocks(book, token, m.payment, rec.Base(), m.balances)
}
