package janitor

import (
	"context"
	"testing"
	"time"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "ICP"
const paymentTok = "PAYMENT"

type fakePruner struct {
	calledWithCutoff int64
	pruned           int
	err              error
}

func (f *fakePruner) PruneOlderThan(ctx context.Context, cutoffNanos int64) (int, error) {
	f.calledWithCutoff = cutoffNanos
	return f.pruned, f.err
}

func newHarness(t *testing.T, now int64, cfg Config) (*Janitor, *tokens.Registry, *bookreg.Registry, *balances.Ledger, *fakePruner) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	tokensReg := tokens.NewRegistry()
	tokensReg.Restore(&tokenv1.TokenRecord{ID: testToken, Decimals: 0, LastActivityNanos: now})
	books := bookreg.New()
	books.Create(testToken)
	bal := balances.New()
	pruner := &fakePruner{}

	nowFn := func() int64 { return now }
	j := New(tokensReg, tokens.New(tokensReg, books, bal, nil, log, 0, paymentTok, "fee-acct"), books, bal, pruner, log, nowFn, cfg)
	return j, tokensReg, books, bal, pruner
}

func TestSweepExpiredOrders_CancelsAndUnlocksSell(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Hour, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, _, books, bal, _ := newHarness(t, int64(2*time.Minute), cfg)

	book, _ := books.Get(testToken)
	bal.CreditLiquid("seller", testToken, 50)
	require.NoError(t, bal.Lock("seller", testToken, 50))
	o := &orderv1.Order{Owner: "seller", Token: testToken, Side: orderv1.Sell, Price: 10, AmountRemain: 50, TimestampNanos: 0}
	book.Insert(o)

	require.NoError(t, j.sweepExpiredOrders(int64(2*time.Minute)))

	assert.Empty(t, book.AllOrders())
	liquid, locked := bal.Read("seller", testToken)
	assert.Equal(t, uint64(50), liquid)
	assert.Equal(t, uint64(0), locked)
}

func TestSweepExpiredOrders_UnlocksBuyByCeilDiv(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Hour, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, tokensReg, books, bal, _ := newHarness(t, int64(2*time.Minute), cfg)
	// base=10 (1 decimal), price=7, amount=4 -> required = ceil(4*7/10) = ceil(2.8) = 3
	tokensReg.Restore(&tokenv1.TokenRecord{ID: testToken, Decimals: 1, LastActivityNanos: int64(2 * time.Minute)})

	book, _ := books.Get(testToken)
	bal.CreditLiquid("buyer", paymentTok, 3)
	require.NoError(t, bal.Lock("buyer", paymentTok, 3))
	o := &orderv1.Order{Owner: "buyer", Token: testToken, Side: orderv1.Buy, Price: 7, AmountRemain: 4, TimestampNanos: 0}
	book.Insert(o)

	require.NoError(t, j.sweepExpiredOrders(int64(2*time.Minute)))

	liquid, locked := bal.Read("buyer", paymentTok)
	assert.Equal(t, uint64(3), liquid)
	assert.Equal(t, uint64(0), locked)
}

func TestSweepExpiredOrders_SkipsFreshOrders(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Hour, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, _, books, bal, _ := newHarness(t, int64(30*time.Second), cfg)

	book, _ := books.Get(testToken)
	bal.CreditLiquid("seller", testToken, 50)
	require.NoError(t, bal.Lock("seller", testToken, 50))
	o := &orderv1.Order{Owner: "seller", Token: testToken, Side: orderv1.Sell, Price: 10, AmountRemain: 50, TimestampNanos: 0}
	book.Insert(o)

	require.NoError(t, j.sweepExpiredOrders(int64(30*time.Second)))

	assert.Len(t, book.AllOrders(), 1)
}

func TestSweepExpiredOrders_RespectsBatchCap(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Hour, Interval: time.Second, Batch: 1, PaymentToken: paymentTok}
	j, _, books, bal, _ := newHarness(t, int64(2*time.Minute), cfg)

	book, _ := books.Get(testToken)
	bal.CreditLiquid("a", testToken, 10)
	require.NoError(t, bal.Lock("a", testToken, 10))
	bal.CreditLiquid("b", testToken, 10)
	require.NoError(t, bal.Lock("b", testToken, 10))
	book.Insert(&orderv1.Order{Owner: "a", Token: testToken, Side: orderv1.Sell, Price: 10, AmountRemain: 10, TimestampNanos: 0})
	book.Insert(&orderv1.Order{Owner: "b", Token: testToken, Side: orderv1.Sell, Price: 11, AmountRemain: 10, TimestampNanos: 0})

	require.NoError(t, j.sweepExpiredOrders(int64(2*time.Minute)))

	assert.Len(t, book.AllOrders(), 1, "only Batch orders should be processed per call")
}

func TestSweepDelistable_DelistsInactiveEmptyBook(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Minute, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, tokensReg, _, _, _ := newHarness(t, int64(2*time.Minute), cfg)
	tokensReg.Restore(&tokenv1.TokenRecord{ID: testToken, Decimals: 0, LastActivityNanos: 0})

	require.NoError(t, j.sweepDelistable(int64(2*time.Minute)))

	_, ok := tokensReg.Get(testToken)
	assert.False(t, ok)
}

func TestSweepDelistable_LeavesActiveTokenAlone(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Minute, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, tokensReg, _, _, _ := newHarness(t, int64(30*time.Second), cfg)

	require.NoError(t, j.sweepDelistable(int64(30*time.Second)))

	_, ok := tokensReg.Get(testToken)
	assert.True(t, ok)
}

func TestSweepDelistable_LeavesNonEmptyBookAlone(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Minute, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	j, tokensReg, books, bal, _ := newHarness(t, int64(2*time.Minute), cfg)
	tokensReg.Restore(&tokenv1.TokenRecord{ID: testToken, Decimals: 0, LastActivityNanos: 0})

	book, _ := books.Get(testToken)
	bal.CreditLiquid("seller", testToken, 10)
	require.NoError(t, bal.Lock("seller", testToken, 10))
	book.Insert(&orderv1.Order{Owner: "seller", Token: testToken, Side: orderv1.Sell, Price: 10, AmountRemain: 10, TimestampNanos: 0})

	require.NoError(t, j.sweepDelistable(int64(2*time.Minute)))

	_, ok := tokensReg.Get(testToken)
	assert.True(t, ok)
}

func TestSweepOnce_PrunesArchive(t *testing.T) {
	cfg := Config{OrderTTL: time.Minute, ArchiveTTL: time.Hour, DelistTTL: time.Hour, Interval: time.Second, Batch: 10, PaymentToken: paymentTok}
	now := int64(3 * time.Hour)
	j, _, _, _, pruner := newHarness(t, now, cfg)

	require.NoError(t, j.SweepOnce(context.Background()))

	assert.Equal(t, now-cfg.ArchiveTTL.Nanoseconds(), pruner.calledWithCutoff)
}
