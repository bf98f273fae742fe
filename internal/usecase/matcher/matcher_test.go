package matcher

import (
	"context"
	"testing"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/custody"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	paymentTok = "PAYMENT"
	feeAccount = "fee-acct"
	testToken  = "ICP"
)

type fakeLedgerClient struct {
	decimals uint32
}

func (f *fakeLedgerClient) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	return 0, nil
}
func (f *fakeLedgerClient) Transfer(ctx context.Context, to string, amount, fee uint64) (ledgerv1.Result, error) {
	return ledgerv1.Result{}, nil
}
func (f *fakeLedgerClient) TransferFrom(ctx context.Context, from, to string, amount uint64) (ledgerv1.Result, error) {
	return ledgerv1.Result{}, nil
}
func (f *fakeLedgerClient) Metadata(ctx context.Context) (ledgerv1.Metadata, error) {
	return ledgerv1.Metadata{Symbol: testToken, Decimals: f.decimals}, nil
}

type fakeLedgerFactory struct {
	decimals uint32
}

func (f *fakeLedgerFactory) For(token string) (ledgerv1.Client, error) {
	return &fakeLedgerClient{decimals: f.decimals}, nil
}

type recordingArchive struct {
	trades []tradev1.Trade
}

func (a *recordingArchive) Append(t tradev1.Trade) {
	a.trades = append(a.trades, t)
}

func newHarness(t *testing.T) (*Matcher, *balances.Ledger, *bookreg.Registry, *tokens.Usecase, *custody.Custodied, *recordingArchive) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	bal := balances.New()
	books := bookreg.New()
	tokensReg := tokens.NewRegistry()
	cust := custody.NewCustodied()
	tokensUC := tokens.New(tokensReg, books, bal, &fakeLedgerFactory{decimals: 0}, log, 0, paymentTok, feeAccount)

	require.NoError(t, tokensUC.ListToken(context.Background(), "lister", testToken, 1))

	arc := &recordingArchive{}
	now := func() int64 { return 100 }
	m := New(bal, books, tokensUC, cust, arc, log, 20 /* 0.2% */, paymentTok, feeAccount, now, 1000)
	return m, bal, books, tokensUC, cust, arc
}

func TestMatcher_LimitSellRestsThenFilledByBuy(t *testing.T) {
	m, bal, _, _, cust, arc := newHarness(t)
	ctx := context.Background()

	bal.CreditLiquid("seller", testToken, 100)
	cust.Increase(testToken, 100)
	bal.CreditLiquid("buyer", paymentTok, 1000)
	cust.Increase(paymentTok, 1000)

	outcome, err := m.Trade(ctx, "seller", testToken, 50, 10, orderv1.Sell)
	require.NoError(t, err)
	assert.Equal(t, FilledAndOrderCreated, outcome.Kind)
	assert.Equal(t, uint64(0), outcome.AmountFilled)

	outcome, err = m.Trade(ctx, "buyer", testToken, 50, 10, orderv1.Buy)
	require.NoError(t, err)
	assert.Equal(t, Filled, outcome.Kind)
	assert.Equal(t, uint64(50), outcome.AmountFilled)

	require.Len(t, arc.trades, 1)
	trade := arc.trades[0]
	assert.Equal(t, uint64(50), trade.Amount)
	assert.Equal(t, uint64(10), trade.Price)

	buyerLiquid, _ := bal.Read("buyer", testToken)
	assert.Equal(t, uint64(50), buyerLiquid)

	sellerLiquid, _ := bal.Read("seller", paymentTok)
	// gross = 50*10 = 500, maker(seller)_fee = 500*20/10000 = 1, carved from the gross it receives
	assert.Equal(t, uint64(499), sellerLiquid)

	// Both taker and maker pay their own fee (spec §4.D step 2): the
	// seller's 1 is carved from gross above, the buyer's 1 is debited
	// separately from its own liquid. Fee account holds both.
	feeLiquid, _ := bal.Read(feeAccount, paymentTok)
	assert.Equal(t, uint64(2), feeLiquid)
}

func TestMatcher_SelfTradeSkipped(t *testing.T) {
	m, bal, _, _, cust, _ := newHarness(t)
	ctx := context.Background()

	bal.CreditLiquid("trader", testToken, 100)
	cust.Increase(testToken, 100)
	bal.CreditLiquid("trader", paymentTok, 1000)
	cust.Increase(paymentTok, 1000)

	_, err := m.Trade(ctx, "trader", testToken, 50, 10, orderv1.Sell)
	require.NoError(t, err)

	outcome, err := m.Trade(ctx, "trader", testToken, 50, 10, orderv1.Buy)
	require.NoError(t, err)
	// Self-trade is skipped: the buy rests instead of filling against its own sell.
	assert.Equal(t, FilledAndOrderCreated, outcome.Kind)
	assert.Equal(t, uint64(0), outcome.AmountFilled)
}

func TestMatcher_InsufficientLiquidityRejected(t *testing.T) {
	m, _, _, _, _, _ := newHarness(t)
	ctx := context.Background()

	_, err := m.Trade(ctx, "broke", testToken, 50, 10, orderv1.Sell)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InsufficientLiquidity))
}

func TestMatcher_MarketBuyNothingToSpend(t *testing.T) {
	m, _, _, _, _, _ := newHarness(t)
	ctx := context.Background()

	outcome, err := m.Trade(ctx, "nobody", testToken, 50, 0, orderv1.Buy)
	require.NoError(t, err)
	assert.Equal(t, Filled, outcome.Kind)
	assert.Equal(t, uint64(0), outcome.AmountFilled)
}

func TestMatcher_UnlistedTokenRejected(t *testing.T) {
	m, _, _, _, _, _ := newHarness(t)
	ctx := context.Background()

	_, err := m.Trade(ctx, "anyone", "NOPE", 50, 10, orderv1.Buy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotListed))
}
