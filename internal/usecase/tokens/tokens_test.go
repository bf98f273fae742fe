package tokens

import (
	"context"
	"testing"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	meta ledgerv1.Metadata
	err  error
}

func (s *stubClient) BalanceOf(ctx context.Context, owner string) (uint64, error) { return 0, nil }
func (s *stubClient) Transfer(ctx context.Context, to string, amount, fee uint64) (ledgerv1.Result, error) {
	return ledgerv1.Result{}, nil
}
func (s *stubClient) TransferFrom(ctx context.Context, from, to string, amount uint64) (ledgerv1.Result, error) {
	return ledgerv1.Result{}, nil
}
func (s *stubClient) Metadata(ctx context.Context) (ledgerv1.Metadata, error) {
	return s.meta, s.err
}

type stubFactory struct {
	client *stubClient
	err    error
}

func (f *stubFactory) For(token string) (ledgerv1.Client, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func newTestUsecase(t *testing.T, factory LedgerFactory, listingFee uint64) (*Usecase, *Registry, *balances.Ledger) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	reg := NewRegistry()
	books := bookreg.New()
	bal := balances.New()
	return New(reg, books, bal, factory, log, listingFee, "PAYMENT", "fee-acct"), reg, bal
}

func TestListToken_Success(t *testing.T) {
	factory := &stubFactory{client: &stubClient{meta: ledgerv1.Metadata{Symbol: "ICP", Decimals: 8}}}
	uc, reg, bal := newTestUsecase(t, factory, 100)
	bal.CreditLiquid("lister", "PAYMENT", 100)

	require.NoError(t, uc.ListToken(context.Background(), "lister", "ICP", 1000))

	rec, ok := reg.Get("ICP")
	require.True(t, ok)
	assert.Equal(t, "ICP", rec.Symbol)
	assert.Equal(t, uint32(8), rec.Decimals)

	liquid, _ := bal.Read("lister", "PAYMENT")
	assert.Equal(t, uint64(0), liquid)
	feeLiquid, _ := bal.Read("fee-acct", "PAYMENT")
	assert.Equal(t, uint64(100), feeLiquid)
}

func TestListToken_AlreadyListed(t *testing.T) {
	factory := &stubFactory{client: &stubClient{meta: ledgerv1.Metadata{Symbol: "ICP"}}}
	uc, _, bal := newTestUsecase(t, factory, 0)
	bal.CreditLiquid("lister", "PAYMENT", 0)

	require.NoError(t, uc.ListToken(context.Background(), "lister", "ICP", 1000))
	err := uc.ListToken(context.Background(), "lister", "ICP", 1001)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.AlreadyListed))
}

func TestListToken_InsufficientFeeBalance(t *testing.T) {
	factory := &stubFactory{client: &stubClient{meta: ledgerv1.Metadata{Symbol: "ICP"}}}
	uc, reg, _ := newTestUsecase(t, factory, 50)

	err := uc.ListToken(context.Background(), "lister", "ICP", 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InsufficientLiquidity))
	_, ok := reg.Get("ICP")
	assert.False(t, ok, "no TokenRecord should exist after a failed listing")
}

func TestListToken_DecimalsTooLarge(t *testing.T) {
	factory := &stubFactory{client: &stubClient{meta: ledgerv1.Metadata{Decimals: tokenv1.MaxDecimals + 1}}}
	uc, _, _ := newTestUsecase(t, factory, 0)

	err := uc.ListToken(context.Background(), "lister", "ICP", 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.Validation))
}

func TestDelist_RemovesRecordAndBook(t *testing.T) {
	factory := &stubFactory{client: &stubClient{meta: ledgerv1.Metadata{Symbol: "ICP"}}}
	uc, reg, _ := newTestUsecase(t, factory, 0)

	require.NoError(t, uc.ListToken(context.Background(), "lister", "ICP", 1000))
	uc.Delist("ICP")

	_, ok := reg.Get("ICP")
	assert.False(t, ok)
	_, ok = uc.books.Get("ICP")
	assert.False(t, ok)
}

func TestTouchActivity_UnknownTokenNoop(t *testing.T) {
	reg := NewRegistry()
	reg.TouchActivity("nope", 123) // must not panic
}
