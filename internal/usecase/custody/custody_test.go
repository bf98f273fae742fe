package custody

import (
	"context"
	"testing"

	ledgerv1 "github.com/beacon-exchange/beacon/internal/domain/ledger/v1"
	tokenv1 "github.com/beacon-exchange/beacon/internal/domain/token/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	balance         uint64
	balanceErr      error
	transferErr     error
	transferFromErr error
}

func (f *fakeClient) BalanceOf(ctx context.Context, owner string) (uint64, error) {
	return f.balance, f.balanceErr
}
func (f *fakeClient) Transfer(ctx context.Context, to string, amount, fee uint64) (ledgerv1.Result, error) {
	if f.transferErr != nil {
		return ledgerv1.Result{}, f.transferErr
	}
	return ledgerv1.Result{BlockIndex: 1}, nil
}
func (f *fakeClient) TransferFrom(ctx context.Context, from, to string, amount uint64) (ledgerv1.Result, error) {
	if f.transferFromErr != nil {
		return ledgerv1.Result{}, f.transferFromErr
	}
	return ledgerv1.Result{BlockIndex: 1}, nil
}
func (f *fakeClient) Metadata(ctx context.Context) (ledgerv1.Metadata, error) {
	return ledgerv1.Metadata{}, nil
}

type fakeFactory struct{ client *fakeClient }

func (f *fakeFactory) For(token string) (ledgerv1.Client, error) { return f.client, nil }

func setup(t *testing.T, client *fakeClient) (*Usecase, *balances.Ledger, *Custodied) {
	log, err := logger.NewLogger()
	require.NoError(t, err)

	reg := tokens.NewRegistry()
	reg.Restore(&tokenv1.TokenRecord{ID: "ICP", Decimals: 0, LedgerTransferFee: 1})
	bal := balances.New()
	cust := NewCustodied()
	return New(bal, reg, cust, &fakeFactory{client: client}, log, "contract-main"), bal, cust
}

func TestDeposit_Success(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{balance: 101}) // LedgerTransferFee is 1

	require.NoError(t, uc.Deposit(context.Background(), "alice", "ICP"))

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(100), liquid)
	assert.Equal(t, uint64(100), cust.Get("ICP"))
}

func TestDeposit_NotListed(t *testing.T) {
	uc, _, _ := setup(t, &fakeClient{balance: 101})

	err := uc.Deposit(context.Background(), "alice", "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotListed))
}

func TestDeposit_LedgerFailureLeavesNoTrace(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{balance: 101, transferFromErr: assertErr})

	err := uc.Deposit(context.Background(), "alice", "ICP")
	require.Error(t, err)

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(0), liquid)
	assert.Equal(t, uint64(0), cust.Get("ICP"))
}

func TestDeposit_BelowLedgerFeeIsNoOp(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{balance: 1}) // LedgerTransferFee is 1, usable saturates to 0

	require.NoError(t, uc.Deposit(context.Background(), "alice", "ICP"))

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(0), liquid)
	assert.Equal(t, uint64(0), cust.Get("ICP"))
}

func TestDeposit_BalanceOfFailurePreventsCredit(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{balanceErr: assertErr})

	err := uc.Deposit(context.Background(), "alice", "ICP")
	require.Error(t, err)

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(0), liquid)
	assert.Equal(t, uint64(0), cust.Get("ICP"))
}

func TestWithdraw_Success(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{})
	bal.CreditLiquid("alice", "ICP", 100)
	cust.Increase("ICP", 100)

	require.NoError(t, uc.Withdraw(context.Background(), "alice", "ICP", 50))

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(50), liquid)
	assert.Equal(t, uint64(50), cust.Get("ICP"))
}

func TestWithdraw_LedgerFailureRecreditsLiquid(t *testing.T) {
	uc, bal, cust := setup(t, &fakeClient{transferErr: assertErr})
	bal.CreditLiquid("alice", "ICP", 100)
	cust.Increase("ICP", 100)

	err := uc.Withdraw(context.Background(), "alice", "ICP", 50)
	require.Error(t, err)

	liquid, _ := bal.Read("alice", "ICP")
	assert.Equal(t, uint64(100), liquid, "failed push must recredit what Withdraw debited")
	assert.Equal(t, uint64(100), cust.Get("ICP"), "custodied total must not move on a failed withdraw")
}

func TestWithdraw_AmountBelowLedgerFee(t *testing.T) {
	uc, bal, _ := setup(t, &fakeClient{})
	bal.CreditLiquid("alice", "ICP", 100)

	err := uc.Withdraw(context.Background(), "alice", "ICP", 1) // LedgerTransferFee is 1
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.Validation))
}

var assertErr = errors.New(errors.Ledger, "", "simulated ledger failure")
