package balances

import (
	"testing"

	balancev1 "github.com/beacon-exchange/beacon/internal/domain/balance/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_CreditDebitLiquid(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 100)

	liquid, locked := l.Read("alice", "ICP")
	assert.Equal(t, uint64(100), liquid)
	assert.Equal(t, uint64(0), locked)

	require.NoError(t, l.DebitLiquid("alice", "ICP", 40))
	liquid, _ = l.Read("alice", "ICP")
	assert.Equal(t, uint64(60), liquid)
}

func TestLedger_DebitLiquid_Insufficient(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 10)

	err := l.DebitLiquid("alice", "ICP", 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InsufficientLiquidity))
}

func TestLedger_LockUnlock(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 100)

	require.NoError(t, l.Lock("alice", "ICP", 30))
	liquid, locked := l.Read("alice", "ICP")
	assert.Equal(t, uint64(70), liquid)
	assert.Equal(t, uint64(30), locked)

	require.NoError(t, l.Unlock("alice", "ICP", 30))
	liquid, locked = l.Read("alice", "ICP")
	assert.Equal(t, uint64(100), liquid)
	assert.Equal(t, uint64(0), locked)
}

func TestLedger_Unlock_MoreThanLocked(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 10)
	require.NoError(t, l.Lock("alice", "ICP", 5))

	err := l.Unlock("alice", "ICP", 6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.InvariantViolation))
}

func TestLedger_Settle(t *testing.T) {
	l := New()
	l.CreditLiquid("seller", "BEAC", 50)
	require.NoError(t, l.Lock("seller", "BEAC", 50))

	require.NoError(t, l.Settle("seller", "buyer", "BEAC", 50))

	_, sellerLocked := l.Read("seller", "BEAC")
	buyerLiquid, _ := l.Read("buyer", "BEAC")
	assert.Equal(t, uint64(0), sellerLocked)
	assert.Equal(t, uint64(50), buyerLiquid)
}

func TestLedger_SnapshotRestore(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 100)
	require.NoError(t, l.Lock("alice", "ICP", 40))

	keys := []balancev1.Key{{Owner: "alice", Token: "ICP"}}
	snap := l.Snapshot(keys)

	require.NoError(t, l.Lock("alice", "ICP", 60))
	liquid, locked := l.Read("alice", "ICP")
	assert.Equal(t, uint64(0), liquid)
	assert.Equal(t, uint64(100), locked)

	l.Restore(snap)
	liquid, locked = l.Read("alice", "ICP")
	assert.Equal(t, uint64(60), liquid)
	assert.Equal(t, uint64(40), locked)
}

func TestLedger_TotalOf(t *testing.T) {
	l := New()
	l.CreditLiquid("alice", "ICP", 30)
	l.CreditLiquid("bob", "ICP", 20)
	require.NoError(t, l.Lock("bob", "ICP", 5))
	l.CreditLiquid("alice", "OTHER", 999)

	assert.Equal(t, uint64(50), l.TotalOf("ICP"))
}
