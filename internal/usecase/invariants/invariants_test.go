package invariants

import (
	"testing"

	bookv1 "github.com/beacon-exchange/beacon/internal/domain/book/v1"
	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, uint64(1), CeilDiv(1, 1, 3)) // 1*1/3 = 0.33 -> 1
	assert.Equal(t, uint64(2), CeilDiv(5, 1, 3)) // 5/3 = 1.67 -> 2
	assert.Equal(t, uint64(0), CeilDiv(0, 1, 3))
	assert.Equal(t, uint64(0), CeilDiv(5, 1, 0))
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, uint64(1), FloorDiv(5, 1, 3))
	assert.Equal(t, uint64(0), FloorDiv(1, 1, 3))
	assert.Equal(t, uint64(0), FloorDiv(5, 1, 0))
}

type fakeBalances struct {
	liquid, locked map[string]uint64
	total          map[string]uint64
}

func (f *fakeBalances) Read(owner, token string) (uint64, uint64) {
	return f.liquid[owner+token], f.locked[owner+token]
}

func (f *fakeBalances) TotalOf(token string) uint64 {
	return f.total[token]
}

type fakeCustody struct {
	custodied map[string]uint64
}

func (f *fakeCustody) Get(token string) uint64 {
	return f.custodied[token]
}

func TestCheckConservation_OK(t *testing.T) {
	bal := &fakeBalances{total: map[string]uint64{"ICP": 100}}
	cust := &fakeCustody{custodied: map[string]uint64{"ICP": 100}}

	require.NoError(t, CheckConservation("ICP", "fee-account", bal, cust))
}

func TestCheckConservation_Mismatch(t *testing.T) {
	bal := &fakeBalances{total: map[string]uint64{"ICP": 99}}
	cust := &fakeCustody{custodied: map[string]uint64{"ICP": 100}}

	err := CheckConservation("ICP", "fee-account", bal, cust)
	require.Error(t, err)
}

func TestCheckRestingLocks(t *testing.T) {
	book := bookv1.NewBook()
	sell := &orderv1.Order{Owner: "alice", Side: orderv1.Sell, Token: "ICP", AmountRemain: 10, Price: 5, TimestampNanos: 1}
	buy := &orderv1.Order{Owner: "bob", Side: orderv1.Buy, Token: "ICP", AmountRemain: 10, Price: 5, TimestampNanos: 2}
	book.Insert(sell)
	book.Insert(buy)

	bal := &fakeBalances{
		liquid: map[string]uint64{},
		locked: map[string]uint64{
			"aliceICP":     10,
			"bobPAYMENT":   CeilDiv(10, 5, 1),
		},
	}

	err := CheckRestingLocks(book, "ICP", "PAYMENT", 1, bal)
	require.NoError(t, err)
}

func TestCheckRestingLocks_Underfunded(t *testing.T) {
	book := bookv1.NewBook()
	sell := &orderv1.Order{Owner: "alice", Side: orderv1.Sell, Token: "ICP", AmountRemain: 10, Price: 5, TimestampNanos: 1}
	book.Insert(sell)

	bal := &fakeBalances{locked: map[string]uint64{"aliceICP": 3}}

	err := CheckRestingLocks(book, "ICP", "PAYMENT", 1, bal)
	require.Error(t, err)
}

func TestCheckNonZero(t *testing.T) {
	require.NoError(t, CheckNonZero(&orderv1.Order{AmountRemain: 1}))
	require.Error(t, CheckNonZero(&orderv1.Order{AmountRemain: 0}))
}
