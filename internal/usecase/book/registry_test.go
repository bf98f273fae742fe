package book

import (
	"testing"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := New()
	_, ok := r.Get("ICP")
	assert.False(t, ok)

	r.Create("ICP")
	b, ok := r.Get("ICP")
	require.True(t, ok)
	require.NotNil(t, b)

	r.Delete("ICP")
	_, ok = r.Get("ICP")
	assert.False(t, ok)
}

func TestRegistry_Tokens(t *testing.T) {
	r := New()
	r.Create("ICP")
	r.Create("ETH")

	tokens := r.Tokens()
	assert.ElementsMatch(t, []string{"ICP", "ETH"}, tokens)
}

func TestRegistry_BooksAreIndependent(t *testing.T) {
	r := New()
	r.Create("ICP")
	r.Create("ETH")

	icp, _ := r.Get("ICP")
	icp.Insert(&orderv1.Order{Owner: "a", Side: orderv1.Buy, Price: 10, AmountRemain: 5, TimestampNanos: 1})

	eth, _ := r.Get("ETH")
	assert.True(t, eth.IsEmpty())
	assert.False(t, icp.IsEmpty())
}
