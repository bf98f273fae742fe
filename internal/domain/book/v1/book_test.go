package bookv1

import (
	"testing"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_InsertAndOrders(t *testing.T) {
	b := NewBook()
	sell1 := &orderv1.Order{Owner: "a", Side: orderv1.Sell, AmountRemain: 5, Price: 10, TimestampNanos: 1}
	sell2 := &orderv1.Order{Owner: "b", Side: orderv1.Sell, AmountRemain: 5, Price: 9, TimestampNanos: 2}
	b.Insert(sell1)
	b.Insert(sell2)

	orders := b.Orders(orderv1.Sell)
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(9), orders[0].Price) // best ask is lowest price first
	assert.Equal(t, uint64(10), orders[1].Price)
}

func TestBook_CancelIdempotent(t *testing.T) {
	b := NewBook()
	o := &orderv1.Order{Owner: "a", Side: orderv1.Buy, AmountRemain: 5, Price: 10, TimestampNanos: 1}
	b.Insert(o)

	assert.True(t, b.Cancel(o))
	assert.False(t, b.Cancel(o)) // already gone: idempotent, no error
}

func TestBook_MatchableLimits_BuyAscending(t *testing.T) {
	b := NewBook()
	b.Insert(&orderv1.Order{Owner: "a", Side: orderv1.Sell, AmountRemain: 5, Price: 12, TimestampNanos: 1})
	b.Insert(&orderv1.Order{Owner: "b", Side: orderv1.Sell, AmountRemain: 5, Price: 10, TimestampNanos: 1})
	b.Insert(&orderv1.Order{Owner: "c", Side: orderv1.Sell, AmountRemain: 5, Price: 11, TimestampNanos: 1})

	limits := b.MatchableLimits(orderv1.Buy, 11, false)
	require.Len(t, limits, 2) // price 10 and 11 qualify, 12 doesn't
	assert.Equal(t, uint64(10), limits[0].Price)
	assert.Equal(t, uint64(11), limits[1].Price)
}

func TestBook_MatchableLimits_SellDescending(t *testing.T) {
	b := NewBook()
	b.Insert(&orderv1.Order{Owner: "a", Side: orderv1.Buy, AmountRemain: 5, Price: 8, TimestampNanos: 1})
	b.Insert(&orderv1.Order{Owner: "b", Side: orderv1.Buy, AmountRemain: 5, Price: 10, TimestampNanos: 1})
	b.Insert(&orderv1.Order{Owner: "c", Side: orderv1.Buy, AmountRemain: 5, Price: 9, TimestampNanos: 1})

	limits := b.MatchableLimits(orderv1.Sell, 9, false)
	require.Len(t, limits, 2) // 10 and 9 qualify, 8 doesn't
	assert.Equal(t, uint64(10), limits[0].Price)
	assert.Equal(t, uint64(9), limits[1].Price)
}

func TestBook_DropIfEmpty(t *testing.T) {
	b := NewBook()
	o := &orderv1.Order{Owner: "a", Side: orderv1.Sell, AmountRemain: 5, Price: 10, TimestampNanos: 1}
	b.Insert(o)

	limits := b.MatchableLimits(orderv1.Buy, 10, false)
	require.Len(t, limits, 1)
	limits[0].Remove(o)
	b.DropIfEmpty(orderv1.Sell, limits[0])

	assert.True(t, b.IsEmpty())
}

func TestBook_Best(t *testing.T) {
	b := NewBook()
	assert.Nil(t, b.Best(orderv1.Buy))

	b.Insert(&orderv1.Order{Owner: "a", Side: orderv1.Buy, AmountRemain: 5, Price: 8, TimestampNanos: 1})
	b.Insert(&orderv1.Order{Owner: "b", Side: orderv1.Buy, AmountRemain: 5, Price: 10, TimestampNanos: 1})

	best := b.Best(orderv1.Buy)
	require.NotNil(t, best)
	assert.Equal(t, uint64(10), best.Price)
}
