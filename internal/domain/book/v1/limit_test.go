package bookv1

import (
	"testing"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimit_InsertPreservesFIFO(t *testing.T) {
	l := NewLimit(10)
	second := &orderv1.Order{Owner: "b", Side: orderv1.Sell, Price: 10, AmountRemain: 5, TimestampNanos: 2}
	first := &orderv1.Order{Owner: "a", Side: orderv1.Sell, Price: 10, AmountRemain: 5, TimestampNanos: 1}
	l.Insert(second)
	l.Insert(first)

	orders := l.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, first, orders[0])
	assert.Equal(t, second, orders[1])
}

func TestLimit_RemoveMissingReturnsFalse(t *testing.T) {
	l := NewLimit(10)
	o := &orderv1.Order{Owner: "a", Side: orderv1.Sell, Price: 10, AmountRemain: 5, TimestampNanos: 1}
	assert.False(t, l.Remove(o))
}

func TestLimit_TotalVolume(t *testing.T) {
	l := NewLimit(10)
	l.Insert(&orderv1.Order{Owner: "a", AmountRemain: 5, TimestampNanos: 1})
	l.Insert(&orderv1.Order{Owner: "b", AmountRemain: 7, TimestampNanos: 2})

	assert.Equal(t, uint64(12), l.TotalVolume())
}

func TestLimit_IsEmpty(t *testing.T) {
	l := NewLimit(10)
	assert.True(t, l.IsEmpty())
	o := &orderv1.Order{Owner: "a", AmountRemain: 5, TimestampNanos: 1}
	l.Insert(o)
	assert.False(t, l.IsEmpty())
	l.Remove(o)
	assert.True(t, l.IsEmpty())
}
