package orderv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
}

func TestOrder_IsMarket(t *testing.T) {
	assert.True(t, (&Order{Price: 0}).IsMarket())
	assert.False(t, (&Order{Price: 1}).IsMarket())
}

func TestKeyFor_PriceOrdering(t *testing.T) {
	// Buys should sort best-price-first as price descending -> PriceKey ascending.
	cheapBuy := KeyFor(&Order{Side: Buy, Price: 10, TimestampNanos: 1})
	richBuy := KeyFor(&Order{Side: Buy, Price: 20, TimestampNanos: 1})
	assert.True(t, richBuy.Less(cheapBuy))

	cheapSell := KeyFor(&Order{Side: Sell, Price: 10, TimestampNanos: 1})
	richSell := KeyFor(&Order{Side: Sell, Price: 20, TimestampNanos: 1})
	assert.True(t, cheapSell.Less(richSell))
}

func TestKeyFor_FIFOTiebreak(t *testing.T) {
	first := KeyFor(&Order{Side: Sell, Price: 10, TimestampNanos: 1, Owner: "z"})
	second := KeyFor(&Order{Side: Sell, Price: 10, TimestampNanos: 2, Owner: "a"})
	assert.True(t, first.Less(second))
}

func TestKeyFor_OwnerTiebreak(t *testing.T) {
	a := KeyFor(&Order{Side: Sell, Price: 10, TimestampNanos: 1, Owner: "a"})
	b := KeyFor(&Order{Side: Sell, Price: 10, TimestampNanos: 1, Owner: "b"})
	assert.True(t, a.Less(b))
}
