package orderv1

// Side is the resting/taking direction of an order on a token's book.
type Side string

const (
	// Buy orders pay the payment token to receive the traded token.
	Buy Side = "buy"
	// Sell orders pay the traded token to receive the payment token.
	Sell Side = "sell"
)

// Opposite returns the side a taker on this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Order is the immutable tuple described in spec §3. Price == 0 denotes a
// market order; a market order never resides in a book.
type Order struct {
	Owner          string
	Side           Side
	Token          string
	AmountRemain   uint64
	Price          uint64
	TimestampNanos int64
	// PaymentFeeSnapshot is the FEE_BPS value in effect when this order
	// was created, frozen into the order so a later fee-rate change
	// never changes what a resting order was promised.
	PaymentFeeSnapshot uint64
}

// IsMarket reports whether o is a market order (price == 0).
func (o *Order) IsMarket() bool {
	return o.Price == 0
}

// Key is the composite book key from spec §3: Buys are ordered by
// (-price, timestamp, owner), Sells by (+price, timestamp, owner).
type Key struct {
	PriceKey  int64 // -price for Buy, +price for Sell, so ascending sort gives best price first
	Timestamp int64
	Owner     string
}

// KeyFor builds the composite ordering key for o.
func KeyFor(o *Order) Key {
	pk := int64(o.Price)
	if o.Side == Buy {
		pk = -pk
	}
	return Key{PriceKey: pk, Timestamp: o.TimestampNanos, Owner: o.Owner}
}

// Less implements the tie-break chain from spec §4.C: price, then FIFO
// timestamp, then owner.
func (k Key) Less(other Key) bool {
	if k.PriceKey != other.PriceKey {
		return k.PriceKey < other.PriceKey
	}
	if k.Timestamp != other.Timestamp {
		return k.Timestamp < other.Timestamp
	}
	return k.Owner < other.Owner
}
