package bookv1

import (
	"sort"
	"sync"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
)

// Book holds one traded token's two sides, each a set of price levels in
// price-time priority (spec §3, component C). Zero value is not usable;
// use NewBook.
type Book struct {
	mu    sync.RWMutex
	buys  map[uint64]*Limit
	sells map[uint64]*Limit
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{
		buys:  make(map[uint64]*Limit),
		sells: make(map[uint64]*Limit),
	}
}

func (b *Book) sideMap(side orderv1.Side) map[uint64]*Limit {
	if side == orderv1.Buy {
		return b.buys
	}
	return b.sells
}

// Insert adds a resting order to its side at its price. The level appends
// the order and re-sorts its slice (O(k log k) for k orders at that
// price); a new price level is O(1) to create.
func (b *Book) Insert(o *orderv1.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.sideMap(o.Side)
	limit, ok := m[o.Price]
	if !ok {
		limit = NewLimit(o.Price)
		m[o.Price] = limit
	}
	limit.Insert(o)
}

// Cancel removes o from its side, dropping the price level if it becomes
// empty. Idempotent: cancelling an absent order returns false, not an
// error (spec §7 taxonomy entry 6).
func (b *Book) Cancel(o *orderv1.Order) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	m := b.sideMap(o.Side)
	limit, ok := m[o.Price]
	if !ok {
		return false
	}
	removed := limit.Remove(o)
	if removed && limit.IsEmpty() {
		delete(m, o.Price)
	}
	return removed
}

// MatchableLimits returns the opposite side's price levels eligible to
// match against a taker quoting (side, limitPrice), best price first.
// limitPrice is ignored (every level matches) for market orders.
func (b *Book) MatchableLimits(takerSide orderv1.Side, limitPrice uint64, isMarket bool) []*Limit {
	b.mu.RLock()
	defer b.mu.RUnlock()

	opposite := b.sideMap(takerSide.Opposite())
	limits := make([]*Limit, 0, len(opposite))
	for _, l := range opposite {
		limits = append(limits, l)
	}

	if takerSide == orderv1.Buy {
		// Taker buys: matches asks ascending price, stop above limitPrice.
		sort.Slice(limits, func(i, j int) bool { return limits[i].Price < limits[j].Price })
		if !isMarket {
			limits = filterLimits(limits, func(p uint64) bool { return p <= limitPrice })
		}
	} else {
		// Taker sells: matches bids descending price, stop below limitPrice.
		sort.Slice(limits, func(i, j int) bool { return limits[i].Price > limits[j].Price })
		if !isMarket {
			limits = filterLimits(limits, func(p uint64) bool { return p >= limitPrice })
		}
	}
	return limits
}

func filterLimits(limits []*Limit, keep func(price uint64) bool) []*Limit {
	out := limits[:0:0]
	for _, l := range limits {
		if keep(l.Price) {
			out = append(out, l)
		}
	}
	return out
}

// DropIfEmpty removes the price level for limit on side if it has become
// empty — called by the matcher after consuming orders from a limit it
// obtained via MatchableLimits.
func (b *Book) DropIfEmpty(side orderv1.Side, limit *Limit) {
	if !limit.IsEmpty() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.sideMap(side)
	if existing, ok := m[limit.Price]; ok && existing == limit {
		delete(m, limit.Price)
	}
}

// Best returns the best resting order on side, or nil if the side is empty.
func (b *Book) Best(side orderv1.Side) *orderv1.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m := b.sideMap(side)
	var best *Limit
	for _, l := range m {
		if best == nil {
			best = l
			continue
		}
		if side == orderv1.Buy && l.Price > best.Price {
			best = l
		}
		if side == orderv1.Sell && l.Price < best.Price {
			best = l
		}
	}
	if best == nil {
		return nil
	}
	orders := best.Orders()
	if len(orders) == 0 {
		return nil
	}
	return orders[0]
}

// Orders returns every resting order on side, in price-time priority.
func (b *Book) Orders(side orderv1.Side) []*orderv1.Order {
	b.mu.RLock()
	limits := make([]*Limit, 0, len(b.sideMap(side)))
	for _, l := range b.sideMap(side) {
		limits = append(limits, l)
	}
	b.mu.RUnlock()

	if side == orderv1.Buy {
		sort.Slice(limits, func(i, j int) bool { return limits[i].Price > limits[j].Price })
	} else {
		sort.Slice(limits, func(i, j int) bool { return limits[i].Price < limits[j].Price })
	}

	var out []*orderv1.Order
	for _, l := range limits {
		out = append(out, l.Orders()...)
	}
	return out
}

// AllOrders returns every resting order on both sides, for snapshotting
// and Janitor sweeps.
func (b *Book) AllOrders() []*orderv1.Order {
	return append(b.Orders(orderv1.Buy), b.Orders(orderv1.Sell)...)
}

// IsEmpty reports whether both sides have no resting orders (spec §4.G
// delist precondition).
func (b *Book) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buys) == 0 && len(b.sells) == 0
}
