package bookv1

import (
	"sort"
	"sync"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
)

// Limit is one price level of a Book: every resting order quoting the
// same price, held in FIFO (timestamp, then owner) priority order.
type Limit struct {
	Price  uint64
	orders []*orderv1.Order
	mu     sync.RWMutex
}

// NewLimit creates an empty Limit at price.
func NewLimit(price uint64) *Limit {
	return &Limit{Price: price, orders: make([]*orderv1.Order, 0, 4)}
}

// Insert adds an order to the limit, preserving FIFO priority.
func (l *Limit) Insert(o *orderv1.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orders = append(l.orders, o)
	sort.SliceStable(l.orders, func(i, j int) bool {
		return orderv1.KeyFor(l.orders[i]).Less(orderv1.KeyFor(l.orders[j]))
	})
}

// Remove drops o from the limit. Returns false if o isn't present.
func (l *Limit) Remove(o *orderv1.Order) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.orders {
		if existing == o {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			return true
		}
	}
	return false
}

// Orders returns a priority-ordered copy of the resting orders.
func (l *Limit) Orders() []*orderv1.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*orderv1.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// IsEmpty reports whether the limit holds no orders.
func (l *Limit) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders) == 0
}

// TotalVolume sums AmountRemain across resting orders.
func (l *Limit) TotalVolume() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var total uint64
	for _, o := range l.orders {
		total += o.AmountRemain
	}
	return total
}
