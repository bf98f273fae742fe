// Package archive holds the in-memory Trade buffer the matcher writes
// to directly, and the background flusher that drains it to durable
// storage. Buffering here keeps Matcher.Trade non-suspending (spec §5:
// no suspension inside the atomic body) — the only thing that ever
// blocks on Postgres or Kafka is the flusher, off the hot path.
package archive

import (
	"sync"

	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
)

// Buffer is an append-only, drain-on-demand holding area for trades
// completed by the matcher. It implements matcher.Archive.
type Buffer struct {
	mu     sync.Mutex
	trades []tradev1.Trade
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append records one completed fill. Never fails and never blocks.
func (b *Buffer) Append(t tradev1.Trade) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trades = append(b.trades, t)
}

// Drain removes and returns every buffered trade.
func (b *Buffer) Drain() []tradev1.Trade {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.trades) == 0 {
		return nil
	}
	out := b.trades
	b.trades = nil
	return out
}

// Len reports how many trades are currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.trades)
}
