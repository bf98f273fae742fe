package archive

import (
	"context"
	"sync"
	"time"

	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/pkg/logger"
)

// Sink persists a batch of trades. The Postgres archive repository and
// the Kafka publisher both implement it.
type Sink interface {
	WriteTrades(ctx context.Context, trades []tradev1.Trade) error
}

// Flusher periodically drains a Buffer into one or more Sinks, grounded
// on the matching engine's ticker-driven snapshot loop.
type Flusher struct {
	buffer   *Buffer
	sinks    []Sink
	logger   logger.Interface
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFlusher creates a Flusher writing to every given sink on each tick.
func NewFlusher(buffer *Buffer, log logger.Interface, interval time.Duration, sinks ...Sink) *Flusher {
	return &Flusher{buffer: buffer, sinks: sinks, logger: log, interval: interval}
}

// Start launches the flush loop in a background goroutine.
func (f *Flusher) Start(ctx context.Context) {
	f.ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go f.run()
}

// Stop cancels the flush loop, draining one last time before returning.
func (f *Flusher) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
	f.FlushOnce(context.Background())
}

func (f *Flusher) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.FlushOnce(f.ctx)
		}
	}
}

// FlushOnce drains the buffer and writes the batch to every sink. A
// sink failure re-buffers the batch at the front so the next tick
// retries it; trades are never dropped silently.
func (f *Flusher) FlushOnce(ctx context.Context) {
	batch := f.buffer.Drain()
	if len(batch) == 0 {
		return
	}

	for _, sink := range f.sinks {
		if err := sink.WriteTrades(ctx, batch); err != nil {
			f.logger.Error(err, logger.Field{Key: "action", Value: "archive_flush"}, logger.Field{Key: "batch_size", Value: len(batch)})
			f.requeue(batch)
			return
		}
	}
}

func (f *Flusher) requeue(batch []tradev1.Trade) {
	f.buffer.mu.Lock()
	defer f.buffer.mu.Unlock()
	f.buffer.trades = append(batch, f.buffer.trades...)
}
