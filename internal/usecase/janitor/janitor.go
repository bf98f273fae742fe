// Package janitor implements the periodic TTL sweeps of spec §4.G:
// expiring stale resting orders, pruning the trade archive, and
// delisting tokens that have gone quiet. It is grounded on the
// matching-service engine's ticker-driven background loop.
package janitor

import (
	"context"
	"sync"
	"time"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	"github.com/beacon-exchange/beacon/internal/usecase/balances"
	bookreg "github.com/beacon-exchange/beacon/internal/usecase/book"
	"github.com/beacon-exchange/beacon/internal/usecase/invariants"
	"github.com/beacon-exchange/beacon/internal/usecase/tokens"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"go.uber.org/multierr"
)

// NowFunc supplies the current time in nanoseconds.
type NowFunc func() int64

// ArchivePruner deletes archived trades older than a cutoff. Backed by
// the Postgres archive table in production.
type ArchivePruner interface {
	PruneOlderThan(ctx context.Context, cutoffNanos int64) (int, error)
}

// Config holds the TTLs and batching knobs from spec §4.G.
type Config struct {
	OrderTTL      time.Duration
	ArchiveTTL    time.Duration
	DelistTTL     time.Duration
	Interval      time.Duration
	Batch         int
	PaymentToken  string
}

// Janitor runs the background sweeps. Every sweep call mutates state
// through the same balances/tokens/book primitives the matcher uses, so
// it is subject to the same single-threaded serialization (spec §5) —
// the engine is responsible for never running a sweep concurrently with
// a mutating RPC.
type Janitor struct {
	tokensReg *tokens.Registry
	tokensUC  *tokens.Usecase
	books     *bookreg.Registry
	balances  *balances.Ledger
	archive   ArchivePruner
	logger    logger.Interface
	now       NowFunc
	cfg       Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Janitor.
func New(tokensReg *tokens.Registry, tokensUC *tokens.Usecase, books *bookreg.Registry, bal *balances.Ledger, archive ArchivePruner, log logger.Interface, now NowFunc, cfg Config) *Janitor {
	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}
	return &Janitor{
		tokensReg: tokensReg,
		tokensUC:  tokensUC,
		books:     books,
		balances:  bal,
		archive:   archive,
		logger:    log,
		now:       now,
		cfg:       cfg,
	}
}

// Start launches the sweep loop in a background goroutine.
func (j *Janitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(1)
	go j.run()
}

// Stop cancels the sweep loop and waits for it to exit.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
	j.wg.Wait()
}

func (j *Janitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			if err := j.SweepOnce(j.ctx); err != nil {
				j.logger.Error(err, logger.Field{Key: "action", Value: "janitor_sweep"})
			}
		}
	}
}

// SweepOnce runs one pass of all three sweeps, aggregating every
// per-token error instead of aborting on the first one.
func (j *Janitor) SweepOnce(ctx context.Context) error {
	now := j.now()

	var errs error
	errs = multierr.Append(errs, j.sweepExpiredOrders(now))
	errs = multierr.Append(errs, j.sweepDelistable(now))
	if j.archive != nil {
		if _, err := j.archive.PruneOlderThan(ctx, now-j.cfg.ArchiveTTL.Nanoseconds()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// sweepExpiredOrders cancels every resting order older than OrderTTL
// and unlocks the balance it had reserved, up to Batch orders per call.
func (j *Janitor) sweepExpiredOrders(nowNanos int64) error {
	var errs error
	processed := 0

	for _, token := range j.books.Tokens() {
		book, ok := j.books.Get(token)
		if !ok {
			continue
		}
		rec, ok := j.tokensReg.Get(token)
		if !ok {
			continue
		}
		base := rec.Base()

		for _, o := range book.AllOrders() {
			if processed >= j.cfg.Batch {
				return errs
			}
			if nowNanos-o.TimestampNanos <= j.cfg.OrderTTL.Nanoseconds() {
				continue
			}
			if !book.Cancel(o) {
				continue // already matched away by a concurrent-in-sequence trade
			}
			processed++

			if err := j.unlockOrder(o, base); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			j.logger.Info("order expired",
				logger.Field{Key: "token", Value: token},
				logger.Field{Key: "owner", Value: o.Owner},
				logger.Field{Key: "side", Value: o.Side},
			)
		}
	}
	return errs
}

func (j *Janitor) unlockOrder(o *orderv1.Order, base uint64) error {
	if o.Side == orderv1.Sell {
		return j.balances.Unlock(o.Owner, o.Token, o.AmountRemain)
	}
	required := invariants.CeilDiv(o.AmountRemain, o.Price, base)
	return j.balances.Unlock(o.Owner, j.cfg.PaymentToken, required)
}

// sweepDelistable delists every token that has been inactive past
// DelistTTL and currently has an empty book (spec §4.G delist
// precondition: balances are untouched, only the TokenRecord and Book
// entry are removed).
func (j *Janitor) sweepDelistable(nowNanos int64) error {
	for _, rec := range j.tokensReg.List() {
		if nowNanos-rec.LastActivityNanos <= j.cfg.DelistTTL.Nanoseconds() {
			continue
		}
		book, ok := j.books.Get(rec.ID)
		if !ok || !book.IsEmpty() {
			continue
		}
		j.tokensUC.Delist(rec.ID)
		j.logger.Info("token delisted", logger.Field{Key: "token", Value: rec.ID})
	}
	return nil
}
