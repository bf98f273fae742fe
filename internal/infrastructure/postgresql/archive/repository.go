// Package archive persists Trade records to Postgres, grounded on the
// order-management service's repository.go (pgx Exec/CopyFrom pattern).
package archive

import (
	"context"

	"github.com/jackc/pgx/v5"

	orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"
	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/beacon-exchange/beacon/pkg/postgresql"
)

// Repository is the Postgres-backed Trade archive (spec §3 "Archive").
type Repository struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

// NewRepository creates a Repository.
func NewRepository(db postgresql.PostgreSQLClient, log logger.Interface) *Repository {
	return &Repository{db: db, logger: log}
}

// WriteTrades bulk-inserts trades via COPY, satisfying archive.Sink.
func (r *Repository) WriteTrades(ctx context.Context, trades []tradev1.Trade) error {
	count, err := r.db.CopyFrom(ctx, pgx.Identifier{"trades"}, []string{
		"trade_id",
		"token",
		"maker",
		"taker",
		"taker_side",
		"amount",
		"price",
		"timestamp_nanos",
		"taker_fee",
		"maker_fee",
	}, pgx.CopyFromSlice(len(trades), func(i int) ([]any, error) {
		t := trades[i]
		return []any{
			t.ID,
			t.Token,
			t.Maker,
			t.Taker,
			string(t.TakerSide),
			t.Amount,
			t.Price,
			t.TimestampNanos,
			t.TakerFee,
			t.MakerFee,
		}, nil
	}))
	if err != nil {
		return errors.TracerFromError(err)
	}

	r.logger.Info("archived trades", logger.Field{Key: "count", Value: count})
	return nil
}

// PruneOlderThan deletes every trade archived before cutoffNanos,
// satisfying janitor.ArchivePruner.
func (r *Repository) PruneOlderThan(ctx context.Context, cutoffNanos int64) (int, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM trades WHERE timestamp_nanos < $1`, cutoffNanos)
	if err != nil {
		return 0, errors.TracerFromError(err)
	}
	return int(cmd.RowsAffected()), nil
}

// List returns trades for token at or after sinceNanos, newest first,
// for query-surface reads (spec §6 "trades(token, since)").
func (r *Repository) List(ctx context.Context, token string, sinceNanos int64, limit int) ([]tradev1.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT trade_id, token, maker, taker, taker_side, amount, price, timestamp_nanos, taker_fee, maker_fee
		FROM trades
		WHERE token = $1 AND timestamp_nanos >= $2
		ORDER BY timestamp_nanos DESC
		LIMIT $3`, token, sinceNanos, limit)
	if err != nil {
		return nil, errors.TracerFromError(err)
	}
	defer rows.Close()

	var out []tradev1.Trade
	for rows.Next() {
		var t tradev1.Trade
		var side string
		if err := rows.Scan(&t.ID, &t.Token, &t.Maker, &t.Taker, &side, &t.Amount, &t.Price, &t.TimestampNanos, &t.TakerFee, &t.MakerFee); err != nil {
			return nil, errors.TracerFromError(err)
		}
		t.TakerSide = orderv1.Side(side)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}
	return out, nil
}
