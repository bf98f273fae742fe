// Package state persists a versioned JSON snapshot of the engine's
// in-memory state to Postgres. The engine's snapshot holds the token
// registry, resting orders and custody totals; virtual balances are not
// part of it, so a restart restores books and tokens but not balances.
// Grounded on the matching engine's Redis-backed snapshot
// store, adapted to Postgres per spec's domain stack.
package state

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/beacon-exchange/beacon/pkg/errors"
	"github.com/beacon-exchange/beacon/pkg/logger"
	"github.com/beacon-exchange/beacon/pkg/postgresql"
)

// Store persists and loads versioned state blobs.
type Store struct {
	db     postgresql.PostgreSQLClient
	logger logger.Interface
}

// NewStore creates a Store.
func NewStore(db postgresql.PostgreSQLClient, log logger.Interface) *Store {
	return &Store{db: db, logger: log}
}

// Save marshals snapshot as JSON and writes it as the next version,
// keyed by name (one row per logical state machine, today just "engine").
func (s *Store) Save(ctx context.Context, name string, snapshot any) (version int64, err error) {
	buf, err := json.Marshal(snapshot)
	if err != nil {
		return 0, errors.TracerFromError(err)
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO engine_state (name, version, blob, updated_at)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (name) DO UPDATE
			SET version = engine_state.version + 1, blob = $2, updated_at = now()
		RETURNING version`, name, buf).Scan(&version)
	if err != nil {
		return 0, errors.TracerFromError(err)
	}

	s.logger.Info("state snapshot saved", logger.Field{Key: "name", Value: name}, logger.Field{Key: "version", Value: version})
	return version, nil
}

// Load reads the latest blob for name into out (a pointer), returning
// (0, nil) with out untouched if no snapshot has ever been saved.
func (s *Store) Load(ctx context.Context, name string, out any) (version int64, err error) {
	var buf []byte
	err = s.db.QueryRow(ctx, `SELECT version, blob FROM engine_state WHERE name = $1`, name).Scan(&version, &buf)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, errors.TracerFromError(err)
	}

	if err := json.Unmarshal(buf, out); err != nil {
		return 0, errors.TracerFromError(err)
	}
	return version, nil
}
