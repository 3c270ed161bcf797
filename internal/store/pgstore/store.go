// Package pgstore is the Postgres implementation of the engine's
// persistence capabilities. Writes that must be atomic run through
// Store.Run, which wraps the whole unit in a serializable transaction
// with automatic retry on transient conflicts.
package pgstore

import (
	"context"
	"database/sql"

	"vehicleauctiongo/internal/auction"
	"vehicleauctiongo/internal/database/txretry"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session runs every query against one querier: the pool for autocommit
// access, a *sql.Tx inside Store.Run.
type session struct {
	q querier
}

var _ auction.Session = (*session)(nil)

type Store struct {
	session
	runner *txretry.Runner
}

var _ auction.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{
		session: session{q: db},
		runner:  txretry.NewRunner(db),
	}
}

func (s *Store) Run(ctx context.Context, fn func(auction.Session) error) error {
	return s.runner.InTx(ctx, func(tx *sql.Tx) error {
		return fn(&session{q: tx})
	})
}
