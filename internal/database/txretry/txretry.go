package txretry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const maxRetries = 5

// retryableStates are the Postgres SQLSTATEs that signal a transient
// conflict: serialization_failure and deadlock_detected.
var retryableStates = map[string]struct{}{
	"40001": {},
	"40P01": {},
}

// Runner executes a function inside a serializable transaction and, on a
// transient conflict, retries the whole function against a fresh
// transaction. The function must derive everything from the state it
// reads inside the transaction; partial results from an aborted attempt
// are discarded wholesale.
type Runner struct {
	db *sql.DB
}

func NewRunner(db *sql.DB) *Runner { return &Runner{db: db} }

func (r *Runner) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
			}
		}

		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err
		zap.L().Debug("txretry_conflict",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return lastErr
}

func (r *Runner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Retryable reports whether err is a transient persistence conflict.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := retryableStates[pgErr.Code]
		return ok
	}
	return false
}
