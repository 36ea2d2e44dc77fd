// Package pgxutil holds transaction helpers for the pgx stdlib driver.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLTxConfig groups parameters for WithSQLTx.
type SQLTxConfig struct {
	Opts *sql.TxOptions
	// Attempts bounds how many times the transaction runs when Postgres
	// aborts it with a serialization failure or deadlock. Values below one
	// run it once.
	Attempts int
	Fn       func(*sql.Tx) error
}

// WithSQLTx runs cfg.Fn inside a transaction, committing on success and
// rolling back otherwise. Fn must be safe to re-run when Attempts > 1.
func WithSQLTx(ctx context.Context, db *sql.DB, cfg SQLTxConfig) error {
	attempts := max(cfg.Attempts, 1)
	var err error
	for i := range attempts {
		err = runTx(ctx, db, cfg)
		if err == nil || !IsRetryable(err) || i == attempts-1 {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(err, ctxErr)
		}
	}
	return err
}

func runTx(ctx context.Context, db *sql.DB, cfg SQLTxConfig) (err error) {
	tx, err := db.BeginTx(ctx, cfg.Opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = cfg.Fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// IsRetryable reports whether err is a transaction abort that succeeds on rerun.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
		return true
	default:
		return false
	}
}
