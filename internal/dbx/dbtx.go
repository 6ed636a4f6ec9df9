// Package dbx holds the database handle the repositories are built on and
// the transaction helper that keeps multi-table writes atomic.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// DBTX is what a repository needs from its handle. Passing a *sql.Tx instead
// of the *sql.DB puts the repository inside that transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn in one transaction. It commits when fn returns nil and rolls
// back when fn fails or panics; a panic is re-raised after the rollback. A
// failed rollback is reported together with the error of fn.
//
// The cascade deletes an account and enqueues its deferred purge steps this
// way, so that neither is visible without the other:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := rm.Purges(tx).Enqueue(ctx, ownerType, accountID, step, cause); err != nil {
//	        return err
//	    }
//	    return rm.Accounts(tx).Delete(ctx, accountID)
//	})
//
// fn must not call remote services. The transaction is held open while it runs.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = multierr.Append(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}
