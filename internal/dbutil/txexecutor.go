// Package dbutil provides the small amount of transaction-retry glue shared
// by the SQL-backed root-key and credential stores. It operates directly on
// *sql.Tx rather than a generated Querier, since neither store needs one.
package dbutil

import (
	"context"
	"database/sql"
	"errors"
	prand "math/rand"
	"strings"
	"time"
)

const (
	// DefaultNumTxRetries is the default number of times a transaction
	// will be retried if it fails with a retryable error.
	DefaultNumTxRetries = 10

	// DefaultRetryDelay is the maximum random backoff applied between
	// retries.
	DefaultRetryDelay = 50 * time.Millisecond
)

// ErrSerialization is returned by MapSQLError when the underlying driver
// reports a transaction serialization conflict that is safe to retry.
var ErrSerialization = errors.New("dbutil: transaction serialization error")

// ErrRetriesExceeded is returned when a transaction could not be committed
// within the configured number of retries.
var ErrRetriesExceeded = errors.New("dbutil: transaction retries exceeded")

// MapSQLError classifies raw driver errors, wrapping retryable conflicts as
// ErrSerialization so callers can distinguish them from permanent failures.
// SQLite reports lock contention as "database is locked"; Postgres reports
// serialization failures via SQLSTATE 40001, surfaced here textually since
// this package avoids a direct dependency on a specific driver's error type.
func MapSQLError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "serialization failure"),
		strings.Contains(msg, "40001"),
		strings.Contains(msg, "could not serialize access"):

		return errWrap(ErrSerialization, err)
	default:
		return err
	}
}

func errWrap(sentinel, cause error) error {
	return &wrappedErr{sentinel: sentinel, cause: cause}
}

type wrappedErr struct {
	sentinel error
	cause    error
}

func (w *wrappedErr) Error() string {
	return w.sentinel.Error() + ": " + w.cause.Error()
}

func (w *wrappedErr) Unwrap() error {
	return w.sentinel
}

// Executor runs a txBody function against a fresh *sql.Tx, retrying when the
// body fails with a serialization conflict.
type Executor struct {
	db         *sql.DB
	numRetries int
	retryDelay time.Duration
}

// NewExecutor creates an Executor backed by db with the default retry
// policy.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{
		db:         db,
		numRetries: DefaultNumTxRetries,
		retryDelay: DefaultRetryDelay,
	}
}

func (e *Executor) randRetryDelay() time.Duration {
	if e.retryDelay <= 0 {
		return 0
	}
	return time.Duration(prand.Int63n(int64(e.retryDelay))) //nolint:gosec
}

// ExecTx runs txBody inside a transaction opened with opts, retrying on
// serialization conflicts up to e.numRetries times.
func (e *Executor) ExecTx(ctx context.Context, opts *sql.TxOptions,
	txBody func(*sql.Tx) error) error {

	for i := 0; i <= e.numRetries; i++ {
		tx, err := e.db.BeginTx(ctx, opts)
		if err != nil {
			return err
		}

		if err := txBody(tx); err != nil {
			_ = tx.Rollback()

			dbErr := MapSQLError(err)
			if errors.Is(dbErr, ErrSerialization) {
				time.Sleep(e.randRetryDelay())
				continue
			}

			return dbErr
		}

		if err := tx.Commit(); err != nil {
			_ = tx.Rollback()
			return MapSQLError(err)
		}

		return nil
	}

	return ErrRetriesExceeded
}
