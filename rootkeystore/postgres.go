package rootkeystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/lightninglabs/l402x/internal/dbutil"
	"github.com/lightninglabs/l402x/internal/sqlschema"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightningnetwork/lnd/clock"
)

// PostgresStore is a Store backed by Postgres, for deployments that run the
// gated server as a replica set sharing a single root-key table rather than
// each instance keeping its own sqlite file.
type PostgresStore struct {
	db    *sql.DB
	exec  *dbutil.Executor
	clock clock.Clock
}

// A compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a connection to dsn and applies migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("rootkeystore: unable to open "+
			"postgres database: %w", err)
	}

	if err := sqlschema.MigratePostgresRootKeys(db); err != nil {
		return nil, fmt.Errorf("rootkeystore: unable to migrate "+
			"postgres database: %w", err)
	}

	return &PostgresStore{
		db:    db,
		exec:  dbutil.NewExecutor(db),
		clock: clock.NewDefaultClock(),
	}, nil
}

// InsertRootKey stores rec in a single atomic transaction, translating a
// unique-constraint violation on token_id into ErrAlreadyExists.
//
// NOTE: This is part of the Store interface.
func (s *PostgresStore) InsertRootKey(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Now().UTC()
	}

	err := s.exec.ExecTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx, `INSERT INTO macaroons
				(token_id, root_key, macaroon, created_at)
				VALUES ($1, $2, $3, $4)`,
			rec.TokenID[:], rec.RootKey[:], rec.MacaroonBlob,
			rec.CreatedAt,
		)
		return err
	})

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %x", ErrAlreadyExists, rec.TokenID)
	}

	return err
}

// GetRootKey returns the root key stored for tokenID.
//
// NOTE: This is part of the Store interface.
func (s *PostgresStore) GetRootKey(ctx context.Context,
	tokenID l402.TokenID) (RootKey, error) {

	row := s.db.QueryRowContext(
		ctx, `SELECT root_key FROM macaroons WHERE token_id = $1`,
		tokenID[:],
	)

	var rootKeyBytes []byte
	if err := row.Scan(&rootKeyBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RootKey{}, ErrNotFound
		}
		return RootKey{}, fmt.Errorf("rootkeystore: query failed: %w",
			err)
	}

	if len(rootKeyBytes) != RootKeySize {
		return RootKey{}, fmt.Errorf("rootkeystore: corrupt root key "+
			"for token id %x", tokenID)
	}

	var rootKey RootKey
	copy(rootKey[:], rootKeyBytes)

	return rootKey, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
