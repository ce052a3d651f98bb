package rootkeystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lightninglabs/l402x/internal/dbutil"
	"github.com/lightninglabs/l402x/internal/sqlschema"
	"github.com/lightninglabs/l402x/l402"
	"github.com/lightningnetwork/lnd/clock"

	_ "modernc.org/sqlite"
)

// SQLStore is a Store backed by a SQL database, matching the reference
// schema:
//
//	macaroons(id, token_id UNIQUE, root_key, macaroon, created_at)
//	INDEX (token_id)
//
// The default driver is the pure-Go modernc.org/sqlite, avoiding a cgo
// dependency for the common single-node deployment; another database/sql
// driver can be substituted by constructing and migrating the *sql.DB
// externally and passing it to NewSQLStoreFromDB, provided it accepts the
// "?" placeholders these queries use.
type SQLStore struct {
	db    *sql.DB
	exec  *dbutil.Executor
	clock clock.Clock
}

// A compile-time check that SQLStore implements Store.
var _ Store = (*SQLStore)(nil)

// NewSQLiteStore opens (creating if necessary) a sqlite database at dsn and
// applies migrations.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("rootkeystore: unable to open sqlite "+
			"database: %w", err)
	}

	// The pure-Go sqlite driver does not support concurrent writers from
	// multiple connections against the same file; a single connection
	// avoids SQLITE_BUSY under load and matches the store's own
	// serialization discipline for its in-memory sibling.
	db.SetMaxOpenConns(1)

	if err := sqlschema.MigrateSQLite(db); err != nil {
		return nil, fmt.Errorf("rootkeystore: unable to migrate "+
			"sqlite database: %w", err)
	}

	return NewSQLStoreFromDB(db), nil
}

// NewSQLStoreFromDB wraps an already-open, already-migrated *sql.DB.
func NewSQLStoreFromDB(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:    db,
		exec:  dbutil.NewExecutor(db),
		clock: clock.NewDefaultClock(),
	}
}

// InsertRootKey stores rec in a single atomic transaction, translating a
// unique-constraint violation on token_id into ErrAlreadyExists.
//
// NOTE: This is part of the Store interface.
func (s *SQLStore) InsertRootKey(ctx context.Context, rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clock.Now().UTC()
	}

	err := s.exec.ExecTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx, `INSERT INTO macaroons
				(token_id, root_key, macaroon, created_at)
				VALUES (?, ?, ?, ?)`,
			rec.TokenID[:], rec.RootKey[:], rec.MacaroonBlob,
			rec.CreatedAt,
		)
		return err
	})

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %x", ErrAlreadyExists, rec.TokenID)
	}

	return err
}

// GetRootKey returns the root key stored for tokenID.
//
// NOTE: This is part of the Store interface.
func (s *SQLStore) GetRootKey(ctx context.Context,
	tokenID l402.TokenID) (RootKey, error) {

	row := s.db.QueryRowContext(
		ctx, `SELECT root_key FROM macaroons WHERE token_id = ?`,
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
func (s *SQLStore) Close() error {
	return s.db.Close()
}
