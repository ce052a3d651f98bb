package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lightninglabs/l402x/internal/dbutil"
	"github.com/lightninglabs/l402x/internal/sqlschema"
	"github.com/lightningnetwork/lnd/clock"

	_ "github.com/lib/pq"
)

// SQLStore is a Store backed by Postgres, matching the reference schema:
//
//	credentials(id, location, macaroon, preimage, invoice, created_at)
//	INDEX (location)
//
// It is intended for clients that run as long-lived services (e.g. a
// scheduled job that re-pays and replays a handful of L402-gated URLs) where
// credentials need to survive process restarts and be shared across
// instances.
type SQLStore struct {
	db    *sql.DB
	exec  *dbutil.Executor
	clock clock.Clock
}

// A compile-time check that SQLStore implements Store.
var _ Store = (*SQLStore)(nil)

// NewPostgresStore opens a connection to dsn and applies migrations.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("credstore: unable to open postgres "+
			"database: %w", err)
	}

	if err := sqlschema.MigratePostgres(db); err != nil {
		return nil, fmt.Errorf("credstore: unable to migrate "+
			"postgres database: %w", err)
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

// Store appends cred as a new row; prior rows for the same location are left
// untouched.
//
// NOTE: This is part of the Store interface.
func (s *SQLStore) Store(ctx context.Context, cred Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = s.clock.Now().UTC()
	}

	return s.exec.ExecTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx, `INSERT INTO credentials
				(location, macaroon, preimage, invoice,
					created_at)
				VALUES ($1, $2, $3, $4, $5)`,
			cred.Location, cred.Macaroon, nullIfEmpty(cred.PreimageHex),
			cred.Invoice, cred.CreatedAt,
		)
		return err
	})
}

// Get returns the credential with the greatest created_at for location.
//
// NOTE: This is part of the Store interface.
func (s *SQLStore) Get(ctx context.Context, location string) (*Credential, error) {
	row := s.db.QueryRowContext(
		ctx, `SELECT macaroon, invoice, COALESCE(preimage, ''),
			created_at
			FROM credentials
			WHERE location = $1
			ORDER BY created_at DESC
			LIMIT 1`,
		location,
	)

	cred := Credential{Location: location}
	err := row.Scan(
		&cred.Macaroon, &cred.Invoice, &cred.PreimageHex,
		&cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("credstore: query failed: %w", err)
	}

	return &cred, nil
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
