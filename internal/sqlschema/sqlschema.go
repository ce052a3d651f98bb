// Package sqlschema embeds the migration files for each SQL-backed store and
// applies them with golang-migrate, so every store is migration-driven
// rather than assuming a pre-existing schema.
package sqlschema

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed postgres/*.sql
var postgresMigrations embed.FS

//go:embed postgres_rootkeys/*.sql
var postgresRootKeyMigrations embed.FS

// MigrateSQLite applies every pending sqlite migration to db.
func MigrateSQLite(db *sql.DB) error {
	src, err := iofs.New(sqliteMigrations, "sqlite")
	if err != nil {
		return fmt.Errorf("sqlschema: unable to load sqlite "+
			"migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create sqlite "+
			"migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create sqlite "+
			"migrator: %w", err)
	}

	return runUp(m)
}

// MigratePostgres applies every pending postgres migration to db.
func MigratePostgres(db *sql.DB) error {
	src, err := iofs.New(postgresMigrations, "postgres")
	if err != nil {
		return fmt.Errorf("sqlschema: unable to load postgres "+
			"migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create postgres "+
			"migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create postgres "+
			"migrator: %w", err)
	}

	return runUp(m)
}

// MigratePostgresRootKeys applies every pending postgres root-key-store
// migration to db. It is distinct from MigratePostgres because the two
// stores' schemas and migration histories are unrelated even though both
// happen to run against Postgres.
func MigratePostgresRootKeys(db *sql.DB) error {
	src, err := iofs.New(postgresRootKeyMigrations, "postgres_rootkeys")
	if err != nil {
		return fmt.Errorf("sqlschema: unable to load postgres "+
			"root key migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create postgres "+
			"migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", src, "postgres_rootkeys", driver,
	)
	if err != nil {
		return fmt.Errorf("sqlschema: unable to create postgres "+
			"migrator: %w", err)
	}

	return runUp(m)
}

func runUp(m *migrate.Migrate) error {
	err := m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
