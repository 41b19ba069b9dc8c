// internal/store/migrate.go
//
// Schema migrations for the SQL backends, read from assets/migrations/<driver>
// through golang-migrate's iofs source. Applying an up-to-date schema is a no-op.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/assets"
)

// migrateSQLite applies the SQLite migrations to the database file at path.
// It uses its own connection because the migrate driver closes it when done.
func migrateSQLite(path string) error {
	db, err := sql.Open("sqlite3", sqliteDSN(path, "immediate"))
	if err != nil {
		return fmt.Errorf("open sqlite for migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	return runMigrations("sqlite", "sqlite3", driver)
}

// migratePostgres applies the Postgres migrations to databaseURL.
func migratePostgres(databaseURL string) error {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	db := stdlib.OpenDB(*config.ConnConfig)
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create postgres migrate driver: %w", err)
	}
	return runMigrations("postgres", "postgres", driver)
}

func runMigrations(dir, name string, driver database.Driver) error {
	src, err := iofs.New(assets.FS, "migrations/"+dir)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("open %s migrations: %w", dir, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug().Str("driver", name).Msg("schema up to date")
			return nil
		}
		return fmt.Errorf("apply %s migrations: %w", dir, err)
	}
	version, _, _ := m.Version()
	log.Info().Str("driver", name).Uint("version", version).Msg("migrations applied")
	return nil
}
