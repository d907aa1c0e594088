// Package migrate applies the embedded schema for the configured driver using
// golang-migrate.  Each driver has its own directory of numbered
// up/down files; both describe the same tables.
package migrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed mysql/*.sql postgres/*.sql
var migrations embed.FS

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

// migratorFactory is swapped in tests.
var migratorFactory = newMigrator

func newMigrator(db *sql.DB, driver string) (migrator, error) {
	var (
		inst database.Driver
		err  error
	)
	switch driver {
	case "mysql":
		inst, err = mysql.WithInstance(db, &mysql.Config{})
	case "postgres":
		inst, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return nil, fmt.Errorf("migrate: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s driver: %w", driver, err)
	}

	source, err := iofs.New(migrations, driver)
	if err != nil {
		return nil, fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, inst)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Run applies all pending migrations.  Already-applied versions are skipped.
func Run(db *sql.DB, driver string) error {
	m, err := migratorFactory(db, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("getting migration version: %w", err)
	}

	if dirty {
		zap.L().Warn("database migration state is dirty", zap.Uint("version", version))
	} else {
		zap.L().Info("database migrations complete", zap.Uint("version", version))
	}
	return nil
}

// Down rolls back every migration.  All data is lost.
func Down(db *sql.DB, driver string) error {
	m, err := migratorFactory(db, driver)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}
	return nil
}
