// Package database centralises sqlx connection helpers.  Two drivers are
// supported: go-sql-driver/mysql (also MariaDB) and lib/pq for PostgreSQL.
//
// Public entry points:
//
//	Open(ctx, driver, dsn)                     – conservative pool sizes.
//	OpenWithOptions(ctx, driver, dsn, opts)    – fine-grained control.
//	Builder(driver)                            – squirrel builder with the right placeholders.
//	IsUniqueViolation(err)                     – driver-neutral duplicate-key check.
//
// Both Open helpers Ping the database, retrying with backoff, before
// returning so callers can fail fast during bootstrap.  MySQL DSNs are
// forced to parseTime=true so DATETIME columns scan into time.Time, and to
// multiStatements=true so migration files may hold several statements.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Supported driver names.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
)

// ErrUnsupportedDriver is returned for any driver other than MySQL or Postgres.
var ErrUnsupportedDriver = errors.New("database: unsupported driver")

// Options tunes the pool and the bootstrap ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int
	RetryBackoff    time.Duration
}

// DefaultOptions: 15 max open, 5 idle, 30-minute lifetime, 3 ping attempts.
var DefaultOptions = Options{
	MaxOpenConns:    15,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	Retries:         3,
	RetryBackoff:    500 * time.Millisecond,
}

// Open returns a *sqlx.DB with DefaultOptions.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, DefaultOptions)
}

// OpenWithOptions opens and pings a pool.  Zero option fields fall back to
// DefaultOptions.
func OpenWithOptions(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	dsn, err := normaliseDSN(driver, dsn)
	if err != nil {
		return nil, err
	}
	opts = withDefaults(opts)

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	backoff := opts.RetryBackoff
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= opts.Retries {
			break
		}
		zap.L().Warn("database ping failed; retrying",
			zap.String("driver", driver), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping %s: %w", driver, err)
}

// Builder returns a squirrel builder using driver's placeholder format.
func Builder(driver string) sq.StatementBuilderType {
	if driver == Postgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// IsUniqueViolation reports whether err is a duplicate-key error from either
// driver (MySQL 1062, Postgres 23505).
func IsUniqueViolation(err error) bool {
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		return my.Number == 1062
	}
	var pg *pq.Error
	if errors.As(err, &pg) {
		return pg.Code == "23505"
	}
	return false
}

func normaliseDSN(driver, dsn string) (string, error) {
	switch driver {
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.MultiStatements = true
		return cfg.FormatDSN(), nil
	case Postgres:
		return dsn, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func withDefaults(o Options) Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultOptions.MaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = DefaultOptions.MaxIdleConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = DefaultOptions.ConnMaxLifetime
	}
	if o.Retries <= 0 {
		o.Retries = DefaultOptions.Retries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultOptions.RetryBackoff
	}
	return o
}
