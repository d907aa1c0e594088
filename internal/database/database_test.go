package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, IsUniqueViolation(&mysql.MySQLError{Number: 1045}))

	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))

	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestBuilderPlaceholders(t *testing.T) {
	q, _, err := Builder(Postgres).Select("id").From("t").Where("a = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t WHERE a = $1", q)

	q, _, err = Builder(MySQL).Select("id").From("t").Where("a = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t WHERE a = ?", q)
}

func TestNormaliseDSN(t *testing.T) {
	dsn, err := normaliseDSN(MySQL, "user:pw@tcp(db:3306)/sermons")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")

	dsn, err = normaliseDSN(Postgres, "postgres://u@h/db?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u@h/db?sslmode=disable", dsn)

	_, err = normaliseDSN("sqlite", "x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = OpenWithOptions(context.Background(), "sqlite", "x", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestWithDefaults(t *testing.T) {
	got := withDefaults(Options{MaxOpenConns: 4})
	assert.Equal(t, 4, got.MaxOpenConns)
	assert.Equal(t, DefaultOptions.MaxIdleConns, got.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, got.ConnMaxLifetime)
	assert.Equal(t, DefaultOptions.Retries, got.Retries)
}
