//go:build integration

package accesstoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yanizio/sermonario/internal/database"
	"github.com/yanizio/sermonario/internal/database/migrate"
)

func TestRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("sermons"),
		postgres.WithUsername("sermons"),
		postgres.WithPassword("sermons"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pg.Terminate(ctx) }()

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(ctx, database.Postgres, dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, migrate.Run(db.DB, database.Postgres))

	repo := NewRepository(db, database.Postgres)

	rec := Record{Email: "a@x.com", Name: "Ana", Token: "serm_abc123"}
	require.NoError(t, repo.Insert(ctx, &rec))

	got, err := repo.FindByToken(ctx, "serm_abc123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.True(t, got.Active())

	err = repo.Insert(ctx, &Record{Email: "A@x.com", Name: "Copy"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	require.NoError(t, repo.UpdateStatus(ctx, "a@x.com", StatusRefunded))
	got, err = repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = repo.FindByToken(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}
