package postgresql_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"storage_objects", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("giselle_test"),
			postgres.WithUsername("giselle"),
			postgres.WithPassword("giselle"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		_ = db.Close()
	}()

	var version int
	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	var exists bool
	err = db.QueryRowContext(ctx, "SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = 'storage_objects')").Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPersistence_PutGetDelete(t *testing.T) {
	store, ctx, _ := setupTestDB(t)
	key := persistence.FlowTriggerKey("fltrg-1")

	_, err := store.Get(ctx, key)
	assert.True(t, persistence.IsNotFound(err))

	require.NoError(t, store.Put(ctx, key, []byte(`{"id":"fltrg-1","enable":true}`)))
	require.NoError(t, store.Put(ctx, key, []byte(`{"id":"fltrg-1","enable":false}`)))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"fltrg-1","enable":false}`, string(data))

	require.NoError(t, store.Delete(ctx, key))
	assert.True(t, persistence.IsNotFound(store.Delete(ctx, key)))
	assert.NoError(t, store.HealthCheck(ctx))
}
