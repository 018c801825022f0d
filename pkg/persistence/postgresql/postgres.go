// Package postgresql provides the PostgreSQL-backed object store.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

const storeName = "postgresql"

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:     database,
		logger: logger.With("module", "postgresql_persistence"),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

func (p *Persistence) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := p.db.QueryRowContext(ctx, `SELECT data FROM storage_objects WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewNotFound(storeName, key)
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", Key: key, Store: storeName, Err: err}
	}

	return data, nil
}

func (p *Persistence) Put(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO storage_objects (key, data, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`

	_, err := p.db.ExecContext(ctx, query, key, string(data))
	if err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	return nil
}

func (p *Persistence) Delete(ctx context.Context, key string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM storage_objects WHERE key = $1`, key)
	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: key, Store: storeName, Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: key, Store: storeName, Err: err}
	}

	if affected == 0 {
		return persistence.NewNotFound(storeName, key)
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
