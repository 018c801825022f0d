// Package redis provides the Redis-backed object store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const storeName = "redis"

// Persistence stores each object as a plain string value under prefix+key.
type Persistence struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewPersistence connects to the Redis server described by databaseURL
// (redis:// or rediss://) and verifies the connection.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL, prefix string) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger, prefix), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{
		client: client,
		prefix: prefix,
		logger: logger.With("module", "redis_persistence"),
	}
}

func (p *Persistence) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewNotFound(storeName, key)
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", Key: key, Store: storeName, Err: err}
	}

	return data, nil
}

func (p *Persistence) Put(ctx context.Context, key string, data []byte) error {
	if err := p.client.Set(ctx, p.prefix+key, data, 0).Err(); err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	p.logger.DebugContext(ctx, "Stored object", "key", key, "size", len(data))

	return nil
}

func (p *Persistence) Delete(ctx context.Context, key string) error {
	removed, err := p.client.Del(ctx, p.prefix+key).Result()
	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: key, Store: storeName, Err: err}
	}

	if removed == 0 {
		return persistence.NewNotFound(storeName, key)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
