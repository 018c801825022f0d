// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/file"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/postgresql"
	"github.com/giselles-ai/giselle-sub003/pkg/persistence/redis"
)

const redisKeyPrefix = "giselle:"

// NewPersistence opens one store per URL and chains them in the given order,
// so the first URL is the newest store and the last the legacy one.
func NewPersistence(ctx context.Context, logger *slog.Logger, storageURLs []string) (*persistence.Chain, error) {
	stores := make([]persistence.Persistence, 0, len(storageURLs))

	for _, storageURL := range storageURLs {
		store, err := openStore(ctx, logger, strings.TrimSpace(storageURL))
		if err != nil {
			for _, opened := range stores {
				_ = opened.Close(ctx)
			}

			return nil, err
		}

		logger.InfoContext(ctx, "Opened storage", "provider", parsePersistenceProvider(storageURL), "priority", len(stores))
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, persistence.ErrNoStores
	}

	return persistence.NewChain(stores...), nil
}

func openStore(ctx context.Context, logger *slog.Logger, storageURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(storageURL) {
	case "file":
		return file.NewPersistence(storageURL), nil
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, storageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql storage: %w", err)
		}

		return store, nil
	case "redis", "rediss":
		store, err := redis.NewPersistence(ctx, logger, storageURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis storage: %w", err)
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w: %s", persistence.ErrUnsupportedStore, storageURL)
	}
}

// parsePersistenceProvider returns the URL scheme; bare paths are file storage.
func parsePersistenceProvider(storageURL string) string {
	scheme, _, found := strings.Cut(storageURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
