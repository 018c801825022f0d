// Package persistence provides the key/value object storage used for integration
// indexes, flow triggers and workspaces.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persistence stores JSON documents under slash-separated keys such as
// "flow-triggers/fltrg-1.json".
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// GetJSON reads key and decodes it into a new T.
func GetJSON[T any](ctx context.Context, p Persistence, key string) (*T, error) {
	data, err := p.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, NewStoreError("Decode", key, fmt.Errorf("%w: %w", ErrInvalidDocument, err))
	}

	return &value, nil
}

// PutJSON encodes value and writes it under key.
func PutJSON(ctx context.Context, p Persistence, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return NewStoreError("Encode", key, err)
	}

	return p.Put(ctx, key, data)
}
