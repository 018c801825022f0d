package persistence

import (
	"context"
	"errors"
	"fmt"
)

// Chain reads through an ordered list of stores, newest first, and writes to the
// first one. It exists to migrate data from legacy stores without a cut-over.
type Chain struct {
	stores []Persistence
}

// NewChain returns a chain over stores in priority order.
func NewChain(stores ...Persistence) *Chain {
	return &Chain{stores: stores}
}

// Get returns the object from the first store that has it. A store failing for
// any reason other than a missing key stops the lookup.
func (c *Chain) Get(ctx context.Context, key string) ([]byte, error) {
	if len(c.stores) == 0 {
		return nil, NewStoreError("Get", key, ErrNoStores)
	}

	for _, store := range c.stores {
		data, err := store.Get(ctx, key)
		if err == nil {
			return data, nil
		}

		if !IsNotFound(err) {
			return nil, err
		}
	}

	return nil, NewStoreError("Get", key, ErrNotFound)
}

func (c *Chain) Put(ctx context.Context, key string, data []byte) error {
	if len(c.stores) == 0 {
		return NewStoreError("Put", key, ErrNoStores)
	}

	return c.stores[0].Put(ctx, key, data)
}

// Delete removes key from every store so a legacy copy cannot resurface.
func (c *Chain) Delete(ctx context.Context, key string) error {
	if len(c.stores) == 0 {
		return NewStoreError("Delete", key, ErrNoStores)
	}

	var errs []error

	for _, store := range c.stores {
		if err := store.Delete(ctx, key); err != nil && !IsNotFound(err) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Chain) HealthCheck(ctx context.Context) error {
	for i, store := range c.stores {
		if err := store.HealthCheck(ctx); err != nil {
			return fmt.Errorf("store %d unhealthy: %w", i, err)
		}
	}

	return nil
}

func (c *Chain) Close(ctx context.Context) error {
	var errs []error

	for _, store := range c.stores {
		if err := store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Len reports the number of backing stores.
func (c *Chain) Len() int {
	return len(c.stores)
}
