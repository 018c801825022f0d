package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no store holds the requested key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidDocument indicates a stored object is not valid JSON for its type.
	ErrInvalidDocument = errors.New("invalid stored document")

	// ErrNoStores indicates a chain was built without any backing store.
	ErrNoStores = errors.New("no backing stores configured")

	// ErrUnsupportedStore indicates a storage URL with an unknown scheme.
	ErrUnsupportedStore = errors.New("unsupported storage")
)

// StoreError wraps storage errors with the operation and key involved.
type StoreError struct {
	Op    string // Operation being performed (e.g., "Get", "Put", "Delete")
	Key   string // Object key
	Store string // Backing store name if applicable
	Err   error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("%s operation failed for %s in %s store: %v", e.Op, e.Key, e.Store, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// NewNotFound creates the error returned by stores for missing keys.
func NewNotFound(store, key string) *StoreError {
	return &StoreError{
		Op:    "Get",
		Key:   key,
		Store: store,
		Err:   ErrNotFound,
	}
}

// IsNotFound checks if an error indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidDocument checks if an error indicates an undecodable object.
func IsInvalidDocument(err error) bool {
	return errors.Is(err, ErrInvalidDocument)
}
