// Package file provides the filesystem object store. It backs the legacy layout
// where every document lives at <root>/<key>.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/giselles-ai/giselle-sub003/pkg/persistence"
)

const storeName = "file"

var ErrInvalidKey = errors.New("invalid object key")

// Persistence implements persistence.Persistence using the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

func (fp *Persistence) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || strings.HasSuffix(key, "/") || clean != "/"+key {
		return "", persistence.NewStoreError("Resolve", key, ErrInvalidKey)
	}

	return filepath.Join(fp.root, filepath.FromSlash(clean)), nil
}

func (fp *Persistence) Get(_ context.Context, key string) ([]byte, error) {
	filePath, err := fp.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewNotFound(storeName, key)
	}

	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", Key: key, Store: storeName, Err: err}
	}

	return data, nil
}

// Put writes through a temporary file and a rename so readers never observe a
// partially written document.
func (fp *Persistence) Put(_ context.Context, key string, data []byte) error {
	filePath, err := fp.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".tmp-*")
	if err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: err}
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return &persistence.StoreError{Op: "Put", Key: key, Store: storeName, Err: fmt.Errorf("rename: %w", err)}
	}

	return nil
}

func (fp *Persistence) Delete(_ context.Context, key string) error {
	filePath, err := fp.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewNotFound(storeName, key)
	}

	if err != nil {
		return &persistence.StoreError{Op: "Delete", Key: key, Store: storeName, Err: err}
	}

	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
