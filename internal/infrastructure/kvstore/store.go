// Package kvstore implements ports.KeyValueStore on SQLite, a JSON file and
// process memory. All three store JSON-encoded values under string keys.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Open returns the store selected by cfg. Relative paths resolve against baseDir.
func Open(cfg domain.StoreSettings, baseDir string) (ports.KeyValueStore, error) {
	path := cfg.Path
	if path == "" {
		path = domain.DefaultStoreFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	switch cfg.Backend {
	case domain.StoreFile:
		return NewFileStore(path), nil
	case domain.StoreSQLite, "":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

// GetOr reads key into a T, returning fallback when the key is absent.
func GetOr[T any](ctx context.Context, store ports.KeyValueStore, key string, fallback T) (T, error) {
	var value T
	found, err := store.Get(ctx, key, &value)
	if err != nil {
		return fallback, err
	}
	if !found {
		return fallback, nil
	}
	return value, nil
}

func decode(key string, raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}
