// Package kv implements the key-value stores tables are persisted in: an
// in-memory map, a directory of files, and a SQLite database.
package kv

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/nexus/pkg/types"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Open returns the store selected by cfg.Backend.
func Open(cfg types.StoreConfig) (types.KeyValueStore, error) {
	switch cfg.Backend {
	case "", types.StoreMemory:
		return NewMemory(), nil
	case types.StoreFile:
		return OpenFile(cfg.DataDir)
	case types.StoreSQLite:
		return OpenSQLite(cfg.DataDir)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, cfg.Backend)
	}
}
