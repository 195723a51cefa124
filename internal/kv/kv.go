// Package kv provides the durable key-value stores interview results are kept in.
package kv

import (
	"context"
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Store is a key-value persistence service. Set overwrites any previous value
// for the key. List returns values of keys starting with prefix, ordered by key.
// Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	List(ctx context.Context, prefix string) ([][]byte, error)
	Close() error
}

// Config selects and configures a store driver.
type Config struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// Open builds the store described by cfg. A nil config or an empty driver yields a memory store.
func Open(cfg *Config) (Store, error) {
	if cfg == nil {
		return NewMemory(), nil
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.Path)
	case DriverSQLite:
		return NewSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
