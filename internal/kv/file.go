package kv

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	defaultFileDir = "results"
	fileExt        = ".json"
)

// File stores every key as a separate file inside a directory. Keys are hex
// encoded into file names so any key is a valid name.
type File struct {
	mu  sync.RWMutex
	dir string
}

// NewFile creates the directory if needed. An empty dir defaults to "results".
func NewFile(dir string) (*File, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultFileDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	return &File{dir: dir}, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading key %q: %w", key, err)
	}
	return data, true, nil
}

// Set writes through a temporary file and renames it so readers never see partial values.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for key %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replacing key %q: %w", key, err)
	}
	return nil
}

func (f *File) List(_ context.Context, prefix string) ([][]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory %s: %w", f.dir, err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != fileExt {
			continue
		}

		raw, err := hex.DecodeString(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}

		if key := string(raw); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, key := range keys {
		data, err := os.ReadFile(f.path(key))
		if err != nil {
			return nil, fmt.Errorf("reading key %q: %w", key, err)
		}
		values = append(values, data)
	}
	return values, nil
}

func (f *File) Close() error { return nil }

func (f *File) path(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+fileExt)
}
