package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const fileExt = ".json"

// FileAdapter stores each key as <dir>/<key>.json.
// Writes go through a temporary file and rename, so readers never see a
// partial document.
type FileAdapter struct {
	mu  sync.RWMutex
	dir string
}

// NewFileAdapter creates dir if needed and returns an adapter rooted there.
func NewFileAdapter(dir string) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	return &FileAdapter{dir: dir}, nil
}

// Dir returns the directory documents are stored in.
func (f *FileAdapter) Dir() string { return f.dir }

func (f *FileAdapter) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, key+fileExt), nil
}

func (f *FileAdapter) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read %q: %w", key, err)
	}
	return data, true, nil
}

func (f *FileAdapter) Set(_ context.Context, key string, value json.RawMessage) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

func (f *FileAdapter) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

func (f *FileAdapter) Keys(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	slices.Sort(keys)
	return keys, nil
}
