// internal/state/file.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/user/storeops/internal/types"
)

// FileStore persists each table as one JSON object file under
// <root>/tables/<name>.json, rewritten atomically on every Put.
type FileStore struct {
	root  string
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewFileStore creates a file-backed store rooted at the given directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{
		root:  root,
		locks: make(map[string]*sync.RWMutex),
	}
}

// getLock returns the per-table lock, creating one if it doesn't exist.
func (f *FileStore) getLock(table string) *sync.RWMutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	if lock, ok := f.locks[table]; ok {
		return lock
	}
	lock := &sync.RWMutex{}
	f.locks[table] = lock
	return lock
}

func (f *FileStore) tablePath(table string) string {
	return filepath.Join(f.root, "tables", table+".json")
}

func (f *FileStore) Get(_ context.Context, table types.Table, key string) (types.Record, error) {
	lock := f.getLock(table.Name)
	lock.RLock()
	defer lock.RUnlock()

	rows, err := f.load(table.Name)
	if err != nil {
		return nil, err
	}
	rec, ok := rows[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return rec, nil
}

func (f *FileStore) Put(_ context.Context, table types.Table, rec types.Record) error {
	key, err := table.KeyOf(rec)
	if err != nil {
		return err
	}

	lock := f.getLock(table.Name)
	lock.Lock()
	defer lock.Unlock()

	rows, err := f.load(table.Name)
	if err != nil {
		return err
	}
	rows[key] = rec
	return f.save(table.Name, rows)
}

func (f *FileStore) Scan(_ context.Context, table types.Table, filter *types.Filter) ([]types.Record, error) {
	lock := f.getLock(table.Name)
	lock.RLock()
	defer lock.RUnlock()

	rows, err := f.load(table.Name)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, 0, len(rows))
	for _, key := range slices.Sorted(maps.Keys(rows)) {
		if rec := rows[key]; filter.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *FileStore) Close() error { return nil }

// load reads a table file. A missing file is an empty table. Caller must
// hold the table lock.
func (f *FileStore) load(table string) (map[string]types.Record, error) {
	data, err := os.ReadFile(f.tablePath(table))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]types.Record), nil
		}
		return nil, fmt.Errorf("read table %s: %w", table, err)
	}

	rows := make(map[string]types.Record)
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal table %s: %w", table, err)
	}
	return rows, nil
}

// save writes a table file using atomic write (temp file + rename).
func (f *FileStore) save(table string, rows map[string]types.Record) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal table %s: %w", table, err)
	}

	path := f.tablePath(table)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tables dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp table file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp table file: %w", err)
	}
	return nil
}
