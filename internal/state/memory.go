// internal/state/memory.go
package state

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/user/storeops/internal/types"
)

// MemoryStore keeps tables in process memory. Records are copied on the
// way in and out so callers never share maps with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]map[string]types.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]map[string]types.Record)}
}

func (m *MemoryStore) Get(_ context.Context, table types.Table, key string) (types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.tables[table.Name][key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return maps.Clone(rec), nil
}

func (m *MemoryStore) Put(_ context.Context, table types.Table, rec types.Record) error {
	key, err := table.KeyOf(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table.Name]
	if !ok {
		rows = make(map[string]types.Record)
		m.tables[table.Name] = rows
	}
	rows[key] = maps.Clone(rec)
	return nil
}

func (m *MemoryStore) Scan(_ context.Context, table types.Table, filter *types.Filter) ([]types.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.tables[table.Name]
	out := make([]types.Record, 0, len(rows))
	for _, key := range slices.Sorted(maps.Keys(rows)) {
		if rec := rows[key]; filter.Match(rec) {
			out = append(out, maps.Clone(rec))
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
