// internal/state/store_test.go
package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/storeops/internal/types"
)

var testTable = types.Table{Name: "store-orders", Key: "order_id"}

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]types.Store {
	t.Helper()

	sqlStore, err := OpenSQLStore(":memory:")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisStore := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")

	stores := map[string]types.Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "data")),
		"sqlite": sqlStore,
		"redis":  redisStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreConformance(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, testTable, "PO-1")
			assert.ErrorIs(t, err, types.ErrNotFound)

			scanned, err := store.Scan(ctx, testTable, nil)
			require.NoError(t, err)
			assert.Empty(t, scanned)

			for _, rec := range []types.Record{
				{"order_id": "PO-3", "sku": "SKU-003", "quantity": float64(5), "order_status": "pending"},
				{"order_id": "PO-1", "sku": "SKU-001", "quantity": float64(40), "order_status": "delivered"},
				{"order_id": "PO-2", "sku": "SKU-002", "quantity": float64(30), "order_status": "pending"},
			} {
				require.NoError(t, store.Put(ctx, testTable, rec))
			}

			got, err := store.Get(ctx, testTable, "PO-1")
			require.NoError(t, err)
			assert.Equal(t, "SKU-001", got["sku"])
			assert.Equal(t, float64(40), got["quantity"])

			all, err := store.Scan(ctx, testTable, nil)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []any{"PO-1", "PO-2", "PO-3"}, []any{all[0]["order_id"], all[1]["order_id"], all[2]["order_id"]})

			pending, err := store.Scan(ctx, testTable, &types.Filter{Field: "order_status", Equals: "pending"})
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, "PO-2", pending[0]["order_id"])
			assert.Equal(t, "PO-3", pending[1]["order_id"])

			// Put replaces the whole record.
			require.NoError(t, store.Put(ctx, testTable, types.Record{"order_id": "PO-3", "order_status": "delivered"}))
			got, err = store.Get(ctx, testTable, "PO-3")
			require.NoError(t, err)
			assert.Equal(t, "delivered", got["order_status"])
			assert.NotContains(t, got, "sku")

			none, err := store.Scan(ctx, testTable, &types.Filter{Field: "order_status", Equals: "cancelled"})
			require.NoError(t, err)
			assert.Empty(t, none)

			// Tables are isolated.
			other, err := store.Scan(ctx, types.Table{Name: "store-inventory", Key: "sku"}, nil)
			require.NoError(t, err)
			assert.Empty(t, other)

			assert.Error(t, store.Put(ctx, testTable, types.Record{"sku": "no key"}))
		})
	}
}

func TestStoreConcurrentPuts(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					rec := types.Record{"order_id": fmt.Sprintf("PO-%02d", i), "order_status": "pending"}
					assert.NoError(t, store.Put(ctx, testTable, rec))
				}()
			}
			wg.Wait()

			all, err := store.Scan(ctx, testTable, nil)
			require.NoError(t, err)
			assert.Len(t, all, 20)
		})
	}
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := types.Record{"order_id": "PO-1", "order_status": "pending"}
	require.NoError(t, store.Put(ctx, testTable, rec))
	rec["order_status"] = "mutated"

	got, err := store.Get(ctx, testTable, "PO-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got["order_status"])

	got["order_status"] = "mutated again"
	again, _ := store.Get(ctx, testTable, "PO-1")
	assert.Equal(t, "pending", again["order_status"])
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, NewFileStore(root).Put(ctx, testTable, types.Record{"order_id": "PO-1", "order_status": "pending"}))

	got, err := NewFileStore(root).Get(ctx, testTable, "PO-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", got["order_status"])
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "")
	mr.Close()

	_, err := store.Get(context.Background(), testTable, "PO-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrNotFound))
}
