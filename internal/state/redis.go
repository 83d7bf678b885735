// internal/state/redis.go
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/user/storeops/internal/types"
)

// RedisStore keeps each table in one Redis hash:
//
//	<prefix><table>  => HASH key -> JSON record
//
// Filters are applied client side after HGETALL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a RedisStore. prefix defaults to "storeops:".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "storeops:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) keyTable(name string) string {
	return r.prefix + name
}

func (r *RedisStore) Get(ctx context.Context, table types.Table, key string) (types.Record, error) {
	data, err := r.client.HGet(ctx, r.keyTable(table.Name), key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s/%s: %w", table.Name, key, err)
	}
	return decodeRecord(data)
}

func (r *RedisStore) Put(ctx context.Context, table types.Table, rec types.Record) error {
	key, err := table.KeyOf(rec)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := r.client.HSet(ctx, r.keyTable(table.Name), key, data).Err(); err != nil {
		return fmt.Errorf("hset %s/%s: %w", table.Name, key, err)
	}
	return nil
}

func (r *RedisStore) Scan(ctx context.Context, table types.Table, filter *types.Filter) ([]types.Record, error) {
	rows, err := r.client.HGetAll(ctx, r.keyTable(table.Name)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", table.Name, err)
	}

	out := make([]types.Record, 0, len(rows))
	for _, key := range slices.Sorted(maps.Keys(rows)) {
		rec, err := decodeRecord(rows[key])
		if err != nil {
			return nil, err
		}
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
