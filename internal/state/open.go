// internal/state/open.go
package state

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/storeops/internal/config"
	"github.com/user/storeops/internal/types"
)

// Open creates the store backend selected by cfg. Relative paths are
// resolved against dataDir.
func Open(ctx context.Context, cfg config.StoreConfig, dataDir string) (types.Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(resolve(dataDir, cfg.Path, "store")), nil
	case "sqlite", "":
		return OpenSQLStore(resolve(dataDir, cfg.Path, "store.db"))
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client, cfg.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// TablesFrom builds the table layout from configured names.
func TablesFrom(cfg config.TablesConfig) Tables {
	def := DefaultTables()
	name := func(v string, fallback types.Table) string {
		if v == "" {
			return fallback.Name
		}
		return v
	}
	return NewTables(
		name(cfg.Inventory, def.Inventory),
		name(cfg.Orders, def.Orders),
		name(cfg.Equipment, def.Equipment),
		name(cfg.Customers, def.Customers),
		name(cfg.StaffSchedules, def.StaffSchedules),
	)
}

func resolve(dataDir, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}
