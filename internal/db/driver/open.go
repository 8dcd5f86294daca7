// Package driver opens the configured document-search engine.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/funderdex/internal/config"
	"github.com/kailas-cloud/funderdex/internal/db"
	dbBleve "github.com/kailas-cloud/funderdex/internal/db/bleve"
	dbRedis "github.com/kailas-cloud/funderdex/internal/db/redis"
)

// Open connects the engine named by cfg.Driver and waits for it to be ready.
// The key-value store is nil for bleve, which has no cache backend.
func Open(ctx context.Context, cfg config.DatabaseConfig) (db.Engine, db.KVStore, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		return store, store, nil
	case config.DriverBleve:
		store, err := dbBleve.NewStore(dbBleve.Config{Dir: cfg.BleveDir})
		if err != nil {
			return nil, nil, fmt.Errorf("open bleve store: %w", err)
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
