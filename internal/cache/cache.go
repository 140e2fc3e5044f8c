package cache

import (
	"context"
	"fmt"
	"soulbalance/internal/config"
	"time"
)

// Store is a byte-oriented key/value cache with per-entry TTLs.
// Get returns (nil, nil) on a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New opens the store selected by cfg.Driver.
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.FilePath)
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
