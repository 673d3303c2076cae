package kvstore

import (
	"fmt"
	"log/slog"
	"time"
)

// Backend selects a Store implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend    Backend
	SQLitePath string
	Redis      RedisConfig
	TTL        time.Duration
	Logger     *slog.Logger
}

// Open builds the configured Store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = "progress.db"
		}
		return NewSQLiteStore(path, cfg.TTL, cfg.Logger)
	case BackendRedis:
		return NewRedisStore(cfg.Redis, cfg.TTL, cfg.Logger)
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", cfg.Backend)
	}
}
