package store

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/running-machin/legal-advice-bot/internal/config"
)

// Open builds the HistoryStore selected by cfg.SessionBackend.
func Open(ctx context.Context, cfg *config.Config) (HistoryStore, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return NewMemory(cfg.SessionTTL), nil
	case config.BackendSQLite:
		return NewSQLite(cfg.DBPath, cfg.SessionTTL)
	case config.BackendRedis:
		return NewRedis(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.SessionTTL)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}
