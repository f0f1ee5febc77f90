package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/running-machin/legal-advice-bot/internal/domain"
)

const redisKeyPrefix = "legalchat:history:"

// RedisStore keeps each history as a Redis list. Idle expiry is delegated to
// key TTLs, which are refreshed on every append.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// History returns the list contents in insertion order.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	items, err := s.client.LRange(ctx, redisKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	history := make([]domain.Exchange, 0, len(items))
	for _, item := range items {
		var e domain.Exchange
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode exchange: %w", err)
		}
		history = append(history, e)
	}
	return history, nil
}

// Append pushes e and trims the list to the newest domain.MaxHistory entries
// in a single MULTI/EXEC.
func (s *RedisStore) Append(ctx context.Context, sessionID string, e domain.Exchange) error {
	encoded, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}

	key := redisKey(sessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, encoded)
		pipe.LTrim(ctx, key, -domain.MaxHistory, -1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Clear deletes the session key.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// CleanupExpired is a no-op; Redis expires idle keys itself.
func (s *RedisStore) CleanupExpired(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
