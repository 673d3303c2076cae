package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces all progress records in a shared Redis instance.
const keyPrefix = "progress:"

// RedisStore persists records in Redis using native per-key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis store: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl, logger: logger}, nil
}

func redisKey(userID, key string) string {
	return keyPrefix + userID + ":" + key
}

// Write implements Store.
func (s *RedisStore) Write(ctx context.Context, userID, key string, value interface{}) error {
	if userID == "" || key == "" {
		return errors.New("kvstore: user id and key are required")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKey(userID, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("kvstore: write %q: %w", key, err)
	}
	return nil
}

// Read implements Store.
func (s *RedisStore) Read(ctx context.Context, userID, key string, dest interface{}) bool {
	raw, err := s.client.Get(ctx, redisKey(userID, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("kvstore read failed, treating as absent",
				"key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("kvstore record undecodable, treating as absent",
			"key", key, "error", err)
		return false
	}
	return true
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, redisKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}
	return nil
}

// PurgeExpired implements Store. Redis expires keys natively, so there is
// nothing to do here.
func (s *RedisStore) PurgeExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
