package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"care-companion-go/internal/config"
	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "carecache:"

// RedisStore is the Redis-backed persisted tier, selected via CACHE_BACKEND=redis.
// Entries carry their createdAt so the manager applies the same TTL rules as the
// file backend; the Redis expiry is only a floor for garbage collection.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, ErrNoEntry
		}
		return nil, time.Time{}, err
	}

	var item fileEntry
	if err := json.Unmarshal(raw, &item); err != nil {
		// Undecodable entry counts as no data.
		return nil, time.Time{}, ErrNoEntry
	}
	return []byte(item.Payload), item.CreatedAt, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, createdAt time.Time) error {
	raw, err := json.Marshal(fileEntry{Payload: json.RawMessage(payload), CreatedAt: createdAt})
	if err != nil {
		return err
	}
	// Expire at twice the manager TTL so an expired-at-read entry is still
	// observable for explicit purging, matching the file backend.
	return s.client.Set(ctx, redisKeyPrefix+key, raw, 2*s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
