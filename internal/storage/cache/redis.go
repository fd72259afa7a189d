// Package cache holds the idempotency stores guarding supplier order creation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
)

const (
	defaultKeyPrefix = "autoorder:idempotency:"
	pendingMarker    = "pending"
)

type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares dispatch claims between service instances.
type RedisIdempotencyStore struct {
	client    redisClient
	keyPrefix string
}

// NewRedisIdempotencyStore wraps an existing client.
func NewRedisIdempotencyStore(client redisClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// Load returns the stored result for key, or nil while the key is free or only claimed.
func (s *RedisIdempotencyStore) Load(ctx context.Context, key string) (*model.SupplierOrderResult, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}
	if raw == pendingMarker {
		return nil, nil
	}
	var result model.SupplierOrderResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &result, nil
}

// Claim uses SETNX so only one dispatch can hold key at a time.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

// Save replaces the claim with the final result.
func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, result model.SupplierOrderResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

// Release frees key so a later request may retry.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

var _ repository.IdempotencyStore = (*RedisIdempotencyStore)(nil)
