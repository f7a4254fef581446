package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisBackend stores the token under one Redis key per profile.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

// NewRedisBackend parses url (redis://...) and prepares a client. No connection
// is made until the first call.
func NewRedisBackend(url, profile string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisBackendWithClient(redis.NewClient(opts), profile), nil
}

// NewRedisBackendWithClient uses an existing client.
func NewRedisBackendWithClient(rdb *redis.Client, profile string) *RedisBackend {
	if profile == "" {
		profile = "default"
	}
	return &RedisBackend{rdb: rdb, key: "webadmin:token:" + profile}
}

// Name implements Backend.
func (r *RedisBackend) Name() string { return "redis" }

// Key returns the Redis key holding the token.
func (r *RedisBackend) Key() string { return r.key }

// Ping checks connectivity.
func (r *RedisBackend) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.rdb.Ping(ctx).Err()
}

// Load returns the stored token, "" when the key is absent.
func (r *RedisBackend) Load() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	tok, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return tok, nil
}

// Save writes the token without expiry; it lives until logout or a 401.
func (r *RedisBackend) Save(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.rdb.Set(ctx, r.key, token, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Remove deletes the key.
func (r *RedisBackend) Remove() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}
