package repository

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type redisCacheRepo struct {
	client *redis.Client
}

func NewRedisCacheRepo(client *redis.Client) CacheRepository {
	return &redisCacheRepo{client: client}
}

func (r *redisCacheRepo) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return v, err
}

func (r *redisCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisCacheRepo) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Incr atomically increments the key by one.
func (r *redisCacheRepo) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}
