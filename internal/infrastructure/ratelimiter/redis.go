package ratelimiter

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 500 * time.Millisecond

// RedisCache stores limiter buckets in Redis so that multiple API instances
// behind one load balancer enforce a shared rate.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, auth string) (GetterSetter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: auth,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func (r *RedisCache) Get(key string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(val)
}

func (r *RedisCache) Set(key string, value int) error {
	return r.SetWithExpiration(key, value, 0)
}

func (r *RedisCache) SetWithExpiration(key string, value int, expiration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
