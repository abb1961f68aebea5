package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisNamespace prefixes every key written by RedisCache.
const DefaultRedisNamespace = "dronemesh:"

// RedisCache stores entries in redis. Connection failures are retried with
// exponential backoff; a miss is never an error.
type RedisCache struct {
	client     *redis.Client
	namespace  string
	attempts   int
	retryDelay time.Duration
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithNamespace replaces DefaultRedisNamespace.
func WithNamespace(ns string) RedisOption {
	return func(c *RedisCache) { c.namespace = ns }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) RedisOption {
	return func(c *RedisCache) {
		c.attempts = max(attempts, 1)
		c.retryDelay = delay
	}
}

// NewRedisCache connects lazily to the redis server at url
// (redis://[:password@]host:port/db). No command is sent until first use.
func NewRedisCache(url string, opts ...RedisOption) (*RedisCache, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := &RedisCache{
		client:     redis.NewClient(ropts),
		namespace:  DefaultRedisNamespace,
		attempts:   3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *RedisCache) key(k string) string { return c.namespace + k }

func (c *RedisCache) do(ctx context.Context, fn func() error) error {
	return retry(ctx, c.attempts, c.retryDelay, func() error {
		err := fn()
		if err == nil || errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return err
		}
		return Retryable(fmt.Errorf("%w: %v", ErrUnavailable, err))
	})
}

// Ping checks that the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.do(ctx, func() error { return c.client.Ping(ctx).Err() })
}

// Get retrieves a value from redis.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.do(ctx, func() error {
		var err error
		data, err = c.client.Get(ctx, c.key(key)).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in redis. A zero ttl stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.do(ctx, func() error {
		return c.client.Set(ctx, c.key(key), data, ttl).Err()
	})
}

// Delete removes a value from redis.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, func() error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
}

// Clear deletes every key under the namespace and returns how many were
// removed.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		var (
			keys []string
			next uint64
		)
		err := c.do(ctx, func() error {
			var err error
			keys, next, err = c.client.Scan(ctx, cursor, c.namespace+"*", 500).Result()
			return err
		})
		if err != nil {
			return count, err
		}
		cursor = next
		if len(keys) > 0 {
			var n int64
			err := c.do(ctx, func() error {
				var err error
				n, err = c.client.Del(ctx, keys...).Result()
				return err
			})
			if err != nil {
				return count, err
			}
			count += int(n)
		}
		if cursor == 0 {
			return count, nil
		}
	}
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
