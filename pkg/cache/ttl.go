package cache

import (
	"context"
	"time"
)

// MaxTTLCache caps the time-to-live of every entry written through it.
type MaxTTLCache struct {
	Cache
	max time.Duration
}

// WithMaxTTL wraps c so that no entry outlives max. A non-positive max
// returns c unchanged.
func WithMaxTTL(c Cache, max time.Duration) Cache {
	if max <= 0 {
		return c
	}
	return &MaxTTLCache{Cache: c, max: max}
}

// Set stores data with the smaller of ttl and the cap. A ttl of zero
// (no expiry) becomes the cap.
func (c *MaxTTLCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > c.max {
		ttl = c.max
	}
	return c.Cache.Set(ctx, key, data, ttl)
}

// Clear delegates to the wrapped cache when it supports clearing.
func (c *MaxTTLCache) Clear(ctx context.Context) (int, error) {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}

var (
	_ Cache   = (*MaxTTLCache)(nil)
	_ Clearer = (*MaxTTLCache)(nil)
)
