// Package cache stores thinned meshes, rendered artifacts and API runs.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under the XDG cache directory,
//     used by the CLI
//   - [RedisCache]: shared cache for `dronemesh serve` replicas
//   - [NullCache]: disables caching
//
// # Keys
//
// Keys are produced by a [Keyer] so that every component agrees on the
// layout of the key space. A mesh key hashes every input that influences
// the thinning result; an artifact key hashes the mesh together with the
// render options.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached entries.
const (
	TTLMesh     = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
	TTLRun      = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); an error is returned only when
// the backend itself failed. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
