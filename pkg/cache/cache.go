// Package cache provides pluggable caching for search pages and bucket
// listings.
//
// Three backends are provided:
//   - FileCache: filesystem-backed, for CLI usage
//   - RedisCache: Redis-backed, for server deployments
//   - NullCache: no-op, for tests and --no-cache
//
// Keys are produced by a Keyer so that callers never concatenate raw user
// input into cache keys. The keyer hashes the criteria identity together with
// the pagination cursor, which keeps keys short and collision-free.
package cache

import (
	"context"
	"time"
)

// Default TTLs for cached data.
const (
	// DefaultPageTTL is how long a cached search page stays valid.
	DefaultPageTTL = 1 * time.Hour

	// DefaultBucketTTL is how long a cached bucket listing stays valid.
	// Bucket counts change on every upload, so keep this short.
	DefaultBucketTTL = 5 * time.Minute
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second result is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// NullCache never stores anything. Useful for tests and for disabling
// caching without touching call sites.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache { return &NullCache{} }

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error { return nil }

// Close does nothing.
func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
