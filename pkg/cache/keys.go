package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys for the engine's cacheable reads.
type Keyer interface {
	// PageKey generates a key for one search page, from the criteria's
	// stable identity and the pagination cursor.
	PageKey(criteriaKey, cursor string) string

	// BucketKey generates a key for the bucket listing of one collection.
	BucketKey(collection string) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// PageKey generates a key for a search page.
func (k *DefaultKeyer) PageKey(criteriaKey, cursor string) string {
	return hashKey("page", criteriaKey, cursor)
}

// BucketKey generates a key for a bucket listing.
func (k *DefaultKeyer) BucketKey(collection string) string {
	return hashKey("buckets", collection)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces when
// one backend serves several asset collections.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PageKey generates a prefixed key for a search page.
func (k *ScopedKeyer) PageKey(criteriaKey, cursor string) string {
	return k.prefix + k.inner.PageKey(criteriaKey, cursor)
}

// BucketKey generates a prefixed key for a bucket listing.
func (k *ScopedKeyer) BucketKey(collection string) string {
	return k.prefix + k.inner.BucketKey(collection)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...interface{}) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions.
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
