package query

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/mosaicview/mosaic/pkg/cache"
	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/observability"
)

// CachedSearcher decorates a Searcher with page caching and retry.
//
// Pages are cached under (criteria key, cursor). Because a segment's pages
// are append-only, a cached page never goes stale by reordering; it only ages
// out by TTL when the underlying collection changes.
//
// Network failures reported as retryable by the inner searcher are retried
// with exponential backoff before surfacing.
type CachedSearcher struct {
	inner  Searcher
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewCachedSearcher wraps inner with caching. A nil cache disables caching;
// a nil keyer selects the default keyer.
func NewCachedSearcher(inner Searcher, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedSearcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedSearcher{inner: inner, cache: c, keyer: keyer, logger: logger}
}

// Search implements Searcher.
func (s *CachedSearcher) Search(ctx context.Context, c Criteria, cursor string) (Page, error) {
	key := s.keyer.PageKey(c.Key(), cursor)

	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		var page Page
		if err := json.Unmarshal(data, &page); err == nil {
			observability.Cache().OnCacheHit(ctx, "page")
			return page, nil
		}
		// Corrupt entry: drop it and fall through to the backend.
		_ = s.cache.Delete(ctx, key)
	}
	observability.Cache().OnCacheMiss(ctx, "page")

	var page Page
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		page, err = s.inner.Search(ctx, c, cursor)
		if errors.Is(err, errors.ErrCodeNetwork) {
			return cache.Retryable(err)
		}
		return err
	})
	if err != nil {
		return Page{}, err
	}

	if data, err := json.Marshal(page); err == nil {
		if err := s.cache.Set(ctx, key, data, cache.DefaultPageTTL); err != nil {
			s.logger.Warnf("cache page %q: %v", cursor, err)
		} else {
			observability.Cache().OnCacheSet(ctx, "page", len(data))
		}
	}

	return page, nil
}

var _ Searcher = (*CachedSearcher)(nil)
