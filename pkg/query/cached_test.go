package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mosaicview/mosaic/pkg/cache"
	"github.com/mosaicview/mosaic/pkg/errors"
)

type countingSearcher struct {
	mu       sync.Mutex
	calls    int
	failures int
	page     Page
}

func (s *countingSearcher) Search(ctx context.Context, c Criteria, cursor string) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return Page{}, errors.New(errors.ErrCodeNetwork, "backend down")
	}
	return s.page, nil
}

func (s *countingSearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func testPage() Page {
	return Page{
		Assets: []Asset{
			{ID: "a1", Ratio: 1.5, TakenAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Visible: true},
			{ID: "a2", Ratio: 0.8, TakenAt: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), Visible: true},
		},
		NextCursor: "2",
	}
}

func TestCachedSearcherHitSkipsBackend(t *testing.T) {
	ctx := context.Background()
	backend := &countingSearcher{page: testPage()}
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer fc.Close()

	s := NewCachedSearcher(backend, fc, nil, nil)
	c := Criteria{Terms: "beach"}

	first, err := s.Search(ctx, c, "")
	if err != nil {
		t.Fatalf("first Search error: %v", err)
	}
	if backend.count() != 1 {
		t.Fatalf("backend calls = %d, want 1", backend.count())
	}

	second, err := s.Search(ctx, c, "")
	if err != nil {
		t.Fatalf("second Search error: %v", err)
	}
	if backend.count() != 1 {
		t.Errorf("cache hit still called the backend (%d calls)", backend.count())
	}
	if len(second.Assets) != len(first.Assets) || second.NextCursor != first.NextCursor {
		t.Errorf("cached page differs: %+v vs %+v", second, first)
	}

	// A different cursor is a different key.
	if _, err := s.Search(ctx, c, "2"); err != nil {
		t.Fatalf("cursor 2 Search error: %v", err)
	}
	if backend.count() != 2 {
		t.Errorf("backend calls = %d, want 2", backend.count())
	}
}

func TestCachedSearcherRetriesNetworkFailures(t *testing.T) {
	ctx := context.Background()
	backend := &countingSearcher{page: testPage(), failures: 1}

	s := NewCachedSearcher(backend, cache.NewNullCache(), nil, nil)
	page, err := s.Search(ctx, Criteria{Terms: "beach"}, "")
	if err != nil {
		t.Fatalf("Search error after retry: %v", err)
	}
	if len(page.Assets) != 2 {
		t.Errorf("assets = %d, want 2", len(page.Assets))
	}
	if backend.count() != 2 {
		t.Errorf("backend calls = %d, want 2 (one failure, one retry)", backend.count())
	}
}

func TestCachedSearcherNilCacheDisablesCaching(t *testing.T) {
	ctx := context.Background()
	backend := &countingSearcher{page: testPage()}
	s := NewCachedSearcher(backend, nil, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := s.Search(ctx, Criteria{}, ""); err != nil {
			t.Fatalf("Search error: %v", err)
		}
	}
	if backend.count() != 2 {
		t.Errorf("backend calls = %d, want 2 with caching disabled", backend.count())
	}
}
