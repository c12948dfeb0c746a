package timeline

import (
	"testing"
	"time"

	"github.com/mosaicview/mosaic/pkg/layout"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/viewport"
)

func testAssets(prefix string, n int, ratio float64) []query.Asset {
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	assets := make([]query.Asset, n)
	for i := range assets {
		assets[i] = query.Asset{
			ID:      prefix + string(rune('0'+i)),
			Ratio:   ratio,
			TakenAt: base.Add(-time.Duration(i) * time.Hour),
			Visible: true,
		}
	}
	return assets
}

func TestAppendPageIsAppendOnly(t *testing.T) {
	s := NewQuerySegment(query.Criteria{Terms: "beach"}, query.SearcherFunc(nil), 0)
	opts := layout.Options{RowHeight: 100, RowWidth: 500, Spacing: 2, Tolerance: 0.15}

	s.appendPage(query.Page{Assets: testAssets("a", 8, 1.5), NextCursor: "2"}, opts)
	if len(s.items) != 8 {
		t.Fatalf("items after first page = %d, want 8", len(s.items))
	}
	if s.exhausted {
		t.Error("segment with a next cursor must not be exhausted")
	}

	// Boxes of items that landed in closed rows must survive later appends.
	closedBefore := make([]layout.Box, 3)
	for i := range closedBefore {
		closedBefore[i] = s.items[i].Box
	}

	s.appendPage(query.Page{Assets: testAssets("b", 8, 1.5)}, opts)
	if len(s.items) != 16 {
		t.Fatalf("items after second page = %d, want 16", len(s.items))
	}
	if !s.exhausted {
		t.Error("segment with an empty next cursor must be exhausted")
	}
	for i, want := range closedBefore {
		if s.items[i].Box != want {
			t.Errorf("item %d box moved after append: %+v != %+v", i, s.items[i].Box, want)
		}
	}
	if s.height <= 0 {
		t.Error("loaded segment must have positive height")
	}
}

func TestUpdateIntersectionItemFlags(t *testing.T) {
	s := NewStaticSegment("static", nil)
	opts := layout.Options{RowHeight: 100, RowWidth: 500, Spacing: 2, Tolerance: 0.15}
	s.appendPage(query.Page{Assets: testAssets("a", 8, 1.5)}, opts)
	s.state = SegmentLoaded
	s.top = 0

	// Window covering only the first row; expanded window reaches further.
	ix := Intersection{
		Visibility:     viewport.Visibility{Intersecting: true, ActuallyIntersecting: true},
		Window:         viewport.Window{Top: 0, Bottom: 90},
		Margins:        viewport.Margins{Top: 0, Bottom: 60},
		TimelineHeight: s.height,
	}
	if s.UpdateIntersection(ix) {
		t.Error("static segment must never request a next page")
	}

	var actual, expandedOnly int
	for _, it := range s.items {
		switch {
		case it.ActuallyIntersecting:
			actual++
		case it.Intersecting:
			expandedOnly++
		}
	}
	if actual == 0 {
		t.Error("items in the visible window should be actually intersecting")
	}
	if actual == len(s.items) {
		t.Error("items below the visible window should not be actually intersecting")
	}
	if expandedOnly == 0 {
		t.Error("items in the prefetch window only should be intersecting but not actual")
	}

	// Leaving the expanded window clears every item flag.
	s.UpdateIntersection(Intersection{
		Window:         viewport.Window{Top: 5000, Bottom: 5600},
		Margins:        viewport.Margins{Top: 50, Bottom: 100},
		TimelineHeight: s.height,
	})
	for i, it := range s.items {
		if it.Intersecting || it.ActuallyIntersecting {
			t.Errorf("item %d flags not cleared after leaving window", i)
		}
	}
}

func TestUpdateIntersectionNearEnd(t *testing.T) {
	s := NewQuerySegment(query.Criteria{Terms: "beach"}, query.SearcherFunc(nil), 0)
	opts := layout.Options{RowHeight: 100, RowWidth: 500, Spacing: 2, Tolerance: 0.15}
	s.appendPage(query.Page{Assets: testAssets("a", 4, 1.5), NextCursor: "2"}, opts)
	s.state = SegmentLoaded

	near := Intersection{
		Window:         viewport.Window{Top: 0, Bottom: 600},
		TimelineHeight: 700,
		NearEndMargin:  200,
	}
	far := Intersection{
		Window:         viewport.Window{Top: 0, Bottom: 600},
		TimelineHeight: 5000,
		NearEndMargin:  200,
	}

	if !s.UpdateIntersection(near) {
		t.Error("near the timeline bottom with a pending cursor: want next page")
	}
	if s.UpdateIntersection(far) {
		t.Error("far from the timeline bottom: want no next page")
	}

	s.inFlight = true
	if s.UpdateIntersection(near) {
		t.Error("in-flight fetch must suppress a duplicate request")
	}
	s.inFlight = false

	s.cursor = ""
	s.exhausted = true
	if s.UpdateIntersection(near) {
		t.Error("exhausted pagination must not request another page")
	}
}

func TestIdentifiers(t *testing.T) {
	c := query.Criteria{Terms: "beach", Semantic: true}
	seg := NewQuerySegment(c, query.SearcherFunc(nil), 0)
	static := NewStaticSegment("all", nil)

	if !ByID(seg.ID())(seg) {
		t.Error("ByID should match the segment's own id")
	}
	if ByID("other")(seg) {
		t.Error("ByID should not match a different id")
	}
	if !ByCriteria(query.Criteria{Terms: "beach", Semantic: true})(seg) {
		t.Error("ByCriteria should match equivalent criteria")
	}
	if ByCriteria(query.Criteria{Terms: "sunset"})(seg) {
		t.Error("ByCriteria should not match different criteria")
	}
	if ByCriteria(c)(static) {
		t.Error("ByCriteria should never match a static segment")
	}
}

func TestBucketSegmentIdentity(t *testing.T) {
	s := NewBucketSegment(query.Bucket{Month: "2025-07", Count: 42}, query.SearcherFunc(nil))
	if s.ID() != "2025-07" {
		t.Errorf("bucket segment id = %q, want month key", s.ID())
	}
	if s.expectedCount != 42 {
		t.Errorf("expectedCount = %d, want 42", s.expectedCount)
	}
	if !s.paginated {
		t.Error("bucket segments paginate")
	}
}

func TestLoadStateString(t *testing.T) {
	states := map[LoadState]string{
		SegmentNotLoaded: "not_loaded",
		SegmentLoading:   "loading",
		SegmentLoaded:    "loaded",
		SegmentFailed:    "failed",
		LoadState(99):    "unknown",
	}
	for s, want := range states {
		if s.String() != want {
			t.Errorf("LoadState(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
