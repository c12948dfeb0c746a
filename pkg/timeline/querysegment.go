package timeline

import (
	"context"

	"github.com/mosaicview/mosaic/pkg/query"
)

// NewQuerySegment builds a paginated segment over the search capability. Its
// identity is the criteria's stable key, so two segments built from
// equivalent criteria are found as one by ByCriteria. expectedCount reserves
// layout space before the first page arrives; zero reserves nothing.
func NewQuerySegment(c query.Criteria, searcher query.Searcher, expectedCount int) *Segment {
	s := &Segment{
		id:            c.Key(),
		criteria:      c,
		hasCriteria:   true,
		paginated:     true,
		expectedCount: expectedCount,
	}
	s.fetch = func(ctx context.Context, cursor string) (query.Page, error) {
		return searcher.Search(ctx, c, cursor)
	}
	return s
}

// NewBucketSegment builds the segment for one chronological bucket. The
// bucket's month key is the segment id and its count seeds the height
// reservation, so the timeline has realistic proportions before any bucket
// loads.
func NewBucketSegment(b query.Bucket, searcher query.Searcher) *Segment {
	s := NewQuerySegment(query.Criteria{Month: b.Month}, searcher, b.Count)
	s.id = b.Month
	return s
}
