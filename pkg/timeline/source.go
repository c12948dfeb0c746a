package timeline

import (
	"context"

	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/query"
)

// Source produces a manager's initial segment list in display order. It is
// consulted once, by the manager's initialization task.
type Source interface {
	Segments(ctx context.Context) ([]*Segment, error)
}

// StaticSource yields one static segment holding the given assets.
type StaticSource struct {
	ID     string
	Assets []query.Asset
}

// Segments implements Source.
func (s StaticSource) Segments(context.Context) ([]*Segment, error) {
	id := s.ID
	if id == "" {
		id = "all"
	}
	return []*Segment{NewStaticSegment(id, s.Assets)}, nil
}

// SearchSource yields one paginated segment for a search query.
type SearchSource struct {
	Criteria query.Criteria
	Searcher query.Searcher

	// ExpectedCount reserves layout space before the first page arrives.
	ExpectedCount int
}

// Segments implements Source.
func (s SearchSource) Segments(context.Context) ([]*Segment, error) {
	if s.Searcher == nil {
		return nil, errors.New(errors.ErrCodeNotInitialized, "search source has no searcher")
	}
	if err := s.Criteria.Validate(); err != nil {
		return nil, err
	}
	return []*Segment{NewQuerySegment(s.Criteria, s.Searcher, s.ExpectedCount)}, nil
}

// BucketSource yields one segment per chronological bucket, in the lister's
// display order (most recent first).
type BucketSource struct {
	Lister   query.BucketLister
	Searcher query.Searcher
}

// Segments implements Source.
func (s BucketSource) Segments(ctx context.Context) ([]*Segment, error) {
	if s.Lister == nil || s.Searcher == nil {
		return nil, errors.New(errors.ErrCodeNotInitialized, "bucket source has no lister or searcher")
	}
	buckets, err := s.Lister.Buckets(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list buckets")
	}

	segments := make([]*Segment, 0, len(buckets))
	for _, b := range buckets {
		if b.Count <= 0 {
			continue
		}
		segments = append(segments, NewBucketSegment(b, s.Searcher))
	}
	return segments, nil
}
