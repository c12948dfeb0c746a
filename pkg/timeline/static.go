package timeline

import (
	"context"

	"github.com/mosaicview/mosaic/pkg/query"
)

// NewStaticSegment wraps an already-in-memory collection as a single segment.
// Its fetch succeeds immediately with the whole collection and never
// paginates; it is the right variant when the collection is small enough to
// need no lazy loading.
func NewStaticSegment(id string, assets []query.Asset) *Segment {
	s := &Segment{
		id:            id,
		expectedCount: len(assets),
	}
	s.fetch = func(context.Context, string) (query.Page, error) {
		return query.Page{Assets: assets}, nil
	}
	return s
}
