// Package query defines the search capability the timeline engine consumes.
//
// The engine never talks to a database or network directly; it depends only
// on the Searcher contract: given criteria and a pagination cursor, return
// one page of assets and the cursor for the next page. An empty next cursor
// means the result set is exhausted.
//
// Criteria double as segment identity: two segments built from criteria with
// the same Key are the same segment. Key is therefore a stable, deterministic
// serialization of the criteria.
package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mosaicview/mosaic/pkg/errors"
)

// DefaultPageSize is the page size used when criteria do not specify one.
const DefaultPageSize = 100

// Asset is one media item's immutable metadata. Geometry is never stored
// here; the layout engine owns that separately.
type Asset struct {
	ID      string    `json:"id" bson:"_id"`
	Ratio   float64   `json:"ratio" bson:"ratio"` // intrinsic width/height
	TakenAt time.Time `json:"taken_at" bson:"taken_at"`
	Title   string    `json:"title,omitempty" bson:"title,omitempty"`
	Visible bool      `json:"visible" bson:"visible"`
}

// MonthKey returns the asset's chronological bucket key (YYYY-MM, UTC).
func (a Asset) MonthKey() string {
	return a.TakenAt.UTC().Format("2006-01")
}

// Criteria describe one segment's slice of the collection: either a calendar
// month bucket, a free-text search, or both empty for "everything".
type Criteria struct {
	// Terms is the free-text search input. Empty means no text filter.
	Terms string `json:"terms,omitempty"`

	// Month restricts results to one calendar bucket (YYYY-MM). Empty means
	// no chronological restriction.
	Month string `json:"month,omitempty"`

	// Semantic requests content-based matching instead of metadata matching.
	// Backends without that capability fall back to metadata matching.
	Semantic bool `json:"semantic,omitempty"`

	// PageSize overrides DefaultPageSize when positive.
	PageSize int `json:"page_size,omitempty"`
}

// Validate checks the criteria fields.
func (c Criteria) Validate() error {
	if err := errors.ValidateSearchTerms(c.Terms); err != nil {
		return err
	}
	if c.Month != "" {
		if err := errors.ValidateMonthKey(c.Month); err != nil {
			return err
		}
	}
	if c.PageSize < 0 {
		return errors.New(errors.ErrCodeInvalidCriteria, "page size cannot be negative: %d", c.PageSize)
	}
	return nil
}

// Limit returns the effective page size.
func (c Criteria) Limit() int {
	if c.PageSize > 0 {
		return c.PageSize
	}
	return DefaultPageSize
}

// Key returns the stable identity of the criteria. Segments created from
// criteria with equal keys are the same segment; the key is also used in
// cache keys for search pages.
func (c Criteria) Key() string {
	// Struct fields marshal in declaration order, so the output is
	// deterministic for equal criteria.
	data, _ := json.Marshal(c)
	return string(data)
}

// MonthRange returns the UTC time interval [start, end) covered by the
// criteria's month, and false when no month is set or the key is malformed.
func (c Criteria) MonthRange() (time.Time, time.Time, bool) {
	if c.Month == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse("2006-01", c.Month)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, start.AddDate(0, 1, 0), true
}

// Page is one page of search results.
type Page struct {
	Assets []Asset `json:"assets"`

	// NextCursor requests the following page; empty means exhausted.
	NextCursor string `json:"next_cursor,omitempty"`
}

// Searcher is the engine's only network-facing dependency.
type Searcher interface {
	// Search returns one page of assets matching the criteria. An empty
	// cursor requests the first page.
	Search(ctx context.Context, c Criteria, cursor string) (Page, error)
}

// SearcherFunc adapts a function to the Searcher interface.
type SearcherFunc func(ctx context.Context, c Criteria, cursor string) (Page, error)

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, c Criteria, cursor string) (Page, error) {
	return f(ctx, c, cursor)
}

// Bucket summarizes one chronological segment of the collection before its
// contents load: the month key and how many assets it holds. The count seeds
// the layout's height reservation.
type Bucket struct {
	Month string `json:"month" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// BucketLister enumerates the collection's chronological buckets in display
// order (most recent first).
type BucketLister interface {
	Buckets(ctx context.Context) ([]Bucket, error)
}
