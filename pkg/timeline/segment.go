package timeline

import (
	"context"

	"github.com/mosaicview/mosaic/pkg/layout"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/task"
	"github.com/mosaicview/mosaic/pkg/viewport"
)

// LoadState is the position of a segment in its load lifecycle.
type LoadState int

// Segment load states. A segment moves NotLoaded → Loading → Loaded. A failed
// fetch settles to Failed; a subsequent load treats a Failed segment as
// NotLoaded, so loads are retry-safe.
const (
	SegmentNotLoaded LoadState = iota
	SegmentLoading
	SegmentLoaded
	SegmentFailed
)

// String returns a human-readable state name.
func (s LoadState) String() string {
	switch s {
	case SegmentNotLoaded:
		return "not_loaded"
	case SegmentLoading:
		return "loading"
	case SegmentLoaded:
		return "loaded"
	case SegmentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Item wraps one asset with its computed geometry and visibility. The box is
// relative to the segment's top-left corner; only the layout pass assigns it.
type Item struct {
	Asset query.Asset
	Box   layout.Box

	Intersecting         bool
	ActuallyIntersecting bool
}

// Identifier is the predicate used to find a segment without duplicating it:
// two criteria that identify the same segment must match the same predicate.
type Identifier func(*Segment) bool

// ByID matches the segment with the given id.
func ByID(id string) Identifier {
	return func(s *Segment) bool { return s.id == id }
}

// ByCriteria matches the query segment built from equivalent criteria.
func ByCriteria(c query.Criteria) Identifier {
	key := c.Key()
	return func(s *Segment) bool { return s.hasCriteria && s.criteria.Key() == key }
}

// Intersection is the scan result delivered to one segment, together with the
// global window state the segment needs for its own follow-up decisions.
type Intersection struct {
	Visibility viewport.Visibility

	// Window is the exact visible window in timeline coordinates; Margins are
	// the prefetch expansion applied during the scan.
	Window  viewport.Window
	Margins viewport.Margins

	// TimelineHeight and NearEndMargin let paginated segments decide whether
	// the viewport is close to the bottom of the whole timeline. Pagination
	// grows one continuous list, so "near the end" is a global condition, not
	// a per-segment one.
	TimelineHeight float64
	NearEndMargin  float64
}

// fetchFunc is the variant-specific fetch strategy. It performs no segment
// mutation; the owning manager applies the returned page under its lock.
type fetchFunc func(ctx context.Context, cursor string) (query.Page, error)

// Segment is one independently loadable, contiguous run of items in the
// timeline: a month bucket, a paginated search result, or the sole static
// bucket. Variants differ only in their fetch strategy and identity.
//
// A segment carries no lock. The owning Manager serializes every read and
// write of its mutable state; the fetch strategy is the only part that runs
// outside that lock.
type Segment struct {
	id          string
	criteria    query.Criteria
	hasCriteria bool

	// paginated marks variants whose fetch can return further pages.
	paginated bool

	// expectedCount reserves layout space before content loads.
	expectedCount int

	fetch fetchFunc

	state    LoadState
	loadErr  error
	loadTask *task.Task

	// cursor requests the next page; empty plus exhausted means no further
	// pages. inFlight suppresses duplicate next-page fetches.
	cursor    string
	exhausted bool
	inFlight  bool

	items  []Item
	packer *layout.Packer

	// geometry, invalid until the first layout pass
	top    float64
	height float64

	intersecting         bool
	actuallyIntersecting bool
}

// ID returns the segment's stable identity. Immutable after construction.
func (s *Segment) ID() string { return s.id }

// beginLoad claims the segment for loading and returns the task to run, or
// nil when a load has already started or completed. Failed and cancelled
// outcomes are reset first, so the returned task always represents a fresh
// attempt after an unsuccessful one.
//
// Caller holds the manager lock.
func (s *Segment) beginLoad(fn func(context.Context) error) *task.Task {
	if s.state == SegmentFailed {
		s.state = SegmentNotLoaded
		s.loadErr = nil
		s.loadTask = nil
	}
	if s.loadTask != nil && s.loadTask.State() == task.StateCancelled {
		s.state = SegmentNotLoaded
		s.loadTask = nil
	}
	if s.loadTask == nil {
		s.loadTask = task.New(fn)
	}
	if s.loadTask.Started() {
		return nil
	}
	s.state = SegmentLoading
	return s.loadTask
}

// appendPage appends one page of results and extends the segment's geometry.
// Items already placed are never moved: the packer only repositions the open
// (last, unjustified) row.
//
// Caller holds the manager lock.
func (s *Segment) appendPage(p query.Page, opts layout.Options) {
	if s.packer == nil && opts.RowWidth > 0 {
		s.packer = layout.NewPacker(opts)
		for _, it := range s.items {
			s.packer.Append(it.Asset.Ratio)
		}
	}
	for _, a := range p.Assets {
		if s.packer != nil {
			s.packer.Append(a.Ratio)
		}
		s.items = append(s.items, Item{Asset: a})
	}
	s.cursor = p.NextCursor
	s.exhausted = p.NextCursor == ""
	s.applyBoxes(opts)
}

// relayout rebuilds the segment's geometry from scratch for the given
// options. Required whenever the row width changes, since every row's scaling
// depends on it. Unloaded segments reserve estimated space instead.
//
// Caller holds the manager lock.
func (s *Segment) relayout(opts layout.Options) {
	if len(s.items) == 0 {
		s.packer = nil
		s.height = layout.EstimateHeight(s.expectedCount, opts)
		return
	}
	if opts.RowWidth <= 0 {
		s.packer = nil
		s.height = layout.EstimateHeight(len(s.items), opts)
		return
	}
	s.packer = layout.NewPacker(opts)
	for _, it := range s.items {
		s.packer.Append(it.Asset.Ratio)
	}
	s.applyBoxes(opts)
}

// applyBoxes copies the packer's current boxes onto the items and refreshes
// the segment height.
func (s *Segment) applyBoxes(opts layout.Options) {
	if s.packer == nil {
		s.height = layout.EstimateHeight(len(s.items), opts)
		return
	}
	boxes := s.packer.Boxes()
	for i := range s.items {
		s.items[i].Box = boxes[i]
	}
	s.height = s.packer.Height()
}

// UpdateIntersection records the scan result and classifies the segment's
// items against the same two windows. It reports whether the segment wants a
// next-page fetch: paginated variants request one when the visible window is
// within the near-end margin of the bottom of the whole timeline and no
// identical request is in flight.
//
// Caller holds the manager lock; the manager schedules the requested fetch
// after the scan completes, never during it.
func (s *Segment) UpdateIntersection(ix Intersection) bool {
	wasIntersecting := s.intersecting
	s.intersecting = ix.Visibility.Intersecting
	s.actuallyIntersecting = ix.Visibility.ActuallyIntersecting

	if s.intersecting {
		for i := range s.items {
			span := viewport.Span{Top: s.top + s.items[i].Box.Top, Height: s.items[i].Box.Height}
			v := viewport.Classify(span, ix.Window, ix.Margins)
			s.items[i].Intersecting = v.Intersecting
			s.items[i].ActuallyIntersecting = v.ActuallyIntersecting
		}
	} else if wasIntersecting {
		for i := range s.items {
			s.items[i].Intersecting = false
			s.items[i].ActuallyIntersecting = false
		}
	}

	if !s.paginated || s.state != SegmentLoaded || s.exhausted || s.inFlight {
		return false
	}
	return ix.TimelineHeight-ix.Window.Bottom <= ix.NearEndMargin
}

// contains reports whether the segment holds the asset and at which index.
func (s *Segment) contains(assetID string) (int, bool) {
	for i := range s.items {
		if s.items[i].Asset.ID == assetID {
			return i, true
		}
	}
	return 0, false
}

// fullyLoaded reports whether every item the segment will ever hold is
// present: loaded with no further pages outstanding.
func (s *Segment) fullyLoaded() bool {
	return s.state == SegmentLoaded && s.exhausted
}
