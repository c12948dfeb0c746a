// Package timeline implements the segmented virtualization engine: an
// ordered sequence of lazily loaded segments rendered as one scrollable,
// justified grid.
//
// The Manager owns the segment sequence, the viewport and scroll state, and
// the two recomputation passes that keep them consistent: geometry (row
// packing per segment plus segment stacking) and intersection (two-level
// visibility per segment and per item). Both passes are pull-based: they run
// at defined mutation points (viewport resize, scroll change, page append,
// asset removal), never behind implicit reactivity.
//
// # Concurrency
//
// All manager and segment state is serialized under one mutex, preserving the
// single-writer model the algorithms assume. Fetches run outside the lock on
// their own goroutines; their results are applied under the lock. The
// intersection scan additionally guards itself with a busy flag so that a
// scan triggered as a side effect of a scan in progress is skipped rather
// than recursed into; loads the scan decides on are scheduled after the scan
// completes.
package timeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/layout"
	"github.com/mosaicview/mosaic/pkg/observability"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/task"
	"github.com/mosaicview/mosaic/pkg/viewport"
)

// Default tunables, applied by Config.ValidateAndSetDefaults.
const (
	DefaultGap           = 24.0
	DefaultPrefetchTop   = 500.0
	DefaultPrefetchBot   = 1500.0
	DefaultNearEndMargin = 3000.0
	DefaultScrollSettle  = 250 * time.Millisecond
)

// Config carries the manager's tunables. Zero values are filled with
// defaults; every tunable is injected here rather than read from globals.
type Config struct {
	// RowHeight, Spacing and Tolerance parameterize row packing. The row
	// width always comes from the viewport.
	RowHeight float64 `toml:"row_height"`
	Spacing   float64 `toml:"spacing"`
	Tolerance float64 `toml:"tolerance"`

	// HeaderHeight and FooterHeight are fixed chrome above and below the
	// segment stack; Gap separates adjacent segments.
	HeaderHeight float64 `toml:"header_height"`
	FooterHeight float64 `toml:"footer_height"`
	Gap          float64 `toml:"gap"`

	// PrefetchTop and PrefetchBottom expand the visible window for the
	// intersection scan. Bottom is larger since scrolling down dominates.
	PrefetchTop    float64 `toml:"prefetch_top"`
	PrefetchBottom float64 `toml:"prefetch_bottom"`

	// NearEndMargin is how close the visible window must come to the bottom
	// of the whole timeline before paginated segments fetch their next page.
	NearEndMargin float64 `toml:"near_end_margin"`

	// ScrollSettle is how long the scrolling flag stays set after the last
	// scroll event.
	ScrollSettle time.Duration `toml:"scroll_settle"`
}

// ValidateAndSetDefaults fills zero-valued fields and validates the result.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.RowHeight == 0 {
		c.RowHeight = layout.DefaultRowHeight
	}
	if c.Spacing == 0 {
		c.Spacing = layout.DefaultSpacing
	}
	if c.Tolerance == 0 {
		c.Tolerance = layout.DefaultTolerance
	}
	if c.Gap == 0 {
		c.Gap = DefaultGap
	}
	if c.PrefetchTop == 0 {
		c.PrefetchTop = DefaultPrefetchTop
	}
	if c.PrefetchBottom == 0 {
		c.PrefetchBottom = DefaultPrefetchBot
	}
	if c.NearEndMargin == 0 {
		c.NearEndMargin = DefaultNearEndMargin
	}
	if c.ScrollSettle == 0 {
		c.ScrollSettle = DefaultScrollSettle
	}

	if c.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "row height must be positive: %g", c.RowHeight)
	}
	if c.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "spacing cannot be negative: %g", c.Spacing)
	}
	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return errors.New(errors.ErrCodeInvalidOption, "tolerance must be in (0, 1): %g", c.Tolerance)
	}
	if c.HeaderHeight < 0 || c.FooterHeight < 0 || c.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "chrome heights cannot be negative")
	}
	if c.PrefetchTop < 0 || c.PrefetchBottom < 0 || c.NearEndMargin < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "margins cannot be negative")
	}
	return nil
}

// LayoutOptions is the subset of tunables a host may change at runtime.
// SetLayoutOptions applies all three atomically.
type LayoutOptions struct {
	HeaderHeight float64 `json:"header_height"`
	RowHeight    float64 `json:"row_height"`
	Gap          float64 `json:"gap"`
}

// Validate checks the options.
func (o LayoutOptions) Validate() error {
	if o.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "row height must be positive: %g", o.RowHeight)
	}
	if o.HeaderHeight < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "header height cannot be negative: %g", o.HeaderHeight)
	}
	if o.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "gap cannot be negative: %g", o.Gap)
	}
	return nil
}

// Manager orchestrates segments, geometry and intersection for one timeline.
type Manager struct {
	cfg    Config
	logger *log.Logger

	// ctx bounds background loads; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	initTask   *task.Task
	scrollTask *task.Delayed

	mu       sync.Mutex
	segments []*Segment

	width, height float64
	scroll        float64
	scrolling     bool

	// timelineHeight = header + segment heights + inter-segment gaps + footer
	timelineHeight float64

	// scanning is the re-entrancy guard for the intersection scan.
	scanning bool
}

// New creates a manager over the source's segments. The source is consulted
// asynchronously; UpdateViewport waits for that initialization to finish, and
// Close cancels it if it is still running.
func New(ctx context.Context, src Source, cfg Config, logger *log.Logger) (*Manager, error) {
	if src == nil {
		return nil, errors.New(errors.ErrCodeNotInitialized, "manager needs a segment source")
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	runCtx, cancel := context.WithCancel(ctx)
	m := &Manager{
		cfg:    cfg,
		logger: logger,
		ctx:    runCtx,
		cancel: cancel,
	}
	m.scrollTask = task.NewDelayed(cfg.ScrollSettle, func() {
		m.mu.Lock()
		m.scrolling = false
		m.mu.Unlock()
	})
	m.initTask = task.New(func(initCtx context.Context) error {
		segments, err := src.Segments(initCtx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.adoptSegmentsLocked(segments)
		return nil
	})
	go func() { _ = m.initTask.Run(m.ctx) }()

	return m, nil
}

// adoptSegmentsLocked installs the initial segment list, dropping duplicate
// identities so identifiers stay unique, and reserves estimated geometry.
func (m *Manager) adoptSegmentsLocked(segments []*Segment) {
	seen := make(map[string]bool, len(segments))
	m.segments = m.segments[:0]
	for _, s := range segments {
		if seen[s.id] {
			m.logger.Warnf("dropping duplicate segment %q", s.id)
			continue
		}
		seen[s.id] = true
		m.segments = append(m.segments, s)
		s.relayout(m.layoutOptionsLocked())
	}
	m.refreshGeometryLocked()
	m.logger.Debugf("adopted %d segments, estimated height %.0f", len(m.segments), m.timelineHeight)
}

// Close tears the manager down. A still-running initialization settles to a
// cancelled state; in-flight loads observe the cancelled context.
func (m *Manager) Close() {
	m.cancel()
	m.initTask.Cancel()
	m.scrollTask.Cancel()
}

// =============================================================================
// Viewport and scroll
// =============================================================================

// UpdateViewport sets the viewport size. The first call waits for
// initialization to complete. A width change invalidates every segment's
// geometry, since row packing depends on the row width; a height-only change
// just rescans intersections.
func (m *Manager) UpdateViewport(ctx context.Context, width, height float64) error {
	if width <= 0 || height <= 0 {
		return errors.New(errors.ErrCodeValidation, "viewport must be positive: %gx%g", width, height)
	}
	if err := m.initTask.Run(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if width == m.width && height == m.height {
		return nil
	}
	widthChanged := width != m.width
	m.width, m.height = width, height

	if widthChanged {
		m.relayoutAllLocked(ctx)
	}
	m.scanLocked(ctx)
	return nil
}

// UpdateSlidingWindow sets the scroll offset. Geometry is independent of
// scroll, so only the intersection scan reruns, and only when the offset
// actually changed.
func (m *Manager) UpdateSlidingWindow(ctx context.Context, scroll float64) {
	if scroll < 0 {
		scroll = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if scroll == m.scroll {
		return
	}
	m.scroll = scroll
	m.scanLocked(ctx)
}

// SetScrolling sets the scrolling flag. Setting it arms (or re-arms) a
// delayed auto-clear; clearing it early cancels the countdown.
func (m *Manager) SetScrolling(on bool) {
	m.mu.Lock()
	m.scrolling = on
	m.mu.Unlock()

	if on {
		m.scrollTask.Arm()
	} else {
		m.scrollTask.Cancel()
	}
}

// Scrolling reports whether a scroll is in progress.
func (m *Manager) Scrolling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrolling
}

// SetLayoutOptions applies runtime layout tunables. Validation happens before
// anything is committed, so an invalid set changes nothing. When any value
// differs from the current configuration the whole geometry is refreshed.
func (m *Manager) SetLayoutOptions(ctx context.Context, o LayoutOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if o.HeaderHeight == m.cfg.HeaderHeight && o.RowHeight == m.cfg.RowHeight && o.Gap == m.cfg.Gap {
		return nil
	}
	m.cfg.HeaderHeight = o.HeaderHeight
	m.cfg.RowHeight = o.RowHeight
	m.cfg.Gap = o.Gap

	m.relayoutAllLocked(ctx)
	m.scanLocked(ctx)
	return nil
}

// RefreshLayout forces a full geometry recomputation and intersection rescan.
func (m *Manager) RefreshLayout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relayoutAllLocked(ctx)
	m.scanLocked(ctx)
}

// =============================================================================
// Geometry
// =============================================================================

// layoutOptionsLocked derives packing options from the config and current
// viewport width.
func (m *Manager) layoutOptionsLocked() layout.Options {
	return layout.Options{
		RowHeight: m.cfg.RowHeight,
		RowWidth:  m.width,
		Spacing:   m.cfg.Spacing,
		Tolerance: m.cfg.Tolerance,
	}
}

// relayoutAllLocked repacks every segment and restacks the timeline.
func (m *Manager) relayoutAllLocked(ctx context.Context) {
	start := time.Now()
	opts := m.layoutOptionsLocked()
	for _, s := range m.segments {
		s.relayout(opts)
	}
	m.refreshGeometryLocked()
	observability.Timeline().OnLayout(ctx, len(m.segments), time.Since(start))
}

// refreshGeometryLocked restacks segment tops and re-derives the aggregate
// timeline height. Segment heights plus inter-segment gaps always equal the
// timeline height minus the header and footer chrome.
func (m *Manager) refreshGeometryLocked() {
	top := m.cfg.HeaderHeight
	for i, s := range m.segments {
		if i > 0 {
			top += m.cfg.Gap
		}
		s.top = top
		top += s.height
	}
	m.timelineHeight = top + m.cfg.FooterHeight
}

// TimelineHeight returns the total scrollable content height, chrome
// included.
func (m *Manager) TimelineHeight() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timelineHeight
}

// MaxScroll returns the scrollable extent: total timeline height minus the
// viewport height, floored at zero.
func (m *Manager) MaxScroll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxScrollLocked()
}

func (m *Manager) maxScrollLocked() float64 {
	max := m.timelineHeight - m.height
	if max < 0 {
		return 0
	}
	return max
}

// MaxScrollPercent returns the current scroll position as a fraction of the
// scrollable extent, in [0, 1].
func (m *Manager) MaxScrollPercent() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := m.maxScrollLocked()
	if max <= 0 {
		return 0
	}
	pct := m.scroll / max
	if pct > 1 {
		return 1
	}
	return pct
}

// =============================================================================
// Intersection scan
// =============================================================================

// scanLocked classifies every segment (and the items of intersecting ones)
// against the current visible window and its prefetch expansion, then
// schedules the loads the scan decided on.
//
// The busy flag suppresses scans triggered by side effects of a scan already
// in progress; the skip is intentional and silent. Scheduled loads run on
// their own goroutines and re-enter through the lock, so they never recurse
// into the running scan.
func (m *Manager) scanLocked(ctx context.Context) {
	if m.scanning {
		observability.Timeline().OnScan(ctx, 0, true)
		return
	}
	m.scanning = true
	defer func() { m.scanning = false }()

	win := viewport.Window{Top: m.scroll, Bottom: m.scroll + m.height}
	margins := viewport.Margins{Top: m.cfg.PrefetchTop, Bottom: m.cfg.PrefetchBottom}

	spans := make([]viewport.Span, len(m.segments))
	for i, s := range m.segments {
		spans[i] = viewport.Span{Top: s.top, Height: s.height}
	}
	vis := viewport.Scan(spans, win, margins)

	visible := 0
	var toLoad, nextPage []*Segment
	for i, s := range m.segments {
		if vis[i].ActuallyIntersecting {
			visible++
		}
		more := s.UpdateIntersection(Intersection{
			Visibility:     vis[i],
			Window:         win,
			Margins:        margins,
			TimelineHeight: m.timelineHeight,
			NearEndMargin:  m.cfg.NearEndMargin,
		})
		if more {
			nextPage = append(nextPage, s)
		}
		if vis[i].Intersecting && s.state == SegmentNotLoaded && (s.loadTask == nil || !s.loadTask.Started()) {
			toLoad = append(toLoad, s)
		}
	}
	observability.Timeline().OnScan(ctx, visible, false)

	for _, s := range toLoad {
		seg := s
		go func() {
			if err := m.load(m.ctx, seg); err != nil && !errors.Is(err, errors.ErrCodeCancelled) {
				m.logger.Warnf("segment %q load: %v", seg.id, err)
			}
		}()
	}
	for _, s := range nextPage {
		// Claim in-flight inside the scan so back-to-back scans cannot
		// schedule the same page twice.
		s.inFlight = true
		go m.fetchNextPage(s)
	}
}

// =============================================================================
// Loading
// =============================================================================

// LoadSegment finds the segment matching the identifier and loads it. Calls
// while a load is in flight, or after one completed, are no-ops; a failed
// segment is reloaded from scratch. On success the intersection scan reruns,
// since the segment's height just became known.
func (m *Manager) LoadSegment(ctx context.Context, ident Identifier) error {
	m.mu.Lock()
	seg := m.findLocked(ident)
	m.mu.Unlock()
	if seg == nil {
		return errors.New(errors.ErrCodeSegmentNotFound, "no segment matches identifier")
	}
	return m.load(ctx, seg)
}

// load runs the segment's one-shot load task. The task fetches outside the
// lock and applies the page under it, so concurrent callers of the same
// segment share a single fetch.
func (m *Manager) load(ctx context.Context, seg *Segment) error {
	m.mu.Lock()
	t := seg.beginLoad(m.loadFn(seg))
	m.mu.Unlock()
	if t == nil {
		return nil
	}

	if err := t.Run(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.scanLocked(ctx)
	m.mu.Unlock()
	return nil
}

// loadFn builds the load task body for one segment.
func (m *Manager) loadFn(seg *Segment) func(context.Context) error {
	return func(runCtx context.Context) error {
		m.mu.Lock()
		cursor := seg.cursor
		m.mu.Unlock()

		observability.Timeline().OnSegmentLoadStart(runCtx, seg.id)
		start := time.Now()
		page, err := seg.fetch(runCtx, cursor)
		observability.Timeline().OnSegmentLoadComplete(runCtx, seg.id, len(page.Assets), time.Since(start), err)

		m.mu.Lock()
		defer m.mu.Unlock()
		if err != nil {
			if runCtx.Err() != nil || errors.Is(err, errors.ErrCodeCancelled) {
				// Cancelled before the fetch resolved: back to NotLoaded.
				seg.state = SegmentNotLoaded
				return err
			}
			seg.state = SegmentFailed
			seg.loadErr = err
			return err
		}

		seg.appendPage(page, m.layoutOptionsLocked())
		seg.state = SegmentLoaded
		m.refreshGeometryLocked()
		m.logger.Debugf("segment %q loaded %d items, height %.0f", seg.id, len(page.Assets), seg.height)
		return nil
	}
}

// fetchNextPage advances a paginated segment by one page. The caller has
// already claimed the segment's in-flight flag under the lock.
func (m *Manager) fetchNextPage(seg *Segment) {
	m.mu.Lock()
	cursor := seg.cursor
	if cursor == "" {
		seg.inFlight = false
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	observability.Timeline().OnSegmentLoadStart(m.ctx, seg.id)
	start := time.Now()
	page, err := seg.fetch(m.ctx, cursor)
	observability.Timeline().OnSegmentLoadComplete(m.ctx, seg.id, len(page.Assets), time.Since(start), err)

	m.mu.Lock()
	defer m.mu.Unlock()
	seg.inFlight = false
	if err != nil {
		// A failed next page leaves the segment loaded; the near-end check
		// will retry on a later scan.
		if !errors.Is(err, errors.ErrCodeCancelled) && m.ctx.Err() == nil {
			m.logger.Warnf("segment %q next page: %v", seg.id, err)
		}
		return
	}

	seg.appendPage(page, m.layoutOptionsLocked())
	m.refreshGeometryLocked()
	m.scanLocked(m.ctx)
}

// =============================================================================
// Lookup
// =============================================================================

func (m *Manager) findLocked(ident Identifier) *Segment {
	for _, s := range m.segments {
		if ident(s) {
			return s
		}
	}
	return nil
}

// GetSegmentByIdentifier returns the segment matching the identifier, or nil.
// The result is owned by the manager; use it with LoadSegment or the
// snapshot accessors rather than reading its state directly.
func (m *Manager) GetSegmentByIdentifier(ident Identifier) *Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(ident)
}

// FindSegmentForAssetID returns the first segment whose items contain the
// asset, or nil.
func (m *Manager) FindSegmentForAssetID(assetID string) *Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.segments {
		if _, ok := s.contains(assetID); ok {
			return s
		}
	}
	return nil
}

// EnsureSegment finds the segment sharing the candidate's identity or, when
// none exists, appends the candidate to the timeline. This is the
// find-or-create path for ad hoc search segments.
func (m *Manager) EnsureSegment(candidate *Segment) *Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.findLocked(ByID(candidate.id)); existing != nil {
		return existing
	}
	m.segments = append(m.segments, candidate)
	candidate.relayout(m.layoutOptionsLocked())
	m.refreshGeometryLocked()
	return candidate
}

// FindAssetAbsolutePosition returns the asset's absolute box in timeline
// coordinates. The second return is false when no loaded segment holds the
// asset; that is a legitimate miss, not an error.
func (m *Manager) FindAssetAbsolutePosition(assetID string) (layout.Box, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.segments {
		if i, ok := s.contains(assetID); ok {
			box := s.items[i].Box
			box.Top += s.top
			return box, true
		}
	}
	return layout.Box{}, false
}

// RetrieveLoadedRange returns the items between two asset descriptors,
// inclusive, in timeline order. If either endpoint is unknown or any spanned
// segment is not fully loaded, it returns nil: callers must never observe a
// gappy range, and an empty result means "try again later".
func (m *Manager) RetrieveLoadedRange(startID, endID string) []query.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()

	startSeg, startItem, ok := m.locateLocked(startID)
	if !ok {
		return nil
	}
	endSeg, endItem, ok := m.locateLocked(endID)
	if !ok {
		return nil
	}
	if startSeg > endSeg || (startSeg == endSeg && startItem > endItem) {
		startSeg, endSeg = endSeg, startSeg
		startItem, endItem = endItem, startItem
	}

	for si := startSeg; si <= endSeg; si++ {
		if !m.segments[si].fullyLoaded() {
			return nil
		}
	}

	var out []query.Asset
	for si := startSeg; si <= endSeg; si++ {
		items := m.segments[si].items
		lo, hi := 0, len(items)-1
		if si == startSeg {
			lo = startItem
		}
		if si == endSeg {
			hi = endItem
		}
		for i := lo; i <= hi; i++ {
			out = append(out, items[i].Asset)
		}
	}
	return out
}

func (m *Manager) locateLocked(assetID string) (segIdx, itemIdx int, ok bool) {
	for si, s := range m.segments {
		if i, found := s.contains(assetID); found {
			return si, i, true
		}
	}
	return 0, 0, false
}

// =============================================================================
// Removal
// =============================================================================

// RemoveAssets removes the given assets from every segment and returns the
// subset of ids that were found nowhere. Segments that lost items are
// repacked; segments emptied by the removal are discarded. Item scans run in
// reverse so removal keeps indices stable.
func (m *Manager) RemoveAssets(ctx context.Context, ids []string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}

	opts := m.layoutOptionsLocked()
	removedAny := false
	kept := m.segments[:0]
	for _, s := range m.segments {
		before := len(s.items)
		for i := len(s.items) - 1; i >= 0; i-- {
			id := s.items[i].Asset.ID
			if pending[id] {
				s.items = append(s.items[:i], s.items[i+1:]...)
				delete(pending, id)
			}
		}
		if len(s.items) < before {
			removedAny = true
			if len(s.items) == 0 && s.fullyLoaded() {
				m.logger.Debugf("discarding emptied segment %q", s.id)
				continue
			}
			s.relayout(opts)
		}
		kept = append(kept, s)
	}
	m.segments = kept

	if removedAny {
		m.refreshGeometryLocked()
		m.scanLocked(ctx)
	}

	notFound := make([]string, 0, len(pending))
	for _, id := range ids {
		if pending[id] {
			notFound = append(notFound, id)
			delete(pending, id)
		}
	}
	return notFound
}

// =============================================================================
// Snapshots
// =============================================================================

// ItemView is a copy of one item's state for external consumers. The box is
// absolute, in timeline coordinates.
type ItemView struct {
	Asset                query.Asset `json:"asset"`
	Box                  layout.Box  `json:"box"`
	Intersecting         bool        `json:"intersecting"`
	ActuallyIntersecting bool        `json:"actually_intersecting"`
}

// SegmentView is a copy of one segment's state for external consumers.
type SegmentView struct {
	ID                   string     `json:"id"`
	State                LoadState  `json:"state"`
	Top                  float64    `json:"top"`
	Height               float64    `json:"height"`
	Intersecting         bool       `json:"intersecting"`
	ActuallyIntersecting bool       `json:"actually_intersecting"`
	Exhausted            bool       `json:"exhausted"`
	Items                []ItemView `json:"items,omitempty"`
}

// Snapshot copies the current state of every segment, in timeline order.
// Item views are included only for intersecting segments; everything else is
// virtualized away.
func (m *Manager) Snapshot() []SegmentView {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]SegmentView, len(m.segments))
	for i, s := range m.segments {
		v := SegmentView{
			ID:                   s.id,
			State:                s.state,
			Top:                  s.top,
			Height:               s.height,
			Intersecting:         s.intersecting,
			ActuallyIntersecting: s.actuallyIntersecting,
			Exhausted:            s.exhausted,
		}
		if s.intersecting {
			v.Items = make([]ItemView, len(s.items))
			for j, it := range s.items {
				box := it.Box
				box.Top += s.top
				v.Items[j] = ItemView{
					Asset:                it.Asset,
					Box:                  box,
					Intersecting:         it.Intersecting,
					ActuallyIntersecting: it.ActuallyIntersecting,
				}
			}
		}
		views[i] = v
	}
	return views
}

// SegmentViewByIdentifier returns a copy of one segment's state, items
// included regardless of visibility.
func (m *Manager) SegmentViewByIdentifier(ident Identifier) (SegmentView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.findLocked(ident)
	if s == nil {
		return SegmentView{}, false
	}
	v := SegmentView{
		ID:                   s.id,
		State:                s.state,
		Top:                  s.top,
		Height:               s.height,
		Intersecting:         s.intersecting,
		ActuallyIntersecting: s.actuallyIntersecting,
		Exhausted:            s.exhausted,
		Items:                make([]ItemView, len(s.items)),
	}
	for j, it := range s.items {
		box := it.Box
		box.Top += s.top
		v.Items[j] = ItemView{
			Asset:                it.Asset,
			Box:                  box,
			Intersecting:         it.Intersecting,
			ActuallyIntersecting: it.ActuallyIntersecting,
		}
	}
	return v, true
}
