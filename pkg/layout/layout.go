// Package layout implements justified row packing for variable-aspect media
// grids.
//
// Items are described only by their intrinsic aspect ratio (width/height).
// The packer accumulates items into rows at a target row height, and closes a
// row when justifying it to the full row width would push its height outside a
// relative tolerance. Closed rows are scaled so their items plus spacing fill
// the row width exactly, preserving each item's aspect ratio. The final row is
// left at the target height, unjustified.
//
// # Algorithm
//
// For a candidate row of n items with aspect ratios r1..rn, justifying to
// width W with spacing S yields the row height
//
//	h = (W - (n-1)*S) / (r1 + ... + rn)
//
// Before admitting the next item, the packer computes h for the row including
// the candidate. While the row is underfull, h sits above the target height H
// and admitting items moves it down toward H; once h would fall more than the
// tolerance below H, the row is closed without the candidate and the candidate
// starts a new row. Closed rows therefore justify to a height no lower than
// H*(1 - tolerance).
//
// # Incremental appends
//
// Packing depends on the row width, so a width change invalidates everything.
// Appending items at a fixed width, however, only needs to repack from the
// start of the open (last, unjustified) row: closed rows' geometry is never
// touched. The Packer type supports this append path.
package layout

import (
	"math"

	"github.com/mosaicview/mosaic/pkg/errors"
)

// Default tunables. Injected via Options; these are only fallbacks for
// zero-valued fields.
const (
	DefaultRowHeight = 235.0
	DefaultSpacing   = 2.0
	DefaultTolerance = 0.15

	// estimateRatio is the aspect ratio assumed per item when reserving
	// space for content that has not loaded yet (typical 3:2 landscape).
	estimateRatio = 1.5
)

// Options are the geometry tunables for row packing.
type Options struct {
	// RowHeight is the target row height H in pixels.
	RowHeight float64 `json:"row_height"`

	// RowWidth is the target row width W in pixels (the viewport width).
	RowWidth float64 `json:"row_width"`

	// Spacing is the gap S between adjacent items and rows, in pixels.
	Spacing float64 `json:"spacing"`

	// Tolerance is the relative height deviation at which a row closes.
	Tolerance float64 `json:"tolerance"`
}

// SetDefaults fills zero-valued fields with package defaults.
func (o *Options) SetDefaults() {
	if o.RowHeight == 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.Spacing == 0 {
		o.Spacing = DefaultSpacing
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
}

// Validate checks that the options describe a packable geometry.
func (o Options) Validate() error {
	if o.RowHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "row height must be positive: %g", o.RowHeight)
	}
	if o.RowWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidOption, "row width must be positive: %g", o.RowWidth)
	}
	if o.Spacing < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "spacing cannot be negative: %g", o.Spacing)
	}
	if o.Tolerance <= 0 || o.Tolerance >= 1 {
		return errors.New(errors.ErrCodeInvalidOption, "tolerance must be in (0, 1): %g", o.Tolerance)
	}
	return nil
}

// Box is the computed position and size of one item, relative to the top-left
// corner of its segment.
type Box struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the box's bottom edge.
func (b Box) Bottom() float64 { return b.Top + b.Height }

// Pack lays out items with the given aspect ratios and returns one box per
// item plus the total packed height (rows plus inter-row spacing).
//
// The input order is display order; boxes are returned in the same order.
func Pack(ratios []float64, opts Options) ([]Box, float64) {
	p := NewPacker(opts)
	p.Append(ratios...)
	return p.Boxes(), p.Height()
}

// row is a closed, justified row.
type row struct {
	top    float64
	height float64
	boxes  []Box
}

// Packer packs items into justified rows incrementally.
//
// Closed rows are final: appending more items never moves or rescales them.
// The open row (items that have not yet forced a close) is re-justified as
// items arrive, so its boxes are only stable once the row closes.
type Packer struct {
	opts Options

	closed    []row
	openRatio []float64 // aspect ratios of items in the open row
	count     int       // total items appended
}

// NewPacker creates a packer for the given options. Zero-valued tunables are
// replaced with package defaults.
func NewPacker(opts Options) *Packer {
	opts.SetDefaults()
	return &Packer{opts: opts}
}

// Append adds items to the pack, closing rows as the tolerance demands.
func (p *Packer) Append(ratios ...float64) {
	for _, r := range ratios {
		if r <= 0 {
			// Degenerate metadata; treat as square rather than corrupting
			// the row arithmetic.
			r = 1
		}
		p.count++

		cand := append(p.openRatio, r)
		h := p.justifiedHeight(cand)
		if len(p.openRatio) > 0 && h < p.opts.RowHeight*(1-p.opts.Tolerance) {
			p.closeOpenRow()
			p.openRatio = []float64{r}
			continue
		}
		p.openRatio = cand
	}
}

// Len returns the number of items appended so far.
func (p *Packer) Len() int { return p.count }

// Boxes materializes boxes for every appended item, in append order.
// Closed-row boxes are final; open-row boxes are laid out at the target row
// height without justification.
func (p *Packer) Boxes() []Box {
	boxes := make([]Box, 0, p.count)
	for _, r := range p.closed {
		boxes = append(boxes, r.boxes...)
	}
	if len(p.openRatio) > 0 {
		boxes = append(boxes, p.layoutRow(p.openRatio, p.openTop(), p.opts.RowHeight)...)
	}
	return boxes
}

// Height returns the total packed height: all rows plus spacing between them.
func (p *Packer) Height() float64 {
	top := p.openTop()
	if len(p.openRatio) > 0 {
		return top + p.opts.RowHeight
	}
	if len(p.closed) == 0 {
		return 0
	}
	// openTop includes trailing spacing after the last closed row.
	return top - p.opts.Spacing
}

// justifiedHeight returns the row height that results from scaling a row with
// the given ratios to exactly fill the row width.
func (p *Packer) justifiedHeight(ratios []float64) float64 {
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	avail := p.opts.RowWidth - p.opts.Spacing*float64(len(ratios)-1)
	return avail / sum
}

// openTop returns the top offset where the open row (or the next closed row)
// begins.
func (p *Packer) openTop() float64 {
	top := 0.0
	for _, r := range p.closed {
		top += r.height + p.opts.Spacing
	}
	return top
}

// closeOpenRow justifies the open row to the full row width and appends it to
// the closed list.
func (p *Packer) closeOpenRow() {
	h := p.justifiedHeight(p.openRatio)
	top := p.openTop()
	p.closed = append(p.closed, row{
		top:    top,
		height: h,
		boxes:  p.layoutRow(p.openRatio, top, h),
	})
	p.openRatio = nil
}

// layoutRow produces boxes for one row at the given top offset and height.
func (p *Packer) layoutRow(ratios []float64, top, height float64) []Box {
	boxes := make([]Box, len(ratios))
	left := 0.0
	for i, r := range ratios {
		w := height * r
		boxes[i] = Box{Top: top, Left: left, Width: w, Height: height}
		left += w + p.opts.Spacing
	}
	return boxes
}

// EstimateHeight reserves vertical space for a segment whose content has not
// loaded yet, based on an expected item count. The estimate assumes typical
// landscape items at the target row height.
func EstimateHeight(expectedCount int, opts Options) float64 {
	if expectedCount <= 0 {
		return 0
	}
	opts.SetDefaults()

	itemWidth := opts.RowHeight*estimateRatio + opts.Spacing
	perRow := math.Max(1, math.Floor((opts.RowWidth+opts.Spacing)/itemWidth))
	rows := math.Ceil(float64(expectedCount) / perRow)
	return rows*opts.RowHeight + (rows-1)*opts.Spacing
}
