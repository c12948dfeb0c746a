// Package viewport implements the two-level visibility test that drives
// virtualization and prefetch.
//
// Every span (a segment, or an item inside one) is classified against two
// windows derived from the scroll state:
//
//   - the exact visible window [top, bottom], which decides what is actually
//     on screen ("actually intersecting")
//   - an expanded window grown by asymmetric margins, which decides what
//     should be materialized or prefetched ("intersecting")
//
// The margins are asymmetric on purpose: hosts typically expand further in
// the direction of scroll so content is ready before it enters the viewport.
//
// Spans are expected in offset order. Scan exploits that to exit early once a
// span starts below the expanded window, so a scroll update touches only the
// spans around the visible region.
package viewport

// Window is a vertical interval in timeline coordinates.
type Window struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Height returns the window's vertical extent.
func (w Window) Height() float64 { return w.Bottom - w.Top }

// Expand grows the window by the given margins.
func (w Window) Expand(m Margins) Window {
	return Window{Top: w.Top - m.Top, Bottom: w.Bottom + m.Bottom}
}

// Margins are the asymmetric expansion distances for the prefetch window.
type Margins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Span is a vertical run with a known top offset and height.
type Span struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom returns the span's bottom edge.
func (s Span) Bottom() float64 { return s.Top + s.Height }

// Overlaps reports whether the span and window share any vertical extent.
// Touching edges do not count as overlap.
func (s Span) Overlaps(w Window) bool {
	return s.Top < w.Bottom && s.Bottom() > w.Top
}

// Visibility is the result of classifying one span.
type Visibility struct {
	// Intersecting is true when the span overlaps the expanded window and
	// should be materialized (rendered or prefetched).
	Intersecting bool `json:"intersecting"`

	// ActuallyIntersecting is true when the span overlaps the exact visible
	// window. With non-negative margins it implies Intersecting.
	ActuallyIntersecting bool `json:"actually_intersecting"`
}

// Classify tests one span against the exact window and its expansion.
func Classify(s Span, win Window, m Margins) Visibility {
	return Visibility{
		Intersecting:         s.Overlaps(win.Expand(m)),
		ActuallyIntersecting: s.Overlaps(win),
	}
}

// Scan classifies ordered spans against the window. Spans must be sorted by
// top offset; once a span starts below the expanded window every later span
// is invisible, so the scan stops testing and returns zero values for the
// remainder.
func Scan(spans []Span, win Window, m Margins) []Visibility {
	out := make([]Visibility, len(spans))
	expanded := win.Expand(m)

	for i, s := range spans {
		if s.Top >= expanded.Bottom {
			break
		}
		out[i] = Visibility{
			Intersecting:         s.Overlaps(expanded),
			ActuallyIntersecting: s.Overlaps(win),
		}
	}
	return out
}
