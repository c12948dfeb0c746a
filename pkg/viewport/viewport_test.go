package viewport

import "testing"

func TestClassify(t *testing.T) {
	win := Window{Top: 1000, Bottom: 1800}
	margins := Margins{Top: 200, Bottom: 600}

	tests := []struct {
		name string
		span Span
		want Visibility
	}{
		{
			name: "fully inside exact window",
			span: Span{Top: 1200, Height: 300},
			want: Visibility{Intersecting: true, ActuallyIntersecting: true},
		},
		{
			name: "straddles exact top edge",
			span: Span{Top: 900, Height: 200},
			want: Visibility{Intersecting: true, ActuallyIntersecting: true},
		},
		{
			name: "only in expanded window above",
			span: Span{Top: 850, Height: 100},
			want: Visibility{Intersecting: true, ActuallyIntersecting: false},
		},
		{
			name: "only in expanded window below",
			span: Span{Top: 2000, Height: 300},
			want: Visibility{Intersecting: true, ActuallyIntersecting: false},
		},
		{
			name: "entirely above both windows",
			span: Span{Top: 0, Height: 700},
			want: Visibility{Intersecting: false, ActuallyIntersecting: false},
		},
		{
			name: "entirely below both windows",
			span: Span{Top: 2500, Height: 400},
			want: Visibility{Intersecting: false, ActuallyIntersecting: false},
		},
		{
			name: "touching edge does not overlap",
			span: Span{Top: 1800, Height: 200},
			want: Visibility{Intersecting: true, ActuallyIntersecting: false},
		},
		{
			name: "touching expanded edge does not overlap",
			span: Span{Top: 2400, Height: 100},
			want: Visibility{Intersecting: false, ActuallyIntersecting: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.span, win, margins)
			if got != tt.want {
				t.Errorf("Classify(%+v) = %+v, want %+v", tt.span, got, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	win := Window{Top: 500, Bottom: 900}
	got := win.Expand(Margins{Top: 100, Bottom: 300})
	want := Window{Top: 400, Bottom: 1200}
	if got != want {
		t.Errorf("Expand = %+v, want %+v", got, want)
	}
}

func TestScan(t *testing.T) {
	// Five contiguous segments of height 500 starting at 0.
	spans := make([]Span, 5)
	for i := range spans {
		spans[i] = Span{Top: float64(i) * 500, Height: 500}
	}

	win := Window{Top: 600, Bottom: 1100}
	margins := Margins{Top: 100, Bottom: 400}
	// Expanded window: [500, 1500].

	got := Scan(spans, win, margins)

	want := []Visibility{
		{false, false},                                          // [0,500) touches expanded top edge only
		{true, true},                                            // [500,1000) overlaps both
		{true, true},                                            // [1000,1500) overlaps both
		{false, false},                                          // [1500,2000) starts at expanded bottom
		{false, false},                                          // beyond early exit
	}

	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	// Visible spans form one contiguous run.
	first, last := -1, -1
	for i, v := range got {
		if v.Intersecting {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	for i := first; i <= last; i++ {
		if !got[i].Intersecting {
			t.Errorf("intersection run has a hole at %d", i)
		}
	}
}

func TestScanExpandedOnly(t *testing.T) {
	spans := []Span{
		{Top: 0, Height: 300},
		{Top: 300, Height: 300},
		{Top: 600, Height: 300},
	}
	win := Window{Top: 350, Bottom: 550}
	margins := Margins{Top: 100, Bottom: 100}
	// Exact: [350,550] hits span 1 only; expanded [250,650] grazes 0 and 2.

	got := Scan(spans, win, margins)

	if !got[0].Intersecting || got[0].ActuallyIntersecting {
		t.Errorf("span 0 = %+v, want prefetch-only visibility", got[0])
	}
	if !got[1].Intersecting || !got[1].ActuallyIntersecting {
		t.Errorf("span 1 = %+v, want fully visible", got[1])
	}
	if !got[2].Intersecting || got[2].ActuallyIntersecting {
		t.Errorf("span 2 = %+v, want prefetch-only visibility", got[2])
	}
}

func TestScanEmpty(t *testing.T) {
	if got := Scan(nil, Window{Top: 0, Bottom: 100}, Margins{}); len(got) != 0 {
		t.Errorf("Scan(nil) returned %d results, want 0", len(got))
	}
}
