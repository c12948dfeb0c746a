package query

import (
	"strings"
	"testing"
	"time"

	"github.com/mosaicview/mosaic/pkg/errors"
)

func TestCriteriaValidate(t *testing.T) {
	cases := []struct {
		name     string
		criteria Criteria
		wantErr  bool
	}{
		{name: "empty criteria", criteria: Criteria{}},
		{name: "terms only", criteria: Criteria{Terms: "beach sunset"}},
		{name: "month only", criteria: Criteria{Month: "2025-07"}},
		{name: "semantic search", criteria: Criteria{Terms: "dog", Semantic: true}},
		{name: "malformed month", criteria: Criteria{Month: "July 2025"}, wantErr: true},
		{name: "month 13", criteria: Criteria{Month: "2025-13"}, wantErr: true},
		{name: "oversized terms", criteria: Criteria{Terms: strings.Repeat("x", 600)}, wantErr: true},
		{name: "negative page size", criteria: Criteria{PageSize: -1}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.criteria.Validate()
			if tc.wantErr && err == nil {
				t.Error("want error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tc.wantErr && !errors.Is(err, errors.ErrCodeInvalidCriteria) {
				t.Errorf("error code = %v, want INVALID_CRITERIA", errors.GetCode(err))
			}
		})
	}
}

func TestCriteriaKey(t *testing.T) {
	a := Criteria{Terms: "beach", Month: "2025-07"}
	b := Criteria{Terms: "beach", Month: "2025-07"}
	if a.Key() != b.Key() {
		t.Error("equal criteria must produce equal keys")
	}
	if a.Key() == (Criteria{Terms: "beach"}).Key() {
		t.Error("different criteria must produce different keys")
	}
	if a.Key() == (Criteria{Terms: "beach", Month: "2025-07", Semantic: true}).Key() {
		t.Error("semantic flag must be part of the identity")
	}
}

func TestCriteriaLimit(t *testing.T) {
	if got := (Criteria{}).Limit(); got != DefaultPageSize {
		t.Errorf("default limit = %d, want %d", got, DefaultPageSize)
	}
	if got := (Criteria{PageSize: 25}).Limit(); got != 25 {
		t.Errorf("explicit limit = %d, want 25", got)
	}
}

func TestCriteriaMonthRange(t *testing.T) {
	start, end, ok := Criteria{Month: "2025-07"}.MonthRange()
	if !ok {
		t.Fatal("valid month should produce a range")
	}
	if start != time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("start = %v", start)
	}
	if end != time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("end = %v", end)
	}

	// December rolls into the next year.
	start, end, ok = Criteria{Month: "2024-12"}.MonthRange()
	if !ok || end.Year() != 2025 || end.Month() != time.January {
		t.Errorf("december range = %v..%v, ok %v", start, end, ok)
	}

	if _, _, ok := (Criteria{}).MonthRange(); ok {
		t.Error("empty month should not produce a range")
	}
	if _, _, ok := (Criteria{Month: "garbage"}).MonthRange(); ok {
		t.Error("malformed month should not produce a range")
	}
}

func TestAssetMonthKey(t *testing.T) {
	a := Asset{TakenAt: time.Date(2025, 7, 31, 23, 30, 0, 0, time.FixedZone("E", 3*3600))}
	// 2025-07-31 23:30 +03:00 is 20:30 UTC, still July.
	if got := a.MonthKey(); got != "2025-07" {
		t.Errorf("MonthKey = %q, want 2025-07", got)
	}
}
