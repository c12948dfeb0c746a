package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

type stubSearcher struct {
	page query.Page
	err  error
}

func (s stubSearcher) Search(context.Context, query.Criteria, string) (query.Page, error) {
	return s.page, s.err
}

type stubWriter struct {
	inserted []query.Asset
	removed  []string
}

func (w *stubWriter) Insert(ctx context.Context, assets ...query.Asset) error {
	w.inserted = append(w.inserted, assets...)
	return nil
}

func (w *stubWriter) Remove(ctx context.Context, ids []string) (int64, error) {
	w.removed = append(w.removed, ids...)
	return int64(len(ids)), nil
}

func testAssets(n int) []query.Asset {
	assets := make([]query.Asset, n)
	for i := range assets {
		assets[i] = query.Asset{
			ID:      fmt.Sprintf("a%d", i),
			Ratio:   1.5,
			TakenAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(i) * time.Hour),
			Visible: true,
		}
	}
	return assets
}

func newTestServer(t *testing.T) (*Server, *timeline.Manager, *stubWriter) {
	t.Helper()
	mgr, err := timeline.New(context.Background(),
		timeline.StaticSource{ID: "all", Assets: testAssets(6)},
		timeline.Config{}, log.Default())
	if err != nil {
		t.Fatalf("timeline.New error: %v", err)
	}
	t.Cleanup(mgr.Close)
	if err := mgr.UpdateViewport(context.Background(), 1000, 600); err != nil {
		t.Fatalf("UpdateViewport error: %v", err)
	}

	writer := &stubWriter{}
	s := New(Config{Addr: ":0"}, mgr,
		stubSearcher{page: query.Page{Assets: testAssets(2), NextCursor: "2"}},
		nil, writer, log.Default())
	return s, mgr, writer
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/search?terms=beach", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var page query.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Assets) != 2 || page.NextCursor != "2" {
		t.Errorf("page = %+v", page)
	}

	// Invalid criteria surface as 400 with a code.
	rec = doJSON(t, s.Handler(), http.MethodGet, "/api/search?month=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid month status = %d", rec.Code)
	}
	var er errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil || er.Code == "" {
		t.Errorf("error body = %s", rec.Body)
	}
}

func TestBucketsWithoutLister(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/buckets", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestTimelineGeometry(t *testing.T) {
	s, mgr, _ := newTestServer(t)

	// Make sure the static segment has loaded before asking for geometry.
	waitLoaded(t, mgr, "all")

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/timeline", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp timelineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Height <= 0 || len(resp.Segments) != 1 {
		t.Errorf("geometry = height %.1f, %d segments", resp.Height, len(resp.Segments))
	}
}

func TestSegmentAndPositionEndpoints(t *testing.T) {
	s, mgr, _ := newTestServer(t)
	waitLoaded(t, mgr, "all")
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/timeline/segments/all", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("segment status = %d, body %s", rec.Code, rec.Body)
	}
	var view timeline.SegmentView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Items) != 6 {
		t.Errorf("segment items = %d, want 6", len(view.Items))
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/timeline/segments/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown segment status = %d, want 404", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/timeline/position/a0", nil); rec.Code != http.StatusOK {
		t.Errorf("position status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/timeline/position/ghost", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown position status = %d, want 404", rec.Code)
	}
}

func TestViewportAndScrollEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/timeline/viewport", viewportRequest{Width: 800, Height: 500})
	if rec.Code != http.StatusOK {
		t.Fatalf("viewport status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/timeline/viewport", viewportRequest{Width: -1, Height: 500})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid viewport status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/timeline/scroll", scrollRequest{Offset: 120, Scrolling: true})
	if rec.Code != http.StatusOK {
		t.Errorf("scroll status = %d", rec.Code)
	}
}

func TestAssetMutationEndpoints(t *testing.T) {
	s, mgr, writer := newTestServer(t)
	waitLoaded(t, mgr, "all")
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/assets", testAssets(2))
	if rec.Code != http.StatusCreated {
		t.Fatalf("insert status = %d, body %s", rec.Code, rec.Body)
	}
	if len(writer.inserted) != 2 {
		t.Errorf("inserted = %d, want 2", len(writer.inserted))
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/assets", removeRequest{IDs: []string{"a0", "ghost"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Removed  int64    `json:"removed"`
		NotFound []string `json:"not_found"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.NotFound) != 1 || resp.NotFound[0] != "ghost" {
		t.Errorf("not_found = %v, want [ghost]", resp.NotFound)
	}
	if mgr.FindSegmentForAssetID("a0") != nil {
		t.Error("removed asset still present in the timeline")
	}
}

func waitLoaded(t *testing.T, mgr *timeline.Manager, id string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := mgr.SegmentViewByIdentifier(timeline.ByID(id)); ok && v.State == timeline.SegmentLoaded {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("segment %q did not load in time", id)
}
