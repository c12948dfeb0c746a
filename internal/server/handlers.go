package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch proxies the search capability: criteria from query params,
// one page of assets plus the next cursor back.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := query.Criteria{
		Terms:    q.Get("terms"),
		Month:    q.Get("month"),
		Semantic: q.Get("semantic") == "true",
	}
	if ps := q.Get("page_size"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidCriteria, "invalid page size: %q", ps))
			return
		}
		c.PageSize = n
	}
	if err := c.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.searcher.Search(r.Context(), c, q.Get("cursor"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	if s.lister == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotInitialized, "no bucket lister configured"))
		return
	}
	buckets, err := s.lister.Buckets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"buckets": buckets})
}

// timelineResponse is the geometry snapshot served to remote renderers.
type timelineResponse struct {
	Height    float64                `json:"height"`
	MaxScroll float64                `json:"max_scroll"`
	Scrolling bool                   `json:"scrolling"`
	Segments  []timeline.SegmentView `json:"segments"`
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, timelineResponse{
		Height:    s.manager.TimelineHeight(),
		MaxScroll: s.manager.MaxScroll(),
		Scrolling: s.manager.Scrolling(),
		Segments:  s.manager.Snapshot(),
	})
}

// handleSegment loads a segment if necessary and returns it with items,
// so a renderer can materialize a deep-linked region before scrolling there.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.LoadSegment(r.Context(), timeline.ByID(id)); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, ok := s.manager.SegmentViewByIdentifier(timeline.ByID(id))
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeSegmentNotFound, "segment %q not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	if err := errors.ValidateAssetID(assetID); err != nil {
		s.writeError(w, r, err)
		return
	}
	box, ok := s.manager.FindAssetAbsolutePosition(assetID)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeAssetNotFound, "asset %q has no known position", assetID))
		return
	}
	s.writeJSON(w, http.StatusOK, box)
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeValidation, "invalid viewport body"))
		return
	}
	if err := s.manager.UpdateViewport(r.Context(), req.Width, req.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{
		"height":     s.manager.TimelineHeight(),
		"max_scroll": s.manager.MaxScroll(),
	})
}

type scrollRequest struct {
	Offset    float64 `json:"offset"`
	Scrolling bool    `json:"scrolling"`
}

func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeValidation, "invalid scroll body"))
		return
	}
	s.manager.SetScrolling(req.Scrolling)
	s.manager.UpdateSlidingWindow(r.Context(), req.Offset)
	s.writeJSON(w, http.StatusOK, map[string]float64{
		"max_scroll_percent": s.manager.MaxScrollPercent(),
	})
}

func (s *Server) handleInsertAssets(w http.ResponseWriter, r *http.Request) {
	if s.writer == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotInitialized, "no asset writer configured"))
		return
	}
	var assets []query.Asset
	if err := json.NewDecoder(r.Body).Decode(&assets); err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeValidation, "invalid asset body"))
		return
	}
	if err := s.writer.Insert(r.Context(), assets...); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(assets)})
}

type removeRequest struct {
	IDs []string `json:"ids"`
}

// handleRemoveAssets removes assets from the store and from the live
// timeline, reporting the ids the engine did not hold.
func (s *Server) handleRemoveAssets(w http.ResponseWriter, r *http.Request) {
	if s.writer == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotInitialized, "no asset writer configured"))
		return
	}
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeValidation, "invalid remove body"))
		return
	}

	removed, err := s.writer.Remove(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	notFound := s.manager.RemoveAssets(r.Context(), req.IDs)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"removed":   removed,
		"not_found": notFound,
	})
}

// =============================================================================
// Responses
// =============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("encode response: %v", err)
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= http.StatusInternalServerError {
		s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	s.writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: code})
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidOption, errors.ErrCodeInvalidCriteria, errors.ErrCodeInvalidCursor,
		errors.ErrCodeInvalidAsset, errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeAssetNotFound, errors.ErrCodeSegmentNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeNotInitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
