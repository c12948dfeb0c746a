package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mosaicview/mosaic/pkg/observability"
)

// hooksMiddleware reports request and response events to the registered HTTP
// hooks and logs slow or failing requests.
func (s *Server) hooksMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		elapsed := time.Since(start)

		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), elapsed)
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Errorf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), elapsed.Round(time.Millisecond))
		} else {
			s.logger.Debugf("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), elapsed.Round(time.Millisecond))
		}
	})
}
