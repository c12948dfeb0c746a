// Package server exposes the timeline engine over a small JSON HTTP API.
//
// The API is a host shell, not a paint layer: it serves search pages, the
// chronological buckets, and the geometry the engine already computed
// (per-segment spans and per-item absolute boxes), and forwards viewport and
// scroll updates from a remote renderer.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

// AssetWriter is the mutation surface of the asset store. The HTTP layer
// depends on this narrow contract rather than on a concrete store.
type AssetWriter interface {
	Insert(ctx context.Context, assets ...query.Asset) error
	Remove(ctx context.Context, ids []string) (int64, error)
}

// Config carries the HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server wires the engine and its collaborators into an HTTP handler.
type Server struct {
	cfg      Config
	manager  *timeline.Manager
	searcher query.Searcher
	lister   query.BucketLister
	writer   AssetWriter
	logger   *log.Logger
}

// New creates a server. The lister and writer are optional; endpoints backed
// by a missing collaborator answer 503.
func New(cfg Config, mgr *timeline.Manager, searcher query.Searcher, lister query.BucketLister, writer AssetWriter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:      cfg,
		manager:  mgr,
		searcher: searcher,
		lister:   lister,
		writer:   writer,
		logger:   logger,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.hooksMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", s.handleHealthz)
		r.Get("/search", s.handleSearch)
		r.Get("/buckets", s.handleBuckets)

		r.Route("/timeline", func(r chi.Router) {
			r.Get("/", s.handleTimeline)
			r.Get("/segments/{id}", s.handleSegment)
			r.Get("/position/{assetID}", s.handlePosition)
			r.Post("/viewport", s.handleViewport)
			r.Post("/scroll", s.handleScroll)
		})

		r.Post("/assets", s.handleInsertAssets)
		r.Delete("/assets", s.handleRemoveAssets)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully within the given timeout.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
