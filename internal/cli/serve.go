package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mosaicview/mosaic/internal/server"
	"github.com/mosaicview/mosaic/pkg/cache"
	"github.com/mosaicview/mosaic/pkg/query"
	"github.com/mosaicview/mosaic/pkg/store/mongostore"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

// serveCommand creates the serve command: the full engine behind the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timeline engine over HTTP",
		Long: `Serve connects to the asset store, derives one segment per calendar month,
and exposes search, buckets, and timeline geometry over a JSON HTTP API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := c.Logger

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			p := newProgress(logger)
			store, err := mongostore.New(ctx, mongostore.Config{
				URI:        cfg.Mongo.URI,
				Database:   cfg.Mongo.Database,
				Collection: cfg.Mongo.Collection,
				Semantic:   cfg.Mongo.Semantic,
			}, logger)
			if err != nil {
				return fmt.Errorf("connect asset store: %w", err)
			}
			defer func() { _ = store.Close(context.Background()) }()

			pageCache := c.newCache(ctx, cfg)
			defer func() { _ = pageCache.Close() }()

			// Scope cache keys to the collection so two deployments sharing
			// one redis never mix pages.
			keyer := cache.NewScopedKeyer(nil, cfg.Mongo.Database+":"+cfg.Mongo.Collection+":")
			searcher := query.NewCachedSearcher(store, pageCache, keyer, logger)

			mgr, err := timeline.New(ctx, timeline.BucketSource{Lister: store, Searcher: searcher}, cfg.Timeline, logger)
			if err != nil {
				return err
			}
			defer mgr.Close()
			p.done("engine initialized")

			srv := server.New(server.Config{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}, mgr, searcher, store, store, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx, cfg.Server.ShutdownTimeout)
			})
			g.Go(func() error {
				// Warm the bucket listing so the first timeline request does
				// not pay the aggregation.
				buckets, err := store.Buckets(gctx)
				if err != nil {
					logger.Warnf("bucket warmup: %v", err)
					return nil
				}
				logger.Infof("%d month buckets", len(buckets))
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
