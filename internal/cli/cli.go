// Package cli implements the mosaic command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mosaicview/mosaic/pkg/buildinfo"
	"github.com/mosaicview/mosaic/pkg/cache"
	"github.com/mosaicview/mosaic/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mosaic"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag value, resolved per command.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mosaic serves large media timelines as a virtualized grid",
		Long:         `Mosaic is a segmented virtualization engine for large, lazily loaded media collections: it partitions a collection into loadable segments, packs items into justified rows, and tracks viewport intersection for rendering and prefetch.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the TOML config file")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Construction
// =============================================================================

// loadConfig loads the configured (or default) configuration.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newCache builds the configured cache backend. Backend failures degrade to
// the null cache so a missing redis never blocks serving.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config) cache.Cache {
	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		return cache.NewNullCache()
	case config.CacheBackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			c.Logger.Warnf("redis cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Warnf("no cache directory, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warnf("file cache unavailable, caching disabled: %v", err)
			return cache.NewNullCache()
		}
		return fc
	}
}
