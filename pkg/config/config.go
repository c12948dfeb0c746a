// Package config loads and validates the application configuration.
//
// Configuration lives in a TOML file and is decoded into typed sections. All
// values have working defaults, so an empty (or absent) file yields a usable
// configuration: a local MongoDB, a file cache, and the standard timeline
// tunables. Loaded configurations are injected into constructors; nothing in
// this package is global.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mosaicview/mosaic/pkg/errors"
	"github.com/mosaicview/mosaic/pkg/timeline"
)

// Cache backend names accepted in [cache].
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Server configures the HTTP API.
type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Mongo configures the asset store connection.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`

	// Semantic enables $text search; requires a text index on the collection.
	Semantic bool `toml:"semantic"`
}

// Redis configures the redis cache backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Cache selects and configures the search page cache.
type Cache struct {
	// Backend is one of "file", "redis" or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's directory; empty selects the XDG cache dir.
	Dir string `toml:"dir"`

	Redis Redis `toml:"redis"`
}

// Config is the root configuration.
type Config struct {
	Server   Server          `toml:"server"`
	Mongo    Mongo           `toml:"mongo"`
	Cache    Cache           `toml:"cache"`
	Timeline timeline.Config `toml:"timeline"`
}

// Load reads the configuration file at path. An empty path returns the
// defaults without touching the filesystem.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidOption, err, "decode config %s", path)
		}
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateAndSetDefaults fills zero-valued fields and validates the result.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "mosaic"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "assets"
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendFile
	}
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidOption, "unknown cache backend: %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}

	return c.Timeline.ValidateAndSetDefaults()
}

// CacheDir returns the file cache directory: the configured one, or the XDG
// cache dir for the application.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "mosaic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "resolve home directory")
	}
	return filepath.Join(home, ".cache", "mosaic"), nil
}
