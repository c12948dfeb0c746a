// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about timeline activity, cache operations,
// and API traffic.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the engine dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTimelineHooks(&myTimelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Timeline().OnSegmentLoadStart(ctx, segmentID)
//	// ... fetch ...
//	observability.Timeline().OnSegmentLoadComplete(ctx, segmentID, n, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Timeline Hooks
// =============================================================================

// TimelineHooks receives events from the timeline engine.
type TimelineHooks interface {
	// Segment load events
	OnSegmentLoadStart(ctx context.Context, segmentID string)
	OnSegmentLoadComplete(ctx context.Context, segmentID string, items int, duration time.Duration, err error)

	// Geometry events
	OnLayout(ctx context.Context, segments int, duration time.Duration)

	// Intersection scan events; skipped reports scans suppressed by the
	// re-entrancy guard.
	OnScan(ctx context.Context, visible int, skipped bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTimelineHooks is a no-op implementation of TimelineHooks.
type NoopTimelineHooks struct{}

func (NoopTimelineHooks) OnSegmentLoadStart(context.Context, string) {}
func (NoopTimelineHooks) OnSegmentLoadComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopTimelineHooks) OnLayout(context.Context, int, time.Duration) {}
func (NoopTimelineHooks) OnScan(context.Context, int, bool)            {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                        {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration)   {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	timelineHooks TimelineHooks = NoopTimelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetTimelineHooks registers custom timeline hooks.
// This should be called once at application startup before any engine activity.
func SetTimelineHooks(h TimelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		timelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Timeline returns the registered timeline hooks.
func Timeline() TimelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return timelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}
