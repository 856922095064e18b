// Package observability provides hooks for metrics and tracing.
//
// Library packages (pkg/harvest, pkg/cache consumers) emit events through
// the hooks registered here and never import a metrics backend themselves.
// The serve command registers Prometheus implementations at startup; every
// other entry point keeps the no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetScanHooks(metrics.NewScanHooks(reg))
//	observability.SetCacheHooks(metrics.NewCacheHooks(reg))
//
// Libraries call hooks to emit events:
//
//	observability.Scan().OnScanStart(ctx, path)
//	// ... gather, reconcile ...
//	observability.Scan().OnScanComplete(ctx, path, result, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Scan Hooks
// =============================================================================

// ScanResult carries the counters of a finished scan.
type ScanResult struct {
	Collected int // Identities gathered across all collectors
	Upserted  int // Identities written to the store
	Unindexed int // Records still awaiting the indexer
}

// ScanHooks receives events from the harvesting pipeline.
type ScanHooks interface {
	// OnScanStart records the start of a scan of path.
	OnScanStart(ctx context.Context, path string)
	// OnScanComplete records a finished scan. err is nil on success.
	OnScanComplete(ctx context.Context, path string, result ScanResult, duration time.Duration, err error)
	// OnCollect records one collector run.
	OnCollect(ctx context.Context, ecosystem string, count int, duration time.Duration, err error)
	// OnBatch records one reconcile batch.
	OnBatch(ctx context.Context, size, upserted int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopScanHooks is a no-op implementation of ScanHooks.
type NoopScanHooks struct{}

func (NoopScanHooks) OnScanStart(context.Context, string) {}
func (NoopScanHooks) OnScanComplete(context.Context, string, ScanResult, time.Duration, error) {
}
func (NoopScanHooks) OnCollect(context.Context, string, int, time.Duration, error) {}
func (NoopScanHooks) OnBatch(context.Context, int, int, time.Duration, error)      {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	scanHooks  ScanHooks  = NoopScanHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetScanHooks registers custom scan hooks. Call once at startup.
func SetScanHooks(h ScanHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		scanHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Call once at startup.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Scan returns the registered scan hooks.
func Scan() ScanHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return scanHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	scanHooks = NoopScanHooks{}
	cacheHooks = NoopCacheHooks{}
}
