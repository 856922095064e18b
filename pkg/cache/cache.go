// Package cache stores parsed manifest results keyed by manifest content.
//
// Collectors are comparatively expensive (the Cargo collector shells out to
// cargo), while manifests rarely change between scans. The harvest
// aggregator digests a collector's manifests and looks up the digest here
// before collecting.
//
// # Implementations
//
//   - [NullCache]: never stores anything (caching disabled).
//   - [FileCache]: one JSON file per entry; survives CLI invocations.
//   - [LRUCache]: bounded in-memory cache for the long-lived worker.
//
// # Keys
//
// Use [ManifestKey] to build keys. The key covers the ecosystem, the project
// directory and the manifest digest, so any manifest edit yields a new key
// and stale entries simply age out.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl <= 0 means the implementation's default.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// DefaultTTL bounds how long parsed manifests are trusted.
const DefaultTTL = 7 * 24 * time.Hour
