package harvest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/locallore/pkg/cache"
	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/observability"
)

const manifestKeyType = "manifest"

// Aggregator runs a fixed set of collectors over one directory.
type Aggregator struct {
	Collectors []deps.Collector
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     *log.Logger
}

// NewAggregator returns an aggregator over collectors. A nil cache disables
// caching.
func NewAggregator(collectors []deps.Collector, c cache.Cache, logger *log.Logger) *Aggregator {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{Collectors: collectors, Cache: c, CacheTTL: cache.DefaultTTL, Logger: logger}
}

// Gather collects the dependencies declared below path. The result holds
// each collector's output in collector order. A collector error cancels the
// remaining collectors and is returned with the ecosystem attached.
func (a *Aggregator) Gather(ctx context.Context, path string) ([]deps.Dependency, error) {
	results := make([][]deps.Dependency, len(a.Collectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range a.Collectors {
		g.Go(func() error {
			start := time.Now()
			found, err := a.collect(gctx, c, path)
			observability.Scan().OnCollect(gctx, string(c.Ecosystem()), len(found), time.Since(start), err)
			if err != nil {
				return errors.Wrap(errors.ErrCodeCollectorFailed, err, "collect %s", c.Ecosystem())
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var n int
	for _, r := range results {
		n += len(r)
	}
	out := make([]deps.Dependency, 0, n)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// collect consults the manifest cache before running c.
func (a *Aggregator) collect(ctx context.Context, c deps.Collector, path string) ([]deps.Dependency, error) {
	eco := string(c.Ecosystem())
	digest, ok := digestManifests(path, c.Manifests(path))
	if !ok {
		return c.Collect(ctx, path)
	}
	if f, ok := c.(deps.Fingerprinter); ok {
		digest = cache.Hash([]byte(digest + "\x00" + f.Fingerprint()))
	}
	key := cache.ManifestKey(eco, path, digest)

	if data, hit, err := a.Cache.Get(ctx, key); err != nil {
		a.Logger.Warn("manifest cache read failed", "ecosystem", eco, "error", err)
	} else if hit {
		var cached []deps.Dependency
		if err := json.Unmarshal(data, &cached); err == nil {
			observability.Cache().OnCacheHit(ctx, manifestKeyType)
			a.Logger.Debug("manifest cache hit", "ecosystem", eco, "count", len(cached))
			return cached, nil
		}
		a.Logger.Warn("discarding corrupt manifest cache entry", "ecosystem", eco)
	}
	observability.Cache().OnCacheMiss(ctx, manifestKeyType)

	found, err := c.Collect(ctx, path)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(found); err == nil {
		if err := a.Cache.Set(ctx, key, data, a.CacheTTL); err != nil {
			a.Logger.Warn("manifest cache write failed", "ecosystem", eco, "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, manifestKeyType, len(data))
		}
	}
	return found, nil
}

// digestManifests hashes the names and contents of files. It reports false
// when there is nothing to hash or a file cannot be read; the collector then
// runs uncached and reports the problem itself.
func digestManifests(dir string, files []string) (string, bool) {
	if len(files) == 0 {
		return "", false
	}
	var buf []byte
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", false
		}
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			rel = f
		}
		buf = append(buf, rel...)
		buf = append(buf, 0)
		buf = append(buf, cache.Hash(data)...)
		buf = append(buf, '\n')
	}
	return cache.Hash(buf), true
}
