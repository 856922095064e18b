package harvest

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/locallore/pkg/cache"
	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/deps/languages"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/observability"
	"github.com/matzehuels/locallore/pkg/store"
)

const tracerName = "github.com/matzehuels/locallore/pkg/harvest"

// ScanSummary is the outcome of one scan.
type ScanSummary struct {
	Path         string                 `json:"path"`
	Collected    int                    `json:"collected"`
	PerEcosystem map[deps.Ecosystem]int `json:"per_ecosystem"`
	Upserted     int                    `json:"upserted"`
	Unindexed    []store.Record         `json:"unindexed"`
	Duration     time.Duration          `json:"duration"`
}

// Options configures a [Scanner].
type Options struct {
	Collectors          []deps.Collector // Collectors to run (default: every supported ecosystem)
	Cache               cache.Cache      // Manifest cache (default: none)
	CacheTTL            time.Duration    // Manifest cache TTL (default cache.DefaultTTL)
	BatchSize           int              // Reconcile batch size (default 20)
	DisableProjectLinks bool             // Skip project/dependency links
	Now                 func() time.Time // Clock (default time.Now)
	Logger              *log.Logger      // Logger (default log.Default())
}

// Scanner runs the full harvest of one directory. It holds no per-scan
// state and may be shared between goroutines.
type Scanner struct {
	store      store.Store
	aggregator *Aggregator
	reconciler *Reconciler
	logger     *log.Logger
	tracer     trace.Tracer
}

// New returns a scanner writing to s.
func New(s store.Store, opts Options) *Scanner {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Collectors == nil {
		opts.Collectors = languages.Collectors(deps.Options{Logger: opts.Logger})
	}

	agg := NewAggregator(opts.Collectors, opts.Cache, opts.Logger)
	if opts.CacheTTL > 0 {
		agg.CacheTTL = opts.CacheTTL
	}

	return &Scanner{
		store:      s,
		aggregator: agg,
		reconciler: NewReconciler(s, ReconcileOptions{
			BatchSize:           opts.BatchSize,
			DisableProjectLinks: opts.DisableProjectLinks,
			Now:                 opts.Now,
			Logger:              opts.Logger,
		}),
		logger: opts.Logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Aggregator returns the scanner's aggregator, for dry runs that only
// collect.
func (s *Scanner) Aggregator() *Aggregator { return s.aggregator }

// Scan harvests path, which must be an absolute directory.
func (s *Scanner) Scan(ctx context.Context, path string) (summary *ScanSummary, err error) {
	if err := validateDir(path); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "harvest.Scan", trace.WithAttributes(attribute.String("scan.path", path)))
	start := time.Now()
	observability.Scan().OnScanStart(ctx, path)

	defer func() {
		var result observability.ScanResult
		if summary != nil {
			result = observability.ScanResult{
				Collected: summary.Collected,
				Upserted:  summary.Upserted,
				Unindexed: len(summary.Unindexed),
			}
			span.SetAttributes(
				attribute.Int("scan.collected", result.Collected),
				attribute.Int("scan.upserted", result.Upserted),
				attribute.Int("scan.unindexed", result.Unindexed),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.Scan().OnScanComplete(ctx, path, result, time.Since(start), err)
	}()

	found, err := s.aggregator.Gather(ctx, path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("collected dependencies", "path", path, "count", len(found))

	upserted, err := s.reconciler.Reconcile(ctx, path, found)
	if err != nil {
		return nil, err
	}

	unindexed, err := FindUnindexed(ctx, s.store)
	if err != nil {
		return nil, err
	}

	summary = &ScanSummary{
		Path:         path,
		Collected:    len(found),
		PerEcosystem: countEcosystems(found),
		Upserted:     upserted,
		Unindexed:    unindexed,
		Duration:     time.Since(start),
	}
	s.logger.Info("scan complete",
		"path", path,
		"upserted", upserted,
		"unindexed", len(unindexed),
		"duration", summary.Duration)
	return summary, nil
}

// Collect gathers path without touching the store.
func (s *Scanner) Collect(ctx context.Context, path string) ([]deps.Dependency, error) {
	if err := validateDir(path); err != nil {
		return nil, err
	}
	return s.aggregator.Gather(ctx, path)
}

func validateDir(path string) error {
	if err := errors.ValidateScanPath(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "cannot scan %s", path)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", path)
	}
	return nil
}

func countEcosystems(found []deps.Dependency) map[deps.Ecosystem]int {
	out := make(map[deps.Ecosystem]int)
	for _, d := range found {
		out[d.Ecosystem]++
	}
	return out
}
