// Package metrics implements the observability hooks with Prometheus
// collectors.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/locallore/pkg/observability"
)

const namespace = "locallore"

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ScanHooks records scan, collector and batch events.
type ScanHooks struct {
	scans       *prometheus.CounterVec
	scanSeconds prometheus.Histogram
	collected   prometheus.Counter
	upserted    prometheus.Counter
	unindexed   prometheus.Gauge
	inFlight    prometheus.Gauge

	collects       *prometheus.CounterVec
	collectSeconds *prometheus.HistogramVec
	identities     *prometheus.CounterVec

	batches      *prometheus.CounterVec
	batchSeconds prometheus.Histogram
}

// NewScanHooks registers the scan collectors with reg.
func NewScanHooks(reg prometheus.Registerer) *ScanHooks {
	h := &ScanHooks{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "scans_total", Help: "Scans finished, by status.",
		}, []string{"status"}),
		scanSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "scan_duration_seconds", Help: "Wall time of a scan.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		collected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dependencies_collected_total", Help: "Identities gathered by scans.",
		}),
		upserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "dependencies_upserted_total", Help: "Identities written to the store.",
		}),
		unindexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "dependencies_unindexed", Help: "Records awaiting the indexer after the last scan.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "scans_in_flight", Help: "Scans currently running.",
		}),
		collects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "collector_runs_total", Help: "Collector runs, by ecosystem and status.",
		}, []string{"ecosystem", "status"}),
		collectSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "collector_duration_seconds", Help: "Wall time of a collector run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"ecosystem"}),
		identities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "collector_identities_total", Help: "Identities emitted, by ecosystem.",
		}, []string{"ecosystem"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "reconcile_batches_total", Help: "Reconcile batches, by status.",
		}, []string{"status"}),
		batchSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "reconcile_batch_duration_seconds", Help: "Wall time of a reconcile batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		h.scans, h.scanSeconds, h.collected, h.upserted, h.unindexed, h.inFlight,
		h.collects, h.collectSeconds, h.identities,
		h.batches, h.batchSeconds,
	)
	return h
}

func (h *ScanHooks) OnScanStart(context.Context, string) { h.inFlight.Inc() }

func (h *ScanHooks) OnScanComplete(_ context.Context, _ string, r observability.ScanResult, d time.Duration, err error) {
	h.inFlight.Dec()
	h.scans.WithLabelValues(status(err)).Inc()
	h.scanSeconds.Observe(d.Seconds())
	if err != nil {
		return
	}
	h.collected.Add(float64(r.Collected))
	h.upserted.Add(float64(r.Upserted))
	h.unindexed.Set(float64(r.Unindexed))
}

func (h *ScanHooks) OnCollect(_ context.Context, eco string, count int, d time.Duration, err error) {
	h.collects.WithLabelValues(eco, status(err)).Inc()
	h.collectSeconds.WithLabelValues(eco).Observe(d.Seconds())
	h.identities.WithLabelValues(eco).Add(float64(count))
}

func (h *ScanHooks) OnBatch(_ context.Context, _, _ int, d time.Duration, err error) {
	h.batches.WithLabelValues(status(err)).Inc()
	h.batchSeconds.Observe(d.Seconds())
}

// CacheHooks counts manifest cache lookups.
type CacheHooks struct {
	requests *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

// NewCacheHooks registers the cache collectors with reg.
func NewCacheHooks(reg prometheus.Registerer) *CacheHooks {
	h := &CacheHooks{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_requests_total", Help: "Cache lookups, by key type and result.",
		}, []string{"key_type", "result"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_written_bytes_total", Help: "Bytes written to the cache.",
		}, []string{"key_type"}),
	}
	reg.MustRegister(h.requests, h.bytes)
	return h
}

func (h *CacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.requests.WithLabelValues(keyType, "hit").Inc()
}

func (h *CacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.requests.WithLabelValues(keyType, "miss").Inc()
}

func (h *CacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.bytes.WithLabelValues(keyType).Add(float64(size))
}

// Register installs both hook sets on reg and in the global registry of
// pkg/observability.
func Register(reg prometheus.Registerer) {
	observability.SetScanHooks(NewScanHooks(reg))
	observability.SetCacheHooks(NewCacheHooks(reg))
}

var (
	_ observability.ScanHooks  = (*ScanHooks)(nil)
	_ observability.CacheHooks = (*CacheHooks)(nil)
)
