package harvest

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/observability"
	"github.com/matzehuels/locallore/pkg/store"
)

// DefaultBatchSize caps the number of concurrent store writes.
const DefaultBatchSize = 20

// ReconcileOptions configures a [Reconciler].
type ReconcileOptions struct {
	BatchSize           int              // Upserts in flight at once (default 20)
	DisableProjectLinks bool             // Skip the project/dependency association
	Now                 func() time.Time // Clock (default time.Now)
	Logger              *log.Logger      // Logger (default log.Default())
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (o ReconcileOptions) WithDefaults() ReconcileOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Reconciler writes gathered dependencies to a store.
type Reconciler struct {
	store store.Store
	opts  ReconcileOptions
}

// NewReconciler returns a reconciler writing to s.
func NewReconciler(s store.Store, opts ReconcileOptions) *Reconciler {
	return &Reconciler{store: s, opts: opts.WithDefaults()}
}

// Reconcile upserts every dependency and, unless disabled, links it to
// path. Batches run one after another; the dependencies of a batch are
// written concurrently. The first failure cancels its batch and stops
// reconciliation. The returned count covers the batches that completed.
func (r *Reconciler) Reconcile(ctx context.Context, path string, found []deps.Dependency) (int, error) {
	now := r.opts.Now()

	var total int
	for start := 0; start < len(found); start += r.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		end := min(start+r.opts.BatchSize, len(found))
		batch := found[start:end]

		began := time.Now()
		n, err := r.upsertBatch(ctx, path, batch, now)
		observability.Scan().OnBatch(ctx, len(batch), n, time.Since(began), err)
		if err != nil {
			return total, err
		}
		total += n
		r.opts.Logger.Debug("batch reconciled", "path", path, "size", len(batch), "upserted", n)
	}
	return total, nil
}

// upsertBatch writes one batch. Each goroutine owns its slot in done, so
// the count needs no shared accumulator.
func (r *Reconciler) upsertBatch(ctx context.Context, path string, batch []deps.Dependency, now time.Time) (int, error) {
	done := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i, dep := range batch {
		g.Go(func() error {
			if err := r.upsert(gctx, path, dep, now); err != nil {
				return err
			}
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var n int
	for _, ok := range done {
		if ok {
			n++
		}
	}
	return n, nil
}

func (r *Reconciler) upsert(ctx context.Context, path string, dep deps.Dependency, now time.Time) error {
	rec, err := r.store.UpsertDependency(ctx, dep, now)
	if err != nil {
		return &UpsertError{Identity: dep.Identity, Err: err}
	}
	if r.opts.DisableProjectLinks {
		return nil
	}
	if _, err := r.store.UpsertLink(ctx, path, rec.ID, now); err != nil {
		return &UpsertError{Identity: dep.Identity, Err: err}
	}
	return nil
}

// UpsertError reports the identity whose upsert failed.
type UpsertError struct {
	Identity deps.Identity
	Err      error
}

func (e *UpsertError) Error() string { return "upsert " + e.Identity.String() + ": " + e.Err.Error() }

func (e *UpsertError) Unwrap() error { return e.Err }
