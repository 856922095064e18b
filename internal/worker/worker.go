// Package worker hosts the scanner in a long-lived process: it scans the
// configured paths on startup and on every interval tick, consumes the
// Redis scan queue, and accepts ad-hoc triggers from the HTTP server.
package worker

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/locallore/internal/queue"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/harvest"
)

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context, path string) (*harvest.ScanSummary, error)
}

// Publisher receives the summary of every successful scan.
type Publisher interface {
	Publish(ctx context.Context, summary *harvest.ScanSummary) error
}

// Queue supplies scan requests from other processes.
type Queue interface {
	Lease(ctx context.Context, timeout time.Duration) (*queue.Request, func(context.Context) error, error)
}

// ErrBusy is returned when another scan of the same path holds the lock.
var ErrBusy = stderrors.New("scan already in progress")

// Options configures a [Worker].
type Options struct {
	Paths        []string      // Scanned on startup and every Interval
	Interval     time.Duration // Zero disables periodic scans
	Locker       queue.Locker  // Per-path lock (default in-process)
	LockTTL      time.Duration // Lock expiry (default 10m)
	Queue        Queue         // Optional Redis queue
	LeaseTimeout time.Duration // Blocking wait per lease (default 5s)
	Publisher    Publisher     // Optional handoff
	Logger       *log.Logger
}

// Worker schedules scans. Scans triggered through the loop run one at a
// time; queue requests are handled concurrently with the loop and
// serialized per path by the locker.
type Worker struct {
	scanner  Scanner
	opts     Options
	triggers chan string
}

// New returns a worker around s.
func New(s Scanner, opts Options) *Worker {
	if opts.Locker == nil {
		opts.Locker = queue.NewLocalLocker()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.LeaseTimeout <= 0 {
		opts.LeaseTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Worker{scanner: s, opts: opts, triggers: make(chan string, 64)}
}

// Trigger schedules a scan of path. It reports false when the trigger
// buffer is full.
func (w *Worker) Trigger(path string) bool {
	select {
	case w.triggers <- path:
		return true
	default:
		return false
	}
}

// Run blocks until ctx is cancelled. It returns nil on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.loop(ctx) })
	if w.opts.Queue != nil {
		g.Go(func() error { return w.consume(ctx) })
	}
	err := g.Wait()
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) loop(ctx context.Context) error {
	w.scanAll(ctx)

	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			w.scanAll(ctx)
		case path := <-w.triggers:
			w.scanLogged(ctx, path)
		}
	}
}

func (w *Worker) consume(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, ack, err := w.opts.Queue.Lease(ctx, w.opts.LeaseTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.opts.Logger.Warn("lease scan request", "error", err)
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}
		if req == nil {
			continue
		}

		w.scanLogged(ctx, req.Path)
		// Failed requests are not redelivered; the next tick covers
		// configured paths.
		if err := ack(context.WithoutCancel(ctx)); err != nil {
			w.opts.Logger.Warn("ack scan request", "path", req.Path, "error", err)
		}
	}
}

func (w *Worker) scanAll(ctx context.Context) {
	for _, p := range w.opts.Paths {
		if ctx.Err() != nil {
			return
		}
		w.scanLogged(ctx, p)
	}
}

func (w *Worker) scanLogged(ctx context.Context, path string) {
	if _, err := w.ScanPath(ctx, path); err != nil {
		switch {
		case stderrors.Is(err, ErrBusy):
			w.opts.Logger.Info("skipping scan, already running elsewhere", "path", path)
		case ctx.Err() != nil:
		case errors.Retryable(err):
			w.opts.Logger.Warn("scan failed, retrying next tick", "path", path, "error", err)
		default:
			w.opts.Logger.Error("scan failed", "path", path, "error", err)
		}
	}
}

// ScanPath scans path under its lock and hands the summary to the
// publisher. Publish failures are logged, not returned.
func (w *Worker) ScanPath(ctx context.Context, path string) (*harvest.ScanSummary, error) {
	lock, err := w.opts.Locker.Acquire(ctx, path, w.opts.LockTTL)
	if stderrors.Is(err, queue.ErrLockNotAcquired) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			w.opts.Logger.Warn("release scan lock", "path", path, "error", err)
		}
	}()

	summary, err := w.scanner.Scan(ctx, path)
	if err != nil {
		return nil, err
	}
	if w.opts.Publisher != nil {
		if err := w.opts.Publisher.Publish(ctx, summary); err != nil {
			w.opts.Logger.Warn("handoff failed", "path", path, "error", err)
		}
	}
	return summary, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
