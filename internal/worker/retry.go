package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

// Connect calls open with exponential backoff until it succeeds, ctx ends
// or maxElapsed passes. It is used for backends that may start after the
// worker.
func Connect[T any](ctx context.Context, name string, maxElapsed time.Duration, logger *log.Logger, open func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = log.Default()
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed

	return backoff.RetryNotifyWithData(
		func() (T, error) { return open(ctx) },
		backoff.WithContext(bo, ctx),
		func(err error, next time.Duration) {
			logger.Warn("backend not ready, retrying", "backend", name, "error", err, "retry_in", next.Round(time.Millisecond))
		},
	)
}
