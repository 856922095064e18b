// Package cli implements the locallore command-line interface.
//
// # Commands
//
//   - scan: Harvest a project directory into the configured store
//   - collect: Print what a scan would record, without a store
//   - serve: Run the scheduler, queue consumer and HTTP API
//   - enqueue: Ask a running server to scan a path via Redis
//   - unindexed: List records still awaiting the indexer
//   - migrate: Create or upgrade the store schema
//   - cache: Manage the manifest cache
//
// # Configuration
//
// Every command reads the YAML file given with --config, a .env file,
// LOCALLORE_* environment variables and the persistent flags, in that order.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to the helpers that open backends.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func parseLevel(s string) (log.Level, error) {
	return log.ParseLevel(s)
}

// formatter maps the log_format setting to a charm formatter. Unknown
// values fall back to text; config validation rejects them earlier.
func formatter(name string) log.Formatter {
	switch name {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Scanned /srv/api (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
