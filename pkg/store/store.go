// Package store defines the persistence contract for harvested dependencies.
//
// The harvesting core only ever inserts records or touches their
// LastSeenAt. LastIndexedAt belongs to the downstream indexer: it is set
// through [Store.MarkIndexed] and never written or cleared by a scan.
//
// Backends live in subpackages: memory (tests and dry runs), postgres and
// mongo.
package store

import (
	"context"
	"time"

	"github.com/matzehuels/locallore/pkg/deps"
)

// Record is the persisted form of a dependency identity.
type Record struct {
	ID            string         `json:"id"`
	Ecosystem     deps.Ecosystem `json:"ecosystem"`
	Name          string         `json:"name"`
	Version       string         `json:"version"`
	FirstSeenAt   time.Time      `json:"first_seen_at"`
	LastSeenAt    time.Time      `json:"last_seen_at"`
	LastIndexedAt *time.Time     `json:"last_indexed_at"` // nil until the indexer processes it
}

// Identity returns the record's natural key.
func (r Record) Identity() deps.Identity {
	return deps.Identity{Ecosystem: r.Ecosystem, Name: r.Name, Version: r.Version}
}

// Stale reports whether the record still awaits indexing.
func (r Record) Stale() bool { return r.LastIndexedAt == nil }

// Link associates a scanned project path with a dependency record.
type Link struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	DependencyID string    `json:"dependency_id"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// Store persists dependency records. Every method honours ctx.
type Store interface {
	// UpsertDependency atomically inserts the identity with
	// FirstSeenAt = LastSeenAt = now and LastIndexedAt = nil, or, when it
	// exists, sets LastSeenAt = max(LastSeenAt, now) and leaves every other
	// field untouched. It returns the resulting record.
	UpsertDependency(ctx context.Context, dep deps.Dependency, now time.Time) (Record, error)
	// UpsertLink is the same insert-or-touch for (path, dependencyID).
	UpsertLink(ctx context.Context, path, dependencyID string, now time.Time) (Link, error)
	// FindUnindexed returns every record whose LastIndexedAt is nil.
	FindUnindexed(ctx context.Context) ([]Record, error)
	// MarkIndexed sets LastIndexedAt. It is the indexer's entry point and
	// returns a NOT_FOUND error for unknown identities.
	MarkIndexed(ctx context.Context, id deps.Identity, at time.Time) error
	// ProjectsUsing returns the links of every project path that declared id.
	ProjectsUsing(ctx context.Context, id deps.Identity) ([]Link, error)
	// Close releases the backend's connections.
	Close() error
}

// Later returns the later of a and b.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
