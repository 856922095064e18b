// Package memory is an in-process store.Store used by tests, the collect
// command and deployments without a database.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/store"
)

type linkKey struct {
	path, dependencyID string
}

// Store keeps records in maps guarded by a single mutex, which makes each
// upsert atomic.
type Store struct {
	mu      sync.Mutex
	records map[deps.Identity]*store.Record
	links   map[linkKey]*store.Link
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records: make(map[deps.Identity]*store.Record),
		links:   make(map[linkKey]*store.Link),
	}
}

func (s *Store) UpsertDependency(ctx context.Context, dep deps.Dependency, now time.Time) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[dep.Identity]; ok {
		r.LastSeenAt = store.Later(r.LastSeenAt, now)
		return copyRecord(r), nil
	}
	r := &store.Record{
		ID:          uuid.NewString(),
		Ecosystem:   dep.Ecosystem,
		Name:        dep.Name,
		Version:     dep.Version,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	s.records[dep.Identity] = r
	return copyRecord(r), nil
}

func (s *Store) UpsertLink(ctx context.Context, path, dependencyID string, now time.Time) (store.Link, error) {
	if err := ctx.Err(); err != nil {
		return store.Link{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := linkKey{path, dependencyID}
	if l, ok := s.links[key]; ok {
		l.LastSeenAt = store.Later(l.LastSeenAt, now)
		return *l, nil
	}
	l := &store.Link{
		ID:           uuid.NewString(),
		Path:         path,
		DependencyID: dependencyID,
		FirstSeenAt:  now,
		LastSeenAt:   now,
	}
	s.links[key] = l
	return *l, nil
}

func (s *Store) FindUnindexed(ctx context.Context) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []store.Record{}
	for _, r := range s.records {
		if r.Stale() {
			out = append(out, copyRecord(r))
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *Store) MarkIndexed(ctx context.Context, id deps.Identity, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "dependency %s not found", id)
	}
	r.LastIndexedAt = &at
	return nil
}

func (s *Store) ProjectsUsing(ctx context.Context, id deps.Identity) ([]store.Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []store.Link{}
	r, ok := s.records[id]
	if !ok {
		return out, nil
	}
	for _, l := range s.links {
		if l.DependencyID == r.ID {
			out = append(out, *l)
		}
	}
	slices.SortFunc(out, func(a, b store.Link) int { return cmp.Compare(a.Path, b.Path) })
	return out, nil
}

// Records returns a snapshot of every record, sorted by identity.
func (s *Store) Records() []store.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, copyRecord(r))
	}
	sortRecords(out)
	return out
}

// Links returns a snapshot of every project link.
func (s *Store) Links() []store.Link {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Link, 0, len(s.links))
	for _, l := range s.links {
		out = append(out, *l)
	}
	return out
}

func (s *Store) Close() error { return nil }

func copyRecord(r *store.Record) store.Record {
	c := *r
	if r.LastIndexedAt != nil {
		t := *r.LastIndexedAt
		c.LastIndexedAt = &t
	}
	return c
}

func sortRecords(rs []store.Record) {
	slices.SortFunc(rs, func(a, b store.Record) int {
		return cmp.Or(
			cmp.Compare(a.Ecosystem, b.Ecosystem),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Version, b.Version),
		)
	})
}

var _ store.Store = (*Store)(nil)
