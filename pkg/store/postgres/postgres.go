// Package postgres implements store.Store on PostgreSQL.
//
// Upserts are single INSERT ... ON CONFLICT ... RETURNING statements, so the
// insert-or-touch is atomic per identity without explicit transactions.
// LastSeenAt is advanced with GREATEST so a slow scan holding an older
// timestamp cannot move it backwards.
package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/store"
)

const (
	dependencyTable = "dependencies"
	linkTable       = "project_dependencies"
)

var (
	dependencyColumns = []string{"id", "ecosystem", "name", "version", "first_seen_at", "last_seen_at", "last_indexed_at"}
	linkColumns       = []string{"id", "path", "dependency_id", "first_seen_at", "last_seen_at"}
)

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to postgres")
	}
	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying pool for migrations.
func (s *Store) DB() *sql.DB { return s.db.DB }

type dependencyRow struct {
	ID            string       `db:"id"`
	Ecosystem     string       `db:"ecosystem"`
	Name          string       `db:"name"`
	Version       string       `db:"version"`
	FirstSeenAt   time.Time    `db:"first_seen_at"`
	LastSeenAt    time.Time    `db:"last_seen_at"`
	LastIndexedAt sql.NullTime `db:"last_indexed_at"`
}

func (r dependencyRow) record() store.Record {
	rec := store.Record{
		ID:          r.ID,
		Ecosystem:   deps.Ecosystem(r.Ecosystem),
		Name:        r.Name,
		Version:     r.Version,
		FirstSeenAt: r.FirstSeenAt,
		LastSeenAt:  r.LastSeenAt,
	}
	if r.LastIndexedAt.Valid {
		t := r.LastIndexedAt.Time
		rec.LastIndexedAt = &t
	}
	return rec
}

type linkRow struct {
	ID           string    `db:"id"`
	Path         string    `db:"path"`
	DependencyID string    `db:"dependency_id"`
	FirstSeenAt  time.Time `db:"first_seen_at"`
	LastSeenAt   time.Time `db:"last_seen_at"`
}

func (r linkRow) link() store.Link {
	return store.Link(r)
}

func upsertDependencyQuery(id string, dep deps.Dependency, now time.Time) (string, []any) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(dependencyTable)
	ib.Cols("id", "ecosystem", "name", "version", "first_seen_at", "last_seen_at")
	ib.Values(id, string(dep.Ecosystem), dep.Name, dep.Version, now, now)
	ib.SQL("ON CONFLICT (ecosystem, name, version) DO UPDATE SET last_seen_at = GREATEST(" + dependencyTable + ".last_seen_at, EXCLUDED.last_seen_at)")
	ib.SQL("RETURNING " + strings.Join(dependencyColumns, ", "))
	return ib.Build()
}

func upsertLinkQuery(id, path, dependencyID string, now time.Time) (string, []any) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(linkTable)
	ib.Cols("id", "path", "dependency_id", "first_seen_at", "last_seen_at")
	ib.Values(id, path, dependencyID, now, now)
	ib.SQL("ON CONFLICT (path, dependency_id) DO UPDATE SET last_seen_at = GREATEST(" + linkTable + ".last_seen_at, EXCLUDED.last_seen_at)")
	ib.SQL("RETURNING " + strings.Join(linkColumns, ", "))
	return ib.Build()
}

func unindexedQuery() (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(dependencyColumns...)
	sb.From(dependencyTable)
	sb.Where(sb.IsNull("last_indexed_at"))
	sb.OrderBy("ecosystem", "name", "version")
	return sb.Build()
}

func markIndexedQuery(id deps.Identity, at time.Time) (string, []any) {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(dependencyTable)
	ub.Set(ub.Assign("last_indexed_at", at))
	ub.Where(
		ub.Equal("ecosystem", string(id.Ecosystem)),
		ub.Equal("name", id.Name),
		ub.Equal("version", id.Version),
	)
	return ub.Build()
}

func projectsUsingQuery(id deps.Identity) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("pd.id", "pd.path", "pd.dependency_id", "pd.first_seen_at", "pd.last_seen_at")
	sb.From(sb.As(linkTable, "pd"))
	sb.Join(sb.As(dependencyTable, "d"), "d.id = pd.dependency_id")
	sb.Where(
		sb.Equal("d.ecosystem", string(id.Ecosystem)),
		sb.Equal("d.name", id.Name),
		sb.Equal("d.version", id.Version),
	)
	sb.OrderBy("pd.path")
	return sb.Build()
}

func (s *Store) UpsertDependency(ctx context.Context, dep deps.Dependency, now time.Time) (store.Record, error) {
	query, args := upsertDependencyQuery(uuid.NewString(), dep, now)
	var row dependencyRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return store.Record{}, errors.Wrap(errors.ErrCodeStore, err, "upsert dependency %s", dep.Identity)
	}
	return row.record(), nil
}

func (s *Store) UpsertLink(ctx context.Context, path, dependencyID string, now time.Time) (store.Link, error) {
	query, args := upsertLinkQuery(uuid.NewString(), path, dependencyID, now)
	var row linkRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return store.Link{}, errors.Wrap(errors.ErrCodeStore, err, "upsert link %s -> %s", path, dependencyID)
	}
	return row.link(), nil
}

func (s *Store) FindUnindexed(ctx context.Context) ([]store.Record, error) {
	query, args := unindexedQuery()
	var rows []dependencyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find unindexed dependencies")
	}
	out := make([]store.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

func (s *Store) MarkIndexed(ctx context.Context, id deps.Identity, at time.Time) error {
	query, args := markIndexedQuery(id, at)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "mark %s indexed", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "mark %s indexed", id)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeNotFound, "dependency %s not found", id)
	}
	return nil
}

func (s *Store) ProjectsUsing(ctx context.Context, id deps.Identity) ([]store.Link, error) {
	query, args := projectsUsingQuery(id)
	var rows []linkRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find projects using %s", id)
	}
	out := make([]store.Link, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.link())
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)
