package postgres

import (
	"context"
	stderrors "errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
)

var (
	t0    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	serde = deps.New(deps.Cargo, "serde", "1.0.200")
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), log.New(io.Discard)), mock
}

func TestUpsertDependencyQuery(t *testing.T) {
	query, args := upsertDependencyQuery("id-1", serde, t0)

	assert.Equal(t,
		"INSERT INTO dependencies (id, ecosystem, name, version, first_seen_at, last_seen_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) "+
			"ON CONFLICT (ecosystem, name, version) DO UPDATE SET last_seen_at = GREATEST(dependencies.last_seen_at, EXCLUDED.last_seen_at) "+
			"RETURNING id, ecosystem, name, version, first_seen_at, last_seen_at, last_indexed_at",
		query)
	assert.Equal(t, []any{"id-1", "cargo", "serde", "1.0.200", t0, t0}, args)
	assert.NotContains(t, query, "last_indexed_at =", "upsert must never write last_indexed_at")
}

func TestUpsertDependency(t *testing.T) {
	s, mock := newMock(t)

	indexed := t0.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO dependencies")).
		WithArgs(sqlmock.AnyArg(), "cargo", "serde", "1.0.200", t0, t0).
		WillReturnRows(sqlmock.NewRows(dependencyColumns).
			AddRow("0b5c", "cargo", "serde", "1.0.200", t0.Add(-24*time.Hour), t0, indexed))

	r, err := s.UpsertDependency(context.Background(), serde, t0)
	require.NoError(t, err)
	assert.Equal(t, "0b5c", r.ID)
	assert.Equal(t, serde.Identity, r.Identity())
	assert.Equal(t, t0.Add(-24*time.Hour), r.FirstSeenAt)
	require.NotNil(t, r.LastIndexedAt)
	assert.Equal(t, indexed, *r.LastIndexedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertDependency_Error(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO dependencies")).
		WillReturnError(stderrors.New("connection reset"))

	_, err := s.UpsertDependency(context.Background(), serde, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeStore))
	assert.Contains(t, err.Error(), "cargo:serde:1.0.200")
}

func TestUpsertLink(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO project_dependencies (id, path, dependency_id, first_seen_at, last_seen_at)")).
		WithArgs(sqlmock.AnyArg(), "/srv/app", "0b5c", t0, t0).
		WillReturnRows(sqlmock.NewRows(linkColumns).AddRow("l1", "/srv/app", "0b5c", t0, t0))

	l, err := s.UpsertLink(context.Background(), "/srv/app", "0b5c", t0)
	require.NoError(t, err)
	assert.Equal(t, "l1", l.ID)
	assert.Equal(t, "/srv/app", l.Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnindexed(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, ecosystem, name, version, first_seen_at, last_seen_at, last_indexed_at FROM dependencies WHERE last_indexed_at IS NULL")).
		WillReturnRows(sqlmock.NewRows(dependencyColumns).
			AddRow("a", "npm", "react", "18.2.0", t0, t0, nil).
			AddRow("b", "go", "golang.org/x/mod", "v0.31.0", t0, t0, nil))

	records, err := s.FindUnindexed(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.Stale())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUnindexed_Empty(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM dependencies").
		WillReturnRows(sqlmock.NewRows(dependencyColumns))

	records, err := s.FindUnindexed(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMarkIndexed(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantCode errors.Code
	}{
		{"found", 1, ""},
		{"missing", 0, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE dependencies SET last_indexed_at = $1 WHERE ecosystem = $2 AND name = $3 AND version = $4")).
				WithArgs(t0, "cargo", "serde", "1.0.200").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := s.MarkIndexed(context.Background(), serde.Identity, t0)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestProjectsUsing(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM project_dependencies AS pd JOIN dependencies AS d ON d.id = pd.dependency_id")).
		WithArgs("cargo", "serde", "1.0.200").
		WillReturnRows(sqlmock.NewRows(linkColumns).
			AddRow("l1", "/srv/a", "0b5c", t0, t0).
			AddRow("l2", "/srv/b", "0b5c", t0, t0))

	links, err := s.ProjectsUsing(context.Background(), serde.Identity)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "/srv/a", links[0].Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_dependencies.up.sql")
	assert.Contains(t, names, "000002_create_project_dependencies.down.sql")
	assert.Len(t, names, 4)
}
