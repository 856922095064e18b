package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/store"
	"github.com/matzehuels/locallore/pkg/store/memory"
)

type fakeTrigger struct {
	paths []string
	full  bool
}

func (f *fakeTrigger) Trigger(path string) bool {
	if f.full {
		return false
	}
	f.paths = append(f.paths, path)
	return true
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*memory.Store, *fakeTrigger, http.Handler) {
	t.Helper()
	st := memory.New()
	trig := &fakeTrigger{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "locallore_test_total", Help: "test"}))
	return st, trig, New(st, trig, reg, nil).Routes()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, h := setup(t)

	rec := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "locallore_test_total")
}

func TestCreateScan(t *testing.T) {
	_, trig, h := setup(t)

	rec := do(h, http.MethodPost, "/scans", `{"path":"/srv/api"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"/srv/api"}, trig.paths)

	rec = do(h, http.MethodPost, "/scans", `{"path":"srv/api"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PATH")

	rec = do(h, http.MethodPost, "/scans", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	trig.full = true
	rec = do(h, http.MethodPost, "/scans", `{"path":"/srv/web"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"UNAVAILABLE"`)
	assert.NotContains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestListUnindexed(t *testing.T) {
	st, _, h := setup(t)

	rec := do(h, http.MethodGet, "/dependencies/unindexed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	ctx := context.Background()
	_, err := st.UpsertDependency(ctx, deps.New(deps.NPM, "left-pad", "1.3.0"), t0)
	require.NoError(t, err)

	rec = do(h, http.MethodGet, "/dependencies/unindexed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "left-pad", recs[0].Name)
	assert.Nil(t, recs[0].LastIndexedAt)
}

func TestListProjects(t *testing.T) {
	st, _, h := setup(t)
	ctx := context.Background()

	rec, err := st.UpsertDependency(ctx, deps.New(deps.NPM, "@types/node", "20.1.0"), t0)
	require.NoError(t, err)
	_, err = st.UpsertLink(ctx, "/srv/web", rec.ID, t0)
	require.NoError(t, err)
	_, err = st.UpsertLink(ctx, "/srv/api", rec.ID, t0)
	require.NoError(t, err)

	q := url.Values{"ecosystem": {"npm"}, "name": {"@types/node"}, "version": {"20.1.0"}}
	resp := do(h, http.MethodGet, "/dependencies/projects?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, resp.Code)

	var links []store.Link
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &links))
	require.Len(t, links, 2)
	assert.Equal(t, "/srv/api", links[0].Path)

	resp = do(h, http.MethodGet, "/dependencies/projects?ecosystem=npm&name=left-pad", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
