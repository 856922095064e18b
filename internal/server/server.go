// Package server exposes scan triggers and the dependency store over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/locallore/pkg/deps"
	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/harvest"
	"github.com/matzehuels/locallore/pkg/httputil"
	"github.com/matzehuels/locallore/pkg/store"
)

// Trigger schedules a scan; it reports false when the scheduler is full.
type Trigger interface {
	Trigger(path string) bool
}

// Server holds the handler dependencies.
type Server struct {
	store    store.Store
	trigger  Trigger
	gatherer prometheus.Gatherer
	logger   *log.Logger
}

// New returns a server. A nil gatherer serves the default registry.
func New(st store.Store, trigger Trigger, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, trigger: trigger, gatherer: gatherer, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/scans", s.createScan)
	r.Route("/dependencies", func(r chi.Router) {
		r.Get("/unindexed", s.listUnindexed)
		r.Get("/projects", s.listProjects)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scanRequest struct {
	Path string `json:"path"`
}

type scanResponse struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

func (s *Server) createScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := errors.ValidateScanPath(req.Path); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !s.trigger.Trigger(req.Path) {
		w.Header().Set("Retry-After", "30")
		httputil.WriteError(w, errors.New(errors.ErrCodeUnavailable, "scan scheduler is busy"))
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, scanResponse{Path: req.Path, Status: "queued"})
}

func (s *Server) listUnindexed(w http.ResponseWriter, r *http.Request) {
	recs, err := harvest.FindUnindexed(r.Context(), s.store)
	if err != nil {
		s.logger.Error("find unindexed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recs)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eco, name, version := q.Get("ecosystem"), q.Get("name"), q.Get("version")
	if err := errors.ValidateIdentity(eco, name, version); err != nil {
		httputil.WriteError(w, err)
		return
	}

	id := deps.Identity{Ecosystem: deps.Ecosystem(eco), Name: name, Version: version}
	links, err := s.store.ProjectsUsing(r.Context(), id)
	if err != nil {
		s.logger.Error("projects using", "identity", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, links)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
