// Package server exposes the HTTP API: paginated job reads, cron triggers
// for board syncs and announcements, and a health probe.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/workway/workway/internal/announce"
	"github.com/workway/workway/internal/ingest"
	"github.com/workway/workway/internal/query"
)

// Server wires the query service, the per-board ingestors, and the optional
// announcement job onto an HTTP router.
type Server struct {
	queries   *query.Service
	ingestors map[string]*ingest.BoardIngestor // keyed by cron path segment
	announcer *announce.Job                    // nil when Twitter is not configured
	logger    *slog.Logger
}

// New builds a Server. announcer may be nil; the tweet endpoint then
// reports that announcements are not configured.
func New(queries *query.Service, ingestors map[string]*ingest.BoardIngestor, announcer *announce.Job, logger *slog.Logger) *Server {
	return &Server{
		queries:   queries,
		ingestors: ingestors,
		announcer: announcer,
		logger:    logger,
	}
}

// Router assembles the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", s.handleJobs)
		r.Route("/cron", func(r chi.Router) {
			for path := range s.ingestors {
				r.Get("/"+path, s.handleSync(path))
			}
			r.Get("/tweetLatestJobs", s.handleAnnounce)
		})
	})

	return r
}

// logRequests records method, path, status and latency for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}
