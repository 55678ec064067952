// Package web provides the HTTP server and handlers for the application
// intake form.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/formvcm/postulaciones/internal/config"
	"github.com/formvcm/postulaciones/internal/core"
	"github.com/formvcm/postulaciones/internal/metrics"
	mw "github.com/formvcm/postulaciones/internal/web/middleware"
)

// Server is the HTTP server for the intake service.
type Server struct {
	intake  *core.Coordinator
	cfg     *config.Config
	metrics *metrics.Collectors

	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
	started  time.Time
}

// NewServer creates a server around the coordinator. m may be nil, in which
// case /metrics is not mounted.
func NewServer(intake *core.Coordinator, cfg *config.Config, m *metrics.Collectors) *Server {
	s := &Server{
		intake:  intake,
		cfg:     cfg,
		metrics: m,
		router:  chi.NewRouter(),
		started: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter("default", s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		submit := r
		if s.cfg.Rate.Enabled {
			submit = r.With(s.newLimiter("submit", s.cfg.Rate.SubmitLimit).middleware)
		}
		submit.Post("/postulacion", s.handleSubmit)

		r.Get("/postulaciones", s.handleList)
	})

	s.router.Get("/admin/postulaciones", s.handleAdminList)

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	if dir := s.cfg.Storage.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.router.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			slog.Debug("static directory not found, form assets not served", "dir", dir)
		}
	}
}

func (s *Server) newLimiter(bucket string, perMinute int) *rateLimiter {
	rl := newRateLimiter(bucket, perMinute, time.Minute)
	if s.metrics != nil {
		rl.onReject = s.metrics.RecordRateLimited
	}
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start begins listening for HTTP requests. It returns nil after a
// graceful Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones, then waits
// for in-flight submissions to finish writing.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.Close()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if l := s.intake.Limiter(); l != nil {
		return l.WaitForDrain(ctx)
	}
	return nil
}

// Close releases background resources (rate limiter sweepers).
func (s *Server) Close() {
	for _, rl := range s.limiters {
		rl.stop()
	}
	s.limiters = nil
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if csp {
				// The public form uses inline scripts and styles.
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}
