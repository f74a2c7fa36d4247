// Package api exposes the backend selection diagnostics over HTTP: the
// current selection snapshot, the configuration history, and operational
// metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seantiz/runloop/internal/loop"
	"github.com/seantiz/runloop/internal/selector"
	"github.com/seantiz/runloop/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Server wraps the chi router and application dependencies. It is the
// owning caller of the configured execution context: re-configuration
// through the API retires the previously adopted context.
type Server struct {
	router   *chi.Mux
	store    store.Store
	selector *selector.Selector
	logger   *slog.Logger
	addr     string

	mu      sync.Mutex
	current loop.ExecutionContext
	stopRun context.CancelFunc
}

// NewServer creates and configures a new HTTP server. If current is
// non-nil it is adopted as the server-owned default context and its
// dispatch loop is started.
func NewServer(addr string, s store.Store, sel *selector.Selector, current loop.ExecutionContext, logger *slog.Logger) *Server {
	srv := &Server{
		router:   chi.NewRouter(),
		store:    s,
		selector: sel,
		logger:   logger,
		addr:     addr,
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(metricsMiddleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	if current != nil {
		srv.adopt(current)
	}

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", metricsHandler())

	s.router.Get("/v1/selection", s.handleGetSelection)
	s.router.Post("/v1/configure", s.handleConfigure)
	s.router.Get("/v1/stats", s.handleGetStats)

	s.router.Route("/v1/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Get("/{id}", s.handleGetEvent)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// adopt makes ec the server-owned default context: it starts its dispatch
// loop and retires the previously adopted one.
func (s *Server) adopt(ec loop.ExecutionContext) {
	runCtx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := ec.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("execution context stopped", "error", err)
		}
	}()

	s.mu.Lock()
	prev, prevStop := s.current, s.stopRun
	s.current, s.stopRun = ec, cancel
	s.mu.Unlock()

	if prevStop != nil {
		prevStop()
	}
	if prev != nil {
		if err := prev.Close(); err != nil {
			s.logger.Warn("close replaced context", "error", err)
		}
	}
}

// Current returns the execution context the server currently owns.
func (s *Server) Current() loop.ExecutionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close stops and closes the adopted execution context.
func (s *Server) Close() error {
	s.mu.Lock()
	ec, stop := s.current, s.stopRun
	s.current, s.stopRun = nil, nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if ec != nil {
		return ec.Close()
	}
	return nil
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := s.Close(); err != nil {
		s.logger.Warn("close execution context", "error", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
