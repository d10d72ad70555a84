package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/strefethen/hassbridge-go/internal/api"
	"github.com/strefethen/hassbridge-go/internal/openapi"
	"github.com/strefethen/hassbridge-go/internal/players"
	"github.com/strefethen/hassbridge-go/internal/system"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs all incoming HTTP requests
func requestLoggerMiddleware(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.status).
				Dur("duration", time.Since(start).Round(time.Millisecond)).
				Str("request_id", api.GetRequestID(r)).
				Msg("HTTP request")
		})
	}
}

// NewHandler builds the status API handler.
func NewHandler(registry *players.Registry, systemService *system.Service, log zerolog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(api.RequestIDMiddleware)
	router.Use(requestLoggerMiddleware(log))
	router.Use(api.RecovererMiddleware(log))

	registerHealthRoutes(router)
	system.RegisterRoutes(router, systemService)
	players.RegisterRoutes(router, registry)
	openapi.RegisterRoutes(router)

	return router
}

func registerHealthRoutes(router chi.Router) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "hassbridge",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
}

// Server serves the status API until its context is cancelled.
type Server struct {
	addr    string
	handler http.Handler
	log     zerolog.Logger
}

// New returns a server for addr. It does not listen until Run is called.
func New(addr string, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{addr: addr, handler: handler, log: log}
}

// Run listens on the configured address and shuts down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", listener.Addr().String()).Msg("Status API listening")
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("Status API shutdown")
		return err
	}
	s.log.Info().Msg("Status API stopped")
	return nil
}
