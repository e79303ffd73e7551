// Package server wires HTTP handlers into a listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
)

// Handlers groups the HTTP handlers served by the application.
type Handlers struct {
	Alertmanager http.Handler
	Receivers    ReceiversAPI
	Metrics      http.Handler
}

// ReceiversAPI serves the receiver endpoints.
type ReceiversAPI interface {
	List(w http.ResponseWriter, r *http.Request)
	Test(w http.ResponseWriter, r *http.Request)
}

// Config holds listener settings.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the application HTTP server.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	logger          logger.Logger
}

// New creates a server serving the given handlers.
func New(cfg Config, handlers *Handlers, log logger.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(handlers),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          log,
	}
}

// NewRouter registers the routes on a new mux.
func NewRouter(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health)
	if h.Alertmanager != nil {
		mux.Handle("/webhook/alertmanager", h.Alertmanager)
	}
	if h.Receivers != nil {
		mux.HandleFunc("GET /api/v1/receivers", h.Receivers.List)
		mux.HandleFunc("POST /api/v1/receivers/{name}/test", h.Receivers.Test)
	}
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	return mux
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
