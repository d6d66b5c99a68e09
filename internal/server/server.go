package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pampacargo/logistica/internal/telemetry"
	"github.com/pampacargo/logistica/pkg/shipping"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the logistics service.
type Server struct {
	port    int
	service *shipping.Service
	quotes  shipping.CostEstimator
	logger  *otelzap.Logger
	metrics *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, service *shipping.Service, quotes shipping.CostEstimator, logger *otelzap.Logger) *Server {
	return &Server{
		port:    cfg.Port,
		service: service,
		quotes:  quotes,
		logger:  logger,
		metrics: telemetry.NewMetrics(),
	}
}

// Routes returns the request multiplexer wired with all endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Shipment API
	mux.HandleFunc("POST /api/shippings/quote", s.instrument("quote", s.handleQuote))
	mux.HandleFunc("POST /api/shippings", s.instrument("create", s.handleCreate))
	mux.HandleFunc("GET /api/shippings", s.instrument("list", s.handleList))
	mux.HandleFunc("GET /api/shippings/{id}", s.instrument("get", s.handleGet))
	mux.HandleFunc("POST /api/shippings/{id}/cancel", s.instrument("cancel", s.handleCancel))

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(operation string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.RecordRequest(operation, fmt.Sprintf("%d", rec.status), time.Since(start).Seconds())
	}
}
