package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/pipeline"
)

// Server handles HTTP API requests.
type Server struct {
	port     int
	server   *http.Server
	router   *http.ServeMux
	handlers *Handlers
	metrics  *Metrics
	logger   *logging.Logger
}

// NewServer creates an API server over the two pipelines. Metrics register
// against the default Prometheus registry.
func NewServer(port int, narrative *pipeline.NarrativePipeline, experience *pipeline.ExperiencePipeline) *Server {
	return NewServerWithRegistry(port, narrative, experience, prometheus.DefaultRegisterer)
}

// NewServerWithRegistry creates a server with metrics on a caller-supplied
// registry, so tests can run several servers without metric collisions.
func NewServerWithRegistry(port int, narrative *pipeline.NarrativePipeline, experience *pipeline.ExperiencePipeline, reg prometheus.Registerer) *Server {
	metrics := NewMetrics(reg)
	s := &Server{
		port:     port,
		router:   http.NewServeMux(),
		handlers: NewHandlers(narrative, experience, metrics),
		metrics:  metrics,
		logger:   logging.GetLogger("api"),
	}
	s.registerHandlers()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.corsMiddleware(s.router),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 5 * time.Minute, // LLM-backed endpoints can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// registerHandlers registers all HTTP handlers.
func (s *Server) registerHandlers() {
	s.router.HandleFunc("/api/ingest/case-study",
		s.instrumented("ingest", s.withMethod(http.MethodPost, s.handlers.HandleIngestCaseStudy)))
	s.router.HandleFunc("/api/reasoning/decision-support",
		s.instrumented("decision_support", s.withMethod(http.MethodPost, s.handlers.HandleDecisionSupport)))
	s.router.HandleFunc("/api/memory/retrieve",
		s.instrumented("retrieve", s.withMethod(http.MethodPost, s.handlers.HandleMemoryRetrieve)))

	s.router.HandleFunc("/", s.handleManifest)
	s.router.HandleFunc("/api/", s.handleManifest)
	s.router.HandleFunc("/health", s.handleHealth)
	s.router.HandleFunc("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())
}

// handleManifest describes the service and its endpoints.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/api/" {
		WriteError(w, http.StatusNotFound, ErrorCodeNotFound, "Endpoint not found: "+r.URL.Path)
		return
	}
	_ = WriteSuccess(w, map[string]any{
		"status":  "ok",
		"service": "Temblor Decision Support Backend",
		"endpoints": []string{
			"/api/ingest/case-study [POST]",
			"/api/reasoning/decision-support [POST]",
			"/api/memory/retrieve [POST]",
		},
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteSuccess(w, map[string]any{"status": "healthy"})
}

// handleReady handles readiness check requests.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	_ = WriteSuccess(w, map[string]any{"ready": true})
}

// corsMiddleware adds CORS headers to allow browser access.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withMethod wraps a handler to enforce the HTTP method.
func (s *Server) withMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			WriteError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed,
				fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
			return
		}
		handler(w, r)
	}
}

// instrumented records request count and duration for an endpoint.
func (s *Server) instrumented(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)
		s.metrics.RequestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", rec.status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Start begins listening for requests. It returns once the listener
// goroutine is launched.
func (s *Server) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.logger.Info("Starting API server on port %d", s.port)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")

	done := make(chan error, 1)
	go func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.server.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Error("HTTP server shutdown error: %v", err)
			return err
		}
		s.logger.Info("API server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("API server shutdown timeout")
		return ctx.Err()
	}
}

// Router exposes the mux for tests.
func (s *Server) Router() http.Handler {
	return s.corsMiddleware(s.router)
}

// GetPort returns the port the server is listening on.
func (s *Server) GetPort() int {
	return s.port
}
