// Package api exposes the platform's HTTP interface: job submission and
// retrieval, database-backed read endpoints, Prometheus metrics, and the
// WebSocket progress stream.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamaghna-docket/tickertape/internal/config"
	"github.com/tamaghna-docket/tickertape/internal/jobs"
	"github.com/tamaghna-docket/tickertape/internal/service"
	"github.com/tamaghna-docket/tickertape/internal/store"
	"github.com/tamaghna-docket/tickertape/internal/ws"
)

// Server wires HTTP handlers to the orchestration service and stores.
// svc may be nil when the platform is misconfigured (no API credential);
// in that case every job-creating and database-backed endpoint fails
// fast with a clear message.
type Server struct {
	router  chi.Router
	log     *zap.Logger
	svc     *service.Service
	jobs    *jobs.Store
	store   store.Store
	manager *ws.Manager
	cfg     config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	log *zap.Logger,
	svc *service.Service,
	jobStore *jobs.Store,
	st store.Store,
	manager *ws.Manager,
	registry *prometheus.Registry,
	cfg config.Config,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		log:     log,
		svc:     svc,
		jobs:    jobStore,
		store:   st,
		manager: manager,
		cfg:     cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoverMiddleware(log))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	if registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Server.TimeoutSeconds > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout()))
		}
		r.Post("/onboard", s.submitOnboard)
		r.Get("/onboard/{job_id}/status", s.jobStatus)
		r.Get("/onboard/{job_id}/result", s.onboardResult)

		r.Post("/monitor", s.submitMonitor)
		r.Get("/monitor/{job_id}/status", s.jobStatus)
		r.Get("/monitor/{job_id}/signals", s.monitorSignals)

		r.Get("/signals/{client}", s.clientSignals)
		r.Get("/intelligence/{ticker}/{client}", s.intelligenceReport)
		r.Get("/customers/{client}", s.clientCustomers)
		r.Get("/customers/{client}/stats", s.customerStats)
		r.Get("/companies", s.companies)
	})

	r.Get("/ws/progress/{job_id}", s.progressSocket)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "Customer Intelligence Platform API",
		"status":  "running",
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			reqID, _ := r.Context().Value(requestIDKey{}).(string)
			log.Info("request completed",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required for the WebSocket upgrade to work through the
// middleware chain.
func (sw *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
