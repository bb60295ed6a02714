// Package server exposes the rule engine to the console over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"firewall-rule-engine/internal/config"
	"firewall-rule-engine/internal/highlight"
	"firewall-rule-engine/internal/metrics"
	"firewall-rule-engine/internal/model"
	"firewall-rule-engine/internal/parser"
)

const (
	RequestIDHeader = "X-Request-ID"
	shutdownTimeout = 5 * time.Second
)

// RulesRequest is the body accepted by every /api/v1/rules endpoint.
type RulesRequest struct {
	Rules string `json:"rules"`
}

type HighlightResponse struct {
	HTML string `json:"html"`
}

type ParseResponse struct {
	Rules  []model.ParsedRule     `json:"rules"`
	Result model.ValidationResult `json:"result"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	cfg       config.ServerConfig
	metrics   config.MetricsConfig
	collector *metrics.Collector
	logger    *slog.Logger
	handler   http.Handler
}

// New builds the server. A nil collector disables /metrics.
func New(cfg *config.Config, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg.Server,
		metrics:   cfg.Metrics,
		collector: collector,
		logger:    logger,
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/rules/validate", s.instrument("validate", s.handleValidate))
	mux.Handle("POST /api/v1/rules/highlight", s.instrument("highlight", s.handleHighlight))
	mux.Handle("POST /api/v1/rules/parse", s.instrument("parse", s.handleParse))
	mux.Handle("GET /healthz", s.instrument("healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	if s.collector != nil && s.metrics.Enabled {
		mux.Handle("GET "+s.metrics.Path, s.collector.Handler())
	}
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	res := parser.Validate(req.Rules)
	s.collector.ObserveValidation(res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, HighlightResponse{HTML: highlight.Highlight(req.Rules)})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	rules, res := parser.ParseDocument(req.Rules)
	s.collector.ObserveValidation(res)
	writeJSON(w, http.StatusOK, ParseResponse{Rules: rules, Result: res})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (RulesRequest, bool) {
	var req RulesRequest
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return req, false
	}
	return req, true
}

// instrument tags the request with an ID, logs it and records metrics.
func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)

		elapsed := time.Since(start)
		s.collector.ObserveRequest(route, rec.status, elapsed)
		s.logger.Debug("Request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
