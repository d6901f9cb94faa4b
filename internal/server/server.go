// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research engine over HTTP: one research
// endpoint mapping 1:1 onto engine.Run, plus a health probe. The server
// is a thin adapter; all behavior lives in the engine.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pdiddy/library-index/internal/engine"
	"github.com/pdiddy/library-index/pkg/types"
)

// Server holds the HTTP handlers and the engine configuration template
// each request starts from.
type Server struct {
	cfg types.EngineConfig
	log *zap.Logger
}

// New creates a server whose requests run against cfg.
func New(cfg types.EngineConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, log: log}
}

// Router builds the chi router with CORS and request logging.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/research", s.handleResearch)
	return r
}

// researchRequest is the POST /api/research body. Omitted fields fall
// back to the server's configuration.
type researchRequest struct {
	Query            string `json:"query"`
	MaxWorkers       int    `json:"max_workers,omitempty"`
	MaxSearchRetries int    `json:"max_search_retries,omitempty"`
}

// researchResponse mirrors engine.Result for the wire.
type researchResponse struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Report    string         `json:"report"`
	Metrics   engine.Metrics `json:"metrics"`
	Error     string         `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	cfg := s.cfg
	if req.MaxWorkers > 0 {
		cfg.MaxWorkers = req.MaxWorkers
	}
	if req.MaxSearchRetries > 0 {
		cfg.MaxSearchRetries = req.MaxSearchRetries
	}

	res := engine.Run(r.Context(), req.Query, cfg, s.log)

	resp := researchResponse{
		SessionID: res.SessionID,
		State:     string(res.State),
		Report:    res.Report,
		Metrics:   res.Metrics,
	}
	status := http.StatusOK
	if res.Err != nil {
		resp.Error = res.Err.Error()
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
