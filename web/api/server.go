// Package api exposes the analysis engine over HTTP: dataset upload, run
// control, result retrieval and live progress streaming (SSE and
// websocket).
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/datenai/datalab/internal/dataset"
	"github.com/datenai/datalab/internal/engine"
	"github.com/datenai/datalab/internal/resultstore"
	"github.com/datenai/datalab/internal/stream"
	"github.com/datenai/datalab/internal/suggest"
)

// Server is the HTTP API server
type Server struct {
	engine    *engine.Engine
	bus       *stream.Bus
	datasets  *dataset.Store
	results   *resultstore.Store
	suggester *suggest.Service
	metrics   http.Handler
	log       *slog.Logger
	addr      string
	mux       *http.ServeMux
}

// NewServer creates an API server. metrics may be nil to disable /metrics.
func NewServer(eng *engine.Engine, bus *stream.Bus, datasets *dataset.Store, results *resultstore.Store, suggester *suggest.Service, metrics http.Handler, log *slog.Logger, addr string) *Server {
	s := &Server{
		engine:    eng,
		bus:       bus,
		datasets:  datasets,
		results:   results,
		suggester: suggester,
		metrics:   metrics,
		log:       log,
		addr:      addr,
		mux:       http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/upload", s.uploadHandler())
	s.mux.HandleFunc("POST /api/suggest", s.suggestHandler())
	s.mux.HandleFunc("POST /api/run", s.runHandler())
	s.mux.HandleFunc("DELETE /api/run/{id}", s.cancelHandler())
	s.mux.HandleFunc("GET /api/run/status", s.statusHandler())
	s.mux.HandleFunc("GET /api/stream/{id}", s.sseHandler())
	s.mux.HandleFunc("GET /api/stream/{id}/ws", s.wsHandler())
	s.mux.HandleFunc("GET /api/results/{id}", s.resultHandler())
	s.mux.HandleFunc("GET /api/health", s.healthHandler())

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// Handler returns the server's root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("api server listening", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
