// Package server exposes the runtime over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sentinai/sentin"
	"github.com/sentinai/sentin/internal/runtime"
)

// Server wraps the runtime with HTTP handlers.
type Server struct {
	rt  *runtime.Runtime
	mux *http.ServeMux
}

// New creates an HTTP server over the runtime.
func New(rt *runtime.Runtime) *Server {
	s := &Server{rt: rt, mux: http.NewServeMux()}
	s.mux.HandleFunc("/system/scan", s.handleScan)
	s.mux.HandleFunc("/system/execute_action", s.handleExecuteAction)
	s.mux.HandleFunc("/system/state", s.handleState)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	// The request body is optional audit data; decode errors are ignored.
	var req sentin.ScanRequest
	json.NewDecoder(r.Body).Decode(&req)

	resp, err := s.rt.Scan(r.Context())
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req sentin.ExecuteActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.rt.ExecuteAction(r.Context(), req)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"inventory": s.rt.State().Inventory(),
		"logs":      s.rt.State().Logs(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeRuntimeError(w http.ResponseWriter, err error) {
	var serr *sentin.SentinError
	status := http.StatusInternalServerError
	if errors.As(err, &serr) {
		switch serr.Code {
		case sentin.ErrCodeUnroutable:
			status = http.StatusNotFound
		case sentin.ErrCodeConfiguration:
			status = http.StatusBadRequest
		}
	}
	log.Printf("Request failed (status: %d, error: %v)", status, err)
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
