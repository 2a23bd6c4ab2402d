// Package http exposes the ingest endpoint, the read-only view API and the
// websocket live stream.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"greenpulse/internal/auth"
	"greenpulse/internal/config"
	"greenpulse/internal/domain"
	"greenpulse/internal/ingest"
	"greenpulse/internal/pipeline"
	"greenpulse/internal/report"
	"greenpulse/internal/views"
)

const maxIngestBody = 64 << 10

type Server struct {
	cfg         *config.Config
	auth        *auth.Authenticator
	pipe        *pipeline.Pipeline
	views       *views.Registry
	leaderboard *report.Leaderboard

	srv *http.Server
}

func NewServer(cfg *config.Config, a *auth.Authenticator, p *pipeline.Pipeline, reg *views.Registry, lb *report.Leaderboard) *Server {
	s := &Server{cfg: cfg, auth: a, pipe: p, views: reg, leaderboard: lb}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /ingest/{kind}", s.requireAPIKey(http.HandlerFunc(s.handleIngest)))

	mux.HandleFunc("GET /api/vehicles", s.handleVehicles)
	mux.HandleFunc("GET /api/vehicles/{id}/state", s.handleVehicleState)
	mux.HandleFunc("GET /api/vehicles/{id}/window", s.handleVehicleWindow)
	mux.HandleFunc("GET /api/vehicles/{id}/prediction", s.handleVehiclePrediction)
	mux.HandleFunc("GET /api/vehicles/{id}/spike", s.handleVehicleSpike)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/transitions", s.handleTransitions)
	mux.HandleFunc("GET /api/reports/latest", s.handleReportLatest)
	mux.HandleFunc("GET /api/reports/history", s.handleReportHistory)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/sustainability", s.handleSustainability)

	mux.Handle("GET /ws", s.requireAPIKey(http.HandlerFunc(s.handleWS)))

	s.srv = &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.Printf("http: listening on %s", s.srv.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	kind := domain.EventKind(r.PathValue("kind"))
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ev, err := ingest.Normalize(kind, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.pipe.Submit(ev) {
		writeError(w, http.StatusServiceUnavailable, "pipeline saturated")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleVehicles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.views.States())
}

func (s *Server) handleVehicleState(w http.ResponseWriter, r *http.Request) {
	st, ok := s.views.State(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown vehicle")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleVehicleWindow(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.views.Snapshot(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no closed window yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleVehicleSpike(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.views.Spike(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no acceleration spike recorded")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleVehiclePrediction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.views.Prediction(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no prediction yet")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.views.Alerts(queryLimit(r, 100)))
}

func (s *Server) handleTransitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.views.Transitions(queryLimit(r, 100)))
}

func (s *Server) handleReportLatest(w http.ResponseWriter, _ *http.Request) {
	rep, ok := s.views.FleetLatest()
	if !ok {
		writeError(w, http.StatusNotFound, "no report yet")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.views.FleetHistory(queryLimit(r, 24)))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.leaderboard.Rankings())
}

func (s *Server) handleSustainability(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.views.SustainabilityScores())
}

func queryLimit(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
