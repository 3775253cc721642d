// Package api serves completed and live simulation runs over HTTP. It is
// a read-only consumer of engine output: nothing here mutates simulation
// state. The SSE stream endpoint is the animated-run consumer — it owns
// all pacing, pulling frames from a Runner at its own rate.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/talgya/societysim/internal/engine"
	"github.com/talgya/societysim/internal/persistence"
)

// Server exposes a run's results and an animated-run stream.
type Server struct {
	Result *engine.Result  // most recent completed run, may be nil
	RunID  string          // persisted id of Result, empty if unsaved
	DB     *persistence.DB // optional run storage
	Cfg    engine.Config   // base config for streamed runs
	Port   int
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/result", s.handleResult)
		r.Get("/agents", s.handleAgents)
		r.Get("/events", s.handleEvents)
		r.Get("/runs", s.handleRuns)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	go func() {
		addr := fmt.Sprintf(":%d", s.Port)
		slog.Info("api listening", "addr", addr)
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("api server stopped", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"has_result": s.Result != nil,
		"run_id":     s.RunID,
	}
	if s.Result != nil {
		status["epochs"] = len(s.Result.Epochs)
		status["events"] = len(s.Result.Events)
		status["final_metrics"] = s.Result.FinalMetrics()
	}
	writeJSON(w, status)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if s.Result == nil {
		http.Error(w, "no completed run", http.StatusNotFound)
		return
	}
	writeJSON(w, s.Result)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if s.Result == nil || len(s.Result.Epochs) == 0 {
		http.Error(w, "no completed run", http.StatusNotFound)
		return
	}
	final := s.Result.Epochs[len(s.Result.Epochs)-1]
	writeJSON(w, final.Agents)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.Result == nil {
		http.Error(w, "no completed run", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", 50)
	events := s.Result.Events
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	writeJSON(w, events)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "run storage disabled", http.StatusNotFound)
		return
	}
	runs, err := s.DB.ListRuns(queryInt(r, "limit", 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// handleStream executes a fresh animated run and streams every frame as a
// Server-Sent Event. Closing the connection abandons the Runner — that is
// the whole cancellation protocol; the engine holds nothing to tear down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	cfg := s.Cfg
	if seed := r.URL.Query().Get("seed"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			http.Error(w, "bad seed", http.StatusBadRequest)
			return
		}
		cfg.Seed = v
	}
	delay := time.Duration(queryInt(r, "delay_ms", 50)) * time.Millisecond

	runner, err := engine.NewRunner(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for f := runner.Next(); f != nil; f = runner.Next() {
		data, err := json.Marshal(f)
		if err != nil {
			slog.Error("frame marshal failed", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()

		if f.Done {
			return
		}
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
