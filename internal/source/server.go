// Package source is a reference data source: an in-memory HTTP endpoint
// that stores the latest posted sample and serves it back with staleness
// and an aggregated state label, plus a simulator that feeds it.
package source

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/luki/aquadash/internal/classify"
	"github.com/luki/aquadash/internal/sensor"
	"github.com/luki/aquadash/internal/threshold"
)

// Server holds the latest sample. It keeps no history.
type Server struct {
	mu         sync.Mutex
	latest     sensor.Sample
	have       bool
	staleAfter time.Duration
	table      threshold.Table
	now        func() time.Time
}

// NewServer creates a source that marks data stale after staleAfter.
func NewServer(staleAfter time.Duration, table threshold.Table) *Server {
	if table == nil {
		table = threshold.Default()
	}
	return &Server{staleAfter: staleAfter, table: table, now: time.Now}
}

// Router returns the HTTP routes: POST and GET /api/data.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/api/data", s.handleSubmit)
	r.Get("/api/data", s.handleLatest)
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	sample, err := sensor.Decode(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	s.Submit(sample)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	data, err := sensor.Encode(s.Latest())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Submit stores sample as the latest reading, stamped with the receive
// time at second resolution.
func (s *Server) Submit(sample sensor.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sample.Timestamp = s.now().Truncate(time.Second)
	sample.Stale = false
	sample.State, sample.HasState = "", false
	s.latest = sample
	s.have = true
}

// Latest returns the stored sample with its staleness and aggregate state.
// Before the first submission it returns zero readings that are not stale.
func (s *Server) Latest() sensor.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.have {
		return sensor.Sample{}
	}
	out := s.latest
	out.Stale = s.now().Sub(out.Timestamp) > s.staleAfter
	out.State = classify.Aggregate(classify.Sample(out, s.table)).String()
	out.HasState = true
	return out
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[source] write response: %v", err)
	}
}
