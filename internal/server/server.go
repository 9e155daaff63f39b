// Package server exposes the migration pipeline over an HTTP API.
// Runs execute in the background; results are kept in an in-memory
// store with TTL and capacity eviction.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"monoshift/internal/boundary"
	"monoshift/internal/knowledge"
	"monoshift/internal/pipeline"
)

// Runner executes one migration run. The server builds a fresh
// pipeline per request, so each call sees an independent orchestrator.
type Runner func(ctx context.Context, runID, repoURL string) (*pipeline.RunReport, error)

// Server is the HTTP front end.
type Server struct {
	store  *RunStore
	runner Runner
	index  *knowledge.Index
	log    *zap.Logger
}

// New builds a server. index may be nil when embedding is disabled.
func New(store *RunStore, runner Runner, index *knowledge.Index, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, runner: runner, index: index, log: log}
}

// Router returns the configured HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/api/analyses", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/analysis/{id}", s.handleGetRun).Methods(http.MethodGet)
	r.HandleFunc("/api/services/{id}", s.handleServices).Methods(http.MethodGet)
	r.HandleFunc("/api/entities/{id}", s.handleEntities).Methods(http.MethodGet)
	r.HandleFunc("/api/dependencies/{id}", s.handleDependencies).Methods(http.MethodGet)
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "repo_url is required")
		return
	}

	runID := uuid.NewString()
	s.store.Put(Run{
		ID:        runID,
		RepoURL:   req.RepoURL,
		State:     StateProcessing,
		StartedAt: time.Now(),
	})

	go s.execute(runID, req.RepoURL)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": runID,
		"state":  string(StateProcessing),
	})
}

// execute runs the pipeline in the background and records the outcome.
func (s *Server) execute(runID, repoURL string) {
	run, ok := s.store.Get(runID)
	if !ok {
		return
	}

	report, err := s.runner(context.Background(), runID, repoURL)
	if err != nil {
		s.log.Error("run failed", zap.String("run_id", runID), zap.Error(err))
		run.State = StateFailed
		run.Error = err.Error()
		s.store.Put(run)
		return
	}

	run.State = StateCompleted
	run.Report = report
	s.store.Put(run)
	s.log.Info("run completed",
		zap.String("run_id", runID),
		zap.Int("succeeded", len(report.Audit.SucceededServices)),
		zap.Int("failed", len(report.Audit.FailedServices)))
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, boundariesOf(run))
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if run.Report == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	for _, out := range run.Report.Outcomes {
		if out.Analysis != nil && out.Analysis.Analysis != nil {
			writeJSON(w, http.StatusOK, out.Analysis.Analysis.Entities)
			return
		}
	}
	writeJSON(w, http.StatusOK, []any{})
}

// dependencyEdge is one outgoing reference of a source namespace.
type dependencyEdge struct {
	Target string `json:"target"`
	Type   string `json:"type"`
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	grouped := make(map[string][]dependencyEdge)
	if run.Report != nil {
		for _, out := range run.Report.Outcomes {
			if out.Analysis == nil || out.Analysis.Analysis == nil {
				continue
			}
			for _, dep := range out.Analysis.Analysis.Dependencies {
				grouped[dep.Source] = append(grouped[dep.Source], dependencyEdge{
					Target: dep.Name,
					Type:   dep.Type,
				})
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":               run.ID,
		"repo_url":             run.RepoURL,
		"service_dependencies": grouped,
	})
}

type searchRequest struct {
	RunID string `json:"run_id"`
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.index.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "semantic search is not enabled")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RunID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "run_id and query are required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	hits, err := s.index.Search(r.Context(), req.RunID, req.Query, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

// boundariesOf pulls the identified boundaries out of the run report.
func boundariesOf(run Run) []boundary.ServiceBoundary {
	if run.Report == nil {
		return []boundary.ServiceBoundary{}
	}
	for _, out := range run.Report.Outcomes {
		if len(out.Boundaries) > 0 {
			return out.Boundaries
		}
	}
	return []boundary.ServiceBoundary{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
