// Package server runs solve jobs in the background and exposes them over a
// JSON HTTP API with a server-sent event stream of best scores.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/metrics"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Server represents the HTTP server
type Server struct {
	jobManager      *JobManager
	checkpointStore *store.FSStore
	registry        *prometheus.Registry
	collector       *metrics.Collector
	addr            string
	server          *http.Server

	// workers carries one goroutine per started job; ctx stops them all.
	workers errgroup.Group
	ctx     context.Context
	stop    context.CancelFunc
}

// NewServer creates a server. A nil checkpointStore disables checkpoints,
// traces and resuming.
func NewServer(addr string, checkpointStore *store.FSStore) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		jobManager:      NewJobManager(),
		checkpointStore: checkpointStore,
		registry:        registry,
		collector:       metrics.New(registry),
		addr:            addr,
		ctx:             ctx,
		stop:            stop,
	}
}

// Handler returns the API routes wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/problems", s.handleListProblems)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, cancels every running job and waits for
// the workers to save their final checkpoints.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	var httpErr error
	if s.server != nil {
		httpErr = s.server.Shutdown(ctx)
	}

	s.stop()
	done := make(chan error, 1)
	go func() { done <- s.workers.Wait() }()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Job worker failed", "error", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs: %w", ctx.Err())
	}
	return httpErr
}

func (s *Server) startJob(jobID string) {
	s.workers.Go(func() error {
		return RunJob(s.ctx, s.jobManager, s.checkpointStore, s.collector, jobID)
	})
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	if r.Method == http.MethodDelete && sub == "" {
		s.handleCancelJob(w, r, jobID)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch sub {
	case "", "status":
		s.handleGetJobStatus(w, r, jobID)
	case "best":
		s.handleGetBest(w, r, jobID)
	case "explain":
		s.handleExplain(w, r, jobID)
	case "trace":
		s.handleGetTrace(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// GenerateRequest asks for a generated dataset.
type GenerateRequest struct {
	Seed int64 `json:"seed"`
	Size int   `json:"size"`
}

// CreateJobRequest is the body of POST /api/v1/jobs. Exactly one source is
// used, in this order: ResumeFrom, Data, Dataset, Generate. Without any a
// default sized dataset is generated.
type CreateJobRequest struct {
	Problem string `json:"problem"`

	// Dataset is a dataset file path on the server.
	Dataset string `json:"dataset,omitempty"`

	// Data is an inline YAML dataset.
	Data string `json:"data,omitempty"`

	Generate *GenerateRequest `json:"generate,omitempty"`

	// ResumeFrom continues the checkpoint of an earlier job.
	ResumeFrom string `json:"resumeFrom,omitempty"`

	// Solver overlays the default solver configuration, or the checkpoint's
	// one when resuming. Absent fields keep their values.
	Solver json.RawMessage `json:"solver,omitempty"`
}

// solverConfig overlays the request's solver settings on base.
func (req CreateJobRequest) solverConfig(base config.SolverConfig) (config.SolverConfig, error) {
	if len(req.Solver) > 0 {
		if err := json.Unmarshal(req.Solver, &base); err != nil {
			return base, badRequest("invalid solver config: %w", err)
		}
	}
	if err := base.Validate(); err != nil {
		return base, badRequest("invalid solver config: %w", err)
	}
	return base, nil
}

// requestError is a client mistake reported as 400.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &requestError{err: fmt.Errorf(format, args...)}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	job, err := s.createJob(req)
	if err != nil {
		status := http.StatusInternalServerError
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			status = http.StatusBadRequest
		} else if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.startJob(job.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(job)
}

func (s *Server) createJob(req CreateJobRequest) (Job, error) {
	if req.ResumeFrom != "" {
		return s.resumeJob(req)
	}

	if req.Problem == "" {
		req.Problem = problem.TaskAssign
	}
	p, err := problem.Lookup(req.Problem)
	if err != nil {
		return Job{}, badRequest("%w", err)
	}
	solverCfg, err := req.solverConfig(config.Default())
	if err != nil {
		return Job{}, err
	}
	cfg := JobConfig{Problem: p.Name, Solver: solverCfg}

	var inst problem.Instance
	switch {
	case req.Data != "":
		inst, err = p.Parse([]byte(req.Data))
	case req.Dataset != "":
		cfg.Dataset = req.Dataset
		inst, err = problem.Load(p.Name, req.Dataset)
	default:
		gen := GenerateRequest{Seed: cfg.Solver.Seed}
		if req.Generate != nil {
			gen = *req.Generate
		}
		cfg.Dataset = fmt.Sprintf("generated:seed=%d,size=%d", gen.Seed, gen.Size)
		inst, err = p.Generate(gen.Seed, gen.Size)
	}
	if err != nil {
		return Job{}, badRequest("invalid dataset: %w", err)
	}
	return s.jobManager.CreateJob(cfg, inst), nil
}

func (s *Server) resumeJob(req CreateJobRequest) (Job, error) {
	if s.checkpointStore == nil {
		return Job{}, badRequest("resuming needs a checkpoint store")
	}
	cp, err := s.checkpointStore.LoadCheckpoint(req.ResumeFrom)
	if err != nil {
		return Job{}, err
	}
	if req.Problem != "" {
		if err := cp.IsCompatible(JobConfig{Problem: req.Problem, Dataset: req.Dataset}); err != nil {
			return Job{}, badRequest("%w", err)
		}
	}
	if cp.Config.Solver, err = req.solverConfig(cp.Config.Solver); err != nil {
		return Job{}, err
	}
	job, err := s.jobManager.RestoreJob(cp)
	if err != nil {
		return Job{}, badRequest("%w", err)
	}
	return job, nil
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobManager.ListJobs()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

// JobStatus is the body of GET /api/v1/jobs/:id/status.
type JobStatus struct {
	Job
	Elapsed float64 `json:"elapsed"`
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JobStatus{Job: job, Elapsed: elapsed.Seconds()})
}

// handleCancelJob handles DELETE /api/v1/jobs/:id
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.jobManager.CancelJob(jobID)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	slog.Info("Job cancellation requested", "job_id", jobID, "state", job.State)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(job)
}

// handleGetBest handles GET /api/v1/jobs/:id/best
func (s *Server) handleGetBest(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.Best() == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	data, err := job.Best().Marshal()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode solution: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// handleExplain handles GET /api/v1/jobs/:id/explain
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if job.Best() == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	// Explain on a decoded copy: the best solution is shared with the worker.
	data, err := job.Best().Marshal()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode solution: %v", err), http.StatusInternalServerError)
		return
	}
	p, err := problem.Lookup(job.Config.Problem)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	inst, err := p.Parse(data)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to decode solution: %v", err), http.StatusInternalServerError)
		return
	}
	report, err := inst.Explain(job.Config.Solver)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to explain score: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report.View)
}

// handleGetTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if s.checkpointStore == nil {
		http.Error(w, "Traces are disabled", http.StatusNotFound)
		return
	}
	entries, err := store.ReadTrace(s.checkpointStore.BaseDir(), jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Trace not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.TraceEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// ProblemInfo is one entry of GET /api/v1/problems.
type ProblemInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleListProblems handles GET /api/v1/problems
func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var infos []ProblemInfo
	for _, name := range problem.Names() {
		p, _ := problem.Lookup(name)
		infos = append(infos, ProblemInfo{Name: p.Name, Description: p.Description})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
