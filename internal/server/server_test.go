package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarcyGO/optaplanner/internal/examples/taskassign"
	"github.com/MarcyGO/optaplanner/internal/manager"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/store"
)

const quickSolver = `{"termination": {"step_limit": 20}, "checkpoint_interval": 0}`

func newTestServer(t *testing.T, withStore bool) *Server {
	t.Helper()
	var st *store.FSStore
	if withStore {
		var err error
		if st, err = store.NewFSStore(t.TempDir()); err != nil {
			t.Fatal(err)
		}
	}
	s := NewServer(":0", st)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func createJob(t *testing.T, s *Server, req CreateJobRequest) Job {
	t.Helper()
	w := doRequest(t, s, http.MethodPost, "/api/v1/jobs", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var job Job
	if err := json.NewDecoder(w.Body).Decode(&job); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return job
}

func waitForJobs(t *testing.T, s *Server) {
	t.Helper()
	if err := s.workers.Wait(); err != nil {
		t.Fatalf("Job worker failed: %v", err)
	}
}

func getStatus(t *testing.T, s *Server, jobID string) JobStatus {
	t.Helper()
	w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+jobID+"/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var status JobStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return status
}

func TestServer_CreateJob(t *testing.T) {
	s := newTestServer(t, false)

	job := createJob(t, s, CreateJobRequest{
		Problem:  problem.NQueens,
		Generate: &GenerateRequest{Size: 6},
		Solver:   json.RawMessage(quickSolver),
	})
	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.Config.Solver.Termination.StepLimit != 20 {
		t.Errorf("Solver overlay lost: %+v", job.Config.Solver.Termination)
	}
	if job.Config.Solver.LocalSearch.LateAcceptanceSize == 0 {
		t.Error("Fields absent from the request should keep their defaults")
	}

	waitForJobs(t, s)
	status := getStatus(t, s, job.ID)
	if status.State != StateCompleted {
		t.Errorf("Expected completed state, got %s (%s)", status.State, status.Error)
	}
	if status.Config.Dataset != "generated:seed=0,size=6" {
		t.Errorf("Unexpected dataset label %q", status.Config.Dataset)
	}
	if status.Elapsed <= 0 {
		t.Error("Elapsed should be positive")
	}
}

func TestServer_CreateJob_DefaultsToTaskAssign(t *testing.T) {
	s := newTestServer(t, false)
	job := createJob(t, s, CreateJobRequest{Solver: json.RawMessage(quickSolver), Generate: &GenerateRequest{Seed: 3, Size: 8}})
	if job.Config.Problem != problem.TaskAssign {
		t.Errorf("Expected taskassign, got %s", job.Config.Problem)
	}
	waitForJobs(t, s)
}

func TestServer_CreateJob_InlineData(t *testing.T) {
	s := newTestServer(t, false)
	job := createJob(t, s, CreateJobRequest{
		Problem: problem.NQueens,
		Data:    "n: 4\nqueens:\n  - {id: 0, column: 0}\n  - {id: 1, column: 1}\n  - {id: 2, column: 2}\n  - {id: 3, column: 3}\n",
		Solver:  json.RawMessage(quickSolver),
	})
	waitForJobs(t, s)
	if status := getStatus(t, s, job.ID); status.InitialScore != "-4init/0" {
		t.Errorf("Unexpected initial score %q", status.InitialScore)
	}
}

func TestServer_CreateJob_Errors(t *testing.T) {
	s := newTestServer(t, false)
	withStore := newTestServer(t, true)

	tests := []struct {
		name   string
		server *Server
		body   any
		status int
	}{
		{"invalid json", s, "{not json", http.StatusBadRequest},
		{"unknown problem", s, CreateJobRequest{Problem: "tsp"}, http.StatusBadRequest},
		{"invalid solver", s, CreateJobRequest{Problem: problem.NQueens, Solver: json.RawMessage(`{"local_search": {"acceptor": "great_deluge"}}`)}, http.StatusBadRequest},
		{"malformed solver", s, CreateJobRequest{Problem: problem.NQueens, Solver: json.RawMessage(`{"seed": "x"}`)}, http.StatusBadRequest},
		{"bad inline data", s, CreateJobRequest{Problem: problem.NQueens, Data: "n: 0\n"}, http.StatusBadRequest},
		{"missing dataset file", s, CreateJobRequest{Problem: problem.NQueens, Dataset: "/nonexistent/board.yaml"}, http.StatusBadRequest},
		{"resume without store", s, CreateJobRequest{ResumeFrom: "job-1"}, http.StatusBadRequest},
		{"resume unknown job", withStore, CreateJobRequest{ResumeFrom: "job-1"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, tt.server, http.MethodPost, "/api/v1/jobs", tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
	if jobs := s.jobManager.ListJobs(); len(jobs) != 0 {
		t.Errorf("Rejected requests must not create jobs, got %d", len(jobs))
	}
}

func TestServer_ListJobs(t *testing.T) {
	s := newTestServer(t, false)
	s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))
	s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))

	w := doRequest(t, s, http.MethodGet, "/api/v1/jobs", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var jobs []Job
	if err := json.NewDecoder(w.Body).Decode(&jobs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}

	if w := doRequest(t, s, http.MethodPut, "/api/v1/jobs", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_GetJobStatus(t *testing.T) {
	s := newTestServer(t, false)
	job := s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))

	status := getStatus(t, s, job.ID)
	if status.ID != job.ID || status.State != StatePending {
		t.Errorf("Unexpected status: %+v", status)
	}

	// The bare job path is an alias of status.
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID, nil); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/nonexistent/status", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/unknown", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestServer_BestAndExplain(t *testing.T) {
	s := newTestServer(t, false)
	job := createJob(t, s, CreateJobRequest{
		Problem:  problem.TaskAssign,
		Generate: &GenerateRequest{Seed: 5, Size: 10},
		Solver:   json.RawMessage(quickSolver),
	})
	waitForJobs(t, s)
	status := getStatus(t, s, job.ID)

	w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/best", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Expected application/yaml, got %s", ct)
	}
	schedule, err := taskassign.UnmarshalSchedule(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Best solution does not decode: %v", err)
	}
	assigned := 0
	for _, e := range schedule.Employees {
		assigned += len(e.Tasks)
	}
	if assigned != 10 {
		t.Errorf("Expected all 10 tasks assigned, got %d", assigned)
	}

	w = doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/explain", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var view manager.View
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode explanation: %v", err)
	}
	if view.Score != status.BestScore {
		t.Errorf("Explained score %s should be the best score %s", view.Score, status.BestScore)
	}
	if len(view.Constraints) == 0 {
		t.Error("Expected constraint totals in the explanation")
	}
}

func TestServer_BestBeforeResults(t *testing.T) {
	s := newTestServer(t, false)
	job := s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))

	for _, sub := range []string{"best", "explain"} {
		if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/"+sub, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", sub, w.Code)
		}
		if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/nonexistent/"+sub, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", sub, w.Code)
		}
	}
}

func TestServer_CancelJob(t *testing.T) {
	s := newTestServer(t, false)
	job := s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))

	w := doRequest(t, s, http.MethodDelete, "/api/v1/jobs/"+job.ID, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if status := getStatus(t, s, job.ID); status.State != StateCancelled {
		t.Errorf("Expected cancelled state, got %s", status.State)
	}

	if w := doRequest(t, s, http.MethodDelete, "/api/v1/jobs/nonexistent", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodPost, "/api/v1/jobs/"+job.ID+"/status", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_TraceAndResume(t *testing.T) {
	s := newTestServer(t, true)
	job := createJob(t, s, CreateJobRequest{
		Problem:  problem.TaskAssign,
		Generate: &GenerateRequest{Seed: 2, Size: 10},
		Solver:   json.RawMessage(quickSolver),
	})
	waitForJobs(t, s)
	first := getStatus(t, s, job.ID)

	w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/trace", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var entries []store.TraceEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) == 0 || entries[len(entries)-1].Score != first.BestScore {
		t.Errorf("Trace should end at the best score %s: %+v", first.BestScore, entries)
	}

	resumed := createJob(t, s, CreateJobRequest{
		Problem:    problem.TaskAssign,
		ResumeFrom: job.ID,
		Solver:     json.RawMessage(`{"termination": {"step_limit": 10}}`),
	})
	if resumed.ID != job.ID {
		t.Errorf("Resumed job should keep its ID, got %s", resumed.ID)
	}
	if resumed.Config.Solver.Termination.StepLimit != 10 {
		t.Errorf("Solver overlay should apply to the checkpoint config: %+v", resumed.Config.Solver.Termination)
	}
	waitForJobs(t, s)
	second := getStatus(t, s, job.ID)
	if second.State != StateCompleted || second.Step <= first.Step {
		t.Errorf("Resumed job should complete past step %d, got %s at %d", first.Step, second.State, second.Step)
	}

	if w := doRequest(t, s, http.MethodPost, "/api/v1/jobs", CreateJobRequest{Problem: problem.NQueens, ResumeFrom: job.ID}); w.Code != http.StatusBadRequest {
		t.Errorf("Resuming under another problem should fail with 400, got %d", w.Code)
	}
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/nonexistent/trace", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_TraceDisabledWithoutStore(t *testing.T) {
	s := newTestServer(t, false)
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/any/trace", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_MetricsAndProblems(t *testing.T) {
	s := newTestServer(t, false)
	createJob(t, s, CreateJobRequest{Problem: problem.NQueens, Generate: &GenerateRequest{Size: 5}, Solver: json.RawMessage(quickSolver)})
	waitForJobs(t, s)

	w := doRequest(t, s, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{`planner_score_calculations_total{problem="nqueens"}`, "planner_solve_duration_seconds", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %s in metrics output", name)
		}
	}

	w = doRequest(t, s, http.MethodGet, "/api/v1/problems", nil)
	var infos []ProblemInfo
	if err := json.NewDecoder(w.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 2 || infos[0].Name != problem.NQueens || infos[1].Name != problem.TaskAssign {
		t.Errorf("Unexpected problems: %+v", infos)
	}
}

func TestServer_JobStream(t *testing.T) {
	s := newTestServer(t, false)
	job := s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 8))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/stream", nil)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		s.Handler().ServeHTTP(w, req)
		close(done)
	}()
	s.startJob(job.ID)

	// The stream ends with the job.
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Stream did not end after the job completed")
	}
	waitForJobs(t, s)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream content type, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "data: {") {
		t.Fatalf("Expected SSE data in response: %s", body)
	}
	messages := strings.Split(strings.TrimSpace(body), "\n\n")
	name, data := parseSSEMessage(messages[len(messages)-1])
	if name != eventFinished {
		t.Errorf("Expected the stream to end with a %s event, got %q", eventFinished, name)
	}
	var last ProgressEvent
	if err := json.Unmarshal([]byte(data), &last); err != nil {
		t.Fatalf("Failed to decode last event: %v", err)
	}
	if last.State != StateCompleted || last.JobID != job.ID {
		t.Errorf("Last event should report completion: %+v", last)
	}
	for _, msg := range messages[:len(messages)-1] {
		if name, _ := parseSSEMessage(msg); name != eventProgress {
			t.Errorf("Expected only progress events before the end, got %q", name)
		}
	}
}

// parseSSEMessage returns the event name and data of one SSE message.
func parseSSEMessage(msg string) (name, data string) {
	for _, line := range strings.Split(msg, "\n") {
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			name = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
		}
	}
	return name, data
}

func TestServer_JobStream_FinishedJob(t *testing.T) {
	s := newTestServer(t, false)
	job := s.jobManager.CreateJob(testJobConfig(problem.NQueens), testInstance(t, problem.NQueens, 4))
	if _, err := s.jobManager.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}

	w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/"+job.ID+"/stream", nil)
	messages := strings.Split(strings.TrimSpace(w.Body.String()), "\n\n")
	if len(messages) != 1 {
		t.Fatalf("Expected a single event for a finished job, got %d", len(messages))
	}
	name, data := parseSSEMessage(messages[0])
	if name != eventFinished || !strings.Contains(data, `"state":"cancelled"`) {
		t.Errorf("Unexpected event %q: %s", name, data)
	}
}

func TestServer_JobStream_NotFound(t *testing.T) {
	s := newTestServer(t, false)
	if w := doRequest(t, s, http.MethodGet, "/api/v1/jobs/nonexistent/stream", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_ShutdownCancelsJobs(t *testing.T) {
	s := NewServer(":0", nil)
	job := createJob(t, s, CreateJobRequest{
		Problem:  problem.NQueens,
		Generate: &GenerateRequest{Size: 64},
		Solver:   json.RawMessage(`{"termination": {"step_limit": 10000000, "unimproved_step_limit": 0}}`),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	status, _ := s.jobManager.GetJob(job.ID)
	if status.State != StateCancelled && status.State != StatePending {
		t.Errorf("Expected the job cancelled by shutdown, got %s", status.State)
	}
}

func TestEventBroadcaster(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job1")
	defer eb.Unsubscribe("job1", ch)

	eb.Broadcast(ProgressEvent{JobID: "job1", State: StateRunning, Step: 10, BestScore: "-2", Timestamp: time.Now()})

	select {
	case received := <-ch:
		if received.JobID != "job1" || received.Step != 10 {
			t.Errorf("Unexpected event: %+v", received)
		}
	case <-time.After(1 * time.Second):
		t.Error("Timeout waiting for event")
	}

	// Late subscribers get the last event first.
	late := eb.Subscribe("job1")
	select {
	case received := <-late:
		if received.BestScore != "-2" {
			t.Errorf("Expected replay of the last event, got %+v", received)
		}
	default:
		t.Error("Expected the last event to be replayed")
	}

	eb.CleanupJob("job1")
	if _, ok := <-late; ok {
		t.Error("CleanupJob should close subscriber channels")
	}
}
