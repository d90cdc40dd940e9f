package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/manager"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/server"
	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/spf13/cobra"
)

func quickConfig() config.SolverConfig {
	cfg := config.Default()
	cfg.Termination.StepLimit = 30
	cfg.CheckpointInterval = 0
	return cfg
}

func generated(t *testing.T, name string, size int) problem.Instance {
	t.Helper()
	p, err := problem.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	inst, err := p.Generate(1, size)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return inst
}

func TestSolverFlags_Apply(t *testing.T) {
	var f solverFlags
	cmd := &cobra.Command{Use: "test"}
	addSolverFlags(cmd, &f)
	if err := cmd.Flags().Parse([]string{"--step-limit=5", "--acceptor=tabu", "--time-limit=2s"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg, err := f.apply(cmd, config.Default())
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Termination.StepLimit != 5 {
		t.Errorf("StepLimit = %d, want 5", cfg.Termination.StepLimit)
	}
	if cfg.Termination.TimeLimit != 2*time.Second {
		t.Errorf("TimeLimit = %v, want 2s", cfg.Termination.TimeLimit)
	}
	if cfg.LocalSearch.Acceptor != config.AcceptorTabu {
		t.Errorf("Acceptor = %q, want tabu", cfg.LocalSearch.Acceptor)
	}
	// Flags the user did not set keep the base values.
	if cfg.Seed != config.Default().Seed {
		t.Errorf("Seed = %d, want the default", cfg.Seed)
	}
	if cfg.LocalSearch.MoveSelector != config.MoveSelectorUnion {
		t.Errorf("MoveSelector = %q, want union", cfg.LocalSearch.MoveSelector)
	}
}

func TestSolverFlags_Invalid(t *testing.T) {
	var f solverFlags
	cmd := &cobra.Command{Use: "test"}
	addSolverFlags(cmd, &f)
	if err := cmd.Flags().Parse([]string{"--acceptor=simulated_annealing"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := f.apply(cmd, config.Default()); err == nil {
		t.Error("Expected an error for an unknown acceptor")
	}
}

func TestDatasetFlags_Load(t *testing.T) {
	inst, label, err := datasetFlags{problem: problem.NQueens, size: 6, seed: 3}.load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if label != "generated:seed=3,size=6" {
		t.Errorf("label = %q", label)
	}

	path := filepath.Join(t.TempDir(), "board.yaml")
	if err := problem.Save(path, inst); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, label, err := datasetFlags{problem: problem.NQueens, path: path}.load()
	if err != nil {
		t.Fatalf("load from file failed: %v", err)
	}
	if label != path {
		t.Errorf("label = %q, want %q", label, path)
	}
	if loaded.Problem() != problem.NQueens {
		t.Errorf("Problem() = %q", loaded.Problem())
	}

	if _, _, err := (datasetFlags{problem: "tsp"}).load(); err == nil {
		t.Error("Expected an error for an unknown problem")
	}
}

func TestRunLocalJob_SolveAndResume(t *testing.T) {
	dataDir := t.TempDir()
	checkpointStore, err := openStore(dataDir)
	if err != nil {
		t.Fatalf("openStore failed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "best.yaml")

	jm := server.NewJobManager()
	job := jm.CreateJob(store.JobConfig{Problem: problem.NQueens, Dataset: "generated", Solver: quickConfig()}, generated(t, problem.NQueens, 8))

	var buf bytes.Buffer
	if err := runLocalJob(context.Background(), &buf, jm, checkpointStore, job.ID, localJobOutput{path: out, explain: true}); err != nil {
		t.Fatalf("runLocalJob failed: %v", err)
	}
	text := buf.String()
	for _, want := range []string{"(completed)", "-8init/0 ->", "Explanation of score"} {
		if !strings.Contains(text, want) {
			t.Errorf("Output missing %q:\n%s", want, text)
		}
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("Best solution not written: %v", err)
	}

	first, _ := jm.GetJob(job.ID)
	checkpoint, err := checkpointStore.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if checkpoint.Step != first.Step {
		t.Errorf("Checkpoint step = %d, want %d", checkpoint.Step, first.Step)
	}

	resumed := server.NewJobManager()
	if _, err := resumed.RestoreJob(checkpoint); err != nil {
		t.Fatalf("RestoreJob failed: %v", err)
	}
	buf.Reset()
	if err := runLocalJob(context.Background(), &buf, resumed, checkpointStore, job.ID, localJobOutput{}); err != nil {
		t.Fatalf("resumed runLocalJob failed: %v", err)
	}
	second, _ := resumed.GetJob(job.ID)
	if second.Step <= first.Step {
		t.Errorf("Resumed step = %d, want more than %d", second.Step, first.Step)
	}
	if second.InitialScore != first.InitialScore {
		t.Errorf("InitialScore = %q, want %q", second.InitialScore, first.InitialScore)
	}
}

func TestRunLocalJob_Cancelled(t *testing.T) {
	jm := server.NewJobManager()
	job := jm.CreateJob(store.JobConfig{Problem: problem.NQueens, Solver: quickConfig()}, generated(t, problem.NQueens, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := runLocalJob(ctx, &buf, jm, nil, job.ID, localJobOutput{}); err != nil {
		t.Fatalf("An interrupted job should not be an error, got %v", err)
	}
	if !strings.Contains(buf.String(), "(cancelled)") {
		t.Errorf("Output should report the cancelled job:\n%s", buf.String())
	}
}

func TestPrintScore(t *testing.T) {
	var buf bytes.Buffer
	if err := printScore(&buf, generated(t, problem.NQueens, 4), config.Default()); err != nil {
		t.Fatalf("printScore failed: %v", err)
	}
	text := buf.String()
	if !strings.Contains(text, "-4init/0") {
		t.Errorf("Expected the uninitialized score, got:\n%s", text)
	}
	if !strings.Contains(text, "Initialized: false") {
		t.Errorf("Expected Initialized: false, got:\n%s", text)
	}
}

func TestPrintExplanationJSON(t *testing.T) {
	inst := generated(t, problem.TaskAssign, 10)
	var buf bytes.Buffer
	if err := printExplanationJSON(&buf, inst, config.Default()); err != nil {
		t.Fatalf("printExplanationJSON failed: %v", err)
	}

	var view manager.View
	if err := json.Unmarshal(buf.Bytes(), &view); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	info, err := inst.Score(config.Default())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if view.Score != info.Score {
		t.Errorf("View score = %q, want %q", view.Score, info.Score)
	}
}

func TestListProblems(t *testing.T) {
	var buf bytes.Buffer
	if err := listProblems(&buf); err != nil {
		t.Fatalf("listProblems failed: %v", err)
	}
	for _, name := range problem.Names() {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("Output missing problem %q", name)
		}
	}
}

func TestStatus(t *testing.T) {
	srv := server.NewServer("", nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	var buf bytes.Buffer
	if err := listJobs(&buf, ts.URL+"/api/v1/jobs"); err != nil {
		t.Fatalf("listJobs failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No jobs found") {
		t.Errorf("Expected no jobs, got:\n%s", buf.String())
	}

	if err := getJobStatus(&buf, ts.URL+"/api/v1/jobs/missing/status", "missing"); err == nil || !strings.Contains(err.Error(), "job not found") {
		t.Errorf("Expected job not found, got %v", err)
	}

	body := `{"problem": "nqueens", "generate": {"size": 6}, "solver": {"termination": {"step_limit": 20}, "checkpoint_interval": 0}}`
	resp, err := http.Post(ts.URL+"/api/v1/jobs", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	var job server.Job
	err = json.NewDecoder(resp.Body).Decode(&job)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	buf.Reset()
	if err := getJobStatus(&buf, ts.URL+"/api/v1/jobs/"+job.ID+"/status", job.ID); err != nil {
		t.Fatalf("getJobStatus failed: %v", err)
	}
	for _, want := range []string{job.ID, "Problem: nqueens", "Dataset: generated:seed=0,size=6"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("Status missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := listJobs(&buf, ts.URL+"/api/v1/jobs"); err != nil {
		t.Fatalf("listJobs failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Found 1 job(s)") {
		t.Errorf("Expected one job, got:\n%s", buf.String())
	}
}
