package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
)

func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return s, dir
}

func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:        jobID,
		Solution:     "employees: []\ntasks: []\n",
		BestScore:    "[0]hard/[-10/-2925/-30/-45]soft",
		InitialScore: "-3init/[0]hard/[0/0/0/0]soft",
		Feasible:     true,
		Step:         120,
		Timestamp:    time.Now(),
		Config: JobConfig{
			Problem: "taskassign",
			Dataset: "data/50tasks.yaml",
			Solver:  config.Default(),
		},
	}
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	s, dir := setupTestStore(t)
	original := createTestCheckpoint("job-1")

	if err := s.SaveCheckpoint("job-1", original); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	for _, name := range []string{"checkpoint.json", "best.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, "jobs", "job-1", name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "jobs", "job-1", "checkpoint.json.tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	loaded, err := s.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestScore != original.BestScore || loaded.Step != original.Step || loaded.Solution != original.Solution {
		t.Errorf("loaded checkpoint differs: %+v", loaded)
	}
	if loaded.Config.Solver.LocalSearch.Acceptor != config.AcceptorLateAcceptance {
		t.Errorf("solver config lost: %+v", loaded.Config.Solver)
	}
	if !loaded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("timestamp: got %v, want %v", loaded.Timestamp, original.Timestamp)
	}
	data, err := os.ReadFile(s.SolutionPath("job-1"))
	if err != nil || string(data) != original.Solution {
		t.Errorf("best.yaml: %q, %v", data, err)
	}
}

func TestSaveCheckpoint_Overwrites(t *testing.T) {
	s, _ := setupTestStore(t)
	cp := createTestCheckpoint("job-1")
	if err := s.SaveCheckpoint("job-1", cp); err != nil {
		t.Fatal(err)
	}
	cp.Step = 500
	cp.BestScore = "[0]hard/[0/-100/0/0]soft"
	if err := s.SaveCheckpoint("job-1", cp); err != nil {
		t.Fatal(err)
	}

	loaded, err := s.LoadCheckpoint("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Step != 500 || loaded.BestScore != cp.BestScore {
		t.Errorf("expected overwritten checkpoint, got step %d score %s", loaded.Step, loaded.BestScore)
	}
}

func TestSaveCheckpoint_InvalidArguments(t *testing.T) {
	s, _ := setupTestStore(t)
	if err := s.SaveCheckpoint("", createTestCheckpoint("x")); err == nil {
		t.Error("expected error for empty job ID")
	}
	if err := s.SaveCheckpoint("job", nil); err == nil {
		t.Error("expected error for nil checkpoint")
	}
}

func TestLoadCheckpoint_NotFound(t *testing.T) {
	s, _ := setupTestStore(t)
	_, err := s.LoadCheckpoint("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should name the job: %v", err)
	}
}

func TestLoadCheckpoint_Corrupted(t *testing.T) {
	s, dir := setupTestStore(t)
	jobDir := filepath.Join(dir, "jobs", "bad")
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "checkpoint.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := s.LoadCheckpoint("bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	s, dir := setupTestStore(t)

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints on empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected no checkpoints, got %d", len(infos))
	}

	now := time.Now()
	for i, id := range []string{"old", "new", "mid"} {
		cp := createTestCheckpoint(id)
		cp.Timestamp = now.Add(time.Duration([]int{-3, 0, -1}[i]) * time.Hour)
		if err := s.SaveCheckpoint(id, cp); err != nil {
			t.Fatal(err)
		}
	}
	// A job directory with only a trace is skipped.
	if err := os.MkdirAll(filepath.Join(dir, "jobs", "trace-only"), 0755); err != nil {
		t.Fatal(err)
	}

	infos, err = s.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	var ids []string
	for _, info := range infos {
		ids = append(ids, info.JobID)
	}
	if strings.Join(ids, ",") != "new,mid,old" {
		t.Errorf("expected newest first, got %v", ids)
	}
	if infos[0].Problem != "taskassign" || !infos[0].Feasible {
		t.Errorf("unexpected info: %+v", infos[0])
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	s, dir := setupTestStore(t)
	if err := s.SaveCheckpoint("job-1", createTestCheckpoint("job-1")); err != nil {
		t.Fatal(err)
	}
	w, err := NewTraceWriter(dir, "job-1", false)
	if err != nil {
		t.Fatal(err)
	}
	w.Close()

	if err := s.DeleteCheckpoint("job-1"); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "jobs", "job-1")); !os.IsNotExist(err) {
		t.Error("job directory should be gone")
	}
	if err := s.DeleteCheckpoint("job-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestConcurrentSaves(t *testing.T) {
	s, _ := setupTestStore(t)
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "job-" + string(rune('a'+i))
			errs <- s.SaveCheckpoint(id, createTestCheckpoint(id))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent save failed: %v", err)
		}
	}

	infos, err := s.ListCheckpoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 20 {
		t.Errorf("expected 20 checkpoints, got %d", len(infos))
	}
}
