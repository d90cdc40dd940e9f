package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/store"
)

func testJobConfig() store.JobConfig {
	return store.JobConfig{Problem: "nqueens", Dataset: "generated", Solver: config.Default()}
}

// saveTestCheckpoint saves a checkpoint stamped age ago.
func saveTestCheckpoint(t *testing.T, dir, jobID string, age time.Duration) {
	t.Helper()
	checkpointStore, err := store.NewFSStore(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	checkpoint := store.NewCheckpoint(jobID, "queens: []\n", "0", "-8init/0", true, 10, testJobConfig())
	checkpoint.Timestamp = time.Now().Add(-age)
	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}
}

func jobIDs(infos []store.CheckpointInfo) []string {
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.JobID
	}
	slices.Sort(ids)
	return ids
}

func TestSelectCheckpointsForDeletion(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job5", Timestamp: now.AddDate(0, 0, -2)},
	}

	tests := []struct {
		name          string
		keepLast      int
		olderThanDays int
		want          []string
	}{
		{"by age", 0, 7, []string{"job1", "job4"}},
		{"by count", 2, 0, []string{"job1", "job2", "job4"}},
		{"combined without duplicates", 3, 7, []string{"job1", "job4"}},
		{"combined count beyond age", 1, 7, []string{"job1", "job2", "job4", "job5"}},
		{"keep more than exist", 10, 0, []string{}},
		{"nothing old enough", 0, 60, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jobIDs(selectCheckpointsForDeletion(infos, tt.keepLast, tt.olderThanDays))
			if !slices.Equal(got, tt.want) {
				t.Errorf("selected %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("Hello, World!")
	if err := os.WriteFile(filepath.Join(tmpDir, "test.txt"), content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "sub", "more.txt"), content, 0644); err != nil {
		t.Fatal(err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size != int64(2*len(content)) {
		t.Errorf("Expected size %d, got %d", 2*len(content), size)
	}

	if _, err := getDirSize(filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("Expected an error for a missing directory")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "0123456789ab..." {
		t.Errorf("shortID truncated to %q", got)
	}
}

func TestListCheckpoints_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := listCheckpoints(&buf, t.TempDir(), false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "No checkpoints found.") {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}

func TestListCheckpoints_Table(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestCheckpoint(t, tmpDir, "test-job-id", time.Hour)

	var buf bytes.Buffer
	if err := listCheckpoints(&buf, tmpDir, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BEST SCORE", "test-job-id", "nqueens", "Total checkpoints: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
	// The table shows the best score, not the initial one.
	if strings.Contains(out, "-8init/0") {
		t.Errorf("Table should not show the initial score:\n%s", out)
	}
}

func TestListCheckpoints_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestCheckpoint(t, tmpDir, "old", 48*time.Hour)
	saveTestCheckpoint(t, tmpDir, "new", time.Hour)

	var buf bytes.Buffer
	if err := listCheckpoints(&buf, tmpDir, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var infos []store.CheckpointInfo
	if err := json.Unmarshal(buf.Bytes(), &infos); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(infos) != 2 || infos[0].JobID != "new" || infos[1].JobID != "old" {
		t.Errorf("Expected newest first, got %+v", infos)
	}
	if infos[0].Problem != "nqueens" || infos[0].Step != 10 || !infos[0].Feasible {
		t.Errorf("Unexpected info: %+v", infos[0])
	}
}

func TestCleanCheckpoints_NoPolicy(t *testing.T) {
	var buf bytes.Buffer
	if err := cleanCheckpoints(&buf, strings.NewReader(""), t.TempDir(), retentionPolicy{}, true); err == nil {
		t.Error("Expected error when no policy is specified")
	}
}

func TestCleanCheckpoints_Force(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestCheckpoint(t, tmpDir, "old-job", 30*24*time.Hour)
	saveTestCheckpoint(t, tmpDir, "new-job", time.Hour)

	var buf bytes.Buffer
	if err := cleanCheckpoints(&buf, strings.NewReader(""), tmpDir, retentionPolicy{olderThanDays: 7}, true); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "Deleted 1 checkpoint(s), 0 failed.") {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}

	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := checkpointStore.LoadCheckpoint("old-job"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected old-job to be deleted, got %v", err)
	}
	if _, err := checkpointStore.LoadCheckpoint("new-job"); err != nil {
		t.Errorf("Expected new-job to be kept, got %v", err)
	}
}

func TestCleanCheckpoints_Confirmation(t *testing.T) {
	tmpDir := t.TempDir()
	saveTestCheckpoint(t, tmpDir, "job-a", 2*time.Hour)
	saveTestCheckpoint(t, tmpDir, "job-b", time.Hour)
	policy := retentionPolicy{keepLast: 1}

	var buf bytes.Buffer
	if err := cleanCheckpoints(&buf, strings.NewReader("n\n"), tmpDir, policy, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "Aborted.") {
		t.Errorf("Expected abort, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := cleanCheckpoints(&buf, strings.NewReader("y\n"), tmpDir, policy, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	checkpointStore, err := store.NewFSStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].JobID != "job-b" {
		t.Errorf("Expected only job-b to remain, got %+v", infos)
	}
}
