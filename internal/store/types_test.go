package store

import (
	"errors"
	"testing"
	"time"
)

func TestCheckpointValidate(t *testing.T) {
	if err := createTestCheckpoint("ok").Validate(); err != nil {
		t.Fatalf("valid checkpoint rejected: %v", err)
	}

	tests := []struct {
		field  string
		modify func(*Checkpoint)
	}{
		{"JobID", func(c *Checkpoint) { c.JobID = "" }},
		{"Solution", func(c *Checkpoint) { c.Solution = "" }},
		{"BestScore", func(c *Checkpoint) { c.BestScore = "" }},
		{"Step", func(c *Checkpoint) { c.Step = -1 }},
		{"Timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }},
		{"Config.Problem", func(c *Checkpoint) { c.Config.Problem = "" }},
		{"Config.Solver", func(c *Checkpoint) { c.Config.Solver.LocalSearch.Acceptor = "unknown" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cp := createTestCheckpoint("job")
			tt.modify(cp)
			err := cp.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	cp := createTestCheckpoint("job")

	same := cp.Config
	same.Solver.Termination.StepLimit = 99
	if err := cp.IsCompatible(same); err != nil {
		t.Errorf("different solver settings should be compatible: %v", err)
	}

	noDataset := cp.Config
	noDataset.Dataset = ""
	if err := cp.IsCompatible(noDataset); err != nil {
		t.Errorf("an empty dataset should resume the checkpoint's dataset: %v", err)
	}

	other := cp.Config
	other.Problem = "nqueens"
	var cerr *CompatibilityError
	if err := cp.IsCompatible(other); !errors.As(err, &cerr) || cerr.Field != "Problem" {
		t.Errorf("expected Problem mismatch, got %v", err)
	}

	other = cp.Config
	other.Dataset = "data/other.yaml"
	if err := cp.IsCompatible(other); !errors.As(err, &cerr) || cerr.Field != "Dataset" {
		t.Errorf("expected Dataset mismatch, got %v", err)
	}
}

func TestNewCheckpointAndInfo(t *testing.T) {
	before := time.Now()
	cfg := createTestCheckpoint("x").Config
	cp := NewCheckpoint("job-7", "tasks: []\n", "[0]hard/[0/0/0/0]soft", "-1init/[0]hard/[0/0/0/0]soft", true, 42, cfg)
	if cp.Timestamp.Before(before) {
		t.Error("timestamp should be set to now")
	}
	info := cp.ToInfo()
	if info.JobID != "job-7" || info.Step != 42 || info.Problem != "taskassign" || info.Dataset != cfg.Dataset {
		t.Errorf("unexpected info: %+v", info)
	}
}
