package store

import (
	"fmt"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
)

// JobConfig is the part of a job needed to resume it: which problem, which
// dataset and how to solve it.
type JobConfig struct {
	Problem string              `json:"problem"`
	Dataset string              `json:"dataset,omitempty"`
	Solver  config.SolverConfig `json:"solver"`
}

// Checkpoint is the best solution of a job at some step.
//
// Only the best solution is saved. Acceptor memory (late acceptance ring,
// tabu list) and the random generator state are not, so a resumed job starts
// a new solve from the saved solution: construction finds nothing left to
// assign and local search starts from the best score. The best score never
// gets worse across a resume, but the trajectory differs from an
// uninterrupted run.
type Checkpoint struct {
	JobID string `json:"jobId"`

	// Solution is the best solution in the problem's YAML dataset format.
	Solution string `json:"solution"`

	BestScore    string `json:"bestScore"`
	InitialScore string `json:"initialScore"`
	Feasible     bool   `json:"feasible"`

	// Step counts the steps of all solves of this job so far.
	Step int `json:"step"`

	Timestamp time.Time `json:"timestamp"`
	Config    JobConfig `json:"config"`
}

// CheckpointInfo is a checkpoint without its solution, for listings.
type CheckpointInfo struct {
	JobID     string    `json:"jobId"`
	Problem   string    `json:"problem"`
	Dataset   string    `json:"dataset,omitempty"`
	BestScore string    `json:"bestScore"`
	Feasible  bool      `json:"feasible"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCheckpoint creates a checkpoint stamped with the current time.
func NewCheckpoint(jobID, solution, bestScore, initialScore string, feasible bool, step int, cfg JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:        jobID,
		Solution:     solution,
		BestScore:    bestScore,
		InitialScore: initialScore,
		Feasible:     feasible,
		Step:         step,
		Timestamp:    time.Now(),
		Config:       cfg,
	}
}

func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:     c.JobID,
		Problem:   c.Config.Problem,
		Dataset:   c.Config.Dataset,
		BestScore: c.BestScore,
		Feasible:  c.Feasible,
		Step:      c.Step,
		Timestamp: c.Timestamp,
	}
}

// Validate checks that a checkpoint can be resumed.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if c.Solution == "" {
		return &ValidationError{Field: "Solution", Reason: "cannot be empty"}
	}
	if c.BestScore == "" {
		return &ValidationError{Field: "BestScore", Reason: "cannot be empty"}
	}
	if c.Step < 0 {
		return &ValidationError{Field: "Step", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Problem == "" {
		return &ValidationError{Field: "Config.Problem", Reason: "cannot be empty"}
	}
	if err := c.Config.Solver.Validate(); err != nil {
		return &ValidationError{Field: "Config.Solver", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible checks that a job with cfg may resume from this checkpoint.
// Solver settings may differ; the problem and dataset may not.
func (c *Checkpoint) IsCompatible(cfg JobConfig) error {
	if c.Config.Problem != cfg.Problem {
		return &CompatibilityError{Field: "Problem", Expected: c.Config.Problem, Actual: cfg.Problem}
	}
	if cfg.Dataset != "" && c.Config.Dataset != cfg.Dataset {
		return &CompatibilityError{Field: "Dataset", Expected: c.Config.Dataset, Actual: cfg.Dataset}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("compatibility error: %s mismatch (expected %q, got %q)", e.Field, e.Expected, e.Actual)
}
