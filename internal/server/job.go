package server

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/google/uuid"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobConfig is an alias to avoid duplication with store.JobConfig
type JobConfig = store.JobConfig

// Job is one solve of a dataset. Step counts the steps of every solve of the
// job, including the ones before a resume.
type Job struct {
	ID           string     `json:"id"`
	State        JobState   `json:"state"`
	Config       JobConfig  `json:"config"`
	BestScore    string     `json:"bestScore,omitempty"`
	InitialScore string     `json:"initialScore,omitempty"`
	Feasible     bool       `json:"feasible"`
	Step         int        `json:"step"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Error        string     `json:"error,omitempty"`

	problem  problem.Instance
	best     problem.Instance
	baseStep int
	cancel   context.CancelFunc
}

// Best returns the best solution found so far, or nil before the first one.
func (j Job) Best() problem.Instance { return j.best }

// Finished reports whether the job reached a terminal state.
func (j Job) Finished() bool {
	return j.State == StateCompleted || j.State == StateFailed || j.State == StateCancelled
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job that will solve inst.
func (jm *JobManager) CreateJob(config JobConfig, inst problem.Instance) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
		problem:   inst,
	}
	jm.jobs[job.ID] = job
	return *job
}

// RestoreJob registers a pending job that continues from a checkpoint under
// the checkpoint's job ID. A running job with that ID is an error.
func (jm *JobManager) RestoreJob(cp *store.Checkpoint) (Job, error) {
	if err := cp.Validate(); err != nil {
		return Job{}, fmt.Errorf("invalid checkpoint: %w", err)
	}
	p, err := problem.Lookup(cp.Config.Problem)
	if err != nil {
		return Job{}, err
	}
	inst, err := p.Parse([]byte(cp.Solution))
	if err != nil {
		return Job{}, fmt.Errorf("failed to decode checkpoint solution: %w", err)
	}
	// The worker scores and solves inst in place; best is read by handlers
	// concurrently, so it gets its own copy.
	best, err := p.Parse([]byte(cp.Solution))
	if err != nil {
		return Job{}, fmt.Errorf("failed to decode checkpoint solution: %w", err)
	}

	jm.mu.Lock()
	defer jm.mu.Unlock()

	if existing, ok := jm.jobs[cp.JobID]; ok && !existing.Finished() {
		return Job{}, fmt.Errorf("job %s is still %s", cp.JobID, existing.State)
	}
	job := &Job{
		ID:           cp.JobID,
		State:        StatePending,
		Config:       cp.Config,
		BestScore:    cp.BestScore,
		InitialScore: cp.InitialScore,
		Feasible:     cp.Feasible,
		Step:         cp.Step,
		StartTime:    time.Now(),
		problem:      inst,
		best:         best,
		baseStep:     cp.Step,
	}
	jm.jobs[job.ID] = job
	// Subscribers of the previous run must not see its final event again.
	jm.broadcaster.CleanupJob(job.ID)
	return *job, nil
}

// GetJob returns a copy of the job.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return *job, true
}

// ListJobs returns copies of all jobs, oldest first.
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, *job)
	}
	slices.SortFunc(jobs, func(a, b Job) int { return a.StartTime.Compare(b.StartTime) })
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// CancelJob stops a running job, which keeps its best solution, or marks a
// pending one cancelled before it starts. Finished jobs are left alone.
func (jm *JobManager) CancelJob(id string) (Job, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, fmt.Errorf("job not found: %s", id)
	}
	switch {
	case job.Finished():
	case job.cancel != nil:
		job.cancel()
	default:
		endTime := time.Now()
		job.State = StateCancelled
		job.EndTime = &endTime
		jm.broadcaster.Broadcast(newProgressEvent(*job))
	}
	return *job, nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			runningJobs = append(runningJobs, *job)
		}
	}
	return runningJobs
}
