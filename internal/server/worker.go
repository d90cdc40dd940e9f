package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MarcyGO/optaplanner/internal/metrics"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/store"
)

// RunJob solves a pending job on the calling goroutine.
//
// With a non-nil checkpointStore every new best score is appended to the
// job's trace, a checkpoint is saved every Solver.CheckpointInterval and once
// more when solving ends. Cancelling ctx, or CancelJob, stops the solve; the
// job then ends cancelled with its best solution kept.
func RunJob(ctx context.Context, jm *JobManager, checkpointStore *store.FSStore, collector *metrics.Collector, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	started := false
	err := jm.UpdateJob(jobID, func(j *Job) {
		// CancelJob may have run since the job was created.
		if j.State != StatePending {
			return
		}
		j.State = StateRunning
		j.cancel = cancel
		started = true
	})
	if err != nil {
		return err
	}
	if !started {
		slog.Debug("Skipping job that is not pending", "job_id", jobID)
		return nil
	}

	slog.Info("Starting job", "job_id", jobID, "problem", job.Config.Problem, "dataset", job.Config.Dataset, "resumed_at", job.baseStep)

	initial, err := job.problem.Score(job.Config.Solver)
	if err != nil {
		markJobFailed(jm, jobID, fmt.Errorf("failed to score dataset: %w", err))
		return err
	}
	if job.baseStep == 0 {
		jm.UpdateJob(jobID, func(j *Job) {
			j.InitialScore = initial.Score
			j.BestScore = initial.Score
			j.Feasible = initial.Feasible
		})
	}

	var trace *store.TraceWriter
	if checkpointStore != nil {
		trace, err = store.NewTraceWriter(checkpointStore.BaseDir(), jobID, job.baseStep > 0)
		if err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
		defer func() {
			if err := trace.Close(); err != nil {
				slog.Warn("Failed to close trace", "job_id", jobID, "error", err)
			}
		}()
	}

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	checkpointDone := make(chan struct{})
	if checkpointStore != nil && job.Config.Solver.CheckpointInterval > 0 {
		go monitorCheckpoints(ctx, jm, checkpointStore, jobID, job.Config.Solver.CheckpointInterval, checkpointDone)
	}

	onBest := func(b problem.Best) {
		step := job.baseStep + b.Step
		jm.UpdateJob(jobID, func(j *Job) {
			j.BestScore = b.Score
			j.Feasible = b.Feasible
			j.Step = step
			j.best = b.Solution
		})
		if trace == nil {
			return
		}
		entry := store.TraceEntry{Step: step, Score: b.Score, Feasible: b.Feasible, Elapsed: b.Elapsed, Timestamp: time.Now()}
		if err := trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	}
	var recorder metrics.Recorder
	if collector != nil {
		recorder = collector.Recorder(job.Config.Problem)
	}

	outcome, err := job.problem.Solve(ctx, job.Config.Solver, problem.SolveOptions{Recorder: recorder, OnBest: onBest})
	close(progressDone)
	close(checkpointDone)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	jm.UpdateJob(jobID, func(j *Job) {
		j.BestScore = outcome.Score
		j.Feasible = outcome.Feasible
		j.Step = job.baseStep + outcome.Steps
		j.best = outcome.Solution
	})
	if checkpointStore != nil {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	if ctx.Err() != nil {
		markJobCancelled(jm, jobID)
		broadcastState(jm, jobID)
		return ctx.Err()
	}

	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.EndTime = &endTime
	})

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", outcome.Elapsed,
		"initial_score", initial.Score,
		"best_score", outcome.Score,
		"steps", outcome.Steps,
		"score_calculations", outcome.CalculationCount,
	)
	broadcastState(jm, jobID)
	return nil
}

// broadcastState sends the job's current state to its stream subscribers.
func broadcastState(jm *JobManager, jobID string) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}
	jm.broadcaster.Broadcast(newProgressEvent(job))
}

// monitorProgress periodically broadcasts progress events during solving
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond) // Throttle to 2 updates per second
	defer ticker.Stop()

	lastStep := -1
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, exists := jm.GetJob(jobID)
			if !exists {
				return
			}
			// Only new best solutions change what subscribers see.
			if job.Step == lastStep {
				continue
			}
			lastStep = job.Step
			jm.broadcaster.Broadcast(newProgressEvent(job))
		}
	}
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
	broadcastState(jm, jobID)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}

// monitorCheckpoints periodically saves checkpoints during solving
func monitorCheckpoints(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
				slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
			}
		}
	}
}

// saveCheckpoint saves the job's best solution
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if job.best == nil {
		slog.Debug("Skipping checkpoint, no best solution yet", "job_id", jobID)
		return nil
	}

	solution, err := job.best.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode best solution: %w", err)
	}
	checkpoint := store.NewCheckpoint(
		jobID,
		string(solution),
		job.BestScore,
		job.InitialScore,
		job.Feasible,
		job.Step,
		job.Config,
	)

	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved",
		"job_id", jobID,
		"step", job.Step,
		"best_score", job.BestScore,
	)
	return nil
}
