// Package store persists solver job checkpoints and score traces on disk so
// that long solves can be inspected and resumed.
package store

// Store persists one checkpoint per job. Implementations must be safe for
// concurrent use.
//
// Load and Delete return an error matching ErrNotFound when the job has no
// checkpoint. Other failures are wrapped with context.
type Store interface {
	// SaveCheckpoint atomically replaces the job's checkpoint.
	SaveCheckpoint(jobID string, checkpoint *Checkpoint) error

	LoadCheckpoint(jobID string) (*Checkpoint, error)

	// ListCheckpoints returns checkpoint metadata, newest first. Unreadable
	// checkpoints are skipped.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint together with the job's trace.
	DeleteCheckpoint(jobID string) error
}

// ErrNotFound is returned when a requested checkpoint does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing checkpoint error.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	if e.JobID != "" {
		return "checkpoint not found: " + e.JobID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
