package solver

import (
	"log/slog"
	"time"

	"github.com/MarcyGO/optaplanner/internal/score"
)

// Progress is what terminations look at.
type Progress[S score.Score[S]] struct {
	Step            int
	Elapsed         time.Duration
	BestScore       S
	HasBestScore    bool
	UnimprovedSteps int
}

// Termination decides when solving stops.
type Termination[S score.Score[S]] interface {
	IsTerminated(p Progress[S]) bool
}

// TerminationFunc adapts a function to Termination.
type TerminationFunc[S score.Score[S]] func(p Progress[S]) bool

func (f TerminationFunc[S]) IsTerminated(p Progress[S]) bool { return f(p) }

// StepLimit stops after n steps of the current phase.
func StepLimit[S score.Score[S]](n int) Termination[S] {
	return TerminationFunc[S](func(p Progress[S]) bool { return p.Step >= n })
}

// TimeLimit stops once d has elapsed since solving started.
func TimeLimit[S score.Score[S]](d time.Duration) Termination[S] {
	return TerminationFunc[S](func(p Progress[S]) bool { return p.Elapsed >= d })
}

// BestScoreLimit stops once the best score is at least limit.
func BestScoreLimit[S score.Score[S]](limit S) Termination[S] {
	return TerminationFunc[S](func(p Progress[S]) bool {
		return p.HasBestScore && p.BestScore.Compare(limit) >= 0
	})
}

// UnimprovedStepLimit stops when the best score has not improved for
// patience steps in a row.
func UnimprovedStepLimit[S score.Score[S]](patience int) Termination[S] {
	return &unimprovedStepLimit[S]{patience: patience}
}

type unimprovedStepLimit[S score.Score[S]] struct {
	patience int
	logged   bool
}

func (u *unimprovedStepLimit[S]) IsTerminated(p Progress[S]) bool {
	if p.UnimprovedSteps < u.patience {
		return false
	}
	if !u.logged {
		u.logged = true
		slog.Info("Convergence detected - stopping early",
			"stale_count", p.UnimprovedSteps,
			"patience", u.patience,
			"best_score", p.BestScore.String(),
		)
	}
	return true
}

// AnyOf stops as soon as one of the terminations does. Nil entries are
// skipped.
func AnyOf[S score.Score[S]](terminations ...Termination[S]) Termination[S] {
	var active []Termination[S]
	for _, t := range terminations {
		if t != nil {
			active = append(active, t)
		}
	}
	return TerminationFunc[S](func(p Progress[S]) bool {
		for _, t := range active {
			if t.IsTerminated(p) {
				return true
			}
		}
		return false
	})
}
