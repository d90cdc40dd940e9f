package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/metrics"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// Scope is the state one Solve call shares with its phases.
type Scope[Sol any, S score.Score[S]] struct {
	ctx         context.Context
	director    *director.Director[Sol, S]
	rnd         *rand.Rand
	termination Termination[S]
	recaller    *BestSolutionRecaller[Sol, S]
	recorder    metrics.Recorder
	start       time.Time

	totalSteps     int
	phaseStep      int
	lastImprovedAt int
	score          S
}

func (s *Scope[Sol, S]) Context() context.Context             { return s.ctx }
func (s *Scope[Sol, S]) Director() *director.Director[Sol, S] { return s.director }
func (s *Scope[Sol, S]) Rand() *rand.Rand                     { return s.rnd }
func (s *Scope[Sol, S]) Recorder() metrics.Recorder           { return s.recorder }

// Step is the number of steps taken in the current phase.
func (s *Scope[Sol, S]) Step() int { return s.phaseStep }

// Score is the score after the last step.
func (s *Scope[Sol, S]) Score() S { return s.score }

// BestScore is the best score seen so far, or the last step score before the
// first one was recorded.
func (s *Scope[Sol, S]) BestScore() S {
	if _, best, ok := s.recaller.Best(); ok {
		return best
	}
	return s.score
}

func (s *Scope[Sol, S]) Progress() Progress[S] {
	_, best, ok := s.recaller.Best()
	return Progress[S]{
		Step:            s.phaseStep,
		Elapsed:         time.Since(s.start),
		BestScore:       best,
		HasBestScore:    ok,
		UnimprovedSteps: s.phaseStep - s.lastImprovedAt,
	}
}

// IsTerminated reports whether the context is done or the termination holds.
func (s *Scope[Sol, S]) IsTerminated() bool {
	if s.ctx.Err() != nil {
		return true
	}
	return s.termination != nil && s.termination.IsTerminated(s.Progress())
}

// PhaseStarted resets the phase step counters.
func (s *Scope[Sol, S]) PhaseStarted(initial S) {
	s.phaseStep = 0
	s.lastImprovedAt = 0
	s.score = initial
}

// StepEnded records the score after a step. In assert modes the score is
// checked against a from-scratch calculation first.
func (s *Scope[Sol, S]) StepEnded(stepScore S) error {
	s.phaseStep++
	s.totalSteps++
	if s.director.Factory().AssertionMode() != director.Reproducible {
		if err := s.director.AssertWorkingScoreFromScratch(stepScore, fmt.Sprintf("step %d", s.totalSteps)); err != nil {
			return err
		}
	}
	s.score = stepScore
	if s.recaller.Process(s.director.WorkingSolution(), stepScore, s.totalSteps, time.Since(s.start)) {
		s.lastImprovedAt = s.phaseStep
		s.recorder.BestScoreUpdated()
		slog.Debug("New best solution", "step", s.totalSteps, "score", stepScore.String())
	}
	return nil
}

// StepSkipped counts a step in which no move was picked.
func (s *Scope[Sol, S]) StepSkipped() {
	s.phaseStep++
	s.totalSteps++
}
