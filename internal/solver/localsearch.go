package solver

import (
	"context"
	"log/slog"

	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// LocalSearchPhase evaluates AcceptedCountLimit random doable moves per step
// and does the best one the acceptor accepts.
type LocalSearchPhase[Sol any, S score.Score[S]] struct {
	Selector           MoveSelector[Sol]
	Acceptor           Acceptor[S]
	AcceptedCountLimit int
}

func (p LocalSearchPhase[Sol, S]) Name() string { return "local search" }

func (p LocalSearchPhase[Sol, S]) Solve(scope *Scope[Sol, S]) error {
	d := scope.Director()
	initial, err := d.CalculateScore()
	if err != nil {
		return err
	}
	scope.PhaseStarted(initial)
	p.Acceptor.PhaseStarted(initial)
	limit := max(p.AcceptedCountLimit, 1)
	slog.Info("Local search phase started", "score", initial.String(), "accepted_count_limit", limit)

	for !scope.IsTerminated() {
		var picked move.Move
		var pickedScore S
		evaluated := 0
		for attempt := 0; evaluated < limit && attempt < limit*10; attempt++ {
			m, ok := p.Selector.Select(d.WorkingSolution(), scope.Rand())
			if !ok {
				break
			}
			if !m.IsMoveDoable(d) {
				continue
			}
			s, err := d.DoAndEvaluate(m)
			if err != nil {
				return err
			}
			evaluated++
			scope.Recorder().MoveEvaluated()
			candidate := Candidate[S]{Move: m, Score: s, LastStepScore: scope.Score(), BestScore: scope.BestScore()}
			if !p.Acceptor.IsAccepted(candidate) {
				continue
			}
			if picked == nil || s.Compare(pickedScore) > 0 {
				picked, pickedScore = m, s
			}
		}
		if evaluated == 0 {
			slog.Warn("No doable moves - stopping local search", "step", scope.Step())
			break
		}
		if picked == nil {
			scope.StepSkipped()
			continue
		}

		undo := d.DoMove(picked)
		scope.Recorder().MoveAccepted()
		stepScore, err := d.CalculateScore()
		if err != nil {
			return err
		}
		p.Acceptor.StepEnded(picked, undo, stepScore)
		if err := scope.StepEnded(stepScore); err != nil {
			return err
		}
		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			slog.Debug("Local search step", "step", scope.Step(), "move", picked.String(), "score", stepScore.String())
		}
	}

	slog.Info("Local search phase ended",
		"steps", scope.Step(),
		"score", scope.Score().String(),
		"best_score", scope.BestScore().String(),
	)
	return nil
}
