package solver

import (
	"context"
	"log/slog"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// Placer yields the candidate moves that initialize one more planning value.
// It returns nil once the solution is fully initialized.
type Placer[Sol any] interface {
	Next(solution Sol) []move.Move
}

// ListPlacer places the first unassigned list value at every position of
// every entity.
type ListPlacer[Sol any, E, V comparable] struct {
	Variable *domain.ListVariable[E, V]
	Entities func(Sol) []E
	Values   func(Sol) []V
}

func (p ListPlacer[Sol, E, V]) Next(solution Sol) []move.Move {
	entities := p.Entities(solution)
	assigned := make(map[V]struct{})
	for _, e := range entities {
		for _, v := range p.Variable.Elements(e) {
			assigned[v] = struct{}{}
		}
	}
	for _, value := range p.Values(solution) {
		if _, ok := assigned[value]; ok {
			continue
		}
		var moves []move.Move
		for _, e := range entities {
			for i := 0; i <= p.Variable.Size(e); i++ {
				moves = append(moves, move.NewListAssignMove(p.Variable, value, e, i))
			}
		}
		return moves
	}
	return nil
}

// BasicPlacer tries every value for the first entity whose variable is
// unassigned.
type BasicPlacer[Sol any, E, V comparable] struct {
	Variable *domain.BasicVariable[E, V]
	Entities func(Sol) []E
	Values   func(Sol) []V
}

func (p BasicPlacer[Sol, E, V]) Next(solution Sol) []move.Move {
	for _, e := range p.Entities(solution) {
		if p.Variable.IsAssigned(e) {
			continue
		}
		values := p.Values(solution)
		moves := make([]move.Move, len(values))
		for i, v := range values {
			moves[i] = move.NewChangeMove(p.Variable, e, v)
		}
		return moves
	}
	return nil
}

// ConstructionPhase is a first fit heuristic: each step does the placement
// move with the best score. It only stops early on cancellation, so that
// local search starts from an initialized solution.
type ConstructionPhase[Sol any, S score.Score[S]] struct {
	Placer Placer[Sol]
}

func (p ConstructionPhase[Sol, S]) Name() string { return "construction" }

func (p ConstructionPhase[Sol, S]) Solve(scope *Scope[Sol, S]) error {
	d := scope.Director()
	initial, err := d.CalculateScore()
	if err != nil {
		return err
	}
	scope.PhaseStarted(initial)
	slog.Info("Construction phase started", "score", initial.String())

	for scope.Context().Err() == nil {
		candidates := p.Placer.Next(d.WorkingSolution())
		if len(candidates) == 0 {
			break
		}
		var picked move.Move
		var pickedScore S
		for _, m := range candidates {
			if !m.IsMoveDoable(d) {
				continue
			}
			s, err := d.DoAndEvaluate(m)
			if err != nil {
				return err
			}
			scope.Recorder().MoveEvaluated()
			if picked == nil || s.Compare(pickedScore) > 0 {
				picked, pickedScore = m, s
			}
		}
		if picked == nil {
			slog.Warn("No doable placement - stopping construction", "step", scope.Step())
			break
		}
		d.DoMove(picked)
		scope.Recorder().MoveAccepted()
		stepScore, err := d.CalculateScore()
		if err != nil {
			return err
		}
		if err := scope.StepEnded(stepScore); err != nil {
			return err
		}
		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			slog.Debug("Construction step", "step", scope.Step(), "move", picked.String(), "score", stepScore.String())
		}
	}

	slog.Info("Construction phase ended", "steps", scope.Step(), "score", scope.Score().String())
	return nil
}
