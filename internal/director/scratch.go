package director

import (
	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
)

// EvaluateFunc impacts h once per constraint match in solution and returns
// the retractions of those impacts, including the ones made before an error.
type EvaluateFunc[Sol any, S score.Score[S]] func(solution Sol, h holder.Holder[S]) ([]holder.Retraction, error)

// FromScratchProvider turns a plain evaluation function into a
// ConstraintProvider. Its sessions re-evaluate the whole solution on the
// first Flush after any change, which is slow but trivially correct.
type FromScratchProvider[Sol any, S score.Score[S]] struct {
	Constraints []constraint.Definition[S]
	Evaluate    EvaluateFunc[Sol, S]
}

func (p FromScratchProvider[Sol, S]) DefineConstraints() []constraint.Definition[S] {
	return p.Constraints
}

func (p FromScratchProvider[Sol, S]) NewSession(h holder.Holder[S]) ConstraintSession[Sol] {
	return &scratchSession[Sol, S]{evaluate: p.Evaluate, holder: h}
}

type scratchSession[Sol any, S score.Score[S]] struct {
	evaluate    EvaluateFunc[Sol, S]
	holder      holder.Holder[S]
	solution    Sol
	retractions []holder.Retraction
	dirty       bool
}

func (s *scratchSession[Sol, S]) Insert(solution Sol) error {
	s.retract()
	s.solution = solution
	s.dirty = true
	return s.Flush()
}

func (s *scratchSession[Sol, S]) BeforeVariableChanged(domain.VariableDescriptor, any) {}

func (s *scratchSession[Sol, S]) AfterVariableChanged(domain.VariableDescriptor, any) {
	s.dirty = true
}

func (s *scratchSession[Sol, S]) Flush() error {
	if !s.dirty {
		return nil
	}
	s.retract()
	retractions, err := s.evaluate(s.solution, s.holder)
	s.retractions = retractions
	if err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *scratchSession[Sol, S]) retract() {
	for _, r := range s.retractions {
		r()
	}
	s.retractions = nil
}

func (s *scratchSession[Sol, S]) Close() {
	s.retract()
}
