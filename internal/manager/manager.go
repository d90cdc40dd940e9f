// Package manager answers one-off score questions about a solution without
// the caller managing a director.
package manager

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
)

// ScoreSetter is implemented by solutions that store their own score.
type ScoreSetter[S any] interface {
	SetScore(s S)
}

// Director is the subset of *director.Director the manager uses.
type Director[Sol any, S score.Score[S]] interface {
	SetWorkingSolution(solution Sol) error
	CalculateScore() (S, error)
	IsConstraintMatchEnabled() bool
	ConstraintMatchTotals() (map[string]*constraint.MatchTotal[S], error)
	Indictments() (map[any]*constraint.Indictment[S], error)
	Close()
}

// Manager builds a short-lived director per call and always closes it.
// It is safe for concurrent use because it shares only the factory.
type Manager[Sol any, S score.Score[S]] struct {
	build func(lookUpEnabled, constraintMatchEnabled bool) Director[Sol, S]
}

func New[Sol any, S score.Score[S]](factory *director.Factory[Sol, S]) *Manager[Sol, S] {
	return &Manager[Sol, S]{
		build: func(lookUpEnabled, constraintMatchEnabled bool) Director[Sol, S] {
			return factory.BuildDirector(lookUpEnabled, constraintMatchEnabled)
		},
	}
}

// UpdateScore calculates the score of solution without match tracking and
// stores it on the solution when it implements ScoreSetter.
func (m *Manager[Sol, S]) UpdateScore(solution Sol) (S, error) {
	var zero S
	d := m.build(false, false)
	defer d.Close()

	if err := d.SetWorkingSolution(solution); err != nil {
		return zero, fmt.Errorf("update score: %w", err)
	}
	s, err := d.CalculateScore()
	if err != nil {
		return zero, fmt.Errorf("update score: %w", err)
	}
	if setter, ok := any(solution).(ScoreSetter[S]); ok {
		setter.SetScore(s)
	}
	return s, nil
}

// Summary returns the text form of ExplainScore.
func (m *Manager[Sol, S]) Summary(solution Sol) (string, error) {
	explanation, err := m.ExplainScore(solution)
	if err != nil {
		return "", err
	}
	return explanation.Summary(), nil
}

// ExplainScore calculates the score with match tracking and returns the
// constraint match totals and indictments behind it.
func (m *Manager[Sol, S]) ExplainScore(solution Sol) (*Explanation[Sol, S], error) {
	d := m.build(false, true)
	defer d.Close()

	// the director must hold a solution before it can report its capabilities
	if err := d.SetWorkingSolution(solution); err != nil {
		return nil, fmt.Errorf("explain score: %w", err)
	}
	if !d.IsConstraintMatchEnabled() {
		return nil, &score.StateError{
			Capability: "constraintMatchEnabled",
			Reason:     "the score director does not track constraint matches (constraintMatchEnabled is false), so the score cannot be explained",
		}
	}
	s, err := d.CalculateScore()
	if err != nil {
		return nil, fmt.Errorf("explain score: %w", err)
	}
	totals, err := d.ConstraintMatchTotals()
	if err != nil {
		return nil, fmt.Errorf("explain score: %w", err)
	}
	indictments, err := d.Indictments()
	if err != nil {
		return nil, fmt.Errorf("explain score: %w", err)
	}
	return &Explanation[Sol, S]{
		Solution:              solution,
		Score:                 s,
		ConstraintMatchTotals: totals,
		Indictments:           indictments,
	}, nil
}
