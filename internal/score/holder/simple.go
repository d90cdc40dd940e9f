package holder

import (
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

type intExecutor func(m Match, matchWeight int) Retraction

// SimpleHolder accumulates a score.SimpleScore. It only accepts int multipliers.
type SimpleHolder struct {
	base[score.SimpleScore]
	score     int
	executors map[constraint.Ref]intExecutor
}

// NewSimpleHolder creates an empty holder for score.SimpleScore.
func NewSimpleHolder(constraintMatchEnabled bool) *SimpleHolder {
	return &SimpleHolder{
		base:      newBase(score.SimpleScore{}, "simple", constraintMatchEnabled),
		executors: make(map[constraint.Ref]intExecutor),
	}
}

// ConfigureConstraintWeight compiles weight into the executor impacts of ref use.
// Configuring the same constraint twice panics.
func (h *SimpleHolder) ConfigureConstraintWeight(ref constraint.Ref, weight score.SimpleScore) {
	h.configure(ref, weight)
	if weight.IsZero() {
		h.executors[ref] = func(Match, int) Retraction { return noRetraction }
		return
	}
	w := weight.Score()
	h.executors[ref] = func(m Match, matchWeight int) Retraction {
		return h.AddConstraintMatch(m, w*matchWeight)
	}
}

// Penalize impacts the constraint with a multiplier of -1.
func (h *SimpleHolder) Penalize(m Match) (Retraction, error) { return h.ImpactScore(m, -1) }
// Reward impacts the constraint with a multiplier of 1.
func (h *SimpleHolder) Reward(m Match) (Retraction, error)   { return h.ImpactScore(m, 1) }

// ImpactScore adds weight times weightMultiplier to the score.
func (h *SimpleHolder) ImpactScore(m Match, weightMultiplier int) (Retraction, error) {
	exec, ok := h.executors[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, weightMultiplier), nil
}

func (h *SimpleHolder) ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "int64", weightMultiplier)
}

func (h *SimpleHolder) ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "decimal", weightMultiplier)
}

// AddConstraintMatch adds an already weighted impact.
func (h *SimpleHolder) AddConstraintMatch(m Match, weight int) Retraction {
	h.score += weight
	return h.register(m, func() { h.score -= weight }, func() score.SimpleScore {
		return score.OfSimple(weight)
	})
}

// Score returns the running total.
func (h *SimpleHolder) Score() int { return h.score }

// ExtractScore returns the running total with initScore.
func (h *SimpleHolder) ExtractScore(initScore int) score.SimpleScore {
	return score.OfUninitializedSimple(initScore, h.score)
}
