package holder

import (
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

// HardSoftHolder accumulates a score.HardSoftScore. It only accepts int multipliers.
type HardSoftHolder struct {
	base[score.HardSoftScore]
	hard, soft int
	executors  map[constraint.Ref]intExecutor
	byScore    map[constraint.Ref]func(m Match, multiplier score.HardSoftScore) Retraction
}

// NewHardSoftHolder creates an empty holder for score.HardSoftScore.
func NewHardSoftHolder(constraintMatchEnabled bool) *HardSoftHolder {
	return &HardSoftHolder{
		base:      newBase(score.HardSoftScore{}, "hardSoft", constraintMatchEnabled),
		executors: make(map[constraint.Ref]intExecutor),
		byScore:   make(map[constraint.Ref]func(Match, score.HardSoftScore) Retraction),
	}
}

// ConfigureConstraintWeight picks the cheapest executor for weight: zero
// weights do nothing and single-level weights touch one total.
func (h *HardSoftHolder) ConfigureConstraintWeight(ref constraint.Ref, weight score.HardSoftScore) {
	h.configure(ref, weight)
	hw, sw := weight.HardScore(), weight.SoftScore()
	switch {
	case weight.IsZero():
		h.executors[ref] = func(Match, int) Retraction { return noRetraction }
		h.byScore[ref] = func(Match, score.HardSoftScore) Retraction { return noRetraction }
		return
	case sw == 0:
		h.executors[ref] = func(m Match, w int) Retraction { return h.AddHardConstraintMatch(m, hw*w) }
	case hw == 0:
		h.executors[ref] = func(m Match, w int) Retraction { return h.AddSoftConstraintMatch(m, sw*w) }
	default:
		h.executors[ref] = func(m Match, w int) Retraction { return h.AddMultiConstraintMatch(m, hw*w, sw*w) }
	}
	h.byScore[ref] = func(m Match, mul score.HardSoftScore) Retraction {
		return h.AddMultiConstraintMatch(m, hw*mul.HardScore(), sw*mul.SoftScore())
	}
}

func (h *HardSoftHolder) Penalize(m Match) (Retraction, error) { return h.ImpactScore(m, -1) }
func (h *HardSoftHolder) Reward(m Match) (Retraction, error)   { return h.ImpactScore(m, 1) }

// ImpactScore scales every level of the constraint weight by weightMultiplier.
func (h *HardSoftHolder) ImpactScore(m Match, weightMultiplier int) (Retraction, error) {
	exec, ok := h.executors[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, weightMultiplier), nil
}

// ImpactScoreBy multiplies each level of the constraint weight by the
// matching level of multiplier.
func (h *HardSoftHolder) ImpactScoreBy(m Match, multiplier score.HardSoftScore) (Retraction, error) {
	exec, ok := h.byScore[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, multiplier), nil
}

func (h *HardSoftHolder) ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "int64", weightMultiplier)
}

func (h *HardSoftHolder) ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "decimal", weightMultiplier)
}

// AddHardConstraintMatch adds hardWeight to the hard total.
func (h *HardSoftHolder) AddHardConstraintMatch(m Match, hardWeight int) Retraction {
	h.hard += hardWeight
	return h.register(m, func() { h.hard -= hardWeight }, func() score.HardSoftScore {
		return score.OfHard(hardWeight)
	})
}

// AddSoftConstraintMatch adds softWeight to the soft total.
func (h *HardSoftHolder) AddSoftConstraintMatch(m Match, softWeight int) Retraction {
	h.soft += softWeight
	return h.register(m, func() { h.soft -= softWeight }, func() score.HardSoftScore {
		return score.OfSoft(softWeight)
	})
}

// AddMultiConstraintMatch adds to both totals as one match with one retraction.
func (h *HardSoftHolder) AddMultiConstraintMatch(m Match, hardWeight, softWeight int) Retraction {
	h.hard += hardWeight
	h.soft += softWeight
	return h.register(m, func() {
		h.hard -= hardWeight
		h.soft -= softWeight
	}, func() score.HardSoftScore {
		return score.OfHardSoft(hardWeight, softWeight)
	})
}

// HardScore and SoftScore return the running totals.
func (h *HardSoftHolder) HardScore() int { return h.hard }
func (h *HardSoftHolder) SoftScore() int { return h.soft }

func (h *HardSoftHolder) ExtractScore(initScore int) score.HardSoftScore {
	return score.OfUninitializedHardSoft(initScore, h.hard, h.soft)
}
