package holder

import (
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

type longExecutor func(m Match, matchWeight int64) Retraction

// HardSoftLongHolder accumulates a score.HardSoftLongScore.
// Int multipliers are widened to int64.
type HardSoftLongHolder struct {
	base[score.HardSoftLongScore]
	hard, soft int64
	executors  map[constraint.Ref]longExecutor
}

// NewHardSoftLongHolder creates an empty holder for score.HardSoftLongScore.
func NewHardSoftLongHolder(constraintMatchEnabled bool) *HardSoftLongHolder {
	return &HardSoftLongHolder{
		base:      newBase(score.HardSoftLongScore{}, "hardSoftLong", constraintMatchEnabled),
		executors: make(map[constraint.Ref]longExecutor),
	}
}

func (h *HardSoftLongHolder) ConfigureConstraintWeight(ref constraint.Ref, weight score.HardSoftLongScore) {
	h.configure(ref, weight)
	hw, sw := weight.HardScore(), weight.SoftScore()
	switch {
	case weight.IsZero():
		h.executors[ref] = func(Match, int64) Retraction { return noRetraction }
	case sw == 0:
		h.executors[ref] = func(m Match, w int64) Retraction { return h.AddHardConstraintMatch(m, hw*w) }
	case hw == 0:
		h.executors[ref] = func(m Match, w int64) Retraction { return h.AddSoftConstraintMatch(m, sw*w) }
	default:
		h.executors[ref] = func(m Match, w int64) Retraction { return h.AddMultiConstraintMatch(m, hw*w, sw*w) }
	}
}

func (h *HardSoftLongHolder) Penalize(m Match) (Retraction, error) { return h.ImpactScoreLong(m, -1) }
func (h *HardSoftLongHolder) Reward(m Match) (Retraction, error)   { return h.ImpactScoreLong(m, 1) }

// ImpactScore widens weightMultiplier to int64.
func (h *HardSoftLongHolder) ImpactScore(m Match, weightMultiplier int) (Retraction, error) {
	return h.ImpactScoreLong(m, int64(weightMultiplier))
}

func (h *HardSoftLongHolder) ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error) {
	exec, ok := h.executors[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, weightMultiplier), nil
}

func (h *HardSoftLongHolder) ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "decimal", weightMultiplier)
}

func (h *HardSoftLongHolder) AddHardConstraintMatch(m Match, hardWeight int64) Retraction {
	h.hard += hardWeight
	return h.register(m, func() { h.hard -= hardWeight }, func() score.HardSoftLongScore {
		return score.OfHardSoftLong(hardWeight, 0)
	})
}

func (h *HardSoftLongHolder) AddSoftConstraintMatch(m Match, softWeight int64) Retraction {
	h.soft += softWeight
	return h.register(m, func() { h.soft -= softWeight }, func() score.HardSoftLongScore {
		return score.OfHardSoftLong(0, softWeight)
	})
}

// AddMultiConstraintMatch adds to both totals as one match.
func (h *HardSoftLongHolder) AddMultiConstraintMatch(m Match, hardWeight, softWeight int64) Retraction {
	h.hard += hardWeight
	h.soft += softWeight
	return h.register(m, func() {
		h.hard -= hardWeight
		h.soft -= softWeight
	}, func() score.HardSoftLongScore {
		return score.OfHardSoftLong(hardWeight, softWeight)
	})
}

func (h *HardSoftLongHolder) HardScore() int64 { return h.hard }
func (h *HardSoftLongHolder) SoftScore() int64 { return h.soft }

func (h *HardSoftLongHolder) ExtractScore(initScore int) score.HardSoftLongScore {
	return score.OfUninitializedHardSoftLong(initScore, h.hard, h.soft)
}
