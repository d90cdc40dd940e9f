package holder

import (
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

type decimalExecutor func(m Match, matchWeight decimal.Decimal) Retraction

// HardSoftDecimalHolder accumulates a score.HardSoftDecimalScore.
// It accepts every multiplier kind.
type HardSoftDecimalHolder struct {
	base[score.HardSoftDecimalScore]
	hard, soft decimal.Decimal
	executors  map[constraint.Ref]decimalExecutor
}

// NewHardSoftDecimalHolder creates an empty holder for score.HardSoftDecimalScore.
// It accepts every multiplier kind.
func NewHardSoftDecimalHolder(constraintMatchEnabled bool) *HardSoftDecimalHolder {
	return &HardSoftDecimalHolder{
		base:      newBase(score.HardSoftDecimalDefinition{}.Zero(), "hardSoftDecimal", constraintMatchEnabled),
		hard:      decimal.Zero,
		soft:      decimal.Zero,
		executors: make(map[constraint.Ref]decimalExecutor),
	}
}

func (h *HardSoftDecimalHolder) ConfigureConstraintWeight(ref constraint.Ref, weight score.HardSoftDecimalScore) {
	h.configure(ref, weight)
	hw, sw := weight.HardScore(), weight.SoftScore()
	switch {
	case weight.IsZero():
		h.executors[ref] = func(Match, decimal.Decimal) Retraction { return noRetraction }
	case sw.IsZero():
		h.executors[ref] = func(m Match, w decimal.Decimal) Retraction {
			return h.AddHardConstraintMatch(m, hw.Mul(w))
		}
	case hw.IsZero():
		h.executors[ref] = func(m Match, w decimal.Decimal) Retraction {
			return h.AddSoftConstraintMatch(m, sw.Mul(w))
		}
	default:
		h.executors[ref] = func(m Match, w decimal.Decimal) Retraction {
			return h.AddMultiConstraintMatch(m, hw.Mul(w), sw.Mul(w))
		}
	}
}

func (h *HardSoftDecimalHolder) Penalize(m Match) (Retraction, error) { return h.ImpactScore(m, -1) }
func (h *HardSoftDecimalHolder) Reward(m Match) (Retraction, error)   { return h.ImpactScore(m, 1) }

func (h *HardSoftDecimalHolder) ImpactScore(m Match, weightMultiplier int) (Retraction, error) {
	return h.ImpactScoreDecimal(m, decimal.NewFromInt(int64(weightMultiplier)))
}

func (h *HardSoftDecimalHolder) ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error) {
	return h.ImpactScoreDecimal(m, decimal.NewFromInt(weightMultiplier))
}

func (h *HardSoftDecimalHolder) ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error) {
	exec, ok := h.executors[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, weightMultiplier), nil
}

func (h *HardSoftDecimalHolder) AddHardConstraintMatch(m Match, hardWeight decimal.Decimal) Retraction {
	h.hard = h.hard.Add(hardWeight)
	return h.register(m, func() { h.hard = h.hard.Sub(hardWeight) }, func() score.HardSoftDecimalScore {
		return score.OfHardSoftDecimal(hardWeight, decimal.Zero)
	})
}

func (h *HardSoftDecimalHolder) AddSoftConstraintMatch(m Match, softWeight decimal.Decimal) Retraction {
	h.soft = h.soft.Add(softWeight)
	return h.register(m, func() { h.soft = h.soft.Sub(softWeight) }, func() score.HardSoftDecimalScore {
		return score.OfHardSoftDecimal(decimal.Zero, softWeight)
	})
}

// AddMultiConstraintMatch adds to both totals as one match.
func (h *HardSoftDecimalHolder) AddMultiConstraintMatch(m Match, hardWeight, softWeight decimal.Decimal) Retraction {
	h.hard = h.hard.Add(hardWeight)
	h.soft = h.soft.Add(softWeight)
	return h.register(m, func() {
		h.hard = h.hard.Sub(hardWeight)
		h.soft = h.soft.Sub(softWeight)
	}, func() score.HardSoftDecimalScore {
		return score.OfHardSoftDecimal(hardWeight, softWeight)
	})
}

func (h *HardSoftDecimalHolder) HardScore() decimal.Decimal { return h.hard }
func (h *HardSoftDecimalHolder) SoftScore() decimal.Decimal { return h.soft }

func (h *HardSoftDecimalHolder) ExtractScore(initScore int) score.HardSoftDecimalScore {
	return score.OfUninitializedHardSoftDecimal(initScore, h.hard, h.soft)
}
