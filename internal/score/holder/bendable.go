package holder

import (
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

// BendableHolder accumulates a score.BendableScore with a fixed number of
// hard and soft levels. It only accepts int multipliers.
type BendableHolder struct {
	base[score.BendableScore]
	hard, soft []int
	executors  map[constraint.Ref]intExecutor
	byScore    map[constraint.Ref]func(m Match, multiplier score.BendableScore) Retraction
}

// NewBendableHolder creates an empty holder with the given number of hard
// and soft levels.
func NewBendableHolder(hardLevels, softLevels int, constraintMatchEnabled bool) *BendableHolder {
	return &BendableHolder{
		base:      newBase(score.ZeroBendable(hardLevels, softLevels), "bendable", constraintMatchEnabled),
		hard:      make([]int, hardLevels),
		soft:      make([]int, softLevels),
		executors: make(map[constraint.Ref]intExecutor),
		byScore:   make(map[constraint.Ref]func(Match, score.BendableScore) Retraction),
	}
}

// ConfigureConstraintWeight panics when weight has a different level count.
func (h *BendableHolder) ConfigureConstraintWeight(ref constraint.Ref, weight score.BendableScore) {
	if weight.HardLevelsSize() != len(h.hard) || weight.SoftLevelsSize() != len(h.soft) {
		panic("constraint (" + ref.ID() + ") weight " + weight.String() + " does not match the holder's levels")
	}
	h.configure(ref, weight)
	hardWeights, softWeights := weight.HardScores(), weight.SoftScores()
	if weight.IsZero() {
		h.executors[ref] = func(Match, int) Retraction { return noRetraction }
		h.byScore[ref] = func(Match, score.BendableScore) Retraction { return noRetraction }
		return
	}

	hardLevel, softLevel, nonZero := -1, -1, 0
	for i, w := range hardWeights {
		if w != 0 {
			hardLevel = i
			nonZero++
		}
	}
	for i, w := range softWeights {
		if w != 0 {
			softLevel = i
			nonZero++
		}
	}
	switch {
	case nonZero == 1 && hardLevel >= 0:
		lw := hardWeights[hardLevel]
		h.executors[ref] = func(m Match, w int) Retraction { return h.AddHardConstraintMatch(m, hardLevel, lw*w) }
	case nonZero == 1:
		lw := softWeights[softLevel]
		h.executors[ref] = func(m Match, w int) Retraction { return h.AddSoftConstraintMatch(m, softLevel, lw*w) }
	default:
		h.executors[ref] = func(m Match, w int) Retraction {
			return h.AddMultiConstraintMatch(m, scaled(hardWeights, w), scaled(softWeights, w))
		}
	}
	h.byScore[ref] = func(m Match, mul score.BendableScore) Retraction {
		hard := make([]int, len(hardWeights))
		for i := range hard {
			hard[i] = hardWeights[i] * mul.HardScore(i)
		}
		soft := make([]int, len(softWeights))
		for i := range soft {
			soft[i] = softWeights[i] * mul.SoftScore(i)
		}
		return h.AddMultiConstraintMatch(m, hard, soft)
	}
}

func scaled(weights []int, multiplier int) []int {
	out := make([]int, len(weights))
	for i, w := range weights {
		out[i] = w * multiplier
	}
	return out
}

func (h *BendableHolder) Penalize(m Match) (Retraction, error) { return h.ImpactScore(m, -1) }
func (h *BendableHolder) Reward(m Match) (Retraction, error)   { return h.ImpactScore(m, 1) }

func (h *BendableHolder) ImpactScore(m Match, weightMultiplier int) (Retraction, error) {
	exec, ok := h.executors[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, weightMultiplier), nil
}

// ImpactScoreBy multiplies each level of the constraint weight by the
// matching level of multiplier, which must have the holder's shape.
func (h *BendableHolder) ImpactScoreBy(m Match, multiplier score.BendableScore) (Retraction, error) {
	exec, ok := h.byScore[m.Constraint]
	if !ok {
		return nil, missingWeight(m.Constraint)
	}
	return exec(m, multiplier), nil
}

func (h *BendableHolder) ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "int64", weightMultiplier)
}

func (h *BendableHolder) ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error) {
	return nil, h.unsupportedMultiplier(m.Constraint, "decimal", weightMultiplier)
}

// AddHardConstraintMatch adds weight to one hard level.
func (h *BendableHolder) AddHardConstraintMatch(m Match, level, weight int) Retraction {
	h.hard[level] += weight
	return h.register(m, func() { h.hard[level] -= weight }, func() score.BendableScore {
		hard := make([]int, len(h.hard))
		hard[level] = weight
		return score.OfBendable(hard, make([]int, len(h.soft)))
	})
}

// AddSoftConstraintMatch adds weight to one soft level.
func (h *BendableHolder) AddSoftConstraintMatch(m Match, level, weight int) Retraction {
	h.soft[level] += weight
	return h.register(m, func() { h.soft[level] -= weight }, func() score.BendableScore {
		soft := make([]int, len(h.soft))
		soft[level] = weight
		return score.OfBendable(make([]int, len(h.hard)), soft)
	})
}

// AddMultiConstraintMatch adds one weight per level. The slices are retained
// by the retraction and must not be modified afterwards.
func (h *BendableHolder) AddMultiConstraintMatch(m Match, hardWeights, softWeights []int) Retraction {
	for i, w := range hardWeights {
		h.hard[i] += w
	}
	for i, w := range softWeights {
		h.soft[i] += w
	}
	return h.register(m, func() {
		for i, w := range hardWeights {
			h.hard[i] -= w
		}
		for i, w := range softWeights {
			h.soft[i] -= w
		}
	}, func() score.BendableScore {
		return score.OfBendable(hardWeights, softWeights)
	})
}

// HardScore returns the running total of one hard level.
func (h *BendableHolder) HardScore(level int) int { return h.hard[level] }
func (h *BendableHolder) SoftScore(level int) int { return h.soft[level] }

func (h *BendableHolder) ExtractScore(initScore int) score.BendableScore {
	return score.OfUninitializedBendable(initScore, h.hard, h.soft)
}
