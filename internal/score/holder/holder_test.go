package holder

import (
	"errors"
	"testing"

	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hardRef  = constraint.NewRef("test", "hard only")
	softRef  = constraint.NewRef("test", "soft only")
	multiRef = constraint.NewRef("test", "multi")
	zeroRef  = constraint.NewRef("test", "disabled")
)

type task struct{ id int }

func TestHardSoftHolder_MultiMatchRetract(t *testing.T) {
	for _, tracking := range []bool{false, true} {
		h := NewHardSoftHolder(tracking)
		assert.Equal(t, 0, h.HardScore())
		assert.Equal(t, 0, h.SoftScore())

		retract := h.AddMultiConstraintMatch(NewMatch(multiRef), -2, -3)
		assert.Equal(t, -2, h.HardScore())
		assert.Equal(t, -3, h.SoftScore())
		if tracking {
			totals, err := h.ConstraintMatchTotals()
			require.NoError(t, err)
			require.Contains(t, totals, multiRef.ID())
			assert.Equal(t, score.OfHardSoft(-2, -3), totals[multiRef.ID()].Score())
			assert.Equal(t, 1, totals[multiRef.ID()].MatchCount())
		}

		retract()
		assert.Equal(t, 0, h.HardScore())
		assert.Equal(t, 0, h.SoftScore())
		if tracking {
			totals, err := h.ConstraintMatchTotals()
			require.NoError(t, err)
			assert.Equal(t, 0, totals[multiRef.ID()].MatchCount())
		}
	}
}

func TestHolder_TotalsOutliveRetraction(t *testing.T) {
	h := NewHardSoftHolder(true)
	h.ConfigureConstraintWeight(hardRef, score.OfHard(3))
	a := &task{1}
	retract, err := h.Penalize(NewMatch(hardRef, a))
	require.NoError(t, err)

	totals, err := h.ConstraintMatchTotals()
	require.NoError(t, err)
	indictments, err := h.Indictments()
	require.NoError(t, err)
	retract()

	assert.Equal(t, score.OfHard(-3), totals[hardRef.ID()].Score())
	assert.Equal(t, 1, totals[hardRef.ID()].MatchCount())
	require.Contains(t, indictments, any(a))
	assert.Equal(t, 1, indictments[a].MatchCount())

	totals, err = h.ConstraintMatchTotals()
	require.NoError(t, err)
	assert.Equal(t, 0, totals[hardRef.ID()].MatchCount())
}

func TestHardSoftHolder_Dispatch(t *testing.T) {
	h := NewHardSoftHolder(false)
	h.ConfigureConstraintWeight(hardRef, score.OfHard(1))
	h.ConfigureConstraintWeight(softRef, score.OfSoft(3))
	h.ConfigureConstraintWeight(multiRef, score.OfHardSoft(2, 5))
	h.ConfigureConstraintWeight(zeroRef, score.OfHardSoft(0, 0))

	_, err := h.Penalize(NewMatch(hardRef))
	require.NoError(t, err)
	_, err = h.ImpactScore(NewMatch(softRef), -2)
	require.NoError(t, err)
	_, err = h.Reward(NewMatch(multiRef))
	require.NoError(t, err)
	assert.Equal(t, score.OfHardSoft(1, -1), h.ExtractScore(0))

	_, err = h.ImpactScoreBy(NewMatch(multiRef), score.OfHardSoft(-1, 2))
	require.NoError(t, err)
	assert.Equal(t, score.OfHardSoft(-1, 9), h.ExtractScore(0))
}

func TestHolder_ZeroWeightIsNoOp(t *testing.T) {
	h := NewHardSoftHolder(true)
	h.ConfigureConstraintWeight(zeroRef, score.OfHardSoft(0, 0))
	before := h.ExtractScore(0)

	retract, err := h.ImpactScore(NewMatch(zeroRef, &task{1}), 7)
	require.NoError(t, err)
	assert.Equal(t, before, h.ExtractScore(0))

	totals, err := h.ConstraintMatchTotals()
	require.NoError(t, err)
	assert.Equal(t, 0, totals[zeroRef.ID()].MatchCount())

	retract()
	assert.Equal(t, before, h.ExtractScore(0))
}

func TestHolder_RetractionOrderIndependence(t *testing.T) {
	orders := map[string][]int{
		"forward":  {0, 1, 2, 3},
		"backward": {3, 2, 1, 0},
		"mixed":    {2, 0, 3, 1},
	}
	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			h := NewHardSoftHolder(true)
			h.ConfigureConstraintWeight(hardRef, score.OfHard(1))
			h.ConfigureConstraintWeight(multiRef, score.OfHardSoft(1, 1))
			a, b := &task{1}, &task{2}

			var retractions []Retraction
			for _, imp := range []struct {
				m Match
				w int
			}{
				{NewMatch(hardRef, a), -1},
				{NewMatch(multiRef, a, b), -4},
				{NewMatch(hardRef, b), -2},
				{NewMatch(multiRef, b), 3},
			} {
				r, err := h.ImpactScore(imp.m, imp.w)
				require.NoError(t, err)
				retractions = append(retractions, r)
			}
			assert.Equal(t, score.OfHardSoft(-4, -1), h.ExtractScore(0))

			for _, i := range order {
				retractions[i]()
			}
			assert.Equal(t, score.OfHardSoft(0, 0), h.ExtractScore(0))

			indictments, err := h.Indictments()
			require.NoError(t, err)
			assert.Empty(t, indictments)
			totals, err := h.ConstraintMatchTotals()
			require.NoError(t, err)
			for _, total := range totals {
				assert.Equal(t, 0, total.MatchCount())
				assert.True(t, total.Score().IsZero())
			}
		})
	}
}

func TestHolder_MatchTracking(t *testing.T) {
	h := NewHardSoftHolder(true)
	h.ConfigureConstraintWeight(hardRef, score.OfHard(2))
	h.ConfigureConstraintWeight(softRef, score.OfSoft(1))
	a, b := &task{1}, &task{2}

	_, err := h.Penalize(NewMatch(hardRef, a, b))
	require.NoError(t, err)
	_, err = h.ImpactScore(NewMatch(softRef, a, a), -5)
	require.NoError(t, err)

	totals, err := h.ConstraintMatchTotals()
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, score.OfHard(-2), totals[hardRef.ID()].Score())
	assert.Equal(t, score.OfSoft(-5), totals[softRef.ID()].Score())
	assert.Equal(t, score.OfHard(2), totals[hardRef.ID()].ConstraintWeight())

	indictments, err := h.Indictments()
	require.NoError(t, err)
	require.Len(t, indictments, 2)
	assert.Equal(t, score.OfHardSoft(-2, -5), indictments[a].Score())
	assert.Equal(t, 2, indictments[a].MatchCount())
	assert.Equal(t, score.OfHard(-2), indictments[b].Score())
}

func TestHolder_TrackingDisabled(t *testing.T) {
	h := NewHardSoftHolder(false)
	assert.False(t, h.IsConstraintMatchEnabled())

	_, err := h.ConstraintMatchTotals()
	assert.True(t, errors.Is(err, score.ErrState))
	assert.Contains(t, err.Error(), "constraintMatchEnabled")

	_, err = h.Indictments()
	assert.True(t, errors.Is(err, score.ErrState))
}

func TestHolder_UnconfiguredConstraint(t *testing.T) {
	h := NewHardSoftHolder(false)
	_, err := h.Penalize(NewMatch(hardRef))
	require.Error(t, err)
	assert.True(t, errors.Is(err, score.ErrConfiguration))
	assert.Contains(t, err.Error(), hardRef.ID())
	assert.Equal(t, score.OfHardSoft(0, 0), h.ExtractScore(0))
}

func TestHolder_UnconfiguredConstraintWithWideMultiplier(t *testing.T) {
	dec := decimal.RequireFromString("0.5")
	holders := map[string]interface {
		ImpactScoreLong(Match, int64) (Retraction, error)
		ImpactScoreDecimal(Match, decimal.Decimal) (Retraction, error)
	}{
		"simple":   NewSimpleHolder(false),
		"hardSoft": NewHardSoftHolder(false),
		"bendable": NewBendableHolder(1, 1, false),
		"long":     NewHardSoftLongHolder(false),
	}
	for name, h := range holders {
		t.Run(name, func(t *testing.T) {
			_, err := h.ImpactScoreDecimal(NewMatch(softRef), dec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, score.ErrConfiguration))
			assert.Contains(t, err.Error(), softRef.ID())
			assert.Contains(t, err.Error(), "does not match a configured constraint weight")
			_, err = h.ImpactScoreLong(NewMatch(softRef), 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "does not match a configured constraint weight")
		})
	}
}

func TestHolder_ConfigureTwicePanics(t *testing.T) {
	h := NewSimpleHolder(false)
	h.ConfigureConstraintWeight(hardRef, score.OfSimple(1))
	assert.Panics(t, func() { h.ConfigureConstraintWeight(hardRef, score.OfSimple(2)) })
}

func TestHolder_NumericKinds(t *testing.T) {
	m := NewMatch(hardRef)
	dec := decimal.RequireFromString("1.5")

	t.Run("int holders reject wider multipliers", func(t *testing.T) {
		h := NewHardSoftHolder(false)
		h.ConfigureConstraintWeight(hardRef, score.OfHard(1))
		_, err := h.ImpactScoreLong(m, 2)
		assert.True(t, errors.Is(err, score.ErrConfiguration))
		assert.Contains(t, err.Error(), "hardSoft")
		_, err = h.ImpactScoreDecimal(m, dec)
		assert.True(t, errors.Is(err, score.ErrConfiguration))
	})

	t.Run("long holder widens int", func(t *testing.T) {
		h := NewHardSoftLongHolder(false)
		h.ConfigureConstraintWeight(hardRef, score.OfHardSoftLong(3_000_000_000, 0))
		_, err := h.ImpactScore(m, -1)
		require.NoError(t, err)
		_, err = h.ImpactScoreLong(m, -2)
		require.NoError(t, err)
		assert.Equal(t, int64(-9_000_000_000), h.HardScore())
		_, err = h.ImpactScoreDecimal(m, dec)
		assert.True(t, errors.Is(err, score.ErrConfiguration))
	})

	t.Run("decimal holder accepts everything", func(t *testing.T) {
		h := NewHardSoftDecimalHolder(false)
		h.ConfigureConstraintWeight(hardRef, score.OfHardSoftDecimal(decimal.NewFromInt(2), decimal.Zero))
		_, err := h.ImpactScore(m, 1)
		require.NoError(t, err)
		_, err = h.ImpactScoreLong(m, 1)
		require.NoError(t, err)
		r, err := h.ImpactScoreDecimal(m, dec)
		require.NoError(t, err)
		assert.True(t, h.HardScore().Equal(decimal.NewFromInt(7)))
		r()
		assert.True(t, h.HardScore().Equal(decimal.NewFromInt(4)))
	})
}

func TestBendableHolder(t *testing.T) {
	h := NewBendableHolder(1, 2, true)
	single := constraint.NewRef("test", "soft level 1")
	h.ConfigureConstraintWeight(single, score.OfBendable([]int{0}, []int{0, 3}))
	h.ConfigureConstraintWeight(multiRef, score.OfBendable([]int{1}, []int{2, 0}))

	r1, err := h.Penalize(NewMatch(single, &task{1}))
	require.NoError(t, err)
	r2, err := h.ImpactScore(NewMatch(multiRef, &task{1}), -2)
	require.NoError(t, err)
	assert.Equal(t, "[-2]hard/[-4/-3]soft", h.ExtractScore(0).String())

	_, err = h.ImpactScoreBy(NewMatch(multiRef), score.OfBendable([]int{5}, []int{1, 9}))
	require.NoError(t, err)
	assert.Equal(t, 3, h.HardScore(0))

	r2()
	r1()
	assert.Equal(t, "[5]hard/[2/0]soft", h.ExtractScore(0).String())

	assert.Panics(t, func() {
		h.ConfigureConstraintWeight(constraint.NewRef("test", "bad"), score.OfBendable([]int{1}, []int{1}))
	})
}

func TestNew(t *testing.T) {
	h, err := New[score.BendableScore](score.BendableDefinition{HardLevels: 1, SoftLevels: 4}, true)
	require.NoError(t, err)
	assert.True(t, h.IsConstraintMatchEnabled())
	assert.Equal(t, "-1init/[0]hard/[0/0/0/0]soft", h.ExtractScore(-1).String())

	s, err := New[score.SimpleScore](score.SimpleDefinition{}, false)
	require.NoError(t, err)
	assert.IsType(t, &SimpleHolder{}, s)
}
