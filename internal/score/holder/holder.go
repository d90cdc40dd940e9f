// Package holder accumulates constraint matches into a running score.
//
// A holder is configured once with a weight per constraint. Each weight is
// turned into an executor at configuration time, so impacting a constraint is
// a map lookup plus a closure call: zero weights do nothing, single-level
// weights touch one running total and the rest touch several.
//
// Every impact returns a Retraction that subtracts exactly what the impact
// added. Retractions may run in any order. With constraint match tracking
// enabled, the holder also keeps a ConstraintMatchTotal per constraint and an
// Indictment per justification so that a score can be explained.
//
// A holder belongs to one director and is not safe for concurrent use.
package holder

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/shopspring/decimal"
)

// Match identifies one firing of a constraint. Justifications must be
// comparable (usually entity pointers): they key the indictment map.
type Match struct {
	Constraint     constraint.Ref
	Justifications []any
}

// NewMatch builds a Match for the given constraint and justifications.
func NewMatch(ref constraint.Ref, justifications ...any) Match {
	return Match{Constraint: ref, Justifications: justifications}
}

// Retraction undoes exactly one impact. Call it at most once.
type Retraction func()

func noRetraction() {}

// Holder is the score accumulator surface shared by every score shape.
type Holder[S score.Score[S]] interface {
	// ConfigureConstraintWeight must be called once per constraint before it is impacted.
	ConfigureConstraintWeight(ref constraint.Ref, weight S)

	Penalize(m Match) (Retraction, error)
	Reward(m Match) (Retraction, error)
	ImpactScore(m Match, weightMultiplier int) (Retraction, error)
	ImpactScoreLong(m Match, weightMultiplier int64) (Retraction, error)
	ImpactScoreDecimal(m Match, weightMultiplier decimal.Decimal) (Retraction, error)

	// ExtractScore combines the running totals with the init score.
	ExtractScore(initScore int) S

	IsConstraintMatchEnabled() bool
	ConstraintMatchTotals() (map[string]*constraint.MatchTotal[S], error)
	Indictments() (map[any]*constraint.Indictment[S], error)
}

// New creates the holder matching a score definition.
func New[S score.Score[S]](def score.Definition[S], constraintMatchEnabled bool) (Holder[S], error) {
	var h any
	switch d := any(def).(type) {
	case score.SimpleDefinition:
		h = NewSimpleHolder(constraintMatchEnabled)
	case score.HardSoftDefinition:
		h = NewHardSoftHolder(constraintMatchEnabled)
	case score.HardSoftLongDefinition:
		h = NewHardSoftLongHolder(constraintMatchEnabled)
	case score.HardSoftDecimalDefinition:
		h = NewHardSoftDecimalHolder(constraintMatchEnabled)
	case score.BendableDefinition:
		h = NewBendableHolder(d.HardLevels, d.SoftLevels, constraintMatchEnabled)
	default:
		return nil, fmt.Errorf("no score holder for score definition %q", def.Label())
	}
	return h.(Holder[S]), nil
}

// base holds the match tracking shared by all holders.
type base[S score.Score[S]] struct {
	zero                   S
	label                  string
	constraintMatchEnabled bool
	configured             map[constraint.Ref]struct{}
	matchTotals            map[string]*constraint.MatchTotal[S]
	indictments            map[any]*constraint.Indictment[S]
}

func newBase[S score.Score[S]](zero S, label string, constraintMatchEnabled bool) base[S] {
	b := base[S]{
		zero:                   zero,
		label:                  label,
		constraintMatchEnabled: constraintMatchEnabled,
		configured:             make(map[constraint.Ref]struct{}),
	}
	if constraintMatchEnabled {
		b.matchTotals = make(map[string]*constraint.MatchTotal[S])
		b.indictments = make(map[any]*constraint.Indictment[S])
	}
	return b
}

func (b *base[S]) configure(ref constraint.Ref, weight S) {
	if _, ok := b.configured[ref]; ok {
		panic(fmt.Sprintf("constraint (%s) weight is already configured", ref.ID()))
	}
	b.configured[ref] = struct{}{}
	if b.constraintMatchEnabled {
		b.matchTotals[ref.ID()] = constraint.NewMatchTotal(ref, weight, b.zero)
	}
}

// register records a constraint match when tracking is enabled. undo must
// reverse the running totals; matchScore is only called when tracking.
func (b *base[S]) register(m Match, undo func(), matchScore func() S) Retraction {
	if !b.constraintMatchEnabled {
		return undo
	}
	total, ok := b.matchTotals[m.Constraint.ID()]
	if !ok {
		// direct Add*ConstraintMatch calls may name a constraint without a weight
		total = constraint.NewMatchTotal(m.Constraint, b.zero, b.zero)
		b.matchTotals[m.Constraint.ID()] = total
	}
	cm := total.AddMatch(m.Justifications, matchScore())
	indicted := distinctJustifications(m.Justifications)
	for _, j := range indicted {
		ind, ok := b.indictments[j]
		if !ok {
			ind = constraint.NewIndictment(j, b.zero)
			b.indictments[j] = ind
		}
		ind.AddMatch(cm)
	}
	return func() {
		undo()
		total.RemoveMatch(cm)
		for _, j := range indicted {
			ind := b.indictments[j]
			ind.RemoveMatch(cm)
			if ind.MatchCount() == 0 {
				delete(b.indictments, j)
			}
		}
	}
}

func distinctJustifications(justifications []any) []any {
	out := make([]any, 0, len(justifications))
	for _, j := range justifications {
		if j == nil {
			continue
		}
		seen := false
		for _, o := range out {
			if o == j {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, j)
		}
	}
	return out
}

func (b *base[S]) IsConstraintMatchEnabled() bool {
	return b.constraintMatchEnabled
}

// ConstraintMatchTotals returns a copy keyed by constraint ID that later
// impacts and retractions leave untouched. It contains
// an entry for every configured constraint, even those that never fired.
func (b *base[S]) ConstraintMatchTotals() (map[string]*constraint.MatchTotal[S], error) {
	if !b.constraintMatchEnabled {
		return nil, matchTrackingDisabled("constraint match totals")
	}
	totals := make(map[string]*constraint.MatchTotal[S], len(b.matchTotals))
	for id, t := range b.matchTotals {
		totals[id] = t.Clone()
	}
	return totals, nil
}

// Indictments returns a copy keyed by justification, like ConstraintMatchTotals.
func (b *base[S]) Indictments() (map[any]*constraint.Indictment[S], error) {
	if !b.constraintMatchEnabled {
		return nil, matchTrackingDisabled("indictments")
	}
	indictments := make(map[any]*constraint.Indictment[S], len(b.indictments))
	for j, ind := range b.indictments {
		indictments[j] = ind.Clone()
	}
	return indictments, nil
}

func matchTrackingDisabled(what string) error {
	return &score.StateError{
		Capability: "constraintMatchEnabled",
		Reason:     fmt.Sprintf("%s were requested while constraintMatchEnabled (false) is disabled", what),
	}
}

func missingWeight(ref constraint.Ref) error {
	return &score.ConfigurationError{
		Constraint: ref.ID(),
		Reason:     "does not match a configured constraint weight",
	}
}

// unsupportedMultiplier reports a missing weight first, since that is the
// error a correctly typed multiplier would have hit too.
func (b *base[S]) unsupportedMultiplier(ref constraint.Ref, kind string, multiplier any) error {
	if _, ok := b.configured[ref]; !ok {
		return missingWeight(ref)
	}
	return &score.ConfigurationError{
		Constraint: ref.ID(),
		Reason: fmt.Sprintf("was impacted with a %s weight multiplier (%v), which the %s score holder does not support",
			kind, multiplier, b.label),
	}
}
