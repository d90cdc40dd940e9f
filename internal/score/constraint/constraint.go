// Package constraint holds the bookkeeping records used to explain a score:
// individual constraint matches, their per-constraint totals and the
// per-justification indictments.
package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MarcyGO/optaplanner/internal/score"
)

// Ref identifies a constraint. It is assigned once when the constraint
// provider defines its constraints and is stable for the whole run.
type Ref struct {
	Package string
	Name    string
}

// NewRef creates a constraint reference.
func NewRef(pkg, name string) Ref {
	return Ref{Package: pkg, Name: name}
}

// ID returns "package/name", or only the name when the package is empty.
func (r Ref) ID() string {
	if r.Package == "" {
		return r.Name
	}
	return r.Package + "/" + r.Name
}

func (r Ref) String() string { return r.ID() }

// Definition pairs a constraint with its default weight.
type Definition[S score.Score[S]] struct {
	Ref    Ref
	Weight S
}

// Match is one live scoring event: a constraint fired for a set of
// justifications and contributed Score to the total.
type Match[S score.Score[S]] struct {
	ref            Ref
	justifications []any
	score          S
}

func (m *Match[S]) Constraint() Ref { return m.ref }

// Justifications returns the objects that caused the match. Do not modify.
func (m *Match[S]) Justifications() []any { return m.justifications }

func (m *Match[S]) Score() S { return m.score }

func (m *Match[S]) String() string {
	return fmt.Sprintf("%s/%s=%s", m.ref.ID(), formatJustifications(m.justifications), m.score)
}

func formatJustifications(justifications []any) string {
	parts := make([]string, len(justifications))
	for i, j := range justifications {
		parts[i] = fmt.Sprint(j)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MatchTotal aggregates every live match of one constraint.
type MatchTotal[S score.Score[S]] struct {
	ref     Ref
	weight  S
	score   S
	matches map[*Match[S]]struct{}
}

// NewMatchTotal creates an empty total; zero must be the zero score.
func NewMatchTotal[S score.Score[S]](ref Ref, weight, zero S) *MatchTotal[S] {
	return &MatchTotal[S]{
		ref:     ref,
		weight:  weight,
		score:   zero,
		matches: make(map[*Match[S]]struct{}),
	}
}

// AddMatch registers a new match with the given score contribution.
func (t *MatchTotal[S]) AddMatch(justifications []any, s S) *Match[S] {
	m := &Match[S]{ref: t.ref, justifications: justifications, score: s}
	t.score = t.score.Add(s)
	t.matches[m] = struct{}{}
	return m
}

// RemoveMatch unregisters a match previously returned by AddMatch.
func (t *MatchTotal[S]) RemoveMatch(m *Match[S]) {
	if _, ok := t.matches[m]; !ok {
		panic(fmt.Sprintf("constraint match (%s) is not registered in total (%s)", m, t.ref.ID()))
	}
	t.score = t.score.Subtract(m.score)
	delete(t.matches, m)
}

// Clone copies the total so later matches and retractions do not reach it.
// The matches themselves are immutable and shared.
func (t *MatchTotal[S]) Clone() *MatchTotal[S] {
	c := &MatchTotal[S]{ref: t.ref, weight: t.weight, score: t.score, matches: make(map[*Match[S]]struct{}, len(t.matches))}
	for m := range t.matches {
		c.matches[m] = struct{}{}
	}
	return c
}

func (t *MatchTotal[S]) Constraint() Ref      { return t.ref }
func (t *MatchTotal[S]) ConstraintWeight() S  { return t.weight }
func (t *MatchTotal[S]) Score() S             { return t.score }
func (t *MatchTotal[S]) MatchCount() int      { return len(t.matches) }
func (t *MatchTotal[S]) Matches() []*Match[S] { return sortedMatches(t.matches) }

func (t *MatchTotal[S]) String() string {
	return fmt.Sprintf("%s=%s", t.ref.ID(), t.score)
}

// Indictment lists every live match a justification participates in.
type Indictment[S score.Score[S]] struct {
	justification any
	score         S
	matches       map[*Match[S]]struct{}
}

// NewIndictment creates an empty indictment; zero must be the zero score.
func NewIndictment[S score.Score[S]](justification any, zero S) *Indictment[S] {
	return &Indictment[S]{
		justification: justification,
		score:         zero,
		matches:       make(map[*Match[S]]struct{}),
	}
}

func (i *Indictment[S]) AddMatch(m *Match[S]) {
	i.score = i.score.Add(m.score)
	i.matches[m] = struct{}{}
}

func (i *Indictment[S]) RemoveMatch(m *Match[S]) {
	if _, ok := i.matches[m]; !ok {
		panic(fmt.Sprintf("constraint match (%s) is not registered in indictment (%v)", m, i.justification))
	}
	i.score = i.score.Subtract(m.score)
	delete(i.matches, m)
}

// Clone copies the indictment; see MatchTotal.Clone.
func (i *Indictment[S]) Clone() *Indictment[S] {
	c := &Indictment[S]{justification: i.justification, score: i.score, matches: make(map[*Match[S]]struct{}, len(i.matches))}
	for m := range i.matches {
		c.matches[m] = struct{}{}
	}
	return c
}

func (i *Indictment[S]) Justification() any   { return i.justification }
func (i *Indictment[S]) Score() S             { return i.score }
func (i *Indictment[S]) MatchCount() int      { return len(i.matches) }
func (i *Indictment[S]) Matches() []*Match[S] { return sortedMatches(i.matches) }

func (i *Indictment[S]) String() string {
	return fmt.Sprintf("%v=%s", i.justification, i.score)
}

// sortedMatches orders worst score first, then by text for a stable result.
func sortedMatches[S score.Score[S]](set map[*Match[S]]struct{}) []*Match[S] {
	matches := make([]*Match[S], 0, len(set))
	for m := range set {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(a, b int) bool {
		if c := matches[a].score.Compare(matches[b].score); c != 0 {
			return c < 0
		}
		return matches[a].String() < matches[b].String()
	})
	return matches
}
