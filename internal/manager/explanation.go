package manager

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
)

const (
	summaryIndictmentLimit = 5
	summaryMatchLimit      = 2
)

// Explanation is a score broken down by constraint and by justification.
type Explanation[Sol any, S score.Score[S]] struct {
	Solution              Sol
	Score                 S
	ConstraintMatchTotals map[string]*constraint.MatchTotal[S]
	Indictments           map[any]*constraint.Indictment[S]
}

// SortedConstraintMatchTotals returns the totals worst first, ties by ID.
func (e *Explanation[Sol, S]) SortedConstraintMatchTotals() []*constraint.MatchTotal[S] {
	totals := make([]*constraint.MatchTotal[S], 0, len(e.ConstraintMatchTotals))
	for _, t := range e.ConstraintMatchTotals {
		totals = append(totals, t)
	}
	sort.Slice(totals, func(i, j int) bool {
		if c := totals[i].Score().Compare(totals[j].Score()); c != 0 {
			return c < 0
		}
		return totals[i].Constraint().ID() < totals[j].Constraint().ID()
	})
	return totals
}

// SortedIndictments returns the indictments worst first, ties by text.
func (e *Explanation[Sol, S]) SortedIndictments() []*constraint.Indictment[S] {
	indictments := make([]*constraint.Indictment[S], 0, len(e.Indictments))
	for _, ind := range e.Indictments {
		indictments = append(indictments, ind)
	}
	sort.Slice(indictments, func(i, j int) bool {
		if c := indictments[i].Score().Compare(indictments[j].Score()); c != 0 {
			return c < 0
		}
		return fmt.Sprint(indictments[i].Justification()) < fmt.Sprint(indictments[j].Justification())
	})
	return indictments
}

// Summary renders a human readable explanation: every constraint total and
// the five worst indictments, each with its two worst matches.
func (e *Explanation[Sol, S]) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explanation of score (%s):\n", e.Score)
	b.WriteString("    Constraint match totals:\n")
	for _, t := range e.SortedConstraintMatchTotals() {
		fmt.Fprintf(&b, "        %s: constraint (%s) has %d matches:\n", t.Score(), t.Constraint().Name, t.MatchCount())
		for i, m := range t.Matches() {
			if i == summaryMatchLimit {
				b.WriteString("            ...\n")
				break
			}
			fmt.Fprintf(&b, "            %s: justifications (%s)\n", m.Score(), justificationsText(m.Justifications()))
		}
	}

	indictments := e.SortedIndictments()
	fmt.Fprintf(&b, "    Indictments (top %d of %d):\n", summaryIndictmentLimit, len(indictments))
	for i, ind := range indictments {
		if i == summaryIndictmentLimit {
			break
		}
		fmt.Fprintf(&b, "        %s: justification (%v) has %d matches:\n", ind.Score(), ind.Justification(), ind.MatchCount())
		for j, m := range ind.Matches() {
			if j == summaryMatchLimit {
				b.WriteString("            ...\n")
				break
			}
			fmt.Fprintf(&b, "            %s: constraint (%s)\n", m.Score(), m.Constraint().Name)
		}
	}
	return b.String()
}

func justificationsText(justifications []any) string {
	parts := make([]string, len(justifications))
	for i, j := range justifications {
		parts[i] = fmt.Sprint(j)
	}
	return strings.Join(parts, " ")
}

// ConstraintView is the JSON form of a constraint match total.
type ConstraintView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Weight     string `json:"weight"`
	Score      string `json:"score"`
	MatchCount int    `json:"match_count"`
}

// IndictmentView is the JSON form of an indictment.
type IndictmentView struct {
	Justification string `json:"justification"`
	Score         string `json:"score"`
	MatchCount    int    `json:"match_count"`
}

// View is the JSON form of an Explanation.
type View struct {
	Score       string           `json:"score"`
	Feasible    bool             `json:"feasible"`
	Constraints []ConstraintView `json:"constraints"`
	Indictments []IndictmentView `json:"indictments"`
}

// View flattens the explanation into strings, worst entries first.
func (e *Explanation[Sol, S]) View() View {
	v := View{
		Score:       e.Score.String(),
		Feasible:    e.Score.IsFeasible(),
		Constraints: []ConstraintView{},
		Indictments: []IndictmentView{},
	}
	for _, t := range e.SortedConstraintMatchTotals() {
		v.Constraints = append(v.Constraints, ConstraintView{
			ID:         t.Constraint().ID(),
			Name:       t.Constraint().Name,
			Weight:     t.ConstraintWeight().String(),
			Score:      t.Score().String(),
			MatchCount: t.MatchCount(),
		})
	}
	for _, ind := range e.SortedIndictments() {
		v.Indictments = append(v.Indictments, IndictmentView{
			Justification: fmt.Sprint(ind.Justification()),
			Score:         ind.Score().String(),
			MatchCount:    ind.MatchCount(),
		})
	}
	return v
}
