package director

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// AssertWorkingScoreFromScratch recalculates the score of the working
// solution with a second director and returns a *score.CorruptionError if it
// differs from working. When this director tracks constraint matches, the
// error context lists the constraints whose totals differ.
func (d *Director[Sol, S]) AssertWorkingScoreFromScratch(working S, context string) error {
	if err := d.checkWorking(); err != nil {
		return err
	}
	scratch := d.factory.scratchDirector(d.constraintMatchEnabled)
	defer scratch.Close()
	if err := scratch.SetWorkingSolution(d.solution); err != nil {
		return fmt.Errorf("from scratch director: %w", err)
	}
	uncorrupted, err := scratch.CalculateScore()
	if err != nil {
		return fmt.Errorf("from scratch director: %w", err)
	}
	if working.Compare(uncorrupted) == 0 {
		return nil
	}
	if d.constraintMatchEnabled {
		if analysis := d.corruptionAnalysis(scratch); analysis != "" {
			context += ": " + analysis
		}
	}
	return &score.CorruptionError{Working: working.String(), Uncorrupted: uncorrupted.String(), Context: context}
}

// AssertExpectedUndoMoveScore checks that undoing m restored the score
// calculated before m was done.
func (d *Director[Sol, S]) AssertExpectedUndoMoveScore(m move.Move, before S) error {
	after, err := d.CalculateScore()
	if err != nil {
		return err
	}
	if after.Compare(before) == 0 {
		return nil
	}
	return &score.CorruptionError{
		Working:     after.String(),
		Uncorrupted: before.String(),
		Context:     fmt.Sprintf("undo of move %s (%s) did not restore the score", m, m.SimpleMoveTypeDescription()),
	}
}

func (f *Factory[Sol, S]) scratchDirector(constraintMatchEnabled bool) *Director[Sol, S] {
	return &Director[Sol, S]{factory: f, constraintMatchEnabled: constraintMatchEnabled}
}

func (d *Director[Sol, S]) corruptionAnalysis(scratch *Director[Sol, S]) string {
	working, err := d.ConstraintMatchTotals()
	if err != nil {
		return ""
	}
	uncorrupted, err := scratch.ConstraintMatchTotals()
	if err != nil {
		return ""
	}
	var diffs []string
	for id, w := range working {
		u, ok := uncorrupted[id]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("constraint (%s) is missing from scratch", id))
		case w.Score().Compare(u.Score()) != 0 || w.MatchCount() != u.MatchCount():
			diffs = append(diffs, fmt.Sprintf("constraint (%s) has %d match(es) totalling %s, expected %d totalling %s",
				id, w.MatchCount(), w.Score(), u.MatchCount(), u.Score()))
		}
	}
	sort.Strings(diffs)
	return strings.Join(diffs, "; ")
}
