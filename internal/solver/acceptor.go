package solver

import (
	"github.com/MarcyGO/optaplanner/internal/move"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// Candidate is an evaluated move offered to an acceptor.
type Candidate[S score.Score[S]] struct {
	Move          move.Move
	Score         S
	LastStepScore S
	BestScore     S
}

// Acceptor decides which evaluated moves may become the next step.
type Acceptor[S score.Score[S]] interface {
	PhaseStarted(initial S)
	IsAccepted(c Candidate[S]) bool
	// StepEnded is called with the picked move, its undo and the new score.
	StepEnded(step, undo move.Move, stepScore S)
}

// HillClimbing accepts moves that do not make the score worse.
type HillClimbing[S score.Score[S]] struct{}

func (HillClimbing[S]) PhaseStarted(S)                    {}
func (HillClimbing[S]) StepEnded(move.Move, move.Move, S) {}

func (HillClimbing[S]) IsAccepted(c Candidate[S]) bool {
	return c.Score.Compare(c.LastStepScore) >= 0
}

// LateAcceptance accepts a move that is not worse than the score of size
// steps ago, or not worse than the last step.
type LateAcceptance[S score.Score[S]] struct {
	size   int
	scores []S
	index  int
}

func NewLateAcceptance[S score.Score[S]](size int) *LateAcceptance[S] {
	return &LateAcceptance[S]{size: size}
}

func (a *LateAcceptance[S]) PhaseStarted(initial S) {
	a.scores = make([]S, a.size)
	for i := range a.scores {
		a.scores[i] = initial
	}
	a.index = 0
}

func (a *LateAcceptance[S]) IsAccepted(c Candidate[S]) bool {
	if c.Score.Compare(a.scores[a.index]) >= 0 {
		return true
	}
	return c.Score.Compare(c.LastStepScore) >= 0
}

func (a *LateAcceptance[S]) StepEnded(_, _ move.Move, stepScore S) {
	a.scores[a.index] = stepScore
	a.index = (a.index + 1) % a.size
}

// MoveTabu forbids the last size steps and their undo moves, unless a move
// would improve the best score.
type MoveTabu[S score.Score[S]] struct {
	size  int
	step  int
	added map[move.Move]int
}

func NewMoveTabu[S score.Score[S]](size int) *MoveTabu[S] {
	return &MoveTabu[S]{size: size}
}

func (a *MoveTabu[S]) PhaseStarted(S) {
	a.step = 0
	a.added = make(map[move.Move]int)
}

func (a *MoveTabu[S]) IsAccepted(c Candidate[S]) bool {
	if c.Score.Compare(c.BestScore) > 0 {
		return true
	}
	return !a.isTabu(c.Move)
}

func (a *MoveTabu[S]) isTabu(m move.Move) bool {
	step, ok := a.added[m]
	return ok && a.step-step < a.size
}

func (a *MoveTabu[S]) StepEnded(step, undo move.Move, _ S) {
	a.step++
	a.added[step] = a.step
	a.added[undo] = a.step
	for m, at := range a.added {
		if a.step-at >= a.size {
			delete(a.added, m)
		}
	}
}
