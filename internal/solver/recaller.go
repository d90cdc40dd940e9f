package solver

import (
	"time"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// BestSolutionEvent reports a new best solution. Solution is a planning clone
// that the solver never changes again; listeners must not change it either.
type BestSolutionEvent[Sol any, S score.Score[S]] struct {
	Solution Sol
	Score    S
	Step     int
	Elapsed  time.Duration
}

// BestSolutionRecaller keeps a clone of the best working solution seen.
type BestSolutionRecaller[Sol any, S score.Score[S]] struct {
	descriptor *domain.SolutionDescriptor[Sol]
	listeners  []func(BestSolutionEvent[Sol, S])

	best           Sol
	bestScore      S
	hasBest        bool
	lastImprovedAt int
}

func NewBestSolutionRecaller[Sol any, S score.Score[S]](descriptor *domain.SolutionDescriptor[Sol]) *BestSolutionRecaller[Sol, S] {
	return &BestSolutionRecaller[Sol, S]{descriptor: descriptor}
}

// AddListener registers a listener called on every improvement.
func (r *BestSolutionRecaller[Sol, S]) AddListener(l func(BestSolutionEvent[Sol, S])) {
	r.listeners = append(r.listeners, l)
}

// Process clones working if workingScore beats the best score, and reports
// whether it did. The clone's score is set when it has a SetScore method.
func (r *BestSolutionRecaller[Sol, S]) Process(working Sol, workingScore S, step int, elapsed time.Duration) bool {
	if r.hasBest && workingScore.Compare(r.bestScore) <= 0 {
		return false
	}
	r.best = r.descriptor.Clone(working)
	if setter, ok := any(r.best).(interface{ SetScore(S) }); ok {
		setter.SetScore(workingScore)
	}
	r.bestScore = workingScore
	r.hasBest = true
	r.lastImprovedAt = step
	event := BestSolutionEvent[Sol, S]{Solution: r.best, Score: workingScore, Step: step, Elapsed: elapsed}
	for _, l := range r.listeners {
		l(event)
	}
	return true
}

func (r *BestSolutionRecaller[Sol, S]) Best() (Sol, S, bool) { return r.best, r.bestScore, r.hasBest }

// LastImprovedStep is the step at which the best solution was last replaced.
func (r *BestSolutionRecaller[Sol, S]) LastImprovedStep() int { return r.lastImprovedAt }
