// Package solver runs construction and local search phases on top of a
// score director.
//
// A Solver clones the problem, builds one director for the clone and runs its
// phases in order. Every improvement of the working score is cloned into the
// best solution, which Solve returns when a termination holds or the context
// is cancelled.
package solver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/metrics"
	"github.com/MarcyGO/optaplanner/internal/score"
)

// Phase is one stage of solving.
type Phase[Sol any, S score.Score[S]] interface {
	Name() string
	Solve(scope *Scope[Sol, S]) error
}

// Result is the outcome of Solve.
type Result[Sol any, S score.Score[S]] struct {
	Solution         Sol
	Score            S
	Steps            int
	CalculationCount int64
	Elapsed          time.Duration
}

// Solver solves problems of one solution type. It holds no per-solve state
// besides its terminations, so a Solver should not run two solves at once.
type Solver[Sol any, S score.Score[S]] struct {
	factory     *director.Factory[Sol, S]
	phases      []Phase[Sol, S]
	termination Termination[S]
	seed        int64
	recorder    metrics.Recorder
	listeners   []func(BestSolutionEvent[Sol, S])
}

// Option configures a Solver.
type Option[Sol any, S score.Score[S]] func(*Solver[Sol, S])

func WithTermination[Sol any, S score.Score[S]](t Termination[S]) Option[Sol, S] {
	return func(s *Solver[Sol, S]) { s.termination = t }
}

func WithSeed[Sol any, S score.Score[S]](seed int64) Option[Sol, S] {
	return func(s *Solver[Sol, S]) { s.seed = seed }
}

func WithRecorder[Sol any, S score.Score[S]](r metrics.Recorder) Option[Sol, S] {
	return func(s *Solver[Sol, S]) { s.recorder = r }
}

// WithBestSolutionListener registers a listener called, on the solving
// goroutine, every time a new best solution is found.
func WithBestSolutionListener[Sol any, S score.Score[S]](l func(BestSolutionEvent[Sol, S])) Option[Sol, S] {
	return func(s *Solver[Sol, S]) { s.listeners = append(s.listeners, l) }
}

// New creates a solver running phases in order.
func New[Sol any, S score.Score[S]](factory *director.Factory[Sol, S], phases []Phase[Sol, S], opts ...Option[Sol, S]) *Solver[Sol, S] {
	s := &Solver[Sol, S]{
		factory:  factory,
		phases:   phases,
		recorder: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve solves a planning clone of problem; problem itself is not changed.
// Cancelling ctx stops solving early and still returns the best solution.
func (s *Solver[Sol, S]) Solve(ctx context.Context, problem Sol) (Result[Sol, S], error) {
	var result Result[Sol, S]
	start := time.Now()
	s.recorder.SolveStarted()
	defer func() { s.recorder.SolveFinished(time.Since(start)) }()

	d := s.factory.BuildDirector(false, false)
	defer d.Close()

	working := s.factory.SolutionDescriptor().Clone(problem)
	if err := d.SetWorkingSolution(working); err != nil {
		return result, fmt.Errorf("set working solution: %w", err)
	}
	initial, err := d.CalculateScore()
	if err != nil {
		return result, fmt.Errorf("calculate initial score: %w", err)
	}

	recaller := NewBestSolutionRecaller[Sol, S](s.factory.SolutionDescriptor())
	for _, l := range s.listeners {
		recaller.AddListener(l)
	}
	scope := &Scope[Sol, S]{
		ctx:         ctx,
		director:    d,
		rnd:         rand.New(rand.NewSource(s.seed)),
		termination: s.termination,
		recaller:    recaller,
		recorder:    s.recorder,
		start:       start,
		score:       initial,
	}
	recaller.Process(working, initial, 0, 0)

	slog.Info("Solving started",
		"solution", s.factory.SolutionDescriptor().Name(),
		"initial_score", initial.String(),
		"environment_mode", s.factory.AssertionMode().String(),
		"seed", s.seed,
	)

	for _, phase := range s.phases {
		if ctx.Err() != nil {
			break
		}
		if err := phase.Solve(scope); err != nil {
			return result, fmt.Errorf("%s phase: %w", phase.Name(), err)
		}
	}

	best, bestScore, _ := recaller.Best()
	calculations := d.CalculationCount()
	s.recorder.AddScoreCalculations(calculations)
	result = Result[Sol, S]{
		Solution:         best,
		Score:            bestScore,
		Steps:            scope.totalSteps,
		CalculationCount: calculations,
		Elapsed:          time.Since(start),
	}

	slog.Info("Solving ended",
		"best_score", bestScore.String(),
		"steps", result.Steps,
		"score_calculations", calculations,
		"elapsed", result.Elapsed,
		"cancelled", ctx.Err() != nil,
	)
	return result, nil
}
