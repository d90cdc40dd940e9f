package problem

import (
	"context"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/manager"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/solver"
)

// kind binds one solution type to its codec and solver builders.
type kind[Sol any, S score.Score[S]] struct {
	name       string
	marshal    func(Sol) ([]byte, error)
	newFactory func(cfg config.SolverConfig) (*director.Factory[Sol, S], error)
	newSolver  func(cfg config.SolverConfig, opts ...solver.Option[Sol, S]) (*solver.Solver[Sol, S], error)
}

func (k *kind[Sol, S]) wrap(solution Sol) *instance[Sol, S] {
	return &instance[Sol, S]{kind: k, solution: solution}
}

type instance[Sol any, S score.Score[S]] struct {
	kind     *kind[Sol, S]
	solution Sol
}

func scoreInfo[S score.Score[S]](s S) ScoreInfo {
	return ScoreInfo{Score: s.String(), Feasible: s.IsFeasible(), Initialized: s.IsSolutionInitialized()}
}

func (i *instance[Sol, S]) Problem() string          { return i.kind.name }
func (i *instance[Sol, S]) Marshal() ([]byte, error) { return i.kind.marshal(i.solution) }

func (i *instance[Sol, S]) Score(cfg config.SolverConfig) (ScoreInfo, error) {
	factory, err := i.kind.newFactory(cfg)
	if err != nil {
		return ScoreInfo{}, err
	}
	s, err := manager.New(factory).UpdateScore(i.solution)
	if err != nil {
		return ScoreInfo{}, err
	}
	return scoreInfo(s), nil
}

func (i *instance[Sol, S]) Explain(cfg config.SolverConfig) (*Report, error) {
	factory, err := i.kind.newFactory(cfg)
	if err != nil {
		return nil, err
	}
	explanation, err := manager.New(factory).ExplainScore(i.solution)
	if err != nil {
		return nil, err
	}
	return &Report{View: explanation.View(), Summary: explanation.Summary()}, nil
}

func (i *instance[Sol, S]) Solve(ctx context.Context, cfg config.SolverConfig, opts SolveOptions) (Outcome, error) {
	var solverOpts []solver.Option[Sol, S]
	if opts.Recorder != nil {
		solverOpts = append(solverOpts, solver.WithRecorder[Sol, S](opts.Recorder))
	}
	if opts.OnBest != nil {
		solverOpts = append(solverOpts, solver.WithBestSolutionListener(func(e solver.BestSolutionEvent[Sol, S]) {
			opts.OnBest(Best{
				ScoreInfo: scoreInfo(e.Score),
				Solution:  i.kind.wrap(e.Solution),
				Step:      e.Step,
				Elapsed:   e.Elapsed,
			})
		}))
	}

	s, err := i.kind.newSolver(cfg, solverOpts...)
	if err != nil {
		return Outcome{}, err
	}
	result, err := s.Solve(ctx, i.solution)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		ScoreInfo:        scoreInfo(result.Score),
		Solution:         i.kind.wrap(result.Solution),
		Steps:            result.Steps,
		CalculationCount: result.CalculationCount,
		Elapsed:          result.Elapsed,
	}, nil
}
