package taskassign

import (
	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/opt"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/solver"
)

// NewFactory builds a director factory with the incremental constraints and
// the environment mode and weight overrides of cfg.
func NewFactory(d Domain, cfg config.SolverConfig) (*director.Factory[*Schedule, score.BendableScore], error) {
	opts, err := solver.FactoryOptions(cfg)
	if err != nil {
		return nil, err
	}
	return director.NewFactory[*Schedule, score.BendableScore](d.Descriptor, ScoreDefinition, IncrementalProvider{}, opts...)
}

// NewSolver builds a solver from cfg.
func NewSolver(cfg config.SolverConfig, opts ...solver.Option[*Schedule, score.BendableScore]) (*solver.Solver[*Schedule, score.BendableScore], error) {
	d := NewDomain()
	factory, err := NewFactory(d, cfg)
	if err != nil {
		return nil, err
	}

	var phases []solver.Phase[*Schedule, score.BendableScore]
	switch cfg.Construction.Type {
	case config.ConstructionFirstFit:
		phases = append(phases, solver.ConstructionPhase[*Schedule, score.BendableScore]{
			Placer: solver.ListPlacer[*Schedule, *Employee, *Task]{Variable: d.TasksVar, Entities: Employees, Values: Tasks},
		})
	case config.ConstructionRandomKey:
		phases = append(phases, opt.RandomKeyConstruction[*Schedule, *Employee, *Task, score.BendableScore]{
			Variable:   d.TasksVar,
			Entities:   Employees,
			Values:     Tasks,
			Iterations: cfg.Construction.Iterations,
			Population: cfg.Construction.Population,
		})
	}

	change := solver.ListChangeMoveSelector[*Schedule, *Employee, *Task]{Variable: d.TasksVar, Entities: Employees}
	swap := solver.ListSwapMoveSelector[*Schedule, *Employee, *Task]{Variable: d.TasksVar, Entities: Employees}
	var selector solver.MoveSelector[*Schedule]
	switch cfg.LocalSearch.MoveSelector {
	case config.MoveSelectorChange:
		selector = change
	case config.MoveSelectorSwap:
		selector = swap
	default:
		selector = solver.UnionMoveSelector[*Schedule]{Children: []solver.MoveSelector[*Schedule]{change, swap}}
	}

	acceptor, err := solver.AcceptorFromConfig[score.BendableScore](cfg.LocalSearch)
	if err != nil {
		return nil, err
	}
	termination, err := solver.TerminationFromConfig(cfg.Termination, factory.ScoreDefinition())
	if err != nil {
		return nil, err
	}
	phases = append(phases, solver.LocalSearchPhase[*Schedule, score.BendableScore]{
		Selector:           selector,
		Acceptor:           acceptor,
		AcceptedCountLimit: cfg.LocalSearch.AcceptedCountLimit,
	})

	all := append([]solver.Option[*Schedule, score.BendableScore]{
		solver.WithSeed[*Schedule, score.BendableScore](cfg.Seed),
		solver.WithTermination[*Schedule](termination),
	}, opts...)
	return solver.New(factory, phases, all...), nil
}
