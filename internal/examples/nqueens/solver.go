package nqueens

import (
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/solver"
)

// NewFactory builds a director factory with the incremental constraints and
// the environment mode and weight overrides of cfg.
func NewFactory(d Domain, cfg config.SolverConfig) (*director.Factory[*Board, score.SimpleScore], error) {
	opts, err := solver.FactoryOptions(cfg)
	if err != nil {
		return nil, err
	}
	return director.NewFactory[*Board, score.SimpleScore](d.Descriptor, score.SimpleDefinition{}, IncrementalProvider{}, opts...)
}

// NewSolver builds a solver from cfg.
func NewSolver(cfg config.SolverConfig, opts ...solver.Option[*Board, score.SimpleScore]) (*solver.Solver[*Board, score.SimpleScore], error) {
	d := NewDomain()
	factory, err := NewFactory(d, cfg)
	if err != nil {
		return nil, err
	}

	var phases []solver.Phase[*Board, score.SimpleScore]
	switch cfg.Construction.Type {
	case config.ConstructionFirstFit:
		phases = append(phases, solver.ConstructionPhase[*Board, score.SimpleScore]{
			Placer: solver.BasicPlacer[*Board, *Queen, *Row]{Variable: d.RowVar, Entities: Queens, Values: Rows},
		})
	case config.ConstructionRandomKey:
		return nil, fmt.Errorf("random_key construction needs a list variable; n queens has a basic variable")
	}

	change := solver.ChangeMoveSelector[*Board, *Queen, *Row]{Variable: d.RowVar, Entities: Queens, Values: Rows}
	swap := solver.SwapMoveSelector[*Board, *Queen, *Row]{Variable: d.RowVar, Entities: Queens}
	var selector solver.MoveSelector[*Board]
	switch cfg.LocalSearch.MoveSelector {
	case config.MoveSelectorChange:
		selector = change
	case config.MoveSelectorSwap:
		selector = swap
	default:
		selector = solver.UnionMoveSelector[*Board]{Children: []solver.MoveSelector[*Board]{change, swap}}
	}

	acceptor, err := solver.AcceptorFromConfig[score.SimpleScore](cfg.LocalSearch)
	if err != nil {
		return nil, err
	}
	termination, err := solver.TerminationFromConfig(cfg.Termination, factory.ScoreDefinition())
	if err != nil {
		return nil, err
	}
	phases = append(phases, solver.LocalSearchPhase[*Board, score.SimpleScore]{
		Selector:           selector,
		Acceptor:           acceptor,
		AcceptedCountLimit: cfg.LocalSearch.AcceptedCountLimit,
	})

	all := append([]solver.Option[*Board, score.SimpleScore]{
		solver.WithSeed[*Board, score.SimpleScore](cfg.Seed),
		solver.WithTermination[*Board](termination),
	}, opts...)
	return solver.New(factory, phases, all...), nil
}
