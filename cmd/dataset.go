package main

import (
	"context"
	"fmt"

	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/spf13/cobra"
)

// datasetFlags select a dataset file, or a generated dataset when no file is
// given.
type datasetFlags struct {
	problem string
	path    string
	size    int
	seed    int64
}

func addDatasetFlags(cmd *cobra.Command, f *datasetFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.problem, "problem", "p", problem.TaskAssign, "Problem name (see planner problems)")
	flags.StringVarP(&f.path, "dataset", "d", "", "Dataset YAML file (generated when empty)")
	flags.IntVar(&f.size, "size", 0, "Size of a generated dataset (0 = problem default)")
	flags.Int64Var(&f.seed, "dataset-seed", 1, "Seed of a generated dataset")
}

// load returns the dataset and a label naming where it came from.
func (f datasetFlags) load() (problem.Instance, string, error) {
	if f.path != "" {
		inst, err := problem.Load(f.problem, f.path)
		if err != nil {
			return nil, "", err
		}
		return inst, f.path, nil
	}
	p, err := problem.Lookup(f.problem)
	if err != nil {
		return nil, "", err
	}
	inst, err := p.Generate(f.seed, f.size)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate dataset: %w", err)
	}
	return inst, fmt.Sprintf("generated:seed=%d,size=%d", f.seed, f.size), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}
