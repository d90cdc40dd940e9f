package problem

import (
	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/examples/nqueens"
	"github.com/MarcyGO/optaplanner/internal/examples/taskassign"
	"github.com/MarcyGO/optaplanner/internal/score"
)

const (
	TaskAssign = "taskassign"
	NQueens    = "nqueens"
)

func init() {
	tasks := &kind[*taskassign.Schedule, score.BendableScore]{
		name:    TaskAssign,
		marshal: taskassign.MarshalSchedule,
		newFactory: func(cfg config.SolverConfig) (*director.Factory[*taskassign.Schedule, score.BendableScore], error) {
			return taskassign.NewFactory(taskassign.NewDomain(), cfg)
		},
		newSolver: taskassign.NewSolver,
	}
	register(Problem{
		Name:        TaskAssign,
		Description: "assign tasks to employees (list variable, 1 hard / 4 soft bendable score)",
		Parse: func(data []byte) (Instance, error) {
			s, err := taskassign.UnmarshalSchedule(data)
			if err != nil {
				return nil, err
			}
			return tasks.wrap(s), nil
		},
		Generate: func(seed int64, size int) (Instance, error) {
			s, err := taskassign.Generate(seed, taskAssignOptions(size))
			if err != nil {
				return nil, err
			}
			return tasks.wrap(s), nil
		},
	})

	queens := &kind[*nqueens.Board, score.SimpleScore]{
		name:    NQueens,
		marshal: nqueens.MarshalBoard,
		newFactory: func(cfg config.SolverConfig) (*director.Factory[*nqueens.Board, score.SimpleScore], error) {
			return nqueens.NewFactory(nqueens.NewDomain(), cfg)
		},
		newSolver: nqueens.NewSolver,
	}
	register(Problem{
		Name:        NQueens,
		Description: "place n queens on an n×n board (basic variable, simple score)",
		Parse: func(data []byte) (Instance, error) {
			b, err := nqueens.UnmarshalBoard(data)
			if err != nil {
				return nil, err
			}
			return queens.wrap(b), nil
		},
		// Every queen starts unassigned, so the seed does not change the board.
		Generate: func(_ int64, size int) (Instance, error) {
			if size <= 0 {
				size = 8
			}
			return queens.wrap(nqueens.NewBoard(size)), nil
		},
	})
}

// taskAssignOptions scales the default 50 task dataset to size tasks.
func taskAssignOptions(size int) taskassign.GenerateOptions {
	opts := taskassign.DefaultGenerateOptions()
	if size <= 0 || size == opts.Tasks {
		return opts
	}
	opts.Tasks = size
	opts.Employees = max(1, size/10)
	opts.TaskTypes = max(1, size/5)
	opts.Customers = min(opts.Customers, max(1, size/10))
	return opts
}
