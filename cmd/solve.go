package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/MarcyGO/optaplanner/internal/server"
	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/spf13/cobra"
)

var (
	solveDataset datasetFlags
	solveSolver  solverFlags
	solveOut     string
	solveDataDir string
	solveExplain bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a dataset locally",
	Long: `Solve a dataset with a construction heuristic followed by local search.

The best solution is written to --out as YAML. With --data-dir the run is
checkpointed like a server job and can be continued with 'planner resume'.
Interrupting the run keeps the best solution found so far.`,
	RunE: runSolve,
}

func init() {
	addDatasetFlags(solveCmd, &solveDataset)
	addSolverFlags(solveCmd, &solveSolver)
	solveCmd.Flags().StringVarP(&solveOut, "out", "o", "", "Write the best solution to this file")
	solveCmd.Flags().StringVar(&solveDataDir, "data-dir", "", "Checkpoint directory (no checkpoints when empty)")
	solveCmd.Flags().BoolVar(&solveExplain, "explain", false, "Print the score explanation of the best solution")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := solveSolver.load(cmd)
	if err != nil {
		return err
	}
	inst, label, err := solveDataset.load()
	if err != nil {
		return err
	}
	checkpointStore, err := openStore(solveDataDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jm := server.NewJobManager()
	job := jm.CreateJob(store.JobConfig{Problem: inst.Problem(), Dataset: label, Solver: cfg}, inst)
	return runLocalJob(ctx, cmd.OutOrStdout(), jm, checkpointStore, job.ID, localJobOutput{path: solveOut, explain: solveExplain})
}

// localJobOutput says what to do with a finished local job.
type localJobOutput struct {
	path    string
	explain bool
}

// runLocalJob runs a job on the calling goroutine and reports its result.
// An interrupted job still reports and writes its best solution.
func runLocalJob(ctx context.Context, w io.Writer, jm *server.JobManager, checkpointStore *store.FSStore, jobID string, out localJobOutput) error {
	err := server.RunJob(ctx, jm, checkpointStore, nil, jobID)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	job, _ := jm.GetJob(jobID)
	printJobResult(w, job)

	best := job.Best()
	if best == nil {
		return nil
	}
	if out.path != "" {
		if err := problem.Save(out.path, best); err != nil {
			return err
		}
		slog.Info("Best solution written", "path", out.path)
	}
	if out.explain {
		return printExplanation(w, best, job.Config.Solver)
	}
	return nil
}

func printJobResult(w io.Writer, job server.Job) {
	fmt.Fprintf(w, "Job:      %s (%s)\n", job.ID, job.State)
	fmt.Fprintf(w, "Problem:  %s\n", job.Config.Problem)
	if job.Config.Dataset != "" {
		fmt.Fprintf(w, "Dataset:  %s\n", job.Config.Dataset)
	}
	fmt.Fprintf(w, "Score:    %s -> %s\n", job.InitialScore, job.BestScore)
	fmt.Fprintf(w, "Feasible: %v\n", job.Feasible)
	fmt.Fprintf(w, "Steps:    %d\n", job.Step)
	if job.EndTime != nil {
		fmt.Fprintf(w, "Elapsed:  %s\n", job.EndTime.Sub(job.StartTime).Round(time.Millisecond))
	}
}

func printExplanation(w io.Writer, inst problem.Instance, cfg config.SolverConfig) error {
	report, err := inst.Explain(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, report.Summary)
	return nil
}

// openStore opens the checkpoint store in dataDir, or returns nil for an
// empty dataDir.
func openStore(dataDir string) (*store.FSStore, error) {
	if dataDir == "" {
		return nil, nil
	}
	checkpointStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	return checkpointStore, nil
}
