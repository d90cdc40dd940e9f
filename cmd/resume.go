package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/server"
	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeSolver  solverFlags
	resumeDataDir string
	resumeOut     string
	resumeExplain bool
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a job from its checkpoint",
	Long: `Continue solving from the best solution saved in a job's checkpoint.

The job keeps its ID, its step count and its trace. Solver flags override
the settings saved with the checkpoint; --config replaces them.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	addSolverFlags(resumeCmd, &resumeSolver)
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Checkpoint directory")
	resumeCmd.Flags().StringVarP(&resumeOut, "out", "o", "", "Write the best solution to this file")
	resumeCmd.Flags().BoolVar(&resumeExplain, "explain", false, "Print the score explanation of the best solution")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	checkpoint, err := checkpointStore.LoadCheckpoint(args[0])
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	base := checkpoint.Config.Solver
	if resumeSolver.configPath != "" {
		if base, err = config.Load(resumeSolver.configPath); err != nil {
			return err
		}
	}
	if checkpoint.Config.Solver, err = resumeSolver.apply(cmd, base); err != nil {
		return err
	}

	jm := server.NewJobManager()
	job, err := jm.RestoreJob(checkpoint)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runLocalJob(ctx, cmd.OutOrStdout(), jm, checkpointStore, job.ID, localJobOutput{path: resumeOut, explain: resumeExplain})
}
