package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MarcyGO/optaplanner/internal/config"
	"github.com/MarcyGO/optaplanner/internal/problem"
	"github.com/spf13/cobra"
)

var (
	scoreDataset datasetFlags
	scoreConfig  string
	explainJSON  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Calculate the score of a dataset",
	Long: `Calculate the score of a dataset from scratch, without solving it.
Unassigned planning variables show up in the init part of the score.`,
	RunE: runScore,
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain the score of a dataset",
	Long: `Break the score of a dataset down into constraint match totals and
indictments: the planning entities and facts that cause the most penalty.`,
	RunE: runExplain,
}

func init() {
	for _, cmd := range []*cobra.Command{scoreCmd, explainCmd} {
		addDatasetFlags(cmd, &scoreDataset)
		cmd.Flags().StringVar(&scoreConfig, "config", "", "Solver config file with constraint weight overrides")
		rootCmd.AddCommand(cmd)
	}
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "Print the explanation as JSON")
}

func loadScoreInput() (problem.Instance, config.SolverConfig, error) {
	cfg, err := config.Load(scoreConfig)
	if err != nil {
		return nil, cfg, err
	}
	inst, _, err := scoreDataset.load()
	if err != nil {
		return nil, cfg, err
	}
	return inst, cfg, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	inst, cfg, err := loadScoreInput()
	if err != nil {
		return err
	}
	return printScore(cmd.OutOrStdout(), inst, cfg)
}

func printScore(w io.Writer, inst problem.Instance, cfg config.SolverConfig) error {
	info, err := inst.Score(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Score:       %s\n", info.Score)
	fmt.Fprintf(w, "Feasible:    %v\n", info.Feasible)
	fmt.Fprintf(w, "Initialized: %v\n", info.Initialized)
	return nil
}

func runExplain(cmd *cobra.Command, args []string) error {
	inst, cfg, err := loadScoreInput()
	if err != nil {
		return err
	}
	if !explainJSON {
		report, err := inst.Explain(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Summary)
		return nil
	}
	return printExplanationJSON(cmd.OutOrStdout(), inst, cfg)
}

func printExplanationJSON(w io.Writer, inst problem.Instance, cfg config.SolverConfig) error {
	report, err := inst.Explain(cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report.View)
}
