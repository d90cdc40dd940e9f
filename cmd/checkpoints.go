package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MarcyGO/optaplanner/internal/store"
	"github.com/spf13/cobra"
)

var (
	checkpointDataDir string
	listJSON          bool
	keepLast          int
	olderThanDays     int
	forceClean        bool
)

var checkpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Manage job checkpoints",
	Long: `Manage job checkpoints including listing and cleaning old checkpoints.
A checkpoint holds the best solution of a job, so 'planner resume' can
continue solving from it.`,
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available checkpoints",
	Long:  `Display all checkpoints, newest first, with their problem, step, best score and directory size.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listCheckpoints(cmd.OutOrStdout(), checkpointDataDir, listJSON)
	},
}

var cleanCheckpointsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old checkpoints",
	Long: `Delete old checkpoints based on retention policy.
Keep only the newest N checkpoints, delete checkpoints older than N days, or both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := retentionPolicy{keepLast: keepLast, olderThanDays: olderThanDays}
		return cleanCheckpoints(cmd.OutOrStdout(), cmd.InOrStdin(), checkpointDataDir, policy, forceClean)
	},
}

func init() {
	rootCmd.AddCommand(checkpointsCmd)
	checkpointsCmd.AddCommand(listCheckpointsCmd)
	checkpointsCmd.AddCommand(cleanCheckpointsCmd)

	checkpointsCmd.PersistentFlags().StringVar(&checkpointDataDir, "data-dir", "./data", "Base directory for checkpoint storage")

	listCheckpointsCmd.Flags().BoolVar(&listJSON, "json", false, "Print checkpoints as JSON")

	cleanCheckpointsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N checkpoints (0 = keep all)")
	cleanCheckpointsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete checkpoints older than N days (0 = no age limit)")
	cleanCheckpointsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func listCheckpoints(w io.Writer, dataDir string, asJSON bool) error {
	checkpointStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(w, "No checkpoints found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB ID\tPROBLEM\tTIMESTAMP\tSTEP\tBEST SCORE\tFEASIBLE\tSIZE")
	for _, info := range infos {
		size := "unknown"
		if n, err := getDirSize(filepath.Join(checkpointStore.BaseDir(), "jobs", info.JobID)); err == nil {
			size = formatBytes(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
			shortID(info.JobID),
			info.Problem,
			info.Timestamp.Format(time.DateTime),
			info.Step,
			info.BestScore,
			info.Feasible,
			size,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotal checkpoints: %d\n", len(infos))
	return nil
}

// retentionPolicy says which checkpoints clean deletes. Zero fields are
// disabled.
type retentionPolicy struct {
	keepLast      int
	olderThanDays int
}

func (p retentionPolicy) empty() bool { return p.keepLast == 0 && p.olderThanDays == 0 }

// cleanCheckpoints deletes the checkpoints the policy selects, after asking on
// in unless force is set.
func cleanCheckpoints(w io.Writer, in io.Reader, dataDir string, policy retentionPolicy, force bool) error {
	if policy.empty() {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	checkpointStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	infos, err := checkpointStore.ListCheckpoints()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}

	toDelete := selectCheckpointsForDeletion(infos, policy.keepLast, policy.olderThanDays)
	if len(toDelete) == 0 {
		fmt.Fprintln(w, "No checkpoints match deletion criteria.")
		return nil
	}

	fmt.Fprintf(w, "Found %d checkpoint(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(w, "  - %s (%s, step %d, %s)\n",
			shortID(info.JobID),
			info.Problem,
			info.Step,
			info.Timestamp.Format(time.DateTime),
		)
	}

	if !force && !confirm(w, in, "\nProceed with deletion? [y/N]: ") {
		fmt.Fprintln(w, "Aborted.")
		return nil
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := checkpointStore.DeleteCheckpoint(info.JobID); err != nil {
			slog.Error("Failed to delete checkpoint", "job_id", info.JobID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted checkpoint", "job_id", info.JobID)
		deleted++
	}

	fmt.Fprintf(w, "\nDeleted %d checkpoint(s), %d failed.\n", deleted, failed)
	return nil
}

func confirm(w io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprint(w, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

// selectCheckpointsForDeletion returns the checkpoints older than
// olderThanDays plus the oldest ones beyond the newest keepLast, each once.
func selectCheckpointsForDeletion(infos []store.CheckpointInfo, keepLast int, olderThanDays int) []store.CheckpointInfo {
	var toDelete []store.CheckpointInfo
	selected := make(map[string]bool)
	add := func(info store.CheckpointInfo) {
		if !selected[info.JobID] {
			selected[info.JobID] = true
			toDelete = append(toDelete, info)
		}
	}

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				add(info)
			}
		}
	}

	// Each job has a single checkpoint, so keepLast counts jobs.
	if keepLast > 0 && len(infos) > keepLast {
		oldestFirst := slices.Clone(infos)
		slices.SortFunc(oldestFirst, func(a, b store.CheckpointInfo) int { return a.Timestamp.Compare(b.Timestamp) })
		for _, info := range oldestFirst[:len(oldestFirst)-keepLast] {
			add(info)
		}
	}

	return toDelete
}

func shortID(jobID string) string {
	if len(jobID) > 12 {
		return jobID[:12] + "..."
	}
	return jobID
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
