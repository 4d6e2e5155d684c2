package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/classtable-engine/internal/service"
	"github.com/noah-isme/classtable-engine/pkg/export"
)

var (
	solveInstanceID    string
	solveSolutionLimit int
	solveTimeLimit     int
	solveSeed          int64
	solveExport        bool
	solveExportFormat  string
	solvePersist       bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run one solve against a stored instance",
	Long: `solve loads an instance by id, runs the constructive search, and
prints the ranked candidates. Use --export to render the top candidate as
a CSV or PDF grid, and --persist to commit the run to storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if current == nil {
			return fmt.Errorf("application not initialized")
		}
		if solveInstanceID == "" {
			return fmt.Errorf("--instance is required")
		}

		req := service.SolveRequest{
			InstanceID:       solveInstanceID,
			SolutionLimit:    solveSolutionLimit,
			TimeLimitSeconds: solveTimeLimit,
			Seed:             solveSeed,
			HasSeed:          cmd.Flags().Changed("seed"),
		}

		outcome, proposalID, err := current.solves.Solve(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Printf("status: %s\n", outcome.Status)
		if outcome.Reason != "" {
			fmt.Printf("reason: %s\n", outcome.Reason)
		}
		fmt.Printf("candidates: %d (partial=%t, elapsed=%s)\n", len(outcome.Candidates), outcome.Partial, outcome.Elapsed)
		for i, candidate := range outcome.Candidates {
			fmt.Printf("  #%d score=%d assignments=%d teacherWorkloadStdev=%.2f gaps=%d\n",
				i, candidate.TotalScore, len(candidate.Assignments), candidate.Metrics.TeacherWorkloadStdev, candidate.Metrics.GapsCount)
		}

		if solveExport && len(outcome.Candidates) > 0 {
			instance, loadErr := current.instanceForExport(cmd.Context(), solveInstanceID)
			if loadErr != nil {
				return loadErr
			}
			dataset := export.CandidateDataset(outcome.Candidates[0], instance)
			result, exportErr := current.exports.Generate(proposalID, "Weekly Timetable", dataset, solveExportFormat)
			if exportErr != nil {
				return exportErr
			}
			fmt.Printf("exported top candidate: %s (expires %s)\n", result.URL, result.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
		}

		if solvePersist {
			runID, err := current.solves.Persist(cmd.Context(), proposalID)
			if err != nil {
				return err
			}
			fmt.Printf("persisted as solve run %s\n", runID)
		} else {
			fmt.Printf("proposal id: %s (not persisted; rerun with --persist)\n", proposalID)
		}

		return nil
	},
}

func init() {
	solveCmd.Flags().StringVar(&solveInstanceID, "instance", "", "instance id to solve")
	solveCmd.Flags().IntVar(&solveSolutionLimit, "limit", 5, "maximum number of ranked candidates")
	solveCmd.Flags().IntVar(&solveTimeLimit, "time-limit", 300, "time budget in seconds")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "deterministic seed (defaults to a fixed seed, 42, for reproducibility)")
	solveCmd.Flags().BoolVar(&solveExport, "export", false, "render the top candidate and print a signed download URL")
	solveCmd.Flags().StringVar(&solveExportFormat, "export-format", "csv", "csv or pdf")
	solveCmd.Flags().BoolVar(&solvePersist, "persist", false, "commit the result as a new solve run")
	rootCmd.AddCommand(solveCmd)
}
