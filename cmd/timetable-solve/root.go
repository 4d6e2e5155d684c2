package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

type correlationIDKey struct{}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "timetable-solve",
	Short: "Generate and serve weekly class timetables",
	Long: `timetable-solve runs the constraint-satisfaction timetable engine
against a stored school instance, producing ranked conflict-free weekly
schedules.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if current == nil {
			return
		}
		correlationID := uuid.NewString()
		cmd.SetContext(context.WithValue(cmd.Context(), correlationIDKey{}, correlationID))
		current.logger.Info("command start",
			zap.String("command", cmd.CommandPath()),
			zap.String("correlation_id", correlationID),
		)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging (parsed but not read by any subcommand)")
}
