// Package cli implements the braid command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/braidhq/braid/internal/braiderrs"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "braid",
	Short: "Isolated builds and intent-aware merges for AI coding agents",
	Long: `braid gives an AI coding agent its own git worktree per spec, then
merges that work back into the base branch — resolving whatever
conflicts it safely can on its own, and handing back exactly what it
couldn't.

Quick start:
  braid build --spec add-auth     Create or reuse a worktree for a spec
  braid review --spec add-auth    Preview likely conflicts before merging
  braid merge --spec add-auth     Resolve conflicts and merge back
  braid discard --spec add-auth   Remove a spec's worktree and branch`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .braid/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newReviewCmd())
	rootCmd.AddCommand(newDiscardCmd())
	rootCmd.AddCommand(newInitCmd())
}

func initLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command and returns the process exit code: 0 on
// success, or the code for the structured error's category if the
// failure is one braid recognizes, else a generic 1.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if be := braiderrs.As(err); be != nil {
		fmt.Fprintln(os.Stderr, "error:", be.Error())
		if be.Fix != "" {
			fmt.Fprintln(os.Stderr, "fix:", be.Fix)
		}
		return be.Category().ExitCode()
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}
