package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/aimerge"
	"github.com/braidhq/braid/internal/braiderrs"
	"github.com/braidhq/braid/internal/orchestrator"
)

func newMergeCmd() *cobra.Command {
	var spec string
	var noCommit, keepWorktree bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Resolve conflicts and merge a spec's worktree back",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				return fmt.Errorf("--spec is required")
			}

			p, err := loadProject()
			if err != nil {
				return err
			}

			// No AI caller is wired by default; absence routes through
			// aimerge's null object straight to the deterministic
			// heuristic fallback rather than failing outright.
			orch, err := orchestrator.New(p.root, p.cfg, p.main, aimerge.NullCaller())
			if err != nil {
				return err
			}

			outcome, err := orch.Merge(context.Background(), spec, orchestrator.Options{
				DeleteAfter: !keepWorktree,
				NoCommit:    noCommit,
			})
			if err != nil {
				return err
			}

			if !outcome.Success {
				fmt.Printf("merge incomplete for %q: %d file(s) resolved, %d unresolved\n",
					spec, len(outcome.ResolvedFiles), len(outcome.RemainingConflicts))
				for _, c := range outcome.RemainingConflicts {
					fmt.Printf("  %s: %s\n", c.File, c.Reason)
				}
				return braiderrs.AIResolveFailed(spec, fmt.Sprintf("%d file(s) left unresolved", len(outcome.RemainingConflicts)))
			}

			fmt.Printf("merged %q: %d file(s) (%d clean, %d AI-resolved, %d heuristic)\n",
				spec, len(outcome.ResolvedFiles), outcome.Stats.CleanMerged, outcome.Stats.AIResolved, outcome.Stats.Heuristic)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "spec name")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "stage the merge without committing")
	cmd.Flags().BoolVar(&keepWorktree, "keep-worktree", false, "don't remove the worktree after a successful merge")
	return cmd
}
