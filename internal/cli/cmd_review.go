package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/conflict"
	"github.com/braidhq/braid/internal/worktree"
)

func newReviewCmd() *cobra.Command {
	var spec string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Preview likely conflicts and change summary before merging",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				return fmt.Errorf("--spec is required")
			}

			p, err := loadProject()
			if err != nil {
				return err
			}

			mgr := worktree.New(p.root, p.cfg, p.main)
			info, err := mgr.GetWorktreeInfo(spec)
			if err != nil {
				return fmt.Errorf("lookup worktree: %w", err)
			}
			if info == nil {
				return fmt.Errorf("no worktree for spec %q (run `braid build --spec %s` first)", spec, spec)
			}

			summary, err := mgr.GetChangeSummary(spec)
			if err != nil {
				return fmt.Errorf("summarize changes: %w", err)
			}
			fmt.Printf("%q: %d new, %d modified, %d deleted (against %s)\n",
				spec, summary.NewFiles, summary.ModifiedFiles, summary.DeletedFiles, info.BaseBranch)

			classifier := conflict.New(p.main)
			conflicts, err := classifier.CheckGitConflicts(info.BaseBranch, info.Branch)
			if err != nil {
				return fmt.Errorf("check conflicts: %w", err)
			}
			if len(conflicts) == 0 {
				fmt.Println("no conflicts detected; merge should apply cleanly")
				return nil
			}

			fmt.Printf("%d file(s) likely to conflict:\n", len(conflicts))
			for _, c := range conflicts {
				fmt.Printf("  %s (%s)\n", c.File, c.Severity)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "spec name")
	return cmd
}
