package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/worktree"
)

func newDiscardCmd() *cobra.Command {
	var spec string
	var keepBranch bool

	cmd := &cobra.Command{
		Use:   "discard",
		Short: "Remove a spec's worktree and branch without merging",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				return fmt.Errorf("--spec is required")
			}

			p, err := loadProject()
			if err != nil {
				return err
			}

			mgr := worktree.New(p.root, p.cfg, p.main)
			if err := mgr.RemoveWorktree(spec, !keepBranch); err != nil {
				return fmt.Errorf("discard worktree: %w", err)
			}
			fmt.Printf("discarded worktree for %q\n", spec)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "spec name")
	cmd.Flags().BoolVar(&keepBranch, "keep-branch", false, "keep the spec branch after removing the worktree")
	return cmd
}
