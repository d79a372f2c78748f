package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/braidhq/braid/internal/plan"
	"github.com/braidhq/braid/internal/policy"
	"github.com/braidhq/braid/internal/worktree"
)

func newBuildCmd() *cobra.Command {
	var spec string
	var forceIsolated, forceDirect, autoContinue bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Create or reuse a spec's isolated worktree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if spec == "" {
				return fmt.Errorf("--spec is required")
			}

			p, err := loadProject()
			if err != nil {
				return err
			}

			clean, err := p.main.IsClean()
			if err != nil {
				return fmt.Errorf("check working tree: %w", err)
			}

			decision := policy.Decide(policy.Inputs{
				ProjectHasUncommittedChanges: !clean,
				ForceIsolated:                forceIsolated,
				ForceDirect:                  forceDirect,
				AutoContinue:                 autoContinue,
			})

			if decision == policy.Direct {
				fmt.Printf("building %q directly against %s (no worktree)\n", spec, p.root)
				return nil
			}

			mgr := worktree.New(p.root, p.cfg, p.main)
			info, err := mgr.GetOrCreateWorktree(spec)
			if err != nil {
				return fmt.Errorf("create worktree: %w", err)
			}
			fmt.Printf("worktree ready for %q: %s (branch %s)\n", spec, info.Path, info.Branch)

			if err := recordTaskStart(p, spec, info); err != nil {
				fmt.Printf("warning: could not register timeline for %q: %v\n", spec, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "spec", "", "spec name")
	cmd.Flags().BoolVar(&forceIsolated, "force-isolated", false, "always build in an isolated worktree")
	cmd.Flags().BoolVar(&forceDirect, "force-direct", false, "always build directly against the current checkout")
	cmd.Flags().BoolVar(&autoContinue, "auto-continue", false, "running unattended; prefer isolation")
	return cmd
}

// recordTaskStart reads spec's implementation plan, if the external tool
// that produces it has written one yet, and registers the task's intent,
// branch point, and planned files with the Timeline Tracker. A missing
// plan file is not an error — braid can still merge without one, just
// without task-intent context in the AI merge prompt.
func recordTaskStart(p *project, spec string, info *worktree.Info) error {
	planPath := p.planPath(spec)
	loaded, err := plan.Read(planPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	branchPoint, err := p.main.MergeBase(info.BaseBranch, info.Branch)
	if err != nil {
		return fmt.Errorf("resolve branch point: %w", err)
	}

	tt, err := p.timelineTracker()
	if err != nil {
		return err
	}

	intent := loaded.Title
	if loaded.Description != "" {
		intent = intent + ": " + loaded.Description
	}
	return tt.OnTaskStart(spec, loaded.Title, intent, branchPoint, loaded.AllFiles())
}
