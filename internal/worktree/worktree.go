// Package worktree owns the lifecycle of per-spec worktrees and their
// branches: creation, lookup, change summaries, and the final merge of a
// spec's branch back into the base branch.
package worktree

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/vcs"
)

// Info describes one spec's worktree.
type Info struct {
	SpecName   string
	Path       string
	Branch     string
	BaseBranch string
}

// ChangeSummary counts files changed in a spec's worktree relative to its
// base branch.
type ChangeSummary struct {
	NewFiles      int
	ModifiedFiles int
	DeletedFiles  int
}

// Manager owns worktree creation, lookup, and merge for a single project.
type Manager struct {
	projectRoot string
	cfg         *config.Config
	main        *vcs.Context
	logger      *slog.Logger
}

// New creates a Manager rooted at projectRoot, operating on the main
// checkout's VCS context.
func New(projectRoot string, cfg *config.Config, main *vcs.Context) *Manager {
	return &Manager{projectRoot: projectRoot, cfg: cfg, main: main, logger: slog.Default()}
}

// GetOrCreateWorktree returns spec's worktree, creating its branch and
// worktree directory from the current base branch if one does not
// already exist. Idempotent: calling it twice in sequence returns the
// same Info and creates the branch/directory exactly once.
func (m *Manager) GetOrCreateWorktree(spec string) (*Info, error) {
	if info, err := m.GetWorktreeInfo(spec); err != nil {
		return nil, err
	} else if info != nil {
		return info, nil
	}

	baseBranch, err := m.main.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("determine base branch: %w", err)
	}

	branch := BranchName(m.cfg, spec)
	path := Path(m.projectRoot, m.cfg, spec)

	if m.main.BranchExists(branch) {
		if err := m.main.WorktreeAddExisting(path, branch); err != nil {
			return nil, fmt.Errorf("add worktree for existing branch %s: %w", branch, err)
		}
	} else if err := m.main.WorktreeAdd(path, branch, baseBranch); err != nil {
		return nil, fmt.Errorf("create worktree for %s: %w", spec, err)
	}

	return &Info{SpecName: spec, Path: path, Branch: branch, BaseBranch: baseBranch}, nil
}

// GetWorktreeInfo returns spec's current worktree, or nil if none exists.
// A worktree only "exists" when the VCS lists a worktree at spec's path
// and that directory is present on disk with a readable .git pointer; a
// registration without its directory is reported as absent so callers
// recreate cleanly rather than operate on a half-present worktree. The
// listed entry's branch is not compared against spec's branch name.
func (m *Manager) GetWorktreeInfo(spec string) (*Info, error) {
	branch := BranchName(m.cfg, spec)
	path := Path(m.projectRoot, m.cfg, spec)

	entries, err := m.main.WorktreeList()
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	for _, e := range entries {
		if e.Path != path {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, nil
		}
		// A registered worktree whose .git entry is missing or is not a
		// "gitdir:" pointer is a stale/corrupt registration; treat it the
		// same as "absent" so callers recreate it cleanly rather than
		// operate against it. Whether the pointer's target directory
		// exists is not checked.
		if _, err := vcs.ResolveGitDir(path); err != nil {
			m.logger.Warn("worktree: stale gitdir pointer, treating as absent", "spec", spec, "path", path, "error", err)
			return nil, nil
		}
		baseBranch, _ := m.main.CurrentBranch()
		return &Info{SpecName: spec, Path: path, Branch: branch, BaseBranch: baseBranch}, nil
	}
	return nil, nil
}

// ListAllWorktrees returns Info for every braid-managed worktree
// registered against the project (those whose branch carries the
// configured branch prefix).
func (m *Manager) ListAllWorktrees() ([]*Info, error) {
	entries, err := m.main.WorktreeList()
	if err != nil {
		return nil, fmt.Errorf("list worktrees: %w", err)
	}

	baseBranch, _ := m.main.CurrentBranch()

	var infos []*Info
	for _, e := range entries {
		spec := SpecFromBranch(m.cfg, e.Branch)
		if spec == "" {
			continue
		}
		infos = append(infos, &Info{SpecName: spec, Path: e.Path, Branch: e.Branch, BaseBranch: baseBranch})
	}
	return infos, nil
}

// GetChangeSummary counts the files a spec's worktree added, modified, or
// deleted relative to its base branch.
func (m *Manager) GetChangeSummary(spec string) (*ChangeSummary, error) {
	statuses, err := m.GetChangedFiles(spec)
	if err != nil {
		return nil, err
	}
	summary := &ChangeSummary{}
	for _, s := range statuses {
		switch s.Status {
		case "added":
			summary.NewFiles++
		case "deleted":
			summary.DeletedFiles++
		default:
			summary.ModifiedFiles++
		}
	}
	return summary, nil
}

// GetChangedFiles returns the file-level diff of spec's branch against
// its base branch.
func (m *Manager) GetChangedFiles(spec string) ([]vcs.FileStatus, error) {
	info, err := m.GetWorktreeInfo(spec)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("no worktree for spec %q", spec)
	}
	return m.main.DiffNameStatus(info.BaseBranch, info.Branch)
}

// MergeWorktree merges spec's branch into the current (base) branch of
// the main checkout. Returns true iff the merge completed with no
// unresolved conflicts. If noCommit is set, a clean merge is left staged
// rather than committed. On a clean merge with deleteAfter set, the
// worktree and branch are removed afterward.
func (m *Manager) MergeWorktree(spec string, deleteAfter, noCommit bool) (bool, error) {
	info, err := m.GetWorktreeInfo(spec)
	if err != nil {
		return false, err
	}
	if info == nil {
		return false, fmt.Errorf("no worktree for spec %q", spec)
	}

	hasConflict, err := m.main.MergeBranch(info.Branch, noCommit)
	if err != nil {
		return false, fmt.Errorf("merge branch %s: %w", info.Branch, err)
	}
	if hasConflict {
		return false, nil
	}

	if deleteAfter {
		if err := m.RemoveWorktree(spec, true); err != nil {
			m.logger.Warn("merge succeeded but worktree cleanup failed", "spec", spec, "error", err)
		}
	}
	return true, nil
}

// RemoveWorktree removes spec's worktree directory and, if deleteBranch
// is set, its branch. Best-effort: failures are returned but the caller
// may treat them as non-fatal cleanup noise.
func (m *Manager) RemoveWorktree(spec string, deleteBranch bool) error {
	info, err := m.GetWorktreeInfo(spec)
	if err != nil {
		return err
	}
	if info == nil {
		return nil
	}

	if err := m.main.WorktreeRemove(info.Path, true); err != nil {
		return fmt.Errorf("remove worktree %s: %w", info.Path, err)
	}

	if deleteBranch {
		if err := m.main.DeleteBranch(info.Branch, true); err != nil {
			m.logger.Warn("worktree removed but branch delete failed", "branch", info.Branch, "error", err)
		}
	}
	return nil
}
