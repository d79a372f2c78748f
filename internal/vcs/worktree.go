package vcs

import (
	"os"
	"path/filepath"
	"strings"
)

// WorktreeEntry describes one entry from `git worktree list --porcelain`.
type WorktreeEntry struct {
	Path   string
	Head   string
	Branch string // refs/heads/<name>, empty when detached
}

// WorktreeAdd creates a new worktree at path on a new branch, based on
// baseBranch. If the branch already exists, use WorktreeAddExisting instead.
func (c *Context) WorktreeAdd(path, branch, baseBranch string) error {
	args := []string{"worktree", "add", "-b", branch, path}
	if baseBranch != "" {
		args = append(args, baseBranch)
	}
	out, err := c.runGit(args...)
	if err != nil {
		if strings.Contains(out, "already exists") {
			return ErrWorktreeExists
		}
		// A stale registration (directory removed by hand, git still
		// thinks the worktree exists) surfaces as "is already used by
		// worktree". Pruning once and retrying clears it.
		if strings.Contains(out, "is already used by worktree") {
			if _, pruneErr := c.runGit("worktree", "prune"); pruneErr == nil {
				out, err = c.runGit(args...)
				if err == nil {
					return nil
				}
			}
		}
		return &GitError{Op: "worktree add", Output: out, Err: err}
	}
	return nil
}

// WorktreeAddExisting creates a worktree at path checking out an existing
// branch.
func (c *Context) WorktreeAddExisting(path, branch string) error {
	out, err := c.runGit("worktree", "add", path, branch)
	if err != nil {
		if strings.Contains(out, "already exists") {
			return ErrWorktreeExists
		}
		return &GitError{Op: "worktree add existing", Output: out, Err: err}
	}
	return nil
}

// WorktreeRemove removes the worktree at path. force removes it even with
// uncommitted changes.
func (c *Context) WorktreeRemove(path string, force bool) error {
	args := []string{"worktree", "remove", path}
	if force {
		args = append(args, "--force")
	}
	out, err := c.runGit(args...)
	if err != nil {
		if strings.Contains(out, "is not a working tree") {
			return ErrWorktreeNotFound
		}
		return &GitError{Op: "worktree remove", Output: out, Err: err}
	}
	return nil
}

// WorktreePrune removes administrative files for worktrees whose directory
// no longer exists on disk.
func (c *Context) WorktreePrune() error {
	if out, err := c.runGit("worktree", "prune"); err != nil {
		return &GitError{Op: "worktree prune", Output: out, Err: err}
	}
	return nil
}

// WorktreeList lists all worktrees registered against this repository.
func (c *Context) WorktreeList() ([]WorktreeEntry, error) {
	out, err := c.runGit("worktree", "list", "--porcelain")
	if err != nil {
		return nil, &GitError{Op: "worktree list", Output: out, Err: err}
	}
	return parseWorktreeList(out), nil
}

func parseWorktreeList(output string) []WorktreeEntry {
	var entries []WorktreeEntry
	var cur *WorktreeEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				entries = append(entries, *cur)
			}
			cur = &WorktreeEntry{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "HEAD "):
			if cur != nil {
				cur.Head = strings.TrimPrefix(line, "HEAD ")
			}
		case strings.HasPrefix(line, "branch "):
			if cur != nil {
				cur.Branch = strings.TrimPrefix(line, "branch ")
			}
		}
	}
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries
}

// ResolveGitDir returns the real git administrative directory for
// worktreePath. In the main working copy, .git is a directory and is
// returned as-is. In a linked worktree, .git is a file containing a
// "gitdir: <path>" pointer into the main repository's
// .git/worktrees/<name>/ directory; this follows that pointer so callers
// never have to special-case linked worktrees.
func ResolveGitDir(worktreePath string) (string, error) {
	gitPath := filepath.Join(worktreePath, ".git")

	info, err := os.Stat(gitPath)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return gitPath, nil
	}

	data, err := os.ReadFile(gitPath)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", &GitError{Op: "resolve gitdir", Output: line, Err: ErrNotGitRepo}
	}
	target := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(worktreePath, target)
	}
	return filepath.Clean(target), nil
}
