package vcs

import "errors"

// Sentinel errors surfaced by Context operations.
var (
	ErrNotGitRepo       = errors.New("not a git repository")
	ErrWorktreeExists   = errors.New("worktree already exists for this branch")
	ErrWorktreeNotFound = errors.New("worktree not found")
	ErrBranchExists     = errors.New("branch already exists")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrNothingToCommit  = errors.New("nothing to commit")
)

// GitError wraps a failed VCS operation with the operation name.
type GitError struct {
	Op     string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

func (e *GitError) Unwrap() error {
	return e.Err
}
