// Package vcs provides a thin typed interface over the version-control tool
// (git) used by braid's worktree, conflict, and merge components. It never
// implements merge algorithms itself — it only shells out to git and parses
// the result, per spec.md's explicit Non-goal of reimplementing a VCS.
package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Context manages VCS operations for a repository (or one of its worktrees).
type Context struct {
	repoPath string
	workDir  string
	runner   CommandRunner
}

// Option configures a Context.
type Option func(*Context)

// WithRunner injects a custom CommandRunner, primarily for tests.
func WithRunner(r CommandRunner) Option {
	return func(c *Context) { c.runner = r }
}

// NewContext creates a Context rooted at repoPath, verifying it is a git
// repository.
func NewContext(repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	c := &Context{repoPath: absPath, workDir: absPath, runner: NewExecRunner()}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := c.runGit("rev-parse", "--git-dir"); err != nil {
		return nil, ErrNotGitRepo
	}

	return c, nil
}

func (c *Context) runGit(args ...string) (string, error) {
	return c.runner.Run(c.workDir, "git", args...)
}

// RepoPath returns the path to the main repository.
func (c *Context) RepoPath() string { return c.repoPath }

// WorkDir returns the directory commands are run from.
func (c *Context) WorkDir() string { return c.workDir }

// InDir returns a new Context that runs commands from dir (e.g. a worktree),
// sharing the same repo path and runner.
func (c *Context) InDir(dir string) *Context {
	return &Context{repoPath: c.repoPath, workDir: dir, runner: c.runner}
}

// CurrentBranch returns the current branch name.
func (c *Context) CurrentBranch() (string, error) {
	out, err := c.runGit("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &GitError{Op: "current branch", Output: out, Err: err}
	}
	return out, nil
}

// RevParse resolves ref to a commit SHA.
func (c *Context) RevParse(ref string) (string, error) {
	out, err := c.runGit("rev-parse", ref)
	if err != nil {
		return "", &GitError{Op: "rev-parse " + ref, Output: out, Err: err}
	}
	return out, nil
}

// MergeBase returns the merge-base commit of a and b.
func (c *Context) MergeBase(a, b string) (string, error) {
	out, err := c.runGit("merge-base", a, b)
	if err != nil {
		return "", &GitError{Op: "merge-base", Output: out, Err: err}
	}
	return out, nil
}

// BranchExists reports whether a local branch exists.
func (c *Context) BranchExists(branch string) bool {
	_, err := c.runGit("show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// CreateBranch creates branch at baseBranch (or HEAD if baseBranch is empty).
func (c *Context) CreateBranch(branch, baseBranch string) error {
	args := []string{"branch", branch}
	if baseBranch != "" {
		args = append(args, baseBranch)
	}
	if out, err := c.runGit(args...); err != nil {
		if strings.Contains(out, "already exists") {
			return ErrBranchExists
		}
		return &GitError{Op: "create branch", Output: out, Err: err}
	}
	return nil
}

// DeleteBranch deletes a branch. force uses -D instead of -d.
func (c *Context) DeleteBranch(branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if out, err := c.runGit("branch", flag, branch); err != nil {
		return &GitError{Op: "delete branch", Output: out, Err: err}
	}
	return nil
}

// Stage adds files to the index.
func (c *Context) Stage(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	if out, err := c.runGit(args...); err != nil {
		return &GitError{Op: "stage", Output: out, Err: err}
	}
	return nil
}

// StageRemoval stages the removal of a deleted file.
func (c *Context) StageRemoval(path string) error {
	if out, err := c.runGit("rm", "--quiet", "--ignore-unmatch", "--", path); err != nil {
		return &GitError{Op: "stage removal", Output: out, Err: err}
	}
	return nil
}

// Commit creates a commit with the given message.
func (c *Context) Commit(message string) error {
	out, err := c.runGit("commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") {
			return ErrNothingToCommit
		}
		return &GitError{Op: "commit", Output: out, Err: err}
	}
	return nil
}

// Status returns porcelain short-format status.
func (c *Context) Status() (string, error) {
	out, err := c.runGit("status", "--short")
	if err != nil {
		return "", &GitError{Op: "status", Output: out, Err: err}
	}
	return out, nil
}

// IsClean reports whether the working tree has no uncommitted changes.
func (c *Context) IsClean() (bool, error) {
	s, err := c.Status()
	if err != nil {
		return false, err
	}
	return s == "", nil
}

// HeadCommit returns the current HEAD commit SHA.
func (c *Context) HeadCommit() (string, error) {
	return c.RevParse("HEAD")
}

// FileStatus describes one entry from a name-status diff.
type FileStatus struct {
	Status  string // added, modified, deleted, renamed, copied
	Path    string
	OldPath string // set for renames/copies
}

// DiffNameStatus returns the set of files that differ between base and
// head, with their change kind, via `git diff --name-status -M`.
func (c *Context) DiffNameStatus(base, head string) ([]FileStatus, error) {
	out, err := c.runGit("diff", "--name-status", "-M", base+"..."+head)
	if err != nil {
		return nil, &GitError{Op: "diff name-status", Output: out, Err: err}
	}
	return parseNameStatus(out), nil
}

func parseNameStatus(output string) []FileStatus {
	var result []FileStatus
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		code := parts[0]
		var fs FileStatus
		switch {
		case code == "A":
			fs = FileStatus{Status: "added", Path: parts[1]}
		case code == "D":
			fs = FileStatus{Status: "deleted", Path: parts[1]}
		case code == "M":
			fs = FileStatus{Status: "modified", Path: parts[1]}
		case strings.HasPrefix(code, "R"):
			if len(parts) >= 3 {
				fs = FileStatus{Status: "renamed", OldPath: parts[1], Path: parts[2]}
			} else {
				fs = FileStatus{Status: "renamed", Path: parts[1]}
			}
		case strings.HasPrefix(code, "C"):
			if len(parts) >= 3 {
				fs = FileStatus{Status: "copied", OldPath: parts[1], Path: parts[2]}
			} else {
				fs = FileStatus{Status: "copied", Path: parts[1]}
			}
		default:
			fs = FileStatus{Status: "modified", Path: parts[1]}
		}
		result = append(result, fs)
	}
	return result
}

// ShowRefPath returns the content of path as it exists at ref (`git show
// ref:path`). Returns os.ErrNotExist-compatible error when the path does not
// exist at ref.
func (c *Context) ShowRefPath(ref, path string) (string, error) {
	out, err := c.runGit("show", ref+":"+path)
	if err != nil {
		if strings.Contains(out, "does not exist") || strings.Contains(out, "exists on disk, but not in") {
			return "", os.ErrNotExist
		}
		return "", &GitError{Op: "show " + ref + ":" + path, Output: out, Err: err}
	}
	return out, nil
}

// LogSubjectsTouching returns the commit subjects on ref since sinceCommit
// that touched path, most recent first. Used by the Timeline Tracker to
// compute main-branch evolution for a file.
func (c *Context) LogSubjectsTouching(sinceCommit, ref, path string) ([]string, error) {
	out, err := c.runGit("log", "--pretty=format:%s", sinceCommit+".."+ref, "--", path)
	if err != nil {
		return nil, &GitError{Op: "log", Output: out, Err: err}
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// CommitsBehind returns the number of commits ref has that sinceCommit does
// not (i.e. how far behind sinceCommit is from ref).
func (c *Context) CommitsBehind(sinceCommit, ref string) (int, error) {
	out, err := c.runGit("rev-list", "--count", sinceCommit+".."+ref)
	if err != nil {
		return 0, &GitError{Op: "rev-list --count", Output: out, Err: err}
	}
	var n int
	if _, scanErr := fmt.Sscanf(out, "%d", &n); scanErr != nil {
		return 0, &GitError{Op: "parse rev-list count", Output: out, Err: scanErr}
	}
	return n, nil
}
