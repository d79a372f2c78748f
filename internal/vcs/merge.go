package vcs

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MergeTreeResult is the outcome of a non-destructive three-way merge
// probe.
type MergeTreeResult struct {
	TreeOID        string
	ConflictFiles  []string
	HasConflict    bool
	CleanlyMergeable bool
}

var conflictLineRe = regexp.MustCompile(`(?m)^CONFLICT \([^)]+\): .*? in (.+)$`)

// MergeTree probes whether ours and theirs can be merged cleanly against
// base without touching the working tree or the index, using
// `git merge-tree --write-tree`, whose CONFLICT messages name the
// conflicting files. This is the preferred
// conflict-detection path: it never requires checking out a branch or
// leaving an in-progress merge state to clean up.
func (c *Context) MergeTree(base, ours, theirs string) (*MergeTreeResult, error) {
	out, err := c.runGit("merge-tree", "--write-tree", "--merge-base", base, ours, theirs)
	if err != nil {
		// git merge-tree exits non-zero when there are conflicts; the
		// runner still returns output in that case via CommandError.
		if ce, ok := err.(*CommandError); ok {
			return parseMergeTreeOutput(ce.Output), nil
		}
		return c.detectConflictsViaMerge(base, ours, theirs)
	}
	return parseMergeTreeOutput(out), nil
}

func parseMergeTreeOutput(out string) *MergeTreeResult {
	lines := strings.SplitN(out, "\n", 2)
	result := &MergeTreeResult{TreeOID: strings.TrimSpace(lines[0])}

	matches := conflictLineRe.FindAllStringSubmatch(out, -1)
	seen := make(map[string]bool)
	for _, m := range matches {
		f := strings.TrimSpace(m[1])
		if !seen[f] {
			seen[f] = true
			result.ConflictFiles = append(result.ConflictFiles, f)
		}
	}
	result.HasConflict = len(result.ConflictFiles) > 0
	result.CleanlyMergeable = !result.HasConflict
	return result
}

// MergeBranch merges branch into the current branch of the checkout c is
// rooted at. If noCommit is set, the merge is staged (`--no-commit`) but
// never committed, leaving the caller free to inspect or amend it. Returns
// hasConflict=true when the merge left unmerged paths; the merge is left
// in place either way (unlike detectConflictsViaMerge, this is a real
// merge the caller asked for, not a probe).
func (c *Context) MergeBranch(branch string, noCommit bool) (hasConflict bool, err error) {
	args := []string{"merge", "--no-ff"}
	if noCommit {
		args = append(args, "--no-commit")
	}
	args = append(args, branch)

	out, mergeErr := c.runGit(args...)
	if mergeErr == nil {
		return false, nil
	}

	names, _ := c.runGit("diff", "--name-only", "--diff-filter=U")
	if names != "" {
		return true, nil
	}
	return false, &GitError{Op: "merge branch", Output: out, Err: mergeErr}
}

// detectConflictsViaMerge is the fallback conflict-detection path for git
// versions where `merge-tree --write-tree` is unavailable. It performs a
// real no-commit, no-fast-forward merge attempt and always unwinds it
// afterward, regardless of outcome.
func (c *Context) detectConflictsViaMerge(base, ours, theirs string) (*MergeTreeResult, error) {
	origBranch, err := c.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if _, err := c.runGit("checkout", ours); err != nil {
		return nil, &GitError{Op: "checkout for merge probe", Err: err}
	}
	defer func() {
		_, _ = c.runGit("merge", "--abort")
		_, _ = c.runGit("checkout", origBranch)
	}()

	out, mergeErr := c.runGit("merge", "--no-commit", "--no-ff", theirs)
	result := &MergeTreeResult{}
	if mergeErr != nil {
		names, _ := c.runGit("diff", "--name-only", "--diff-filter=U")
		if names != "" {
			result.ConflictFiles = strings.Split(names, "\n")
		}
		result.HasConflict = len(result.ConflictFiles) > 0
		result.CleanlyMergeable = false
		return result, nil
	}
	_ = out
	result.CleanlyMergeable = true
	return result, nil
}

// MergeFileContents performs a three-way textual merge of base/ours/theirs
// via `git merge-file`, returning the merged text with `<<<<<<<` conflict
// markers for any region git could not resolve on its own. The three
// contents are written to temporary files outside the repository tree so
// the merge never touches tracked state.
func (c *Context) MergeFileContents(base, ours, theirs string, labelOurs, labelTheirs string) (merged string, hasConflict bool, err error) {
	tmpDir, err := os.MkdirTemp("", "braid-merge-file-*")
	if err != nil {
		return "", false, err
	}
	defer os.RemoveAll(tmpDir)

	oursPath := filepath.Join(tmpDir, "ours")
	basePath := filepath.Join(tmpDir, "base")
	theirsPath := filepath.Join(tmpDir, "theirs")

	if err := os.WriteFile(oursPath, []byte(ours), 0o644); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(basePath, []byte(base), 0o644); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(theirsPath, []byte(theirs), 0o644); err != nil {
		return "", false, err
	}

	if labelOurs == "" {
		labelOurs = "ours"
	}
	if labelTheirs == "" {
		labelTheirs = "theirs"
	}

	out, runErr := c.runner.Run(tmpDir, "git", "merge-file", "-p",
		"-L", labelOurs, "-L", "base", "-L", labelTheirs,
		oursPath, basePath, theirsPath)

	if runErr != nil {
		// git merge-file exits 1 (with the merged, marker-bearing content
		// on stdout) when there were conflicts, and only exits >1 on a
		// genuine failure.
		if ce, ok := runErr.(*CommandError); ok {
			// The runner merges stdout into Output only on failure; for
			// merge-file the "failure" text IS the merged content, so
			// treat any CommandError here as the conflict case rather
			// than a hard error.
			return ce.Output, true, nil
		}
		return "", false, runErr
	}

	return out, false, nil
}
