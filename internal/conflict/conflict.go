// Package conflict classifies divergence between a spec branch and its
// base branch, in two modes: a non-destructive git-level probe via
// merge-tree, and a semantic preview over a set of planned files before
// any branch even exists yet.
package conflict

import (
	"fmt"

	"github.com/braidhq/braid/internal/vcs"
)

// Severity ranks how serious a conflict is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Conflict is one file-level conflict finding.
type Conflict struct {
	File         string
	Location     string
	Reason       string
	Severity     Severity
	CanAutoMerge bool
}

// Classifier detects and describes conflicts for a repository's main
// checkout.
type Classifier struct {
	main *vcs.Context
}

// New creates a Classifier operating on main's checkout.
func New(main *vcs.Context) *Classifier {
	return &Classifier{main: main}
}

// CheckGitConflicts computes the merge-base of baseBranch and
// specBranch, then probes a non-destructive three-way merge
// (git merge-tree) between them. Conflicts are parsed from its CONFLICT
// lines only: when the probe fails but names no conflicting file, no
// conflict is returned, and the files changed on each side are not
// compared. Never touches the working tree or index.
func (c *Classifier) CheckGitConflicts(baseBranch, specBranch string) ([]Conflict, error) {
	mergeBase, err := c.main.MergeBase(baseBranch, specBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve merge-base: %w", err)
	}

	result, err := c.main.MergeTree(mergeBase, baseBranch, specBranch)
	if err != nil {
		return nil, fmt.Errorf("merge-tree probe: %w", err)
	}

	if !result.HasConflict {
		return nil, nil
	}

	conflicts := make([]Conflict, 0, len(result.ConflictFiles))
	for _, f := range result.ConflictFiles {
		conflicts = append(conflicts, Conflict{
			File:         f,
			Reason:       "git-level merge conflict",
			Severity:     SeverityHigh,
			CanAutoMerge: false,
		})
	}
	return conflicts, nil
}

// PreviewResult is the outcome of a semantic preview over planned
// changes, before a spec branch necessarily exists.
type PreviewResult struct {
	PlannedFiles []string
	Conflicts    []Conflict
}

// PreviewMerge estimates which of plannedFiles are likely to conflict:
// a file touched on both baseBranch and specBranch since their
// merge-base is flagged as a semantic conflict requiring attention,
// since this mode never runs an actual three-way merge to know whether
// the edits would actually collide.
func (c *Classifier) PreviewMerge(plannedFiles []string, baseBranch, specBranch string) (*PreviewResult, error) {
	mergeBase, err := c.main.MergeBase(baseBranch, specBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve merge-base: %w", err)
	}

	mainChanged, err := c.main.DiffNameStatus(mergeBase, baseBranch)
	if err != nil {
		return nil, fmt.Errorf("diff base: %w", err)
	}
	specChanged, err := c.main.DiffNameStatus(mergeBase, specBranch)
	if err != nil {
		return nil, fmt.Errorf("diff spec: %w", err)
	}

	mainTouched := toSet(mainChanged)
	specTouched := toSet(specChanged)

	result := &PreviewResult{PlannedFiles: plannedFiles}
	for _, f := range plannedFiles {
		if mainTouched[f] && specTouched[f] {
			result.Conflicts = append(result.Conflicts, Conflict{
				File:         f,
				Reason:       "both branches modified this file since diverging",
				Severity:     SeverityMedium,
				CanAutoMerge: false,
			})
		}
	}
	return result, nil
}

func toSet(statuses []vcs.FileStatus) map[string]bool {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s.Path] = true
		if s.OldPath != "" {
			set[s.OldPath] = true
		}
	}
	return set
}
