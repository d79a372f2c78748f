// Package orchestrator wires the worktree manager, conflict classifier,
// AI merge engine, merge lock, and the two trackers into the single
// top-level merge operation: take a spec's worktree, resolve whatever
// the VCS itself can't merge cleanly, and land the result on the base
// branch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/braidhq/braid/internal/aimerge"
	"github.com/braidhq/braid/internal/braiderrs"
	"github.com/braidhq/braid/internal/conflict"
	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/evolution"
	"github.com/braidhq/braid/internal/mergelock"
	"github.com/braidhq/braid/internal/timeline"
	"github.com/braidhq/braid/internal/vcs"
	"github.com/braidhq/braid/internal/worktree"
)

// Options configures one Merge call.
type Options struct {
	DeleteAfter bool // remove the worktree and branch after a clean merge
	NoCommit    bool // stage the merge but leave it uncommitted
}

// Outcome is the result of a Merge call.
type Outcome struct {
	Success            bool
	ResolvedFiles      []string
	RemainingConflicts []conflict.Conflict
	Stats              Stats
}

// Stats breaks down how resolved files were produced.
type Stats struct {
	CleanMerged int
	AIResolved  int
	Heuristic   int
}

// Orchestrator runs the merge algorithm for one project.
type Orchestrator struct {
	projectRoot string
	cfg         *config.Config
	main        *vcs.Context
	worktrees   *worktree.Manager
	classifier  *conflict.Classifier
	engine      *aimerge.Engine
	evolutionTr *evolution.Tracker
	timelineTr  *timeline.Tracker
	logger      *slog.Logger
}

// New builds an Orchestrator rooted at projectRoot. caller may be nil,
// which routes every AI merge attempt straight to the heuristic
// fallback via aimerge's null object.
func New(projectRoot string, cfg *config.Config, main *vcs.Context, caller aimerge.AICaller) (*Orchestrator, error) {
	braidDir := filepath.Join(projectRoot, config.StateDir)

	evolutionTr, err := evolution.Load(filepath.Join(braidDir, "evolution.json"))
	if err != nil {
		return nil, braiderrs.TrackerIOError("evolution", err)
	}
	timelineTr, err := timeline.Load(filepath.Join(braidDir, "timeline.json"))
	if err != nil {
		return nil, braiderrs.TrackerIOError("timeline", err)
	}

	logger := slog.Default()
	return &Orchestrator{
		projectRoot: projectRoot,
		cfg:         cfg,
		main:        main,
		worktrees:   worktree.New(projectRoot, cfg, main),
		classifier:  conflict.New(main),
		engine:      aimerge.New(caller, cfg, logger, main),
		evolutionTr: evolutionTr,
		timelineTr:  timelineTr,
		logger:      logger,
	}, nil
}

// Merge resolves spec's worktree against the current base branch and,
// on success, lands the merge. On a partial failure it returns
// Success=false with whatever it could resolve and the remaining
// conflicts, leaving the working tree uncommitted so the caller (or a
// human) can finish by hand.
func (o *Orchestrator) Merge(ctx context.Context, spec string, opts Options) (*Outcome, error) {
	info, err := o.worktrees.GetWorktreeInfo(spec)
	if err != nil {
		return nil, braiderrs.VCSFailure("lookup worktree", err)
	}
	if info == nil {
		return nil, braiderrs.NoBuild(spec)
	}

	lock := mergelock.New(filepath.Join(o.projectRoot, config.StateDir), spec)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	defer lock.Release()

	changedFiles, err := o.main.DiffNameStatus(info.BaseBranch, info.Branch)
	if err != nil {
		return nil, braiderrs.VCSFailure("diff spec branch", err)
	}

	o.captureTimelineState(spec, info, changedFiles)

	taskIntent := ""
	if tt := o.timelineTr.Get(spec); tt != nil {
		taskIntent = tt.TaskIntent
	}
	o.refreshEvolution(info, spec, taskIntent, changedFiles)

	conflicts, err := o.classifier.CheckGitConflicts(info.BaseBranch, info.Branch)
	if err != nil {
		return nil, braiderrs.VCSFailure("classify conflicts", err)
	}

	if len(conflicts) == 0 {
		return o.mergeClean(spec, info, opts, changedFiles, taskIntent)
	}
	return o.mergeWithResolution(ctx, spec, info, opts, changedFiles, conflicts, taskIntent)
}

// refreshEvolution records a new, not-yet-completed Evolution Tracker
// snapshot for every file the spec branch touches, deriving its semantic
// changes from the base-branch-vs-spec-branch diff. recordCompletion
// later marks these snapshots complete once the merge lands.
func (o *Orchestrator) refreshEvolution(info *worktree.Info, spec, taskIntent string, changedFiles []vcs.FileStatus) {
	for _, f := range changedFiles {
		before, err := readAtRefOrEmpty(o.main, info.BaseBranch, f.Path)
		if err != nil {
			o.logger.Warn("orchestrator: read base content for evolution snapshot failed", "path", f.Path, "error", err)
			continue
		}
		after, _, err := readAtRef(o.main, info.Branch, f.Path)
		if err != nil {
			o.logger.Warn("orchestrator: read worktree content for evolution snapshot failed", "path", f.Path, "error", err)
			continue
		}
		changes := evolution.DeriveFromContent(f.Path, before, after)
		if err := o.evolutionTr.RecordSnapshot(f.Path, spec, taskIntent, changes); err != nil {
			o.logger.Warn("orchestrator: evolution snapshot record failed", "path", f.Path, "error", err)
		}
	}
}

func (o *Orchestrator) captureTimelineState(spec string, info *worktree.Info, changedFiles []vcs.FileStatus) {
	paths := make([]string, 0, len(changedFiles))
	for _, f := range changedFiles {
		paths = append(paths, f.Path)
	}
	if err := o.timelineTr.CaptureWorktreeState(spec, info.Path, paths); err != nil {
		o.logger.Warn("orchestrator: timeline capture failed", "spec", spec, "error", err)
	}
}

func (o *Orchestrator) mergeClean(spec string, info *worktree.Info, opts Options, changedFiles []vcs.FileStatus, taskIntent string) (*Outcome, error) {
	success, err := o.worktrees.MergeWorktree(spec, opts.DeleteAfter, opts.NoCommit)
	if err != nil {
		return nil, braiderrs.VCSFailure("merge worktree", err)
	}
	if !success {
		// The classifier reported no conflicts but git disagreed (e.g. a
		// race with a concurrent base-branch change); surface it as
		// ordinary remaining conflicts rather than a hard error.
		return &Outcome{Success: false, RemainingConflicts: []conflict.Conflict{{
			File:     "(multiple)",
			Reason:   "git reported conflicts during merge despite a clean pre-check",
			Severity: conflict.SeverityHigh,
		}}}, nil
	}

	o.recordCompletion(spec, changedFiles, taskIntent)
	return &Outcome{Success: true, ResolvedFiles: pathsOf(changedFiles)}, nil
}

func (o *Orchestrator) mergeWithResolution(ctx context.Context, spec string, info *worktree.Info, opts Options, changedFiles []vcs.FileStatus, conflicts []conflict.Conflict, taskIntent string) (*Outcome, error) {
	mergeBase, err := o.main.MergeBase(info.BaseBranch, info.Branch)
	if err != nil {
		return nil, braiderrs.VCSFailure("resolve merge-base", err)
	}

	conflictSet := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		conflictSet[c.File] = true
	}

	var resolvedFiles []string
	var remaining []conflict.Conflict
	stats := Stats{}

	for _, c := range conflicts {
		resolution, resolveErr := o.resolveConflictFile(ctx, spec, info, mergeBase, c.File, taskIntent)
		if resolveErr != nil {
			remaining = append(remaining, conflict.Conflict{
				File: c.File, Reason: resolveErr.Error(), Severity: conflict.SeverityHigh,
			})
			continue
		}
		resolvedFiles = append(resolvedFiles, c.File)
		switch resolution {
		case "clean-merge":
			stats.CleanMerged++
		case "region-ai", "full-file-ai":
			stats.AIResolved++
		case "heuristic":
			stats.Heuristic++
		}
	}

	if len(remaining) > 0 {
		return &Outcome{Success: false, ResolvedFiles: resolvedFiles, RemainingConflicts: remaining, Stats: stats}, nil
	}

	// Every conflicting file resolved; pull in the rest of the spec
	// branch's non-conflicting changes verbatim.
	for _, f := range changedFiles {
		if conflictSet[f.Path] {
			continue
		}
		if err := o.applyNonConflictingChange(info, f); err != nil {
			return nil, braiderrs.VCSFailure("apply change "+f.Path, err)
		}
	}

	if !opts.NoCommit {
		if err := o.main.Commit(fmt.Sprintf("merge %s", spec)); err != nil {
			return nil, braiderrs.VCSFailure("commit merge", err)
		}
	}

	o.recordCompletion(spec, changedFiles, taskIntent)

	if opts.DeleteAfter && !opts.NoCommit {
		if err := o.worktrees.RemoveWorktree(spec, true); err != nil {
			o.logger.Warn("orchestrator: worktree cleanup failed", "spec", spec, "error", err)
		}
	}

	return &Outcome{Success: true, ResolvedFiles: append(resolvedFiles, pathsOf(nonConflicting(changedFiles, conflictSet))...), Stats: stats}, nil
}

// resolveConflictFile resolves a single conflicting path, returning the
// strategy name that succeeded.
func (o *Orchestrator) resolveConflictFile(ctx context.Context, spec string, info *worktree.Info, mergeBase, path, taskIntent string) (string, error) {
	baseContent, err := readAtRefOrEmpty(o.main, mergeBase, path)
	if err != nil {
		return "", err
	}
	mainContent, err := readAtRefOrEmpty(o.main, info.BaseBranch, path)
	if err != nil {
		return "", err
	}
	worktreeContent, existsInWorktree, err := readAtRef(o.main, info.Branch, path)
	if err != nil {
		return "", err
	}
	if !existsInWorktree {
		// Deleted on the spec branch: honor the deletion.
		if err := o.main.StageRemoval(path); err != nil {
			return "", err
		}
		return "heuristic", nil
	}

	var mergeCtx *timeline.MergeContext
	if mc, err := o.timelineTr.GetMergeContext(spec, path, o.main, info.BaseBranch); err == nil {
		mergeCtx = mc
	}

	resolution := o.engine.Resolve(ctx, aimerge.FileInput{
		Path: path, Base: baseContent, Main: mainContent, Worktree: worktreeContent,
		TaskIntent: taskIntent, SpecID: spec, MergeCtx: mergeCtx,
	})
	if !resolution.Resolved {
		return "", resolution.Err
	}

	if err := o.writeAndStage(path, resolution.Content); err != nil {
		return "", err
	}
	return resolution.Strategy, nil
}

func (o *Orchestrator) applyNonConflictingChange(info *worktree.Info, f vcs.FileStatus) error {
	content, exists, err := readAtRef(o.main, info.Branch, f.Path)
	if err != nil {
		return err
	}
	if !exists {
		return o.main.StageRemoval(f.Path)
	}
	return o.writeAndStage(f.Path, content)
}

func (o *Orchestrator) writeAndStage(path, content string) error {
	fullPath := filepath.Join(o.projectRoot, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return err
	}
	return o.main.Stage(path)
}

// recordCompletion persists tracker state once all staging for the
// merge has already succeeded; failures here are logged, never
// surfaced as a merge failure, per the trackers' best-effort contract.
func (o *Orchestrator) recordCompletion(spec string, changedFiles []vcs.FileStatus, taskIntent string) {
	headCommit, err := o.main.HeadCommit()
	if err != nil {
		o.logger.Warn("orchestrator: read head commit for tracker update failed", "spec", spec, "error", err)
		headCommit = ""
	}
	if err := o.timelineTr.OnTaskMerged(spec, headCommit); err != nil {
		o.logger.Warn("orchestrator: timeline completion write failed", "spec", spec, "error", err)
	}
	for _, f := range changedFiles {
		if err := o.evolutionTr.CompleteSnapshot(f.Path, spec, taskIntent); err != nil {
			o.logger.Warn("orchestrator: evolution completion write failed", "path", f.Path, "error", err)
		}
	}
}

func readAtRef(c *vcs.Context, ref, path string) (content string, exists bool, err error) {
	content, err = c.ShowRefPath(ref, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return content, true, nil
}

func readAtRefOrEmpty(c *vcs.Context, ref, path string) (string, error) {
	content, exists, err := readAtRef(c, ref, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	return content, nil
}

func pathsOf(statuses []vcs.FileStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.Path)
	}
	return out
}

func nonConflicting(statuses []vcs.FileStatus, conflictSet map[string]bool) []vcs.FileStatus {
	out := make([]vcs.FileStatus, 0, len(statuses))
	for _, s := range statuses {
		if !conflictSet[s.Path] {
			out = append(out, s)
		}
	}
	return out
}
