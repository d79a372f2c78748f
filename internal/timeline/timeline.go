// Package timeline maintains per-task intent, branch point, and
// files-to-modify records, and derives "merge context" — the historical
// evidence (main-branch drift, other in-flight tasks) fed into the AI
// merge prompt.
package timeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/braidhq/braid/internal/atomicio"
	"github.com/braidhq/braid/internal/vcs"
)

// TaskTimeline is the per-task record: its intent, where its branch
// diverged, which files it plans to touch, and content snapshots taken
// just before merge.
type TaskTimeline struct {
	TaskID            string            `json:"task_id"`
	TaskTitle         string            `json:"task_title"`
	TaskIntent        string            `json:"task_intent"`
	BranchPointCommit string            `json:"branch_point_commit"`
	FilesToModify     []string          `json:"files_to_modify"`
	PerFileSnapshots  map[string]string `json:"per_file_snapshots"` // path -> content hash
	MergedAt          *time.Time        `json:"merged_at,omitempty"`
	MergeCommit       string            `json:"merge_commit,omitempty"`
}

// MergeContext is the historical-evidence bundle GetMergeContext
// returns for one (task, file) pair.
type MergeContext struct {
	MainEvolution      []string
	TotalCommitsBehind int
	PendingTasks       []string
	TotalPendingTasks  int
}

// state is the on-disk shape of timeline.json.
type state struct {
	Tasks map[string]*TaskTimeline `json:"tasks"`
}

// Tracker is the Timeline Tracker.
type Tracker struct {
	path string
	mu   sync.Mutex
	data state
}

// Load reads the tracker at path, or starts empty if it doesn't exist.
func Load(path string) (*Tracker, error) {
	t := &Tracker{path: path, data: state{Tasks: map[string]*TaskTimeline{}}}
	if err := atomicio.ReadJSON(path, &t.data); err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	if t.data.Tasks == nil {
		t.data.Tasks = map[string]*TaskTimeline{}
	}
	return t, nil
}

// OnTaskStart registers a new task's timeline.
func (t *Tracker) OnTaskStart(taskID, taskTitle, taskIntent, branchPoint string, filesToModify []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data.Tasks[taskID] = &TaskTimeline{
		TaskID:            taskID,
		TaskTitle:         taskTitle,
		TaskIntent:        taskIntent,
		BranchPointCommit: branchPoint,
		FilesToModify:     filesToModify,
		PerFileSnapshots:  map[string]string{},
	}
	return t.save()
}

// CaptureWorktreeState snapshots the content hash of every changed file
// (from changedFiles, typically the VCS adapter's diff name-status
// output) that matches the task's files_to_modify glob set, reading
// from worktreePath just before merge.
func (t *Tracker) CaptureWorktreeState(taskID, worktreePath string, changedFiles []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.data.Tasks[taskID]
	if !ok {
		slog.Warn("timeline: capture state for unknown task", "task_id", taskID)
		return nil
	}

	for _, f := range changedFiles {
		if !matchesAny(tt.FilesToModify, f) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(worktreePath, f))
		if err != nil {
			if os.IsNotExist(err) {
				continue // deleted in the worktree; nothing to hash
			}
			slog.Warn("timeline: read worktree file for snapshot", "path", f, "error", err)
			continue
		}
		sum := sha256.Sum256(content)
		tt.PerFileSnapshots[f] = hex.EncodeToString(sum[:])
	}
	return t.save()
}

// OnTaskMerged marks taskID as merged at mergeCommit.
func (t *Tracker) OnTaskMerged(taskID, mergeCommit string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.data.Tasks[taskID]
	if !ok {
		slog.Warn("timeline: mark merged for unknown task", "task_id", taskID)
		return nil
	}
	now := time.Now()
	tt.MergedAt = &now
	tt.MergeCommit = mergeCommit
	return t.save()
}

// Get returns taskID's timeline, or nil if unknown.
func (t *Tracker) Get(taskID string) *TaskTimeline {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.Tasks[taskID]
}

// GetMergeContext computes the historical-evidence bundle for
// (taskID, filePath): main-branch commits on baseBranch since the task's
// branch point that touched filePath, and other in-flight (unmerged)
// tasks whose files_to_modify also cover filePath.
func (t *Tracker) GetMergeContext(taskID, filePath string, main *vcs.Context, baseBranch string) (*MergeContext, error) {
	t.mu.Lock()
	tt, ok := t.data.Tasks[taskID]
	if !ok {
		t.mu.Unlock()
		return nil, fmt.Errorf("unknown task %q", taskID)
	}
	branchPoint := tt.BranchPointCommit
	t.mu.Unlock()

	var mainEvolution []string
	var commitsBehind int
	if main != nil && branchPoint != "" {
		var err error
		mainEvolution, err = main.LogSubjectsTouching(branchPoint, baseBranch, filePath)
		if err != nil {
			slog.Warn("timeline: main evolution lookup failed", "file", filePath, "error", err)
		}
		commitsBehind, err = main.CommitsBehind(branchPoint, baseBranch)
		if err != nil {
			slog.Warn("timeline: commits-behind lookup failed", "error", err)
		}
	}

	pending := t.pendingTasksTouching(taskID, filePath)

	return &MergeContext{
		MainEvolution:      mainEvolution,
		TotalCommitsBehind: commitsBehind,
		PendingTasks:       pending,
		TotalPendingTasks:  len(pending),
	}, nil
}

func (t *Tracker) pendingTasksTouching(excludeTaskID, filePath string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []string
	for id, tt := range t.data.Tasks {
		if id == excludeTaskID || tt.MergedAt != nil {
			continue
		}
		if matchesAny(tt.FilesToModify, filePath) {
			pending = append(pending, id)
		}
	}
	return pending
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if p == path {
			return true
		}
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (t *Tracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return atomicio.WriteJSON(t.path, &t.data, 0o644)
}
