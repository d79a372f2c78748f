// Package evolution maintains the per-file history of completed spec
// work: for every tracked path, an ordered list of task snapshots
// summarizing what changed and why, so a future merge has context beyond
// the raw diff.
package evolution

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/braidhq/braid/internal/atomicio"
	"github.com/google/uuid"
)

// ChangeType tags a SemanticChange the way a sum type would: exactly one
// of Added/Removed/Modified/Other applies to a given change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
	ChangeOther    ChangeType = "other"
)

// SemanticChange describes one symbol-level (or, for ChangeOther,
// free-form) change within a task's snapshot.
type SemanticChange struct {
	ID          string     `json:"id"`
	Type        ChangeType `json:"change_type"`
	SymbolName  string     `json:"symbol_name,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Added describes a newly introduced symbol.
func Added(symbol string) SemanticChange {
	return SemanticChange{ID: uuid.NewString(), Type: ChangeAdded, SymbolName: symbol}
}

// Removed describes a deleted symbol.
func Removed(symbol string) SemanticChange {
	return SemanticChange{ID: uuid.NewString(), Type: ChangeRemoved, SymbolName: symbol}
}

// Modified describes an existing symbol whose behavior changed, with a
// short note on how.
func Modified(symbol, note string) SemanticChange {
	return SemanticChange{ID: uuid.NewString(), Type: ChangeModified, SymbolName: symbol, Description: note}
}

// Other describes a change that isn't symbol-scoped.
func Other(description string) SemanticChange {
	return SemanticChange{ID: uuid.NewString(), Type: ChangeOther, Description: description}
}

// TaskSnapshot is one spec's recorded pass over a single file.
type TaskSnapshot struct {
	TaskID          string           `json:"task_id"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	TaskIntent      string           `json:"task_intent"`
	SemanticChanges []SemanticChange `json:"semantic_changes"`
}

// FileEvolution is the ordered snapshot history for one tracked path.
type FileEvolution struct {
	Path      string         `json:"path"`
	Snapshots []TaskSnapshot `json:"snapshots"`
}

// state is the on-disk shape of evolution.json.
type state struct {
	Files map[string]*FileEvolution `json:"files"`
}

// Tracker is the Evolution Tracker: a JSON-persisted store of per-file
// task snapshot history.
type Tracker struct {
	path string
	mu   sync.Mutex
	data state
}

// Load reads the tracker at path, or starts empty if the file does not
// yet exist.
func Load(path string) (*Tracker, error) {
	t := &Tracker{path: path, data: state{Files: map[string]*FileEvolution{}}}
	if err := atomicio.ReadJSON(path, &t.data); err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	if t.data.Files == nil {
		t.data.Files = map[string]*FileEvolution{}
	}
	return t, nil
}

// RecordSnapshot appends a new, not-yet-completed snapshot for path.
// Persists immediately.
func (t *Tracker) RecordSnapshot(path, taskID, taskIntent string, changes []SemanticChange) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fe, ok := t.data.Files[path]
	if !ok {
		fe = &FileEvolution{Path: path}
		t.data.Files[path] = fe
	}
	fe.Snapshots = append(fe.Snapshots, TaskSnapshot{
		TaskID:          taskID,
		StartedAt:       time.Now(),
		TaskIntent:      taskIntent,
		SemanticChanges: changes,
	})
	return t.save()
}

// CompleteSnapshot marks the most recent incomplete snapshot for
// (path, taskID) as completed, attaching taskIntent (in case it was
// refined since RecordSnapshot). Best-effort: a missing snapshot is
// logged, not an error, per spec §4.7's "both writes are best-effort".
func (t *Tracker) CompleteSnapshot(path, taskID, taskIntent string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fe, ok := t.data.Files[path]
	if !ok {
		slog.Warn("evolution: complete snapshot for untracked path", "path", path, "task_id", taskID)
		return nil
	}
	for i := len(fe.Snapshots) - 1; i >= 0; i-- {
		if fe.Snapshots[i].TaskID != taskID || fe.Snapshots[i].CompletedAt != nil {
			continue
		}
		now := time.Now()
		fe.Snapshots[i].CompletedAt = &now
		if taskIntent != "" {
			fe.Snapshots[i].TaskIntent = taskIntent
		}
		return t.save()
	}
	slog.Warn("evolution: no snapshot found to complete", "path", path, "task_id", taskID)
	return nil
}

// History returns the completed snapshots with non-empty semantic
// changes for path — the only ones that count as history for future
// merges, per spec §3.
func (t *Tracker) History(path string) []TaskSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	fe, ok := t.data.Files[path]
	if !ok {
		return nil
	}
	var out []TaskSnapshot
	for _, s := range fe.Snapshots {
		if s.CompletedAt != nil && len(s.SemanticChanges) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	return atomicio.WriteJSON(t.path, &t.data, 0o644)
}
