// Package plan reads an AI coding agent's implementation_plan.json — a
// document produced by an external tool this package never validates
// exhaustively. It decodes permissively with gjson path extraction and
// only reads the fields the core actually needs, per spec's Design Notes
// on reflection-style JSON handling.
package plan

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Status is a subtask's lifecycle state. Values outside the recognized
// set are normalized to StatusPending at this read boundary — a
// defensive re-normalization for the core's own bookkeeping; the
// external plan-normalizer remains the authority callers are expected to
// have already run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
	StatusFailed     Status = "failed"
)

func normalizeStatus(raw string) Status {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked, StatusFailed:
		return Status(raw)
	default:
		return StatusPending
	}
}

// Subtask is one unit of planned work within a phase.
type Subtask struct {
	Title       string
	Description string
	Status      Status
	Files       []string
}

// Phase groups subtasks.
type Phase struct {
	Subtasks []Subtask
}

// Plan is the permissive view of implementation_plan.json this package
// reads.
type Plan struct {
	Title       string
	Description string
	Phases      []Phase
}

// Read loads and parses the plan at path.
func Read(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse plan %s: invalid JSON", path)
	}

	root := gjson.ParseBytes(data)
	p := &Plan{
		Title:       root.Get("title").String(),
		Description: root.Get("description").String(),
	}

	for _, phaseResult := range root.Get("phases").Array() {
		var phase Phase
		for _, subResult := range phaseResult.Get("subtasks").Array() {
			var files []string
			for _, f := range subResult.Get("files").Array() {
				files = append(files, f.String())
			}
			phase.Subtasks = append(phase.Subtasks, Subtask{
				Title:       subResult.Get("title").String(),
				Description: subResult.Get("description").String(),
				Status:      normalizeStatus(subResult.Get("status").String()),
				Files:       files,
			})
		}
		p.Phases = append(p.Phases, phase)
	}

	return p, nil
}

// AllFiles returns the union of every subtask's files across all
// phases, in encounter order, de-duplicated. This is the candidate
// files_to_modify set the Timeline Tracker registers a task with.
func (p *Plan) AllFiles() []string {
	seen := make(map[string]bool)
	var files []string
	for _, phase := range p.Phases {
		for _, sub := range phase.Subtasks {
			for _, f := range sub.Files {
				if !seen[f] {
					seen[f] = true
					files = append(files, f)
				}
			}
		}
	}
	return files
}
