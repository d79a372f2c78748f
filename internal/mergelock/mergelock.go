// Package mergelock implements the advisory, file-backed lock that
// serializes merges into a spec's integration branch. Unlike the
// same-user PID guard it is adapted from, a merge lock can legitimately
// be held by a process that has since exited (a crashed CLI invocation),
// so it layers staleness and dead-pid detection on top of the same basic
// PID-file shape.
package mergelock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/braidhq/braid/internal/atomicio"
	"github.com/braidhq/braid/internal/braiderrs"
	"github.com/braidhq/braid/internal/procguard"
	"github.com/google/uuid"
)

// StaleAfter is how long a lock can be held before it's considered stale
// even if its owning process is still alive (e.g. a hung merge).
const StaleAfter = 300 * time.Second

// record is the on-disk payload of a held lock. ID is a fresh unique id
// written on every acquisition; nothing in this package reads it back,
// and it carries no invariant of its own.
type record struct {
	ID        string    `json:"id"`
	SpecName  string    `json:"spec_name"`
	Timestamp time.Time `json:"timestamp"`
	PID       int       `json:"pid"`
}

// Lock guards the merge of a single spec's worktree into its integration
// branch. One Lock corresponds to one `.braid/.locks/merge-<spec>.lock`
// file.
type Lock struct {
	path     string
	specName string
}

// New creates a Lock for specName, rooted under braidDir (typically
// "<repo>/.braid").
func New(braidDir, specName string) *Lock {
	return &Lock{
		path:     filepath.Join(braidDir, ".locks", "merge-"+specName+".lock"),
		specName: specName,
	}
}

// Acquire takes the lock, reclaiming it first if it is held by a dead
// process or has outlived StaleAfter. It returns a braiderrs.BraidError
// with CodeLockHeld if a live, non-stale holder exists.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return braiderrs.TrackerIOError("mergelock", err)
	}

	existing, err := l.read()
	if err != nil && !os.IsNotExist(err) {
		return braiderrs.TrackerIOError("mergelock", err)
	}
	if existing != nil {
		if l.holderIsLive(existing) {
			return braiderrs.LockHeld(existing.SpecName, existing.PID)
		}
		// Stale or orphaned: fall through and reclaim.
	}

	rec := record{ID: uuid.NewString(), SpecName: l.specName, Timestamp: time.Now(), PID: os.Getpid()}
	if err := l.write(rec); err != nil {
		return braiderrs.TrackerIOError("mergelock", err)
	}
	return nil
}

// Release removes the lock file. Safe to call even if it no longer
// exists, so callers can unconditionally defer it on every exit path of
// the merge operation they guard.
func (l *Lock) Release() {
	_ = os.Remove(l.path)
}

// holderIsLive reports whether rec still represents an active, non-stale
// lock holder.
func (l *Lock) holderIsLive(rec *record) bool {
	if time.Since(rec.Timestamp) > StaleAfter {
		return false
	}
	return procguard.Alive(rec.PID)
}

func (l *Lock) read() (*record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt lock file can't tell us who holds it; treat it as
		// absent rather than blocking forever.
		return nil, nil
	}
	return &rec, nil
}

func (l *Lock) write(rec record) error {
	return atomicio.WriteJSON(l.path, rec, 0o644)
}

// Info describes the current holder of a lock, for diagnostics.
type Info struct {
	SpecName string
	PID      int
	Age      time.Duration
	Stale    bool
}

// Inspect reports the current state of the lock without acquiring it.
// Returns nil if the lock is not held.
func (l *Lock) Inspect() (*Info, error) {
	rec, err := l.read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("inspect lock: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return &Info{
		SpecName: rec.SpecName,
		PID:      rec.PID,
		Age:      time.Since(rec.Timestamp),
		Stale:    !l.holderIsLive(rec),
	}, nil
}
