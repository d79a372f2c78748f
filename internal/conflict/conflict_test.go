package conflict

import (
	"testing"

	"github.com/braidhq/braid/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	queue []scriptedCall
	idx   int
}

type scriptedCall struct {
	stdout string
	err    error
}

func (r *scriptedRunner) Run(workDir, name string, args ...string) (string, error) {
	if r.idx >= len(r.queue) {
		return "", nil
	}
	call := r.queue[r.idx]
	r.idx++
	return call.stdout, call.err
}

func newClassifier(t *testing.T, calls []scriptedCall) *Classifier {
	t.Helper()
	r := &scriptedRunner{queue: append([]scriptedCall{{stdout: ".git"}}, calls...)}
	ctx, err := vcs.NewContext("/repo", vcs.WithRunner(r))
	require.NoError(t, err)
	return New(ctx)
}

func TestCheckGitConflicts_Clean(t *testing.T) {
	c := newClassifier(t, []scriptedCall{
		{stdout: "mergebasesha"},
		{stdout: "treeoid\n"},
	})
	conflicts, err := c.CheckGitConflicts("main", "auto-claude/add-auth")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckGitConflicts_WithConflict(t *testing.T) {
	c := newClassifier(t, []scriptedCall{
		{stdout: "mergebasesha"},
		{
			stdout: "",
			err: &vcs.CommandError{Output: "treeoid\nCONFLICT (content): Merge conflict in internal/foo.go\n"},
		},
	})
	conflicts, err := c.CheckGitConflicts("main", "auto-claude/add-auth")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "internal/foo.go", conflicts[0].File)
	assert.Equal(t, SeverityHigh, conflicts[0].Severity)
	assert.False(t, conflicts[0].CanAutoMerge)
}

func TestPreviewMerge_FlagsOverlap(t *testing.T) {
	c := newClassifier(t, []scriptedCall{
		{stdout: "mergebasesha"},
		{stdout: "M\tinternal/foo.go\nM\tinternal/bar.go\n"},
		{stdout: "M\tinternal/foo.go\nA\tinternal/baz.go\n"},
	})
	result, err := c.PreviewMerge([]string{"internal/foo.go", "internal/bar.go", "internal/baz.go"}, "main", "auto-claude/add-auth")
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "internal/foo.go", result.Conflicts[0].File)
	assert.False(t, result.Conflicts[0].CanAutoMerge)
}
