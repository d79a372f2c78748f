package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMergeFileRunner stands in for `git merge-file -p` by returning
// a canned stdout/err pair regardless of its inputs, so MergeFileContents
// can be tested without a real git binary.
type scriptedMergeFileRunner struct {
	stdout string
	err    error
}

func (r *scriptedMergeFileRunner) Run(workDir, name string, args ...string) (string, error) {
	return r.stdout, r.err
}

func TestMergeFileContents_Clean(t *testing.T) {
	c := &Context{repoPath: "/repo", workDir: "/repo", runner: &scriptedMergeFileRunner{stdout: "merged clean content\n"}}

	merged, hasConflict, err := c.MergeFileContents("base\n", "ours\n", "theirs\n", "ours-label", "theirs-label")
	require.NoError(t, err)
	assert.False(t, hasConflict)
	assert.Equal(t, "merged clean content\n", merged)
}

func TestMergeFileContents_Conflict(t *testing.T) {
	markerOutput := "line1\n<<<<<<< ours-label\nours change\n=======\ntheirs change\n>>>>>>> theirs-label\nline3\n"
	runner := &scriptedMergeFileRunner{
		stdout: "",
		err:    &CommandError{Output: markerOutput},
	}
	c := &Context{repoPath: "/repo", workDir: "/repo", runner: runner}

	merged, hasConflict, err := c.MergeFileContents("line1\nbase change\nline3\n", "line1\nours change\nline3\n", "line1\ntheirs change\nline3\n", "ours-label", "theirs-label")
	require.NoError(t, err)
	assert.True(t, hasConflict)
	assert.Contains(t, merged, "<<<<<<< ours-label")
	assert.Contains(t, merged, ">>>>>>> theirs-label")
}

func TestDetectConflictsViaMerge_CleanPath(t *testing.T) {
	r := &fakeRunner{calls: []fakeCall{
		{stdout: ".git"},        // NewContext probe
		{stdout: "feature"},     // CurrentBranch
		{stdout: ""},            // checkout ours
		{stdout: "Merge made"},  // merge --no-commit --no-ff
		{stdout: ""},            // merge --abort (defer)
		{stdout: ""},            // checkout back (defer)
	}}
	c, err := NewContext("/repo", WithRunner(r))
	require.NoError(t, err)

	result, err := c.detectConflictsViaMerge("base", "ours", "theirs")
	require.NoError(t, err)
	assert.True(t, result.CleanlyMergeable)
}
