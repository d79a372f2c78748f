package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner returns stdout/err pairs from a fixed queue, in order,
// regardless of the exact args — worktree manager tests care about the
// sequence of git subcommands, not byte-exact argv matching.
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

// newManager builds a Manager rooted at a real temp directory (so
// GetWorktreeInfo's os.Stat consistency check behaves like it would
// against a real worktree), driven by a scripted fake git runner.
func newManager(t *testing.T, queue []scriptedCall) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	r := &scriptedRunner{queue: append([]scriptedCall{{stdout: ".git"}}, queue...)}
	ctx, err := vcs.NewContext(root, vcs.WithRunner(r))
	require.NoError(t, err)
	cfg := config.Default()
	return New(root, cfg, ctx), root
}

func worktreeListEntry(root, spec string) string {
	return "worktree " + filepath.Join(root, ".worktrees", spec) +
		"\nHEAD abc123\nbranch refs/heads/auto-claude/" + spec + "\n"
}

// makeWorktreeDir creates spec's worktree directory on disk with a
// linked-worktree ".git" pointer file, the way a real `git worktree add`
// would, so GetWorktreeInfo's ResolveGitDir check succeeds against it.
func makeWorktreeDir(t *testing.T, root, spec string) string {
	t.Helper()
	dir := filepath.Join(root, ".worktrees", spec)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"),
		[]byte("gitdir: "+filepath.Join(root, ".git", "worktrees", spec)+"\n"), 0o644))
	return dir
}

func TestBranchName(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "auto-claude/add-auth", BranchName(cfg, "add-auth"))
}

func TestSpecFromBranch(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "add-auth", SpecFromBranch(cfg, "auto-claude/add-auth"))
	assert.Equal(t, "", SpecFromBranch(cfg, "main"))
}

func TestGetWorktreeInfo_NotFound(t *testing.T) {
	m, _ := newManager(t, []scriptedCall{
		{stdout: ""}, // worktree list --porcelain: empty
	})
	info, err := m.GetWorktreeInfo("add-auth")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestGetWorktreeInfo_RegisteredButDirectoryGone(t *testing.T) {
	m, root := newManager(t, []scriptedCall{
		{stdout: worktreeListEntry(root, "add-auth")},
	})
	info, err := m.GetWorktreeInfo("add-auth")
	require.NoError(t, err)
	assert.Nil(t, info, "a worktree git still lists but whose directory is gone should be reported absent")
}

func TestGetOrCreateWorktree_CreatesWhenMissing(t *testing.T) {
	m, _ := newManager(t, []scriptedCall{
		{stdout: ""},     // worktree list (empty -> not found)
		{stdout: "main"}, // current branch (base)
		{stdout: "not found", err: &vcs.CommandError{Output: "not found"}}, // show-ref --verify (branch doesn't exist)
		{stdout: ""}, // worktree add
	})

	info, err := m.GetOrCreateWorktree("add-auth")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "add-auth", info.SpecName)
	assert.Equal(t, "auto-claude/add-auth", info.Branch)
	assert.Equal(t, "main", info.BaseBranch)
}

func TestGetOrCreateWorktree_Idempotent(t *testing.T) {
	m, root := newManager(t, []scriptedCall{
		{stdout: worktreeListEntry(root, "add-auth")},
		{stdout: "main"},
	})
	makeWorktreeDir(t, root, "add-auth")

	info, err := m.GetOrCreateWorktree("add-auth")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, filepath.Join(root, ".worktrees", "add-auth"), info.Path)
}

func TestGetChangeSummary_CountsByKind(t *testing.T) {
	m, root := newManager(t, []scriptedCall{
		{stdout: worktreeListEntry(root, "add-auth")},
		{stdout: "main"},
		{stdout: "A\tnew.go\nM\tmain.go\nD\told.go\n"},
	})
	makeWorktreeDir(t, root, "add-auth")

	summary, err := m.GetChangeSummary("add-auth")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewFiles)
	assert.Equal(t, 1, summary.ModifiedFiles)
	assert.Equal(t, 1, summary.DeletedFiles)
}

func TestMergeWorktree_CleanMerge(t *testing.T) {
	m, root := newManager(t, []scriptedCall{
		{stdout: worktreeListEntry(root, "add-auth")},
		{stdout: "main"},
		{stdout: "Merge made by the 'ort' strategy."}, // merge succeeds
		// RemoveWorktree path (deleteAfter=true):
		{stdout: worktreeListEntry(root, "add-auth")},
		{stdout: "main"},
		{stdout: ""}, // worktree remove
		{stdout: ""}, // branch -D
	})
	makeWorktreeDir(t, root, "add-auth")

	ok, err := m.MergeWorktree("add-auth", true, false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMergeWorktree_Conflict(t *testing.T) {
	m, root := newManager(t, []scriptedCall{
		{stdout: worktreeListEntry(root, "add-auth")},
		{stdout: "main"},
		{stdout: "CONFLICT", err: &vcs.CommandError{Output: "CONFLICT"}},
		{stdout: "internal/foo.go"}, // diff --name-only --diff-filter=U (non-empty -> conflict)
	})
	makeWorktreeDir(t, root, "add-auth")

	ok, err := m.MergeWorktree("add-auth", true, false)
	require.NoError(t, err)
	assert.False(t, ok)
}
