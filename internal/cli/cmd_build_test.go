package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/vcs"
	"github.com/braidhq/braid/internal/worktree"
)

type scriptedRunner struct {
	stdout string
}

func (r *scriptedRunner) Run(workDir, name string, args ...string) (string, error) {
	return r.stdout, nil
}

const samplePlan = `{
  "title": "Add OAuth login",
  "description": "wires provider config and callback handling",
  "phases": [
    {"subtasks": [
      {"title": "wire provider", "status": "completed", "files": ["internal/auth/provider.go"]}
    ]}
  ]
}`

func TestRecordTaskStart_RegistersTimeline(t *testing.T) {
	root := t.TempDir()
	_, err := config.Init(root, false)
	require.NoError(t, err)

	planDir := filepath.Join(root, ".auto-claude", "specs", "add-auth")
	require.NoError(t, os.MkdirAll(planDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(planDir, "implementation_plan.json"), []byte(samplePlan), 0o644))

	main, err := vcs.NewContext(root, vcs.WithRunner(&scriptedRunner{stdout: "base-commit-sha"}))
	require.NoError(t, err)

	p := &project{root: root, cfg: config.Default(), main: main}
	info := &worktree.Info{SpecName: "add-auth", Branch: "auto-claude/add-auth", BaseBranch: "main"}

	require.NoError(t, recordTaskStart(p, "add-auth", info))

	tt, err := p.timelineTracker()
	require.NoError(t, err)
	saved := tt.Get("add-auth")
	require.NotNil(t, saved)
	assert.Equal(t, "Add OAuth login", saved.TaskTitle)
	assert.Contains(t, saved.TaskIntent, "wires provider config")
	assert.Equal(t, "base-commit-sha", saved.BranchPointCommit)
	assert.Equal(t, []string{"internal/auth/provider.go"}, saved.FilesToModify)
}

func TestRecordTaskStart_NoPlanFileIsNotAnError(t *testing.T) {
	root := t.TempDir()
	_, err := config.Init(root, false)
	require.NoError(t, err)

	main, err := vcs.NewContext(root, vcs.WithRunner(&scriptedRunner{stdout: "base-commit-sha"}))
	require.NoError(t, err)

	p := &project{root: root, cfg: config.Default(), main: main}
	info := &worktree.Info{SpecName: "no-plan", Branch: "auto-claude/no-plan", BaseBranch: "main"}

	require.NoError(t, recordTaskStart(p, "no-plan", info))

	tt, err := p.timelineTracker()
	require.NoError(t, err)
	assert.Nil(t, tt.Get("no-plan"))
}
