package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesLayoutContract(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "auto-claude", cfg.BranchPrefix)
	assert.Equal(t, ".worktrees", cfg.WorktreeDir)
	assert.Equal(t, 5000, cfg.MaxMergeLines)
	assert.Contains(t, cfg.BinaryExtensions, ".png")
}

func TestBinaryExtensionSet(t *testing.T) {
	cfg := Default()
	set := cfg.BinaryExtensionSet()
	assert.True(t, set[".png"])
	assert.False(t, set[".go"])
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "auto-claude", cfg.BranchPrefix)
	assert.Equal(t, 5000, cfg.MaxMergeLines)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, StateDir), 0o755))
	content := "branch_prefix: braid\nmax_merge_lines: 1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateDir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "braid", cfg.BranchPrefix)
	assert.Equal(t, 1000, cfg.MaxMergeLines)
	// Untouched fields still carry their defaults.
	assert.Equal(t, ".worktrees", cfg.WorktreeDir)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.BranchPrefix = "custom-prefix"
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "custom-prefix", loaded.BranchPrefix)
}

func TestFindProjectRootFrom(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, StateDir), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRootFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRootFrom_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := FindProjectRootFrom(dir)
	assert.Error(t, err)
}

func TestInit_CreatesStateDir(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Init(dir, false)
	require.NoError(t, err)
	assert.Equal(t, "auto-claude", cfg.BranchPrefix)
	assert.DirExists(t, filepath.Join(dir, StateDir, ".locks"))
	assert.FileExists(t, filepath.Join(dir, StateDir, ConfigFileName))
}

func TestInit_RefusesWithoutForce(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir, false)
	require.NoError(t, err)

	_, err = Init(dir, false)
	assert.Error(t, err)
}
