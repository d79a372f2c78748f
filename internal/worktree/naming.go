package worktree

import (
	"path/filepath"
	"strings"

	"github.com/braidhq/braid/internal/config"
)

// BranchName returns the spec branch name for spec under cfg's branch
// prefix, e.g. "auto-claude/add-auth".
func BranchName(cfg *config.Config, spec string) string {
	return cfg.BranchPrefix + "/" + spec
}

// SpecFromBranch extracts the spec name from a branch produced by
// BranchName, or "" if branch does not carry cfg's prefix.
func SpecFromBranch(cfg *config.Config, branch string) string {
	prefix := cfg.BranchPrefix + "/"
	if !strings.HasPrefix(branch, prefix) {
		return ""
	}
	return strings.TrimPrefix(branch, prefix)
}

// Path returns the on-disk worktree directory for spec under projectRoot.
func Path(projectRoot string, cfg *config.Config, spec string) string {
	return filepath.Join(projectRoot, cfg.WorktreeDir, spec)
}
