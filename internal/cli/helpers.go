package cli

import (
	"fmt"
	"path/filepath"

	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/timeline"
	"github.com/braidhq/braid/internal/vcs"
)

// project bundles the resolved root, config, and VCS context every
// subcommand needs.
type project struct {
	root string
	cfg  *config.Config
	main *vcs.Context
}

func loadProject() (*project, error) {
	root, err := config.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("%w (run `braid init` first)", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	main, err := vcs.NewContext(root)
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", root, err)
	}
	return &project{root: root, cfg: cfg, main: main}, nil
}

// planPath returns where spec's implementation plan is expected, written
// by the external tool that produces it, outside braid's own state
// directory.
func (p *project) planPath(spec string) string {
	return filepath.Join(p.root, ".auto-claude", "specs", spec, "implementation_plan.json")
}

// timelineTracker opens the Timeline Tracker under braid's state
// directory, shared between the build and merge paths.
func (p *project) timelineTracker() (*timeline.Tracker, error) {
	path := filepath.Join(p.root, config.StateDir, "timeline.json")
	t, err := timeline.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load timeline tracker: %w", err)
	}
	return t, nil
}
