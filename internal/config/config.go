// Package config resolves the project root and loads braid's project-level
// configuration from `.braid/config.yaml`, layered with viper so
// environment variables (`BRAID_*`) and flags can override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// StateDir is braid's own state directory, holding its config, merge
// locks, and evolution/timeline tracker stores.
const StateDir = ".braid"

// ConfigFileName is the config file name within StateDir.
const ConfigFileName = "config.yaml"

// Config holds the tunables the core reads. Fields carry both yaml and
// mapstructure tags so viper (mapstructure-based) and a direct
// yaml.Unmarshal agree on the same file.
type Config struct {
	// BranchPrefix names spec branches as "<prefix>/<spec>". Literal
	// default per the on-disk layout contract: "auto-claude".
	BranchPrefix string `yaml:"branch_prefix" mapstructure:"branch_prefix"`

	// WorktreeDir is the directory (relative to the project root) under
	// which per-spec worktrees are created.
	WorktreeDir string `yaml:"worktree_dir" mapstructure:"worktree_dir"`

	// ProtectedBranches may never be used as a merge base branch target
	// for a force-merge; reserved for future CLI guard rails.
	ProtectedBranches []string `yaml:"protected_branches" mapstructure:"protected_branches"`

	// AIRetryCount is how many times the AI Merge Engine retries a
	// syntactically invalid resolution before giving up on a file.
	AIRetryCount int `yaml:"ai_retry_count" mapstructure:"ai_retry_count"`

	// BinaryExtensions lists file extensions (with leading dot) the AI
	// Merge Engine refuses to merge, always falling back to an unresolved
	// conflict for them.
	BinaryExtensions []string `yaml:"binary_extensions" mapstructure:"binary_extensions"`

	// MaxMergeLines is the oversize guard: files with more lines than
	// this on either side of a conflict are skipped.
	MaxMergeLines int `yaml:"max_merge_lines" mapstructure:"max_merge_lines"`

	// SyntaxCheckTimeout bounds external syntax-checker invocations.
	SyntaxCheckTimeout time.Duration `yaml:"syntax_check_timeout" mapstructure:"syntax_check_timeout"`
}

// Default returns the built-in defaults, matching spec.md's literal
// on-disk layout contract (branch prefix "auto-claude", worktree dir
// ".worktrees") plus the oversize/retry/timeout guards from §4.4/§4.6.
func Default() *Config {
	return &Config{
		BranchPrefix:       "auto-claude",
		WorktreeDir:        ".worktrees",
		ProtectedBranches:  []string{"main", "master"},
		AIRetryCount:       1,
		BinaryExtensions:   DefaultBinaryExtensions(),
		MaxMergeLines:      5000,
		SyntaxCheckTimeout: 30 * time.Second,
	}
}

// DefaultBinaryExtensions is the out-of-the-box binary guard set: images, archives, executables, compiled objects, media, fonts,
// and office documents, per spec §4.4.
func DefaultBinaryExtensions() []string {
	return []string{
		// images
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".svg",
		// archives
		".zip", ".tar", ".gz", ".bz2", ".xz", ".7z", ".rar",
		// executables / compiled objects
		".exe", ".dll", ".so", ".dylib", ".bin", ".o", ".a", ".wasm",
		// media
		".mp3", ".mp4", ".mov", ".avi", ".wav", ".flac", ".ogg", ".webm",
		// fonts
		".ttf", ".otf", ".woff", ".woff2", ".eot",
		// office documents
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	}
}

// BinaryExtensionSet returns cfg's binary extensions as a lookup set,
// lower-cased.
func (c *Config) BinaryExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.BinaryExtensions))
	for _, ext := range c.BinaryExtensions {
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Load reads `.braid/config.yaml` under projectRoot through viper,
// falling back to Default() for any unset field. A missing config file
// is not an error; Default() values apply uniformly.
func Load(projectRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(projectRoot, StateDir))
	v.SetEnvPrefix("BRAID")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("branch_prefix", def.BranchPrefix)
	v.SetDefault("worktree_dir", def.WorktreeDir)
	v.SetDefault("protected_branches", def.ProtectedBranches)
	v.SetDefault("ai_retry_count", def.AIRetryCount)
	v.SetDefault("binary_extensions", def.BinaryExtensions)
	v.SetDefault("max_merge_lines", def.MaxMergeLines)
	v.SetDefault("syntax_check_timeout", def.SyntaxCheckTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to `.braid/config.yaml` under projectRoot.
func (c *Config) Save(projectRoot string) error {
	dir := filepath.Join(projectRoot, StateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644)
}

// FindProjectRoot walks up from the current working directory looking
// for a `.braid` directory, returning the first ancestor (inclusive)
// that has one.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return FindProjectRootFrom(cwd)
}

// FindProjectRootFrom walks up from start looking for a `.braid`
// directory.
func FindProjectRootFrom(start string) (string, error) {
	dir := start
	for {
		if hasStateDir(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a braid project (no %s directory found above %s)", StateDir, start)
		}
		dir = parent
	}
}

func hasStateDir(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, StateDir))
	return err == nil && info.IsDir()
}

// IsInitialized reports whether projectRoot has a `.braid` directory.
func IsInitialized(projectRoot string) bool {
	return hasStateDir(projectRoot)
}

// Init creates `.braid/` under projectRoot with a default config file,
// unless it already exists.
func Init(projectRoot string, force bool) (*Config, error) {
	stateDir := filepath.Join(projectRoot, StateDir)
	if !force {
		if _, err := os.Stat(stateDir); err == nil {
			return nil, fmt.Errorf("braid already initialized at %s (use --force to overwrite)", stateDir)
		}
	}
	if err := os.MkdirAll(filepath.Join(stateDir, ".locks"), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	cfg := Default()
	if err := cfg.Save(projectRoot); err != nil {
		return nil, err
	}
	return cfg, nil
}
