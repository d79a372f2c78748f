// Package aimerge implements the AI Merge Engine: the per-file conflict
// resolution cascade used when a spec branch can't be merged cleanly.
// It tries, in order, a clean three-way text merge, an AI resolution
// scoped to just the conflicting regions, a full-file AI resolution,
// and finally a deterministic heuristic — never leaving a file
// unresolved until every cheaper strategy has failed.
package aimerge

import (
	"context"
	"log/slog"
	"strings"

	"github.com/braidhq/braid/internal/braiderrs"
	"github.com/braidhq/braid/internal/config"
	"github.com/braidhq/braid/internal/syntax"
	"github.com/braidhq/braid/internal/timeline"
	"github.com/braidhq/braid/internal/vcs"
)

// FileInput is everything the engine needs to resolve one conflicting
// file.
type FileInput struct {
	Path       string
	Base       string // merge-base content; "" if the file doesn't exist there
	Main       string // current base-branch content ("ours")
	Worktree   string // spec-branch content ("theirs")
	TaskIntent string
	SpecID     string
	MergeCtx   *timeline.MergeContext
}

// Resolution is the outcome of resolving one file.
type Resolution struct {
	Path     string
	Content  string
	Resolved bool
	Strategy string // "clean-merge", "region-ai", "full-file-ai", "heuristic", ""
	Err      error  // set when Resolved is false
}

// Engine runs the resolution cascade.
type Engine struct {
	caller AICaller
	cfg    *config.Config
	logger *slog.Logger
	vc     *vcs.Context
}

// New builds an Engine. A nil caller is treated as NullCaller(), always
// routing straight to the heuristic fallback. vc is used only for its
// three-way text-merge helper and need not be rooted at any particular
// worktree.
func New(caller AICaller, cfg *config.Config, logger *slog.Logger, vc *vcs.Context) *Engine {
	if caller == nil {
		caller = NullCaller()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{caller: caller, cfg: cfg, logger: logger, vc: vc}
}

// Resolve runs the cascade for in.
func (e *Engine) Resolve(ctx context.Context, in FileInput) Resolution {
	if ext := extOf(in.Path); e.cfg.BinaryExtensionSet()[ext] {
		err := braiderrs.BinarySkipped(in.Path)
		return Resolution{Path: in.Path, Resolved: false, Err: err}
	}

	if lines := maxLineCount(in.Main, in.Worktree); lines > e.cfg.MaxMergeLines {
		err := braiderrs.OversizeSkipped(in.Path, lines, e.cfg.MaxMergeLines)
		return Resolution{Path: in.Path, Resolved: false, Err: err}
	}

	merged, hasConflict, err := e.vc.MergeFileContents(in.Base, in.Main, in.Worktree, "main", "worktree")
	if err != nil {
		e.logger.Warn("aimerge: clean merge attempt failed, continuing to AI strategies", "path", in.Path, "error", err)
	} else if !hasConflict {
		return Resolution{Path: in.Path, Content: merged, Resolved: true, Strategy: "clean-merge"}
	}

	markerText := merged
	language := string(syntax.LanguageFromPath(in.Path))

	if resolution, ok := e.tryRegionStrategy(ctx, in, markerText, language); ok {
		return resolution
	}
	if resolution, ok := e.tryFullFileStrategy(ctx, in, markerText, language); ok {
		return resolution
	}

	return e.heuristicFallback(in)
}

func (e *Engine) tryRegionStrategy(ctx context.Context, in FileInput, markerText, language string) (Resolution, bool) {
	regions := ParseConflictRegions(markerText)
	if len(regions) == 0 {
		return Resolution{}, false
	}

	prompt := RegionPrompt(in.Path, language, in.TaskIntent, in.SpecID, regions)
	prompt = EnrichWithTimeline(prompt, in.MergeCtx)

	resp, err := e.caller.Complete(ctx, SystemPrompt(), prompt)
	if err != nil {
		e.logger.Debug("aimerge: region strategy unavailable", "path", in.Path, "error", err)
		return Resolution{}, false
	}

	raw, ok := ExtractResponse(resp)
	if !ok {
		return Resolution{}, false
	}

	resolutions := splitRegionResponses(raw, len(regions))
	if resolutions == nil {
		return Resolution{}, false
	}

	candidate, err := ReassembleWithResolutions(markerText, resolutions)
	if err != nil {
		return Resolution{}, false
	}

	result, err := syntax.Validate(ctx, syntax.Language(language), candidate, e.cfg.SyntaxCheckTimeout)
	if err != nil || !result.Valid {
		return Resolution{}, false
	}

	return Resolution{Path: in.Path, Content: candidate, Resolved: true, Strategy: "region-ai"}, true
}

func (e *Engine) tryFullFileStrategy(ctx context.Context, in FileInput, markerText, language string) (Resolution, bool) {
	prompt := FullFilePrompt(in.Path, language, in.TaskIntent, in.SpecID, markerText)
	prompt = EnrichWithTimeline(prompt, in.MergeCtx)

	attempts := e.cfg.AIRetryCount + 1
	var lastReason string
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := e.caller.Complete(ctx, SystemPrompt(), prompt)
		if err != nil {
			e.logger.Debug("aimerge: full-file strategy unavailable", "path", in.Path, "error", err)
			return Resolution{}, false
		}

		candidate, ok := ExtractResponse(resp)
		if !ok {
			lastReason = "response contained no extractable code"
			continue
		}

		result, err := syntax.Validate(ctx, syntax.Language(language), candidate, e.cfg.SyntaxCheckTimeout)
		if err != nil {
			lastReason = err.Error()
			continue
		}
		if !result.Valid {
			lastReason = result.Reason
			prompt = prompt + "\n\nYour previous answer did not parse: " + result.Reason + ". Try again."
			continue
		}

		return Resolution{Path: in.Path, Content: candidate, Resolved: true, Strategy: "full-file-ai"}, true
	}

	e.logger.Debug("aimerge: full-file strategy exhausted retries", "path", in.Path, "reason", lastReason)
	return Resolution{}, false
}

// heuristicFallback implements the deterministic rule: a file where
// exactly one side differs from base merges to that side; a file with
// no base yields the worktree content; a file where both sides
// diverged from base is left unresolved.
func (e *Engine) heuristicFallback(in FileInput) Resolution {
	if in.Base == "" {
		return Resolution{Path: in.Path, Content: in.Worktree, Resolved: true, Strategy: "heuristic"}
	}
	mainChanged := in.Main != in.Base
	worktreeChanged := in.Worktree != in.Base

	switch {
	case !mainChanged && worktreeChanged:
		return Resolution{Path: in.Path, Content: in.Worktree, Resolved: true, Strategy: "heuristic"}
	case mainChanged && !worktreeChanged:
		return Resolution{Path: in.Path, Content: in.Main, Resolved: true, Strategy: "heuristic"}
	default:
		return Resolution{
			Path:     in.Path,
			Resolved: false,
			Err:      braiderrs.AIResolveFailed(in.Path, "both sides diverged from base and no AI strategy produced a valid resolution"),
		}
	}
}

func splitRegionResponses(raw string, want int) []string {
	parts := strings.Split(raw, "\n---\n")
	if len(parts) != want {
		// Try a looser split in case the model didn't pad the separator
		// with its own blank lines.
		parts = strings.Split(raw, "---")
		if len(parts) != want {
			return nil
		}
	}
	for i, p := range parts {
		parts[i] = strings.Trim(p, "\n")
	}
	return parts
}

func extOf(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

func maxLineCount(a, b string) int {
	la, lb := strings.Count(a, "\n")+1, strings.Count(b, "\n")+1
	if la > lb {
		return la
	}
	return lb
}
