package aimerge

import (
	"fmt"
	"strings"

	"github.com/braidhq/braid/internal/timeline"
)

const systemPrompt = `You resolve git merge conflicts. You are given the conflicting ` +
	`regions (or, when noted, the full file) from two branches that diverged from a ` +
	`common ancestor, plus the intent of the change that produced the second branch. ` +
	`Respond with ONLY the resolved code in a single fenced code block, no prose, no ` +
	`explanation, no conflict markers.`

// RegionPrompt builds the minimal prompt: only the conflicting regions,
// not the surrounding unchanged file content. This is the cheaper,
// preferred strategy — kept first in the cascade specifically so a file
// with a few small conflicting hunks never pays for a full-file prompt.
func RegionPrompt(filePath string, language string, taskIntent string, specID string, regions []ConflictRegion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", filePath)
	if language != "" {
		fmt.Fprintf(&b, "Language: %s\n", language)
	}
	fmt.Fprintf(&b, "Spec: %s\n", specID)
	if taskIntent != "" {
		fmt.Fprintf(&b, "Intent of the change being merged in: %s\n", taskIntent)
	}
	b.WriteString("\nEach numbered block below is one conflicting region. Resolve each one, " +
		"then return the full set of resolved regions concatenated in order inside a single " +
		"fenced code block, separated by a line containing only \"---\".\n\n")

	for i, r := range regions {
		fmt.Fprintf(&b, "Region %d, current branch:\n```\n%s\n```\n", i+1, strings.Join(r.MainLines, "\n"))
		fmt.Fprintf(&b, "Region %d, incoming branch:\n```\n%s\n```\n\n", i+1, strings.Join(r.WorktreeLines, "\n"))
	}
	return b.String()
}

// FullFilePrompt builds the fallback prompt containing the complete
// conflicting file (with conflict markers intact), used whenever the
// region-only strategy did not produce a valid resolution.
func FullFilePrompt(filePath string, language string, taskIntent string, specID string, markerText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", filePath)
	if language != "" {
		fmt.Fprintf(&b, "Language: %s\n", language)
	}
	fmt.Fprintf(&b, "Spec: %s\n", specID)
	if taskIntent != "" {
		fmt.Fprintf(&b, "Intent of the change being merged in: %s\n", taskIntent)
	}
	b.WriteString("\nFull file, with git conflict markers:\n```\n")
	b.WriteString(markerText)
	b.WriteString("\n```\n")
	return b.String()
}

// EnrichWithTimeline appends historical evidence to an existing prompt
// when the merge context shows main has moved since the task's branch
// point — empty when there's nothing to add, so a fresh branch point
// never pays for an empty section.
func EnrichWithTimeline(base string, mc *timeline.MergeContext) string {
	if mc == nil || mc.TotalCommitsBehind == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	fmt.Fprintf(&b, "\nThe base branch has moved %d commit(s) ahead of where this task branched:\n", mc.TotalCommitsBehind)
	for _, subject := range mc.MainEvolution {
		fmt.Fprintf(&b, "- %s\n", subject)
	}
	if mc.TotalPendingTasks > 0 {
		fmt.Fprintf(&b, "\n%d other in-flight task(s) also plan to touch this file: %s\n",
			mc.TotalPendingTasks, strings.Join(mc.PendingTasks, ", "))
	}
	return b.String()
}

// SystemPrompt is the fixed system prompt used for every AI merge call.
func SystemPrompt() string {
	return systemPrompt
}
