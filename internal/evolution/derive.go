package evolution

import (
	"fmt"
	"strings"
)

// DeriveFromContent produces a best-effort SemanticChange summary from
// the before/after text of one file, per the Open Question decision to
// derive changes structurally from the diff rather than via a
// language-aware parser: cheap, deterministic, and sufficient as
// evidence for a merge prompt.
func DeriveFromContent(path, before, after string) []SemanticChange {
	if before == "" && after != "" {
		return []SemanticChange{Added(path)}
	}
	if before != "" && after == "" {
		return []SemanticChange{Removed(path)}
	}
	if before == after {
		return nil
	}

	added, removed := countLineDelta(before, after)
	return []SemanticChange{Modified(path, fmt.Sprintf("+%d/-%d lines", added, removed))}
}

// countLineDelta does a coarse line-presence diff: lines in after but
// not in before count as added, and vice versa. It is not a proper LCS
// diff — that precision isn't needed for a one-line merge-prompt
// summary.
func countLineDelta(before, after string) (added, removed int) {
	beforeLines := countLines(before)
	afterLines := countLines(after)

	for line, n := range afterLines {
		if have := beforeLines[line]; n > have {
			added += n - have
		}
	}
	for line, n := range beforeLines {
		if have := afterLines[line]; n > have {
			removed += n - have
		}
	}
	return added, removed
}

func countLines(text string) map[string]int {
	counts := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		counts[line]++
	}
	return counts
}
