package aimerge

import (
	"fmt"
	"regexp"
	"strings"
)

// ConflictRegion is one marker-delimited span of a three-way merged
// file where "ours" (main) and "theirs" (worktree) diverge from the
// merge-base.
type ConflictRegion struct {
	MainLines     []string
	WorktreeLines []string
}

// conflictBlockRe matches a standard three-way merge marker block,
// generalized from the teacher's CLAUDE.md-table conflict parser to
// arbitrary source text: it only cares about the marker lines and the
// two captured spans between them, not what kind of content they hold.
var conflictBlockRe = regexp.MustCompile(`(?s)<<<<<<<[^\n]*\n(.*?)\n?=======\n(.*?)\n?>>>>>>>[^\n]*`)

// ParseConflictRegions extracts every conflict region from markerText,
// in order of appearance.
func ParseConflictRegions(markerText string) []ConflictRegion {
	matches := conflictBlockRe.FindAllStringSubmatch(markerText, -1)
	regions := make([]ConflictRegion, 0, len(matches))
	for _, m := range matches {
		regions = append(regions, ConflictRegion{
			MainLines:     splitLines(m[1]),
			WorktreeLines: splitLines(m[2]),
		})
	}
	return regions
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ReassembleWithResolutions replaces each conflict block in markerText,
// in order, with the corresponding entry of resolutions, leaving
// everything outside the marker blocks untouched. len(resolutions) must
// equal the number of conflict blocks in markerText.
func ReassembleWithResolutions(markerText string, resolutions []string) (string, error) {
	matches := conflictBlockRe.FindAllStringIndex(markerText, -1)
	if len(matches) != len(resolutions) {
		return "", fmt.Errorf("region count mismatch: %d blocks, %d resolutions", len(matches), len(resolutions))
	}

	var b strings.Builder
	last := 0
	for i, m := range matches {
		b.WriteString(markerText[last:m[0]])
		b.WriteString(resolutions[i])
		last = m[1]
	}
	b.WriteString(markerText[last:])
	return b.String(), nil
}

// reassembleWithSide resolves every region to one side verbatim
// (joining its lines back with "\n").
func reassembleWithSide(markerText string, regions []ConflictRegion, useMain bool) (string, error) {
	resolutions := make([]string, len(regions))
	for i, r := range regions {
		lines := r.WorktreeLines
		if useMain {
			lines = r.MainLines
		}
		resolutions[i] = strings.Join(lines, "\n")
	}
	return ReassembleWithResolutions(markerText, resolutions)
}
