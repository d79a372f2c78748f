package aimerge

import (
	"regexp"
	"strings"
)

var fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n(.*?)\\n?```")

// ExtractFencedBlocks returns the content of every fenced code block in
// text, in order.
func ExtractFencedBlocks(text string) []string {
	matches := fencedBlockRe.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// ExtractResponse returns the single best-guess code payload from an AI
// response: the lone fenced block if there's exactly one, the largest
// block if there are several, or, when there is none, the raw response
// if it "looks like code" — the spec's explicit last-resort heuristic,
// kept because syntax validation downstream is the real correctness
// gate. Returns ok=false when none of these applies.
func ExtractResponse(text string) (content string, ok bool) {
	blocks := ExtractFencedBlocks(text)
	if len(blocks) == 1 {
		return blocks[0], true
	}
	if len(blocks) > 1 {
		// Ambiguous: multiple fenced blocks with no region markers to
		// disambiguate. Prefer the largest, since it's most likely the
		// full file rather than an inline example.
		best := blocks[0]
		for _, b := range blocks[1:] {
			if len(b) > len(best) {
				best = b
			}
		}
		return best, true
	}
	trimmed := strings.TrimSpace(text)
	if looksLikeCode(trimmed) {
		return trimmed, true
	}
	return "", false
}

// looksLikeCode is a shallow heuristic: real prose rarely has a high
// density of lines ending in code-ish punctuation or starting with
// common structural keywords.
func looksLikeCode(text string) bool {
	if text == "" {
		return false
	}
	lines := strings.Split(text, "\n")
	codeish := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasSuffix(trimmed, "{") || strings.HasSuffix(trimmed, "}") ||
			strings.HasSuffix(trimmed, ";") || strings.HasSuffix(trimmed, ":") ||
			strings.HasPrefix(trimmed, "func ") || strings.HasPrefix(trimmed, "def ") ||
			strings.HasPrefix(trimmed, "class ") || strings.HasPrefix(trimmed, "import ") ||
			strings.HasPrefix(trimmed, "package ") || strings.HasPrefix(trimmed, "//") ||
			strings.HasPrefix(trimmed, "#") {
			codeish++
		}
	}
	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return float64(codeish)/float64(nonEmpty) >= 0.3
}
