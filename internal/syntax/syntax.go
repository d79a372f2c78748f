// Package syntax provides best-effort validation of AI-merged file
// content before it's written back to the main checkout. Validation
// never blocks on an unknown language — only languages this package
// actually knows how to parse can fail.
package syntax

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Language is a recognized source language.
type Language string

const (
	LangGo         Language = "go"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangPython     Language = "python"
	LangJSON       Language = "json"
	LangRuby       Language = "ruby"
	LangUnknown    Language = ""
)

var extToLang = map[string]Language{
	".go":   LangGo,
	".js":   LangJavaScript,
	".jsx":  LangJavaScript,
	".mjs":  LangJavaScript,
	".ts":   LangTypeScript,
	".tsx":  LangTypeScript,
	".py":   LangPython,
	".json": LangJSON,
	".rb":   LangRuby,
}

// LanguageFromPath infers a Language from a file's extension. An
// unrecognized extension returns LangUnknown, which always validates.
func LanguageFromPath(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	return extToLang[ext]
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool
	Reason string
}

// Validate checks content against language's syntax rules, with timeout
// bounding any external checker invocation. Unknown languages always
// pass; known languages run a tree-sitter parse (go/javascript/
// typescript/python) or a structural decode (json); anything else falls
// back to an external checker, treating a missing tool or a timeout as
// a pass.
func Validate(ctx context.Context, language Language, content string, timeout time.Duration) (Result, error) {
	switch language {
	case LangJSON:
		return validateJSON(content)
	case LangGo, LangJavaScript, LangTypeScript, LangPython:
		return validateTreeSitter(language, content)
	case LangUnknown:
		return Result{Valid: true}, nil
	default:
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return validateExternal(cctx, language, content)
	}
}
