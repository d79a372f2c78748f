package syntax

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// checkerFor maps a language with no bundled tree-sitter grammar to an
// external checker invocation.
var checkerFor = map[Language]func(path string) (string, []string){
	LangRuby: func(path string) (string, []string) { return "ruby", []string{"-c", path} },
}

// validateExternal writes content to a temp file outside the project
// tree and invokes the matching checker, bounded by ctx's deadline.
// A missing tool, a timeout, or the absence of any configured checker
// for language are all treated as "pass" — this path never blocks a
// merge on tooling the user's machine might not have.
func validateExternal(ctx context.Context, language Language, content string) (Result, error) {
	build, ok := checkerFor[language]
	if !ok {
		return Result{Valid: true}, nil
	}

	tmpDir, err := os.MkdirTemp("", "braid-syntax-*")
	if err != nil {
		return Result{Valid: true}, nil
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, "candidate"+extensionForLanguage(language))
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		return Result{Valid: true}, nil
	}

	name, args := build(tmpFile)
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return Result{Valid: true}, nil // timeout: pass
		}
		if _, lookErr := exec.LookPath(name); lookErr != nil {
			return Result{Valid: true}, nil // tool not installed: pass
		}
		return Result{Valid: false, Reason: string(out)}, nil
	}
	return Result{Valid: true}, nil
}

func extensionForLanguage(language Language) string {
	for ext, l := range extToLang {
		if l == language {
			return ext
		}
	}
	return ""
}
