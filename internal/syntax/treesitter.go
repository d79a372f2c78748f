package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func grammarFor(language Language) *sitter.Language {
	switch language {
	case LangGo:
		return golang.GetLanguage()
	case LangJavaScript:
		return javascript.GetLanguage()
	case LangTypeScript:
		return typescript.GetLanguage()
	case LangPython:
		return python.GetLanguage()
	default:
		return nil
	}
}

// validateTreeSitter parses content with language's grammar and fails
// only when the parse tree contains an ERROR or MISSING node — it does
// not reject code that merely looks unusual, since tree-sitter grammars
// are deliberately permissive about semantics and only strict about
// grammatical structure.
func validateTreeSitter(language Language, content string) (Result, error) {
	grammar := grammarFor(language)
	if grammar == nil {
		return Result{Valid: true}, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil {
		return Result{Valid: true}, nil // parser failure itself is not a syntax verdict
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Result{Valid: false, Reason: "parse error in " + string(language) + " content"}, nil
	}
	return Result{Valid: true}, nil
}
