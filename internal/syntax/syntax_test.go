package syntax

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageFromPath(t *testing.T) {
	assert.Equal(t, LangGo, LanguageFromPath("internal/foo/bar.go"))
	assert.Equal(t, LangTypeScript, LanguageFromPath("app/page.tsx"))
	assert.Equal(t, LangJSON, LanguageFromPath("implementation_plan.json"))
	assert.Equal(t, LangUnknown, LanguageFromPath("README.md"))
}

func TestValidate_UnknownLanguageAlwaysPasses(t *testing.T) {
	result, err := Validate(context.Background(), LangUnknown, "this is not even code {{{", time.Second)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_JSON_Valid(t *testing.T) {
	result, err := Validate(context.Background(), LangJSON, `{"a": 1}`, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_JSON_Invalid(t *testing.T) {
	result, err := Validate(context.Background(), LangJSON, `{"a": 1,}`, time.Second)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Reason, "line")
}

func TestValidate_Go_Valid(t *testing.T) {
	result, err := Validate(context.Background(), LangGo, "package main\n\nfunc main() {}\n", time.Second)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidate_Go_Invalid(t *testing.T) {
	result, err := Validate(context.Background(), LangGo, "package main\n\nfunc main( {\n", time.Second)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestValidate_Ruby_MissingToolPasses(t *testing.T) {
	// ruby is very unlikely to be installed on a CI runner for this repo;
	// the external-checker fallback must treat that as a pass rather than
	// blocking the merge on absent tooling.
	result, err := Validate(context.Background(), LangRuby, "def foo\n  1\nend\n", time.Second)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestLineForOffset(t *testing.T) {
	content := "line1\nline2\nline3"
	assert.Equal(t, 1, lineForOffset(content, 2))
	assert.Equal(t, 2, lineForOffset(content, 7))
	assert.Equal(t, 3, lineForOffset(content, 13))
}
