package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `{
  "title": "Add OAuth login",
  "description": "Adds OAuth2 login flow",
  "phases": [
    {
      "subtasks": [
        {"title": "add provider config", "description": "wire provider", "status": "completed", "files": ["internal/auth/provider.go"]},
        {"title": "add callback handler", "description": "handle callback", "status": "weird_unknown_status", "files": ["internal/auth/callback.go", "internal/auth/provider.go"]}
      ]
    }
  ]
}`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "implementation_plan.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead_Basic(t *testing.T) {
	path := writeSample(t, samplePlan)
	p, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, "Add OAuth login", p.Title)
	require.Len(t, p.Phases, 1)
	require.Len(t, p.Phases[0].Subtasks, 2)
	assert.Equal(t, StatusCompleted, p.Phases[0].Subtasks[0].Status)
}

func TestRead_NormalizesUnknownStatus(t *testing.T) {
	path := writeSample(t, samplePlan)
	p, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Phases[0].Subtasks[1].Status)
}

func TestAllFiles_Deduplicates(t *testing.T) {
	path := writeSample(t, samplePlan)
	p, err := Read(path)
	require.NoError(t, err)

	files := p.AllFiles()
	assert.ElementsMatch(t, []string{"internal/auth/provider.go", "internal/auth/callback.go"}, files)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRead_InvalidJSON(t *testing.T) {
	path := writeSample(t, "not json{{{")
	_, err := Read(path)
	assert.Error(t, err)
}
