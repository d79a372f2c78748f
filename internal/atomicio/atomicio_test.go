package atomicio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteJSON_ReadJSON_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	want := payload{Name: "feature-x", Count: 3}
	require.NoError(t, WriteJSON(path, want, 0o644))

	var got payload
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, want, got)
}

func TestWriteJSON_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	require.NoError(t, WriteJSON(path, payload{Name: "first"}, 0o644))
	require.NoError(t, WriteJSON(path, payload{Name: "second"}, 0o644))

	var got payload
	require.NoError(t, ReadJSON(path, &got))
	assert.Equal(t, "second", got.Name)
}

func TestReadJSON_MissingFile(t *testing.T) {
	dir := t.TempDir()
	err := ReadJSON(filepath.Join(dir, "missing.json"), &payload{})
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFile_NoTempArtifactsLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, WriteFile(path, []byte("hello"), 0o644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}
