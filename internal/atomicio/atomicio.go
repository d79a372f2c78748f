// Package atomicio provides crash-safe file writes for braid's JSON state
// files (merge locks, evolution/timeline trackers). Every write lands via
// a temp file in the target directory followed by a rename, so a reader
// never observes a partially written file.
package atomicio

import (
	"encoding/json"
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile atomically writes data to path with the given permissions.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}

// WriteJSON atomically writes v, marshaled as indented JSON, to path.
func WriteJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return WriteFile(path, data, perm)
}

// ReadJSON reads path and unmarshals it into v. A missing file is not
// treated specially; callers check os.IsNotExist themselves.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
