package syntax

import (
	"encoding/json"
	"fmt"
	"strings"
)

// validateJSON does a structural decode, reporting the line number of a
// syntax error when the stdlib exposes byte offset information.
func validateJSON(content string) (Result, error) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		if se, ok := err.(*json.SyntaxError); ok {
			line := lineForOffset(content, int(se.Offset))
			return Result{Valid: false, Reason: fmt.Sprintf("json syntax error at line %d: %s", line, se.Error())}, nil
		}
		return Result{Valid: false, Reason: err.Error()}, nil
	}
	return Result{Valid: true}, nil
}

func lineForOffset(content string, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}
