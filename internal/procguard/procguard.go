// Package procguard tests whether a given process id is alive, for
// stale-lock detection in internal/mergelock.
package procguard

import (
	"os"
	"syscall"
)

// Alive reports whether a process with the given pid exists.
//
// On Unix, os.FindProcess always succeeds; the only reliable test is
// sending the null signal and inspecting the result. A permission-denied
// error means the process exists but is owned by another user, so it
// counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.EPERM {
		return true
	}
	return false
}
