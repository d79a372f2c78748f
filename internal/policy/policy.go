// Package policy decides whether a build should run in an isolated
// worktree or directly against the current checkout. It holds no state
// and performs no I/O: every input the decision depends on is passed in
// by the caller.
package policy

// Decision is the chosen workspace mode.
type Decision string

const (
	Isolated Decision = "isolated"
	Direct   Decision = "direct"
)

// Inputs are the signals the decision is made from.
type Inputs struct {
	// ProjectHasUncommittedChanges reports whether the current checkout
	// has a dirty working tree.
	ProjectHasUncommittedChanges bool
	// ForceIsolated and ForceDirect are explicit user overrides; at most
	// one should be set by a well-formed caller, but ForceIsolated wins
	// if both are.
	ForceIsolated bool
	ForceDirect   bool
	// AutoContinue means the caller is running unattended (e.g. a CI
	// pipeline chaining multiple builds) and prefers isolation by
	// default to avoid clobbering a checkout another step still needs.
	AutoContinue bool
}

// Decide resolves Inputs to a Decision. Precedence: an explicit force
// flag always wins; failing that, a dirty working tree or unattended
// (auto-continue) operation defaults to isolation, since both are cases
// where a direct build could destroy work the caller didn't ask to
// touch; otherwise direct is the default, since it has the least
// overhead when there's nothing to protect.
func Decide(in Inputs) Decision {
	switch {
	case in.ForceIsolated:
		return Isolated
	case in.ForceDirect:
		return Direct
	case in.ProjectHasUncommittedChanges:
		return Isolated
	case in.AutoContinue:
		return Isolated
	default:
		return Direct
	}
}
