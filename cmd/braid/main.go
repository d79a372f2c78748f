// Command braid manages per-spec git worktrees and merges them back into
// the base branch, resolving whatever conflicts it can on its own.
package main

import (
	"os"

	"github.com/braidhq/braid/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
