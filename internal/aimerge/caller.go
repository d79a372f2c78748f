package aimerge

import (
	"context"
	"errors"
)

// ErrAIUnavailable is returned by the null-object AICaller, so callers
// can route through the same failure-then-fallback path whether the AI
// was never configured or genuinely failed.
var ErrAIUnavailable = errors.New("no AI caller configured")

// AICaller is the single-capability abstraction the AI Merge Engine
// depends on: a two-string-in, one-string-out function. Any value
// exposing this is acceptable; its transport, model, and latency are
// none of this package's concern.
type AICaller interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type nullCaller struct{}

func (nullCaller) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", ErrAIUnavailable
}

// NullCaller returns the null-object AICaller used when the embedding
// application hasn't configured one. It always fails, which routes the
// Engine uniformly into the heuristic fallback.
func NullCaller() AICaller {
	return nullCaller{}
}
