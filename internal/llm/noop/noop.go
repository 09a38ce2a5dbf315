package noop

import (
	"context"

	"ticker-digest/internal/logger"
)

// Completer is the fallback generative collaborator used when no LLM
// provider is configured. It always returns an empty response, which
// pushes every level onto its deterministic path.
type Completer struct{}

func NewCompleter() *Completer {
	return &Completer{}
}

func (c *Completer) ModelTag() string {
	return "noop"
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	logger.Debug(ctx, "Noop completer called - returning empty response", "prompt_chars", len(prompt))
	return "", nil
}
