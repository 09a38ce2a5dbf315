package llmobs

import (
	"context"

	"ticker-digest/internal/interfaces"
	"ticker-digest/internal/logger"
	"ticker-digest/internal/trace"
)

// observableCompleter wraps a Completer with logging and tracing.
type observableCompleter struct {
	completer interfaces.Completer
}

// Compile-time interface check
var _ interfaces.Completer = (*observableCompleter)(nil)

// Wrap wraps a completer with observability middleware.
func Wrap(completer interfaces.Completer) interfaces.Completer {
	return &observableCompleter{completer: completer}
}

func (oc *observableCompleter) ModelTag() string {
	return oc.completer.ModelTag()
}

func (oc *observableCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Complete")
	defer span.End()

	// Skip(1) so log lines report the actual caller, not this wrapper.
	logger.DebugSkip(ctx, 1, "Requesting completion",
		"model", oc.completer.ModelTag(),
		"prompt_chars", len(prompt),
	)

	raw, err := oc.completer.Complete(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Completion failed", err,
			"model", oc.completer.ModelTag(),
		)
		return "", err
	}

	logger.DebugSkip(ctx, 1, "Completion received",
		"model", oc.completer.ModelTag(),
		"response_chars", len(raw),
	)
	return raw, nil
}
