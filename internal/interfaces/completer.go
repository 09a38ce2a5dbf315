package interfaces

import "context"

// Completer is the generative text collaborator. Implementations return
// raw model output; callers never assume well-formed JSON and always run
// their own brace-extraction and schema normalization before trusting it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelTag identifies the backing model for provenance fields,
	// e.g. "llm:gpt-4.1-mini" or "noop".
	ModelTag() string
}
