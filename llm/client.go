package llm

import (
	"context"
)

// Embedder converts free text into a fixed-dimensionality vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Completer invokes the language model with a prompt and returns raw text.
// Implementations do not retry: adjudication is not idempotent-safe to
// re-invoke blindly, so retry policy belongs to the caller.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
